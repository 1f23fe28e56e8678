package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour
type Options struct {
	Debug bool
	// Console writes human-readable lines to stderr instead of JSON to stdout
	Console bool
	Service string
	Version string
}

// New builds a zap logger. JSON output carries service and version on every line.
func New(opts Options) (*zap.Logger, error) {
	var config zap.Config
	if opts.Console {
		config = zap.NewDevelopmentConfig()
		config.OutputPaths = []string{"stderr"}
		config.DisableStacktrace = !opts.Debug
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig = jsonEncoderConfig()
		config.DisableStacktrace = false
		// request logs are the noisiest stream; keep them all when debugging
		if opts.Debug {
			config.Sampling = nil
		}
	}
	config.Level = zap.NewAtomicLevelAt(levelFor(opts.Debug))

	var fields []zap.Field
	if opts.Service != "" {
		fields = append(fields, zap.String("service", opts.Service))
	}
	if opts.Version != "" {
		fields = append(fields, zap.String("version", opts.Version))
	}
	return config.Build(zap.Fields(fields...))
}

// Sync flushes any buffered log entries. Safe to call with a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func levelFor(debugMode bool) zapcore.Level {
	if debugMode {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
