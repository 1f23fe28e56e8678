package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/vizflow/internal/config"
	"github.com/benvon/vizflow/internal/database"
	"github.com/benvon/vizflow/internal/handlers"
	"github.com/benvon/vizflow/internal/logger"
	"github.com/benvon/vizflow/internal/middleware"
	"github.com/benvon/vizflow/internal/models"
	"github.com/benvon/vizflow/internal/queue"
	"github.com/benvon/vizflow/internal/services/ai"
	"github.com/benvon/vizflow/internal/services/oidc"
	"github.com/benvon/vizflow/internal/store"
	"github.com/benvon/vizflow/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	rabbitMaxRetries   = 5
	rabbitInitialDelay = 2 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(logger.Options{Debug: debugMode, Service: serviceName, Version: version})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, debugMode, zapLogger); err != nil {
		zapLogger.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.Config, debugMode bool, zapLogger *zap.Logger) error {
	ctx := context.Background()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("cors_origins", cfg.CORSOrigins()),
		zap.Bool("ai_enabled", cfg.AIEnabled()),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("auth_enabled", cfg.AuthEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	tasks, err := initialTasks(cfg)
	if err != nil {
		return err
	}
	taskStore := store.New(zapLogger, tasks...)
	zapLogger.Info("task_store_seeded", zap.Int("tasks", len(tasks)))

	health := handlers.NewHealthChecker(version, taskStore)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		health.Register("redis", handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
		zapLogger.Info("connected_to_redis")
	}

	var dispatcher *queue.Dispatcher
	if cfg.RabbitMQURL != "" {
		broker, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			return err
		}
		defer func() {
			if err := broker.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		health.Register("rabbitmq", broker)

		dispatcher = queue.NewDispatcher(broker, cfg.EventBuffer, serviceName, zapLogger)
		dispatcher.Start()
		taskStore.Subscribe(dispatcher.HandleEvent)
	}

	var archive database.ReportArchive = database.NewMemoryReportArchive(cfg.ReportHistoryMax)
	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		health.Register("database", db)
		archive = database.NewReportRepository(db)
		zapLogger.Info("connected_to_database")
	}

	advisor := ai.NewAdvisor(createAIProvider(cfg, zapLogger, debugMode), zapLogger, cfg.AITimeout)
	reports := ai.NewReportService(advisor, func() []models.Task { return taskStore.List(store.Filter{}) }, archive, zapLogger)

	limitStore, err := middleware.NewRateLimitStore(redisClient)
	if err != nil {
		return err
	}
	rateLimit, err := middleware.RateLimit(limitStore, cfg.RateLimit, zapLogger)
	if err != nil {
		return err
	}

	var verifier middleware.TokenVerifier
	if cfg.AuthEnabled() {
		verifier, err = newVerifier(ctx, cfg)
		if err != nil {
			return err
		}
		zapLogger.Info("bearer_auth_enabled", zap.String("issuer", cfg.AuthIssuer))
	}

	handler := newRouter(routerDeps{
		logger:      zapLogger,
		tasks:       handlers.NewTaskHandler(taskStore, zapLogger),
		dashboard:   handlers.NewDashboardHandler(taskStore),
		ai:          handlers.NewAIHandler(advisor, reports, zapLogger),
		health:      health,
		openAPI:     handlers.NewOpenAPIHandler(cfg.OpenAPIPath),
		corsOrigins: cfg.CORSOrigins(),
		corsDebug:   debugMode,
		enableHSTS:  cfg.EnableHSTS,
		maxBytes:    cfg.MaxRequestBytes,
		timeout:     cfg.RequestTimeout,
		tracing:     tracing,
		rateLimit:   rateLimit,
		auth:        verifier,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		zapLogger.Info("server_shutting_down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	if err := reports.Wait(shutdownCtx); err != nil {
		zapLogger.Warn("report_generation_abandoned", zap.Error(err))
	}
	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			zapLogger.Warn("event_dispatcher_not_drained", zap.Error(err))
		}
		published, dropped := dispatcher.Stats()
		zapLogger.Info("event_dispatcher_closed", zap.Int64("published", published), zap.Int64("dropped", dropped))
	}

	zapLogger.Info("server_exited")
	return nil
}

// initialTasks loads the seed file, or the demo tasks, or nothing
func initialTasks(cfg *config.Config) ([]models.Task, error) {
	switch {
	case cfg.SeedFile != "":
		tasks, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		return tasks, nil
	case cfg.SeedDemo:
		return store.DemoTasks(), nil
	default:
		return nil, nil
	}
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// connectRabbitMQ retries with exponential backoff to ride out broker startup
func connectRabbitMQ(amqpURL string, zapLogger *zap.Logger) (*queue.RabbitMQBroker, error) {
	var lastErr error
	for attempt := 0; attempt < rabbitMaxRetries; attempt++ {
		broker, err := queue.NewRabbitMQBroker(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return broker, nil
		}
		lastErr = err

		delay := rabbitInitialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", rabbitMaxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", rabbitMaxRetries, lastErr)
}

// createAIProvider builds the configured provider, or nil so the advisor always falls back
func createAIProvider(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) ai.Provider {
	if !cfg.AIEnabled() {
		zapLogger.Warn("ai_api_key_not_configured_advisor_uses_fallbacks")
		return nil
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, zapLogger, debugMode)

	provider, err := registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":  cfg.AIAPIKey,
		"base_url": cfg.AIBaseURL,
		"model":    cfg.AIModel,
		"timeout":  cfg.AITimeout.String(),
	})
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_advisor_uses_fallbacks",
			zap.String("provider", cfg.AIProvider),
			zap.Error(err),
		)
		return nil
	}
	zapLogger.Info("ai_provider_configured",
		zap.String("provider", cfg.AIProvider),
		zap.String("api_key", ai.SanitizeAPIKey(cfg.AIAPIKey)),
	)
	return provider
}

// newVerifier resolves the JWKS location from discovery unless it is configured directly
func newVerifier(ctx context.Context, cfg *config.Config) (*oidc.Verifier, error) {
	jwksURL := cfg.AuthJWKSURL
	if jwksURL == "" {
		discoverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		doc, err := oidc.Discover(discoverCtx, cfg.AuthIssuer)
		if err != nil {
			return nil, fmt.Errorf("failed to discover issuer: %w", err)
		}
		jwksURL = doc.JWKSURI
	}
	return oidc.NewVerifier(oidc.NewKeyCache(oidc.DefaultJWKSTTL), jwksURL, cfg.AuthIssuer, cfg.AuthAudience), nil
}
