package main

import (
	"net/http"
	"time"

	"github.com/benvon/vizflow/internal/handlers"
	"github.com/benvon/vizflow/internal/middleware"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "vizflow-api"

// routerDeps is everything the HTTP surface needs
type routerDeps struct {
	logger *zap.Logger

	tasks     *handlers.TaskHandler
	dashboard *handlers.DashboardHandler
	ai        *handlers.AIHandler
	health    *handlers.HealthChecker
	openAPI   *handlers.OpenAPIHandler

	corsOrigins []string
	corsDebug   bool
	enableHSTS  bool
	maxBytes    int64
	timeout     time.Duration
	tracing     bool

	// nil disables the middleware
	rateLimit func(http.Handler) http.Handler
	auth      middleware.TokenVerifier
}

// newRouter wires middleware and routes.
// gorilla/mux runs r.Use middleware in registration order, outermost first.
func newRouter(d routerDeps) http.Handler {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(d.enableHSTS))
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.MaxRequestSize(d.maxBytes))
	r.Use(middleware.ContentType)

	d.health.RegisterRoutes(r)
	d.openAPI.RegisterRoutes(r)

	api := r.PathPrefix("/api/v1").Subrouter()
	if d.rateLimit != nil {
		api.Use(d.rateLimit)
	}
	if d.auth != nil {
		api.Use(middleware.Auth(d.auth, d.logger))
	}
	api.Use(middleware.Timeout(d.timeout))

	d.tasks.RegisterRoutes(api.PathPrefix("/tasks").Subrouter())
	d.dashboard.RegisterRoutes(api)
	d.ai.RegisterRoutes(api.PathPrefix("/ai").Subrouter())

	// rs/cors answers real preflights; plain OPTIONS still gets a 204
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return middleware.CORS(d.corsOrigins, d.corsDebug)(r)
}
