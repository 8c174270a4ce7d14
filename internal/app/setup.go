// Package app wires the toy service components together.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/toymarket/internal/config"
	"github.com/abgdnv/toymarket/internal/service"
	"github.com/abgdnv/toymarket/internal/store"
	grpcImpl "github.com/abgdnv/toymarket/internal/transport/grpc"
	"github.com/abgdnv/toymarket/internal/transport/rest"
	"github.com/abgdnv/toymarket/pkg/messaging"
	"github.com/abgdnv/toymarket/pkg/server"
	"github.com/abgdnv/toymarket/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc"
)

// ServiceName names the service in logs, traces, metrics and the config env prefix.
const ServiceName = "toy"

type Dependencies struct {
	ToyService     service.ToyService
	Logger         *slog.Logger
	AllowedOrigins []string
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// SetupDependencies builds the service over coll: a MongoStore behind a circuit breaker.
func SetupDependencies(coll *mongo.Collection, cfg *config.Config, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	toyStore := store.NewBreakerStore(
		store.NewMongoStore(coll, cfg.Database.QueryTimeout),
		cfg.CircuitBreaker,
		logger,
	)

	return &Dependencies{
		ToyService:     service.NewService(toyStore, publisher),
		Logger:         logger,
		AllowedOrigins: cfg.HTTPServer.CORS.AllowedOrigins,
	}
}

// SetupHttpHandler builds the router with middleware and every route.
// Used by E2E tests to serve the API without a listening server.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(ServiceName, deps.Logger)
	if len(deps.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", web.RequestIDHeader},
			ExposedHeaders: []string{web.RequestIDHeader},
			MaxAge:         300,
		}))
	}
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the toy service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	toyHandler := rest.NewHandler(deps.ToyService, deps.Logger)
	toyHandler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures the HTTP server for the toy service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer creates the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, health *grpcImpl.HealthServer, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, health.Register)
}
