package api

import (
	"context"
	"net/http"
	"time"

	"example.com/loomtrack/services/supplychain/config"
	"example.com/loomtrack/services/supplychain/internal/api/handlers"
	"example.com/loomtrack/services/supplychain/internal/api/middleware"
	"example.com/loomtrack/services/supplychain/internal/metrics"
	"example.com/loomtrack/services/supplychain/internal/services"
	"example.com/loomtrack/services/supplychain/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	config            config.Config
	router            *gin.Engine
	httpServer        *http.Server
	lotService        *services.LotService
	pipelineService   *services.PipelineService
	catalogService    *services.CatalogService
	capabilityService *services.CapabilityService
	metrics           *metrics.Metrics
	tracer            tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	lotService *services.LotService,
	pipelineService *services.PipelineService,
	catalogService *services.CatalogService,
	capabilityService *services.CapabilityService,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:            cfg,
		lotService:        lotService,
		pipelineService:   pipelineService,
		catalogService:    catalogService,
		capabilityService: capabilityService,
		metrics:           metricsCollector,
		tracer:            tracer,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Requests(s.metrics))

	metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
	metricsHandler.RegisterRoutes(router)

	api := router.Group("/api/v1")

	lotHandler := handlers.NewLotHandler(s.lotService, s.pipelineService, s.tracer)
	lotHandler.RegisterRoutes(api)

	pipelineHandler := handlers.NewPipelineHandler(s.pipelineService, s.tracer)
	pipelineHandler.RegisterRoutes(api)

	catalogHandler := handlers.NewCatalogHandler(s.catalogService, s.tracer)
	catalogHandler.RegisterRoutes(api)

	factoryHandler := handlers.NewFactoryHandler(s.capabilityService, s.tracer)
	factoryHandler.RegisterRoutes(api)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
