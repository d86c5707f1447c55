package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crashlens/crashlens-core/internal/api/handlers"
	"github.com/crashlens/crashlens-core/internal/api/middleware"
	"github.com/crashlens/crashlens-core/internal/config"
	"github.com/crashlens/crashlens-core/internal/monitoring"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

// ServerStore is everything the HTTP surface needs from the document store.
type ServerStore interface {
	handlers.Store
	handlers.ReadyChecker
}

type Server struct {
	config     *config.Config
	logger     logger.Logger
	client     streams.Client
	store      ServerStore
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(cfg *config.Config, log logger.Logger, client streams.Client, store ServerStore) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config: cfg,
		logger: log,
		client: client,
		store:  store,
		router: gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(monitoring.HTTPMetricsMiddleware())

	monitoring.SetupPrometheusMetrics(s.router)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.client, s.store, s.logger)
	incidentsHandler := handlers.NewIncidentsHandler(s.client, s.store, s.logger)
	activityHandler := handlers.NewActivityHandler(s.client, s.logger)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	api := s.router.Group("/api")
	api.POST("/report-crash", incidentsHandler.ReportCrash)
	api.GET("/incidents", incidentsHandler.ListIncidents)
	api.GET("/patterns", incidentsHandler.ListPatterns)
	api.GET("/resolutions", incidentsHandler.ListResolutions)
	api.GET("/agent-activity", activityHandler.TailSSE)

	v1 := s.router.Group("/api/v1")
	v1.GET("/ws/activity", activityHandler.TailWS)
}

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		// Long-lived SSE/WS tails manage their own lifetime.
		WriteTimeout: 0,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("CRASHLENS REST API server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down CRASHLENS gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the underlying Gin engine so tests can mount it.
func (s *Server) Handler() http.Handler {
	return s.router
}
