package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cache"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/config"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/handler"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/middleware"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server represents the HTTP server.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	service *cache.Service
	logger  zerolog.Logger
	metrics *middleware.Metrics
}

// New creates a new server instance.
func New(cfg *config.Config, service *cache.Service, logger zerolog.Logger) *Server {
	// Set Gin mode based on log level
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		router:  gin.New(),
		service: service,
		logger:  logger,
	}

	// Initialize metrics if enabled
	if cfg.Metrics.Enabled {
		metrics, err := middleware.NewMetrics()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize metrics")
		}
		s.metrics = metrics
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(middleware.RequestLogger(s.logger))

	// Metrics middleware
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
	}

	// Health endpoint
	s.router.GET("/", s.handleHealth)

	// Metrics endpoint
	if s.cfg.Metrics.Enabled {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Cache endpoints
	cacheHandler, err := handler.NewCacheHandler(s.service, s.logger)
	if err != nil {
		s.logger.Fatal().Err(err).Msg("Failed to initialize cache handler")
	}

	s.router.HEAD("/:name/:version/:sha", cacheHandler.Head)
	s.router.GET("/:name/:version/:sha", cacheHandler.Get)
	s.router.PUT("/:name/:version/:sha", cacheHandler.Put)
}

// handleHealth reports liveness and storage connectivity.
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.service.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed: storage unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"version": Version,
			"storage": s.cfg.Storage.Type,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": Version,
		"storage": s.cfg.Storage.Type,
		"mode":    s.service.Mode().String(),
	})
}

// Run starts the HTTP server.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// Channel to capture server errors
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().
			Str("addr", addr).
			Str("mode", s.service.Mode().String()).
			Str("storage", s.cfg.Storage.Type).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Router returns the Gin router for testing purposes.
func (s *Server) Router() *gin.Engine {
	return s.router
}
