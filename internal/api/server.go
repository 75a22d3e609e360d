// Package api is the HTTP presentation boundary. Handlers stay thin: they
// parse the request, call into the service layer and translate the error
// taxonomy into status codes. No weather logic lives here.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/skycast/internal/config"
	"github.com/valpere/skycast/internal/services"
	"github.com/valpere/skycast/internal/version"
	"github.com/valpere/skycast/pkg/metrics"
)

type Server struct {
	router   *gin.Engine
	server   *http.Server
	services *services.Services
	logger   *zerolog.Logger
	metrics  *metrics.Metrics
	port     int
}

func NewServer(cfg *config.ServerConfig, svcs *services.Services, logger *zerolog.Logger, m *metrics.Metrics) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Telemetry(logger, m))
	router.Use(NewClientRateLimiter(rate.Every(time.Second), 10).Middleware())

	s := &Server{
		router:   router,
		services: svcs,
		logger:   logger,
		metrics:  m,
		port:     cfg.Port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api/v1")
	{
		api.GET("/weather/current", s.currentWeatherHandler)
		api.GET("/weather/forecast", s.forecastHandler)
		api.GET("/weather/activities", s.activitiesHandler)

		api.GET("/locations", s.listLocationsHandler)
		api.GET("/locations/favorites", s.listFavoritesHandler)
		api.POST("/locations", s.saveLocationHandler)
		api.POST("/locations/:id/favorite", s.toggleFavoriteHandler)
		api.PATCH("/locations/:id", s.renameLocationHandler)
		api.DELETE("/locations/:id", s.removeLocationHandler)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}
	s.logger.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}
