// Package services provides the business logic layer for SkyCast: weather
// retrieval with caching, derived-metric assembly, the saved-location
// registry and the search history. Each service gets its dependencies
// injected once at startup.
package services

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/valpere/skycast/internal/config"
	"github.com/valpere/skycast/internal/store"
	"github.com/valpere/skycast/pkg/metrics"
	"github.com/valpere/skycast/pkg/weather"
)

// Services is the central container for the service layer.
type Services struct {
	Weather   *WeatherService   // Provider access, caching, derived metrics
	Locations *LocationRegistry // Saved/favorite location collection
	History   *HistoryService   // Recent searches and fuzzy suggestions
	Refresh   *RefreshService   // Background favorite refresh
}

// New wires the service container. The store backend carries registry and
// history state; Redis carries the short-lived weather cache and the
// change-notification channel.
func New(ctx context.Context, cfg *config.Config, st store.Store, rdb *redis.Client, logger *zerolog.Logger, m *metrics.Metrics) *Services {
	weatherService := NewWeatherService(weather.NewClient(cfg.Weather.OpenWeatherAPIKey), rdb, logger, m)
	notifier := Notifier(NewRedisNotifier(rdb, logger))
	registry := NewLocationRegistry(ctx, st, weatherService, notifier, logger, m)
	history := NewHistoryService(ctx, st, logger)
	refresh := NewRefreshService(weatherService, registry, logger)

	return &Services{
		Weather:   weatherService,
		Locations: registry,
		History:   history,
		Refresh:   refresh,
	}
}

// StartRefresh runs the background favorite refresh until the context is
// cancelled or Stop is called.
func (s *Services) StartRefresh(ctx context.Context) {
	s.Refresh.Start(ctx)
}

// Stop terminates background work. Call during shutdown.
func (s *Services) Stop() {
	s.Refresh.Stop()
}
