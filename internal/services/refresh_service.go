package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/skycast/pkg/weather"
)

// RefreshService periodically re-fetches current conditions for favorite
// locations so their cached display weather stays fresh between visits.
type RefreshService struct {
	weather  *WeatherService
	registry *LocationRegistry
	logger   *zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

func NewRefreshService(weatherService *WeatherService, registry *LocationRegistry, logger *zerolog.Logger) *RefreshService {
	return &RefreshService{
		weather:  weatherService,
		registry: registry,
		logger:   logger,
		interval: 30 * time.Minute,
		stopChan: make(chan struct{}),
	}
}

func (s *RefreshService) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting favorite refresh loop")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Refresh context cancelled")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Refresh stop signal received")
			return
		case <-ticker.C:
			s.refreshFavorites(ctx)
		}
	}
}

func (s *RefreshService) Stop() {
	close(s.stopChan)
}

func (s *RefreshService) refreshFavorites(ctx context.Context) {
	favorites := s.registry.ListFavorites()
	s.logger.Debug().Int("count", len(favorites)).Msg("Refreshing favorite locations")

	for _, favorite := range favorites {
		snapshot, err := s.weather.GetCurrent(ctx, weather.ByCoords(favorite.Lat, favorite.Lon))
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("id", favorite.ID).
				Str("name", favorite.Name).
				Msg("Favorite refresh failed")
			continue
		}
		if err := s.registry.UpdateCachedWeather(ctx, favorite.ID, snapshot); err != nil {
			s.logger.Warn().Err(err).Str("id", favorite.ID).Msg("Failed to persist refreshed weather")
		}
	}
}
