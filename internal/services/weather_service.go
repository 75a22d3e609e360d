package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/valpere/skycast/internal/models"
	"github.com/valpere/skycast/pkg/derive"
	"github.com/valpere/skycast/pkg/metrics"
	"github.com/valpere/skycast/pkg/weather"
)

// Provider is the outbound weather API surface the service depends on.
// *weather.Client is the production implementation.
type Provider interface {
	FetchCurrent(ctx context.Context, query weather.Query) (*models.WeatherSnapshot, error)
	FetchForecast(ctx context.Context, query weather.Query) (*models.ForecastBundle, error)
	Geocode(ctx context.Context, placeName string) (*weather.GeoResult, error)
	MockBundle() *models.ForecastBundle
}

type WeatherService struct {
	provider Provider
	redis    *redis.Client
	logger   *zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	// rngMu serializes draws: handlers run concurrently and *rand.Rand is
	// not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewWeatherService(provider Provider, rdb *redis.Client, logger *zerolog.Logger, m *metrics.Metrics) *WeatherService {
	return &WeatherService{
		provider: provider,
		redis:    rdb,
		logger:   logger,
		metrics:  m,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// GetCurrent returns current conditions for the queried place with a
// 10-minute cache. Provider errors propagate with their taxonomy intact so
// callers can differentiate messaging.
func (s *WeatherService) GetCurrent(ctx context.Context, query weather.Query) (*models.WeatherSnapshot, error) {
	cacheKey := "weather:current:" + query.Key()
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var snapshot models.WeatherSnapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return &snapshot, nil
		}
	}

	start := s.now()
	snapshot, err := s.provider.FetchCurrent(ctx, query)
	s.metrics.ObserveHistogram("weather_api_duration_seconds", s.now().Sub(start).Seconds(), "current")
	if err != nil {
		s.metrics.IncrementCounter("weather_requests_total", "current", "error")
		return nil, err
	}
	s.metrics.IncrementCounter("weather_requests_total", "current", "ok")

	if snapshotJSON, err := json.Marshal(snapshot); err == nil {
		s.redis.Set(ctx, cacheKey, snapshotJSON, 10*time.Minute)
	}

	return snapshot, nil
}

// GetForecast returns the forecast bundle for the queried place with a
// 1-hour cache. Provider failures never surface: the synthesized bundle
// substitutes so the display degrades instead of erroring. Synthesized
// bundles are not cached, so valid data takes over as soon as the provider
// recovers.
func (s *WeatherService) GetForecast(ctx context.Context, query weather.Query) *models.ForecastBundle {
	cacheKey := "weather:forecast:" + query.Key()
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var bundle models.ForecastBundle
		if err := json.Unmarshal([]byte(cached), &bundle); err == nil {
			return &bundle
		}
	}

	start := s.now()
	bundle, err := s.provider.FetchForecast(ctx, query)
	s.metrics.ObserveHistogram("weather_api_duration_seconds", s.now().Sub(start).Seconds(), "forecast")
	if err != nil {
		s.metrics.IncrementCounter("weather_requests_total", "forecast", "error")
		s.metrics.IncrementCounter("forecast_fallback_total")
		s.logger.Warn().
			Err(err).
			Str("query", query.String()).
			Msg("Forecast fetch failed, substituting synthesized data")
		return s.provider.MockBundle()
	}
	s.metrics.IncrementCounter("weather_requests_total", "forecast", "ok")

	if bundleJSON, err := json.Marshal(bundle); err == nil {
		s.redis.Set(ctx, cacheKey, bundleJSON, time.Hour)
	}

	return bundle
}

// GetEnhanced returns current conditions enriched with the derived UV
// index, the simulated air quality estimate and formatted sun times.
func (s *WeatherService) GetEnhanced(ctx context.Context, query weather.Query) (*models.EnhancedWeatherSnapshot, error) {
	snapshot, err := s.GetCurrent(ctx, query)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	airQuality := derive.AirQuality(snapshot.LocationName, snapshot.ConditionMain, s.rng)
	s.rngMu.Unlock()

	enhanced := &models.EnhancedWeatherSnapshot{
		WeatherSnapshot: *snapshot,
		UVIndex:         derive.UVIndex(snapshot, s.now().Hour()),
		AirQuality:      airQuality,
		SunTimes: models.SunTimes{
			Sunrise: formatClock(snapshot.SunriseEpoch),
			Sunset:  formatClock(snapshot.SunsetEpoch),
		},
	}
	return enhanced, nil
}

// Geocode resolves a place name to coordinates with a 24-hour cache. An
// empty result means no match; only errors are provider failures.
func (s *WeatherService) Geocode(ctx context.Context, placeName string) (*weather.GeoResult, error) {
	cacheKey := "geocode:" + placeName
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var result weather.GeoResult
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
	}

	result, err := s.provider.Geocode(ctx, placeName)
	if err != nil {
		s.metrics.IncrementCounter("weather_requests_total", "geocode", "error")
		return nil, err
	}
	s.metrics.IncrementCounter("weather_requests_total", "geocode", "ok")
	if result == nil {
		return nil, nil
	}

	if resultJSON, err := json.Marshal(result); err == nil {
		s.redis.Set(ctx, cacheKey, resultJSON, 24*time.Hour)
	}

	return result, nil
}

// formatClock renders an epoch as a local wall-clock string for display.
func formatClock(epoch int64) string {
	if epoch == 0 {
		return ""
	}
	return time.Unix(epoch, 0).Local().Format("3:04 PM")
}

// UserMessage translates a provider error into the message the display
// should show, keeping the taxonomy's differentiated wording.
func UserMessage(err error) string {
	var notFound *weather.NotFoundError
	var auth *weather.AuthError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("No weather data for %q - please check the spelling", notFound.Query)
	case errors.As(err, &auth):
		return "Weather provider credentials are invalid - check the service configuration"
	default:
		return "Weather provider is temporarily unavailable - please retry"
	}
}
