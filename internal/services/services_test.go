package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/skycast/internal/models"
	"github.com/valpere/skycast/pkg/weather"
)

// stubProvider is a Provider with canned responses for service tests.
type stubProvider struct {
	snapshot    *models.WeatherSnapshot
	snapshotErr error
	bundle      *models.ForecastBundle
	bundleErr   error
	geo         *weather.GeoResult
	geoErr      error

	currentCalls  int
	forecastCalls int
	geocodeCalls  int
}

func (p *stubProvider) FetchCurrent(context.Context, weather.Query) (*models.WeatherSnapshot, error) {
	p.currentCalls++
	return p.snapshot, p.snapshotErr
}

func (p *stubProvider) FetchForecast(context.Context, weather.Query) (*models.ForecastBundle, error) {
	p.forecastCalls++
	return p.bundle, p.bundleErr
}

func (p *stubProvider) Geocode(context.Context, string) (*weather.GeoResult, error) {
	p.geocodeCalls++
	return p.geo, p.geoErr
}

func (p *stubProvider) MockBundle() *models.ForecastBundle {
	return &models.ForecastBundle{
		Hourly: make([]models.HourlyPoint, 8),
		Daily:  make([]models.DailyPoint, 7),
	}
}

// stubGeocoder backs registry tests without a weather service.
type stubGeocoder struct {
	result *weather.GeoResult
	err    error
}

func (g *stubGeocoder) Geocode(context.Context, string) (*weather.GeoResult, error) {
	return g.result, g.err
}

func silentLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func londonSnapshot() *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		LocationName:         "London",
		CountryCode:          "GB",
		TemperatureC:         18,
		ConditionMain:        "Clouds",
		ConditionDescription: "scattered clouds",
		HumidityPct:          65,
		WindSpeedKmh:         12,
		IconCode:             "03d",
	}
}

// fixedClock returns a deterministic now func advancing one minute per call.
func fixedClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}
