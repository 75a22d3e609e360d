package models

import (
	"fmt"
	"strconv"
	"time"
)

// WeatherSnapshot is a point-in-time observation for one place, normalized
// into metric units. Snapshots are immutable: every successful provider
// fetch produces a fresh value that supersedes the previous one.
type WeatherSnapshot struct {
	LocationName         string  `json:"location_name"`
	CountryCode          string  `json:"country_code"`
	TemperatureC         float64 `json:"temperature_c"`
	ConditionMain        string  `json:"condition_main"`
	ConditionDescription string  `json:"condition_description"`
	HumidityPct          int     `json:"humidity_pct"`
	WindSpeedKmh         float64 `json:"wind_speed_kmh"`
	FeelsLikeC           float64 `json:"feels_like_c"`
	PressureHPa          int     `json:"pressure_hpa"`
	VisibilityKm         float64 `json:"visibility_km"`
	CloudCoverPct        int     `json:"cloud_cover_pct"`
	IconCode             string  `json:"icon_code"`
	SunriseEpoch         int64   `json:"sunrise_epoch"`
	SunsetEpoch          int64   `json:"sunset_epoch"`
}

// Pollutants is a simulated pollutant breakdown. The values are illustrative
// only: they scale with the AQI estimate and are not derived from any real
// measurement.
type Pollutants struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
	CO   float64 `json:"co"`
}

// AirQuality is an estimated air quality reading.
type AirQuality struct {
	AQI        int        `json:"aqi"`
	Pollutants Pollutants `json:"pollutants"`
}

// SunTimes holds sunrise/sunset formatted as local display strings.
type SunTimes struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

// EnhancedWeatherSnapshot is a WeatherSnapshot plus derived fields. Derived
// fields are recomputed from the base snapshot and never persisted on
// their own.
type EnhancedWeatherSnapshot struct {
	WeatherSnapshot

	UVIndex    int        `json:"uv_index"`
	AirQuality AirQuality `json:"air_quality"`
	SunTimes   SunTimes   `json:"sun_times"`
}

// HourlyPoint is one 3-hour forecast sample.
type HourlyPoint struct {
	Time                 string  `json:"time"`
	TemperatureC         float64 `json:"temperature_c"`
	ConditionDescription string  `json:"condition_description"`
	IconCode             string  `json:"icon_code"`
	HumidityPct          int     `json:"humidity_pct"`
	WindSpeedKmh         float64 `json:"wind_speed_kmh"`
	FeelsLikeC           float64 `json:"feels_like_c"`
}

// TemperatureRange is the min/max band for one forecast day.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DailyPoint is one calendar-day forecast entry.
type DailyPoint struct {
	Date                 string           `json:"date"`
	Temperature          TemperatureRange `json:"temperature"`
	ConditionDescription string           `json:"condition_description"`
	IconCode             string           `json:"icon_code"`
	HumidityPct          int              `json:"humidity_pct"`
	Synthesized          bool             `json:"synthesized,omitempty"`
}

// ForecastBundle pairs the hourly and daily forecast series. Daily always
// has exactly 7 entries; hourly has up to 8 entries covering ~24h at
// 3-hour steps.
type ForecastBundle struct {
	Hourly []HourlyPoint `json:"hourly"`
	Daily  []DailyPoint  `json:"daily"`
}

// SavedLocation is a persisted favorite/recent place with cached last-known
// weather for quick display without a re-fetch.
type SavedLocation struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	IsFavorite  bool    `json:"is_favorite"`
	LastUpdated string  `json:"last_updated"`

	// Cached weather fields, optional.
	TemperatureC         *float64 `json:"temperature_c,omitempty"`
	ConditionDescription string   `json:"condition_description,omitempty"`
	IconCode             string   `json:"icon_code,omitempty"`
}

// LocationID derives the stable identifier for a saved location. Coordinate
// ids take precedence; name-based ids are only used when coordinates are
// unknown.
func LocationID(name, country string, lat, lon float64, hasCoords bool) string {
	if hasCoords {
		return strconv.FormatFloat(lat, 'f', -1, 64) + "-" + strconv.FormatFloat(lon, 'f', -1, 64)
	}
	return name + "-" + country
}

// FormatAge renders a last-updated timestamp as a short relative string
// ("Just now", "5m ago", "3h ago", "2d ago").
func FormatAge(lastUpdated string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, lastUpdated)
	if err != nil {
		return ""
	}
	minutes := int(now.Sub(t).Minutes())
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh ago", minutes/60)
	default:
		return fmt.Sprintf("%dd ago", minutes/(24*60))
	}
}
