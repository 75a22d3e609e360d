package weather

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/valpere/skycast/internal/models"
)

// The fixed set of conditions a synthesized forecast cycles through,
// indexed by day offset.
var (
	mockConditions = []string{"clear sky", "few clouds", "scattered clouds", "light rain", "light snow"}
	mockIcons      = []string{"01d", "02d", "03d", "10d", "13d"}
)

// MockForecaster synthesizes a plausible forecast for the
// degrade-gracefully path: it is used only when the provider fails or
// returns fewer calendar days than the bundle needs, never in place of
// valid provider data.
type MockForecaster struct {
	// mu serializes draws: concurrent fallbacks share one *rand.Rand,
	// which is not safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewMockForecaster creates a forecaster over the given randomness source.
// Tests pass a seeded source to get reproducible bundles.
func NewMockForecaster(rng *rand.Rand) *MockForecaster {
	return &MockForecaster{rng: rng, now: time.Now}
}

// Day synthesizes the daily entry for the given day offset from today.
func (m *MockForecaster) Day(offset int) models.DailyPoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.day(offset)
}

func (m *MockForecaster) day(offset int) models.DailyPoint {
	date := m.now().UTC().AddDate(0, 0, offset)
	i := offset % len(mockConditions)

	min := math.Round(15 + m.rng.Float64()*10)
	max := math.Round(20 + m.rng.Float64()*15)
	if max < min {
		min, max = max, min
	}

	return models.DailyPoint{
		Date:                 date.Format(time.RFC3339),
		Temperature:          models.TemperatureRange{Min: min, Max: max},
		ConditionDescription: mockConditions[i],
		IconCode:             mockIcons[i],
		HumidityPct:          40 + m.rng.Intn(41),
		Synthesized:          true,
	}
}

// Bundle synthesizes a full forecast bundle: 8 hourly points at 3-hour
// steps and 7 daily entries.
func (m *MockForecaster) Bundle() *models.ForecastBundle {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()

	hourly := make([]models.HourlyPoint, 0, hourlyPoints)
	for i := 0; i < hourlyPoints; i++ {
		temp := math.Round(20 + m.rng.Float64()*10)
		hourly = append(hourly, models.HourlyPoint{
			Time:                 now.Add(time.Duration(i) * 3 * time.Hour).Format(time.RFC3339),
			TemperatureC:         temp,
			ConditionDescription: "partly cloudy",
			IconCode:             "02d",
			HumidityPct:          40 + m.rng.Intn(41),
			WindSpeedKmh:         math.Round(5 + m.rng.Float64()*15),
			FeelsLikeC:           temp,
		})
	}

	daily := make([]models.DailyPoint, 0, dailyPoints)
	for i := 0; i < dailyPoints; i++ {
		daily = append(daily, m.day(i))
	}

	return &models.ForecastBundle{Hourly: hourly, Daily: daily}
}
