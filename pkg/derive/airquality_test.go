package derive

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAirQuality(t *testing.T) {
	t.Run("city bands order as expected", func(t *testing.T) {
		// Averages over many draws separate the bands regardless of seed.
		avg := func(city string) float64 {
			rng := rand.New(rand.NewSource(99))
			total := 0
			for i := 0; i < 200; i++ {
				total += AirQuality(city, "Clouds", rng).AQI
			}
			return float64(total) / 200
		}

		polluted := avg("Delhi")
		moderate := avg("Los Angeles")
		typical := avg("London")
		clean := avg("Stockholm")

		assert.Greater(t, polluted, moderate)
		assert.Greater(t, moderate, typical)
		assert.Greater(t, typical, clean)
	})

	t.Run("city match is case-insensitive substring", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		reading := AirQuality("New Delhi", "Clouds", rng)
		assert.GreaterOrEqual(t, reading.AQI, 120)
	})

	t.Run("result stays within bounds", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 100; i++ {
			reading := AirQuality("Beijing", "Dust", rng)
			assert.GreaterOrEqual(t, reading.AQI, 10)
			assert.LessOrEqual(t, reading.AQI, 300)
		}
		for i := 0; i < 100; i++ {
			reading := AirQuality("Reykjavik", "Thunderstorm", rng)
			assert.GreaterOrEqual(t, reading.AQI, 10)
		}
	})

	t.Run("rain improves the estimate", func(t *testing.T) {
		rainy := AirQuality("London", "Rain", rand.New(rand.NewSource(5)))
		foggy := AirQuality("London", "Fog", rand.New(rand.NewSource(5)))
		assert.Less(t, rainy.AQI, foggy.AQI)
	})

	t.Run("pollutants scale with the index", func(t *testing.T) {
		rng := rand.New(rand.NewSource(8))
		reading := AirQuality("Mumbai", "Clear", rng)

		p := reading.Pollutants
		assert.GreaterOrEqual(t, p.PM25, float64(reading.AQI)*0.3)
		assert.GreaterOrEqual(t, p.PM10, float64(reading.AQI)*0.5)
		assert.GreaterOrEqual(t, p.O3, float64(reading.AQI)*0.2)
		assert.GreaterOrEqual(t, p.NO2, float64(reading.AQI)*0.25)
		assert.GreaterOrEqual(t, p.CO, float64(reading.AQI)*0.01)
	})

	t.Run("seeded determinism", func(t *testing.T) {
		a := AirQuality("London", "Clear", rand.New(rand.NewSource(7)))
		b := AirQuality("London", "Clear", rand.New(rand.NewSource(7)))
		assert.Equal(t, a, b)
	})
}
