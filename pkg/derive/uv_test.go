package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valpere/skycast/internal/models"
)

func TestUVIndex(t *testing.T) {
	clearSky := &models.WeatherSnapshot{ConditionMain: "Clear", ConditionDescription: "clear sky"}

	t.Run("zero outside daylight", func(t *testing.T) {
		for _, hour := range []int{0, 3, 5, 19, 23} {
			assert.Equal(t, 0, UVIndex(clearSky, hour), "hour %d", hour)
		}
	})

	t.Run("peaks at solar noon", func(t *testing.T) {
		assert.Equal(t, 10, UVIndex(clearSky, 12))
		assert.Equal(t, 9, UVIndex(clearSky, 11))
		assert.Equal(t, 9, UVIndex(clearSky, 13))
		assert.Equal(t, 1, UVIndex(clearSky, 6))
		assert.Equal(t, 1, UVIndex(clearSky, 18))
	})

	t.Run("cloud descriptions attenuate", func(t *testing.T) {
		cases := []struct {
			description string
			want        int
		}{
			{"few clouds", 9},
			{"scattered clouds", 7},
			{"broken clouds", 5},
			{"overcast clouds", 3},
		}
		for _, tc := range cases {
			snapshot := &models.WeatherSnapshot{ConditionMain: "Clouds", ConditionDescription: tc.description}
			assert.Equal(t, tc.want, UVIndex(snapshot, 12), tc.description)
		}
	})

	t.Run("condition multipliers", func(t *testing.T) {
		cases := []struct {
			main string
			want int
		}{
			{"Rain", 2},
			{"Drizzle", 2},
			{"Thunderstorm", 1},
			{"Mist", 4},
			{"Fog", 4},
			{"Tornado", 6}, // unknown condition
		}
		for _, tc := range cases {
			snapshot := &models.WeatherSnapshot{ConditionMain: tc.main}
			assert.Equal(t, tc.want, UVIndex(snapshot, 12), tc.main)
		}
	})

	t.Run("snow reflection can exceed the nominal scale", func(t *testing.T) {
		snapshot := &models.WeatherSnapshot{ConditionMain: "Snow"}
		assert.Equal(t, 13, UVIndex(snapshot, 12))
	})

	t.Run("cloud cover scales down", func(t *testing.T) {
		snapshot := &models.WeatherSnapshot{ConditionMain: "Clear", CloudCoverPct: 50}
		assert.Equal(t, 5, UVIndex(snapshot, 12))

		snapshot.CloudCoverPct = 100
		assert.Equal(t, 0, UVIndex(snapshot, 12))
	})
}
