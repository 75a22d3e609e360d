// Package derive computes display metrics from a normalized weather
// snapshot: a UV index estimate, a simulated air quality reading and
// per-activity suitability scores. Everything here is pure; the only
// non-determinism is the randomness source callers inject.
package derive

import (
	"math"
	"strings"

	"github.com/valpere/skycast/internal/models"
)

// UVIndex estimates the UV index from the snapshot's condition and cloud
// cover at the given hour of day. The base curve is triangular, peaking at
// solar noon and zero outside 06:00-18:00. The result is floored at 0 and
// deliberately not capped above 11: higher values are valid "extreme"
// readings.
func UVIndex(snapshot *models.WeatherSnapshot, hourOfDay int) int {
	base := 0.0
	if hourOfDay >= 6 && hourOfDay <= 18 {
		base = math.Max(0, 10-1.5*math.Abs(float64(hourOfDay-12)))
	}

	description := strings.ToLower(snapshot.ConditionDescription)
	switch snapshot.ConditionMain {
	case "Clear":
		// full exposure
	case "Clouds":
		switch {
		case strings.Contains(description, "few"):
			base *= 0.9
		case strings.Contains(description, "scattered"):
			base *= 0.7
		case strings.Contains(description, "broken"):
			base *= 0.5
		default:
			base *= 0.3
		}
	case "Rain", "Drizzle":
		base *= 0.2
	case "Thunderstorm":
		base *= 0.1
	case "Snow":
		base *= 1.3 // snow reflects UV
	case "Mist", "Fog":
		base *= 0.4
	default:
		base *= 0.6
	}

	base *= float64(100-snapshot.CloudCoverPct) / 100

	return int(math.Round(math.Max(0, base)))
}
