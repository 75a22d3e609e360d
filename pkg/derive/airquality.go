package derive

import (
	"math"
	"math/rand"
	"strings"

	"github.com/valpere/skycast/internal/models"
)

// Fixed city lists for the AQI base band, matched by case-insensitive
// substring containment against the location name.
var (
	highPollutionCities     = []string{"beijing", "delhi", "mumbai"}
	moderatePollutionCities = []string{"los angeles", "mexico"}
	cleanCities             = []string{"reykjavik", "zurich", "stockholm"}
)

// AirQuality estimates an AQI for the location under the given condition.
// The estimate is a simulation for display purposes, not a measurement:
// the base band comes from a fixed city list, the condition scales it, and
// the pollutant breakdown is random values that grow with the AQI. The
// randomness source is injected so tests can pin the output.
func AirQuality(locationName, conditionMain string, rng *rand.Rand) models.AirQuality {
	city := strings.ToLower(locationName)

	var base float64
	switch {
	case containsAny(city, highPollutionCities):
		base = 120 + rng.Float64()*80
	case containsAny(city, moderatePollutionCities):
		base = 80 + rng.Float64()*60
	case containsAny(city, cleanCities):
		base = 20 + rng.Float64()*30
	default:
		base = 40 + rng.Float64()*60
	}

	switch conditionMain {
	case "Clear":
		base *= 1.1 // clear weather can trap pollutants
	case "Rain", "Drizzle", "Thunderstorm":
		base *= 0.7 // rain cleans the air
	case "Snow":
		base *= 0.8
	case "Mist", "Fog":
		base *= 1.3 // poor visibility often means more pollution
	case "Dust", "Sand":
		base *= 1.8
	}

	aqi := int(math.Round(math.Max(10, math.Min(300, base))))

	return models.AirQuality{
		AQI: aqi,
		Pollutants: models.Pollutants{
			PM25: rng.Float64()*50 + float64(aqi)*0.3,
			PM10: rng.Float64()*100 + float64(aqi)*0.5,
			O3:   rng.Float64()*80 + float64(aqi)*0.2,
			NO2:  rng.Float64()*60 + float64(aqi)*0.25,
			CO:   rng.Float64()*2 + float64(aqi)*0.01,
		},
	}
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
