package derive

import (
	"sort"
	"strings"

	"github.com/valpere/skycast/internal/models"
)

// Suitability tiers derived from an activity score.
type Suitability string

const (
	SuitabilityExcellent Suitability = "excellent"
	SuitabilityGood      Suitability = "good"
	SuitabilityFair      Suitability = "fair"
	SuitabilityPoor      Suitability = "poor"
)

// SuitabilityFor maps a score to its tier.
func SuitabilityFor(score int) Suitability {
	switch {
	case score >= 80:
		return SuitabilityExcellent
	case score >= 65:
		return SuitabilityGood
	case score >= 45:
		return SuitabilityFair
	default:
		return SuitabilityPoor
	}
}

// Activity is the static metadata for one suggested activity.
type Activity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // outdoor or indoor
	BestTime string `json:"best_time"`
	Duration string `json:"duration"`
}

var activities = []Activity{
	{ID: "running", Name: "Running", Type: "outdoor", BestTime: "Morning or evening", Duration: "30-60 minutes"},
	{ID: "cycling", Name: "Cycling", Type: "outdoor", BestTime: "Morning or afternoon", Duration: "45-90 minutes"},
	{ID: "hiking", Name: "Hiking", Type: "outdoor", BestTime: "Morning", Duration: "2-4 hours"},
	{ID: "photography", Name: "Photography", Type: "outdoor", BestTime: "Golden hour", Duration: "1-3 hours"},
	{ID: "reading", Name: "Reading", Type: "indoor", BestTime: "Anytime", Duration: "1-2 hours"},
	{ID: "gaming", Name: "Gaming", Type: "indoor", BestTime: "Anytime", Duration: "1-3 hours"},
	{ID: "cooking", Name: "Cooking", Type: "indoor", BestTime: "Anytime", Duration: "30-90 minutes"},
	{ID: "art", Name: "Art & Crafts", Type: "indoor", BestTime: "Anytime", Duration: "1-4 hours"},
}

// Suggestion is one activity with its computed score and tier.
type Suggestion struct {
	Activity

	Score       int         `json:"score"`
	Suitability Suitability `json:"suitability"`
}

// ActivityScore rates how well current conditions fit the given activity.
// It starts from a neutral 50 and applies additive adjustments for
// temperature bands, rain/snow, wind above 15 km/h, UV above 7, visibility
// below 5 km and humidity above 80%, clamped to [0,100]. Unknown activity
// ids simply keep the neutral base.
func ActivityScore(activityID string, snapshot *models.EnhancedWeatherSnapshot) int {
	score := 50
	temp := snapshot.TemperatureC
	condition := strings.ToLower(snapshot.ConditionMain + " " + snapshot.ConditionDescription)

	switch activityID {
	case "running", "cycling":
		if temp >= 15 && temp <= 25 {
			score += 30
		} else if temp >= 10 && temp <= 30 {
			score += 15
		} else if temp < 5 || temp > 35 {
			score -= 30
		}
	case "hiking":
		if temp >= 10 && temp <= 28 {
			score += 25
		} else if temp < 0 || temp > 35 {
			score -= 25
		}
	case "photography":
		if temp >= 5 && temp <= 30 {
			score += 20
		}
		if strings.Contains(condition, "clear") || strings.Contains(condition, "partly") {
			score += 20
		}
	}

	if strings.Contains(condition, "rain") {
		switch activityID {
		case "running", "cycling", "hiking":
			score -= 40
		case "photography":
			score -= 20
		case "reading", "gaming", "cooking":
			score += 15
		}
	}

	if strings.Contains(condition, "snow") {
		switch activityID {
		case "hiking":
			score += 10 // winter hiking
		case "photography":
			score += 15
		case "running", "cycling":
			score -= 30
		}
	}

	if snapshot.WindSpeedKmh > 15 {
		switch activityID {
		case "cycling":
			score -= 25
		case "photography":
			score -= 15
		}
	}

	if snapshot.UVIndex > 7 {
		switch activityID {
		case "hiking", "cycling":
			score -= 15
		}
	}

	if snapshot.VisibilityKm < 5 {
		switch activityID {
		case "hiking", "photography":
			score -= 20
		}
	}

	if snapshot.HumidityPct > 80 {
		switch activityID {
		case "running", "cycling":
			score -= 15
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Suggestions scores every known activity against the snapshot and returns
// them sorted by score descending (stable, so ties keep catalog order).
func Suggestions(snapshot *models.EnhancedWeatherSnapshot) []Suggestion {
	suggestions := make([]Suggestion, 0, len(activities))
	for _, activity := range activities {
		score := ActivityScore(activity.ID, snapshot)
		suggestions = append(suggestions, Suggestion{
			Activity:    activity,
			Score:       score,
			Suitability: SuitabilityFor(score),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions
}
