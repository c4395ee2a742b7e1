package derive

import (
	"math"

	"github.com/nycsafety/colldb/pkg/config"
)

// Weather condition categories.
const (
	WeatherClear = "CLEAR"
	WeatherRain  = "RAIN"
	WeatherSnow  = "SNOW"
	WeatherFog   = "FOG"
	WeatherWind  = "WIND"
)

// Weather condition severities.
const (
	WeatherLight    = "LIGHT"
	WeatherModerate = "MODERATE"
	WeatherHeavy    = "HEAVY"
	WeatherSevere   = "SEVERE"
)

// Measurements is one hourly set of weather readings after numeric
// cleanup. Units follow the source feed: Celsius, millimeters, meters,
// centimeters and km/h.
type Measurements struct {
	Temperature2M float64
	Precipitation float64
	Visibility    float64
	Rain          float64
	Showers       float64
	Snowfall      float64
	WindSpeed10M  float64
}

// CleanMeasurements applies the feed's numeric conventions: temperature
// and wind speed rounded to two decimals, visibility to the nearest
// hundred meters.
func CleanMeasurements(m Measurements) Measurements {
	m.Temperature2M = round2(m.Temperature2M)
	m.WindSpeed10M = round2(m.WindSpeed10M)
	m.Visibility = math.Round(m.Visibility/100) * 100
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rainTotal is the combined liquid precipitation of a reading.
func rainTotal(m Measurements) float64 {
	return m.Rain + m.Showers + m.Precipitation
}

// CategorizeWeather buckets a reading. Snow beats rain beats fog beats
// wind; anything else is clear.
func CategorizeWeather(m Measurements) string {
	switch {
	case m.Snowfall > 0:
		return WeatherSnow
	case rainTotal(m) > 0:
		return WeatherRain
	case m.Visibility < 5000:
		return WeatherFog
	case m.WindSpeed10M > 30:
		return WeatherWind
	default:
		return WeatherClear
	}
}

// WeatherSeverityOf grades a reading independent of its category.
func WeatherSeverityOf(m Measurements) string {
	rain := rainTotal(m)

	switch {
	case m.Snowfall > 5:
		return WeatherHeavy
	case rain > 10:
		return WeatherHeavy
	case rain > 5:
		return WeatherModerate
	case m.Visibility < 1000:
		return WeatherSevere
	case m.Visibility < 3000:
		return WeatherModerate
	case m.WindSpeed10M > 50:
		return WeatherSevere
	case m.WindSpeed10M > 30:
		return WeatherModerate
	default:
		return WeatherLight
	}
}

// categoryBase anchors the safety score per category; severity subtracts
// from it. Lower scores mean more dangerous driving weather.
var categoryBase = map[string]int16{
	WeatherClear: 100,
	WeatherWind:  75,
	WeatherRain:  65,
	WeatherFog:   55,
	WeatherSnow:  45,
}

var severityPenalty = map[string]int16{
	WeatherLight:    0,
	WeatherModerate: 15,
	WeatherHeavy:    30,
	WeatherSevere:   45,
}

// SafetyScore maps a (category, severity) pair to a 0-100 score. Unknown
// inputs score as moderate mid-range rather than failing: the dimension
// row is created either way and the score is advisory.
func SafetyScore(category, severity string) int16 {
	base, ok := categoryBase[category]
	if !ok {
		base = 50
	}
	penalty, ok := severityPenalty[severity]
	if !ok {
		penalty = 15
	}

	score := base - penalty
	if score < 0 {
		score = 0
	}
	return score
}

// IsAdverseWeather applies the configured policy: low visibility, heavy
// precipitation or high wind each qualify on their own.
func IsAdverseWeather(m Measurements, th config.ThresholdsConfig) bool {
	return m.Visibility < th.AdverseVisibilityMeters ||
		m.Precipitation > th.AdversePrecipitationMM ||
		m.WindSpeed10M > th.AdverseWindKMH
}
