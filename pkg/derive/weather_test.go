package derive_test

import (
	"testing"

	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/stretchr/testify/assert"
)

func TestCleanMeasurements(t *testing.T) {
	m := derive.CleanMeasurements(derive.Measurements{
		Temperature2M: 10.567,
		WindSpeed10M:  12.344,
		Visibility:    24_963,
	})

	assert.InDelta(t, 10.57, m.Temperature2M, 0.0001)
	assert.InDelta(t, 12.34, m.WindSpeed10M, 0.0001)
	assert.InDelta(t, 25_000, m.Visibility, 0.0001)
}

func TestCategorizeWeather(t *testing.T) {
	tests := []struct {
		name string
		m    derive.Measurements
		want string
	}{
		{
			name: "snow beats rain",
			m:    derive.Measurements{Snowfall: 1, Rain: 5, Visibility: 10000},
			want: derive.WeatherSnow,
		},
		{
			name: "any liquid precipitation is rain",
			m:    derive.Measurements{Showers: 0.2, Visibility: 10000},
			want: derive.WeatherRain,
		},
		{
			name: "low visibility is fog",
			m:    derive.Measurements{Visibility: 4000},
			want: derive.WeatherFog,
		},
		{
			name: "strong wind",
			m:    derive.Measurements{Visibility: 10000, WindSpeed10M: 35},
			want: derive.WeatherWind,
		},
		{
			name: "clear",
			m:    derive.Measurements{Visibility: 10000, WindSpeed10M: 10},
			want: derive.WeatherClear,
		},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			assert.Equal(t, v.want, derive.CategorizeWeather(v.m))
		})
	}
}

func TestWeatherSeverityOf(t *testing.T) {
	tests := []struct {
		name string
		m    derive.Measurements
		want string
	}{
		{
			name: "heavy snowfall",
			m:    derive.Measurements{Snowfall: 6, Visibility: 10000},
			want: derive.WeatherHeavy,
		},
		{
			name: "heavy rain",
			m:    derive.Measurements{Rain: 11, Visibility: 10000},
			want: derive.WeatherHeavy,
		},
		{
			name: "moderate rain",
			m:    derive.Measurements{Rain: 6, Visibility: 10000},
			want: derive.WeatherModerate,
		},
		{
			name: "near zero visibility",
			m:    derive.Measurements{Visibility: 500},
			want: derive.WeatherSevere,
		},
		{
			name: "severe wind",
			m:    derive.Measurements{Visibility: 10000, WindSpeed10M: 55},
			want: derive.WeatherSevere,
		},
		{
			name: "calm clear hour",
			m:    derive.Measurements{Visibility: 10000, WindSpeed10M: 5},
			want: derive.WeatherLight,
		},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			assert.Equal(t, v.want, derive.WeatherSeverityOf(v.m))
		})
	}
}

func TestSafetyScore(t *testing.T) {
	// Lower score means more dangerous
	clear := derive.SafetyScore(derive.WeatherClear, derive.WeatherLight)
	snowHeavy := derive.SafetyScore(derive.WeatherSnow, derive.WeatherHeavy)
	snowSevere := derive.SafetyScore(derive.WeatherSnow, derive.WeatherSevere)

	assert.Equal(t, int16(100), clear)
	assert.Less(t, snowHeavy, clear)
	assert.Less(t, snowSevere, snowHeavy)
	assert.GreaterOrEqual(t, snowSevere, int16(0))

	// Unknown inputs still produce a bounded score
	unknown := derive.SafetyScore("HAIL", "BIBLICAL")
	assert.GreaterOrEqual(t, unknown, int16(0))
	assert.LessOrEqual(t, unknown, int16(100))
}

func TestIsAdverseWeather(t *testing.T) {
	th := config.Defaults().Thresholds

	tests := []struct {
		name string
		m    derive.Measurements
		want bool
	}{
		{
			name: "low visibility",
			m:    derive.Measurements{Visibility: 900},
			want: true,
		},
		{
			name: "heavy precipitation",
			m:    derive.Measurements{Visibility: 10000, Precipitation: 6},
			want: true,
		},
		{
			name: "high wind",
			m:    derive.Measurements{Visibility: 10000, WindSpeed10M: 40},
			want: true,
		},
		{
			name: "mild hour",
			m:    derive.Measurements{Visibility: 10000, Precipitation: 0.1, WindSpeed10M: 10},
			want: false,
		},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			assert.Equal(t, v.want, derive.IsAdverseWeather(v.m, th))
		})
	}
}
