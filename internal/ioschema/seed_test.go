package ioschema

import (
	"testing"

	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/nycsafety/colldb/pkg/records"
	"github.com/stretchr/testify/assert"
)

func TestSeedCatalogsHaveNoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, code := range seedVehicleTypes {
		assert.False(t, seen[code], "duplicate vehicle type %q", code)
		seen[code] = true
	}

	seen = make(map[string]bool)
	for _, code := range seedFactors {
		assert.False(t, seen[code], "duplicate factor %q", code)
		seen[code] = true
	}
}

func TestSeedCatalogsIncludeFallbackCodes(t *testing.T) {
	assert.Contains(t, seedVehicleTypes, records.UnknownVehicleType)
	assert.Contains(t, seedFactors, records.UnspecifiedFactor)
}

func TestWeatherConditionMatrixIsComplete(t *testing.T) {
	assert.Len(t, weatherCategories, 5)
	assert.Len(t, weatherSeverities, 4)

	// Every pair scores within range, CLEAR/LIGHT at the top.
	for _, cat := range weatherCategories {
		for _, sev := range weatherSeverities {
			score := derive.SafetyScore(cat, sev)
			assert.GreaterOrEqual(t, score, int16(0))
			assert.LessOrEqual(t, score, int16(100))
		}
	}
	assert.Equal(t, int16(100), derive.SafetyScore(derive.WeatherClear, derive.WeatherLight))
}
