package derive_test

import (
	"testing"
	"time"

	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNYC(t *testing.T) *time.Location {
	t.Helper()
	loc, err := derive.NYCLocation()
	require.NoError(t, err)
	return loc
}

func TestNormalizeDateTimeSummerRushHour(t *testing.T) {
	loc := mustNYC(t)
	raw := time.Date(2023, 7, 15, 8, 30, 45, 0, loc)

	row, err := derive.NormalizeDateTime(raw)
	require.NoError(t, err)

	assert.Equal(t, 8, row.Hour)
	assert.Equal(t, "Saturday", row.DayOfWeek)
	assert.True(t, row.IsWeekend)
	assert.True(t, row.IsRushHour)
	assert.False(t, row.IsNight)
	assert.Equal(t, derive.SeasonSummer, row.Season)
	assert.Equal(t, 3, row.Quarter)

	// Minute granularity: seconds are dropped
	assert.Equal(t, 30, row.DatetimeNYC.Minute())
	assert.Equal(t, 0, row.DatetimeNYC.Second())
}

func TestNormalizeDateTimeWinterNight(t *testing.T) {
	loc := mustNYC(t)
	raw := time.Date(2023, 12, 31, 23, 0, 0, 0, loc)

	row, err := derive.NormalizeDateTime(raw)
	require.NoError(t, err)

	assert.True(t, row.IsNight)
	assert.False(t, row.IsRushHour)
	assert.Equal(t, derive.SeasonWinter, row.Season)
	assert.Equal(t, 4, row.Quarter)
	assert.Equal(t, 31, row.DayOfMonth)
}

func TestNormalizeDateTimeConvertsUTC(t *testing.T) {
	// 12:30 UTC in July is 08:30 NYC (EDT, UTC-4)
	raw := time.Date(2023, 7, 15, 12, 30, 0, 0, time.UTC)

	row, err := derive.NormalizeDateTime(raw)
	require.NoError(t, err)

	assert.Equal(t, 8, row.Hour)
	assert.Equal(t, 12, row.DatetimeUTC.Hour())
	assert.Equal(t, time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC), row.DateNYC)
}

// TestHourBoundaries pins the exact boundary semantics: hour 10 is not
// rush hour, hour 6 is still night, hour 20 is night.
func TestHourBoundaries(t *testing.T) {
	tests := []struct {
		hour     int
		rushHour bool
		night    bool
	}{
		{0, false, true},
		{5, false, true},
		{6, false, true},
		{7, true, false},
		{9, true, false},
		{10, false, false},
		{15, false, false},
		{16, true, false},
		{19, true, false},
		{20, false, true},
		{23, false, true},
	}

	for _, v := range tests {
		assert.Equal(t, v.rushHour, derive.IsRushHour(v.hour), "rush hour %d", v.hour)
		assert.Equal(t, v.night, derive.IsNight(v.hour), "night %d", v.hour)
	}
}

func TestSeason(t *testing.T) {
	tests := []struct {
		month  int
		season string
	}{
		{12, derive.SeasonWinter},
		{1, derive.SeasonWinter},
		{2, derive.SeasonWinter},
		{3, derive.SeasonSpring},
		{5, derive.SeasonSpring},
		{6, derive.SeasonSummer},
		{8, derive.SeasonSummer},
		{9, derive.SeasonFall},
		{11, derive.SeasonFall},
	}

	for _, v := range tests {
		assert.Equal(t, v.season, derive.Season(v.month), "month %d", v.month)
	}
}
