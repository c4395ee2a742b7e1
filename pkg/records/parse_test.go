package records_test

import (
	"testing"
	"time"

	"github.com/nycsafety/colldb/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRawCollision() records.RawCollision {
	return records.RawCollision{
		CollisionID:        "4491521",
		CrashDate:          "2024-01-01T00:00:00.000",
		CrashTime:          "9:30",
		Borough:            "brooklyn",
		ZipCode:            "11201",
		Latitude:           "40.650112345678",
		Longitude:          "-73.9496",
		OnStreetName:       "  Atlantic   Avenue ",
		PersonsInjured:     "1",
		PersonsKilled:      "0",
		PedestriansInjured: "1",
		ContributingFactors: [5]string{
			"Driver Inattention/Distraction", "", "Unspecified", "", "",
		},
		VehicleTypes:     [5]string{"Sedan", "Bike", "", "", ""},
		NumberOfVehicles: "2",
	}
}

func TestParseCollision(t *testing.T) {
	c, warnings, err := validRawCollision().Parse()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, int64(4491521), c.ID)
	assert.Equal(t, "BROOKLYN", c.Borough)
	assert.Equal(t, "ATLANTIC AVENUE", c.OnStreetName)

	// Zero-padded time composed with the date part before 'T'
	assert.Equal(t, 2024, c.CrashedAt.Year())
	assert.Equal(t, 9, c.CrashedAt.Hour())
	assert.Equal(t, 30, c.CrashedAt.Minute())

	// Coordinates rounded to 9 decimals
	require.True(t, c.Latitude.Valid)
	assert.InDelta(t, 40.650112346, c.Latitude.Float64, 1e-12)

	// Ordered slots preserve gaps
	assert.Equal(t, "Driver Inattention/Distraction", c.ContributingFactors[0])
	assert.Equal(t, "", c.ContributingFactors[1])
	assert.Equal(t, "Unspecified", c.ContributingFactors[2])
	assert.Equal(t, "Bike", c.VehicleTypes[1])

	assert.Equal(t, 2, c.NumberOfVehicles)
	assert.Equal(t, 1, c.SuppliedInjured)
}

func TestParseCollisionMalformed(t *testing.T) {
	t.Run("missing collision id", func(t *testing.T) {
		raw := validRawCollision()
		raw.CollisionID = "  "
		_, _, err := raw.Parse()
		assert.Error(t, err)
	})

	t.Run("garbage collision id", func(t *testing.T) {
		raw := validRawCollision()
		raw.CollisionID = "abc"
		_, _, err := raw.Parse()
		assert.Error(t, err)
	})

	t.Run("unparseable crash date", func(t *testing.T) {
		raw := validRawCollision()
		raw.CrashDate = "01/32/2024"
		_, _, err := raw.Parse()
		assert.Error(t, err)
	})
}

func TestParseCollisionWarnings(t *testing.T) {
	t.Run("bad borough maps to UNKNOWN with warning", func(t *testing.T) {
		raw := validRawCollision()
		raw.Borough = "JERSEY CITY"

		c, warnings, err := raw.Parse()
		require.NoError(t, err)
		assert.Equal(t, records.UnknownBorough, c.Borough)
		assert.NotEmpty(t, warnings)
	})

	t.Run("negative count warns and defaults", func(t *testing.T) {
		raw := validRawCollision()
		raw.CyclistsInjured = "-2"

		c, warnings, err := raw.Parse()
		require.NoError(t, err)
		assert.Equal(t, 0, c.CyclistsInjured)
		assert.NotEmpty(t, warnings)
	})

	t.Run("half a coordinate pair is dropped", func(t *testing.T) {
		raw := validRawCollision()
		raw.Longitude = ""

		c, _, err := raw.Parse()
		require.NoError(t, err)
		assert.False(t, c.Latitude.Valid)
		assert.False(t, c.Longitude.Valid)
	})

	t.Run("missing supplied totals become -1", func(t *testing.T) {
		raw := validRawCollision()
		raw.PersonsInjured = ""
		raw.PersonsKilled = ""

		c, _, err := raw.Parse()
		require.NoError(t, err)
		assert.Equal(t, -1, c.SuppliedInjured)
		assert.Equal(t, -1, c.SuppliedKilled)
	})

	t.Run("vehicle count inferred from slots when absent", func(t *testing.T) {
		raw := validRawCollision()
		raw.NumberOfVehicles = ""

		c, _, err := raw.Parse()
		require.NoError(t, err)
		assert.Equal(t, 2, c.NumberOfVehicles)
	})
}

func TestParseWeather(t *testing.T) {
	raw := records.RawWeather{
		TimestampUTC:  "2024-01-15T13:00",
		Borough:       "Queens",
		Temperature2M: "-3.456",
		Precipitation: "0.2",
		Visibility:    "8849",
		Rain:          "0.2",
		WindSpeed10M:  "22.118",
	}

	w, warnings, err := raw.Parse()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "QUEENS", w.Borough)
	assert.Equal(t, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), w.ObservedAt)

	// Numeric cleanup applied
	assert.InDelta(t, -3.46, w.Measurements.Temperature2M, 1e-9)
	assert.InDelta(t, 22.12, w.Measurements.WindSpeed10M, 1e-9)
	assert.InDelta(t, 8800, w.Measurements.Visibility, 1e-9)
}

func TestParseWeatherRejectsBadKey(t *testing.T) {
	t.Run("missing timestamp", func(t *testing.T) {
		raw := records.RawWeather{Borough: "QUEENS"}
		_, _, err := raw.Parse()
		assert.Error(t, err)
	})

	t.Run("borough outside whitelist", func(t *testing.T) {
		raw := records.RawWeather{
			TimestampUTC: "2024-01-15T13:00",
			Borough:      "YONKERS",
		}
		_, _, err := raw.Parse()
		assert.Error(t, err)
	})
}

func TestParseUTCTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)

	for _, s := range []string{
		"2024-01-15T13:00:00Z",
		"2024-01-15T13:00",
		"2024-01-15 13:00:00",
		"2024-01-15 13:00",
	} {
		ts, err := records.ParseUTCTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, ts, s)
	}
}

func TestNormalizeBorough(t *testing.T) {
	tests := []struct {
		in  string
		out string
		ok  bool
	}{
		{"Manhattan", "MANHATTAN", true},
		{" staten island ", "STATEN ISLAND", true},
		{"", records.UnknownBorough, true},
		{"unknown", records.UnknownBorough, true},
		{"ALBANY", records.UnknownBorough, false},
	}

	for _, v := range tests {
		got, ok := records.NormalizeBorough(v.in)
		assert.Equal(t, v.out, got, v.in)
		assert.Equal(t, v.ok, ok, v.in)
	}
}
