package records

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nycsafety/colldb/pkg/derive"
)

// Parse validates a raw collision tuple. A missing or unparseable
// collision identifier or crash timestamp makes the record malformed
// (error); lesser problems produce data-quality warnings and
// best-effort values.
func (r RawCollision) Parse() (Collision, []string, error) {
	var warnings []string

	idStr := strings.TrimSpace(r.CollisionID)
	if idStr == "" {
		return Collision{}, nil, fmt.Errorf("missing collision_id")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return Collision{}, nil, fmt.Errorf("invalid collision_id %q: %w", idStr, err)
	}

	crashedAt, err := ParseCrashDateTime(r.CrashDate, r.CrashTime)
	if err != nil {
		return Collision{}, nil, fmt.Errorf("collision %d: %w", id, err)
	}

	borough, ok := NormalizeBorough(r.Borough)
	if !ok {
		warnings = append(warnings,
			fmt.Sprintf("collision %d: unrecognized borough %q", id, r.Borough))
	}

	c := Collision{
		ID:              id,
		CrashedAt:       crashedAt,
		Borough:         borough,
		ZipCode:         strings.TrimSpace(r.ZipCode),
		Latitude:        parseCoordinate(r.Latitude),
		Longitude:       parseCoordinate(r.Longitude),
		OnStreetName:    normalizeStreet(r.OnStreetName),
		OffStreetName:   normalizeStreet(r.OffStreetName),
		CrossStreetName: normalizeStreet(r.CrossStreetName),
	}

	// Coordinates are only usable as a pair.
	if !c.Latitude.Valid || !c.Longitude.Valid {
		c.Latitude = sql.NullFloat64{}
		c.Longitude = sql.NullFloat64{}
	}

	c.SuppliedInjured = parseCountOr(r.PersonsInjured, -1, &warnings, id, "persons_injured")
	c.SuppliedKilled = parseCountOr(r.PersonsKilled, -1, &warnings, id, "persons_killed")

	c.PedestriansInjured = parseCountOr(r.PedestriansInjured, 0, &warnings, id, "pedestrians_injured")
	c.PedestriansKilled = parseCountOr(r.PedestriansKilled, 0, &warnings, id, "pedestrians_killed")
	c.CyclistsInjured = parseCountOr(r.CyclistsInjured, 0, &warnings, id, "cyclists_injured")
	c.CyclistsKilled = parseCountOr(r.CyclistsKilled, 0, &warnings, id, "cyclists_killed")
	c.MotoristsInjured = parseCountOr(r.MotoristsInjured, 0, &warnings, id, "motorists_injured")
	c.MotoristsKilled = parseCountOr(r.MotoristsKilled, 0, &warnings, id, "motorists_killed")

	for i := 0; i < SlotCount; i++ {
		c.ContributingFactors[i] = strings.TrimSpace(r.ContributingFactors[i])
		c.VehicleTypes[i] = strings.TrimSpace(r.VehicleTypes[i])
	}

	c.NumberOfVehicles = parseCountOr(r.NumberOfVehicles, 0, &warnings, id, "number_of_vehicles")
	if c.NumberOfVehicles == 0 {
		// The extract predates the explicit vehicle count; infer it from
		// occupied vehicle-type slots.
		for i := 0; i < SlotCount; i++ {
			if c.VehicleTypes[i] != "" {
				c.NumberOfVehicles++
			}
		}
	}

	return c, warnings, nil
}

// Parse validates a raw weather tuple. The timestamp and borough form
// the natural key, so both are required.
func (r RawWeather) Parse() (Weather, []string, error) {
	var warnings []string

	ts, err := ParseUTCTimestamp(r.TimestampUTC)
	if err != nil {
		return Weather{}, nil, err
	}

	borough, ok := NormalizeBorough(r.Borough)
	if !ok || borough == UnknownBorough {
		return Weather{}, nil, fmt.Errorf(
			"weather reading at %s: unusable borough %q", r.TimestampUTC, r.Borough)
	}

	m := derive.Measurements{
		Temperature2M: parseMeasurement(r.Temperature2M, &warnings, "temperature_2m"),
		Precipitation: parseMeasurement(r.Precipitation, &warnings, "precipitation"),
		Visibility:    parseMeasurement(r.Visibility, &warnings, "visibility"),
		Rain:          parseMeasurement(r.Rain, &warnings, "rain"),
		Showers:       parseMeasurement(r.Showers, &warnings, "showers"),
		Snowfall:      parseMeasurement(r.Snowfall, &warnings, "snowfall"),
		WindSpeed10M:  parseMeasurement(r.WindSpeed10M, &warnings, "wind_speed_10m"),
	}

	return Weather{
		ObservedAt:   ts,
		Borough:      borough,
		Measurements: derive.CleanMeasurements(m),
	}, warnings, nil
}

// ParseCrashDateTime composes crash_date and crash_time into an
// NYC-local timestamp. The date may carry a trailing ISO time part
// ("2024-01-01T00:00:00.000") which is ignored; single digit hours
// ("9:30") are zero-padded.
func ParseCrashDateTime(crashDate, crashTime string) (time.Time, error) {
	loc, err := derive.NYCLocation()
	if err != nil {
		return time.Time{}, err
	}

	datePart := strings.TrimSpace(crashDate)
	if i := strings.IndexByte(datePart, 'T'); i >= 0 {
		datePart = datePart[:i]
	}
	if datePart == "" {
		return time.Time{}, fmt.Errorf("missing crash_date")
	}

	timePart := strings.TrimSpace(crashTime)
	if timePart == "" {
		timePart = "00:00"
	}
	if i := strings.IndexByte(timePart, ':'); i == 1 {
		timePart = "0" + timePart
	}

	ts, err := time.ParseInLocation("2006-01-02 15:04", datePart+" "+timePart, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"unparseable crash timestamp %q %q: %w", crashDate, crashTime, err)
	}
	return ts, nil
}

// utcLayouts are the timestamp shapes weather extracts arrive in.
var utcLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseUTCTimestamp parses a weather observation timestamp as UTC.
func ParseUTCTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing weather timestamp")
	}

	for _, layout := range utcLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable weather timestamp %q", s)
}

// NormalizeBorough upper-cases and trims a borough value. Blank values
// and values outside the whitelist normalize to UNKNOWN; the second
// return is false only for unrecognized non-blank input.
func NormalizeBorough(s string) (string, bool) {
	b := strings.ToUpper(strings.TrimSpace(s))
	if b == "" || b == UnknownBorough {
		return UnknownBorough, true
	}
	if _, ok := Boroughs[b]; ok {
		return b, true
	}
	return UnknownBorough, false
}

func normalizeStreet(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// parseCoordinate parses and rounds a coordinate to 9 decimal places,
// returning NULL for blank or unparseable input.
func parseCoordinate(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{
		Float64: math.Round(v*1e9) / 1e9,
		Valid:   true,
	}
}

// parseCountOr parses a non-negative count, substituting def and warning
// on bad input.
func parseCountOr(s string, def int, warnings *[]string, id int64, field string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		*warnings = append(*warnings,
			fmt.Sprintf("collision %d: invalid %s %q", id, field, s))
		return def
	}
	return v
}

// parseMeasurement parses a float measurement, treating blank or
// unparseable values as 0 with a warning for the latter.
func parseMeasurement(s string, warnings *[]string, field string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("invalid %s %q", field, s))
		return 0
	}
	return v
}
