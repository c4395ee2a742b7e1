// Package derive holds the pure derivation rules of the warehouse:
// calendar/time-bucket attributes, injury reconciliation, severity
// tiering, weather categorization and the hourly rollup. Nothing here
// touches the database; internal/ioload and internal/ioaggregate apply
// these rules against storage.
package derive

import (
	"fmt"
	"sync"
	"time"

	"github.com/nycsafety/colldb/pkg/schema"
)

// Seasons as stored on dim_datetime.
const (
	SeasonWinter = "WINTER"
	SeasonSpring = "SPRING"
	SeasonSummer = "SUMMER"
	SeasonFall   = "FALL"
)

var (
	nycOnce sync.Once
	nycLoc  *time.Location
	nycErr  error
)

// NYCLocation returns the America/New_York location, loaded once.
func NYCLocation() (*time.Location, error) {
	nycOnce.Do(func() {
		nycLoc, nycErr = time.LoadLocation("America/New_York")
		if nycErr != nil {
			nycErr = fmt.Errorf("failed to load America/New_York tzdata: %w", nycErr)
		}
	})
	return nycLoc, nycErr
}

// NormalizeDateTime converts a raw timestamp (carrying its source
// timezone) into a datetime dimension row at minute granularity.
// The surrogate key is left zero; the resolver assigns it.
//
// Boundary semantics are exact: rush hour covers local hours 7-9 and
// 16-19 (hour 10 is not rush hour), night wraps 20:00 through 06:00
// inclusive on both ends (hour 6 is still night, hour 20 is night).
func NormalizeDateTime(raw time.Time) (schema.DateTimeDim, error) {
	loc, err := NYCLocation()
	if err != nil {
		return schema.DateTimeDim{}, err
	}

	nyc := raw.In(loc).Truncate(time.Minute)
	utc := nyc.UTC()

	hour := nyc.Hour()
	month := int(nyc.Month())
	wd := nyc.Weekday()

	row := schema.DateTimeDim{
		// Stored without zone; the column is defined as NYC-local.
		DatetimeNYC: time.Date(
			nyc.Year(), nyc.Month(), nyc.Day(),
			nyc.Hour(), nyc.Minute(), 0, 0, time.UTC,
		),
		DatetimeUTC: time.Date(
			utc.Year(), utc.Month(), utc.Day(),
			utc.Hour(), utc.Minute(), 0, 0, time.UTC,
		),
		DateNYC: time.Date(
			nyc.Year(), nyc.Month(), nyc.Day(), 0, 0, 0, 0, time.UTC,
		),
		Hour:       hour,
		DayOfWeek:  wd.String(),
		DayOfMonth: nyc.Day(),
		Month:      month,
		Year:       nyc.Year(),
		Quarter:    (month-1)/3 + 1,
		Season:     Season(month),
		IsWeekend:  wd == time.Saturday || wd == time.Sunday,
		IsRushHour: IsRushHour(hour),
		IsNight:    IsNight(hour),
	}

	return row, nil
}

// Season maps a month (1-12) to its season: Dec-Feb winter, Mar-May
// spring, Jun-Aug summer, Sep-Nov fall.
func Season(month int) string {
	switch month {
	case 12, 1, 2:
		return SeasonWinter
	case 3, 4, 5:
		return SeasonSpring
	case 6, 7, 8:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// IsRushHour reports whether an NYC-local hour falls in the morning
// (7-9) or evening (16-19) rush window.
func IsRushHour(hour int) bool {
	return (hour >= 7 && hour < 10) || (hour >= 16 && hour <= 19)
}

// IsNight reports whether an NYC-local hour falls in the 20:00-06:00
// wraparound window, both boundary hours included.
func IsNight(hour int) bool {
	return hour >= 20 || hour <= 6
}
