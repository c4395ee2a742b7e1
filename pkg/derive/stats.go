package derive

import (
	"database/sql"
	"time"

	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/schema"
)

// BuildHourlyStat recomputes the rollup row for one (datetime, location)
// key from its constituent facts. The computation is pure: rebuilding
// twice over the same facts yields an identical row (computed_at aside,
// which the caller supplies).
//
// Rates are 0 when there are no collisions; weather rollups are NULL
// when there are no weather facts.
func BuildHourlyStat(
	datetimeID, locationID int64,
	collisions []schema.CollisionFact,
	weather []schema.WeatherFact,
	th config.ThresholdsConfig,
	computedAt time.Time,
) schema.HourlyStat {
	stat := schema.HourlyStat{
		DatetimeID: datetimeID,
		LocationID: locationID,
		ComputedAt: computedAt,
	}

	for _, c := range collisions {
		stat.TotalCollisions++
		stat.TotalInjuries += c.PersonsInjured
		stat.TotalFatalities += c.PersonsKilled
		stat.PedestrianInjuries += c.PedestriansInjured
		stat.CyclistInjuries += c.CyclistsInjured
		stat.MotoristInjuries += c.MotoristsInjured
	}

	if stat.TotalCollisions > 0 {
		n := float64(stat.TotalCollisions)
		stat.InjuryRatePerCollision = float64(stat.TotalInjuries) / n
		stat.FatalityRatePerCollision = float64(stat.TotalFatalities) / n
	}

	if len(weather) > 0 {
		var (
			tempSum, visSum, precipSum float64
			tempMin                    = weather[0].Temperature2M
			tempMax                    = weather[0].Temperature2M
			windMax                    float64
		)

		for _, w := range weather {
			tempSum += w.Temperature2M
			visSum += w.Visibility
			precipSum += w.Precipitation
			if w.Temperature2M < tempMin {
				tempMin = w.Temperature2M
			}
			if w.Temperature2M > tempMax {
				tempMax = w.Temperature2M
			}
			if w.WindSpeed10M > windMax {
				windMax = w.WindSpeed10M
			}
		}

		n := float64(len(weather))
		stat.AvgTemperature = sql.NullFloat64{Float64: tempSum / n, Valid: true}
		stat.MinTemperature = sql.NullFloat64{Float64: tempMin, Valid: true}
		stat.MaxTemperature = sql.NullFloat64{Float64: tempMax, Valid: true}
		stat.TotalPrecipitation = sql.NullFloat64{Float64: precipSum, Valid: true}
		stat.AvgVisibility = sql.NullFloat64{Float64: visSum / n, Valid: true}
		stat.MaxWindSpeed = sql.NullFloat64{Float64: windMax, Valid: true}
	}

	stat.IsHighRiskHour = stat.FatalityRatePerCollision > th.HighRiskFatalityRate ||
		stat.InjuryRatePerCollision > th.HighRiskInjuryRate

	return stat
}
