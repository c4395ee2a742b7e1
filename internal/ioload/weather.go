package ioload

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/nycsafety/colldb/pkg/records"
	"github.com/nycsafety/colldb/pkg/schema"
)

// resolveWeatherKeys resolves the datetime and borough-centroid
// location for a weather reading.
func (l *loader) resolveWeatherKeys(
	ctx context.Context,
	w records.Weather,
) (datetimeID, locationID int64, err error) {
	datetimeID, err = l.resolver.ResolveDateTime(ctx, w.ObservedAt)
	if err != nil {
		return 0, 0, err
	}

	locationID, err = l.resolver.ResolveBoroughLocation(ctx, w.Borough)
	if err != nil {
		return 0, 0, err
	}
	return datetimeID, locationID, nil
}

// assembleWeatherFact derives the fact row from a validated reading and
// its resolved keys.
func assembleWeatherFact(
	w records.Weather,
	datetimeID, locationID int64,
	th config.ThresholdsConfig,
) schema.WeatherFact {
	m := w.Measurements

	return schema.WeatherFact{
		DatetimeID:       datetimeID,
		LocationID:       locationID,
		Temperature2M:    m.Temperature2M,
		Precipitation:    m.Precipitation,
		Visibility:       m.Visibility,
		Rain:             m.Rain,
		Showers:          m.Showers,
		Snowfall:         m.Snowfall,
		WindSpeed10M:     m.WindSpeed10M,
		IsAdverseWeather: derive.IsAdverseWeather(m, th),
	}
}

// weatherParamCount is the number of bind parameters one weather row
// contributes to a batch insert.
const weatherParamCount = 10

type weatherKey struct {
	datetimeID, locationID int64
}

// dedupeWeather keeps the last occurrence of each (datetime, location)
// key within a batch.
func dedupeWeather(facts []schema.WeatherFact) []schema.WeatherFact {
	seen := make(map[weatherKey]int, len(facts))
	result := make([]schema.WeatherFact, 0, len(facts))

	for _, f := range facts {
		k := weatherKey{f.DatetimeID, f.LocationID}
		if i, ok := seen[k]; ok {
			result[i] = f
			continue
		}
		seen[k] = len(result)
		result = append(result, f)
	}
	return result
}

// upsertWeather writes one batch of weather facts. Re-ingesting a
// (datetime, location) key replaces its measurements and advances
// updated_at.
func upsertWeather(
	ctx context.Context,
	pool *pgxpool.Pool,
	facts []schema.WeatherFact,
) error {
	facts = dedupeWeather(facts)
	if len(facts) == 0 {
		return nil
	}

	var valueStrings []string
	var valueArgs []any
	argIdx := 1

	for _, f := range facts {
		placeholders := make([]string, weatherParamCount)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", argIdx+i)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		argIdx += weatherParamCount

		valueArgs = append(valueArgs,
			f.DatetimeID, f.LocationID,
			f.Temperature2M, f.Precipitation, f.Visibility,
			f.Rain, f.Showers, f.Snowfall, f.WindSpeed10M,
			f.IsAdverseWeather,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO fact_weather
			(datetime_id, location_id, temperature_2m, precipitation,
			 visibility, rain, showers, snowfall, wind_speed_10m,
			 is_adverse_weather)
		VALUES %s
		ON CONFLICT (datetime_id, location_id) DO UPDATE SET
			temperature_2m = EXCLUDED.temperature_2m,
			precipitation = EXCLUDED.precipitation,
			visibility = EXCLUDED.visibility,
			rain = EXCLUDED.rain,
			showers = EXCLUDED.showers,
			snowfall = EXCLUDED.snowfall,
			wind_speed_10m = EXCLUDED.wind_speed_10m,
			is_adverse_weather = EXCLUDED.is_adverse_weather,
			updated_at = NOW()`,
		strings.Join(valueStrings, ", "),
	)

	if _, err := pool.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to upsert weather facts batch: %w", err)
	}
	return nil
}

// weatherBatchSize caps a batch by both the configured size and the
// parameter limit.
func weatherBatchSize(cfg *config.Config) int {
	const maxRows = 65535 / weatherParamCount

	size := cfg.Database.BatchSize
	if size > maxRows {
		size = maxRows
	}
	return size
}
