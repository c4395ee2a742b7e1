package ioload

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/nycsafety/colldb/pkg/records"
	"github.com/nycsafety/colldb/pkg/schema"
)

// resolver turns natural keys into surrogate keys with insert-if-absent
// semantics: INSERT ... ON CONFLICT DO NOTHING followed by a SELECT on
// the natural key. Uniqueness rests on the storage constraints, so
// concurrent workers racing on the same key all land on one row.
//
// Dimension attributes are immutable: a record arriving with different
// attributes for an already-stored natural key keeps the stored values,
// and the mismatch is counted as a data-quality warning.
//
// The caches are a performance layer only; a cold cache is always
// correct.
type resolver struct {
	pool *pgxpool.Pool

	mu           sync.RWMutex
	datetimes    map[int64]int64              // datetime_nyc unix -> datetime_id
	locations    map[string]cachedLocation    // population-prefixed natural key
	vehicleTypes map[string]cachedVehicleType // type_code
	factors      map[string]cachedFactor      // factor_code
	conditions   map[string]int32             // category|severity -> condition_id

	// conditionLookups caches per (hour, borough) weather condition
	// lookups, negative results included: weather loads precede
	// collision loads within a run.
	conditionLookups map[string]sql.NullInt32

	warns atomic.Int64
}

// cachedLocation pairs a surrogate key with the stored attributes so
// repeat sightings can be checked for conflicts without a query.
type cachedLocation struct {
	id  int64
	row schema.LocationDim
}

type cachedVehicleType struct {
	id        int32
	category  string
	motorized bool
}

type cachedFactor struct {
	id          int32
	severity    string
	preventable bool
}

func newResolver(pool *pgxpool.Pool) *resolver {
	return &resolver{
		pool:             pool,
		datetimes:        make(map[int64]int64),
		locations:        make(map[string]cachedLocation),
		vehicleTypes:     make(map[string]cachedVehicleType),
		factors:          make(map[string]cachedFactor),
		conditions:       make(map[string]int32),
		conditionLookups: make(map[string]sql.NullInt32),
	}
}

// noteConflict logs attributes that arrived with values differing from
// the stored row and counts one warning for the record.
func (r *resolver) noteConflict(dimension, key string, fields []string) {
	if len(fields) == 0 {
		return
	}
	r.warns.Add(1)
	slog.Warn("Conflicting dimension attributes ignored",
		"dimension", dimension, "key", key, "fields", fields)
}

// takeWarnings returns the conflict warnings accumulated since the
// last call and resets the counter.
func (r *resolver) takeWarnings() int {
	return int(r.warns.Swap(0))
}

// ResolveDateTime resolves the datetime dimension row for a raw
// timestamp, inserting the full derived row on first sight.
func (r *resolver) ResolveDateTime(ctx context.Context, raw time.Time) (int64, error) {
	row, err := derive.NormalizeDateTime(raw)
	if err != nil {
		return 0, err
	}

	key := row.DatetimeNYC.Unix()
	r.mu.RLock()
	id, ok := r.datetimes[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO dim_datetime
			(datetime_nyc, datetime_utc, date_nyc, hour, day_of_week,
			 day_of_month, month, year, quarter, season,
			 is_weekend, is_rush_hour, is_night)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (datetime_nyc) DO NOTHING`,
		row.DatetimeNYC, row.DatetimeUTC, row.DateNYC, row.Hour,
		row.DayOfWeek, row.DayOfMonth, row.Month, row.Year, row.Quarter,
		row.Season, row.IsWeekend, row.IsRushHour, row.IsNight,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert datetime dimension: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		"SELECT datetime_id FROM dim_datetime WHERE datetime_nyc = $1",
		row.DatetimeNYC,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve datetime dimension: %w", err)
	}

	r.mu.Lock()
	r.datetimes[key] = id
	r.mu.Unlock()
	return id, nil
}

// locationKey builds the cache key for one of the two location
// populations: coordinate pairs and coordinate-less (borough, street)
// rows never merge.
func locationKey(lat, lon sql.NullFloat64, borough, onStreet string) string {
	if lat.Valid && lon.Valid {
		return "C|" + strconv.FormatFloat(lat.Float64, 'f', -1, 64) +
			"|" + strconv.FormatFloat(lon.Float64, 'f', -1, 64)
	}
	return "S|" + borough + "|" + onStreet
}

// ResolveCollisionLocation resolves the location dimension row for a
// collision record.
func (r *resolver) ResolveCollisionLocation(ctx context.Context, c records.Collision) (int64, error) {
	return r.resolveLocation(ctx, schema.LocationDim{
		Borough:         c.Borough,
		ZipCode:         c.ZipCode,
		Latitude:        c.Latitude,
		Longitude:       c.Longitude,
		OnStreetName:    c.OnStreetName,
		OffStreetName:   c.OffStreetName,
		CrossStreetName: c.CrossStreetName,
	})
}

// ResolveBoroughLocation resolves the centroid location row weather
// facts anchor to.
func (r *resolver) ResolveBoroughLocation(ctx context.Context, borough string) (int64, error) {
	c, ok := records.Boroughs[borough]
	if !ok {
		return 0, fmt.Errorf("no centroid for borough %q", borough)
	}

	return r.resolveLocation(ctx, schema.LocationDim{
		Borough:   borough,
		Latitude:  sql.NullFloat64{Float64: c.Lat, Valid: true},
		Longitude: sql.NullFloat64{Float64: c.Lon, Valid: true},
	})
}

func (r *resolver) resolveLocation(ctx context.Context, loc schema.LocationDim) (int64, error) {
	key := locationKey(loc.Latitude, loc.Longitude, loc.Borough, loc.OnStreetName)

	r.mu.RLock()
	cached, ok := r.locations[key]
	r.mu.RUnlock()
	if ok {
		r.noteConflict("location", key, locationConflicts(cached.row, loc))
		return cached.id, nil
	}

	var id int64
	stored := loc
	var err error
	if loc.Latitude.Valid && loc.Longitude.Valid {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO dim_location
				(borough, zip_code, latitude, longitude,
				 on_street_name, off_street_name, cross_street_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (latitude, longitude)
				WHERE latitude IS NOT NULL AND longitude IS NOT NULL
				DO NOTHING`,
			loc.Borough, loc.ZipCode, loc.Latitude, loc.Longitude,
			loc.OnStreetName, loc.OffStreetName, loc.CrossStreetName,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert location dimension: %w", err)
		}

		err = r.pool.QueryRow(ctx, `
			SELECT location_id, borough, zip_code,
			       on_street_name, off_street_name, cross_street_name
			FROM dim_location
			WHERE latitude = $1 AND longitude = $2`,
			loc.Latitude, loc.Longitude,
		).Scan(&id, &stored.Borough, &stored.ZipCode,
			&stored.OnStreetName, &stored.OffStreetName, &stored.CrossStreetName)
	} else {
		_, err = r.pool.Exec(ctx, `
			INSERT INTO dim_location
				(borough, zip_code, on_street_name,
				 off_street_name, cross_street_name)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (borough, on_street_name)
				WHERE latitude IS NULL
				DO NOTHING`,
			loc.Borough, loc.ZipCode, loc.OnStreetName,
			loc.OffStreetName, loc.CrossStreetName,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert location dimension: %w", err)
		}

		err = r.pool.QueryRow(ctx, `
			SELECT location_id, borough, zip_code,
			       on_street_name, off_street_name, cross_street_name
			FROM dim_location
			WHERE borough = $1 AND on_street_name = $2 AND latitude IS NULL`,
			loc.Borough, loc.OnStreetName,
		).Scan(&id, &stored.Borough, &stored.ZipCode,
			&stored.OnStreetName, &stored.OffStreetName, &stored.CrossStreetName)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve location dimension: %w", err)
	}

	r.noteConflict("location", key, locationConflicts(stored, loc))

	r.mu.Lock()
	r.locations[key] = cachedLocation{id: id, row: stored}
	r.mu.Unlock()
	return id, nil
}

// locationConflicts lists the attributes of an incoming row disagreeing
// with the stored row for the same natural key.
func locationConflicts(stored, incoming schema.LocationDim) []string {
	var fields []string
	if incoming.Borough != stored.Borough {
		fields = append(fields, "borough")
	}
	if incoming.ZipCode != stored.ZipCode {
		fields = append(fields, "zip_code")
	}
	if incoming.OnStreetName != stored.OnStreetName {
		fields = append(fields, "on_street_name")
	}
	if incoming.OffStreetName != stored.OffStreetName {
		fields = append(fields, "off_street_name")
	}
	if incoming.CrossStreetName != stored.CrossStreetName {
		fields = append(fields, "cross_street_name")
	}
	return fields
}

// ResolveVehicleType resolves a vehicle-type code, classifying new
// codes on first sight. A stored row whose attributes disagree with the
// classification keeps its values and raises a warning.
func (r *resolver) ResolveVehicleType(ctx context.Context, typeCode string) (int32, error) {
	category, motorized := records.ClassifyVehicleType(typeCode)

	r.mu.RLock()
	cached, ok := r.vehicleTypes[typeCode]
	r.mu.RUnlock()
	if ok {
		r.noteConflict("vehicle_type", typeCode,
			vehicleTypeConflicts(cached, category, motorized))
		return cached.id, nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO dim_vehicle_type (type_code, category, is_motorized)
		VALUES ($1, $2, $3)
		ON CONFLICT (type_code) DO NOTHING`,
		typeCode, category, motorized,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vehicle type: %w", err)
	}

	var stored cachedVehicleType
	err = r.pool.QueryRow(ctx,
		"SELECT vehicle_type_id, category, is_motorized FROM dim_vehicle_type WHERE type_code = $1",
		typeCode,
	).Scan(&stored.id, &stored.category, &stored.motorized)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve vehicle type %q: %w", typeCode, err)
	}

	r.noteConflict("vehicle_type", typeCode,
		vehicleTypeConflicts(stored, category, motorized))

	r.mu.Lock()
	r.vehicleTypes[typeCode] = stored
	r.mu.Unlock()
	return stored.id, nil
}

func vehicleTypeConflicts(stored cachedVehicleType, category string, motorized bool) []string {
	var fields []string
	if category != stored.category {
		fields = append(fields, "category")
	}
	if motorized != stored.motorized {
		fields = append(fields, "is_motorized")
	}
	return fields
}

// ResolveFactor resolves a contributing-factor code, classifying new
// codes on first sight. A stored row whose attributes disagree with the
// classification keeps its values and raises a warning.
func (r *resolver) ResolveFactor(ctx context.Context, factorCode string) (int32, error) {
	severity, preventable := records.ClassifyFactor(factorCode)

	r.mu.RLock()
	cached, ok := r.factors[factorCode]
	r.mu.RUnlock()
	if ok {
		r.noteConflict("contributing_factor", factorCode,
			factorConflicts(cached, severity, preventable))
		return cached.id, nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO dim_contributing_factor (factor_code, severity, is_preventable)
		VALUES ($1, $2, $3)
		ON CONFLICT (factor_code) DO NOTHING`,
		factorCode, severity, preventable,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contributing factor: %w", err)
	}

	var stored cachedFactor
	err = r.pool.QueryRow(ctx,
		"SELECT factor_id, severity, is_preventable FROM dim_contributing_factor WHERE factor_code = $1",
		factorCode,
	).Scan(&stored.id, &stored.severity, &stored.preventable)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve contributing factor %q: %w", factorCode, err)
	}

	r.noteConflict("contributing_factor", factorCode,
		factorConflicts(stored, severity, preventable))

	r.mu.Lock()
	r.factors[factorCode] = stored
	r.mu.Unlock()
	return stored.id, nil
}

func factorConflicts(stored cachedFactor, severity string, preventable bool) []string {
	var fields []string
	if severity != stored.severity {
		fields = append(fields, "severity")
	}
	if preventable != stored.preventable {
		fields = append(fields, "is_preventable")
	}
	return fields
}

// ResolveCondition resolves a weather-condition (category, severity)
// pair. The matrix is seeded at schema creation, so the insert is
// normally a no-op.
func (r *resolver) ResolveCondition(ctx context.Context, category, severity string) (int32, error) {
	key := category + "|" + severity

	r.mu.RLock()
	id, ok := r.conditions[key]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO dim_weather_condition (category, severity, safety_score)
		VALUES ($1, $2, $3)
		ON CONFLICT (category, severity) DO NOTHING`,
		category, severity, derive.SafetyScore(category, severity),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert weather condition: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT condition_id FROM dim_weather_condition
		WHERE category = $1 AND severity = $2`,
		category, severity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve weather condition %s/%s: %w", category, severity, err)
	}

	r.mu.Lock()
	r.conditions[key] = id
	r.mu.Unlock()
	return id, nil
}

// LookupCollisionCondition finds the weather condition in effect for a
// collision's hour and borough, if a weather fact for that key was
// loaded. Returns an invalid NullInt32 when no reading exists.
func (r *resolver) LookupCollisionCondition(
	ctx context.Context,
	crashedAt time.Time,
	borough string,
) (sql.NullInt32, error) {
	row, err := derive.NormalizeDateTime(crashedAt)
	if err != nil {
		return sql.NullInt32{}, err
	}
	hour := row.DatetimeNYC.Truncate(time.Hour)

	key := strconv.FormatInt(hour.Unix(), 10) + "|" + borough
	r.mu.RLock()
	cached, ok := r.conditionLookups[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var m derive.Measurements
	err = r.pool.QueryRow(ctx, `
		SELECT fw.temperature_2m, fw.precipitation, fw.visibility,
		       fw.rain, fw.showers, fw.snowfall, fw.wind_speed_10m
		FROM fact_weather fw
		JOIN dim_datetime dd ON dd.datetime_id = fw.datetime_id
		JOIN dim_location dl ON dl.location_id = fw.location_id
		WHERE dd.datetime_nyc = $1 AND dl.borough = $2
		LIMIT 1`,
		hour, borough,
	).Scan(
		&m.Temperature2M, &m.Precipitation, &m.Visibility,
		&m.Rain, &m.Showers, &m.Snowfall, &m.WindSpeed10M,
	)

	var result sql.NullInt32
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No reading for this hour and borough; remember the miss.
	case err != nil:
		return sql.NullInt32{}, fmt.Errorf("failed to look up weather condition: %w", err)
	default:
		category := derive.CategorizeWeather(m)
		severity := derive.WeatherSeverityOf(m)
		id, err := r.ResolveCondition(ctx, category, severity)
		if err != nil {
			return sql.NullInt32{}, err
		}
		result = sql.NullInt32{Int32: id, Valid: true}
	}

	r.mu.Lock()
	r.conditionLookups[key] = result
	r.mu.Unlock()
	return result, nil
}
