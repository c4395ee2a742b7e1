package iosource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/nycsafety/colldb/pkg/records"
	_ "modernc.org/sqlite" // SQLite driver
)

// CollisionSQLite streams raw collision tuples from a staging SQLite
// database, the format the extract step writes when a run is split
// across machines. The staging table mirrors the CSV extract columns.
type CollisionSQLite struct {
	db *sql.DB
}

// NewCollisionSQLite opens a staging database and verifies the
// collisions table exists.
func NewCollisionSQLite(path string) (*CollisionSQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging database: %w", err)
	}

	if err := checkStagingTable(db, "collisions"); err != nil {
		db.Close()
		return nil, err
	}

	return &CollisionSQLite{db: db}, nil
}

// Stream sends every raw tuple to ch. The channel stays open; the
// caller owns it.
func (c *CollisionSQLite) Stream(ctx context.Context, ch chan<- records.RawCollision) error {
	query := `
		SELECT
			collision_id, crash_date, crash_time, borough, zip_code,
			latitude, longitude,
			on_street_name, off_street_name, cross_street_name,
			number_of_persons_injured, number_of_persons_killed,
			number_of_pedestrians_injured, number_of_pedestrians_killed,
			number_of_cyclist_injured, number_of_cyclist_killed,
			number_of_motorist_injured, number_of_motorist_killed,
			contributing_factor_vehicle_1, contributing_factor_vehicle_2,
			contributing_factor_vehicle_3, contributing_factor_vehicle_4,
			contributing_factor_vehicle_5,
			vehicle_type_code_1, vehicle_type_code_2, vehicle_type_code_3,
			vehicle_type_code_4, vehicle_type_code_5
		FROM collisions
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query staging collisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw records.RawCollision
		var cols [28]sql.NullString

		dest := make([]any, len(cols))
		for i := range cols {
			dest[i] = &cols[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan staging collision: %w", err)
		}

		raw.CollisionID = cols[0].String
		raw.CrashDate = cols[1].String
		raw.CrashTime = cols[2].String
		raw.Borough = cols[3].String
		raw.ZipCode = cols[4].String
		raw.Latitude = cols[5].String
		raw.Longitude = cols[6].String
		raw.OnStreetName = cols[7].String
		raw.OffStreetName = cols[8].String
		raw.CrossStreetName = cols[9].String
		raw.PersonsInjured = cols[10].String
		raw.PersonsKilled = cols[11].String
		raw.PedestriansInjured = cols[12].String
		raw.PedestriansKilled = cols[13].String
		raw.CyclistsInjured = cols[14].String
		raw.CyclistsKilled = cols[15].String
		raw.MotoristsInjured = cols[16].String
		raw.MotoristsKilled = cols[17].String
		for i := 0; i < records.SlotCount; i++ {
			raw.ContributingFactors[i] = cols[18+i].String
			raw.VehicleTypes[i] = cols[23+i].String
		}

		select {
		case ch <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating staging collisions: %w", err)
	}
	return nil
}

// Close closes the staging database.
func (c *CollisionSQLite) Close() error {
	return c.db.Close()
}

// WeatherSQLite streams raw weather tuples from a staging SQLite
// database.
type WeatherSQLite struct {
	db *sql.DB
}

// NewWeatherSQLite opens a staging database and verifies the weather
// table exists.
func NewWeatherSQLite(path string) (*WeatherSQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging database: %w", err)
	}

	if err := checkStagingTable(db, "weather"); err != nil {
		db.Close()
		return nil, err
	}

	return &WeatherSQLite{db: db}, nil
}

// Stream sends every raw tuple to ch. The channel stays open; the
// caller owns it.
func (w *WeatherSQLite) Stream(ctx context.Context, ch chan<- records.RawWeather) error {
	query := `
		SELECT
			timestamp, borough, temperature_2m, precipitation, visibility,
			rain, showers, snowfall, wind_speed_10m
		FROM weather
	`

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query staging weather: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cols [9]sql.NullString

		dest := make([]any, len(cols))
		for i := range cols {
			dest[i] = &cols[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan staging weather: %w", err)
		}

		raw := records.RawWeather{
			TimestampUTC:  cols[0].String,
			Borough:       cols[1].String,
			Temperature2M: cols[2].String,
			Precipitation: cols[3].String,
			Visibility:    cols[4].String,
			Rain:          cols[5].String,
			Showers:       cols[6].String,
			Snowfall:      cols[7].String,
			WindSpeed10M:  cols[8].String,
		}

		select {
		case ch <- raw:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating staging weather: %w", err)
	}
	return nil
}

// Close closes the staging database.
func (w *WeatherSQLite) Close() error {
	return w.db.Close()
}

func checkStagingTable(db *sql.DB, table string) error {
	var name string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("staging database has no %s table", table)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect staging database: %w", err)
	}
	return nil
}

var (
	_ lifecycle.CollisionSource = (*CollisionSQLite)(nil)
	_ lifecycle.WeatherSource   = (*WeatherSQLite)(nil)
)
