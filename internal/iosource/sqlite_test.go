package iosource

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nycsafety/colldb/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createStagingDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staging.sqlite")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE collisions (
			collision_id TEXT, crash_date TEXT, crash_time TEXT,
			borough TEXT, zip_code TEXT, latitude TEXT, longitude TEXT,
			on_street_name TEXT, off_street_name TEXT, cross_street_name TEXT,
			number_of_persons_injured TEXT, number_of_persons_killed TEXT,
			number_of_pedestrians_injured TEXT, number_of_pedestrians_killed TEXT,
			number_of_cyclist_injured TEXT, number_of_cyclist_killed TEXT,
			number_of_motorist_injured TEXT, number_of_motorist_killed TEXT,
			contributing_factor_vehicle_1 TEXT, contributing_factor_vehicle_2 TEXT,
			contributing_factor_vehicle_3 TEXT, contributing_factor_vehicle_4 TEXT,
			contributing_factor_vehicle_5 TEXT,
			vehicle_type_code_1 TEXT, vehicle_type_code_2 TEXT,
			vehicle_type_code_3 TEXT, vehicle_type_code_4 TEXT,
			vehicle_type_code_5 TEXT
		);
		CREATE TABLE weather (
			timestamp TEXT, borough TEXT, temperature_2m TEXT,
			precipitation TEXT, visibility TEXT, rain TEXT,
			showers TEXT, snowfall TEXT, wind_speed_10m TEXT
		);
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO collisions VALUES (
			'4455667', '2023-07-15', '8:30', 'BROOKLYN', '11201',
			'40.6932', '-73.9896',
			'ATLANTIC AVENUE', '', 'COURT STREET',
			'1', '0', '1', '0', '0', '0', '0', '0',
			'Driver Inattention/Distraction', 'Unspecified', NULL, NULL, NULL,
			'Sedan', 'Bike', NULL, NULL, NULL
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO weather VALUES (
			'2023-07-15T12:00', 'BROOKLYN', '28.46', '0.0', '24100',
			'0.0', '0.0', '0.0', '12.33'
		)
	`)
	require.NoError(t, err)

	return path
}

func TestCollisionSQLiteStream(t *testing.T) {
	path := createStagingDB(t)

	src, err := NewCollisionSQLite(path)
	require.NoError(t, err)
	defer src.Close()

	ch := make(chan records.RawCollision, 10)
	require.NoError(t, src.Stream(context.Background(), ch))
	close(ch)

	var got []records.RawCollision
	for raw := range ch {
		got = append(got, raw)
	}
	require.Len(t, got, 1)

	raw := got[0]
	assert.Equal(t, "4455667", raw.CollisionID)
	assert.Equal(t, "BROOKLYN", raw.Borough)
	assert.Equal(t, "Driver Inattention/Distraction", raw.ContributingFactors[0])
	assert.Equal(t, "", raw.ContributingFactors[2])
	assert.Equal(t, "Bike", raw.VehicleTypes[1])
}

func TestWeatherSQLiteStream(t *testing.T) {
	path := createStagingDB(t)

	src, err := NewWeatherSQLite(path)
	require.NoError(t, err)
	defer src.Close()

	ch := make(chan records.RawWeather, 10)
	require.NoError(t, src.Stream(context.Background(), ch))
	close(ch)

	var got []records.RawWeather
	for raw := range ch {
		got = append(got, raw)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "2023-07-15T12:00", got[0].TimestampUTC)
	assert.Equal(t, "28.46", got[0].Temperature2M)
}

func TestSQLiteMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.sqlite")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE unrelated (x TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewCollisionSQLite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collisions")

	_, err = NewWeatherSQLite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}
