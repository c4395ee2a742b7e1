package iosource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nycsafety/colldb/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func collectCollisions(t *testing.T, src *CollisionCSV) []records.RawCollision {
	t.Helper()
	ch := make(chan records.RawCollision, 100)
	err := src.Stream(context.Background(), ch)
	require.NoError(t, err)
	close(ch)

	var got []records.RawCollision
	for raw := range ch {
		got = append(got, raw)
	}
	return got
}

func TestCollisionCSVStream(t *testing.T) {
	content := `collision_id,crash_date,crash_time,borough,zip_code,latitude,longitude,on_street_name,off_street_name,cross_street_name,number_of_persons_injured,number_of_persons_killed,number_of_pedestrians_injured,number_of_pedestrians_killed,number_of_cyclist_injured,number_of_cyclist_killed,number_of_motorist_injured,number_of_motorist_killed,contributing_factor_vehicle_1,contributing_factor_vehicle_2,vehicle_type_code_1,vehicle_type_code_2
4455667,2023-07-15,8:30,BROOKLYN,11201,40.6932,-73.9896,ATLANTIC AVENUE,,COURT STREET,1,0,1,0,0,0,0,0,Driver Inattention/Distraction,Unspecified,Sedan,Bike
4455668,2023-07-15T00:00:00.000,14:05,,,,,,,,0,0,0,0,0,0,0,0,Unspecified,,Sedan,
`
	path := writeTempCSV(t, "collisions.csv", content)

	src, err := NewCollisionCSV(path)
	require.NoError(t, err)
	defer src.Close()

	got := collectCollisions(t, src)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "4455667", first.CollisionID)
	assert.Equal(t, "2023-07-15", first.CrashDate)
	assert.Equal(t, "8:30", first.CrashTime)
	assert.Equal(t, "BROOKLYN", first.Borough)
	assert.Equal(t, "40.6932", first.Latitude)
	assert.Equal(t, "ATLANTIC AVENUE", first.OnStreetName)
	assert.Equal(t, "COURT STREET", first.CrossStreetName)
	assert.Equal(t, "1", first.PersonsInjured)
	assert.Equal(t, "Driver Inattention/Distraction", first.ContributingFactors[0])
	assert.Equal(t, "Unspecified", first.ContributingFactors[1])
	assert.Equal(t, "", first.ContributingFactors[2])
	assert.Equal(t, "Sedan", first.VehicleTypes[0])
	assert.Equal(t, "Bike", first.VehicleTypes[1])

	second := got[1]
	assert.Equal(t, "4455668", second.CollisionID)
	assert.Equal(t, "", second.Borough)
	assert.Equal(t, "", second.Latitude)
}

func TestCollisionCSVColumnOrderIndependent(t *testing.T) {
	content := `crash_time,collision_id,borough,crash_date
9:15,99,QUEENS,2024-01-02
`
	path := writeTempCSV(t, "collisions.csv", content)

	src, err := NewCollisionCSV(path)
	require.NoError(t, err)
	defer src.Close()

	got := collectCollisions(t, src)
	require.Len(t, got, 1)
	assert.Equal(t, "99", got[0].CollisionID)
	assert.Equal(t, "QUEENS", got[0].Borough)
	assert.Equal(t, "9:15", got[0].CrashTime)
}

func TestCollisionCSVMissingIDColumn(t *testing.T) {
	path := writeTempCSV(t, "bad.csv", "crash_date,crash_time\n2023-01-01,0:00\n")

	_, err := NewCollisionCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision_id")
}

func TestCollisionCSVContextCancellation(t *testing.T) {
	content := `collision_id,crash_date,crash_time
1,2023-01-01,0:00
2,2023-01-01,0:01
`
	path := writeTempCSV(t, "collisions.csv", content)

	src, err := NewCollisionCSV(path)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered channel with no reader: Stream must bail out on ctx.
	ch := make(chan records.RawCollision)
	err = src.Stream(ctx, ch)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWeatherCSVStream(t *testing.T) {
	content := `timestamp,borough,temperature_2m,precipitation,visibility,rain,showers,snowfall,wind_speed_10m
2023-07-15T12:00,BROOKLYN,28.456,0.0,24100,0.0,0.0,0.0,12.331
2023-12-01T06:00,BRONX,-1.2,6.5,800,5.0,1.5,0.0,45.0
`
	path := writeTempCSV(t, "weather.csv", content)

	src, err := NewWeatherCSV(path)
	require.NoError(t, err)
	defer src.Close()

	ch := make(chan records.RawWeather, 10)
	require.NoError(t, src.Stream(context.Background(), ch))
	close(ch)

	var got []records.RawWeather
	for raw := range ch {
		got = append(got, raw)
	}
	require.Len(t, got, 2)

	assert.Equal(t, "2023-07-15T12:00", got[0].TimestampUTC)
	assert.Equal(t, "BROOKLYN", got[0].Borough)
	assert.Equal(t, "28.456", got[0].Temperature2M)
	assert.Equal(t, "45.0", got[1].WindSpeed10M)
}

func TestWeatherCSVMissingTimestampColumn(t *testing.T) {
	path := writeTempCSV(t, "bad.csv", "borough,temperature_2m\nQUEENS,20\n")

	_, err := NewWeatherCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}
