package schema_test

import (
	"strings"
	"testing"

	"github.com/nycsafety/colldb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDateTimeDimTableDDL tests DDL generation for the datetime dimension
func TestDateTimeDimTableDDL(t *testing.T) {
	d := schema.DateTimeDim{}
	ddl := d.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE dim_datetime")
	assert.Contains(t, ddl, "datetime_id BIGSERIAL PRIMARY KEY")

	// The natural key constraint the resolver depends on
	assert.Contains(t, ddl, "datetime_nyc TIMESTAMP WITHOUT TIME ZONE NOT NULL UNIQUE")

	// Derived bucket columns
	assert.Contains(t, ddl, "hour SMALLINT NOT NULL")
	assert.Contains(t, ddl, "season VARCHAR(6) NOT NULL")
	assert.Contains(t, ddl, "is_weekend BOOLEAN NOT NULL")
	assert.Contains(t, ddl, "is_rush_hour BOOLEAN NOT NULL")
	assert.Contains(t, ddl, "is_night BOOLEAN NOT NULL")
}

func TestDateTimeDimTableName(t *testing.T) {
	assert.Equal(t, "dim_datetime", schema.DateTimeDim{}.TableName())
}

// TestLocationDimIndexDDL verifies the two dedup populations are backed
// by partial unique indexes.
func TestLocationDimIndexDDL(t *testing.T) {
	l := schema.LocationDim{}
	indexes := l.IndexDDL()
	require.NotEmpty(t, indexes)

	all := strings.Join(indexes, "\n")
	assert.Contains(t, all, "uq_location_coords")
	assert.Contains(t, all, "WHERE latitude IS NOT NULL AND longitude IS NOT NULL")
	assert.Contains(t, all, "uq_location_borough_street")
	assert.Contains(t, all, "WHERE latitude IS NULL")
}

func TestVehicleTypeDimTableDDL(t *testing.T) {
	v := schema.VehicleTypeDim{}
	ddl := v.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE dim_vehicle_type")
	assert.Contains(t, ddl, "type_code VARCHAR(100) NOT NULL UNIQUE")
	assert.Contains(t, ddl, "is_motorized BOOLEAN NOT NULL")
}

func TestWeatherConditionDimDDL(t *testing.T) {
	w := schema.WeatherConditionDim{}

	assert.Contains(t, w.TableDDL(), "safety_score SMALLINT NOT NULL")

	all := strings.Join(w.IndexDDL(), "\n")
	assert.Contains(t, all, "uq_weather_condition")
	assert.Contains(t, all, "(category, severity)")
}

// TestCollisionFactTableDDL checks the ordered slot columns and derived
// fields the loader writes.
func TestCollisionFactTableDDL(t *testing.T) {
	c := schema.CollisionFact{}
	ddl := c.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE fact_collisions")
	assert.Contains(t, ddl, "collision_id BIGINT PRIMARY KEY")

	// All five ordered slots exist for both dimensions
	for i := 1; i <= 5; i++ {
		assert.Contains(t, ddl, "factor_id_"+string(rune('0'+i)))
		assert.Contains(t, ddl, "vehicle_type_id_"+string(rune('0'+i)))
	}

	assert.Contains(t, ddl, "total_involved INT NOT NULL DEFAULT 0")
	assert.Contains(t, ddl, "severity_level VARCHAR(8) NOT NULL")
	assert.Contains(t, ddl, "updated_at TIMESTAMP WITHOUT TIME ZONE NOT NULL")
}

func TestWeatherFactIndexDDL(t *testing.T) {
	w := schema.WeatherFact{}
	all := strings.Join(w.IndexDDL(), "\n")

	// One reading per hour per borough
	assert.Contains(t, all, "uq_weather_reading")
	assert.Contains(t, all, "(datetime_id, location_id)")
}

func TestHourlyStatTableDDL(t *testing.T) {
	h := schema.HourlyStat{}
	ddl := h.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE agg_hourly_stats")
	assert.Contains(t, ddl, "injury_rate_per_collision DOUBLE PRECISION NOT NULL DEFAULT 0")
	assert.Contains(t, ddl, "fatality_rate_per_collision DOUBLE PRECISION NOT NULL DEFAULT 0")
	assert.Contains(t, ddl, "is_high_risk_hour BOOLEAN NOT NULL DEFAULT FALSE")

	all := strings.Join(h.IndexDDL(), "\n")
	assert.Contains(t, all, "uq_hourly_stat")
}

func TestRunLogTableDDL(t *testing.T) {
	r := schema.RunLog{}
	ddl := r.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE etl_run_log")
	assert.Contains(t, ddl, "run_id UUID NOT NULL")
	assert.Contains(t, ddl, "status VARCHAR(9) NOT NULL")
}

// TestAllModels ensures every model participates in AutoMigrate and that
// dimensions precede facts so FK creation succeeds.
func TestAllModels(t *testing.T) {
	models := schema.AllModels()
	require.Len(t, models, 9)

	names := make([]string, len(models))
	for i, m := range models {
		gen, ok := m.(schema.DDLGenerator)
		require.True(t, ok, "model %d must implement DDLGenerator", i)
		names[i] = gen.TableName()
	}

	idx := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}

	assert.Less(t, idx("dim_datetime"), idx("fact_collisions"))
	assert.Less(t, idx("dim_location"), idx("fact_weather"))
	assert.Less(t, idx("fact_weather"), idx("agg_hourly_stats"))
}

func TestAllIndexDDL(t *testing.T) {
	all := strings.Join(schema.AllIndexDDL(), "\n")

	assert.Contains(t, all, "uq_location_coords")
	assert.Contains(t, all, "uq_weather_reading")
	assert.Contains(t, all, "uq_hourly_stat")
	assert.Contains(t, all, "idx_run_log_run_stage")
}
