package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from struct tags.
func generateDDL(model interface{}, tableName string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %s %s", dbTag, ddlTag))
		}
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))

	return ddl
}

// DateTimeDim DDL methods
func (d DateTimeDim) TableDDL() string {
	return generateDDL(d, "dim_datetime")
}

func (d DateTimeDim) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_dim_datetime_date ON dim_datetime(date_nyc);",
		"CREATE INDEX IF NOT EXISTS idx_dim_datetime_hour ON dim_datetime(hour);",
	}
}

func (d DateTimeDim) TableName() string {
	return "dim_datetime"
}

// LocationDim DDL methods
func (l LocationDim) TableDDL() string {
	return generateDDL(l, "dim_location")
}

// IndexDDL declares the two dedup populations as partial unique indexes:
// coordinate-bearing rows are unique on the coordinate pair, coordinate-less
// rows on (borough, on_street_name). The loader's ON CONFLICT targets
// depend on both existing.
func (l LocationDim) IndexDDL() []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_location_coords
    ON dim_location(latitude, longitude)
    WHERE latitude IS NOT NULL AND longitude IS NOT NULL;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_location_borough_street
    ON dim_location(borough, on_street_name)
    WHERE latitude IS NULL;`,
		"CREATE INDEX IF NOT EXISTS idx_dim_location_borough ON dim_location(borough);",
	}
}

func (l LocationDim) TableName() string {
	return "dim_location"
}

// VehicleTypeDim DDL methods
func (v VehicleTypeDim) TableDDL() string {
	return generateDDL(v, "dim_vehicle_type")
}

func (v VehicleTypeDim) IndexDDL() []string {
	return nil
}

func (v VehicleTypeDim) TableName() string {
	return "dim_vehicle_type"
}

// ContributingFactorDim DDL methods
func (c ContributingFactorDim) TableDDL() string {
	return generateDDL(c, "dim_contributing_factor")
}

func (c ContributingFactorDim) IndexDDL() []string {
	return nil
}

func (c ContributingFactorDim) TableName() string {
	return "dim_contributing_factor"
}

// WeatherConditionDim DDL methods
func (w WeatherConditionDim) TableDDL() string {
	return generateDDL(w, "dim_weather_condition")
}

func (w WeatherConditionDim) IndexDDL() []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_weather_condition
    ON dim_weather_condition(category, severity);`,
	}
}

func (w WeatherConditionDim) TableName() string {
	return "dim_weather_condition"
}

// CollisionFact DDL methods
func (c CollisionFact) TableDDL() string {
	return generateDDL(c, "fact_collisions")
}

func (c CollisionFact) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_fact_collisions_datetime ON fact_collisions(datetime_id);",
		"CREATE INDEX IF NOT EXISTS idx_fact_collisions_location ON fact_collisions(location_id);",
		"CREATE INDEX IF NOT EXISTS idx_fact_collisions_severity ON fact_collisions(severity_level);",
	}
}

func (c CollisionFact) TableName() string {
	return "fact_collisions"
}

// WeatherFact DDL methods
func (w WeatherFact) TableDDL() string {
	return generateDDL(w, "fact_weather")
}

func (w WeatherFact) IndexDDL() []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_weather_reading
    ON fact_weather(datetime_id, location_id);`,
	}
}

func (w WeatherFact) TableName() string {
	return "fact_weather"
}

// HourlyStat DDL methods
func (h HourlyStat) TableDDL() string {
	return generateDDL(h, "agg_hourly_stats")
}

func (h HourlyStat) IndexDDL() []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_hourly_stat
    ON agg_hourly_stats(datetime_id, location_id);`,
		"CREATE INDEX IF NOT EXISTS idx_hourly_stats_high_risk ON agg_hourly_stats(is_high_risk_hour);",
	}
}

func (h HourlyStat) TableName() string {
	return "agg_hourly_stats"
}

// RunLog DDL methods
func (r RunLog) TableDDL() string {
	return generateDDL(r, "etl_run_log")
}

func (r RunLog) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_run_log_run_stage ON etl_run_log(run_id, stage);",
	}
}

func (r RunLog) TableName() string {
	return "etl_run_log"
}
