// Package schema provides database schema models for colldb.
// The star schema mirrors the NYC traffic-safety warehouse: deduplicated
// dimension tables keyed by natural keys, fact tables keyed by external
// identifiers, and a recomputable hourly rollup.
package schema

import (
	"database/sql"
	"time"
)

// DDLGenerator defines how Go models generate PostgreSQL DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	// Returns empty slice if no indexes needed.
	IndexDDL() []string

	// TableName returns the PostgreSQL table name for this model.
	TableName() string
}

// Severity levels for collision facts, ordered from benign to fatal.
const (
	SeverityNone     = "NONE"
	SeverityMinor    = "MINOR"
	SeverityModerate = "MODERATE"
	SeveritySevere   = "SEVERE"
	SeverityFatal    = "FATAL"
)

// Run-log stage statuses.
const (
	StatusStarted   = "STARTED"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// DateTimeDim is the calendar/time-bucket dimension. One row per distinct
// NYC-local timestamp at minute granularity; datetime_nyc is the natural
// key backing dimension deduplication.
type DateTimeDim struct {
	// DatetimeID is the surrogate key.
	DatetimeID int64 `db:"datetime_id" ddl:"BIGSERIAL PRIMARY KEY" gorm:"column:datetime_id;primaryKey;autoIncrement"`

	// DatetimeNYC is the NYC-local timestamp, unique per row.
	DatetimeNYC time.Time `db:"datetime_nyc" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL UNIQUE" gorm:"column:datetime_nyc;uniqueIndex;not null"`

	// DatetimeUTC is the same instant in UTC.
	DatetimeUTC time.Time `db:"datetime_utc" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL" gorm:"column:datetime_utc;not null"`

	// DateNYC is the NYC-local calendar date.
	DateNYC time.Time `db:"date_nyc" ddl:"DATE NOT NULL" gorm:"column:date_nyc;not null"`

	// Hour is the NYC-local hour, 0-23.
	Hour int `db:"hour" ddl:"SMALLINT NOT NULL" gorm:"column:hour;not null"`

	// DayOfWeek is the English day name (Monday..Sunday).
	DayOfWeek string `db:"day_of_week" ddl:"VARCHAR(9) NOT NULL" gorm:"column:day_of_week;size:9;not null"`

	// DayOfMonth is 1-31.
	DayOfMonth int `db:"day_of_month" ddl:"SMALLINT NOT NULL" gorm:"column:day_of_month;not null"`

	// Month is 1-12.
	Month int `db:"month" ddl:"SMALLINT NOT NULL" gorm:"column:month;not null"`

	// Year is the four digit year.
	Year int `db:"year" ddl:"SMALLINT NOT NULL" gorm:"column:year;not null"`

	// Quarter is 1-4.
	Quarter int `db:"quarter" ddl:"SMALLINT NOT NULL" gorm:"column:quarter;not null"`

	// Season is WINTER, SPRING, SUMMER or FALL.
	Season string `db:"season" ddl:"VARCHAR(6) NOT NULL" gorm:"column:season;size:6;not null"`

	// IsWeekend is true for Saturday and Sunday.
	IsWeekend bool `db:"is_weekend" ddl:"BOOLEAN NOT NULL" gorm:"column:is_weekend;not null"`

	// IsRushHour is true for NYC-local hours 7-9 and 16-19.
	IsRushHour bool `db:"is_rush_hour" ddl:"BOOLEAN NOT NULL" gorm:"column:is_rush_hour;not null"`

	// IsNight is true for NYC-local hours 20:00 through 06:00 inclusive.
	IsNight bool `db:"is_night" ddl:"BOOLEAN NOT NULL" gorm:"column:is_night;not null"`
}

// LocationDim is the place dimension. Rows with coordinates are
// deduplicated on the (latitude, longitude) pair; coordinate-less rows on
// (borough, on_street_name). The two populations never merge.
type LocationDim struct {
	// LocationID is the surrogate key.
	LocationID int64 `db:"location_id" ddl:"BIGSERIAL PRIMARY KEY" gorm:"column:location_id;primaryKey;autoIncrement"`

	// Borough is the normalized (upper-case) borough name, UNKNOWN when
	// the source record had none.
	Borough string `db:"borough" ddl:"VARCHAR(13) NOT NULL" gorm:"column:borough;size:13;not null"`

	// ZipCode is the five digit postal code, empty when absent.
	ZipCode string `db:"zip_code" ddl:"VARCHAR(10)" gorm:"column:zip_code;size:10"`

	// Latitude, rounded to 9 decimal places. NULL for coordinate-less rows.
	Latitude sql.NullFloat64 `db:"latitude" ddl:"DOUBLE PRECISION" gorm:"column:latitude"`

	// Longitude, rounded to 9 decimal places. NULL for coordinate-less rows.
	Longitude sql.NullFloat64 `db:"longitude" ddl:"DOUBLE PRECISION" gorm:"column:longitude"`

	// OnStreetName is the street the collision occurred on.
	OnStreetName string `db:"on_street_name" ddl:"VARCHAR(255)" gorm:"column:on_street_name;size:255"`

	// OffStreetName is the off-street location description.
	OffStreetName string `db:"off_street_name" ddl:"VARCHAR(255)" gorm:"column:off_street_name;size:255"`

	// CrossStreetName is the nearest cross street.
	CrossStreetName string `db:"cross_street_name" ddl:"VARCHAR(255)" gorm:"column:cross_street_name;size:255"`
}

// VehicleTypeDim is the vehicle-type dimension keyed by the raw type code.
type VehicleTypeDim struct {
	// VehicleTypeID is the surrogate key.
	VehicleTypeID int32 `db:"vehicle_type_id" ddl:"SERIAL PRIMARY KEY" gorm:"column:vehicle_type_id;primaryKey;autoIncrement"`

	// TypeCode is the raw vehicle type string from the source, the
	// natural key. The designated UNKNOWN code absorbs blank values.
	TypeCode string `db:"type_code" ddl:"VARCHAR(100) NOT NULL UNIQUE" gorm:"column:type_code;size:100;uniqueIndex;not null"`

	// Category groups codes: PASSENGER, TRUCK, BUS, BICYCLE, MOTORCYCLE,
	// EMERGENCY or OTHER.
	Category string `db:"category" ddl:"VARCHAR(50) NOT NULL" gorm:"column:category;size:50;not null"`

	// IsMotorized is false for bicycles and similar.
	IsMotorized bool `db:"is_motorized" ddl:"BOOLEAN NOT NULL" gorm:"column:is_motorized;not null"`
}

// ContributingFactorDim is the contributing-factor dimension keyed by the
// raw factor code.
type ContributingFactorDim struct {
	// FactorID is the surrogate key.
	FactorID int32 `db:"factor_id" ddl:"SERIAL PRIMARY KEY" gorm:"column:factor_id;primaryKey;autoIncrement"`

	// FactorCode is the raw contributing factor string, the natural key.
	FactorCode string `db:"factor_code" ddl:"VARCHAR(100) NOT NULL UNIQUE" gorm:"column:factor_code;size:100;uniqueIndex;not null"`

	// Severity is HIGH, MEDIUM or LOW.
	Severity string `db:"severity" ddl:"VARCHAR(10) NOT NULL" gorm:"column:severity;size:10;not null"`

	// IsPreventable is true for driver-behavior factors.
	IsPreventable bool `db:"is_preventable" ddl:"BOOLEAN NOT NULL" gorm:"column:is_preventable;not null"`
}

// WeatherConditionDim is the weather-condition dimension keyed by the
// (category, severity) pair.
type WeatherConditionDim struct {
	// ConditionID is the surrogate key.
	ConditionID int32 `db:"condition_id" ddl:"SERIAL PRIMARY KEY" gorm:"column:condition_id;primaryKey;autoIncrement"`

	// Category is CLEAR, RAIN, SNOW, FOG or WIND.
	Category string `db:"category" ddl:"VARCHAR(10) NOT NULL" gorm:"column:category;size:10;uniqueIndex:uq_weather_condition;not null"`

	// Severity is LIGHT, MODERATE, HEAVY or SEVERE.
	Severity string `db:"severity" ddl:"VARCHAR(10) NOT NULL" gorm:"column:severity;size:10;uniqueIndex:uq_weather_condition;not null"`

	// SafetyScore is 0-100, lower meaning more dangerous driving weather.
	SafetyScore int16 `db:"safety_score" ddl:"SMALLINT NOT NULL" gorm:"column:safety_score;not null"`
}

// CollisionFact is one collision event. The external collision_id is both
// the natural key and the primary key; re-ingesting the same identifier
// updates the row in place.
type CollisionFact struct {
	// CollisionID is the external collision identifier from NYC Open Data.
	CollisionID int64 `db:"collision_id" ddl:"BIGINT PRIMARY KEY" gorm:"column:collision_id;primaryKey"`

	// DatetimeID references dim_datetime.
	DatetimeID int64 `db:"datetime_id" ddl:"BIGINT NOT NULL REFERENCES dim_datetime(datetime_id)" gorm:"column:datetime_id;not null;index"`

	// LocationID references dim_location.
	LocationID int64 `db:"location_id" ddl:"BIGINT NOT NULL REFERENCES dim_location(location_id)" gorm:"column:location_id;not null;index"`

	// ConditionID references dim_weather_condition when a weather reading
	// for the same hour and borough was available.
	ConditionID sql.NullInt32 `db:"condition_id" ddl:"INT REFERENCES dim_weather_condition(condition_id)" gorm:"column:condition_id"`

	// FactorID1..FactorID5 are ordered contributing-factor slots. Slot
	// order is externally meaningful; a NULL slot does not imply later
	// slots are NULL.
	FactorID1 sql.NullInt32 `db:"factor_id_1" ddl:"INT REFERENCES dim_contributing_factor(factor_id)" gorm:"column:factor_id_1"`
	FactorID2 sql.NullInt32 `db:"factor_id_2" ddl:"INT REFERENCES dim_contributing_factor(factor_id)" gorm:"column:factor_id_2"`
	FactorID3 sql.NullInt32 `db:"factor_id_3" ddl:"INT REFERENCES dim_contributing_factor(factor_id)" gorm:"column:factor_id_3"`
	FactorID4 sql.NullInt32 `db:"factor_id_4" ddl:"INT REFERENCES dim_contributing_factor(factor_id)" gorm:"column:factor_id_4"`
	FactorID5 sql.NullInt32 `db:"factor_id_5" ddl:"INT REFERENCES dim_contributing_factor(factor_id)" gorm:"column:factor_id_5"`

	// VehicleTypeID1..VehicleTypeID5 are ordered vehicle-type slots.
	VehicleTypeID1 sql.NullInt32 `db:"vehicle_type_id_1" ddl:"INT REFERENCES dim_vehicle_type(vehicle_type_id)" gorm:"column:vehicle_type_id_1"`
	VehicleTypeID2 sql.NullInt32 `db:"vehicle_type_id_2" ddl:"INT REFERENCES dim_vehicle_type(vehicle_type_id)" gorm:"column:vehicle_type_id_2"`
	VehicleTypeID3 sql.NullInt32 `db:"vehicle_type_id_3" ddl:"INT REFERENCES dim_vehicle_type(vehicle_type_id)" gorm:"column:vehicle_type_id_3"`
	VehicleTypeID4 sql.NullInt32 `db:"vehicle_type_id_4" ddl:"INT REFERENCES dim_vehicle_type(vehicle_type_id)" gorm:"column:vehicle_type_id_4"`
	VehicleTypeID5 sql.NullInt32 `db:"vehicle_type_id_5" ddl:"INT REFERENCES dim_vehicle_type(vehicle_type_id)" gorm:"column:vehicle_type_id_5"`

	// Per-class injury and fatality counts.
	PedestriansInjured int `db:"pedestrians_injured" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:pedestrians_injured;not null"`
	PedestriansKilled  int `db:"pedestrians_killed" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:pedestrians_killed;not null"`
	CyclistsInjured    int `db:"cyclists_injured" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:cyclists_injured;not null"`
	CyclistsKilled     int `db:"cyclists_killed" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:cyclists_killed;not null"`
	MotoristsInjured   int `db:"motorists_injured" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:motorists_injured;not null"`
	MotoristsKilled    int `db:"motorists_killed" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:motorists_killed;not null"`

	// PersonsInjured is the sum of the three injured subtotals.
	PersonsInjured int `db:"persons_injured" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:persons_injured;not null"`

	// PersonsKilled is the sum of the three killed subtotals.
	PersonsKilled int `db:"persons_killed" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:persons_killed;not null"`

	// TotalInvolved is persons_injured + persons_killed.
	TotalInvolved int `db:"total_involved" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:total_involved;not null"`

	// NumberOfVehicles is how many vehicles were involved.
	NumberOfVehicles int `db:"number_of_vehicles" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:number_of_vehicles;not null"`

	// HasInjuries is persons_injured > 0.
	HasInjuries bool `db:"has_injuries" ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"column:has_injuries;not null"`

	// HasFatalities is persons_killed > 0.
	HasFatalities bool `db:"has_fatalities" ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"column:has_fatalities;not null"`

	// SeverityLevel is NONE, MINOR, MODERATE, SEVERE or FATAL.
	SeverityLevel string `db:"severity_level" ddl:"VARCHAR(8) NOT NULL" gorm:"column:severity_level;size:8;not null"`

	// CreatedAt is set on first insert and never changes.
	CreatedAt time.Time `db:"created_at" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT NOW()" gorm:"column:created_at;not null"`

	// UpdatedAt advances on every upsert of this collision_id.
	UpdatedAt time.Time `db:"updated_at" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT NOW()" gorm:"column:updated_at;not null"`
}

// WeatherFact is one hourly weather reading for a borough. The
// (datetime_id, location_id) pair is the natural key.
type WeatherFact struct {
	// WeatherID is the surrogate key.
	WeatherID int64 `db:"weather_id" ddl:"BIGSERIAL PRIMARY KEY" gorm:"column:weather_id;primaryKey;autoIncrement"`

	// DatetimeID references dim_datetime.
	DatetimeID int64 `db:"datetime_id" ddl:"BIGINT NOT NULL REFERENCES dim_datetime(datetime_id)" gorm:"column:datetime_id;uniqueIndex:uq_weather_reading;not null"`

	// LocationID references dim_location.
	LocationID int64 `db:"location_id" ddl:"BIGINT NOT NULL REFERENCES dim_location(location_id)" gorm:"column:location_id;uniqueIndex:uq_weather_reading;not null"`

	// Temperature2M is air temperature at 2 meters, Celsius.
	Temperature2M float64 `db:"temperature_2m" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:temperature_2m;not null"`

	// Precipitation is total hourly precipitation, mm.
	Precipitation float64 `db:"precipitation" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:precipitation;not null"`

	// Visibility in meters, rounded to the nearest 100.
	Visibility float64 `db:"visibility" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:visibility;not null"`

	// Rain is liquid rain, mm.
	Rain float64 `db:"rain" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:rain;not null"`

	// Showers is convective rain, mm.
	Showers float64 `db:"showers" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:showers;not null"`

	// Snowfall in cm.
	Snowfall float64 `db:"snowfall" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:snowfall;not null"`

	// WindSpeed10M is wind speed at 10 meters, km/h.
	WindSpeed10M float64 `db:"wind_speed_10m" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:wind_speed_10m;not null"`

	// IsAdverseWeather is derived from the configured visibility,
	// precipitation and wind thresholds.
	IsAdverseWeather bool `db:"is_adverse_weather" ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"column:is_adverse_weather;not null"`

	// CreatedAt is set on first insert and never changes.
	CreatedAt time.Time `db:"created_at" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT NOW()" gorm:"column:created_at;not null"`

	// UpdatedAt advances on every upsert of this reading.
	UpdatedAt time.Time `db:"updated_at" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT NOW()" gorm:"column:updated_at;not null"`
}

// HourlyStat is the per-hour, per-location rollup over collision and
// weather facts. Rows are never authored directly; the aggregator
// replaces them wholesale.
type HourlyStat struct {
	// StatID is the surrogate key.
	StatID int64 `db:"stat_id" ddl:"BIGSERIAL PRIMARY KEY" gorm:"column:stat_id;primaryKey;autoIncrement"`

	// DatetimeID references dim_datetime.
	DatetimeID int64 `db:"datetime_id" ddl:"BIGINT NOT NULL REFERENCES dim_datetime(datetime_id)" gorm:"column:datetime_id;uniqueIndex:uq_hourly_stat;not null"`

	// LocationID references dim_location.
	LocationID int64 `db:"location_id" ddl:"BIGINT NOT NULL REFERENCES dim_location(location_id)" gorm:"column:location_id;uniqueIndex:uq_hourly_stat;not null"`

	// TotalCollisions is the number of collision facts for the key.
	TotalCollisions int `db:"total_collisions" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:total_collisions;not null"`

	// TotalInjuries sums persons_injured over the key's collisions.
	TotalInjuries int `db:"total_injuries" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:total_injuries;not null"`

	// TotalFatalities sums persons_killed over the key's collisions.
	TotalFatalities int `db:"total_fatalities" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:total_fatalities;not null"`

	// Per-class injury subtotals.
	PedestrianInjuries int `db:"pedestrian_injuries" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:pedestrian_injuries;not null"`
	CyclistInjuries    int `db:"cyclist_injuries" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:cyclist_injuries;not null"`
	MotoristInjuries   int `db:"motorist_injuries" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:motorist_injuries;not null"`

	// Weather measurement rollups; NULL when the key has no weather fact.
	AvgTemperature     sql.NullFloat64 `db:"avg_temperature" ddl:"DOUBLE PRECISION" gorm:"column:avg_temperature"`
	MinTemperature     sql.NullFloat64 `db:"min_temperature" ddl:"DOUBLE PRECISION" gorm:"column:min_temperature"`
	MaxTemperature     sql.NullFloat64 `db:"max_temperature" ddl:"DOUBLE PRECISION" gorm:"column:max_temperature"`
	TotalPrecipitation sql.NullFloat64 `db:"total_precipitation" ddl:"DOUBLE PRECISION" gorm:"column:total_precipitation"`
	AvgVisibility      sql.NullFloat64 `db:"avg_visibility" ddl:"DOUBLE PRECISION" gorm:"column:avg_visibility"`
	MaxWindSpeed       sql.NullFloat64 `db:"max_wind_speed" ddl:"DOUBLE PRECISION" gorm:"column:max_wind_speed"`

	// InjuryRatePerCollision is total_injuries / total_collisions, 0 when
	// there are no collisions.
	InjuryRatePerCollision float64 `db:"injury_rate_per_collision" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:injury_rate_per_collision;not null"`

	// FatalityRatePerCollision is total_fatalities / total_collisions, 0
	// when there are no collisions.
	FatalityRatePerCollision float64 `db:"fatality_rate_per_collision" ddl:"DOUBLE PRECISION NOT NULL DEFAULT 0" gorm:"column:fatality_rate_per_collision;not null"`

	// IsHighRiskHour is derived from the configured rate thresholds.
	IsHighRiskHour bool `db:"is_high_risk_hour" ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"column:is_high_risk_hour;not null"`

	// ComputedAt records when this rollup was last rebuilt.
	ComputedAt time.Time `db:"computed_at" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT NOW()" gorm:"column:computed_at;not null"`
}

// RunLog is an append-only record of pipeline stage transitions keyed by
// (run_id, stage). Rows are inserted, never updated.
type RunLog struct {
	// LogID is the surrogate key.
	LogID int64 `db:"log_id" ddl:"BIGSERIAL PRIMARY KEY" gorm:"column:log_id;primaryKey;autoIncrement"`

	// RunID is the opaque UUID identifying one pipeline run.
	RunID string `db:"run_id" ddl:"UUID NOT NULL" gorm:"column:run_id;size:36;index:idx_run_log_run_stage;not null"`

	// Stage names the processing stage: load_collisions, load_weather,
	// aggregate.
	Stage string `db:"stage" ddl:"VARCHAR(20) NOT NULL" gorm:"column:stage;size:20;index:idx_run_log_run_stage;not null"`

	// Status is STARTED, SUCCEEDED or FAILED.
	Status string `db:"status" ddl:"VARCHAR(9) NOT NULL" gorm:"column:status;size:9;not null"`

	// RecordsRead counts raw records consumed from the source.
	RecordsRead int `db:"records_read" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:records_read;not null"`

	// RecordsLoaded counts facts upserted.
	RecordsLoaded int `db:"records_loaded" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:records_loaded;not null"`

	// RecordsRejected counts malformed records skipped.
	RecordsRejected int `db:"records_rejected" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:records_rejected;not null"`

	// Warnings counts data-quality warnings emitted.
	Warnings int `db:"warnings" ddl:"INT NOT NULL DEFAULT 0" gorm:"column:warnings;not null"`

	// Error holds error detail for FAILED rows.
	Error string `db:"error" ddl:"TEXT" gorm:"column:error"`

	// LoggedAt is when the transition happened.
	LoggedAt time.Time `db:"logged_at" ddl:"TIMESTAMP WITHOUT TIME ZONE NOT NULL DEFAULT NOW()" gorm:"column:logged_at;not null"`
}
