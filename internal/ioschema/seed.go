package ioschema

import (
	"context"
	"fmt"

	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/nycsafety/colldb/pkg/records"
)

// seedVehicleTypes lists the raw vehicle type codes that appear in the
// vast majority of source records. Codes outside this catalog still get
// dimension rows at load time; seeding just keeps surrogate keys stable
// across databases for the common cases.
var seedVehicleTypes = []string{
	records.UnknownVehicleType,
	"Sedan",
	"Station Wagon/Sport Utility Vehicle",
	"Taxi",
	"Pick-up Truck",
	"Box Truck",
	"Tractor Truck Diesel",
	"Van",
	"Bus",
	"School Bus",
	"Bike",
	"E-Bike",
	"E-Scooter",
	"Motorcycle",
	"Moped",
	"Ambulance",
	"Fire Truck",
	"Garbage or Refuse",
}

// seedFactors lists the common contributing factor codes.
var seedFactors = []string{
	records.UnspecifiedFactor,
	"Driver Inattention/Distraction",
	"Failure to Yield Right-of-Way",
	"Following Too Closely",
	"Unsafe Speed",
	"Traffic Control Disregarded",
	"Alcohol Involvement",
	"Drugs (illegal)",
	"Backing Unsafely",
	"Turning Improperly",
	"Passing or Lane Usage Improper",
	"Driver Inexperience",
	"Fell Asleep",
	"Fatigued/Drowsy",
	"Brakes Defective",
	"Tire Failure/Inadequate",
	"Steering Failure",
	"Pavement Slippery",
	"View Obstructed/Limited",
	"Glare",
	"Obstruction/Debris",
	"Animals Action",
	"Cell Phone (hand-Held)",
	"Aggressive Driving/Road Rage",
}

var weatherCategories = []string{
	derive.WeatherClear,
	derive.WeatherRain,
	derive.WeatherSnow,
	derive.WeatherFog,
	derive.WeatherWind,
}

var weatherSeverities = []string{
	derive.WeatherLight,
	derive.WeatherModerate,
	derive.WeatherHeavy,
	derive.WeatherSevere,
}

// seed inserts the static reference dimensions: the full weather
// condition matrix, the vehicle-type and contributing-factor catalogs,
// and one location row per borough centroid plus the UNKNOWN fallback.
// Every insert is ON CONFLICT DO NOTHING, so re-seeding is a no-op.
func (m *manager) seed(ctx context.Context) error {
	pool := m.operator.Pool()

	for _, cat := range weatherCategories {
		for _, sev := range weatherSeverities {
			_, err := pool.Exec(ctx, `
				INSERT INTO dim_weather_condition (category, severity, safety_score)
				VALUES ($1, $2, $3)
				ON CONFLICT (category, severity) DO NOTHING`,
				cat, sev, derive.SafetyScore(cat, sev),
			)
			if err != nil {
				return fmt.Errorf("seeding weather condition %s/%s: %w", cat, sev, err)
			}
		}
	}

	for _, code := range seedVehicleTypes {
		category, motorized := records.ClassifyVehicleType(code)
		_, err := pool.Exec(ctx, `
			INSERT INTO dim_vehicle_type (type_code, category, is_motorized)
			VALUES ($1, $2, $3)
			ON CONFLICT (type_code) DO NOTHING`,
			code, category, motorized,
		)
		if err != nil {
			return fmt.Errorf("seeding vehicle type %q: %w", code, err)
		}
	}

	for _, code := range seedFactors {
		severity, preventable := records.ClassifyFactor(code)
		_, err := pool.Exec(ctx, `
			INSERT INTO dim_contributing_factor (factor_code, severity, is_preventable)
			VALUES ($1, $2, $3)
			ON CONFLICT (factor_code) DO NOTHING`,
			code, severity, preventable,
		)
		if err != nil {
			return fmt.Errorf("seeding contributing factor %q: %w", code, err)
		}
	}

	// Borough centroid rows anchor weather facts, which carry no street
	// level detail. The conflict target is the coordinate-pair partial
	// index.
	for borough, c := range records.Boroughs {
		_, err := pool.Exec(ctx, `
			INSERT INTO dim_location (borough, latitude, longitude)
			VALUES ($1, $2, $3)
			ON CONFLICT (latitude, longitude)
				WHERE latitude IS NOT NULL AND longitude IS NOT NULL
				DO NOTHING`,
			borough, c.Lat, c.Lon,
		)
		if err != nil {
			return fmt.Errorf("seeding borough location %s: %w", borough, err)
		}
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO dim_location (borough, on_street_name)
		VALUES ($1, '')
		ON CONFLICT (borough, on_street_name)
			WHERE latitude IS NULL
			DO NOTHING`,
		records.UnknownBorough,
	)
	if err != nil {
		return fmt.Errorf("seeding unknown location: %w", err)
	}

	return nil
}
