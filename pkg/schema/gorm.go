package schema

import (
	"gorm.io/gorm"
)

// AllModels returns all schema models for GORM AutoMigrate.
// Dimensions come first so fact foreign keys resolve during creation.
func AllModels() []interface{} {
	return []interface{}{
		&DateTimeDim{},
		&LocationDim{},
		&VehicleTypeDim{},
		&ContributingFactorDim{},
		&WeatherConditionDim{},
		&CollisionFact{},
		&WeatherFact{},
		&HourlyStat{},
		&RunLog{},
	}
}

// Migrate runs GORM AutoMigrate to create or update schema. It creates
// no foreign key constraints: the REFERENCES clauses in the ddl: tags
// are descriptive, and referential integrity rests on load-time
// dimension resolution, which only hands out surrogate keys it has just
// read or inserted.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

// AllIndexDDL collects the CREATE INDEX statements of every model.
// The partial unique indexes on dim_location cannot be expressed as GORM
// tags, so schema creation executes these after AutoMigrate.
func AllIndexDDL() []string {
	var res []string
	for _, m := range AllModels() {
		if gen, ok := m.(interface{ IndexDDL() []string }); ok {
			res = append(res, gen.IndexDDL()...)
		}
	}
	return res
}
