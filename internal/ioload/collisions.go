package ioload

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/nycsafety/colldb/pkg/records"
	"github.com/nycsafety/colldb/pkg/schema"
)

// collisionKeys carries the surrogate keys resolved for one collision.
type collisionKeys struct {
	DatetimeID  int64
	LocationID  int64
	ConditionID sql.NullInt32
	FactorIDs   [records.SlotCount]sql.NullInt32
	VehicleIDs  [records.SlotCount]sql.NullInt32
}

// resolveCollisionKeys resolves every dimension a collision references.
// A failure here rejects the record: datetime and location are NOT NULL
// foreign keys.
func (l *loader) resolveCollisionKeys(
	ctx context.Context,
	c records.Collision,
) (collisionKeys, error) {
	var keys collisionKeys
	var err error

	keys.DatetimeID, err = l.resolver.ResolveDateTime(ctx, c.CrashedAt)
	if err != nil {
		return keys, err
	}

	keys.LocationID, err = l.resolver.ResolveCollisionLocation(ctx, c)
	if err != nil {
		return keys, err
	}

	keys.ConditionID, err = l.resolver.LookupCollisionCondition(ctx, c.CrashedAt, c.Borough)
	if err != nil {
		return keys, err
	}

	for i := 0; i < records.SlotCount; i++ {
		if code := c.ContributingFactors[i]; code != "" {
			id, err := l.resolver.ResolveFactor(ctx, code)
			if err != nil {
				return keys, err
			}
			keys.FactorIDs[i] = sql.NullInt32{Int32: id, Valid: true}
		}

		// A slot occupied by a factor but missing its vehicle code maps
		// to the designated UNKNOWN type; fully empty slots stay NULL.
		code := c.VehicleTypes[i]
		if code == "" && c.ContributingFactors[i] != "" {
			code = records.UnknownVehicleType
		}
		if code != "" {
			id, err := l.resolver.ResolveVehicleType(ctx, code)
			if err != nil {
				return keys, err
			}
			keys.VehicleIDs[i] = sql.NullInt32{Int32: id, Valid: true}
		}
	}

	return keys, nil
}

// assembleCollisionFact derives the fact row from a validated record
// and its resolved keys. Returned warnings report source totals that
// disagreed with the per-class sums; the computed sums win.
func assembleCollisionFact(
	c records.Collision,
	keys collisionKeys,
	th config.ThresholdsConfig,
) (schema.CollisionFact, []string) {
	var warnings []string

	totals := derive.ReconcileInjuries(
		c.PedestriansInjured, c.CyclistsInjured, c.MotoristsInjured,
		c.PedestriansKilled, c.CyclistsKilled, c.MotoristsKilled,
		c.SuppliedInjured, c.SuppliedKilled,
	)
	if totals.InjuredMismatch {
		warnings = append(warnings, fmt.Sprintf(
			"collision %d: persons_injured %d disagrees with subtotals %d",
			c.ID, c.SuppliedInjured, totals.PersonsInjured))
	}
	if totals.KilledMismatch {
		warnings = append(warnings, fmt.Sprintf(
			"collision %d: persons_killed %d disagrees with subtotals %d",
			c.ID, c.SuppliedKilled, totals.PersonsKilled))
	}

	fact := schema.CollisionFact{
		CollisionID: c.ID,
		DatetimeID:  keys.DatetimeID,
		LocationID:  keys.LocationID,
		ConditionID: keys.ConditionID,

		FactorID1: keys.FactorIDs[0],
		FactorID2: keys.FactorIDs[1],
		FactorID3: keys.FactorIDs[2],
		FactorID4: keys.FactorIDs[3],
		FactorID5: keys.FactorIDs[4],

		VehicleTypeID1: keys.VehicleIDs[0],
		VehicleTypeID2: keys.VehicleIDs[1],
		VehicleTypeID3: keys.VehicleIDs[2],
		VehicleTypeID4: keys.VehicleIDs[3],
		VehicleTypeID5: keys.VehicleIDs[4],

		PedestriansInjured: c.PedestriansInjured,
		PedestriansKilled:  c.PedestriansKilled,
		CyclistsInjured:    c.CyclistsInjured,
		CyclistsKilled:     c.CyclistsKilled,
		MotoristsInjured:   c.MotoristsInjured,
		MotoristsKilled:    c.MotoristsKilled,

		PersonsInjured:   totals.PersonsInjured,
		PersonsKilled:    totals.PersonsKilled,
		TotalInvolved:    totals.TotalInvolved,
		NumberOfVehicles: c.NumberOfVehicles,

		HasInjuries:   totals.PersonsInjured > 0,
		HasFatalities: totals.PersonsKilled > 0,
		SeverityLevel: derive.SeverityLevel(
			totals.PersonsInjured, totals.PersonsKilled,
			c.NumberOfVehicles, th.SevereInjuries,
		),
	}

	return fact, warnings
}

// collisionParamCount is the number of bind parameters one collision
// row contributes to a batch insert. PostgreSQL caps statements at
// 65535 parameters.
const collisionParamCount = 27

// dedupeCollisions keeps the last occurrence of each collision_id.
// ON CONFLICT DO UPDATE cannot touch the same row twice in one
// statement, and sources do repeat identifiers across extract windows.
func dedupeCollisions(facts []schema.CollisionFact) []schema.CollisionFact {
	seen := make(map[int64]int, len(facts))
	result := make([]schema.CollisionFact, 0, len(facts))

	for _, f := range facts {
		if i, ok := seen[f.CollisionID]; ok {
			result[i] = f
			continue
		}
		seen[f.CollisionID] = len(result)
		result = append(result, f)
	}
	return result
}

// upsertCollisions writes one batch of collision facts. Re-ingesting a
// collision_id replaces its measures and advances updated_at;
// created_at stays.
func upsertCollisions(
	ctx context.Context,
	pool *pgxpool.Pool,
	facts []schema.CollisionFact,
) error {
	facts = dedupeCollisions(facts)
	if len(facts) == 0 {
		return nil
	}

	var valueStrings []string
	var valueArgs []any
	argIdx := 1

	for _, f := range facts {
		placeholders := make([]string, collisionParamCount)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", argIdx+i)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")
		argIdx += collisionParamCount

		valueArgs = append(valueArgs,
			f.CollisionID, f.DatetimeID, f.LocationID, f.ConditionID,
			f.FactorID1, f.FactorID2, f.FactorID3, f.FactorID4, f.FactorID5,
			f.VehicleTypeID1, f.VehicleTypeID2, f.VehicleTypeID3,
			f.VehicleTypeID4, f.VehicleTypeID5,
			f.PedestriansInjured, f.PedestriansKilled,
			f.CyclistsInjured, f.CyclistsKilled,
			f.MotoristsInjured, f.MotoristsKilled,
			f.PersonsInjured, f.PersonsKilled, f.TotalInvolved,
			f.NumberOfVehicles, f.HasInjuries, f.HasFatalities,
			f.SeverityLevel,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO fact_collisions
			(collision_id, datetime_id, location_id, condition_id,
			 factor_id_1, factor_id_2, factor_id_3, factor_id_4, factor_id_5,
			 vehicle_type_id_1, vehicle_type_id_2, vehicle_type_id_3,
			 vehicle_type_id_4, vehicle_type_id_5,
			 pedestrians_injured, pedestrians_killed,
			 cyclists_injured, cyclists_killed,
			 motorists_injured, motorists_killed,
			 persons_injured, persons_killed, total_involved,
			 number_of_vehicles, has_injuries, has_fatalities,
			 severity_level)
		VALUES %s
		ON CONFLICT (collision_id) DO UPDATE SET
			datetime_id = EXCLUDED.datetime_id,
			location_id = EXCLUDED.location_id,
			condition_id = EXCLUDED.condition_id,
			factor_id_1 = EXCLUDED.factor_id_1,
			factor_id_2 = EXCLUDED.factor_id_2,
			factor_id_3 = EXCLUDED.factor_id_3,
			factor_id_4 = EXCLUDED.factor_id_4,
			factor_id_5 = EXCLUDED.factor_id_5,
			vehicle_type_id_1 = EXCLUDED.vehicle_type_id_1,
			vehicle_type_id_2 = EXCLUDED.vehicle_type_id_2,
			vehicle_type_id_3 = EXCLUDED.vehicle_type_id_3,
			vehicle_type_id_4 = EXCLUDED.vehicle_type_id_4,
			vehicle_type_id_5 = EXCLUDED.vehicle_type_id_5,
			pedestrians_injured = EXCLUDED.pedestrians_injured,
			pedestrians_killed = EXCLUDED.pedestrians_killed,
			cyclists_injured = EXCLUDED.cyclists_injured,
			cyclists_killed = EXCLUDED.cyclists_killed,
			motorists_injured = EXCLUDED.motorists_injured,
			motorists_killed = EXCLUDED.motorists_killed,
			persons_injured = EXCLUDED.persons_injured,
			persons_killed = EXCLUDED.persons_killed,
			total_involved = EXCLUDED.total_involved,
			number_of_vehicles = EXCLUDED.number_of_vehicles,
			has_injuries = EXCLUDED.has_injuries,
			has_fatalities = EXCLUDED.has_fatalities,
			severity_level = EXCLUDED.severity_level,
			updated_at = NOW()`,
		strings.Join(valueStrings, ", "),
	)

	if _, err := pool.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to upsert collision facts batch: %w", err)
	}
	return nil
}

// collisionBatchSize caps a batch by both the configured size and the
// parameter limit.
func collisionBatchSize(cfg *config.Config) int {
	const maxRows = 65535 / collisionParamCount

	size := cfg.Database.BatchSize
	if size > maxRows {
		size = maxRows
	}
	return size
}
