// Package ioaggregate implements the Aggregator interface: full-replace
// rebuilds of the hourly rollup from collision and weather facts. This
// is an impure I/O package.
package ioaggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/nycsafety/colldb/pkg/derive"
	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/nycsafety/colldb/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// StageAggregate is the stage name recorded in etl_run_log.
const StageAggregate = "aggregate"

// aggregator implements the lifecycle.Aggregator interface.
type aggregator struct {
	operator db.Operator
	cfg      *config.Config
}

// NewAggregator creates an Aggregator backed by the operator's
// connection pool.
func NewAggregator(op db.Operator, cfg *config.Config) lifecycle.Aggregator {
	return &aggregator{operator: op, cfg: cfg}
}

// statKey is one (datetime, location) rollup key.
type statKey struct {
	datetimeID int64
	locationID int64
}

// Rebuild recomputes the rollup row for one key.
func (a *aggregator) Rebuild(ctx context.Context, datetimeID, locationID int64) error {
	return a.rebuildKey(ctx, statKey{datetimeID, locationID})
}

// rebuildKey replaces the rollup row for one key. The fact reads and
// the DELETE+INSERT share one REPEATABLE READ transaction, so the
// written row reflects a single snapshot of both fact tables and
// readers never observe a missing row.
func (a *aggregator) rebuildKey(ctx context.Context, key statKey) error {
	pool := a.operator.Pool()
	if pool == nil {
		return fmt.Errorf("not connected to database")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	collisions, err := a.collisionFactsFor(ctx, tx, key)
	if err != nil {
		return err
	}
	weather, err := a.weatherFactsFor(ctx, tx, key)
	if err != nil {
		return err
	}

	stat := derive.BuildHourlyStat(
		key.datetimeID, key.locationID,
		collisions, weather,
		a.cfg.Thresholds,
		time.Now().UTC(),
	)

	_, err = tx.Exec(ctx,
		"DELETE FROM agg_hourly_stats WHERE datetime_id = $1 AND location_id = $2",
		key.datetimeID, key.locationID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete stale rollup: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO agg_hourly_stats
			(datetime_id, location_id, total_collisions, total_injuries,
			 total_fatalities, pedestrian_injuries, cyclist_injuries,
			 motorist_injuries, avg_temperature, min_temperature,
			 max_temperature, total_precipitation, avg_visibility,
			 max_wind_speed, injury_rate_per_collision,
			 fatality_rate_per_collision, is_high_risk_hour, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18)`,
		stat.DatetimeID, stat.LocationID, stat.TotalCollisions,
		stat.TotalInjuries, stat.TotalFatalities,
		stat.PedestrianInjuries, stat.CyclistInjuries, stat.MotoristInjuries,
		stat.AvgTemperature, stat.MinTemperature, stat.MaxTemperature,
		stat.TotalPrecipitation, stat.AvgVisibility, stat.MaxWindSpeed,
		stat.InjuryRatePerCollision, stat.FatalityRatePerCollision,
		stat.IsHighRiskHour, stat.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rollup: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rebuild: %w", err)
	}
	return nil
}

func (a *aggregator) collisionFactsFor(ctx context.Context, tx pgx.Tx, key statKey) ([]schema.CollisionFact, error) {
	rows, err := tx.Query(ctx, `
		SELECT persons_injured, persons_killed,
		       pedestrians_injured, cyclists_injured, motorists_injured
		FROM fact_collisions
		WHERE datetime_id = $1 AND location_id = $2`,
		key.datetimeID, key.locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collision facts: %w", err)
	}
	defer rows.Close()

	var facts []schema.CollisionFact
	for rows.Next() {
		var f schema.CollisionFact
		err := rows.Scan(
			&f.PersonsInjured, &f.PersonsKilled,
			&f.PedestriansInjured, &f.CyclistsInjured, &f.MotoristsInjured,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collision fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (a *aggregator) weatherFactsFor(ctx context.Context, tx pgx.Tx, key statKey) ([]schema.WeatherFact, error) {
	rows, err := tx.Query(ctx, `
		SELECT temperature_2m, precipitation, visibility, wind_speed_10m
		FROM fact_weather
		WHERE datetime_id = $1 AND location_id = $2`,
		key.datetimeID, key.locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather facts: %w", err)
	}
	defer rows.Close()

	var facts []schema.WeatherFact
	for rows.Next() {
		var f schema.WeatherFact
		err := rows.Scan(&f.Temperature2M, &f.Precipitation, &f.Visibility, &f.WindSpeed10M)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// RebuildAll recomputes the rollup for every key present in the fact
// tables, fanned out across JobsNumber workers. Each key is rebuilt by
// exactly one worker.
func (a *aggregator) RebuildAll(ctx context.Context) (int, error) {
	pool := a.operator.Pool()
	if pool == nil {
		return 0, fmt.Errorf("not connected to database")
	}

	runID := uuid.New().String()
	if err := a.logStage(ctx, runID, schema.StatusStarted, 0, ""); err != nil {
		return 0, fmt.Errorf("failed to log stage start: %w", err)
	}

	keys, err := a.distinctKeys(ctx)
	if err != nil {
		logErr := a.logStage(ctx, runID, schema.StatusFailed, 0, err.Error())
		if logErr != nil {
			slog.Error("Failed to log stage failure", "error", logErr)
		}
		return 0, err
	}

	slog.Info("Rebuilding hourly rollups",
		"run_id", runID,
		"keys", humanize.Comma(int64(len(keys))),
		"jobs", a.cfg.JobsNumber,
	)

	bar := pb.Full.Start(len(keys))
	bar.Set("prefix", "Rebuilding rollups: ")
	bar.Set(pb.CleanOnFinish, true)

	chKeys := make(chan statKey)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chKeys)
		for _, key := range keys {
			select {
			case chKeys <- key:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
		return nil
	})

	for i := 0; i < a.cfg.JobsNumber; i++ {
		g.Go(func() error {
			for key := range chKeys {
				if err := a.rebuildKey(gCtx, key); err != nil {
					return err
				}
				bar.Increment()
			}
			return nil
		})
	}

	err = g.Wait()
	bar.Finish()

	if err != nil {
		logErr := a.logStage(ctx, runID, schema.StatusFailed, 0, err.Error())
		if logErr != nil {
			slog.Error("Failed to log stage failure", "error", logErr)
		}
		return 0, err
	}

	if err := a.logStage(ctx, runID, schema.StatusSucceeded, len(keys), ""); err != nil {
		return len(keys), fmt.Errorf("failed to log stage success: %w", err)
	}

	slog.Info("Hourly rollups rebuilt",
		"run_id", runID,
		"keys", humanize.Comma(int64(len(keys))),
	)
	return len(keys), nil
}

// distinctKeys lists every (datetime, location) pair that has collision
// or weather facts.
func (a *aggregator) distinctKeys(ctx context.Context) ([]statKey, error) {
	rows, err := a.operator.Pool().Query(ctx, `
		SELECT datetime_id, location_id FROM fact_collisions
		UNION
		SELECT datetime_id, location_id FROM fact_weather`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rollup keys: %w", err)
	}
	defer rows.Close()

	var keys []statKey
	for rows.Next() {
		var key statKey
		if err := rows.Scan(&key.datetimeID, &key.locationID); err != nil {
			return nil, fmt.Errorf("failed to scan rollup key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (a *aggregator) logStage(
	ctx context.Context,
	runID, status string,
	loaded int,
	errDetail string,
) error {
	_, err := a.operator.Pool().Exec(ctx, `
		INSERT INTO etl_run_log
			(run_id, stage, status, records_loaded, error)
		VALUES ($1, $2, $3, $4, $5)`,
		runID, StageAggregate, status, loaded, errDetail,
	)
	return err
}
