// Package ioload implements the Loader interface: it streams raw
// records from a source, resolves dimensions, derives fact columns and
// upserts facts idempotently on their natural keys. This is an impure
// I/O package.
package ioload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/nycsafety/colldb/pkg/records"
	"github.com/nycsafety/colldb/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// Stage names as recorded in etl_run_log.
const (
	StageLoadCollisions = "load_collisions"
	StageLoadWeather    = "load_weather"
)

// loader implements the lifecycle.Loader interface.
type loader struct {
	operator db.Operator
	cfg      *config.Config
	resolver *resolver
}

// NewLoader creates a Loader backed by the operator's connection pool.
func NewLoader(op db.Operator, cfg *config.Config) lifecycle.Loader {
	return &loader{
		operator: op,
		cfg:      cfg,
		resolver: newResolver(op.Pool()),
	}
}

// collisionResult is one worker's outcome for one raw tuple.
type collisionResult struct {
	fact     schema.CollisionFact
	warnings int
	rejected bool
}

// LoadCollisions runs the collision load stage.
//
// Pipeline:
//
//	Stage 1: reader streams raw tuples -> chIn
//	Stage 2: workers parse, resolve dimensions, derive -> chOut
//	Stage 3: collector batches facts and upserts them
//
// Malformed tuples are rejected individually; the stage only fails on
// source or database errors.
func (l *loader) LoadCollisions(
	ctx context.Context,
	src lifecycle.CollisionSource,
) (*lifecycle.LoadStats, error) {
	runID := uuid.New().String()
	stats := &lifecycle.LoadStats{RunID: runID}

	pool := l.operator.Pool()
	if pool == nil {
		return nil, fmt.Errorf("not connected to database")
	}

	if err := logStage(ctx, pool, runID, StageLoadCollisions, schema.StatusStarted, nil, ""); err != nil {
		return nil, fmt.Errorf("failed to log stage start: %w", err)
	}

	slog.Info("Loading collisions", "run_id", runID, "jobs", l.cfg.JobsNumber)

	chIn := make(chan records.RawCollision)
	chOut := make(chan collisionResult)

	g, gCtx := errgroup.WithContext(ctx)

	// Stage 1: stream raw tuples.
	g.Go(func() error {
		defer close(chIn)
		return src.Stream(gCtx, chIn)
	})

	// Stage 2: parse, resolve, derive.
	var wg sync.WaitGroup
	for i := 0; i < l.cfg.JobsNumber; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return l.collisionWorker(gCtx, chIn, chOut)
		})
	}

	go func() {
		wg.Wait()
		close(chOut)
	}()

	// Stage 3: collect and upsert in batches.
	batchSize := collisionBatchSize(l.cfg)
	g.Go(func() error {
		batch := make([]schema.CollisionFact, 0, batchSize)

		for r := range chOut {
			stats.Read++
			stats.Warnings += r.warnings
			if r.rejected {
				stats.Rejected++
				continue
			}

			batch = append(batch, r.fact)
			if len(batch) >= batchSize {
				if err := upsertCollisions(gCtx, pool, batch); err != nil {
					return err
				}
				stats.Loaded += len(batch)
				batch = batch[:0]
			}
		}

		if len(batch) > 0 {
			if err := upsertCollisions(gCtx, pool, batch); err != nil {
				return err
			}
			stats.Loaded += len(batch)
		}
		return nil
	})

	err := g.Wait()
	stats.Warnings += l.resolver.takeWarnings()
	if err != nil {
		logErr := logStage(ctx, pool, runID, StageLoadCollisions, schema.StatusFailed, stats, err.Error())
		if logErr != nil {
			slog.Error("Failed to log stage failure", "error", logErr)
		}
		return stats, err
	}

	if err := logStage(ctx, pool, runID, StageLoadCollisions, schema.StatusSucceeded, stats, ""); err != nil {
		return stats, fmt.Errorf("failed to log stage success: %w", err)
	}

	slog.Info("Collisions loaded",
		"run_id", runID,
		"read", humanize.Comma(int64(stats.Read)),
		"loaded", humanize.Comma(int64(stats.Loaded)),
		"rejected", humanize.Comma(int64(stats.Rejected)),
		"warnings", humanize.Comma(int64(stats.Warnings)),
	)
	return stats, nil
}

func (l *loader) collisionWorker(
	ctx context.Context,
	chIn <-chan records.RawCollision,
	chOut chan<- collisionResult,
) error {
	for raw := range chIn {
		res := l.processCollision(ctx, raw)
		if res == nil {
			return ctx.Err()
		}

		select {
		case chOut <- *res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// processCollision turns one raw tuple into a result. Parse and
// resolver failures reject the tuple; nil means the context died.
func (l *loader) processCollision(ctx context.Context, raw records.RawCollision) *collisionResult {
	c, warnings, err := raw.Parse()
	if err != nil {
		slog.Debug("Rejected collision record", "error", err)
		return &collisionResult{warnings: len(warnings), rejected: true}
	}

	keys, err := l.resolveCollisionKeys(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Rejected collision record: dimension resolution failed",
			"collision_id", c.ID, "error", err)
		return &collisionResult{warnings: len(warnings), rejected: true}
	}

	fact, factWarnings := assembleCollisionFact(c, keys, l.cfg.Thresholds)
	for _, w := range factWarnings {
		slog.Debug("Data quality warning", "warning", w)
	}

	return &collisionResult{
		fact:     fact,
		warnings: len(warnings) + len(factWarnings),
	}
}

// weatherResult is one worker's outcome for one raw weather tuple.
type weatherResult struct {
	fact     schema.WeatherFact
	warnings int
	rejected bool
}

// LoadWeather runs the weather load stage with the same pipeline shape
// as LoadCollisions. Weather loads should precede collision loads so
// collision facts can attach weather conditions.
func (l *loader) LoadWeather(
	ctx context.Context,
	src lifecycle.WeatherSource,
) (*lifecycle.LoadStats, error) {
	runID := uuid.New().String()
	stats := &lifecycle.LoadStats{RunID: runID}

	pool := l.operator.Pool()
	if pool == nil {
		return nil, fmt.Errorf("not connected to database")
	}

	if err := logStage(ctx, pool, runID, StageLoadWeather, schema.StatusStarted, nil, ""); err != nil {
		return nil, fmt.Errorf("failed to log stage start: %w", err)
	}

	slog.Info("Loading weather", "run_id", runID, "jobs", l.cfg.JobsNumber)

	chIn := make(chan records.RawWeather)
	chOut := make(chan weatherResult)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chIn)
		return src.Stream(gCtx, chIn)
	})

	var wg sync.WaitGroup
	for i := 0; i < l.cfg.JobsNumber; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return l.weatherWorker(gCtx, chIn, chOut)
		})
	}

	go func() {
		wg.Wait()
		close(chOut)
	}()

	batchSize := weatherBatchSize(l.cfg)
	g.Go(func() error {
		batch := make([]schema.WeatherFact, 0, batchSize)

		for r := range chOut {
			stats.Read++
			stats.Warnings += r.warnings
			if r.rejected {
				stats.Rejected++
				continue
			}

			batch = append(batch, r.fact)
			if len(batch) >= batchSize {
				if err := upsertWeather(gCtx, pool, batch); err != nil {
					return err
				}
				stats.Loaded += len(batch)
				batch = batch[:0]
			}
		}

		if len(batch) > 0 {
			if err := upsertWeather(gCtx, pool, batch); err != nil {
				return err
			}
			stats.Loaded += len(batch)
		}
		return nil
	})

	err := g.Wait()
	stats.Warnings += l.resolver.takeWarnings()
	if err != nil {
		logErr := logStage(ctx, pool, runID, StageLoadWeather, schema.StatusFailed, stats, err.Error())
		if logErr != nil {
			slog.Error("Failed to log stage failure", "error", logErr)
		}
		return stats, err
	}

	if err := logStage(ctx, pool, runID, StageLoadWeather, schema.StatusSucceeded, stats, ""); err != nil {
		return stats, fmt.Errorf("failed to log stage success: %w", err)
	}

	slog.Info("Weather readings loaded",
		"run_id", runID,
		"read", humanize.Comma(int64(stats.Read)),
		"loaded", humanize.Comma(int64(stats.Loaded)),
		"rejected", humanize.Comma(int64(stats.Rejected)),
		"warnings", humanize.Comma(int64(stats.Warnings)),
	)
	return stats, nil
}

func (l *loader) weatherWorker(
	ctx context.Context,
	chIn <-chan records.RawWeather,
	chOut chan<- weatherResult,
) error {
	for raw := range chIn {
		var res weatherResult

		w, warnings, err := raw.Parse()
		if err != nil {
			slog.Debug("Rejected weather record", "error", err)
			res = weatherResult{warnings: len(warnings), rejected: true}
		} else {
			datetimeID, locationID, err := l.resolveWeatherKeys(ctx, w)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("Rejected weather record: dimension resolution failed",
					"borough", w.Borough, "error", err)
				res = weatherResult{warnings: len(warnings), rejected: true}
			} else {
				res = weatherResult{
					fact:     assembleWeatherFact(w, datetimeID, locationID, l.cfg.Thresholds),
					warnings: len(warnings),
				}
			}
		}

		select {
		case chOut <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
