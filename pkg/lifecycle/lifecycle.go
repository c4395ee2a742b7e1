// Package lifecycle defines the contracts of the warehouse lifecycle
// phases: schema management, fact loading and aggregate rebuilds.
// Implementations live in internal/io* packages.
package lifecycle

import (
	"context"

	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/records"
)

// SchemaManager defines the interface for database schema management.
// It uses GORM AutoMigrate for both initial schema creation and
// migrations, then applies the index DDL GORM cannot express and seeds
// the static reference dimensions. Schema management is idempotent.
type SchemaManager interface {
	// Create creates the initial database schema and seeds reference
	// data. If tables already exist, behavior depends on the caller
	// having confirmed DropAllTables.
	Create(ctx context.Context, cfg *config.Config) error

	// Migrate updates the database schema to the latest version and
	// re-applies index DDL and reference seeds (all idempotent).
	Migrate(ctx context.Context, cfg *config.Config) error
}

// CollisionSource streams raw collision tuples from an extract.
type CollisionSource interface {
	// Stream sends every raw tuple to ch. It does not close ch; the
	// caller owns the channel. Returns on source exhaustion, source
	// error, or context cancellation.
	Stream(ctx context.Context, ch chan<- records.RawCollision) error

	// Close releases the underlying file or database handle.
	Close() error
}

// WeatherSource streams raw weather tuples from an extract.
type WeatherSource interface {
	Stream(ctx context.Context, ch chan<- records.RawWeather) error
	Close() error
}

// LoadStats summarizes one load stage.
type LoadStats struct {
	// RunID is the opaque identifier of the pipeline run.
	RunID string

	// Read counts raw tuples consumed from the source.
	Read int

	// Loaded counts facts upserted.
	Loaded int

	// Rejected counts malformed records skipped individually.
	Rejected int

	// Warnings counts data-quality warnings (mismatched totals,
	// unrecognized codes) that did not block loading.
	Warnings int
}

// Loader ingests raw records: resolves dimensions, computes derived
// fields and upserts facts idempotently on their natural keys.
type Loader interface {
	LoadCollisions(ctx context.Context, src CollisionSource) (*LoadStats, error)
	LoadWeather(ctx context.Context, src WeatherSource) (*LoadStats, error)
}

// Aggregator maintains the hourly rollup. Rebuilds always replace the
// row for a key wholesale, so they are safe to re-run at any time.
type Aggregator interface {
	// Rebuild recomputes the rollup for one (datetime, location) key.
	Rebuild(ctx context.Context, datetimeID, locationID int64) error

	// RebuildAll recomputes the rollup for every key that has collision
	// or weather facts, returning the number of keys rebuilt.
	RebuildAll(ctx context.Context) (int, error)
}
