package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nycsafety/colldb/pkg/config"
)

// Operator defines the interface for basic database management
// operations. It provides connection lifecycle management and exposes
// the pgxpool.Pool for the lifecycle components (SchemaManager, Loader,
// Aggregator) to execute their specialized SQL internally.
//
// The interface stays minimal on purpose: components get the pool for
// transactions, ON CONFLICT upserts and custom queries, while schema
// shape is handled by GORM AutoMigrate via the SchemaManager.
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool for components to execute
	// specialized SQL operations.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any tables in the public
	// schema. Used to decide whether schema creation should prompt for
	// confirmation.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops all tables in the public schema.
	// Used during schema initialization when overwriting existing data.
	DropAllTables(ctx context.Context) error
}
