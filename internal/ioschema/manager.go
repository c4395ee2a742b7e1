// Package ioschema implements the SchemaManager interface for database
// schema management. This is an impure I/O package that wraps GORM
// AutoMigrate and seeds the static reference dimensions.
package ioschema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/nycsafety/colldb/pkg/config"
	"github.com/nycsafety/colldb/pkg/db"
	"github.com/nycsafety/colldb/pkg/lifecycle"
	"github.com/nycsafety/colldb/pkg/schema"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// manager implements the lifecycle.SchemaManager interface using GORM
// AutoMigrate.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) lifecycle.SchemaManager {
	return &manager{operator: op}
}

// Create creates the initial database schema using GORM AutoMigrate,
// applies the partial unique indexes GORM cannot express, and seeds the
// static reference dimensions.
func (m *manager) Create(ctx context.Context, cfg *config.Config) error {
	return m.apply(ctx)
}

// Migrate updates the database schema to the latest version. AutoMigrate,
// index DDL and reference seeds are all idempotent, so migration runs the
// same steps as creation.
func (m *manager) Migrate(ctx context.Context, cfg *config.Config) error {
	return m.apply(ctx)
}

func (m *manager) apply(ctx context.Context) error {
	pool := m.operator.Pool()
	if pool == nil {
		return fmt.Errorf("not connected to database")
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{},
	)
	if err != nil {
		return fmt.Errorf("failed to connect with GORM: %w", err)
	}

	if err := schema.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Partial unique indexes for the two location populations; GORM's
	// uniqueIndex tag cannot carry a WHERE clause.
	for _, ddl := range schema.AllIndexDDL() {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to apply index DDL: %w", err)
		}
	}

	if err := m.seed(ctx); err != nil {
		return fmt.Errorf("failed to seed reference data: %w", err)
	}

	return nil
}
