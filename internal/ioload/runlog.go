package ioload

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nycsafety/colldb/pkg/lifecycle"
)

// logStage appends one stage transition to etl_run_log. The table is
// append-only: STARTED, SUCCEEDED and FAILED are separate rows sharing
// (run_id, stage).
func logStage(
	ctx context.Context,
	pool *pgxpool.Pool,
	runID, stage, status string,
	stats *lifecycle.LoadStats,
	errDetail string,
) error {
	var read, loaded, rejected, warnings int
	if stats != nil {
		read = stats.Read
		loaded = stats.Loaded
		rejected = stats.Rejected
		warnings = stats.Warnings
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO etl_run_log
			(run_id, stage, status, records_read, records_loaded,
			 records_rejected, warnings, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		runID, stage, status, read, loaded, rejected, warnings, errDetail,
	)
	return err
}
