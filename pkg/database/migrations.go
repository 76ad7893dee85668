package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates JSONB GIN indexes for PostgreSQL.
// These indexes let the query surface filter decisions and signals by
// metadata key/value without a sequential scan.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_agent_decisions_metadata_gin
		ON agent_decisions USING gin(metadata)`)
	if err != nil {
		return fmt.Errorf("failed to create agent_decisions metadata GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_agent_quality_signals_metadata_gin
		ON agent_quality_signals USING gin(metadata)`)
	if err != nil {
		return fmt.Errorf("failed to create agent_quality_signals metadata GIN index: %w", err)
	}

	return nil
}
