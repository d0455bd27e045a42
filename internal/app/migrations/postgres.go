package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockKey is the advisory lock key guarding schema changes. One key
// for the whole database: a migration step requires exclusive access.
const migrationLockKey = 0x636f7572736573 // "courses"

// PostgresStore records and executes migration steps against PostgreSQL.
// Each step runs inside a transaction holding a transaction-scoped advisory
// lock, so a mid-step failure leaves both the schema and the metadata at the
// last fully applied step.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a migration store over a connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchemaTable creates the migration tracking table if it doesn't exist.
func (s *PostgresStore) EnsureSchemaTable(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// AppliedIDs returns the ids of every recorded migration in ascending order.
func (s *PostgresStore) AppliedIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM schema_migrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyStep runs a step's up transform and records it, in one transaction.
func (s *PostgresStore) ApplyStep(ctx context.Context, step Step) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if _, err := tx.Exec(ctx, step.UpSQL); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO schema_migrations (id, name, applied_at) VALUES ($1, $2, $3)`,
		step.ID, step.Name, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit(ctx)
}

// RevertStep runs a step's down transform and deletes its record, in one
// transaction.
func (s *PostgresStore) RevertStep(ctx context.Context, step Step) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if _, err := tx.Exec(ctx, step.DownSQL); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE id = $1`, step.ID); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit(ctx)
}
