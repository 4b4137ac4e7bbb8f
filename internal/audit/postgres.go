package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/cropadvisor/internal/tracing"
)

const auditTable = "admin_audit_log"

// PostgresRepository implements Repository using PostgreSQL.
// Appends take a table lock so concurrent writers cannot fork the chain.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append stores rec as the newest entry.
func (r *PostgresRepository) Append(ctx context.Context, rec Record) (e *Entry, err error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, auditTable, tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `LOCK TABLE admin_audit_log IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("failed to lock audit log: %w", err)
	}

	var prev string
	err = tx.QueryRowContext(ctx, `SELECT hash FROM admin_audit_log ORDER BY seq DESC LIMIT 1`).Scan(&prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read audit chain head: %w", err)
	}

	// Postgres stores microseconds; truncate so the stored row rehashes identically.
	e = newEntry(uuid.New().String(), rec, time.Now().Truncate(time.Microsecond), prev)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO admin_audit_log
			(id, actor, action, target, outcome, request_id, ip_address, user_agent, created_at, previous_hash, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.Actor, e.Action, e.Target, e.Outcome, e.RequestID, e.IPAddress, e.UserAgent, e.CreatedAt, e.PreviousHash, e.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit audit entry: %w", err)
	}
	return e, nil
}

// List returns entries newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) (entries []*Entry, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, auditTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT id, actor, action, target, outcome, request_id, ip_address, user_agent, created_at, previous_hash, hash
		FROM admin_audit_log
		ORDER BY seq DESC
	`
	var rows *sql.Rows
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Target, &e.Outcome, &e.RequestID,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt, &e.PreviousHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
