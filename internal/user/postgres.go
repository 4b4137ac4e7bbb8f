package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/onnwee/cropadvisor/internal/tracing"
)

const usersTable = "users"

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `
	SELECT id, username, email, password_hash, is_admin, created_at, updated_at
	FROM users
`

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// endIgnoringNotFound ends a span without marking ErrUserNotFound as a failure.
func endIgnoringNotFound(endSpan func(error), err error) {
	if errors.Is(err, ErrUserNotFound) {
		endSpan(nil)
		return
	}
	endSpan(err)
}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg string) (u *User, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, usersTable, tracing.DBOperationQuery)
	defer func() { endIgnoringNotFound(endSpan, err) }()

	u, err = scanUser(r.db.QueryRowContext(ctx, selectUser+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the account with email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "WHERE email = $1", email)
}

// GetByUsername returns the account with username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, "WHERE username = $1", username)
}

// Insert stores u and fills in its timestamps from the database.
func (r *PostgresRepository) Insert(ctx context.Context, u *User) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, usersTable, tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	query := `
		INSERT INTO users (id, username, email, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// exec runs a single-row statement keyed by username.
func (r *PostgresRepository) exec(ctx context.Context, op tracing.DBOperation, query string, args ...any) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, usersTable, op)
	defer func() { endIgnoringNotFound(endSpan, err) }()

	result, err := r.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("failed to %s user: %w", op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUsername renames an account.
func (r *PostgresRepository) UpdateUsername(ctx context.Context, username, newUsername string) error {
	return r.exec(ctx, tracing.DBOperationUpdate,
		`UPDATE users SET username = $2, updated_at = NOW() WHERE username = $1`,
		username, newUsername)
}

// UpdatePasswordHash replaces an account's password hash.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	return r.exec(ctx, tracing.DBOperationUpdate,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE username = $1`,
		username, hash)
}

// SetAdmin sets an account's admin flag.
func (r *PostgresRepository) SetAdmin(ctx context.Context, username string, admin bool) error {
	return r.exec(ctx, tracing.DBOperationUpdate,
		`UPDATE users SET is_admin = $2, updated_at = NOW() WHERE username = $1`,
		username, admin)
}

// Delete removes an account.
func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	return r.exec(ctx, tracing.DBOperationDelete, `DELETE FROM users WHERE username = $1`, username)
}

// List returns all accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) (users []*User, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, usersTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, selectUser+"ORDER BY created_at, username")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users = make([]*User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
