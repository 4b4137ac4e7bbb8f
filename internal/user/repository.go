// Package user manages the account roster: signup, login and the admin
// operations on other accounts.
package user

import (
	"context"
	"errors"
	"time"
)

// Common errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAdmin           = errors.New("requester is not an admin")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines the storage operations for accounts.
// Emails and usernames are each unique.
type Repository interface {
	// GetByEmail returns the account with email or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername returns the account with username or ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Insert stores u. It returns ErrDuplicateUser when the email or username is taken.
	Insert(ctx context.Context, u *User) error

	UpdateUsername(ctx context.Context, username, newUsername string) error
	UpdatePasswordHash(ctx context.Context, username, hash string) error
	SetAdmin(ctx context.Context, username string, admin bool) error

	// Delete removes the account or returns ErrUserNotFound.
	Delete(ctx context.Context, username string) error

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*User, error)
}
