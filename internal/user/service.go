package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/onnwee/cropadvisor/internal/auth"
	"github.com/onnwee/cropadvisor/internal/validate"
)

// Service implements the account operations on top of a Repository.
type Service struct {
	repo   Repository
	hasher auth.PasswordHasher
	newID  func() string
}

// NewService creates a Service.
func NewService(repo Repository, hasher auth.PasswordHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		newID:  func() string { return uuid.New().String() },
	}
}

// Signup registers a regular account.
func (s *Service) Signup(ctx context.Context, email, username, password string) (*User, error) {
	return s.create(ctx, email, username, password, false)
}

// CreateUser registers an account on behalf of an admin. The account is not an admin.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*User, error) {
	return s.create(ctx, email, username, password, false)
}

// Bootstrap guarantees an admin account for email at startup. A missing
// account is created; an existing one is promoted and keeps its password.
func (s *Service) Bootstrap(ctx context.Context, email, username, password string) (*User, error) {
	email, err := validate.Email(email)
	if err != nil {
		return nil, fmt.Errorf("invalid admin email: %w", err)
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return s.create(ctx, email, username, password, true)
	}
	if err != nil {
		return nil, err
	}
	if existing.IsAdmin {
		return existing, nil
	}

	if err := s.repo.SetAdmin(ctx, existing.Username, true); err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", existing.Username, err)
	}
	slog.InfoContext(ctx, "admin flag changed", "username", existing.Username, "is_admin", true, "by", "bootstrap")
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) create(ctx context.Context, email, username, password string, admin bool) (*User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      admin,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username, "is_admin", admin)
	return u, nil
}

// Login checks credentials. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// AdminLogin is Login restricted to admin accounts. A valid non-admin login
// is reported as ErrInvalidCredentials.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*User, error) {
	u, err := s.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// Update changes the username and/or password of the account with username.
// Empty newUsername and newPassword are left unchanged. Nothing is written
// unless the new username is free.
func (s *Service) Update(ctx context.Context, username, newUsername, newPassword string) error {
	if _, err := s.repo.GetByUsername(ctx, username); err != nil {
		return err
	}

	rename := newUsername != "" && newUsername != username
	if rename {
		_, err := s.repo.GetByUsername(ctx, newUsername)
		if err == nil {
			return ErrDuplicateUser
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}
	}

	var hash string
	if newPassword != "" {
		var err error
		if hash, err = s.hasher.Hash(newPassword); err != nil {
			return err
		}
	}

	if rename {
		if err := s.repo.UpdateUsername(ctx, username, newUsername); err != nil {
			return err
		}
		username = newUsername
	}
	if hash != "" {
		if err := s.repo.UpdatePasswordHash(ctx, username, hash); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the account with username.
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}
	slog.InfoContext(ctx, "user deleted", "username", username)
	return nil
}

// Promote grants admin rights to username. The requester identified by
// adminEmail must be an admin.
func (s *Service) Promote(ctx context.Context, adminEmail, username string) error {
	return s.setAdmin(ctx, adminEmail, username, true)
}

// Demote revokes admin rights from username.
func (s *Service) Demote(ctx context.Context, adminEmail, username string) error {
	return s.setAdmin(ctx, adminEmail, username, false)
}

func (s *Service) setAdmin(ctx context.Context, adminEmail, username string, admin bool) error {
	requester, err := s.repo.GetByEmail(ctx, adminEmail)
	if errors.Is(err, ErrUserNotFound) {
		return ErrNotAdmin
	}
	if err != nil {
		return fmt.Errorf("failed to load requester: %w", err)
	}
	if !requester.IsAdmin {
		return ErrNotAdmin
	}

	if err := s.repo.SetAdmin(ctx, username, admin); err != nil {
		return err
	}
	slog.InfoContext(ctx, "admin flag changed", "username", username, "is_admin", admin, "by", requester.Username)
	return nil
}
