package user

import (
	"context"
	"slices"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Reads return copies.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users []*User // creation order
	now   func() time.Time
}

// NewInMemoryRepository creates an empty in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: time.Now}
}

func (r *InMemoryRepository) find(match func(*User) bool) int {
	return slices.IndexFunc(r.users, match)
}

func (r *InMemoryRepository) byUsername(username string) int {
	return r.find(func(u *User) bool { return u.Username == username })
}

// GetByEmail returns a copy of the account with email.
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(func(u *User) bool { return u.Email == email })
	if i < 0 {
		return nil, ErrUserNotFound
	}
	u := *r.users[i]
	return &u, nil
}

// GetByUsername returns a copy of the account with username.
func (r *InMemoryRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.byUsername(username)
	if i < 0 {
		return nil, ErrUserNotFound
	}
	u := *r.users[i]
	return &u, nil
}

// Insert stores a copy of u, filling in timestamps.
func (r *InMemoryRepository) Insert(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(func(existing *User) bool {
		return existing.Email == u.Email || existing.Username == u.Username
	}) >= 0 {
		return ErrDuplicateUser
	}

	now := r.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	stored := *u
	r.users = append(r.users, &stored)
	return nil
}

// update applies fn to the account with username under the write lock.
func (r *InMemoryRepository) update(username string, fn func(*User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.byUsername(username)
	if i < 0 {
		return ErrUserNotFound
	}
	if err := fn(r.users[i]); err != nil {
		return err
	}
	r.users[i].UpdatedAt = r.now()
	return nil
}

// UpdateUsername renames an account.
func (r *InMemoryRepository) UpdateUsername(ctx context.Context, username, newUsername string) error {
	return r.update(username, func(u *User) error {
		if newUsername != username && r.byUsername(newUsername) >= 0 {
			return ErrDuplicateUser
		}
		u.Username = newUsername
		return nil
	})
}

// UpdatePasswordHash replaces an account's password hash.
func (r *InMemoryRepository) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	return r.update(username, func(u *User) error {
		u.PasswordHash = hash
		return nil
	})
}

// SetAdmin sets an account's admin flag.
func (r *InMemoryRepository) SetAdmin(ctx context.Context, username string, admin bool) error {
	return r.update(username, func(u *User) error {
		u.IsAdmin = admin
		return nil
	})
}

// Delete removes an account.
func (r *InMemoryRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.byUsername(username)
	if i < 0 {
		return ErrUserNotFound
	}
	r.users = slices.Delete(r.users, i, i+1)
	return nil
}

// List returns copies of all accounts in creation order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*User, len(r.users))
	for i, u := range r.users {
		c := *u
		out[i] = &c
	}
	return out, nil
}
