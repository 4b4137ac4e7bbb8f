// Package idempotency stores the responses of side-effecting requests so a
// client retry carrying the same Idempotency-Key replays the first response
// instead of repeating the side effect (for example sending a second email).
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned when an idempotency key is not found.
	ErrKeyNotFound = errors.New("idempotency key not found")

	// ErrKeyExists is returned when attempting to create a duplicate key.
	ErrKeyExists = errors.New("idempotency key already exists")

	// ErrInvalidKey is returned when the key is empty or contains non-printable characters.
	ErrInvalidKey = errors.New("invalid idempotency key")

	// ErrKeyTooLong is returned when the key exceeds maximum length.
	ErrKeyTooLong = errors.New("idempotency key exceeds maximum length of 64 characters")
)

// MaxKeyLength is the maximum allowed length for an idempotency key.
const MaxKeyLength = 64

// DefaultExpiry is how long a stored response stays replayable.
const DefaultExpiry = 24 * time.Hour

// Record is a stored response for one idempotency key on one route.
type Record struct {
	Key         string    `json:"key"`
	Method      string    `json:"method"`
	Route       string    `json:"route"`
	Fingerprint string    `json:"fingerprint"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// StorageKey scopes a client key to its route so the same key can be reused
// on different endpoints.
func StorageKey(route, key string) string {
	return route + "|" + key
}

// ValidateKey checks that key is 1..MaxKeyLength printable ASCII characters.
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x21 || key[i] > 0x7e {
			return ErrInvalidKey
		}
	}
	return nil
}

// Fingerprint hashes a request body so a reused key with a different payload
// can be detected.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Store persists idempotency records.
type Store interface {
	// Get returns ErrKeyNotFound if no record exists for the storage key.
	Get(ctx context.Context, storageKey string) (*Record, error)

	// Put saves a record under StorageKey(rec.Route, rec.Key).
	// It returns ErrKeyExists if one is already present.
	Put(ctx context.Context, rec *Record) error

	// DeleteOlderThan removes records older than age and reports how many went.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}
