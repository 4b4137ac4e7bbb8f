// Package audit keeps a tamper-evident trail of administrative account
// changes. Each entry carries the hash of its predecessor, so editing or
// removing a stored entry breaks the chain.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Actions recorded by the admin endpoints.
const (
	ActionCreateUser  = "create_user"
	ActionUpdateUser  = "update_user"
	ActionDeleteUser  = "delete_user"
	ActionPromoteUser = "promote_user"
	ActionDemoteUser  = "demote_user"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// ErrInvalidAction is returned for an empty or unknown action.
	ErrInvalidAction = errors.New("invalid audit action")
	// ErrInvalidOutcome is returned for an outcome other than success or failure.
	ErrInvalidOutcome = errors.New("invalid audit outcome")
	// ErrMissingActor is returned when an entry names no acting admin.
	ErrMissingActor = errors.New("audit actor is required")
	// ErrChainBroken is returned by VerifyChain when an entry was altered or removed.
	ErrChainBroken = errors.New("audit hash chain broken")
)

var validActions = map[string]bool{
	ActionCreateUser:  true,
	ActionUpdateUser:  true,
	ActionDeleteUser:  true,
	ActionPromoteUser: true,
	ActionDemoteUser:  true,
}

// Record is the input for one audit entry.
type Record struct {
	Actor   string // email of the acting admin
	Action  string
	Target  string // username acted upon
	Outcome string

	RequestID string
	IPAddress string
	UserAgent string
}

// Validate checks the required fields.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Actor) == "" {
		return ErrMissingActor
	}
	if !validActions[r.Action] {
		return ErrInvalidAction
	}
	if r.Outcome != OutcomeSuccess && r.Outcome != OutcomeFailure {
		return ErrInvalidOutcome
	}
	return nil
}

// Entry is a stored audit record.
type Entry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Outcome   string    `json:"outcome"`
	RequestID string    `json:"request_id,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
}

// computeHash hashes the entry's content together with its predecessor's hash.
func computeHash(e *Entry) string {
	h := sha256.New()
	for _, field := range []string{
		e.ID,
		e.Actor,
		e.Action,
		e.Target,
		e.Outcome,
		e.RequestID,
		e.IPAddress,
		e.UserAgent,
		strconv.FormatInt(e.CreatedAt.UTC().UnixNano(), 10),
		e.PreviousHash,
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// newEntry builds the next link of the chain after previousHash.
func newEntry(id string, rec Record, createdAt time.Time, previousHash string) *Entry {
	e := &Entry{
		ID:           id,
		Actor:        strings.ToLower(strings.TrimSpace(rec.Actor)),
		Action:       rec.Action,
		Target:       rec.Target,
		Outcome:      rec.Outcome,
		RequestID:    rec.RequestID,
		IPAddress:    rec.IPAddress,
		UserAgent:    rec.UserAgent,
		CreatedAt:    createdAt.UTC(),
		PreviousHash: previousHash,
	}
	e.Hash = computeHash(e)
	return e
}

// VerifyChain checks entries in append order (oldest first). It returns the
// index of the first bad entry with ErrChainBroken, or -1 and nil.
func VerifyChain(entries []*Entry) (int, error) {
	prev := ""
	for i, e := range entries {
		if e.PreviousHash != prev || computeHash(e) != e.Hash {
			return i, ErrChainBroken
		}
		prev = e.Hash
	}
	return -1, nil
}
