package mcp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SessionStatus is one of the three states in the session state machine
// Transitions are monotone: INITIALIZING -> OPEN -> CLOSED, never backward.
type SessionStatus string

const (
	StatusInitializing SessionStatus = "INITIALIZING"
	StatusOpen         SessionStatus = "OPEN"
	StatusClosed       SessionStatus = "CLOSED"
)

// SessionRecord is the persisted state for one session.
// Invariants enforced by the store, not by this struct: (status=CLOSED)
// iff (closedAt != 0); protocolVersion and sessionId are immutable after
// creation.
type SessionRecord struct {
	SessionID       string        `json:"sessionId"`
	Status          SessionStatus `json:"status"`
	OpenedAt        int64         `json:"openedAt"`
	ClosedAt        int64         `json:"closedAt"`
	ClientInfo      ClientInfo    `json:"clientInfo"`
	ProtocolVersion string        `json:"protocolVersion"`
}

// valid reports whether all five persisted fields are present, per the
// Session Store's read contract: a malformed file, or one decoded with
// missing fields, reads as a miss.
func (r *SessionRecord) valid() bool {
	if r == nil {
		return false
	}
	if r.SessionID == "" || r.ProtocolVersion == "" || r.OpenedAt == 0 {
		return false
	}
	switch r.Status {
	case StatusInitializing, StatusOpen, StatusClosed:
	default:
		return false
	}
	if r.ClientInfo == nil {
		return false
	}
	return true
}

// SessionStore is the durable, concurrency-safe mapping from session id to
// SessionRecord. Implementations: a file-backed store
// (internal/store.FileStore) for per-process HTTP transports, an
// in-memory store (internal/store.MemoryStore) for a persistent HTTP
// server, and a Redis-backed store (internal/store.RedisStore) for
// horizontally scaled deployments.
type SessionStore interface {
	// Create writes a new record. It fails if the id already exists.
	Create(record SessionRecord) error
	// Read returns the record, or ok=false on any miss (including a
	// malformed or partially-written record).
	Read(sessionID string) (record SessionRecord, ok bool, err error)
	// Update atomically reads, mutates Status (and ClosedAt when moving
	// to CLOSED), and writes back. It returns the prior status, or ok=false
	// if the session could not be verified beforehand.
	Update(sessionID string, newStatus SessionStatus, now int64) (prior SessionStatus, ok bool, err error)
	// List yields every session id currently known, including
	// closed-but-not-deleted ones.
	List() ([]string, error)
	// Reap sweeps every known session: deletes records older than
	// 2*maxUptime, deletes INITIALIZING records past initTimeout, and
	// closes OPEN/INITIALIZING records past maxUptime. It must be
	// idempotent: applying it twice consecutively equals applying it once.
	Reap(now int64, maxUptime, initTimeout int64) error
}

// NewSessionID returns a cryptographically-secure 128-bit session id,
// rendered as 32 lowercase hex digits.
func NewSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
