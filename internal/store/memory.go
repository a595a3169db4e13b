// Package store provides SessionStore implementations for the Session
// Store component: an in-memory map for a persistent HTTP server, a
// file-backed store for genuinely per-process transports, and a
// Redis-backed store for horizontally scaled deployments.
package store

import (
	"sync"

	mcp "github.com/inference-tools/mcpserve"
)

// MemoryStore backs a persistent HTTP server: the Session Store becomes
// an in-memory map guarded by a mutex, with the same contract as the
// other backends. It is the default store for cmd/mcpserve's HTTP
// transport, since that transport is an idiomatic long-lived
// net/http.Handler rather than a genuine per-request process.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]mcp.SessionRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]mcp.SessionRecord)}
}

func (s *MemoryStore) Create(record mcp.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[record.SessionID]; exists {
		return errAlreadyExists(record.SessionID)
	}
	s.sessions[record.SessionID] = record
	return nil
}

func (s *MemoryStore) Read(sessionID string) (mcp.SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	return record, ok, nil
}

func (s *MemoryStore) Update(sessionID string, newStatus mcp.SessionStatus, now int64) (mcp.SessionStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return "", false, nil
	}
	prior := record.Status
	record.Status = newStatus
	if newStatus == mcp.StatusClosed {
		record.ClosedAt = now
	}
	s.sessions[sessionID] = record
	return prior, true, nil
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) Reap(now int64, maxUptime, initTimeout int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range s.sessions {
		switch {
		case record.OpenedAt < now-2*maxUptime:
			delete(s.sessions, id)
		case record.Status == mcp.StatusInitializing && record.OpenedAt < now-initTimeout:
			delete(s.sessions, id)
		case record.Status != mcp.StatusClosed && record.OpenedAt < now-maxUptime:
			record.Status = mcp.StatusClosed
			record.ClosedAt = now
			s.sessions[id] = record
		}
	}
	return nil
}

type errAlreadyExists string

func (e errAlreadyExists) Error() string {
	return "session already exists: " + string(e)
}
