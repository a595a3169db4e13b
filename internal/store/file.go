package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	mcp "github.com/inference-tools/mcpserve"
)

// FileStore is a file-backed Session Store: one JSON file per session
// under dir, written with whole-file replacement under an exclusive lock
// so independent processes (a genuinely per-request HTTP transport, e.g.
// behind a CGI-style front end) can share it safely.
type FileStore struct {
	dir string
}

// NewFileStore creates dir with private permissions if missing, and
// returns a FileStore rooted there. Per-session lock files are created
// in dir when a session is first locked.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

func (s *FileStore) lockPath(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".lock")
}

func (s *FileStore) withLock(sessionID string, fn func() error) error {
	lock := flock.New(s.lockPath(sessionID))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking session %s: %w", sessionID, err)
	}
	defer lock.Unlock()
	return fn()
}

func (s *FileStore) readLocked(sessionID string) (mcp.SessionRecord, bool) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return mcp.SessionRecord{}, false
	}
	var record mcp.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return mcp.SessionRecord{}, false
	}
	if !recordValid(&record) {
		return mcp.SessionRecord{}, false
	}
	return record, true
}

func (s *FileStore) writeLocked(record mcp.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding session record: %w", err)
	}
	tmp := s.path(record.SessionID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return os.Rename(tmp, s.path(record.SessionID))
}

func (s *FileStore) Create(record mcp.SessionRecord) error {
	return s.withLock(record.SessionID, func() error {
		if _, exists := os.Stat(s.path(record.SessionID)); exists == nil {
			return fmt.Errorf("session %s already exists", record.SessionID)
		}
		return s.writeLocked(record)
	})
}

func (s *FileStore) Read(sessionID string) (mcp.SessionRecord, bool, error) {
	var record mcp.SessionRecord
	var ok bool
	err := s.withLock(sessionID, func() error {
		record, ok = s.readLocked(sessionID)
		return nil
	})
	return record, ok, err
}

func (s *FileStore) Update(sessionID string, newStatus mcp.SessionStatus, now int64) (mcp.SessionStatus, bool, error) {
	var prior mcp.SessionStatus
	var ok bool
	err := s.withLock(sessionID, func() error {
		record, found := s.readLocked(sessionID)
		if !found {
			return nil
		}
		prior = record.Status
		record.Status = newStatus
		if newStatus == mcp.StatusClosed {
			record.ClosedAt = now
		}
		if err := s.writeLocked(record); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return prior, ok, err
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing session directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) == ".json" {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

func (s *FileStore) Reap(now int64, maxUptime, initTimeout int64) error {
	ids, err := s.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.withLock(id, func() error {
			record, found := s.readLocked(id)
			if !found {
				return nil
			}
			switch {
			case record.OpenedAt < now-2*maxUptime:
				os.Remove(s.path(id))
				os.Remove(s.lockPath(id))
			case record.Status == mcp.StatusInitializing && record.OpenedAt < now-initTimeout:
				os.Remove(s.path(id))
				os.Remove(s.lockPath(id))
			case record.Status != mcp.StatusClosed && record.OpenedAt < now-maxUptime:
				record.Status = mcp.StatusClosed
				record.ClosedAt = now
				return s.writeLocked(record)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// recordValid mirrors the zero-value validity check Read requires: a
// malformed or partially-written record reads as a miss.
func recordValid(r *mcp.SessionRecord) bool {
	if r.SessionID == "" || r.ProtocolVersion == "" || r.OpenedAt == 0 {
		return false
	}
	switch r.Status {
	case mcp.StatusInitializing, mcp.StatusOpen, mcp.StatusClosed:
	default:
		return false
	}
	return r.ClientInfo != nil
}
