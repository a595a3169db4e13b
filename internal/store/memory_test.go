package store

import (
	"testing"

	mcp "github.com/inference-tools/mcpserve"
)

func TestMemoryStore_CreateAndRead(t *testing.T) {
	s := NewMemoryStore()
	record := mcp.SessionRecord{SessionID: "abc", Status: mcp.StatusInitializing, OpenedAt: 1, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"}
	if err := s.Create(record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.Read("abc")
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if got.Status != mcp.StatusInitializing {
		t.Fatalf("expected INITIALIZING, got %v", got.Status)
	}
}

func TestMemoryStore_CreateRejectsDuplicate(t *testing.T) {
	s := NewMemoryStore()
	record := mcp.SessionRecord{SessionID: "abc", Status: mcp.StatusInitializing, OpenedAt: 1, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"}
	if err := s.Create(record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Create(record); err == nil {
		t.Fatal("expected an error creating a duplicate session id")
	}
}

func TestMemoryStore_ReadMiss(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Read("missing")
	if err != nil || ok {
		t.Fatalf("expected a miss, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	s.Create(mcp.SessionRecord{SessionID: "abc", Status: mcp.StatusOpen, OpenedAt: 1, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"})

	prior, ok, err := s.Update("abc", mcp.StatusClosed, 42)
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if prior != mcp.StatusOpen {
		t.Fatalf("expected prior status OPEN, got %v", prior)
	}
	record, _, _ := s.Read("abc")
	if record.Status != mcp.StatusClosed || record.ClosedAt != 42 {
		t.Fatalf("expected CLOSED at 42, got %+v", record)
	}
}

func TestMemoryStore_UpdateUnknownSession(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Update("missing", mcp.StatusClosed, 1)
	if err != nil || ok {
		t.Fatalf("expected ok=false for an unknown session, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore_ReapDeletesVeryOldSessions(t *testing.T) {
	s := NewMemoryStore()
	s.Create(mcp.SessionRecord{SessionID: "ancient", Status: mcp.StatusClosed, OpenedAt: 0, ClosedAt: 0, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"})

	if err := s.Reap(1000, 100, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.Read("ancient"); ok {
		t.Fatal("expected the ancient session to be deleted")
	}
}

func TestMemoryStore_ReapDeletesStaleInitializingSessions(t *testing.T) {
	s := NewMemoryStore()
	s.Create(mcp.SessionRecord{SessionID: "stale-init", Status: mcp.StatusInitializing, OpenedAt: 100, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"})

	if err := s.Reap(200, 10000, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := s.Read("stale-init"); ok {
		t.Fatal("expected a session stuck INITIALIZING past the init timeout to be deleted")
	}
}

func TestMemoryStore_ReapClosesExpiredOpenSessions(t *testing.T) {
	s := NewMemoryStore()
	s.Create(mcp.SessionRecord{SessionID: "expired", Status: mcp.StatusOpen, OpenedAt: 100, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"})

	if err := s.Reap(1000, 500, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record, ok, _ := s.Read("expired")
	if !ok {
		t.Fatal("expected the session to survive (closed, not deleted)")
	}
	if record.Status != mcp.StatusClosed || record.ClosedAt != 1000 {
		t.Fatalf("expected closed at 1000, got %+v", record)
	}
}

func TestMemoryStore_ReapIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	s.Create(mcp.SessionRecord{SessionID: "s", Status: mcp.StatusOpen, OpenedAt: 100, ClientInfo: mcp.ClientInfo{"name": "c"}, ProtocolVersion: "2025-06-18"})

	if err := s.Reap(1000, 500, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _, _ := s.Read("s")

	if err := s.Reap(1000, 500, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, ok, _ := s.Read("s")
	if !ok || first != second {
		t.Fatalf("expected reap to be idempotent, got %+v then %+v", first, second)
	}
}
