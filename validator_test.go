package mcp

import "testing"

func TestValidate_Unparseable(t *testing.T) {
	_, outcome, _ := Validate([]byte(`not json`))
	if outcome != Unparseable {
		t.Fatalf("expected Unparseable, got %v", outcome)
	}
}

func TestValidate_NonObjectTopLevelIsMalformedNotUnparseable(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"x"`, `42`, `null`, `true`} {
		_, outcome, code := Validate([]byte(raw))
		if outcome != Malformed {
			t.Fatalf("Validate(%q): expected Malformed, got %v", raw, outcome)
		}
		if code != ErrCodeInvalidRequest {
			t.Fatalf("Validate(%q): expected %d, got %d", raw, ErrCodeInvalidRequest, code)
		}
	}
}

func TestValidate_WrongJSONRPCVersion(t *testing.T) {
	_, outcome, code := Validate([]byte(`{"jsonrpc":"1.0","method":"ping","id":1}`))
	if outcome != Malformed {
		t.Fatalf("expected Malformed, got %v", outcome)
	}
	if code != ErrCodeInvalidRequest {
		t.Fatalf("expected %d, got %d", ErrCodeInvalidRequest, code)
	}
}

func TestValidate_MissingMethod(t *testing.T) {
	_, outcome, code := Validate([]byte(`{"jsonrpc":"2.0","id":1}`))
	if outcome != Malformed || code != ErrCodeInvalidRequest {
		t.Fatalf("expected Malformed/%d, got %v/%d", ErrCodeInvalidRequest, outcome, code)
	}
}

func TestValidate_NonObjectParams(t *testing.T) {
	_, outcome, _ := Validate([]byte(`{"jsonrpc":"2.0","method":"ping","id":1,"params":"oops"}`))
	if outcome != Malformed {
		t.Fatalf("expected Malformed, got %v", outcome)
	}
}

func TestValidate_WellFormedRequest(t *testing.T) {
	req, outcome, _ := Validate([]byte(`{"jsonrpc":"2.0","method":"ping","id":7}`))
	if outcome != WellFormed {
		t.Fatalf("expected WellFormed, got %v", outcome)
	}
	if req.Method != "ping" {
		t.Fatalf("expected method ping, got %q", req.Method)
	}
	if req.IsNotification() {
		t.Fatal("request with an id must not be a notification")
	}
}

func TestValidate_WellFormedNotification(t *testing.T) {
	req, outcome, _ := Validate([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if outcome != WellFormed {
		t.Fatalf("expected WellFormed, got %v", outcome)
	}
	if !req.IsNotification() {
		t.Fatal("request without an id must be a notification")
	}
}
