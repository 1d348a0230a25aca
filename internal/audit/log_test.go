package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"pazaauto.id/internal/auth"
	"pazaauto.id/internal/obs"
)

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	obs.SetOutput(&buf)
	defer obs.SetOutput(nil)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithClaims(ctx, &auth.AccessClaims{
		Groups:           []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "carol"},
	})

	if err := LogEvent(ctx, "employees.create", map[string]any{"id": 42}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "employees.create" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user"] != "carol" {
		t.Fatalf("unexpected user: %v", entry["user"])
	}
	if id, _ := entry["event_id"].(string); len(id) != 26 {
		t.Fatalf("expected ulid event id, got %v", entry["event_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["id"] != float64(42) {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
