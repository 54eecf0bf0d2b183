package observability

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNewRequestIDIsUniqueUUID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("expected valid UUID, got %q: %v", a, err)
	}
}

func TestRequestIDFromHeader(t *testing.T) {
	valid := uuid.New().String()

	tests := map[string]struct {
		header string
		reused bool
	}{
		"valid uuid": {header: valid, reused: true},
		"empty":      {header: ""},
		"not a uuid": {header: "abc-123"},
		"injection":  {header: "x\n{\"level\":\"error\"}"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := requestIDFrom(tc.header)
			if tc.reused {
				if got != tc.header {
					t.Fatalf("expected %q to be reused, got %q", tc.header, got)
				}
				return
			}
			if got == tc.header {
				t.Fatalf("expected %q to be replaced", tc.header)
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated UUID, got %q", got)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ctx := ContextWithRequestID(context.Background(), "abc-123")
		if got := RequestIDFromContext(ctx); got != "abc-123" {
			t.Fatalf("expected %q, got %q", "abc-123", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if got := RequestIDFromContext(context.Background()); got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), RequestIDKey, 42)
		if got := RequestIDFromContext(ctx); got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})
}
