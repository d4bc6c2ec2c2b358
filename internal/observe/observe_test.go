package observe

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWith(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	obs := NewWith(zap.New(core))

	obs.Log().Info("consolidation finished", zap.Int("promoted", 3))

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Message != "consolidation finished" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
}

func TestNewWithNilLogger(t *testing.T) {
	obs := NewWith(nil)
	if obs.Log() == nil {
		t.Fatal("expected non-nil logger")
	}
	// Must not panic.
	obs.Log().Info("dropped")
}

func TestStartSpan(t *testing.T) {
	obs := NewWith(nil)
	ctx, span := obs.StartSpan(context.Background(), "recall")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	span.End()
}

func TestClose(t *testing.T) {
	obs := NewWith(nil)
	if err := obs.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
