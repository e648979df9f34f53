// File path: internal/common/log_test.go
package common

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoggerSingleton(t *testing.T) {
	if Logger() != Logger() {
		t.Fatalf("Logger must return the same instance")
	}
}

func TestLogCaptureComponentFromMessage(t *testing.T) {
	Logger().Info("resolver: test message", "key", "value")

	entries := LogEntries()
	if len(entries) == 0 {
		t.Fatalf("expected captured entries")
	}
	var found *LogEntry
	for i := range entries {
		if entries[i].Message == "resolver: test message" {
			found = &entries[i]
		}
	}
	if found == nil {
		t.Fatalf("emitted entry not captured")
	}
	if found.Component != "resolver" {
		t.Fatalf("component not derived from message prefix: %q", found.Component)
	}
	if found.Level != "info" {
		t.Fatalf("unexpected level %q", found.Level)
	}
	if found.Attributes["key"] != "value" {
		t.Fatalf("attribute not captured: %v", found.Attributes)
	}
	if found.Time.Location() != time.UTC {
		t.Fatalf("captured time must be UTC")
	}
}

func TestLogCaptureComponentAttribute(t *testing.T) {
	Logger().Warn("standalone message", "component", "sqlite")

	entries := LogEntries()
	var found *LogEntry
	for i := range entries {
		if entries[i].Message == "standalone message" {
			found = &entries[i]
		}
	}
	if found == nil {
		t.Fatalf("emitted entry not captured")
	}
	if found.Component != "sqlite" {
		t.Fatalf("component attribute not honored: %q", found.Component)
	}
	if _, ok := found.Attributes["component"]; ok {
		t.Fatalf("component attribute must not leak into attributes map")
	}
}

func TestLogSinkBounded(t *testing.T) {
	sink := newLogSink(3)
	for i := 0; i < 10; i++ {
		sink.capture(slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0))
	}
	if len(sink.entries()) != 3 {
		t.Fatalf("history not bounded: %d", len(sink.entries()))
	}
}
