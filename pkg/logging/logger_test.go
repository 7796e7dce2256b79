package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" Info ", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"invalid", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDomainFields(t *testing.T) {
	type addr string

	if f := Address(addr("A1")); f.Key != "address" || f.Value != "A1" {
		t.Errorf("Address() = %+v", f)
	}
	if f := Category("crypto"); f.Key != "category" || f.Value != "crypto" {
		t.Errorf("Category() = %+v", f)
	}
	if f := Coordinates([3]float64{1, 2.5, -3}); f.Value != "(1, 2.5, -3)" {
		t.Errorf("Coordinates() = %+v", f)
	}
	if f := Error(errors.New("boom")); f.Value != "boom" {
		t.Errorf("Error() = %+v", f)
	}
	if f := Error(nil); f.Value != nil {
		t.Errorf("Error(nil) = %+v", f)
	}
	if f := Duration("timeout", 5*time.Second); f.Value != "5s" {
		t.Errorf("Duration() = %+v", f)
	}
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("legend generated", Address("A1"), Count(3))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %v, want INFO", entry.Level)
	}
	if entry.Message != "legend generated" {
		t.Errorf("Message = %v", entry.Message)
	}
	if entry.Fields["address"] != "A1" {
		t.Errorf("Fields[address] = %v, want A1", entry.Fields["address"])
	}
	if entry.Fields["count"] != float64(3) {
		t.Errorf("Fields[count] = %v, want 3", entry.Fields["count"])
	}
	if entry.Time == "" {
		t.Error("Time field is empty")
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(lines))
	}

	for i, want := range []string{"WARN", "ERROR"} {
		var entry LogEntry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			t.Fatalf("Failed to unmarshal entry %d: %v", i, err)
		}
		if entry.Level != want {
			t.Errorf("entry %d level = %v, want %v", i, entry.Level, want)
		}
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("router"))

	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("child should follow parent level, got %q", buf.String())
	}

	child.Error("route failed", Address("B"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Fields["component"] != "router" || entry.Fields["address"] != "B" {
		t.Errorf("unexpected fields: %v", entry.Fields)
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("message without fields")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := entry["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	timer := StartTimer(logger, "graph built", Component("router"))
	timer.End(Count(4))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Level != "DEBUG" {
		t.Errorf("Level = %v, want DEBUG", entry.Level)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Error("latency field missing")
	}
	if entry.Fields["count"] != float64(4) {
		t.Errorf("count = %v, want 4", entry.Fields["count"])
	}

	buf.Reset()
	timer.EndError(errors.New("cycle"))
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if entry.Level != "ERROR" || entry.Fields["error"] != "cycle" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestGlobalHelperFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))

	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	ErrorLog("error msg")
	With(String("service", "cyberdna")).Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected 5 log entries, got %d", len(lines))
	}

	var last LogEntry
	if err := json.Unmarshal([]byte(lines[4]), &last); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if last.Fields["service"] != "cyberdna" {
		t.Errorf("service field = %v", last.Fields["service"])
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored")
	if l.With(Count(1)) == nil {
		t.Error("With() returned nil")
	}
	if l.GetLevel() != InfoLevel {
		t.Errorf("GetLevel() = %v", l.GetLevel())
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", Address("A1"), Count(42))
	}
}
