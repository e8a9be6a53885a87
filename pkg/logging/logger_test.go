// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "test",
		Quiet:   true,
	})

	logger.Info("session created", "session_id", "abc-123")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	expected := filepath.Join(dir, fmt.Sprintf("test_%s.log", time.Now().Format("2006-01-02")))
	data, err := os.ReadFile(expected)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log file is not JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "session created" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
	if entry["session_id"] != "abc-123" {
		t.Errorf("unexpected session_id %v", entry["session_id"])
	}
	if entry["service"] != "test" {
		t.Errorf("expected service attribute, got %v", entry["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filter",
		Quiet:   true,
	})

	logger.Debug("dropped debug")
	logger.Info("dropped info")
	logger.Warn("kept warn")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("filter_%s.log", time.Now().Format("2006-01-02")))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "dropped") {
		t.Errorf("filtered levels leaked into output:\n%s", content)
	}
	if !strings.Contains(content, "kept warn") {
		t.Errorf("warn entry missing:\n%s", content)
	}
}

func TestExporterReceivesEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelInfo,
		Service:  "cli",
		Quiet:    true,
		Exporter: exporter,
	})
	defer logger.Close()

	logger.Info("turn complete", "request_id", "r1", "duration_ms", 42)

	// Export is asynchronous; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	var entries []LogEntry
	for time.Now().Before(deadline) {
		entries = exporter.Entries()
		if len(entries) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 exported entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Message != "turn complete" || e.Level != LevelInfo || e.Service != "cli" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Attrs["request_id"] != "r1" {
		t.Fatalf("expected attrs preserved, got %v", e.Attrs)
	}
}

func TestExporterRespectsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{
		Level:    LevelError,
		Quiet:    true,
		Exporter: exporter,
	})
	defer logger.Close()

	logger.Info("below threshold")
	time.Sleep(50 * time.Millisecond)
	if got := len(exporter.Entries()); got != 0 {
		t.Fatalf("expected no exported entries below level, got %d", got)
	}
}

func TestWithAddsAttributes(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "child",
		Quiet:   true,
	})

	turnLogger := logger.With("request_id", "r7")
	turnLogger.Info("streaming started")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("child_%s.log", time.Now().Format("2006-01-02")))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"request_id":"r7"`) {
		t.Errorf("child logger attribute missing:\n%s", data)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	if got := expandPath("~/.triage/logs"); got != filepath.Join(home, ".triage/logs") {
		t.Errorf("expandPath(~) = %q", got)
	}
	if got := expandPath("/var/log/triage"); got != "/var/log/triage" {
		t.Errorf("absolute path must be unchanged, got %q", got)
	}
}

func TestArgsToMap(t *testing.T) {
	m := argsToMap([]any{"a", 1, "b", "two", 3, "unkeyed", "dangling"})
	if m["a"] != 1 || m["b"] != "two" {
		t.Fatalf("unexpected map %v", m)
	}
	if len(m) != 2 {
		t.Fatalf("non-string keys and dangling values must be dropped, got %v", m)
	}
}

func TestNopExporter(t *testing.T) {
	e := &NopExporter{}
	ctx := context.Background()
	if err := e.Export(ctx, LogEntry{}); err != nil {
		t.Fatal(err)
	}
	if err := e.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
