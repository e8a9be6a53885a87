// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"encoding/json"
	"testing"
)

func TestEvent_IsTerminal(t *testing.T) {
	tests := []struct {
		eventType EventType
		terminal  bool
	}{
		{EventText, false},
		{EventSummary, false},
		{EventError, true},
		{EventDone, true},
	}

	for _, tt := range tests {
		e := Event{Type: tt.eventType}
		if e.IsTerminal() != tt.terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.eventType, e.IsTerminal(), tt.terminal)
		}
	}
}

func TestEvent_ContentPresenceSurvivesDecode(t *testing.T) {
	var withContent Event
	if err := json.Unmarshal([]byte(`{"type":"text","content":""}`), &withContent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withContent.Content == nil {
		t.Error("expected empty-but-present content to decode non-nil")
	}

	var withoutContent Event
	if err := json.Unmarshal([]byte(`{"type":"text"}`), &withoutContent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withoutContent.Content != nil {
		t.Error("expected absent content to decode nil")
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeDone, "done"},
		{OutcomeError, "error"},
		{OutcomeCancelled, "cancelled"},
		{OutcomeFailed, "failed"},
		{Outcome(99), "unknown"},
	}

	for _, tt := range tests {
		if tt.outcome.String() != tt.expected {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.outcome, tt.outcome.String(), tt.expected)
		}
	}
}

func TestTransportError_Error(t *testing.T) {
	te := &TransportError{Status: 502, Message: "Server error"}

	if te.Error() != "transport error (status 502): Server error" {
		t.Errorf("unexpected error string: %q", te.Error())
	}
}
