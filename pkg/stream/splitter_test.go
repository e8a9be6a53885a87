// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stream

import (
	"strings"
	"testing"
)

// =============================================================================
// FrameSplitter Tests
// =============================================================================

func TestFrameSplitter_SingleCompleteFrame(t *testing.T) {
	s := NewFrameSplitter()

	frames := s.Push("data: {\"type\":\"text\",\"content\":\"hi\"}\n\n")

	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0] != `data: {"type":"text","content":"hi"}` {
		t.Errorf("unexpected frame: %q", frames[0])
	}
	if s.Pending() != "" {
		t.Errorf("expected empty pending buffer, got %q", s.Pending())
	}
}

func TestFrameSplitter_MultipleFramesInOnePush(t *testing.T) {
	s := NewFrameSplitter()

	frames := s.Push("data: {\"type\":\"text\"}\n\ndata: {\"type\":\"done\"}\n\n")

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0] != `data: {"type":"text"}` {
		t.Errorf("unexpected first frame: %q", frames[0])
	}
	if frames[1] != `data: {"type":"done"}` {
		t.Errorf("unexpected second frame: %q", frames[1])
	}
}

func TestFrameSplitter_FrameSplitAcrossPushes(t *testing.T) {
	s := NewFrameSplitter()

	frames := s.Push(`data: {"type":"te`)
	if frames != nil {
		t.Fatalf("expected no frames for incomplete push, got %v", frames)
	}
	if s.Pending() == "" {
		t.Error("expected fragment to stay buffered")
	}

	frames = s.Push("xt\",\"content\":\"hi\"}\n\n")
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after completion, got %d", len(frames))
	}
	if frames[0] != `data: {"type":"text","content":"hi"}` {
		t.Errorf("unexpected reassembled frame: %q", frames[0])
	}
}

func TestFrameSplitter_DelimiterSplitAcrossPushes(t *testing.T) {
	s := NewFrameSplitter()

	if frames := s.Push("data: {\"type\":\"done\"}\n"); frames != nil {
		t.Fatalf("expected no frames before full delimiter, got %v", frames)
	}
	frames := s.Push("\n")
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after delimiter completion, got %d", len(frames))
	}
}

func TestFrameSplitter_ByteAtATime(t *testing.T) {
	s := NewFrameSplitter()
	input := "data: {\"type\":\"text\",\"content\":\"chunked\"}\n\ndata: {\"type\":\"done\"}\n\n"

	var frames []string
	for _, b := range []byte(input) {
		frames = append(frames, s.Push(string(b))...)
	}

	if len(frames) != 2 {
		t.Fatalf("expected 2 frames from byte-at-a-time feed, got %d", len(frames))
	}
}

func TestFrameSplitter_TrailingFragmentKept(t *testing.T) {
	s := NewFrameSplitter()

	frames := s.Push("data: {\"type\":\"done\"}\n\ndata: {\"type\":")

	if len(frames) != 1 {
		t.Fatalf("expected 1 complete frame, got %d", len(frames))
	}
	if s.Pending() != `data: {"type":` {
		t.Errorf("expected trailing fragment buffered, got %q", s.Pending())
	}
}

func TestFrameSplitter_EmptyPush(t *testing.T) {
	s := NewFrameSplitter()

	if frames := s.Push(""); frames != nil {
		t.Errorf("expected nil for empty push, got %v", frames)
	}
}

func TestFrameSplitter_Reset(t *testing.T) {
	s := NewFrameSplitter()
	s.Push("data: partial")

	s.Reset()

	if s.Pending() != "" {
		t.Errorf("expected empty buffer after reset, got %q", s.Pending())
	}
}

func TestFrameSplitter_MultiLineFrame(t *testing.T) {
	s := NewFrameSplitter()

	frames := s.Push("event: message\ndata: {\"type\":\"done\"}\n\n")

	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !strings.Contains(frames[0], "event: message") {
		t.Errorf("expected frame to keep all lines, got %q", frames[0])
	}
}

// =============================================================================
// framePayloads Tests
// =============================================================================

func TestFramePayloads_DataPrefix(t *testing.T) {
	payloads := framePayloads(`data: {"type":"done"}`)

	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0] != `{"type":"done"}` {
		t.Errorf("unexpected payload: %q", payloads[0])
	}
}

func TestFramePayloads_NoSpaceAfterColon(t *testing.T) {
	payloads := framePayloads(`data:{"type":"done"}`)

	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0] != `{"type":"done"}` {
		t.Errorf("unexpected payload: %q", payloads[0])
	}
}

func TestFramePayloads_SkipsCommentsAndBlankLines(t *testing.T) {
	frame := ": keep-alive\n\ndata: {\"type\":\"done\"}"

	payloads := framePayloads(frame)

	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
}

func TestFramePayloads_CarriageReturnStripped(t *testing.T) {
	payloads := framePayloads("data: {\"type\":\"done\"}\r")

	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	if payloads[0] != `{"type":"done"}` {
		t.Errorf("expected CR stripped, got %q", payloads[0])
	}
}

func TestFramePayloads_IgnoresNonDataLines(t *testing.T) {
	payloads := framePayloads("event: message\nid: 7")

	if payloads != nil {
		t.Errorf("expected no payloads, got %v", payloads)
	}
}
