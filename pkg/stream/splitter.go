// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the incremental frame splitter for the event stream.
//
// Single Responsibility:
//
//	The splitter ONLY reassembles frames from arbitrarily split chunks.
//	It performs no I/O, no JSON parsing, and no event dispatch, which
//	makes it unit-testable with synthetic chunk sequences.
package stream

import (
	"strings"
)

// =============================================================================
// Frame Splitter
// =============================================================================

// FrameSplitter reassembles blank-line-delimited frames from a chunked
// byte/text stream.
//
// Network reads may split a frame at an arbitrary byte boundary, so a frame
// must never be processed until its blank-line terminator has arrived. The
// splitter maintains a single pending buffer across pushes: each Push appends
// the new chunk, extracts every complete frame, and leaves any trailing
// incomplete fragment buffered for the next push.
//
// # Thread Safety
//
// Not thread-safe. One splitter per stream, fed from a single read loop.
//
// # Examples
//
//	s := NewFrameSplitter()
//	s.Push(`data: {"type":"te`)               // nil: frame incomplete
//	s.Push("xt\",\"content\":\"hi\"}\n\n")    // ["data: {\"type\":\"text\",\"content\":\"hi\"}"]
type FrameSplitter struct {
	pending strings.Builder
}

// NewFrameSplitter creates an empty splitter.
func NewFrameSplitter() *FrameSplitter {
	return &FrameSplitter{}
}

// Push appends a chunk and returns every frame completed by it, in order.
//
// Returned frames have their blank-line terminator removed but are otherwise
// raw; prefix stripping and JSON parsing are the caller's job. Returns nil
// when the chunk completes no frame.
func (s *FrameSplitter) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}
	s.pending.WriteString(chunk)

	buf := s.pending.String()
	var frames []string
	for {
		idx := strings.Index(buf, "\n\n")
		if idx < 0 {
			break
		}
		frames = append(frames, buf[:idx])
		buf = buf[idx+2:]
	}

	if len(frames) > 0 {
		s.pending.Reset()
		s.pending.WriteString(buf)
	}
	return frames
}

// Pending returns the buffered incomplete fragment. Diagnostic use only.
func (s *FrameSplitter) Pending() string {
	return s.pending.String()
}

// Reset discards any buffered fragment.
func (s *FrameSplitter) Reset() {
	s.pending.Reset()
}

// =============================================================================
// Frame Payload Extraction
// =============================================================================

// framePayloads extracts the JSON payloads from one complete frame.
//
// A frame is one or more lines; payload lines carry the "data:" prefix.
// Comment lines (leading ":") and other noise are ignored, matching the
// event-stream convention.
func framePayloads(frame string) []string {
	var payloads []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		// Accept both "data: " and "data:" forms; some servers omit the space.
		if rest, ok := strings.CutPrefix(line, "data: "); ok {
			payloads = append(payloads, rest)
		} else if rest, ok := strings.CutPrefix(line, "data:"); ok {
			payloads = append(payloads, rest)
		}
	}
	return payloads
}
