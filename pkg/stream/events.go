// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stream implements the client side of the Triage assistant wire
// protocol: one POST-with-streaming-response exchange per conversation turn,
// with the response body parsed incrementally as an event stream.
//
// This file contains the shared wire types. The stream package is the leaf of
// the repository; it knows nothing about conversation history or sessions.
//
// Wire format:
//
//	data: {"type":"text","content":"Looking at your logs..."}\n
//	\n
//	data: {"type":"summary","data":{"category":"crash","title":"..."}}\n
//	\n
//	data: {"type":"done"}\n
//	\n
//
// Each event is one or more lines followed by a blank line. The payload line
// is prefixed "data: " and carries a JSON object with a "type" discriminator.
package stream

// EventType represents the type of a streaming event.
type EventType string

const (
	// EventText carries one incremental chunk of assistant output.
	EventText EventType = "text"

	// EventSummary carries the structured report the assistant distilled
	// from the conversation. Receiving it does not terminate the stream;
	// the server still follows with a done event.
	EventSummary EventType = "summary"

	// EventError signals a server-side failure. Terminal: no done event
	// follows an error event.
	EventError EventType = "error"

	// EventDone signals normal end of stream. Terminal.
	EventDone EventType = "done"
)

// Event is the tagged union this package produces from the wire.
//
// Content and Data are pointers because presence matters: a text event
// without a content field is dropped rather than dispatched as an empty
// chunk, and likewise for summary events without data.
type Event struct {
	Type    EventType      `json:"type"`
	Content *string        `json:"content,omitempty"`
	Data    *ReportSummary `json:"data,omitempty"`
}

// IsTerminal returns true if no further events follow this one.
func (e Event) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// ReportSummary is the structured bug report distilled from a conversation.
type ReportSummary struct {
	Category         string   `json:"category"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StepsToReproduce []string `json:"steps_to_reproduce"`
	ExpectedBehavior string   `json:"expected_behavior"`
	ActualBehavior   string   `json:"actual_behavior"`
	Severity         string   `json:"severity"`
	Tags             []string `json:"tags"`
}

// Message is one conversation turn, sent verbatim to the server in order
// on every request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles. The server only ever sees these two; system prompting is
// the server's concern.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AttachmentMeta describes one attachment by name, size, and MIME type.
// Raw attachment bytes never travel over this channel.
type AttachmentMeta struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Request is the body of one streaming chat exchange.
//
// DiagnosticContext deliberately has no omitempty: the server distinguishes
// "no context this turn" (explicit null) from a malformed request, so the
// field is always serialized.
type Request struct {
	Messages          []Message        `json:"messages"`
	DiagnosticContext any              `json:"diagnostic_context"`
	AttachmentMeta    []AttachmentMeta `json:"attachment_meta,omitempty"`
	Locale            string           `json:"locale,omitempty"`
}

// Callbacks receives typed events during one Stream call.
//
// Nil fields are skipped. OnError and OnDone are mutually exclusive for a
// given call: a server error event suppresses the done callback, and a
// cancelled call fires neither.
type Callbacks struct {
	OnText    func(content string)
	OnSummary func(data ReportSummary)
	OnError   func(content string)
	OnDone    func()
}

// Outcome is the tagged result of one Stream call. Cancellation is a
// first-class outcome rather than an error, because a cancelled turn is a
// normal consequence of session preemption and must be structurally
// distinguishable from failure.
type Outcome int

const (
	// OutcomeDone means the stream completed, via an explicit done event
	// or an implicit one synthesized at end of stream.
	OutcomeDone Outcome = iota

	// OutcomeError means the server signaled an error event. The error
	// content was already delivered through OnError.
	OutcomeError

	// OutcomeCancelled means the caller's context was cancelled mid-call.
	// No terminal callback was fired.
	OutcomeCancelled

	// OutcomeFailed means a transport-level failure (non-2xx status,
	// network error, read error). The accompanying error has details;
	// no callbacks were fired for the failure.
	OutcomeFailed
)

// String returns the human-readable name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeError:
		return "error"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
