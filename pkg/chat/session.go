// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package chat holds the conversation state machine that sits between a
// user interface and the streaming report endpoint. A Session owns the
// message history, the one-shot diagnostic snapshot, and the lifetime of
// the in-flight turn; the interface layer only appends user text and
// consumes callbacks.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/triageware/triage/pkg/stream"
)

// ============================================================================
// Constants
// ============================================================================

// DefaultHistoryCap is the message count at which the session starts
// nudging the server to wrap up.
const DefaultHistoryCap = 20

// ForcedSummaryPrompt is appended as an extra user message once the
// history reaches the cap, so the model produces a report instead of
// continuing an unbounded conversation. The server treats it as ordinary
// user text; the exact wording is part of the prompt contract.
const ForcedSummaryPrompt = "Please generate the summary now."

// fallbackFailureMessage is surfaced when a transport failure carries no
// usable message of its own.
const fallbackFailureMessage = "Request failed"

// ============================================================================
// Collaborator Interfaces
// ============================================================================

// Transport performs one streaming exchange with the report endpoint.
// *stream.Client is the production implementation; tests substitute a mock.
type Transport interface {
	Stream(ctx context.Context, req stream.Request, headers map[string]string, cb stream.Callbacks) (stream.Outcome, error)
}

// AttachmentProvider supplies attachment metadata for outgoing requests.
// The session never reads attachment bytes; only descriptors go on the wire.
type AttachmentProvider interface {
	List() []stream.AttachmentMeta
}

// ============================================================================
// Configuration
// ============================================================================

// Config carries the collaborators and tunables for a Session. Transport is
// required; everything else is optional.
type Config struct {
	// Transport performs the streaming exchanges.
	Transport Transport

	// Resolver produces auth headers per turn. Nil means unauthenticated.
	Resolver HeaderResolver

	// Attachments supplies metadata for outgoing requests. Nil means none.
	Attachments AttachmentProvider

	// Locale tags outgoing requests, e.g. "en-US". Empty omits the field.
	Locale string

	// HistoryCap overrides DefaultHistoryCap when positive.
	HistoryCap int
}

// ============================================================================
// Session
// ============================================================================

// Session drives a single report-gathering conversation.
//
// # Description
//
//	Each call to Start or SendMessage begins a turn: any in-flight turn is
//	cancelled first, the history is updated synchronously, and the exchange
//	runs on its own goroutine. Text deltas accumulate in a turn-local
//	buffer that is committed to history exactly once, when the server
//	signals done; an aborted or failed turn leaves no trace in history.
//
// # Limitations
//
//	Callbacks are single-slot: registering a handler replaces the previous
//	one. Fan-out belongs to the caller.
//
// # Assumptions
//
//	Callbacks are invoked without holding the session lock, so a handler
//	may call back into the session (e.g. Abort from an error handler).
type Session struct {
	mu sync.Mutex

	transport   Transport
	resolver    HeaderResolver
	attachments AttachmentProvider
	locale      string
	historyCap  int

	history        []stream.Message
	pendingContext any
	firstRequest   bool

	streaming bool
	destroyed bool
	cancel    context.CancelFunc

	// turnSeq identifies the live turn. A turn goroutine captures its own
	// sequence number at dispatch and may only mutate session state or fire
	// callbacks while that number is still current; a preempted turn is
	// thereby fenced off even if its stream resolves late.
	turnSeq uint64

	onText    func(content string)
	onSummary func(summary stream.ReportSummary)
	onError   func(message string)
	onDone    func()
}

// NewSession creates a session from cfg. It panics if cfg.Transport is nil,
// matching the convention that wiring errors surface at construction.
func NewSession(cfg Config) *Session {
	if cfg.Transport == nil {
		panic("chat: Config.Transport is required")
	}
	cap := cfg.HistoryCap
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &Session{
		transport:   cfg.Transport,
		resolver:    cfg.Resolver,
		attachments: cfg.Attachments,
		locale:      cfg.Locale,
		historyCap:  cap,
	}
}

// ============================================================================
// Callback Registration
// ============================================================================

// OnText registers the handler for streamed text deltas.
func (s *Session) OnText(fn func(content string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onText = fn
}

// OnSummary registers the handler for structured report summaries.
func (s *Session) OnSummary(fn func(summary stream.ReportSummary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSummary = fn
}

// OnError registers the handler for turn failures. It receives server
// error frames, normalized transport failures, and auth resolution
// failures alike.
func (s *Session) OnError(fn func(message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// OnDone registers the handler invoked after a turn completes and its
// assistant text has been committed to history.
func (s *Session) OnDone(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = fn
}

// ============================================================================
// Lifecycle
// ============================================================================

// Start begins a fresh conversation. History is cleared, the diagnostic
// snapshot is staged for the first request, and an opening turn with no
// user message is dispatched so the server can greet. Any in-flight turn
// is cancelled first.
func (s *Session) Start(diagnosticContext any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.cancelLocked()
	s.history = nil
	s.pendingContext = diagnosticContext
	s.firstRequest = true
	s.dispatchLocked()
}

// SendMessage appends a user message and dispatches a turn. The history
// append is synchronous: Messages called immediately after returns the new
// entry even though the exchange is still streaming. Once the history
// reaches the cap the forced summary prompt is appended as well.
func (s *Session) SendMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.sendLocked(text)
}

// Retry removes the last user message and everything after it, then
// re-sends that same content as a new turn. It is a no-op while a turn is
// streaming or when the history holds no user message.
func (s *Session) Retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.streaming {
		return
	}
	idx := -1
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == stream.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	content := s.history[idx].Content
	s.history = s.history[:idx]
	s.sendLocked(content)
}

// Abort cancels the in-flight turn, if any. The turn's partial assistant
// text is discarded and no further callbacks fire for it; history keeps
// only what previous completed turns committed.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.cancelLocked()
}

// Reset cancels any in-flight turn and clears history and the staged
// diagnostic snapshot. The session remains usable; the next Start stages
// a fresh snapshot.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.cancelLocked()
	s.history = nil
	s.pendingContext = nil
	s.firstRequest = false
}

// Destroy cancels any in-flight turn and permanently retires the session.
// Every subsequent method call is a no-op and no callback fires again,
// even for asynchronous work already scheduled.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.cancelLocked()
	s.history = nil
	s.pendingContext = nil
	s.firstRequest = false
	s.destroyed = true
}

// ============================================================================
// Accessors
// ============================================================================

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []stream.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]stream.Message, len(s.history))
	copy(out, s.history)
	return out
}

// LastUserMessage returns the content of the most recent user message and
// whether one exists.
func (s *Session) LastUserMessage() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == stream.RoleUser {
			return s.history[i].Content, true
		}
	}
	return "", false
}

// IsStreaming reports whether a turn is currently in flight.
func (s *Session) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// ============================================================================
// Turn Dispatch
// ============================================================================

// sendLocked appends the user message, applies the overflow nudge, and
// dispatches. Caller holds s.mu.
func (s *Session) sendLocked(text string) {
	s.cancelLocked()
	s.history = append(s.history, stream.Message{Role: stream.RoleUser, Content: text})
	if len(s.history) >= s.historyCap {
		s.history = append(s.history, stream.Message{
			Role:    stream.RoleUser,
			Content: ForcedSummaryPrompt,
		})
	}
	s.dispatchLocked()
}

// dispatchLocked snapshots the turn inputs and launches the turn
// goroutine. The diagnostic snapshot is consumed here, at dispatch, so it
// rides along exactly once regardless of how the turn ends. Caller holds
// s.mu.
func (s *Session) dispatchLocked() {
	s.turnSeq++
	turnID := s.turnSeq

	msgs := make([]stream.Message, len(s.history))
	copy(msgs, s.history)

	var diagCtx any
	if s.firstRequest {
		diagCtx = s.pendingContext
		s.pendingContext = nil
		s.firstRequest = false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.streaming = true

	go s.runTurn(ctx, turnID, msgs, diagCtx)
}

// runTurn executes one exchange end to end on its own goroutine.
func (s *Session) runTurn(ctx context.Context, turnID uint64, msgs []stream.Message, diagCtx any) {
	requestID := uuid.New().String()
	log := slog.With("request_id", requestID, "messages", len(msgs))

	var headers map[string]string
	if s.resolver != nil {
		var err error
		headers, err = s.resolver.ResolveHeaders(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.endTurn(turnID)
				return
			}
			log.Warn("auth header resolution failed", "error", err)
			s.failTurn(turnID, "Authentication error")
			return
		}
	}

	req := stream.Request{
		Messages:          msgs,
		DiagnosticContext: diagCtx,
		Locale:            s.locale,
	}
	if s.attachments != nil {
		if meta := s.attachments.List(); len(meta) > 0 {
			req.AttachmentMeta = meta
		}
	}

	var assistantBuf strings.Builder
	outcome, err := s.transport.Stream(ctx, req, headers, stream.Callbacks{
		OnText: func(content string) {
			assistantBuf.WriteString(content)
			s.emitText(turnID, content)
		},
		OnSummary: func(summary stream.ReportSummary) {
			s.emitSummary(turnID, summary)
		},
		OnError: func(message string) {
			s.emitError(turnID, message)
		},
		OnDone: func() {
			s.completeTurn(turnID, assistantBuf.String())
		},
	})

	switch outcome {
	case stream.OutcomeDone:
		log.Debug("turn complete")
	case stream.OutcomeError:
		// Server error frame; emitError already ran via the callback.
		s.endTurn(turnID)
	case stream.OutcomeCancelled:
		log.Debug("turn cancelled")
		s.endTurn(turnID)
	case stream.OutcomeFailed:
		log.Warn("turn failed", "error", err)
		s.failTurn(turnID, failureMessage(err))
	}
}

// failureMessage normalizes a transport failure into the single string
// handed to the error callback.
func failureMessage(err error) string {
	var te *stream.TransportError
	if errors.As(err, &te) {
		return te.Message
	}
	if err != nil {
		return err.Error()
	}
	return fallbackFailureMessage
}

// ============================================================================
// Turn Resolution
// ============================================================================

// emitText forwards a text delta to the registered handler, provided
// turnID is still the live turn. The callback runs outside the lock so a
// handler may call back into the session.
func (s *Session) emitText(turnID uint64, content string) {
	s.mu.Lock()
	if s.destroyed || turnID != s.turnSeq {
		s.mu.Unlock()
		return
	}
	cb := s.onText
	s.mu.Unlock()
	if cb != nil {
		cb(content)
	}
}

func (s *Session) emitSummary(turnID uint64, summary stream.ReportSummary) {
	s.mu.Lock()
	if s.destroyed || turnID != s.turnSeq {
		s.mu.Unlock()
		return
	}
	cb := s.onSummary
	s.mu.Unlock()
	if cb != nil {
		cb(summary)
	}
}

// emitError resolves the turn as failed: streaming stops, the turn-local
// assistant buffer is abandoned, and the error callback fires.
func (s *Session) emitError(turnID uint64, message string) {
	s.mu.Lock()
	if s.destroyed || turnID != s.turnSeq {
		s.mu.Unlock()
		return
	}
	s.streaming = false
	cb := s.onError
	s.mu.Unlock()
	if cb != nil {
		cb(message)
	}
}

// failTurn mirrors emitError for failures the transport reports by return
// value rather than by server frame.
func (s *Session) failTurn(turnID uint64, message string) {
	s.emitError(turnID, message)
}

// completeTurn commits the buffered assistant text to history and fires
// the done callback. The commit happens at most once per turn because the
// transport invokes OnDone at most once and a stale turn fails the
// sequence check.
func (s *Session) completeTurn(turnID uint64, text string) {
	s.mu.Lock()
	if s.destroyed || turnID != s.turnSeq {
		s.mu.Unlock()
		return
	}
	if text != "" {
		s.history = append(s.history, stream.Message{Role: stream.RoleAssistant, Content: text})
	}
	s.streaming = false
	cb := s.onDone
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// endTurn clears the streaming flag without firing any callback. Used for
// cancellation and for the bookkeeping tail after a server error frame.
func (s *Session) endTurn(turnID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || turnID != s.turnSeq {
		return
	}
	s.streaming = false
}

// cancelLocked revokes the live cancellation handle and advances the turn
// sequence so the cancelled goroutine can no longer touch session state.
// Caller holds s.mu.
func (s *Session) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.turnSeq++
	s.streaming = false
}

// Compile-time interface check: the production transport satisfies the
// session's contract.
var _ Transport = (*stream.Client)(nil)
