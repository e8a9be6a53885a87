// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file implements ReportChatRunner, the ChatRunner over a chat.Session.
package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/triageware/triage/pkg/chat"
	"github.com/triageware/triage/pkg/stream"
	"github.com/triageware/triage/pkg/ux"
)

// =============================================================================
// ReportChatRunner
// =============================================================================

// ReportChatRunnerConfig groups everything needed to build a
// ReportChatRunner.
//
// # Fields
//
//   - Session: Required. The configured chat session.
//   - Renderer: Required. Renders deltas, errors, and the report card.
//   - Input: Required. Where user lines come from.
//   - Snapshot: Optional. Diagnostic context sent with the first request.
//     Pass nil to omit it.
type ReportChatRunnerConfig struct {
	Session  *chat.Session
	Renderer *ux.StreamRenderer
	Input    InputReader
	Snapshot any
}

// ReportChatRunner drives an interactive bug reporting session.
//
// # Description
//
// ReportChatRunner owns the read/send/wait loop. The session streams
// replies asynchronously; the runner blocks between turns on a signal
// channel fired from the session's OnDone and OnError callbacks, so the
// prompt never appears mid-stream.
//
// # Thread Safety
//
// Run is single-threaded. Close is safe to call concurrently with Run
// and is idempotent.
//
// # Limitations
//
//   - Not reusable after Run returns
type ReportChatRunner struct {
	session  *chat.Session
	renderer *ux.StreamRenderer
	input    InputReader
	snapshot any

	// turnEnd receives one signal per finished turn, from OnDone or
	// OnError. Buffered so a callback never blocks the session
	// goroutine.
	turnEnd chan struct{}

	// summarySeen is written on the turn goroutine before turnEnd is
	// signalled and read by Run after the signal, so no lock is needed.
	summarySeen bool

	mu     sync.Mutex
	closed bool
}

var _ ChatRunner = (*ReportChatRunner)(nil)

// NewReportChatRunner creates a runner and wires the session callbacks
// to the renderer.
//
// # Description
//
// Registers OnText, OnSummary, OnError, and OnDone on the session.
// Registering replaces any handlers set earlier; the runner assumes it
// is the session's only consumer.
//
// # Outputs
//
//   - *ReportChatRunner: ready to Run
//   - error: non-nil when a required config field is missing
func NewReportChatRunner(cfg ReportChatRunnerConfig) (*ReportChatRunner, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if cfg.Input == nil {
		return nil, fmt.Errorf("input reader is required")
	}

	r := &ReportChatRunner{
		session:  cfg.Session,
		renderer: cfg.Renderer,
		input:    cfg.Input,
		snapshot: cfg.Snapshot,
		turnEnd:  make(chan struct{}, 1),
	}

	r.session.OnText(func(content string) {
		r.renderer.WriteDelta(content)
	})
	r.session.OnSummary(func(summary stream.ReportSummary) {
		r.summarySeen = true
		r.renderer.RenderSummary(summary)
	})
	r.session.OnError(func(message string) {
		r.renderer.RenderError(message)
		r.signalTurnEnd()
	})
	r.session.OnDone(func() {
		r.renderer.EndTurn()
		r.signalTurnEnd()
	})

	return r, nil
}

// Run executes the reporting loop until the report is produced, the
// user exits, or the context is cancelled.
//
// # Description
//
// Starts the session (which requests the opening greeting), then loops:
// prompt, read a line, dispatch, wait for the turn to finish. The loop
// ends cleanly once the server delivers a structured report summary.
// Special inputs:
//   - "exit" / "quit": end the session, return nil
//   - "/retry": resend the last user message after a failure
//   - empty line: re-prompt
//
// Closing stdin (Ctrl+D) ends the session like "exit". Context
// cancellation aborts any in-flight turn and returns ctx.Err().
func (r *ReportChatRunner) Run(ctx context.Context) error {
	p := ux.GetPersonality()
	if p.ShowHints {
		ux.Title("Triage")
		ux.Muted("Describe the problem in your own words. Type 'exit' to quit, '/retry' to resend.")
	}

	// Opening turn: the assistant greets and asks what went wrong.
	r.renderer.BeginTurn()
	r.session.Start(r.snapshot)
	if err := r.waitTurn(ctx); err != nil {
		return err
	}
	if r.summarySeen {
		return nil
	}

	prompt := "> "
	prompting, ownPrompt := r.input.(PromptingInputReader)
	if ownPrompt {
		prompting.SetPrompt(prompt)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !ownPrompt {
			fmt.Print(prompt)
		}

		line, err := r.input.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if line == "" {
			continue
		}
		if isExitCommand(line) {
			return nil
		}

		if isRetryCommand(line) {
			if _, ok := r.session.LastUserMessage(); !ok {
				ux.Warning("Nothing to retry yet.")
				continue
			}
			r.renderer.BeginTurn()
			r.session.Retry()
			if err := r.waitTurn(ctx); err != nil {
				return err
			}
			if r.summarySeen {
				return nil
			}
			continue
		}

		r.renderer.BeginTurn()
		r.session.SendMessage(line)
		if err := r.waitTurn(ctx); err != nil {
			return err
		}
		if r.summarySeen {
			return nil
		}
	}
}

// waitTurn blocks until the in-flight turn signals completion or the
// context is cancelled. Cancellation aborts the turn before returning.
func (r *ReportChatRunner) waitTurn(ctx context.Context) error {
	select {
	case <-r.turnEnd:
		return nil
	case <-ctx.Done():
		r.session.Abort()
		r.renderer.AbortTurn()
		return ctx.Err()
	}
}

// signalTurnEnd marks the current turn finished without blocking the
// session callback goroutine.
func (r *ReportChatRunner) signalTurnEnd() {
	select {
	case r.turnEnd <- struct{}{}:
	default:
	}
}

// Close tears down the session. Idempotent.
func (r *ReportChatRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.session.Destroy()
	return nil
}
