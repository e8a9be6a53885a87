// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/triageware/triage/pkg/stream"
)

// StreamRenderer writes one chat turn to the terminal: a spinner while
// waiting for the first token, then deltas as they arrive, then a report
// card if the turn produced a structured summary.
//
// # Limitations
//
//	A renderer handles one turn at a time. Interleaving BeginTurn calls
//	without an intervening EndTurn corrupts the spinner state.
type StreamRenderer struct {
	writer      io.Writer
	personality PersonalityLevel
	spinner     *Spinner
	buffered    strings.Builder
	wroteDelta  bool
}

// NewStreamRenderer creates a renderer writing to stdout with the
// current personality.
func NewStreamRenderer() *StreamRenderer {
	return &StreamRenderer{
		writer:      os.Stdout,
		personality: GetPersonality().Level,
	}
}

// NewStreamRendererWithWriter creates a renderer with a custom writer
// and personality (for testing).
func NewStreamRendererWithWriter(w io.Writer, personality PersonalityLevel) *StreamRenderer {
	return &StreamRenderer{
		writer:      w,
		personality: personality,
	}
}

// BeginTurn resets per-turn state and starts the waiting indicator.
func (r *StreamRenderer) BeginTurn() {
	r.buffered.Reset()
	r.wroteDelta = false
	if r.personality == PersonalityMachine {
		return
	}
	r.spinner = NewSpinner("Thinking...")
	r.spinner.Start()
}

// WriteDelta prints one streamed text delta. Machine mode buffers the
// turn and emits it whole at EndTurn so output stays line-oriented.
func (r *StreamRenderer) WriteDelta(content string) {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
	r.wroteDelta = true
	if r.personality == PersonalityMachine {
		r.buffered.WriteString(content)
		return
	}
	fmt.Fprint(r.writer, content)
}

// EndTurn finalizes the turn output.
func (r *StreamRenderer) EndTurn() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
	if r.personality == PersonalityMachine {
		if r.buffered.Len() > 0 {
			fmt.Fprintf(r.writer, "REPLY: %s\n", r.buffered.String())
			r.buffered.Reset()
		}
		return
	}
	if r.wroteDelta {
		fmt.Fprintln(r.writer)
	}
}

// AbortTurn discards a turn without emitting its partial output. Used
// when the turn is cancelled mid-stream.
func (r *StreamRenderer) AbortTurn() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
	r.buffered.Reset()
	if r.personality != PersonalityMachine && r.wroteDelta {
		fmt.Fprintln(r.writer)
	}
	r.wroteDelta = false
}

// RenderError prints a turn failure.
func (r *StreamRenderer) RenderError(message string) {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "ERROR: %s\n", message)
		return
	}
	fmt.Fprintf(r.writer, "%s %s\n", IconError.Render(), Styles.Error.Render(message))
}

// RenderSummary prints the structured bug report card.
func (r *StreamRenderer) RenderSummary(summary stream.ReportSummary) {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
	fmt.Fprintln(r.writer, SummaryCard(summary, r.personality))
}

// SummaryCard formats a report summary for the given personality. The
// machine variant is stable "FIELD: value" lines for scripting.
func SummaryCard(summary stream.ReportSummary, personality PersonalityLevel) string {
	if personality == PersonalityMachine {
		var b strings.Builder
		fmt.Fprintf(&b, "REPORT_TITLE: %s\n", summary.Title)
		fmt.Fprintf(&b, "REPORT_CATEGORY: %s\n", summary.Category)
		fmt.Fprintf(&b, "REPORT_SEVERITY: %s\n", summary.Severity)
		fmt.Fprintf(&b, "REPORT_DESCRIPTION: %s\n", summary.Description)
		for i, step := range summary.StepsToReproduce {
			fmt.Fprintf(&b, "REPORT_STEP_%d: %s\n", i+1, step)
		}
		if summary.ExpectedBehavior != "" {
			fmt.Fprintf(&b, "REPORT_EXPECTED: %s\n", summary.ExpectedBehavior)
		}
		if summary.ActualBehavior != "" {
			fmt.Fprintf(&b, "REPORT_ACTUAL: %s\n", summary.ActualBehavior)
		}
		if len(summary.Tags) > 0 {
			fmt.Fprintf(&b, "REPORT_TAGS: %s\n", strings.Join(summary.Tags, ","))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	var body strings.Builder
	body.WriteString(Styles.Subtitle.Render(labelLine("Category", summary.Category)))
	body.WriteString("\n")
	body.WriteString(severityStyle(summary.Severity).Render(labelLine("Severity", summary.Severity)))
	if summary.Description != "" {
		body.WriteString("\n\n")
		body.WriteString(summary.Description)
	}
	if len(summary.StepsToReproduce) > 0 {
		body.WriteString("\n\n")
		body.WriteString(Styles.Bold.Render("Steps to reproduce"))
		for i, step := range summary.StepsToReproduce {
			fmt.Fprintf(&body, "\n  %d. %s", i+1, step)
		}
	}
	if summary.ExpectedBehavior != "" {
		body.WriteString("\n\n")
		body.WriteString(Styles.Bold.Render("Expected: "))
		body.WriteString(summary.ExpectedBehavior)
	}
	if summary.ActualBehavior != "" {
		body.WriteString("\n")
		body.WriteString(Styles.Bold.Render("Actual:   "))
		body.WriteString(summary.ActualBehavior)
	}
	if len(summary.Tags) > 0 {
		body.WriteString("\n\n")
		body.WriteString(Styles.Muted.Render(strings.Join(summary.Tags, " · ")))
	}

	title := fmt.Sprintf("%s %s", IconReport, summary.Title)
	card := Styles.Box.Width(72)
	return card.Render(Styles.Title.Render(title) + "\n\n" + body.String())
}

func labelLine(label, value string) string {
	return fmt.Sprintf("%s: %s", label, value)
}

func severityStyle(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "critical", "high":
		return Styles.Error
	case "medium":
		return Styles.Warning
	default:
		return Styles.Muted
	}
}
