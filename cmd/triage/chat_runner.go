// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package main contains the triage CLI chat runner interfaces and
// implementations.
//
// This file defines the ChatRunner interface for abstracting the chat loop,
// plus the InputReader family used to read user messages. The report runner
// itself lives in chat_runner_report.go.
//
// Architecture:
//
//	cmd_chat.go → ChatRunner Interface → ReportChatRunner
//	                                     ↓
//	                                     chat.Session (from pkg/chat)
//	                                     InputReader (stdin abstraction)
//	                                     ux.StreamRenderer (from pkg/ux)
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// ChatRunner Interface
// =============================================================================

// ChatRunner defines the contract for running an interactive reporting
// session.
//
// # Description
//
// ChatRunner abstracts the chat loop so the command wiring in cmd_chat.go
// does not care how input is read or output rendered. Implementations own
// the loop: read a line, hand it to the session, wait for the turn to end.
//
// ChatRunner embeds resource cleanup through Close. Callers MUST call
// Close when done, typically via defer.
//
// # Outputs
//
// Run returns nil on a normal exit (the user typed "exit" or closed
// stdin), ctx.Err() when the context is cancelled, or an error when the
// session could not start.
//
// # Assumptions
//
//   - The underlying session is configured and ready
//   - The caller installs signal handling and cancels the context
type ChatRunner interface {
	// Run executes the chat loop until exit, error, or cancellation.
	Run(ctx context.Context) error

	// Close releases resources held by the runner. Safe to call more
	// than once.
	Close() error
}

// =============================================================================
// InputReader Interface
// =============================================================================

// InputReader abstracts user input reading for testability.
//
// # Description
//
// InputReader lets tests drive the chat loop with scripted lines instead
// of a real terminal. The production implementations wrap stdin; tests
// use MockInputReader.
//
// # Outputs
//
// ReadLine returns the trimmed line read, or io.EOF when input is
// exhausted.
type InputReader interface {
	// ReadLine reads a single line of input. Blocks until a newline
	// arrives or the source is closed.
	ReadLine() (string, error)
}

// PromptingInputReader is implemented by readers that render their own
// prompt (such as the bubbletea reader). The runner checks for this
// interface to avoid printing the prompt twice.
type PromptingInputReader interface {
	InputReader
	// SetPrompt sets the prompt string shown before input.
	SetPrompt(prompt string)
}

// =============================================================================
// StdinReader Implementation
// =============================================================================

// StdinReader implements InputReader over os.Stdin.
//
// # Description
//
// StdinReader wraps bufio.Reader for line-oriented reading. This is the
// fallback for piped input and CI; interactive terminals get
// InteractiveInputReader instead.
//
// # Thread Safety
//
// Not thread-safe. One reader per stdin.
//
// # Limitations
//
//   - Blocks until input is available; a blocked read cannot be
//     interrupted by context cancellation
//   - No line editing or history
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates a StdinReader wrapping os.Stdin.
func NewStdinReader() *StdinReader {
	return &StdinReader{
		reader: bufio.NewReader(os.Stdin),
	}
}

// ReadLine reads until newline and returns the trimmed result. Returns
// io.EOF when stdin is closed.
func (r *StdinReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// InteractiveInputReader Implementation (with history)
// =============================================================================

// InteractiveInputReader implements InputReader with history navigation.
//
// # Description
//
// InteractiveInputReader uses charmbracelet/bubbletea to provide:
//   - Up/down arrow history navigation
//   - Line editing (Ctrl+A, Ctrl+E, etc.)
//   - Proper terminal handling
//
// Falls back to StdinReader when stdin is not a TTY (piped input, CI).
//
// # Thread Safety
//
// Not thread-safe. One reader per stdin.
//
// # Limitations
//
//   - History is in-memory only, not persisted across sessions
type InteractiveInputReader struct {
	history      []string
	historyIndex int
	maxHistory   int
	prompt       string
}

// inputModel is the bubbletea model for interactive input.
type inputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // saved when navigating history
	done         bool
	cancelled    bool
}

// NewInteractiveInputReader creates an interactive reader with history.
//
// # Description
//
// Returns an InteractiveInputReader when stdin is a TTY, otherwise a
// plain StdinReader. The reader displays its own prompt; set it with
// SetPrompt.
//
// # Inputs
//
//   - maxHistory: maximum number of history entries to keep
func NewInteractiveInputReader(maxHistory int) InputReader {
	// Piped input and CI get the basic reader
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader()
	}

	return &InteractiveInputReader{
		history:      make([]string, 0, maxHistory),
		historyIndex: -1,
		maxHistory:   maxHistory,
		prompt:       "> ",
	}
}

// SetPrompt sets the prompt string rendered by the textinput component.
func (r *InteractiveInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine reads a single line with interactive history support.
//
// # Description
//
// Runs a bubbletea program until the user submits input:
//   - Enter submits
//   - Up/Down navigate history
//   - Ctrl+C clears the line and returns an empty string
//   - Ctrl+D on an empty line returns io.EOF
//
// Non-empty submissions are added to history.
func (r *InteractiveInputReader) ReadLine() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	m := inputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}

	if result.cancelled && result.textInput.Value() == "" {
		return "", io.EOF
	}

	input := strings.TrimSpace(result.textInput.Value())
	if input != "" {
		r.addToHistory(input)
	}

	return input, nil
}

// addToHistory appends an input, skipping consecutive duplicates and
// trimming the oldest entry past maxHistory.
func (r *InteractiveInputReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}

	r.history = append(r.history, input)

	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

// Init initializes the bubbletea model.
func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events for the bubbletea model.
func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			// Clear the line and return empty
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			// EOF signal
			m.cancelled = true
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}

			// Save what was typed before entering history
			if m.historyIndex == -1 {
				m.currentInput = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}

			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil

		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}

			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textInput.SetValue(m.currentInput)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the input prompt.
func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MockInputReader Implementation (for testing)
// =============================================================================

// MockInputReader implements InputReader for tests.
//
// # Description
//
// Returns predetermined inputs in order, then io.EOF. Not thread-safe;
// intended for single-threaded test scenarios.
type MockInputReader struct {
	inputs []string
	index  int
}

// NewMockInputReader creates a MockInputReader with scripted inputs.
//
// # Examples
//
//	mock := NewMockInputReader([]string{"the app crashed", "exit"})
//	line1, _ := mock.ReadLine() // "the app crashed"
//	line2, _ := mock.ReadLine() // "exit"
//	_, err := mock.ReadLine()   // io.EOF
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{
		inputs: inputs,
	}
}

// ReadLine returns the next scripted input, then io.EOF.
func (m *MockInputReader) ReadLine() (string, error) {
	if m.index >= len(m.inputs) {
		return "", io.EOF
	}
	line := m.inputs[m.index]
	m.index++
	return line, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// isExitCommand reports whether the trimmed input ends the session.
// Case-sensitive, matching "exit" and "quit" only.
func isExitCommand(input string) bool {
	return input == "exit" || input == "quit"
}

// isRetryCommand reports whether the trimmed input asks to resend the
// last user message.
func isRetryCommand(input string) bool {
	return input == "/retry"
}
