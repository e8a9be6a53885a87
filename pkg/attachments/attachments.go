// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package attachments tracks the metadata of files a user wants to attach
// to a bug report. Only descriptors travel with chat requests; the bytes
// themselves are uploaded out of band, so the manager never reads file
// content.
package attachments

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"github.com/triageware/triage/pkg/stream"
)

// DefaultMaxAttachments caps how many descriptors a manager accepts.
const DefaultMaxAttachments = 10

// Manager holds attachment descriptors for one report. Safe for
// concurrent use.
type Manager struct {
	mu   sync.Mutex
	max  int
	meta []stream.AttachmentMeta
}

// NewManager creates a manager with the default attachment cap.
func NewManager() *Manager {
	return NewManagerWithLimit(DefaultMaxAttachments)
}

// NewManagerWithLimit creates a manager accepting at most limit
// descriptors. Non-positive limits fall back to the default.
func NewManagerWithLimit(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultMaxAttachments
	}
	return &Manager{max: limit}
}

// Add stats the file at path and records its name, size, and a MIME type
// guessed from the extension. Unknown extensions record
// "application/octet-stream".
func (m *Manager) Add(path string) (stream.AttachmentMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stream.AttachmentMeta{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return stream.AttachmentMeta{}, fmt.Errorf("attachment %s is a directory", path)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	meta := stream.AttachmentMeta{
		Name: filepath.Base(path),
		Size: info.Size(),
		Type: contentType,
	}
	return meta, m.AddMeta(meta)
}

// AddMeta records a descriptor directly, for callers that already know
// the file's shape (e.g. in-memory screenshots).
func (m *Manager) AddMeta(meta stream.AttachmentMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.meta) >= m.max {
		return fmt.Errorf("attachment limit of %d reached", m.max)
	}
	m.meta = append(m.meta, meta)
	return nil
}

// List returns a copy of the recorded descriptors in insertion order.
// It satisfies the chat session's attachment provider contract.
func (m *Manager) List() []stream.AttachmentMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]stream.AttachmentMeta, len(m.meta))
	copy(out, m.meta)
	return out
}

// Clear discards all recorded descriptors.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = nil
}
