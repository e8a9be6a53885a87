// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package diagnostics collects lightweight client-side context for bug
reports: recent user actions, captured errors, failed requests, and a
host descriptor. A Snapshot of the collector is what the chat session
sends as its one-shot diagnostic context on the first request of a
conversation.

Types are designed for JSON serialization; the server embeds the
snapshot verbatim in the generated report.
*/
package diagnostics

import (
	"time"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

// SnapshotVersion is the current schema version for snapshot output.
const SnapshotVersion = "1.0.0"

// DefaultBreadcrumbLimit caps retained user-action breadcrumbs.
const DefaultBreadcrumbLimit = 50

// DefaultErrorLimit caps retained error records.
const DefaultErrorLimit = 20

// DefaultFailedRequestLimit caps retained failed-request records.
const DefaultFailedRequestLimit = 10

// -----------------------------------------------------------------------------
// Severity Types
// -----------------------------------------------------------------------------

// Severity indicates the urgency of a captured error.
type Severity string

const (
	// SeverityInfo indicates routine, recoverable noise.
	SeverityInfo Severity = "info"

	// SeverityWarning indicates a recoverable issue was detected.
	SeverityWarning Severity = "warning"

	// SeverityError indicates an operation failed.
	SeverityError Severity = "error"

	// SeverityCritical indicates a crash or data loss scenario.
	SeverityCritical Severity = "critical"
)

// IsValid returns true if the severity is a known value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// -----------------------------------------------------------------------------
// Record Types
// -----------------------------------------------------------------------------

// Breadcrumb records a single user action or application event leading
// up to the problem being reported.
type Breadcrumb struct {
	// TimestampMs is when the event occurred (Unix milliseconds).
	TimestampMs int64 `json:"timestamp_ms"`

	// Category groups related events.
	// Examples: "navigation", "click", "network"
	Category string `json:"category"`

	// Message is a short human-readable description.
	Message string `json:"message"`

	// Data holds optional structured detail.
	Data map[string]any `json:"data,omitempty"`
}

// Timestamp returns the breadcrumb time as time.Time.
func (b *Breadcrumb) Timestamp() time.Time {
	return time.UnixMilli(b.TimestampMs)
}

// ErrorRecord captures an error observed by the application.
type ErrorRecord struct {
	// TimestampMs is when the error was captured (Unix milliseconds).
	TimestampMs int64 `json:"timestamp_ms"`

	// Message is the error text.
	Message string `json:"message"`

	// Severity indicates urgency. Defaults to SeverityError.
	Severity Severity `json:"severity"`

	// Stack is an optional stack trace or call-site hint.
	Stack string `json:"stack,omitempty"`
}

// FailedRequest records an HTTP exchange that did not succeed.
type FailedRequest struct {
	// TimestampMs is when the failure was captured (Unix milliseconds).
	TimestampMs int64 `json:"timestamp_ms"`

	// URL is the request target. Callers should strip credentials and
	// secrets before recording.
	URL string `json:"url"`

	// Status is the HTTP status code, or 0 when the request never
	// produced a response.
	Status int `json:"status"`

	// Message describes the failure.
	Message string `json:"message,omitempty"`
}

// HostInfo describes the machine the report originates from.
type HostInfo struct {
	// OS is the operating system (e.g., "darwin", "linux", "windows").
	OS string `json:"os"`

	// Arch is the CPU architecture (e.g., "amd64", "arm64").
	Arch string `json:"arch"`

	// Hostname is the machine hostname.
	Hostname string `json:"hostname"`

	// GoVersion is the Go runtime version.
	GoVersion string `json:"go_version"`

	// AppVersion is the reporting application's version.
	AppVersion string `json:"app_version,omitempty"`
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Snapshot is a point-in-time copy of everything the collector holds.
// It is safe to serialize and retain after further collector mutation.
type Snapshot struct {
	// Version is the snapshot schema version.
	Version string `json:"version"`

	// TimestampMs is when the snapshot was taken (Unix milliseconds).
	TimestampMs int64 `json:"timestamp_ms"`

	// Host describes the reporting machine.
	Host HostInfo `json:"host"`

	// Breadcrumbs are the most recent user actions, oldest first.
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`

	// Errors are the most recent captured errors, oldest first.
	Errors []ErrorRecord `json:"errors,omitempty"`

	// FailedRequests are the most recent failed exchanges, oldest first.
	FailedRequests []FailedRequest `json:"failed_requests,omitempty"`

	// Tags are custom key-value pairs for categorization.
	Tags map[string]string `json:"tags,omitempty"`
}

// Timestamp returns the snapshot time as time.Time.
func (s *Snapshot) Timestamp() time.Time {
	return time.UnixMilli(s.TimestampMs)
}
