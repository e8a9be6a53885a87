// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diagnostics

import (
	"os"
	"runtime"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Options configures a Collector. The zero value is usable; limits fall
// back to the package defaults.
type Options struct {
	// AppVersion tags snapshots with the application version.
	AppVersion string

	// BreadcrumbLimit caps retained breadcrumbs. Default: 50.
	BreadcrumbLimit int

	// ErrorLimit caps retained error records. Default: 20.
	ErrorLimit int

	// FailedRequestLimit caps retained failed requests. Default: 10.
	FailedRequestLimit int

	// Tags are attached to every snapshot.
	Tags map[string]string
}

func (o Options) withDefaults() Options {
	if o.BreadcrumbLimit <= 0 {
		o.BreadcrumbLimit = DefaultBreadcrumbLimit
	}
	if o.ErrorLimit <= 0 {
		o.ErrorLimit = DefaultErrorLimit
	}
	if o.FailedRequestLimit <= 0 {
		o.FailedRequestLimit = DefaultFailedRequestLimit
	}
	return o
}

// -----------------------------------------------------------------------------
// Collector
// -----------------------------------------------------------------------------

// Collector accumulates diagnostic context in bounded buffers. Each
// buffer keeps only the most recent entries; older ones are discarded.
// All methods are safe for concurrent use.
type Collector struct {
	mu   sync.Mutex
	opts Options
	now  func() time.Time

	breadcrumbs    []Breadcrumb
	errors         []ErrorRecord
	failedRequests []FailedRequest
}

// NewCollector creates a collector using the wall clock.
func NewCollector(opts Options) *Collector {
	return NewCollectorWithClock(opts, time.Now)
}

// NewCollectorWithClock creates a collector with an injected clock.
// Tests use this to produce deterministic timestamps.
func NewCollectorWithClock(opts Options, now func() time.Time) *Collector {
	return &Collector{
		opts: opts.withDefaults(),
		now:  now,
	}
}

// AddBreadcrumb records a user action or application event. When the
// breadcrumb buffer is full the oldest entry is dropped.
func (c *Collector) AddBreadcrumb(category, message string, data map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breadcrumbs = append(c.breadcrumbs, Breadcrumb{
		TimestampMs: c.now().UnixMilli(),
		Category:    category,
		Message:     message,
		Data:        data,
	})
	if n := len(c.breadcrumbs) - c.opts.BreadcrumbLimit; n > 0 {
		c.breadcrumbs = c.breadcrumbs[n:]
	}
}

// RecordError captures an error with SeverityError and no stack.
func (c *Collector) RecordError(err error) {
	if err == nil {
		return
	}
	c.RecordErrorMessage(err.Error(), SeverityError, "")
}

// RecordErrorMessage captures an error by message, with an explicit
// severity and optional stack text. Unknown severities are coerced to
// SeverityError.
func (c *Collector) RecordErrorMessage(message string, severity Severity, stack string) {
	if !severity.IsValid() {
		severity = SeverityError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, ErrorRecord{
		TimestampMs: c.now().UnixMilli(),
		Message:     message,
		Severity:    severity,
		Stack:       stack,
	})
	if n := len(c.errors) - c.opts.ErrorLimit; n > 0 {
		c.errors = c.errors[n:]
	}
}

// RecordFailedRequest captures a failed HTTP exchange. Status 0 means the
// request never produced a response.
func (c *Collector) RecordFailedRequest(url string, status int, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests = append(c.failedRequests, FailedRequest{
		TimestampMs: c.now().UnixMilli(),
		URL:         url,
		Status:      status,
		Message:     message,
	})
	if n := len(c.failedRequests) - c.opts.FailedRequestLimit; n > 0 {
		c.failedRequests = c.failedRequests[n:]
	}
}

// Snapshot returns a point-in-time copy of the collected context plus a
// host descriptor. The returned value shares no mutable state with the
// collector.
func (c *Collector) Snapshot() Snapshot {
	hostname, _ := os.Hostname()

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Version:     SnapshotVersion,
		TimestampMs: c.now().UnixMilli(),
		Host: HostInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			Hostname:   hostname,
			GoVersion:  runtime.Version(),
			AppVersion: c.opts.AppVersion,
		},
	}
	if len(c.breadcrumbs) > 0 {
		snap.Breadcrumbs = append([]Breadcrumb(nil), c.breadcrumbs...)
	}
	if len(c.errors) > 0 {
		snap.Errors = append([]ErrorRecord(nil), c.errors...)
	}
	if len(c.failedRequests) > 0 {
		snap.FailedRequests = append([]FailedRequest(nil), c.failedRequests...)
	}
	if len(c.opts.Tags) > 0 {
		tags := make(map[string]string, len(c.opts.Tags))
		for k, v := range c.opts.Tags {
			tags[k] = v
		}
		snap.Tags = tags
	}
	return snap
}

// Clear discards all collected records. Host information and tags are
// configuration, not records, and survive a clear.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breadcrumbs = nil
	c.errors = nil
	c.failedRequests = nil
}
