// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diagnostics

import (
	"errors"
	"fmt"
	"runtime"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBreadcrumbRingDropsOldest(t *testing.T) {
	c := NewCollectorWithClock(Options{BreadcrumbLimit: 3}, fixedClock(time.UnixMilli(1000)))
	for i := 0; i < 5; i++ {
		c.AddBreadcrumb("click", fmt.Sprintf("button-%d", i), nil)
	}

	snap := c.Snapshot()
	if len(snap.Breadcrumbs) != 3 {
		t.Fatalf("expected 3 breadcrumbs, got %d", len(snap.Breadcrumbs))
	}
	if snap.Breadcrumbs[0].Message != "button-2" || snap.Breadcrumbs[2].Message != "button-4" {
		t.Fatalf("expected oldest-first window [button-2..button-4], got %+v", snap.Breadcrumbs)
	}
}

func TestErrorRecords(t *testing.T) {
	now := time.UnixMilli(42_000)
	c := NewCollectorWithClock(Options{}, fixedClock(now))

	c.RecordError(errors.New("boom"))
	c.RecordErrorMessage("bad state", "not-a-severity", "stack here")
	c.RecordError(nil)

	snap := c.Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 error records, got %d", len(snap.Errors))
	}
	if snap.Errors[0].Message != "boom" || snap.Errors[0].Severity != SeverityError {
		t.Fatalf("unexpected first record: %+v", snap.Errors[0])
	}
	if snap.Errors[1].Severity != SeverityError {
		t.Fatalf("invalid severity must coerce to error, got %q", snap.Errors[1].Severity)
	}
	if snap.Errors[1].Stack != "stack here" {
		t.Fatalf("expected stack retained, got %q", snap.Errors[1].Stack)
	}
	if snap.Errors[0].TimestampMs != now.UnixMilli() {
		t.Fatalf("expected injected clock timestamp, got %d", snap.Errors[0].TimestampMs)
	}
}

func TestFailedRequestLimit(t *testing.T) {
	c := NewCollectorWithClock(Options{FailedRequestLimit: 2}, fixedClock(time.UnixMilli(0)))
	c.RecordFailedRequest("http://a", 500, "server error")
	c.RecordFailedRequest("http://b", 0, "connection refused")
	c.RecordFailedRequest("http://c", 404, "not found")

	snap := c.Snapshot()
	if len(snap.FailedRequests) != 2 {
		t.Fatalf("expected 2 failed requests, got %d", len(snap.FailedRequests))
	}
	if snap.FailedRequests[0].URL != "http://b" || snap.FailedRequests[1].URL != "http://c" {
		t.Fatalf("expected most recent two retained, got %+v", snap.FailedRequests)
	}
}

func TestSnapshotHostAndTags(t *testing.T) {
	c := NewCollector(Options{
		AppVersion: "1.4.2",
		Tags:       map[string]string{"channel": "beta"},
	})

	snap := c.Snapshot()
	if snap.Version != SnapshotVersion {
		t.Fatalf("unexpected schema version %q", snap.Version)
	}
	if snap.Host.OS != runtime.GOOS || snap.Host.Arch != runtime.GOARCH {
		t.Fatalf("unexpected host info: %+v", snap.Host)
	}
	if snap.Host.AppVersion != "1.4.2" {
		t.Fatalf("expected app version on host info, got %q", snap.Host.AppVersion)
	}
	if snap.Tags["channel"] != "beta" {
		t.Fatalf("expected tags on snapshot, got %v", snap.Tags)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	c := NewCollectorWithClock(Options{}, fixedClock(time.UnixMilli(0)))
	c.AddBreadcrumb("nav", "open settings", nil)

	snap := c.Snapshot()
	c.AddBreadcrumb("nav", "close settings", nil)
	if len(snap.Breadcrumbs) != 1 {
		t.Fatalf("snapshot must not track later mutation, got %d breadcrumbs", len(snap.Breadcrumbs))
	}
}

func TestClearKeepsConfiguration(t *testing.T) {
	c := NewCollector(Options{AppVersion: "2.0.0"})
	c.AddBreadcrumb("click", "submit", nil)
	c.RecordError(errors.New("x"))
	c.RecordFailedRequest("http://a", 500, "")

	c.Clear()
	snap := c.Snapshot()
	if len(snap.Breadcrumbs) != 0 || len(snap.Errors) != 0 || len(snap.FailedRequests) != 0 {
		t.Fatalf("expected empty records after clear, got %+v", snap)
	}
	if snap.Host.AppVersion != "2.0.0" {
		t.Fatal("clear must not discard configuration")
	}
}

func TestSeverityIsValid(t *testing.T) {
	valid := []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("expected %q valid", s)
		}
	}
	if Severity("fatal").IsValid() {
		t.Error("unknown severity must be invalid")
	}
}
