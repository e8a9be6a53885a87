// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"context"
	"testing"
)

func TestStaticHeaderResolverCopiesHeaders(t *testing.T) {
	src := map[string]string{"X-Api-Key": "abc"}
	r := NewStaticHeaderResolver(src)
	src["X-Api-Key"] = "mutated"

	headers, err := r.ResolveHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["X-Api-Key"] != "abc" {
		t.Fatalf("resolver must be insulated from caller mutation, got %v", headers)
	}

	// The returned map is a copy too.
	headers["X-Api-Key"] = "scribbled"
	again, _ := r.ResolveHeaders(context.Background())
	if again["X-Api-Key"] != "abc" {
		t.Fatalf("resolved map must be a fresh copy, got %v", again)
	}
}

func TestBearerTokenResolver(t *testing.T) {
	r := NewBearerTokenResolver("tok-9")
	headers, err := r.ResolveHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["Authorization"] != "Bearer tok-9" {
		t.Fatalf("unexpected headers: %v", headers)
	}
}

func TestEnvTokenResolver(t *testing.T) {
	t.Setenv("TRIAGE_TEST_TOKEN", "env-tok")
	r := NewEnvTokenResolver("TRIAGE_TEST_TOKEN")
	headers, err := r.ResolveHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["Authorization"] != "Bearer env-tok" {
		t.Fatalf("unexpected headers: %v", headers)
	}
}

func TestEnvTokenResolverMissingVariable(t *testing.T) {
	t.Setenv("TRIAGE_TEST_TOKEN", "")
	r := NewEnvTokenResolver("TRIAGE_TEST_TOKEN")
	if _, err := r.ResolveHeaders(context.Background()); err == nil {
		t.Fatal("expected error for unset token variable")
	}
}
