// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"context"
	"fmt"
	"os"
)

// HeaderResolver resolves authentication headers before each request.
//
// Resolution is asynchronous by contract (it may hit a token endpoint or a
// keychain), hence the context. A resolver failure aborts the turn and is
// reported through the session's error callback as "Authentication error";
// it never propagates as a panic or a returned error from session methods.
type HeaderResolver interface {
	ResolveHeaders(ctx context.Context) (map[string]string, error)
}

// StaticHeaderResolver returns a fixed header set on every resolve.
// Suitable for long-lived API keys.
type StaticHeaderResolver struct {
	headers map[string]string
}

// NewStaticHeaderResolver copies the given headers into a resolver.
func NewStaticHeaderResolver(headers map[string]string) *StaticHeaderResolver {
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	return &StaticHeaderResolver{headers: copied}
}

// NewBearerTokenResolver builds a resolver sending "Authorization: Bearer <token>".
func NewBearerTokenResolver(token string) *StaticHeaderResolver {
	return NewStaticHeaderResolver(map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func (r *StaticHeaderResolver) ResolveHeaders(_ context.Context) (map[string]string, error) {
	headers := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		headers[k] = v
	}
	return headers, nil
}

// EnvTokenResolver reads a bearer token from an environment variable at
// resolve time, so token rotation does not require a restart.
type EnvTokenResolver struct {
	envVar string
}

// NewEnvTokenResolver creates a resolver reading the named variable.
func NewEnvTokenResolver(envVar string) *EnvTokenResolver {
	return &EnvTokenResolver{envVar: envVar}
}

func (r *EnvTokenResolver) ResolveHeaders(_ context.Context) (map[string]string, error) {
	token := os.Getenv(r.envVar)
	if token == "" {
		return nil, fmt.Errorf("auth token variable %s is not set", r.envVar)
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// Compile-time interface checks.
var (
	_ HeaderResolver = (*StaticHeaderResolver)(nil)
	_ HeaderResolver = (*EnvTokenResolver)(nil)
)
