// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import "testing"

// TestDefaultConfig_Valid verifies the shipped defaults pass validation.
func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

// TestValidate_HistoryCapBounds verifies the history cap range check.
func TestValidate_HistoryCapBounds(t *testing.T) {
	tests := []struct {
		name    string
		cap     int
		wantErr bool
	}{
		{"zero uses default", 0, false},
		{"minimum", 2, false},
		{"maximum", 200, false},
		{"below minimum", 1, true},
		{"above maximum", 201, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Chat.HistoryCap = tt.cap
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() with cap %d: err = %v, wantErr %v", tt.cap, err, tt.wantErr)
			}
		})
	}
}

// TestValidate_LoggingLevel verifies only known levels are accepted.
func TestValidate_LoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := DefaultConfig()
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() rejected level %q: %v", level, err)
		}
	}

	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted unknown level \"verbose\"")
	}
}

// TestValidate_RequiresEndpoint verifies the endpoint must be present.
func TestValidate_RequiresEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted empty endpoint")
	}
}
