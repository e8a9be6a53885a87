// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"testing"
)

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"f", PersonalityFull},
		{"FULL", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"s", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{"bogus", PersonalityStandard},
		{"", PersonalityStandard},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.input); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSetAndGetPersonality(t *testing.T) {
	original := GetPersonality()
	defer SetPersonality(original)

	SetPersonality(Personality{Level: PersonalityMinimal, Theme: "default", ShowHints: false})
	p := GetPersonality()
	if p.Level != PersonalityMinimal {
		t.Errorf("expected minimal level, got %q", p.Level)
	}
	if p.ShowHints {
		t.Error("expected hints disabled")
	}

	SetPersonalityLevel(PersonalityMachine)
	if GetPersonality().Level != PersonalityMachine {
		t.Error("SetPersonalityLevel did not take effect")
	}
}

func TestInitPersonalityFromEnvironment(t *testing.T) {
	original := GetPersonality()
	defer SetPersonality(original)

	t.Setenv("TRIAGE_PERSONALITY", "minimal")
	InitPersonality()
	if GetPersonality().Level != PersonalityMinimal {
		t.Errorf("expected env override to minimal, got %q", GetPersonality().Level)
	}
}

func TestDefaultPersonality(t *testing.T) {
	p := DefaultPersonality()
	if p.Level != PersonalityFull {
		t.Errorf("expected full default level, got %q", p.Level)
	}
	if !p.ShowHints {
		t.Error("expected hints enabled by default")
	}
}
