// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"github.com/go-playground/validator/v10"
)

type TriageConfig struct {
	// Server: where the report service lives
	Server ServerConfig `yaml:"server" validate:"required"`

	// Auth: how requests are authenticated
	Auth AuthConfig `yaml:"auth"`

	// Chat: conversation tunables
	Chat ChatConfig `yaml:"chat"`

	// Logging: log destinations and level
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Endpoint string `yaml:"endpoint" validate:"required,url"` // e.g. http://localhost:8080
	Locale   string `yaml:"locale,omitempty"`                 // e.g. en-US
}

type AuthConfig struct {
	// Token is a static bearer token. Prefer TokenEnv so the token stays
	// out of the config file.
	Token string `yaml:"token,omitempty"`

	// TokenEnv names an environment variable read at request time.
	TokenEnv string `yaml:"token_env,omitempty"`
}

type ChatConfig struct {
	// HistoryCap bounds conversation length before the summary nudge.
	HistoryCap int `yaml:"history_cap,omitempty" validate:"omitempty,gte=2,lte=200"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir,omitempty"`
}

// Validate checks the config against its struct tags.
func (c *TriageConfig) Validate() error {
	return validator.New().Struct(c)
}

func DefaultConfig() TriageConfig {
	return TriageConfig{
		Server: ServerConfig{
			Endpoint: "http://localhost:8080",
			Locale:   "",
		},
		Auth: AuthConfig{
			TokenEnv: "TRIAGE_TOKEN",
		},
		Chat: ChatConfig{
			HistoryCap: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.triage/logs",
		},
	}
}
