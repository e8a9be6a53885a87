// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file wires the chat command: config, logging, diagnostics,
// attachments, auth, transport, session, and runner.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/triageware/triage/cmd/triage/config"
	"github.com/triageware/triage/pkg/attachments"
	"github.com/triageware/triage/pkg/chat"
	"github.com/triageware/triage/pkg/diagnostics"
	"github.com/triageware/triage/pkg/logging"
	"github.com/triageware/triage/pkg/stream"
	"github.com/triageware/triage/pkg/ux"
)

// runChatCommand builds a ReportChatRunner from config and flags, then
// runs it until the user exits or a signal arrives.
//
// # Description
//
// Flag overrides win over the config file. SIGINT and SIGTERM cancel
// the context, which aborts any in-flight turn before exiting. A
// cancelled run exits cleanly rather than reporting an error.
func runChatCommand(parent context.Context) error {
	cfg := config.Global

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: "cli",
		Quiet:   true, // stderr belongs to the chat UI
	})
	defer logger.Close()

	endpoint := cfg.Server.Endpoint
	if flagEndpoint != "" {
		endpoint = flagEndpoint
	}
	locale := cfg.Server.Locale
	if flagLocale != "" {
		locale = flagLocale
	}

	manager := attachments.NewManager()
	for _, path := range flagAttach {
		if _, err := manager.Add(path); err != nil {
			ux.Warning(fmt.Sprintf("Skipping attachment %s: %v", path, err))
		}
	}

	var snapshot any
	if !flagNoContext {
		collector := diagnostics.NewCollector(diagnostics.Options{
			AppVersion: Version,
		})
		collector.AddBreadcrumb("cli", "chat session started", nil)
		snapshot = collector.Snapshot()
	}

	session := chat.NewSession(chat.Config{
		Transport:   stream.NewClient(endpoint),
		Resolver:    buildResolver(cfg.Auth),
		Attachments: manager,
		Locale:      locale,
		HistoryCap:  cfg.Chat.HistoryCap,
	})

	runner, err := NewReportChatRunner(ReportChatRunnerConfig{
		Session:  session,
		Renderer: ux.NewStreamRenderer(),
		Input:    NewInteractiveInputReader(50),
		Snapshot: snapshot,
	})
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("chat session starting", "endpoint", endpoint)
	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println()
			ux.Muted("Session ended.")
			return nil
		}
		return err
	}
	return nil
}

// buildResolver maps the auth config to a header resolver. A static
// token wins over a token environment variable; neither means
// unauthenticated requests. An unset token variable is treated as "no
// auth configured" rather than an error, so the default config works
// against a local unauthenticated server.
func buildResolver(auth config.AuthConfig) chat.HeaderResolver {
	switch {
	case auth.Token != "":
		return chat.NewBearerTokenResolver(auth.Token)
	case auth.TokenEnv != "" && os.Getenv(auth.TokenEnv) != "":
		return chat.NewEnvTokenResolver(auth.TokenEnv)
	default:
		return nil
	}
}
