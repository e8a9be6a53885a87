// Copyright (C) 2025 Triageware (oss@triageware.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/triageware/triage/pkg/ux"
)

// ============================================================================
// Flags
// ============================================================================

var (
	flagPersonality string
	flagEndpoint    string
	flagLocale      string
	flagAttach      []string
	flagNoContext   bool
)

// ============================================================================
// Commands
// ============================================================================

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Turn a complaint into a structured bug report",
	Long: `Triage is a conversational bug reporting client.

Describe what went wrong in plain language and the assistant asks
follow-up questions until it can produce a structured bug report:
category, reproduction steps, expected and actual behavior, severity.`,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive bug reporting session",
	Long: `Starts a conversation with the report assistant.

The first request carries a diagnostic snapshot of this machine
(OS, architecture, recent errors) unless --no-context is given.
Type 'exit' or press Ctrl+D to end the session, or '/retry' to
resend the last message after a failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChatCommand(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the triage version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("triage %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPersonality, "personality", "",
		"Output style: full, standard, minimal, or machine (overrides TRIAGE_PERSONALITY)")

	chatCmd.Flags().StringVar(&flagEndpoint, "endpoint", "",
		"Report service endpoint (overrides the config file)")
	chatCmd.Flags().StringVar(&flagLocale, "locale", "",
		"Locale hint sent with each request, e.g. en-US")
	chatCmd.Flags().StringArrayVar(&flagAttach, "attach", nil,
		"File to attach metadata for (repeatable)")
	chatCmd.Flags().BoolVar(&flagNoContext, "no-context", false,
		"Do not send the diagnostic snapshot with the first request")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(func() {
		if flagPersonality != "" {
			ux.SetPersonalityLevel(ux.ParsePersonalityLevel(flagPersonality))
		}
	})
}
