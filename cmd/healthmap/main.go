// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Command healthmap keeps a live map of wearable alerts and telemetry in
// sync with the organization backend.
//
// Subcommands:
//
//	serve     run the refresh scheduler, WebSocket feed and HTTP API
//	snapshot  fetch once, run the pipeline and print tier counts
//	version   print build information
//
// Configuration is layered: defaults, then config.yaml (or CONFIG_PATH),
// then environment variables.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "healthmap",
		Short: "Wearable fleet alert and telemetry map synchronization",
		Long: `healthmap polls the organization snapshot API, buckets alerts and
device telemetry into map layers and pushes layer, center and info panel
state to connected dashboards.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSnapshotCmd())
	root.AddCommand(newTokenCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("healthmap %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
