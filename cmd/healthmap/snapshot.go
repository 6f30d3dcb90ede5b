// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/pipeline"
	"github.com/tomtom215/healthmap/internal/snapshot"
)

// snapshotSummary is the --json output of the snapshot command.
type snapshotSummary struct {
	Selection models.Selection    `json:"selection"`
	Alerts    int                 `json:"alerts"`
	Telemetry int                 `json:"telemetry"`
	Counts    map[models.Tier]int `json:"counts"`
	Total     int                 `json:"total"`
}

func newSnapshotCmd() *cobra.Command {
	var (
		sel    models.Selection
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch one snapshot and print layer counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			snap, err := snapshot.NewClient(cfg.Backend).Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetch snapshot: %w", err)
			}
			return printSummary(cmd.OutOrStdout(), summarize(snap, sel), asJSON)
		},
	}

	cmd.Flags().StringVar(&sel.DeptID, "dept", "", "Department filter")
	cmd.Flags().StringVar(&sel.UserID, "user", "", "User filter")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func summarize(snap models.Snapshot, sel models.Selection) snapshotSummary {
	tiers := pipeline.Run(snap, sel)
	return snapshotSummary{
		Selection: sel,
		Alerts:    len(snap.Alerts),
		Telemetry: len(snap.Telemetry),
		Counts:    tiers.Counts(),
		Total:     tiers.Total(),
	}
}

func printSummary(w io.Writer, s snapshotSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintf(w, "records: %d alerts, %d telemetry\n", s.Alerts, s.Telemetry)
	for _, tier := range models.TierOrder {
		fmt.Fprintf(w, "%-16s %d\n", tier, s.Counts[tier])
	}
	fmt.Fprintf(w, "%-16s %d\n", "total", s.Total)
	return nil
}
