// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/chronostat/pkg/hostsync"
)

const syncTimeLayout = "2006-01-02 15:04:05"

var (
	syncTime    string
	syncTimeout time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set the appliance clock over its serial update session",
	Long: `Answer a serial update session of the clock appliance.

Put the appliance in UART UPDATE mode (short press MODE three times from the
time view). This command answers each field prompt with the host time, or
with --time "YYYY-MM-DD HH:MM:SS" when given, and exits when the appliance
reports completion.

The exit status is non-zero when the appliance gives up, the link closes or
--timeout elapses first.

Supports both serial and WebSocket connections.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&syncTime, "time", "", `Time to send instead of host time ("YYYY-MM-DD HH:MM:SS")`)
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 2*time.Minute, "Give up after this long (0 waits forever)")
}

func runSync(cmd *cobra.Command, args []string) error {
	log, closer, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := []hostsync.Option{hostsync.WithLogger(log.With("component", "sync"))}
	if syncTime != "" {
		t, err := time.ParseInLocation(syncTimeLayout, syncTime, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --time %q: %w", syncTime, err)
		}
		opts = append(opts, hostsync.WithRecord(hostsync.RecordFromTime(t)))
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, syncTimeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chronostat - Clock Sync\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Waiting for the appliance to enter UART UPDATE mode...\n\n")

	res, err := hostsync.New(conn, opts...).Run(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no completed update within %s (%d fields answered)", syncTimeout, res.Answered)
		}
		return fmt.Errorf("sync failed after %d fields: %w", res.Answered, err)
	}

	fmt.Fprintf(out, "Clock set to %s\n", res.Record)
	return nil
}
