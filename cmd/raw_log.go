// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/chronostat/pkg/hostsync"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display every line the appliance sends",
	Long: `Continuously display the lines sent by the clock appliance as they
arrive, each with a timestamp. Blank lines are skipped.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	// Open connection (serial or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chronostat - Raw Line Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	return logLines(conn, out)
}

// logLines copies lines from r to out with a timestamp until r closes
func logLines(r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Split(hostsync.SplitLines)
	for sc.Scan() {
		fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05.000"), sc.Text())
	}

	// For WebSocket connections, a read error usually means the connection
	// is permanently closed - exit gracefully
	if err := sc.Err(); err != nil && err != ErrConnectionClosed {
		return fmt.Errorf("read: %w", err)
	}
	fmt.Fprintln(out, "Connection closed")
	return nil
}
