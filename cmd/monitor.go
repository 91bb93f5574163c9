// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/chronostat/pkg/hostsync"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Track update sessions and their failures",
	Long: `Watch the appliance output and track serial update sessions.

This command classifies each line the appliance sends and detects:
  - Rejected responses (out of range or unknown day names)
  - Response timeouts, per prompted field
  - Sessions that give up after exhausting their retries
  - Statistics and trends (line rate, session success rate)

By default, only errors are displayed. Use --show-all to display every line.

Statistics summaries are printed at a configurable interval in text mode.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all lines (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if statsInterval < 1 {
		statsInterval = 1
	}

	if useTUI {
		return runMonitorTUI(conn, connInfo)
	}
	return runMonitorText(conn, connInfo, cmd.OutOrStdout())
}

// readEvents classifies lines from r until it closes
func readEvents(r io.Reader, events chan<- hostsync.Event) {
	defer close(events)

	sc := bufio.NewScanner(r)
	sc.Split(hostsync.SplitLines)
	for sc.Scan() {
		events <- hostsync.Classify(sc.Text())
	}
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI(conn Connection, connInfo string) error {
	m := initialMonitorModel(connInfo, showAll)
	p := tea.NewProgram(m)

	events := make(chan hostsync.Event, 64)
	go readEvents(conn, events)
	go func() {
		for ev := range events {
			p.Send(monitorEventMsg(ev))
		}
		p.Send(monitorClosedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runMonitorText runs the monitor in text mode
func runMonitorText(conn Connection, connInfo string, out io.Writer) error {
	fmt.Fprintf(out, "Chronostat - Update Session Monitor\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Fprintf(out, "Mode: All lines\n")
	} else {
		fmt.Fprintf(out, "Mode: Errors only\n")
	}
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	stats := hostsync.NewSessionStats()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	events := make(chan hostsync.Event, 64)
	go readEvents(conn, events)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Fprintln(out, "Connection closed")
				fmt.Fprint(out, stats.String())
				return nil
			}
			stats.Update(ev)
			printEvent(out, ev, showAll)

		case <-statsTicker.C:
			fmt.Fprintln(out)
			fmt.Fprint(out, stats.String())
			fmt.Fprintln(out)
		}
	}
}

// printEvent prints an event, highlighting errors
func printEvent(out io.Writer, ev hostsync.Event, all bool) {
	switch {
	case ev.Kind == hostsync.EventFailure:
		fmt.Fprintf(out, "\033[1;31m%s\033[0m\n", ev.Format())
		fmt.Fprintf(out, "  >>> UPDATE FAILED <<<\n\n")
	case ev.Kind.IsError():
		fmt.Fprintf(out, "\033[1;33m%s\033[0m\n", ev.Format())
	case ev.Kind == hostsync.EventComplete:
		fmt.Fprintf(out, "\033[1;32m%s\033[0m\n\n", ev.Format())
	case all:
		fmt.Fprintln(out, ev.Format())
	}
}
