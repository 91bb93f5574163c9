// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/chronostat/pkg/serialline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactive TUI simulating the clock appliance",
	Long: `Run the clock appliance in an interactive terminal UI.

The display, buttons and serial port of the appliance are simulated:

  m          short press MODE (cycle VIEW, SET TIME, SET ALARM, UART UPDATE)
  R          hold MODE past the reset threshold (system reset)
  up / k     short press UP          U   hold UP (auto-repeat)
  down / j   short press DOWN        D   hold DOWN (auto-repeat)
  n / enter  short press NEXT
  tab        focus the serial console, enter sends a line, esc leaves
  q          quit

Without --port or --url the serial peer is the local console: typed lines
are delivered to the appliance receiver terminated by CR LF, and every line
the appliance sends appears in the transcript. With a connection, received
bytes are fed to the receiver and the link reconnects automatically.

Logs go to --log-file when set and are discarded otherwise.`,
	RunE: runSimulator,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSimulator(cmd *cobra.Command, args []string) error {
	log, closer, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	tr := newTranscript(maxTranscriptEntries)
	app, err := newAppliance(settings, log, serialline.WithSendHook(tr.addSent))
	if err != nil {
		return err
	}

	var link *linkManager
	connInfo := "local console"
	if hasConnection() {
		conn, info, err := OpenConnection()
		if err != nil {
			return err
		}
		connInfo = info
		link = newLinkManager(conn, info, app.port, log.With("component", "link"))
	}

	m := initialRunModel(app, link, tr, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if link != nil {
		link.notify = func(msg any) { p.Send(msg) }
		link.start()
		defer link.stop()
	}

	log.Info("simulator started", "conn", connInfo, "tick", settings.Tick())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	log.Info("simulator stopped", "state", app.state())
	return nil
}
