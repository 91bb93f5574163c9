// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the clock appliance headless, driven by stdin commands",
	Long: `Run the clock appliance without a terminal UI.

Commands are read from stdin, one per line:

  mode | up | down | next     short press a button
  reset                       hold MODE past the reset threshold
  hold <button> <ticks>       hold a button for a number of ticks
  send <text>                 deliver a line to the serial receiver
  state                       print the controller state
  quit                        stop

The display is printed whenever it changes. Serial output goes to the
connection given by --port or --url, or to stdout prefixed with '<'.

Logs are written to stderr unless --log-file is set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// serveCommand is one parsed stdin command
type serveCommand struct {
	verb   string
	button clockfsm.Button
	ticks  int
	text   string
}

// parseServeCommand parses a stdin command line. Blank lines yield an empty verb.
func parseServeCommand(line string) (serveCommand, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return serveCommand{}, nil
	}

	verb := strings.ToLower(fields[0])
	switch verb {
	case "mode", "up", "down", "next":
		b, _ := parseButton(verb)
		return serveCommand{verb: "press", button: b}, nil

	case "reset", "state":
		return serveCommand{verb: verb}, nil

	case "quit", "exit":
		return serveCommand{verb: "quit"}, nil

	case "hold":
		if len(fields) != 3 {
			return serveCommand{}, fmt.Errorf("usage: hold <button> <ticks>")
		}
		b, ok := parseButton(fields[1])
		if !ok {
			return serveCommand{}, fmt.Errorf("unknown button %q", fields[1])
		}
		ticks, err := strconv.Atoi(fields[2])
		if err != nil || ticks < 1 {
			return serveCommand{}, fmt.Errorf("invalid tick count %q", fields[2])
		}
		return serveCommand{verb: "hold", button: b, ticks: ticks}, nil

	case "send":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		return serveCommand{verb: "send", text: text}, nil

	default:
		return serveCommand{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// apply runs c against the appliance and reports whether to stop
func (c serveCommand) apply(app *appliance, out io.Writer) bool {
	switch c.verb {
	case "press":
		app.press(c.button)
	case "hold":
		app.hold(c.button, c.ticks)
	case "reset":
		app.reset()
	case "send":
		if app.inject(c.text) == 0 {
			fmt.Fprintln(out, "! receiver not listening, line dropped")
		}
	case "state":
		fmt.Fprintln(out, app.state())
	case "quit":
		return true
	}
	return false
}

func runServe(cmd *cobra.Command, args []string) error {
	log, closer, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	out := cmd.OutOrStdout()

	var opts []serialline.PortOption
	if !hasConnection() {
		opts = append(opts, serialline.WithSendHook(func(line string) {
			fmt.Fprintf(out, "< %s\n", line)
		}))
	}
	app, err := newAppliance(settings, log, opts...)
	if err != nil {
		return err
	}

	connInfo := "stdin"
	if hasConnection() {
		conn, info, err := OpenConnection()
		if err != nil {
			return err
		}
		connInfo = info
		link := newLinkManager(conn, info, app.port, log.With("component", "link"))
		link.start()
		defer link.stop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := make(chan serveCommand, 16)
	go readServeCommands(ctx, cmd.InOrStdin(), commands, out)

	fmt.Fprintf(out, "Chronostat - Headless Simulator\n")
	fmt.Fprintf(out, "Serial: %s\n", connInfo)
	fmt.Fprintf(out, "Type 'quit' or press Ctrl+C to exit\n\n")
	log.Info("simulator started", "conn", connInfo, "tick", settings.Tick())

	return serveLoop(ctx, app, commands, out, settings.Tick())
}

// readServeCommands parses stdin lines into commands until EOF
func readServeCommands(ctx context.Context, in io.Reader, commands chan<- serveCommand, out io.Writer) {
	defer close(commands)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		c, err := parseServeCommand(sc.Text())
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		if c.verb == "" {
			continue
		}
		select {
		case commands <- c:
		case <-ctx.Done():
			return
		}
	}
}

// serveLoop ticks the appliance, applying commands between ticks, and
// prints the display whenever it changes. Stdin EOF does not stop the loop.
func serveLoop(ctx context.Context, app *appliance, commands <-chan serveCommand, out io.Writer, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := ""
	lastMode := app.ctrl.Mode()
	var lastPrint time.Time
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, app.state())
			return nil

		case c, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if c.apply(app, out) {
				fmt.Fprintln(out, app.state())
				return nil
			}

		case now := <-ticker.C:
			app.tick()
			// Blinking would redraw every few ticks; print at most once a
			// second unless the mode changed.
			screen := app.canvas.String()
			mode := app.ctrl.Mode()
			if screen != last && (mode != lastMode || now.Sub(lastPrint) >= time.Second) {
				last, lastMode, lastPrint = screen, mode, now
				fmt.Fprintf(out, "--- %s ---\n%s\n", now.Format("15:04:05.000"), screen)
			}
		}
	}
}
