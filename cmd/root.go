// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/chronostat/pkg/config"
	"github.com/Thermoquad/chronostat/pkg/logger"
)

var (
	// Serial connection flags
	portName string
	baudRate int
	parity   string
	stopBits int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
	wsFrames      string

	// Runtime flags
	configPath string
	logLevel   string
	logFile    string
	logFormat  string

	// settings is the merged configuration, filled before any command runs
	settings *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chronostat",
	Short: "Clock appliance simulator and serial update tools",
	Long: `Chronostat - A simulator and host toolkit for a real-time-clock appliance.

The appliance shows the time, keeps a daily alarm and can be set either with
its four buttons or over a serial line-based update session.

Commands:
  run       Interactive simulator with a local serial console
  serve     Headless simulator driven by stdin commands
  sync      Answer an appliance update session from host time
  raw_log   Print every line the appliance sends
  monitor   Track update sessions, rejects and timeouts
  ports     List serial ports

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200] [--parity none] [--stop-bits 1]
  WebSocket: --url ws://host/path [--username user] [--frames any]

For WebSocket authentication, the password is read from the CHRONOSTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVar(&parity, "parity", "none", "Parity: none, even, odd (serial only)")
	rootCmd.PersistentFlags().IntVar(&stopBits, "stop-bits", 1, "Stop bits: 1 or 2 (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	rootCmd.PersistentFlags().StringVar(&wsFrames, "frames", "any", "WebSocket frame type: any, text, binary")

	// Runtime flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
}

// loadSettings reads the config file and lets explicitly set flags win
func loadSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baudRate
	}
	if flags.Changed("parity") {
		cfg.Serial.Parity = parity
	}
	if flags.Changed("stop-bits") {
		cfg.Serial.StopBits = stopBits
	}
	if flags.Changed("frames") {
		cfg.Serial.Frames = wsFrames
	}
	if flags.Changed("url") {
		cfg.Serial.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Serial.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Serial.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.Normalize(cfg)

	settings = cfg
	return nil
}

// hasConnection reports whether a serial or WebSocket link is configured
func hasConnection() bool {
	return settings.Serial.Port != "" || settings.Serial.URL != ""
}

// newLogger builds the logger described by settings. Logs go to fallback
// unless a log file is configured; the returned closer releases the file.
func newLogger(fallback io.Writer) (logger.Logger, io.Closer, error) {
	level, err := logger.ParseLevel(settings.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	out := fallback
	var closer io.Closer = io.NopCloser(nil)
	if settings.Log.File != "" {
		f, err := os.OpenFile(settings.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f
	}

	return logger.New(out, level, logger.Format(settings.Log.Format)), closer, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
