// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the chronostat YAML configuration.
//
// Loading happens in three steps: the file is decoded over Default(), then
// Validate checks it without touching it, then Normalize tidies values that
// are accepted in more than one spelling.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/Thermoquad/chronostat/pkg/keypad"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	TickMs           int          `yaml:"tick_ms"`
	Buttons          ButtonConfig `yaml:"buttons"`
	Update           UpdateConfig `yaml:"update"`
	MessageTicks     int          `yaml:"message_ticks"`
	AlarmRingTicks   int          `yaml:"alarm_ring_ticks"`
	BlinkPeriodTicks int          `yaml:"blink_period_ticks"`
	Serial           SerialConfig `yaml:"serial"`
	Log              LogConfig    `yaml:"log"`
}

// ---- BUTTONS ----

type ButtonConfig struct {
	LongPressTicks  int `yaml:"long_press_ticks"`
	AutoRepeatTicks int `yaml:"auto_repeat_ticks"`
	ResetHoldTicks  int `yaml:"reset_hold_ticks"`
	// PressTicks is how long a simulated short press is held
	PressTicks int `yaml:"press_ticks"`
}

// ---- UPDATE SESSION ----

type UpdateConfig struct {
	TimeoutTicks int `yaml:"timeout_ticks"`
	MaxRetries   int `yaml:"max_retries"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	Parity   string `yaml:"parity"`    // none, even, odd
	StopBits int    `yaml:"stop_bits"` // 1 or 2

	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
	// Frames selects the WebSocket frame type of the bridge: text, binary,
	// or any (accept both, send binary).
	Frames string `yaml:"frames"`

	RingCapacity int `yaml:"ring_capacity"`
}

// WebSocket frame modes
const (
	FramesAny    = "any"
	FramesText   = "text"
	FramesBinary = "binary"
)

// ---- LOGGING ----

type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// Default returns the reference configuration
func Default() Config {
	fsm := clockfsm.DefaultConfig()
	return Config{
		TickMs: 50,
		Buttons: ButtonConfig{
			LongPressTicks:  int(fsm.LongPressTicks),
			AutoRepeatTicks: int(fsm.AutoRepeatTicks),
			ResetHoldTicks:  int(fsm.ResetHoldTicks),
			PressTicks:      keypad.DefaultPressTicks,
		},
		Update: UpdateConfig{
			TimeoutTicks: int(fsm.UpdateTimeoutTicks),
			MaxRetries:   int(fsm.MaxRetries),
		},
		MessageTicks:     int(fsm.MessageTicks),
		AlarmRingTicks:   int(fsm.AlarmRingTicks),
		BlinkPeriodTicks: int(fsm.BlinkPeriodTicks),
		Serial: SerialConfig{
			Baud:         115200,
			Parity:       "none",
			StopBits:     1,
			Frames:       FramesAny,
			RingCapacity: serialline.DefaultRingCapacity,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path, or returns Default when path is empty
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	Normalize(&cfg)
	return &cfg, nil
}

// Decode parses YAML over cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Tick returns the tick period
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// Controller returns the state machine timing
func (c *Config) Controller() clockfsm.Config {
	return clockfsm.Config{
		LongPressTicks:     uint16(c.Buttons.LongPressTicks),
		AutoRepeatTicks:    uint16(c.Buttons.AutoRepeatTicks),
		ResetHoldTicks:     uint16(c.Buttons.ResetHoldTicks),
		UpdateTimeoutTicks: uint16(c.Update.TimeoutTicks),
		MaxRetries:         uint8(c.Update.MaxRetries),
		MessageTicks:       uint16(c.MessageTicks),
		AlarmRingTicks:     uint16(c.AlarmRingTicks),
		BlinkPeriodTicks:   uint16(c.BlinkPeriodTicks),
	}
}
