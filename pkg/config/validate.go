// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/Thermoquad/chronostat/pkg/logger"
)

// Validate checks configuration correctness.
// It performs declarative validation only and never mutates cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}

	if cfg.TickMs < 1 || cfg.TickMs > 1000 {
		return fmt.Errorf("%w: tick_ms must be within 1..1000, got %d", ErrInvalid, cfg.TickMs)
	}

	ticks := []struct {
		key string
		v   int
		min int
	}{
		{"buttons.long_press_ticks", cfg.Buttons.LongPressTicks, 0},
		{"buttons.auto_repeat_ticks", cfg.Buttons.AutoRepeatTicks, 1},
		{"buttons.reset_hold_ticks", cfg.Buttons.ResetHoldTicks, 1},
		{"buttons.press_ticks", cfg.Buttons.PressTicks, 1},
		{"update.timeout_ticks", cfg.Update.TimeoutTicks, 1},
		{"message_ticks", cfg.MessageTicks, 1},
		{"alarm_ring_ticks", cfg.AlarmRingTicks, 1},
		{"blink_period_ticks", cfg.BlinkPeriodTicks, 2},
	}
	for _, t := range ticks {
		if t.v < t.min || t.v > math.MaxUint16 {
			return fmt.Errorf("%w: %s must be within %d..%d, got %d", ErrInvalid, t.key, t.min, math.MaxUint16, t.v)
		}
	}

	if cfg.Update.MaxRetries < 1 || cfg.Update.MaxRetries > math.MaxUint8 {
		return fmt.Errorf("%w: update.max_retries must be within 1..255, got %d", ErrInvalid, cfg.Update.MaxRetries)
	}

	// A short press must release before it turns into a reset.
	if cfg.Buttons.PressTicks >= cfg.Buttons.ResetHoldTicks {
		return fmt.Errorf("%w: buttons.press_ticks (%d) must be below buttons.reset_hold_ticks (%d)",
			ErrInvalid, cfg.Buttons.PressTicks, cfg.Buttons.ResetHoldTicks)
	}

	if cfg.Serial.Port != "" && cfg.Serial.URL != "" {
		return fmt.Errorf("%w: serial.port and serial.url are mutually exclusive", ErrInvalid)
	}
	if cfg.Serial.Baud < 1 {
		return fmt.Errorf("%w: serial.baud must be positive, got %d", ErrInvalid, cfg.Serial.Baud)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Serial.Parity)) {
	case "", "none", "even", "odd":
	default:
		return fmt.Errorf("%w: serial.parity must be none, even or odd, got %q", ErrInvalid, cfg.Serial.Parity)
	}
	if cfg.Serial.StopBits != 1 && cfg.Serial.StopBits != 2 {
		return fmt.Errorf("%w: serial.stop_bits must be 1 or 2, got %d", ErrInvalid, cfg.Serial.StopBits)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Serial.Frames)) {
	case "", FramesAny, FramesText, FramesBinary:
	default:
		return fmt.Errorf("%w: serial.frames must be any, text or binary, got %q", ErrInvalid, cfg.Serial.Frames)
	}
	if cfg.Serial.RingCapacity < 2 || cfg.Serial.RingCapacity > 1<<16 {
		return fmt.Errorf("%w: serial.ring_capacity must be within 2..65536, got %d", ErrInvalid, cfg.Serial.RingCapacity)
	}
	if u := cfg.Serial.URL; u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return fmt.Errorf("%w: serial.url must start with ws:// or wss://", ErrInvalid)
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json", "":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalid, cfg.Log.Format)
	}

	return nil
}
