// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clockfsm

import (
	"errors"
	"fmt"
)

// Reference timing, in ticks of 50 ms
const (
	DefaultLongPressTicks     = 40  // 2 s before auto-repeat starts
	DefaultAutoRepeatTicks    = 4   // 200 ms between repeats
	DefaultResetHoldTicks     = 60  // 3 s mode hold resets the system
	DefaultUpdateTimeoutTicks = 200 // 10 s per serial request
	DefaultMaxRetries         = 3
	DefaultMessageTicks       = 60  // 3 s
	DefaultAlarmRingTicks     = 200 // 10 s
	DefaultBlinkPeriodTicks   = 10  // 2 Hz
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid controller config")

// Config holds every duration of the controller, in ticks
type Config struct {
	LongPressTicks     uint16
	AutoRepeatTicks    uint16
	ResetHoldTicks     uint16
	UpdateTimeoutTicks uint16
	MaxRetries         uint8
	MessageTicks       uint16
	AlarmRingTicks     uint16
	BlinkPeriodTicks   uint16
}

// DefaultConfig returns the reference timing
func DefaultConfig() Config {
	return Config{
		LongPressTicks:     DefaultLongPressTicks,
		AutoRepeatTicks:    DefaultAutoRepeatTicks,
		ResetHoldTicks:     DefaultResetHoldTicks,
		UpdateTimeoutTicks: DefaultUpdateTimeoutTicks,
		MaxRetries:         DefaultMaxRetries,
		MessageTicks:       DefaultMessageTicks,
		AlarmRingTicks:     DefaultAlarmRingTicks,
		BlinkPeriodTicks:   DefaultBlinkPeriodTicks,
	}
}

// Validate checks that every duration is usable
func (c Config) Validate() error {
	switch {
	case c.AutoRepeatTicks == 0:
		return fmt.Errorf("%w: auto repeat must be at least 1 tick", ErrInvalidConfig)
	case c.ResetHoldTicks == 0:
		return fmt.Errorf("%w: reset hold must be at least 1 tick", ErrInvalidConfig)
	case c.UpdateTimeoutTicks == 0:
		return fmt.Errorf("%w: update timeout must be at least 1 tick", ErrInvalidConfig)
	case c.MaxRetries == 0:
		return fmt.Errorf("%w: max retries must be at least 1", ErrInvalidConfig)
	case c.MessageTicks == 0:
		return fmt.Errorf("%w: message duration must be at least 1 tick", ErrInvalidConfig)
	case c.AlarmRingTicks == 0:
		return fmt.Errorf("%w: alarm ring duration must be at least 1 tick", ErrInvalidConfig)
	case c.BlinkPeriodTicks < 2:
		return fmt.Errorf("%w: blink period must be at least 2 ticks", ErrInvalidConfig)
	}
	return nil
}
