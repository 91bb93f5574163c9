// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clock

import "fmt"

// AlarmConfig is the locally evaluated daily alarm
type AlarmConfig struct {
	Hour    uint8
	Minute  uint8
	Enabled bool
}

// DefaultAlarm is the alarm restored by a system reset
var DefaultAlarm = AlarmConfig{Hour: 6, Minute: 0, Enabled: false}

// Increment steps alarm field f up. Enabled toggles.
func (a *AlarmConfig) Increment(f AlarmField) {
	switch f {
	case AlarmHour:
		a.Hour = (a.Hour + 1) % 24
	case AlarmMinute:
		a.Minute = (a.Minute + 1) % 60
	case AlarmEnabled:
		a.Enabled = !a.Enabled
	}
}

// Decrement steps alarm field f down. Enabled toggles.
func (a *AlarmConfig) Decrement(f AlarmField) {
	switch f {
	case AlarmHour:
		a.Hour = (a.Hour + 24 - 1) % 24
	case AlarmMinute:
		a.Minute = (a.Minute + 60 - 1) % 60
	case AlarmEnabled:
		a.Enabled = !a.Enabled
	}
}

// Matches reports whether the alarm is due at t: enabled, same hour and
// minute, and the first second of that minute.
func (a AlarmConfig) Matches(t TimeRecord) bool {
	return a.Enabled && t.Hour == a.Hour && t.Minute == a.Minute && t.Second == 0
}

func (a AlarmConfig) String() string {
	state := "OFF"
	if a.Enabled {
		state = "ON"
	}
	return fmt.Sprintf("%02d:%02d %s", a.Hour, a.Minute, state)
}
