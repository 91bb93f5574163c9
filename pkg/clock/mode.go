// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package clock holds the data model of the clock appliance: operating modes,
// the settable time and alarm fields, and the wraparound arithmetic used to
// edit them.
package clock

// Mode is the operating mode of the appliance. Exactly one is active.
type Mode uint8

const (
	ModeViewTime Mode = iota
	ModeSetTime
	ModeSetAlarm
	ModeUpdate
	ModeMessage
)

// cycleLength is the number of modes reachable by short presses.
// ModeMessage sits outside the cycle.
const cycleLength = 4

// Next returns the mode that follows m in the short-press cycle
// ViewTime -> SetTime -> SetAlarm -> Update -> ViewTime.
// ModeMessage always leaves to ModeViewTime.
func (m Mode) Next() Mode {
	if m >= cycleLength {
		return ModeViewTime
	}
	return (m + 1) % cycleLength
}

// String returns the status-bar label of the mode
func (m Mode) String() string {
	switch m {
	case ModeViewTime:
		return "VIEW"
	case ModeSetTime:
		return "SET TIME"
	case ModeSetAlarm:
		return "SET ALARM"
	case ModeUpdate:
		return "UART UPDATE"
	case ModeMessage:
		return "MESSAGE"
	default:
		return "UNKNOWN"
	}
}
