// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clockfsm

import "github.com/Thermoquad/chronostat/pkg/clock"

// Button identifies a logical appliance button
type Button uint8

const (
	ButtonMode Button = iota
	ButtonUp
	ButtonDown
	ButtonNext
)

// ButtonCount is the number of logical buttons
const ButtonCount = 4

func (b Button) String() string {
	switch b {
	case ButtonMode:
		return "mode"
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonNext:
		return "next"
	default:
		return "unknown"
	}
}

// Buttons is the debounced input snapshot. Held returns how many consecutive
// ticks b has been pressed: 1 on the first tick, growing while held, 0 from
// the tick after release.
type Buttons interface {
	Held(b Button) uint16
}

// Gateway is the authoritative real-time-clock device. Commit writes all
// seven fields or none.
type Gateway interface {
	Read() (clock.TimeRecord, error)
	Commit(r clock.TimeRecord) error
}

// Channel is the serial link as seen from the tick loop. None of its methods
// may block.
type Channel interface {
	// Send transmits one line; the channel appends the line ending.
	Send(line string)
	StartListening()
	StopListening()
	// Poll returns a complete received command, if any.
	Poll() (string, bool)
	// Flush drops buffered input and any pending command.
	Flush()
}

// Color is a display color
type Color uint8

const (
	ColorWhite Color = iota
	ColorGreen
	ColorYellow
	ColorCyan
	ColorMagenta
	ColorRed
	ColorBlack
)

// Region is an area of the display that can be cleared as a unit
type Region uint8

const (
	RegionTime Region = iota
	RegionDate
	RegionSettings
	RegionAlarm
	RegionMessage
	RegionStatus
)

// RegionCount is the number of display regions
const RegionCount = 6

// Intent asks the display to render Text at a slot of a region. When Blank
// is set the slot is rendered empty with the width of Text.
type Intent struct {
	Region Region
	Slot   uint8
	Text   string
	Color  Color
	Blank  bool
}

// Display receives render intents. The display does not persist anything the
// controller stops drawing, so every mode redraws its content each tick.
type Display interface {
	Clear(r Region)
	Draw(i Intent)
}
