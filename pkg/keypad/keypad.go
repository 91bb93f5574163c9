// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package keypad produces the per-button held-count snapshot the clock
// controller consumes, for hosts that have no debounced hardware buttons.
//
// A press is scheduled as a hold lasting a number of ticks. Scan, called once
// per tick before the controller runs, advances each counter: it grows by
// one every tick the button is held and reads 0 from the first tick after
// release.
package keypad

import "github.com/Thermoquad/chronostat/pkg/clockfsm"

// DefaultPressTicks is how long a short press is held
const DefaultPressTicks = 2

// Keypad is not goroutine-safe; schedule presses from the goroutine that
// drives the tick.
type Keypad struct {
	pressTicks int
	held       [clockfsm.ButtonCount]uint16
	remaining  [clockfsm.ButtonCount]int
}

// New creates a keypad whose short presses last pressTicks ticks
func New(pressTicks int) *Keypad {
	if pressTicks < 1 {
		pressTicks = DefaultPressTicks
	}
	return &Keypad{pressTicks: pressTicks}
}

// Press schedules a short press of b
func (k *Keypad) Press(b clockfsm.Button) {
	k.Hold(b, k.pressTicks)
}

// Hold schedules b to be held for ticks ticks. A hold on a button that is
// already down extends it.
func (k *Keypad) Hold(b clockfsm.Button, ticks int) {
	if int(b) >= len(k.remaining) || ticks < 1 {
		return
	}
	if ticks > k.remaining[b] {
		k.remaining[b] = ticks
	}
}

// Release lets go of b on the next scan
func (k *Keypad) Release(b clockfsm.Button) {
	if int(b) < len(k.remaining) {
		k.remaining[b] = 0
	}
}

// Scan advances every counter by one tick
func (k *Keypad) Scan() {
	for i := range k.held {
		if k.remaining[i] > 0 {
			k.remaining[i]--
			if k.held[i] < ^uint16(0) {
				k.held[i]++
			}
		} else {
			k.held[i] = 0
		}
	}
}

// Held returns the number of consecutive ticks b has been held
func (k *Keypad) Held(b clockfsm.Button) uint16 {
	if int(b) >= len(k.held) {
		return 0
	}
	return k.held[b]
}

// Busy reports whether any button is still down or scheduled
func (k *Keypad) Busy() bool {
	for i := range k.held {
		if k.held[i] > 0 || k.remaining[i] > 0 {
			return true
		}
	}
	return false
}
