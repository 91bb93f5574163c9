// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package keypad

import (
	"testing"

	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/stretchr/testify/assert"
)

func scanCounts(k *Keypad, b clockfsm.Button, ticks int) []uint16 {
	counts := make([]uint16, 0, ticks)
	for i := 0; i < ticks; i++ {
		k.Scan()
		counts = append(counts, k.Held(b))
	}
	return counts
}

func TestKeypad_ShortPress(t *testing.T) {
	k := New(2)
	k.Press(clockfsm.ButtonUp)

	assert.Equal(t, []uint16{1, 2, 0, 0}, scanCounts(k, clockfsm.ButtonUp, 4))
	assert.False(t, k.Busy())
}

func TestKeypad_HoldIsMonotonic(t *testing.T) {
	k := New(DefaultPressTicks)
	k.Hold(clockfsm.ButtonMode, 5)

	assert.Equal(t, []uint16{1, 2, 3, 4, 5, 0}, scanCounts(k, clockfsm.ButtonMode, 6))
}

func TestKeypad_HoldExtends(t *testing.T) {
	k := New(DefaultPressTicks)
	k.Hold(clockfsm.ButtonDown, 2)
	k.Scan()
	k.Hold(clockfsm.ButtonDown, 3)

	assert.Equal(t, []uint16{2, 3, 4, 0}, scanCounts(k, clockfsm.ButtonDown, 4))
}

func TestKeypad_Release(t *testing.T) {
	k := New(DefaultPressTicks)
	k.Hold(clockfsm.ButtonNext, 100)
	k.Scan()
	k.Release(clockfsm.ButtonNext)
	k.Scan()
	assert.Equal(t, uint16(0), k.Held(clockfsm.ButtonNext))
}

func TestKeypad_IndependentButtons(t *testing.T) {
	k := New(DefaultPressTicks)
	k.Hold(clockfsm.ButtonUp, 3)
	k.Press(clockfsm.ButtonDown)
	k.Scan()
	k.Scan()
	k.Scan()
	assert.Equal(t, uint16(3), k.Held(clockfsm.ButtonUp))
	assert.Equal(t, uint16(0), k.Held(clockfsm.ButtonDown))
}
