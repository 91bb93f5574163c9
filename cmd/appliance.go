// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/Thermoquad/chronostat/pkg/config"
	"github.com/Thermoquad/chronostat/pkg/keypad"
	"github.com/Thermoquad/chronostat/pkg/logger"
	"github.com/Thermoquad/chronostat/pkg/rtc"
	"github.com/Thermoquad/chronostat/pkg/screen"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

// appliance bundles the simulated clock hardware with its controller. All
// methods except port.Receive belong to the goroutine that drives tick.
type appliance struct {
	cfg    *config.Config
	keys   *keypad.Keypad
	device *rtc.Simulator
	port   *serialline.Port
	canvas *screen.Canvas
	ctrl   *clockfsm.Controller
	log    logger.Logger
}

// newAppliance powers up a simulated appliance holding the reset time
func newAppliance(cfg *config.Config, log logger.Logger, portOpts ...serialline.PortOption) (*appliance, error) {
	a := &appliance{
		cfg:    cfg,
		keys:   keypad.New(cfg.Buttons.PressTicks),
		device: rtc.NewSimulator(clock.DefaultTime),
		canvas: screen.NewCanvas(),
		log:    log,
	}

	opts := append([]serialline.PortOption{serialline.WithLogger(log.With("component", "serial"))}, portOpts...)
	a.port = serialline.NewPort(cfg.Serial.RingCapacity, opts...)

	ctrl, err := clockfsm.New(cfg.Controller(), a.keys, a.device, a.port, a.canvas,
		clockfsm.WithLogger(log.With("component", "clock")))
	if err != nil {
		return nil, fmt.Errorf("start controller: %w", err)
	}
	a.ctrl = ctrl
	return a, nil
}

// tick scans the keypad and runs one controller step
func (a *appliance) tick() {
	a.keys.Scan()
	a.ctrl.Tick()
}

// press schedules a short press
func (a *appliance) press(b clockfsm.Button) {
	a.keys.Press(b)
}

// hold schedules b to be held for ticks ticks
func (a *appliance) hold(b clockfsm.Button, ticks int) {
	a.keys.Hold(b, ticks)
}

// reset holds the mode button past the reset threshold
func (a *appliance) reset() {
	a.keys.Hold(clockfsm.ButtonMode, a.cfg.Buttons.ResetHoldTicks+2)
}

// repeatTicks is a hold long enough for a few auto-repeat steps
func (a *appliance) repeatTicks() int {
	return a.cfg.Buttons.LongPressTicks + 4*a.cfg.Buttons.AutoRepeatTicks + 1
}

// inject feeds a console line to the serial receiver
func (a *appliance) inject(line string) int {
	return a.port.Receive([]byte(line + serialline.LineEnding))
}

// state is a one-line summary of the controller
func (a *appliance) state() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s now=%s alarm=%s", a.ctrl.Mode(), a.ctrl.Now(), a.ctrl.Alarm())
	switch a.ctrl.Mode() {
	case clock.ModeSetTime:
		fmt.Fprintf(&b, " edit=%s cursor=%s", a.ctrl.Record(), a.ctrl.TimeCursor())
	case clock.ModeSetAlarm:
		fmt.Fprintf(&b, " cursor=%s", a.ctrl.AlarmCursor())
	case clock.ModeUpdate:
		if s, ok := a.ctrl.Session(); ok {
			fmt.Fprintf(&b, " field=%s try=%d/%d", s.Cursor, s.RetriesUsed, a.cfg.Update.MaxRetries)
		}
	case clock.ModeMessage:
		if m, ok := a.ctrl.Message(); ok {
			fmt.Fprintf(&b, " message=%q", m.Text)
		}
	}
	return b.String()
}

// parseButton maps a command word to a button
func parseButton(s string) (clockfsm.Button, bool) {
	for b := clockfsm.Button(0); b < clockfsm.ButtonCount; b++ {
		if strings.EqualFold(s, b.String()) {
			return b, true
		}
	}
	return 0, false
}
