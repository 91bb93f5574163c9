// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package clockfsm implements the mode state machine of the clock appliance.
//
// A Controller is advanced by calling Tick once per fixed period. Each tick
// it reads the button snapshot, runs the behavior of the active mode, talks
// to the real-time-clock gateway and the serial channel, and emits display
// intents. Nothing inside Tick blocks.
//
// Mode cycle (short press of the mode button):
//
//	ViewTime -> SetTime -> SetAlarm -> Update -> ViewTime
//
// Holding the mode button past the reset threshold restores defaults from
// any mode and shows a Message; Message always returns to ViewTime.
package clockfsm

import (
	"fmt"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/logger"
)

// Controller owns all appliance state. It is not goroutine-safe: Tick and
// the accessors must be called from one goroutine.
type Controller struct {
	cfg     Config
	buttons Buttons
	gateway Gateway
	channel Channel
	display Display
	log     logger.Logger

	mode        clock.Mode
	timeCursor  clock.Field
	alarmCursor clock.AlarmField

	// record is the edit buffer of SetTime and Update
	record clock.TimeRecord
	// now is the latest gateway reading
	now         clock.TimeRecord
	readFailing bool

	alarm       clock.AlarmConfig
	alarmActive bool
	alarmTicks  uint16
	alarmFired  fireStamp

	blinkCounter uint16
	blink        bool

	lastModeHeld uint16
	resetLatched bool

	session *UpdateSession

	message      Message
	messageTicks uint16
}

// fireStamp remembers the minute an alarm last fired
type fireStamp struct {
	valid                         bool
	year, month, day, hour, minute uint8
}

func stampOf(r clock.TimeRecord) fireStamp {
	return fireStamp{valid: true, year: r.Year, month: r.Month, day: r.Day, hour: r.Hour, minute: r.Minute}
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithAlarm sets the initial alarm configuration
func WithAlarm(a clock.AlarmConfig) Option {
	return func(c *Controller) { c.alarm = a }
}

// New creates a controller in ViewTime mode
func New(cfg Config, buttons Buttons, gateway Gateway, channel Channel, display Display, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if buttons == nil || gateway == nil || channel == nil || display == nil {
		return nil, fmt.Errorf("clockfsm: buttons, gateway, channel and display are required")
	}

	c := &Controller{
		cfg:     cfg,
		buttons: buttons,
		gateway: gateway,
		channel: channel,
		display: display,
		log:     logger.Nop(),
		mode:    clock.ModeViewTime,
		alarm:   clock.DefaultAlarm,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.channel.StopListening()
	c.readNow()
	return c, nil
}

// Tick advances the controller by one period
func (c *Controller) Tick() {
	held := c.buttons.Held(ButtonMode)

	// Long-press reset preempts everything else, once per hold.
	if held > c.cfg.ResetHoldTicks && !c.resetLatched {
		c.resetLatched = true
		c.lastModeHeld = 0
		c.systemReset()
		return
	}
	if c.resetLatched {
		// The hold that caused the reset never counts as a short press.
		if held == 0 {
			c.resetLatched = false
		}
		held = 0
	}

	released := held == 0 && c.lastModeHeld > 0
	c.lastModeHeld = held

	c.blinkCounter = (c.blinkCounter + 1) % c.cfg.BlinkPeriodTicks
	c.blink = c.blinkCounter < c.cfg.BlinkPeriodTicks/2

	if c.mode == clock.ModeMessage {
		if released {
			c.leaveMessage()
		} else {
			c.runMessage()
		}
		c.drawStatus()
		return
	}

	if released {
		c.switchMode()
	}

	switch c.mode {
	case clock.ModeViewTime:
		c.runViewTime()
	case clock.ModeSetTime:
		c.runSetTime()
	case clock.ModeSetAlarm:
		c.runSetAlarm()
	case clock.ModeUpdate:
		c.runUpdate()
	}

	c.drawStatus()
}

// systemReset restores default time and alarm, abandons any session and
// shows the reset message.
func (c *Controller) systemReset() {
	c.log.Info("system reset", "mode", c.mode)

	if c.session != nil {
		c.endSession()
	}
	c.alarm = clock.DefaultAlarm
	c.alarmActive = false
	c.alarmFired = fireStamp{}
	c.record = clock.DefaultTime

	if err := c.gateway.Commit(clock.DefaultTime); err != nil {
		c.log.Error("reset commit failed", "err", err)
		c.enterMessage(messageSaveFailed, "")
		return
	}
	c.now = clock.DefaultTime
	c.enterMessage(messageReset, "")
}

// switchMode handles a short press of the mode button
func (c *Controller) switchMode() {
	from := c.mode

	switch from {
	case clock.ModeSetTime:
		if err := c.gateway.Commit(c.record); err != nil {
			c.log.Error("set time commit failed", "err", err, "record", c.record.String())
			c.enterMessage(messageSaveFailed, "")
			return
		}
		c.log.Info("time saved", "record", c.record.String())
	case clock.ModeUpdate:
		if c.session != nil {
			c.log.Info("update session abandoned", "field", c.session.Cursor)
			c.endSession()
		}
	}

	if c.alarmActive {
		c.silenceAlarm()
	}

	c.enterMode(from.Next())
}

func (c *Controller) enterMode(m clock.Mode) {
	c.log.Info("mode changed", "from", c.mode, "to", m)
	c.mode = m

	c.display.Clear(RegionSettings)
	c.display.Clear(RegionAlarm)

	switch m {
	case clock.ModeSetTime:
		c.loadRecord()
		c.timeCursor = clock.FieldHour
	case clock.ModeSetAlarm:
		c.alarmCursor = clock.AlarmHour
	case clock.ModeUpdate:
		c.loadRecord()
		c.startSession()
	}
}

// loadRecord copies the gateway's current reading into the edit buffer
func (c *Controller) loadRecord() {
	c.readNow()
	c.record = c.now
}

// readNow refreshes the gateway reading, keeping the previous one on error
func (c *Controller) readNow() {
	r, err := c.gateway.Read()
	if err != nil {
		if !c.readFailing {
			c.log.Error("rtc read failed", "err", err)
			c.readFailing = true
		}
		return
	}
	if c.readFailing {
		c.log.Info("rtc read recovered")
		c.readFailing = false
	}
	c.now = r
}

// pressed reports the first tick of a press
func (c *Controller) pressed(b Button) bool {
	return c.buttons.Held(b) == 1
}

// stepRequested reports whether b asks for one step this tick: on the first
// tick of a press, then every AutoRepeatTicks once held past LongPressTicks.
func (c *Controller) stepRequested(b Button) bool {
	h := c.buttons.Held(b)
	if h == 1 {
		return true
	}
	return h > c.cfg.LongPressTicks && h%c.cfg.AutoRepeatTicks == 0
}

// Mode returns the active mode
func (c *Controller) Mode() clock.Mode { return c.mode }

// Blink returns the 2 Hz blink phase; true means "show"
func (c *Controller) Blink() bool { return c.blink }

// TimeCursor returns the field selected in SetTime
func (c *Controller) TimeCursor() clock.Field { return c.timeCursor }

// AlarmCursor returns the field selected in SetAlarm
func (c *Controller) AlarmCursor() clock.AlarmField { return c.alarmCursor }

// Record returns the edit buffer
func (c *Controller) Record() clock.TimeRecord { return c.record }

// Now returns the latest gateway reading
func (c *Controller) Now() clock.TimeRecord { return c.now }

// Alarm returns the alarm configuration
func (c *Controller) Alarm() clock.AlarmConfig { return c.alarm }

// AlarmActive reports whether the alarm is ringing
func (c *Controller) AlarmActive() bool { return c.alarmActive }

// Session returns a copy of the update session while one is running
func (c *Controller) Session() (UpdateSession, bool) {
	if c.session == nil {
		return UpdateSession{}, false
	}
	return *c.session, true
}

// Message returns the message on display while in Message mode
func (c *Controller) Message() (Message, bool) {
	if c.mode != clock.ModeMessage {
		return Message{}, false
	}
	return c.message, true
}
