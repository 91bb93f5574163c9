// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clockfsm

import (
	"fmt"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

// Serial lines of the update protocol
const (
	UpdateBanner     = "--- ENTERING UART UPDATE MODE ---"
	ReceivedPrefix   = "Received: "
	RejectNotice     = "Invalid data. Please try again."
	TimeoutNotice    = "Timeout. Retrying..."
	CompleteNotice   = "Update Complete! Returning..."
	failureNoticeFmt = "ERROR: No response after %d tries. Exiting."
)

// Prompts lists the serial prompt lines of each field
var Prompts = [clock.FieldCount][]string{
	clock.FieldHour:    {"Hours (0-23): "},
	clock.FieldMinute:  {"Minutes (0-59): "},
	clock.FieldSecond:  {"Seconds (0-59): "},
	clock.FieldWeekday: {"Enter 3 letters (e.g. Mon, Tue, Wed):", "Day: "},
	clock.FieldDay:     {"Date (1-31): "},
	clock.FieldMonth:   {"Month (1-12): "},
	clock.FieldYear:    {"Year (0-99): "},
}

// FailureNotice is the serial line sent when a field exhausts its retries
func FailureNotice(retries uint8) string {
	return fmt.Sprintf(failureNoticeFmt, retries)
}

// UpdateSession is the state of a serial update while in Update mode
type UpdateSession struct {
	Cursor            clock.Field
	AwaitingResponse  bool
	RetriesUsed       uint8
	TicksUntilTimeout uint16
}

func (c *Controller) startSession() {
	c.session = &UpdateSession{
		Cursor:            clock.FieldHour,
		TicksUntilTimeout: c.cfg.UpdateTimeoutTicks,
	}
	c.channel.StopListening()
	c.channel.Flush()
	c.channel.Send(UpdateBanner)
	c.log.Info("update session started", "record", c.record.String())
}

func (c *Controller) endSession() {
	c.channel.StopListening()
	c.session = nil
}

// runUpdate advances the update session by one tick: issue a request when
// none is outstanding, then check for a response or a timeout.
func (c *Controller) runUpdate() {
	s := c.session
	if s == nil {
		// Only reachable if the session ended without leaving Update.
		c.startSession()
		s = c.session
	}

	if !s.AwaitingResponse {
		if s.RetriesUsed >= c.cfg.MaxRetries {
			c.failSession()
			return
		}
		c.request(s)
	}

	if line, ok := c.channel.Poll(); ok {
		c.channel.StopListening()
		s.AwaitingResponse = false
		if c.accept(s, line) {
			return
		}
	} else {
		s.TicksUntilTimeout--
		if s.TicksUntilTimeout == 0 {
			c.channel.StopListening()
			c.channel.Send(TimeoutNotice)
			s.AwaitingResponse = false
			c.log.Warn("update request timed out", "field", s.Cursor, "try", s.RetriesUsed)
		}
	}

	c.drawUpdate(s)
}

// request sends the prompt of the current field and opens the listener
func (c *Controller) request(s *UpdateSession) {
	s.RetriesUsed++
	s.TicksUntilTimeout = c.cfg.UpdateTimeoutTicks
	// The receiver must be open before the prompt leaves.
	c.channel.StartListening()
	for _, p := range Prompts[s.Cursor] {
		c.channel.Send(p)
	}
	s.AwaitingResponse = true
	c.log.Debug("update request", "field", s.Cursor, "try", s.RetriesUsed)
}

// accept validates one response. It reports whether the session left
// Update mode.
func (c *Controller) accept(s *UpdateSession, line string) bool {
	v, ok := parseField(s.Cursor, line)
	if !ok {
		c.channel.Send(RejectNotice)
		c.log.Debug("update response rejected", "field", s.Cursor, "input", line)
		return false
	}

	c.record.Set(s.Cursor, v)
	c.channel.Send(ReceivedPrefix + line)
	c.log.Debug("update response accepted", "field", s.Cursor, "value", v)

	if s.Cursor.IsLast() {
		c.endSession()
		if err := c.gateway.Commit(c.record); err != nil {
			c.log.Error("update commit failed", "err", err, "record", c.record.String())
			c.enterMessage(messageSaveFailed, "")
			return true
		}
		c.now = c.record
		c.log.Info("update session complete", "record", c.record.String())
		c.enterMessage(messageUpdateComplete, CompleteNotice)
		return true
	}

	s.Cursor = s.Cursor.Next()
	s.RetriesUsed = 0
	return false
}

func (c *Controller) failSession() {
	retries := c.session.RetriesUsed
	c.log.Warn("update session failed", "field", c.session.Cursor, "tries", retries)
	c.endSession()
	c.enterMessage(messageUpdateFailed, FailureNotice(retries))
}

// parseField converts a response for field f. Numeric fields use permissive
// integer parsing; the weekday must match a three-letter day name exactly.
func parseField(f clock.Field, line string) (uint8, bool) {
	if f == clock.FieldWeekday {
		return clock.ParseWeekday(line)
	}
	v := serialline.ParseNumber(line)
	if !clock.InRange(f, v) {
		return 0, false
	}
	return uint8(v), true
}

func (c *Controller) drawUpdate(s *UpdateSession) {
	c.display.Draw(Intent{
		Region: RegionSettings,
		Text:   fmt.Sprintf("Updating %s... (Try %d/%d)", s.Cursor, s.RetriesUsed, c.cfg.MaxRetries),
		Color:  ColorMagenta,
	})
	c.drawRecord(c.record, s.Cursor, false)
}
