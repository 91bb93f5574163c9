// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clockfsm

import (
	"fmt"

	"github.com/Thermoquad/chronostat/pkg/clock"
)

// Slots of RegionTime and RegionDate, indexed by field
var fieldSlots = [clock.FieldCount]struct {
	region Region
	slot   uint8
}{
	clock.FieldHour:    {RegionTime, 0},
	clock.FieldMinute:  {RegionTime, 1},
	clock.FieldSecond:  {RegionTime, 2},
	clock.FieldWeekday: {RegionDate, 0},
	clock.FieldDay:     {RegionDate, 1},
	clock.FieldMonth:   {RegionDate, 2},
	clock.FieldYear:    {RegionDate, 3},
}

// Slots of RegionSettings while in SetAlarm
const (
	SlotAlarmLabel uint8 = iota
	SlotAlarmHour
	SlotAlarmMinute
	SlotAlarmEnabled
)

// Slots of RegionStatus
const (
	SlotStatusMode uint8 = iota
	SlotStatusAlarm
)

func fieldText(r clock.TimeRecord, f clock.Field) string {
	if f == clock.FieldWeekday {
		return clock.WeekdayName(r.Weekday)
	}
	return fmt.Sprintf("%02d", r.Get(f))
}

// drawRecord draws every field of r. The field at cursor is blanked during
// the off phase of the blink when blinkCursor is set.
func (c *Controller) drawRecord(r clock.TimeRecord, cursor clock.Field, blinkCursor bool) {
	for _, f := range clock.Fields {
		s := fieldSlots[f]
		c.display.Draw(Intent{
			Region: s.region,
			Slot:   s.slot,
			Text:   fieldText(r, f),
			Color:  ColorWhite,
			Blank:  blinkCursor && f == cursor && !c.blink,
		})
	}
}

func (c *Controller) drawStatus() {
	c.display.Clear(RegionStatus)
	c.display.Draw(Intent{Region: RegionStatus, Slot: SlotStatusMode, Text: "MODE: " + c.mode.String(), Color: ColorCyan})
	if c.alarm.Enabled {
		c.display.Draw(Intent{Region: RegionStatus, Slot: SlotStatusAlarm, Text: "(A)", Color: ColorYellow})
	}
}

// runViewTime shows the live time and runs the alarm
func (c *Controller) runViewTime() {
	if c.alarmActive && (c.pressed(ButtonUp) || c.pressed(ButtonDown) || c.pressed(ButtonNext)) {
		c.silenceAlarm()
	}

	c.readNow()

	if c.alarmActive {
		c.alarmTicks--
		if c.alarmTicks == 0 {
			c.log.Info("alarm stopped")
			c.silenceAlarm()
		}
	} else if c.alarm.Matches(c.now) && c.alarmFired != stampOf(c.now) {
		c.alarmFired = stampOf(c.now)
		c.alarmActive = true
		c.alarmTicks = c.cfg.AlarmRingTicks
		c.log.Info("alarm ringing", "alarm", c.alarm.String())
	}

	c.drawRecord(c.now, 0, false)
	if c.alarmActive {
		c.display.Draw(Intent{Region: RegionAlarm, Text: "ALARM!", Color: ColorRed, Blank: !c.blink})
	}
}

func (c *Controller) silenceAlarm() {
	c.alarmActive = false
	c.alarmTicks = 0
	c.display.Clear(RegionAlarm)
}

// runSetTime edits the record field under the cursor
func (c *Controller) runSetTime() {
	switch {
	case c.stepRequested(ButtonUp):
		c.record.Increment(c.timeCursor)
	case c.stepRequested(ButtonDown):
		c.record.Decrement(c.timeCursor)
	}
	if c.pressed(ButtonNext) {
		c.timeCursor = c.timeCursor.Next()
	}

	c.drawRecord(c.record, c.timeCursor, true)
}

// runSetAlarm edits the alarm field under the cursor while the clock keeps
// running on screen.
func (c *Controller) runSetAlarm() {
	switch {
	case c.stepRequested(ButtonUp):
		c.alarm.Increment(c.alarmCursor)
	case c.stepRequested(ButtonDown):
		c.alarm.Decrement(c.alarmCursor)
	}
	if c.pressed(ButtonNext) {
		c.alarmCursor = c.alarmCursor.Next()
	}

	c.readNow()
	c.drawRecord(c.now, 0, false)

	enabled := "OFF"
	if c.alarm.Enabled {
		enabled = "ON "
	}
	c.display.Draw(Intent{Region: RegionSettings, Slot: SlotAlarmLabel, Text: "ALARM:", Color: ColorYellow})
	c.display.Draw(Intent{
		Region: RegionSettings, Slot: SlotAlarmHour, Text: fmt.Sprintf("%02d", c.alarm.Hour),
		Color: ColorYellow, Blank: c.alarmCursor == clock.AlarmHour && !c.blink,
	})
	c.display.Draw(Intent{
		Region: RegionSettings, Slot: SlotAlarmMinute, Text: fmt.Sprintf("%02d", c.alarm.Minute),
		Color: ColorYellow, Blank: c.alarmCursor == clock.AlarmMinute && !c.blink,
	})
	c.display.Draw(Intent{
		Region: RegionSettings, Slot: SlotAlarmEnabled, Text: enabled,
		Color: ColorYellow, Blank: c.alarmCursor == clock.AlarmEnabled && !c.blink,
	})
}
