// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clockfsm_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/Thermoquad/chronostat/pkg/keypad"
	"github.com/Thermoquad/chronostat/pkg/rtc"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeGateway struct {
	now       clock.TimeRecord
	commits   []clock.TimeRecord
	commitErr error
}

func (g *fakeGateway) Read() (clock.TimeRecord, error) { return g.now, nil }

func (g *fakeGateway) Commit(r clock.TimeRecord) error {
	if g.commitErr != nil {
		return g.commitErr
	}
	g.commits = append(g.commits, r)
	g.now = r
	return nil
}

// fakeChannel delivers queued lines only while listening
type fakeChannel struct {
	sent      []string
	inbox     []string
	listening bool
	flushes   int
}

func (c *fakeChannel) Send(line string) { c.sent = append(c.sent, line) }
func (c *fakeChannel) StartListening()  { c.listening = true }
func (c *fakeChannel) StopListening()   { c.listening = false }
func (c *fakeChannel) Flush()           { c.flushes++; c.inbox = nil }

func (c *fakeChannel) Poll() (string, bool) {
	if !c.listening || len(c.inbox) == 0 {
		return "", false
	}
	line := c.inbox[0]
	c.inbox = c.inbox[1:]
	return line, true
}

func (c *fakeChannel) count(line string) int {
	n := 0
	for _, s := range c.sent {
		if s == line {
			n++
		}
	}
	return n
}

type fakeDisplay struct {
	regions [clockfsm.RegionCount]map[uint8]clockfsm.Intent
}

func (d *fakeDisplay) Clear(r clockfsm.Region) { d.regions[r] = nil }

func (d *fakeDisplay) Draw(i clockfsm.Intent) {
	if d.regions[i.Region] == nil {
		d.regions[i.Region] = make(map[uint8]clockfsm.Intent)
	}
	d.regions[i.Region][i.Slot] = i
}

// text returns what a slot shows, "" when empty or blanked
func (d *fakeDisplay) text(r clockfsm.Region, slot uint8) string {
	i, ok := d.regions[r][slot]
	if !ok || i.Blank {
		return ""
	}
	return i.Text
}

type harness struct {
	t    *testing.T
	keys *keypad.Keypad
	gw   *fakeGateway
	ch   *fakeChannel
	disp *fakeDisplay
	ctrl *clockfsm.Controller
}

func newHarness(t *testing.T, cfg clockfsm.Config, opts ...clockfsm.Option) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		keys: keypad.New(keypad.DefaultPressTicks),
		gw:   &fakeGateway{now: clock.DefaultTime},
		ch:   &fakeChannel{},
		disp: &fakeDisplay{},
	}
	ctrl, err := clockfsm.New(cfg, h.keys, h.gw, h.ch, h.disp, opts...)
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.keys.Scan()
		h.ctrl.Tick()
	}
}

// press performs a short press, ticking until the release has been seen
func (h *harness) press(b clockfsm.Button) {
	h.keys.Press(b)
	for h.keys.Busy() {
		h.tick(1)
	}
}

func (h *harness) enter(m clock.Mode) {
	for i := 0; h.ctrl.Mode() != m; i++ {
		require.Less(h.t, i, 4, "mode %s not reachable", m)
		h.press(clockfsm.ButtonMode)
	}
}

func testConfig() clockfsm.Config {
	cfg := clockfsm.DefaultConfig()
	cfg.UpdateTimeoutTicks = 5
	cfg.AlarmRingTicks = 10
	return cfg
}

// ============================================================================
// Construction
// ============================================================================

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := clockfsm.DefaultConfig()
	cfg.MaxRetries = 0

	_, err := clockfsm.New(cfg, keypad.New(1), &fakeGateway{}, &fakeChannel{}, &fakeDisplay{})
	assert.ErrorIs(t, err, clockfsm.ErrInvalidConfig)
}

func TestNew_StartsInViewTime(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())

	assert.Equal(t, clock.ModeViewTime, h.ctrl.Mode())
	assert.Equal(t, clock.DefaultAlarm, h.ctrl.Alarm())
	assert.Equal(t, clock.DefaultTime, h.ctrl.Now())
}

// ============================================================================
// Mode cycling
// ============================================================================

func TestShortPress_CyclesModes(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())

	expected := []clock.Mode{
		clock.ModeSetTime,
		clock.ModeSetAlarm,
		clock.ModeUpdate,
		clock.ModeViewTime,
		clock.ModeSetTime,
	}
	for _, want := range expected {
		h.press(clockfsm.ButtonMode)
		assert.Equal(t, want, h.ctrl.Mode())
	}
}

func TestShortPress_TriggersOnRelease(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.keys.Hold(clockfsm.ButtonMode, 10)

	h.tick(10)
	assert.Equal(t, clock.ModeViewTime, h.ctrl.Mode(), "no transition while held")

	h.tick(1)
	assert.Equal(t, clock.ModeSetTime, h.ctrl.Mode())
}

func TestStatusBar(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig(), clockfsm.WithAlarm(clock.AlarmConfig{Hour: 7, Enabled: true}))
	h.tick(1)

	assert.Equal(t, "MODE: VIEW", h.disp.text(clockfsm.RegionStatus, clockfsm.SlotStatusMode))
	assert.Equal(t, "(A)", h.disp.text(clockfsm.RegionStatus, clockfsm.SlotStatusAlarm))

	h.enter(clock.ModeUpdate)
	assert.Equal(t, "MODE: UART UPDATE", h.disp.text(clockfsm.RegionStatus, clockfsm.SlotStatusMode))
}

// ============================================================================
// Long-press reset
// ============================================================================

func TestLongPress_ResetsFromAnyMode(t *testing.T) {
	for _, mode := range []clock.Mode{clock.ModeViewTime, clock.ModeSetTime, clock.ModeSetAlarm, clock.ModeUpdate} {
		t.Run(mode.String(), func(t *testing.T) {
			h := newHarness(t, clockfsm.DefaultConfig(), clockfsm.WithAlarm(clock.AlarmConfig{Hour: 7, Minute: 30, Enabled: true}))
			h.gw.now = clock.TimeRecord{Hour: 1, Minute: 2, Second: 3, Weekday: 1, Day: 1, Month: 1, Year: 30}
			h.enter(mode)
			commits := len(h.gw.commits)

			h.keys.Hold(clockfsm.ButtonMode, 100)
			h.tick(clockfsm.DefaultResetHoldTicks)
			assert.Equal(t, mode, h.ctrl.Mode(), "reset needs the hold to exceed the threshold")

			h.tick(1)
			require.Equal(t, clock.ModeMessage, h.ctrl.Mode())
			msg, ok := h.ctrl.Message()
			require.True(t, ok)
			assert.Equal(t, clockfsm.MessageReset, msg.Kind)
			assert.Equal(t, "System Reset!", h.disp.text(clockfsm.RegionMessage, 0))

			require.Len(t, h.gw.commits, commits+1)
			assert.Equal(t, clock.DefaultTime, h.gw.commits[commits])
			assert.Equal(t, clock.DefaultAlarm, h.ctrl.Alarm())
			_, active := h.ctrl.Session()
			assert.False(t, active)
			assert.False(t, h.ch.listening)
		})
	}
}

func TestLongPress_MidUpdateDiscardsSession(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.enter(clock.ModeUpdate)
	h.ch.inbox = []string{"15"}
	h.tick(1)

	s, ok := h.ctrl.Session()
	require.True(t, ok)
	require.Equal(t, clock.FieldMinute, s.Cursor)

	h.keys.Hold(clockfsm.ButtonMode, clockfsm.DefaultResetHoldTicks+1)
	h.tick(clockfsm.DefaultResetHoldTicks + 1)

	assert.Equal(t, clock.ModeMessage, h.ctrl.Mode())
	_, ok = h.ctrl.Session()
	assert.False(t, ok)
	assert.Equal(t, clock.DefaultTime, h.ctrl.Record())
	assert.Equal(t, 0, h.ch.count(clockfsm.CompleteNotice))
}

func TestLongPress_FiresOncePerHold(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.keys.Hold(clockfsm.ButtonMode, 100)
	h.tick(100)
	require.Len(t, h.gw.commits, 1)

	// Releasing the hold is not a short press.
	h.tick(1)
	assert.Equal(t, clock.ModeMessage, h.ctrl.Mode())
	assert.Len(t, h.gw.commits, 1)
}

// ============================================================================
// Message mode
// ============================================================================

func TestMessage_TimesOutToViewTime(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.keys.Hold(clockfsm.ButtonMode, clockfsm.DefaultResetHoldTicks+1)
	h.tick(clockfsm.DefaultResetHoldTicks + 1)
	require.Equal(t, clock.ModeMessage, h.ctrl.Mode())

	h.tick(clockfsm.DefaultMessageTicks - 1)
	assert.Equal(t, clock.ModeMessage, h.ctrl.Mode())

	h.tick(1)
	assert.Equal(t, clock.ModeViewTime, h.ctrl.Mode())
	assert.Equal(t, "", h.disp.text(clockfsm.RegionMessage, 0))
}

func TestMessage_DismissedByShortPress(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.keys.Hold(clockfsm.ButtonMode, clockfsm.DefaultResetHoldTicks+1)
	h.tick(clockfsm.DefaultResetHoldTicks + 2)
	require.Equal(t, clock.ModeMessage, h.ctrl.Mode())

	h.press(clockfsm.ButtonMode)
	assert.Equal(t, clock.ModeViewTime, h.ctrl.Mode(), "message always returns to ViewTime")
}

// ============================================================================
// Blink
// ============================================================================

func TestBlink_TwoHertz(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())

	var phases []bool
	for i := 0; i < 20; i++ {
		h.tick(1)
		phases = append(phases, h.ctrl.Blink())
	}

	on, off := true, false
	expected := []bool{
		on, on, on, on, off, off, off, off, off, on,
		on, on, on, on, off, off, off, off, off, on,
	}
	assert.Equal(t, expected, phases)
}

func TestSetTime_CursorFieldBlinks(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.enter(clock.ModeSetTime)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		h.tick(1)
		seen[h.disp.text(clockfsm.RegionTime, 0)] = true
		assert.Equal(t, "21", h.disp.text(clockfsm.RegionTime, 1), "non-cursor fields never blink")
	}
	assert.True(t, seen["10"])
	assert.True(t, seen[""])
}

// ============================================================================
// SetTime / SetAlarm
// ============================================================================

func TestSetTime_EditsAndCommitsOnExit(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.enter(clock.ModeSetTime)
	assert.Equal(t, clock.FieldHour, h.ctrl.TimeCursor())

	h.press(clockfsm.ButtonUp)
	h.press(clockfsm.ButtonNext)
	h.press(clockfsm.ButtonDown)
	h.press(clockfsm.ButtonDown)
	assert.Equal(t, clock.FieldMinute, h.ctrl.TimeCursor())
	assert.Empty(t, h.gw.commits, "nothing is written while editing")

	h.press(clockfsm.ButtonMode)
	require.Len(t, h.gw.commits, 1)
	assert.Equal(t, uint8(11), h.gw.commits[0].Hour)
	assert.Equal(t, uint8(19), h.gw.commits[0].Minute)
	assert.Equal(t, clock.ModeSetAlarm, h.ctrl.Mode())
}

func TestSetTime_AutoRepeat(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.enter(clock.ModeSetTime)

	// Steps at ticks 1, 44 and 48 of the hold.
	h.keys.Hold(clockfsm.ButtonUp, 48)
	h.tick(43)
	assert.Equal(t, uint8(11), h.ctrl.Record().Hour)
	h.tick(5)
	assert.Equal(t, uint8(13), h.ctrl.Record().Hour)
}

func TestSetTime_SaveFailure(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.enter(clock.ModeSetTime)
	h.gw.commitErr = errors.New("i2c nack")

	h.press(clockfsm.ButtonMode)

	require.Equal(t, clock.ModeMessage, h.ctrl.Mode())
	msg, _ := h.ctrl.Message()
	assert.Equal(t, clockfsm.MessageSaveFailed, msg.Kind)
	assert.Equal(t, "Save failed!", h.disp.text(clockfsm.RegionMessage, 0))

	h.tick(clockfsm.DefaultMessageTicks)
	assert.Equal(t, clock.ModeViewTime, h.ctrl.Mode())
}

func TestSetAlarm_Edits(t *testing.T) {
	h := newHarness(t, clockfsm.DefaultConfig())
	h.enter(clock.ModeSetAlarm)
	assert.Equal(t, clock.AlarmHour, h.ctrl.AlarmCursor())

	h.press(clockfsm.ButtonUp)
	h.press(clockfsm.ButtonNext)
	h.press(clockfsm.ButtonDown)
	h.press(clockfsm.ButtonNext)
	h.press(clockfsm.ButtonUp)

	assert.Equal(t, clock.AlarmConfig{Hour: 7, Minute: 59, Enabled: true}, h.ctrl.Alarm())
	assert.Equal(t, "(A)", h.disp.text(clockfsm.RegionStatus, clockfsm.SlotStatusAlarm))
	assert.Equal(t, "ALARM:", h.disp.text(clockfsm.RegionSettings, clockfsm.SlotAlarmLabel))
}

// ============================================================================
// Alarm
// ============================================================================

func at(h, m, s uint8) clock.TimeRecord {
	r := clock.DefaultTime
	r.Hour, r.Minute, r.Second = h, m, s
	return r
}

func TestAlarm_FiresOncePerMinute(t *testing.T) {
	h := newHarness(t, testConfig(), clockfsm.WithAlarm(clock.AlarmConfig{Hour: 6, Enabled: true}))

	h.gw.now = at(5, 59, 59)
	h.tick(1)
	assert.False(t, h.ctrl.AlarmActive())

	h.gw.now = at(6, 0, 0)
	h.tick(1)
	require.True(t, h.ctrl.AlarmActive())

	h.tick(9)
	assert.True(t, h.ctrl.AlarmActive())
	h.tick(1)
	assert.False(t, h.ctrl.AlarmActive(), "ring duration elapsed")

	h.tick(20)
	assert.False(t, h.ctrl.AlarmActive(), "same minute never fires twice")

	for s := uint8(1); s < 60; s++ {
		h.gw.now = at(6, 0, s)
		h.tick(1)
		assert.False(t, h.ctrl.AlarmActive(), "second %d", s)
	}

	h.gw.now = at(6, 0, 0)
	h.gw.now.Day++
	h.tick(1)
	assert.True(t, h.ctrl.AlarmActive(), "fires again the next day")
}

func TestAlarm_DisabledNeverFires(t *testing.T) {
	h := newHarness(t, testConfig(), clockfsm.WithAlarm(clock.AlarmConfig{Hour: 6}))
	h.gw.now = at(6, 0, 0)
	h.tick(5)
	assert.False(t, h.ctrl.AlarmActive())
}

func TestAlarm_SilencedByButton(t *testing.T) {
	h := newHarness(t, testConfig(), clockfsm.WithAlarm(clock.AlarmConfig{Hour: 6, Enabled: true}))
	h.gw.now = at(6, 0, 0)
	h.tick(1)
	require.True(t, h.ctrl.AlarmActive())

	h.keys.Press(clockfsm.ButtonNext)
	h.tick(1)
	assert.False(t, h.ctrl.AlarmActive())
	assert.Equal(t, "", h.disp.text(clockfsm.RegionAlarm, 0))
}

func TestAlarm_BlinksRed(t *testing.T) {
	h := newHarness(t, testConfig(), clockfsm.WithAlarm(clock.AlarmConfig{Hour: 6, Enabled: true}))
	h.gw.now = at(6, 0, 0)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		h.tick(1)
		seen[h.disp.text(clockfsm.RegionAlarm, 0)] = true
	}
	assert.True(t, seen["ALARM!"])
	assert.True(t, seen[""])
	assert.Equal(t, clockfsm.ColorRed, h.disp.regions[clockfsm.RegionAlarm][0].Color)
}

// ============================================================================
// Update session
// ============================================================================

func TestUpdate_EntryStartsSession(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)

	s, ok := h.ctrl.Session()
	require.True(t, ok)
	assert.Equal(t, clock.FieldHour, s.Cursor)
	assert.True(t, s.AwaitingResponse)
	assert.Equal(t, uint8(1), s.RetriesUsed)
	assert.Equal(t, 1, h.ch.flushes)
	assert.True(t, h.ch.listening)
	assert.Equal(t, []string{clockfsm.UpdateBanner, "Hours (0-23): "}, h.ch.sent)
	assert.Equal(t, "Updating hours... (Try 1/3)", h.disp.text(clockfsm.RegionSettings, 0))
}

func TestUpdate_ThreeTimeoutsFail(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)
	commits := len(h.gw.commits)

	// The entry tick counts toward the first timeout.
	h.tick(4 + 5 + 5)
	require.Equal(t, clock.ModeUpdate, h.ctrl.Mode())
	assert.Equal(t, 3, h.ch.count(clockfsm.TimeoutNotice))
	assert.False(t, h.ch.listening)

	h.tick(1)
	require.Equal(t, clock.ModeMessage, h.ctrl.Mode())
	msg, _ := h.ctrl.Message()
	assert.Equal(t, clockfsm.MessageUpdateFailed, msg.Kind)
	assert.Equal(t, "UART Timeout!", h.disp.text(clockfsm.RegionMessage, 0))
	assert.Equal(t, 3, h.ch.count("Hours (0-23): "))
	assert.Equal(t, 1, h.ch.count("ERROR: No response after 3 tries. Exiting."))
	assert.Len(t, h.gw.commits, commits, "failure never commits")

	_, ok := h.ctrl.Session()
	assert.False(t, ok)
}

func TestUpdate_AllFieldsCommitOnce(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gw.now = clock.TimeRecord{Hour: 1, Minute: 1, Second: 1, Weekday: 1, Day: 1, Month: 1, Year: 1}
	h.enter(clock.ModeUpdate)
	commits := len(h.gw.commits)

	for _, in := range []string{"10", "21", "0", "Wed", "5", "11", "25"} {
		h.ch.inbox = append(h.ch.inbox, in)
		h.tick(1)
	}

	require.Equal(t, clock.ModeMessage, h.ctrl.Mode())
	msg, _ := h.ctrl.Message()
	assert.Equal(t, clockfsm.MessageUpdateComplete, msg.Kind)
	assert.Equal(t, "Update Complete!", h.disp.text(clockfsm.RegionMessage, 0))

	require.Len(t, h.gw.commits, commits+1)
	assert.Equal(t, clock.TimeRecord{Hour: 10, Minute: 21, Second: 0, Weekday: 3, Day: 5, Month: 11, Year: 25}, h.gw.commits[commits])
	assert.Equal(t, 1, h.ch.count("Received: Wed"))
	assert.Equal(t, 1, h.ch.count(clockfsm.CompleteNotice))
	assert.Equal(t, 1, h.ch.count("Enter 3 letters (e.g. Mon, Tue, Wed):"))
	assert.False(t, h.ch.listening)
}

func TestUpdate_OutOfRangeRejected(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)

	h.ch.inbox = []string{"99"}
	h.tick(1)

	s, _ := h.ctrl.Session()
	assert.Equal(t, clock.FieldHour, s.Cursor)
	assert.False(t, s.AwaitingResponse)
	assert.Equal(t, 1, h.ch.count(clockfsm.RejectNotice))
	assert.Equal(t, 0, h.ch.count("Received: 99"))

	h.tick(1)
	s, _ = h.ctrl.Session()
	assert.Equal(t, clock.FieldHour, s.Cursor)
	assert.Equal(t, uint8(2), s.RetriesUsed)
	assert.Equal(t, 2, h.ch.count("Hours (0-23): "))
}

func TestUpdate_RejectionsExhaustRetries(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)

	for _, in := range []string{"-1", "24", "99"} {
		h.ch.inbox = append(h.ch.inbox, in)
		h.tick(1)
	}
	h.tick(1)

	assert.Equal(t, clock.ModeMessage, h.ctrl.Mode())
	assert.Equal(t, 3, h.ch.count(clockfsm.RejectNotice))
}

func TestUpdate_AcceptResetsRetries(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)

	h.ch.inbox = []string{"25"}
	h.tick(1)
	h.ch.inbox = []string{"7"}
	h.tick(1)

	s, _ := h.ctrl.Session()
	assert.Equal(t, clock.FieldMinute, s.Cursor)
	assert.Equal(t, uint8(0), s.RetriesUsed)
	assert.Equal(t, uint8(7), h.ctrl.Record().Hour)
}

func TestUpdate_WeekdayIsCaseSensitive(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)

	for _, in := range []string{"1", "2", "3", "wed"} {
		h.ch.inbox = append(h.ch.inbox, in)
		h.tick(1)
	}

	s, _ := h.ctrl.Session()
	assert.Equal(t, clock.FieldWeekday, s.Cursor)
	assert.Equal(t, 1, h.ch.count(clockfsm.RejectNotice))
}

func TestUpdate_LeavingAbandonsSession(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)
	commits := len(h.gw.commits)
	h.ch.inbox = []string{"12"}
	h.tick(1)

	h.press(clockfsm.ButtonMode)

	assert.Equal(t, clock.ModeViewTime, h.ctrl.Mode())
	_, ok := h.ctrl.Session()
	assert.False(t, ok)
	assert.False(t, h.ch.listening)
	assert.Len(t, h.gw.commits, commits)
}

func TestUpdate_SaveFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.enter(clock.ModeUpdate)
	h.gw.commitErr = errors.New("bus error")

	for _, in := range []string{"10", "21", "0", "Wed", "5", "11", "25"} {
		h.ch.inbox = append(h.ch.inbox, in)
		h.tick(1)
	}

	msg, ok := h.ctrl.Message()
	require.True(t, ok)
	assert.Equal(t, clockfsm.MessageSaveFailed, msg.Kind)
	assert.Equal(t, 0, h.ch.count(clockfsm.CompleteNotice))
}

func TestUpdate_OverSerialPort(t *testing.T) {
	var out bytes.Buffer
	port := serialline.NewPort(serialline.DefaultRingCapacity, serialline.WithWriter(&out))
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	device := rtc.NewSimulator(clock.DefaultTime, rtc.WithClock(func() time.Time { return epoch }))
	keys := keypad.New(keypad.DefaultPressTicks)

	ctrl, err := clockfsm.New(testConfig(), keys, device, port, &fakeDisplay{})
	require.NoError(t, err)

	tick := func() {
		keys.Scan()
		ctrl.Tick()
	}
	for i := 0; i < 3; i++ {
		keys.Press(clockfsm.ButtonMode)
		for keys.Busy() {
			tick()
		}
	}
	require.Equal(t, clock.ModeUpdate, ctrl.Mode())

	inputs := []string{"23\r\n", "59\n", "58\r", "Sun\r\n", "29\r\n", "2\r\n", "24\r\n"}
	for i := 0; len(inputs) > 0 && i < 100; i++ {
		if port.Listening() {
			port.Receive([]byte(inputs[0]))
			inputs = inputs[1:]
		}
		tick()
	}
	tick()

	require.Equal(t, clock.ModeMessage, ctrl.Mode())
	got, err := device.Read()
	require.NoError(t, err)
	assert.Equal(t, clock.TimeRecord{Hour: 23, Minute: 59, Second: 58, Weekday: 7, Day: 29, Month: 2, Year: 24}, got)

	transcript := out.String()
	assert.True(t, strings.HasPrefix(transcript, clockfsm.UpdateBanner+"\r\n"))
	assert.Contains(t, transcript, "Received: Sun\r\n")
	assert.Contains(t, transcript, clockfsm.CompleteNotice+"\r\n")
}

func TestUpdate_BurstOverSerialPortKeepsLastLine(t *testing.T) {
	var out bytes.Buffer
	port := serialline.NewPort(serialline.DefaultRingCapacity, serialline.WithWriter(&out))
	keys := keypad.New(keypad.DefaultPressTicks)

	ctrl, err := clockfsm.New(testConfig(), keys, &fakeGateway{now: clock.DefaultTime}, port, &fakeDisplay{})
	require.NoError(t, err)

	tick := func() {
		keys.Scan()
		ctrl.Tick()
	}
	for i := 0; i < 3; i++ {
		keys.Press(clockfsm.ButtonMode)
		for keys.Busy() {
			tick()
		}
	}
	require.Equal(t, clock.ModeUpdate, ctrl.Mode())
	require.True(t, port.Listening())

	port.Receive([]byte("10\r\n7\r\n"))
	tick()
	tick()
	tick()

	s, ok := ctrl.Session()
	require.True(t, ok)
	assert.Equal(t, clock.FieldMinute, s.Cursor)
	assert.True(t, s.AwaitingResponse)
	assert.Equal(t, uint8(1), s.RetriesUsed)

	rec := ctrl.Record()
	assert.Equal(t, uint8(7), rec.Hour)
	assert.Equal(t, clock.DefaultTime.Minute, rec.Minute, "minutes still waits for its own answer")

	transcript := out.String()
	assert.Contains(t, transcript, "Received: 7\r\n")
	assert.NotContains(t, transcript, "Received: 10")
}
