// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rtc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/chronostat/pkg/clock"
)

// ErrInvalidRecord is returned when a commit carries an out-of-range field
var ErrInvalidRecord = errors.New("rtc: invalid time record")

// Simulator is an in-memory clock device. It keeps time from a wall clock
// source: every Read carries the whole seconds elapsed since the last update
// into the registers.
type Simulator struct {
	mu     sync.Mutex
	regs   [RegisterCount]byte
	anchor time.Time
	now    func() time.Time
}

// SimulatorOption configures a Simulator
type SimulatorOption func(*Simulator)

// WithClock sets the wall clock source
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator creates a device holding initial
func NewSimulator(initial clock.TimeRecord, opts ...SimulatorOption) *Simulator {
	s := &Simulator{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.regs = encodeRecord(initial)
	s.anchor = s.now()
	return s
}

// Read returns the current time
func (s *Simulator) Read() (clock.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advance()
	return decodeRecord(s.regs), nil
}

// WriteField writes a single register. The seconds counter restarts from
// the moment of the write.
func (s *Simulator) WriteField(f clock.Field, v uint8) error {
	if !clock.InRange(f, int(v)) {
		return fmt.Errorf("%s=%d: %w", f, v, ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.advance()
	s.regs[RegisterFor(f)] = EncodeBCD(v)
	s.anchor = s.now()
	return nil
}

// Commit writes all seven registers in one burst. An invalid record leaves
// the device untouched.
func (s *Simulator) Commit(r clock.TimeRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.regs = encodeRecord(r)
	s.anchor = s.now()
	return nil
}

// advance carries elapsed whole seconds into the registers. Caller holds mu.
func (s *Simulator) advance() {
	now := s.now()
	elapsed := now.Sub(s.anchor)
	if elapsed < time.Second {
		return
	}
	secs := int64(elapsed / time.Second)
	s.anchor = s.anchor.Add(time.Duration(secs) * time.Second)

	r := decodeRecord(s.regs)
	Advance(&r, secs)
	s.regs = encodeRecord(r)
}

// Advance moves r forward by secs seconds, rolling minutes, hours, dates,
// weekdays, months and years the way the device counters do.
func Advance(r *clock.TimeRecord, secs int64) {
	if secs <= 0 {
		return
	}

	total := int64(r.Second) + secs
	r.Second = uint8(total % 60)
	total = int64(r.Minute) + total/60
	r.Minute = uint8(total % 60)
	total = int64(r.Hour) + total/60
	r.Hour = uint8(total % 24)

	for days := total / 24; days > 0; days-- {
		r.Weekday = r.Weekday%7 + 1
		if r.Day < clock.MaxDay(r.Month, r.Year) {
			r.Day++
			continue
		}
		r.Day = 1
		if r.Month < 12 {
			r.Month++
			continue
		}
		r.Month = 1
		r.Year = (r.Year + 1) % 100
	}
}
