// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hostsync is the host side of the appliance's serial update
// session. It watches the appliance output, answers every field prompt and
// reports how the session ended.
package hostsync

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/Thermoquad/chronostat/pkg/logger"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

var (
	// ErrUpdateFailed is returned when the appliance gives up on the session
	ErrUpdateFailed = errors.New("appliance reported update failure")
	// ErrLinkClosed is returned when the link ends before the session does
	ErrLinkClosed = errors.New("link closed before update finished")
)

// SplitLines is a bufio.SplitFunc that splits on '\r' or '\n' and drops
// empty lines.
func SplitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}
	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}
	if atEOF && start < len(data) {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

// RecordFromTime converts t to the appliance's field values
func RecordFromTime(t time.Time) clock.TimeRecord {
	weekday := uint8(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return clock.TimeRecord{
		Hour:    uint8(t.Hour()),
		Minute:  uint8(t.Minute()),
		Second:  uint8(t.Second()),
		Weekday: weekday,
		Day:     uint8(t.Day()),
		Month:   uint8(t.Month()),
		Year:    uint8(t.Year() % 100),
	}
}

// PromptField reports which field line asks for. Only the last line of a
// multi-line prompt expects an answer.
func PromptField(line string) (clock.Field, bool) {
	line = strings.TrimSpace(line)
	for _, f := range clock.Fields {
		lines := clockfsm.Prompts[f]
		if line == strings.TrimSpace(lines[len(lines)-1]) {
			return f, true
		}
	}
	return 0, false
}

// Answer formats the value of field f the way the appliance parses it
func Answer(f clock.Field, r clock.TimeRecord) string {
	if f == clock.FieldWeekday {
		return clock.WeekdayName(r.Weekday)
	}
	return strconv.Itoa(int(r.Get(f)))
}

// Result summarizes a finished session
type Result struct {
	Answered int
	Record   clock.TimeRecord
}

// Client answers update prompts on a serial link
type Client struct {
	rw   io.ReadWriter
	log  logger.Logger
	now  func() time.Time
	time *clock.TimeRecord
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the client logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithClock sets the source of host time
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRecord answers with a fixed record instead of host time
func WithRecord(r clock.TimeRecord) Option {
	return func(c *Client) { c.time = &r }
}

// New creates a client on rw
func New(rw io.ReadWriter, opts ...Option) *Client {
	c := &Client{rw: rw, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run answers prompts until the appliance reports completion or failure.
// Cancelling ctx returns ctx.Err(); the caller closes the link to release
// the pending read.
func (c *Client) Run(ctx context.Context) (Result, error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		sc := bufio.NewScanner(c.rw)
		sc.Split(SplitLines)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
	}()

	var res Result
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()

		case err := <-readErr:
			if err != nil {
				return res, fmt.Errorf("%w: %v", ErrLinkClosed, err)
			}
			return res, ErrLinkClosed

		case line := <-lines:
			c.log.Debug("appliance", "line", line)

			switch {
			case strings.HasPrefix(line, "Update Complete"):
				c.log.Info("update complete", "record", res.Record.String())
				return res, nil
			case strings.HasPrefix(line, "ERROR"):
				return res, fmt.Errorf("%w: %s", ErrUpdateFailed, line)
			case line == clockfsm.UpdateBanner:
				c.log.Info("update session started")
				continue
			}

			f, ok := PromptField(line)
			if !ok {
				continue
			}
			// Take one snapshot per session so every field agrees.
			if f == clock.FieldHour || res.Answered == 0 {
				res.Record = c.record()
			}
			answer := Answer(f, res.Record)
			if _, err := io.WriteString(c.rw, answer+serialline.LineEnding); err != nil {
				return res, fmt.Errorf("write answer: %w", err)
			}
			res.Answered++
			c.log.Info("answered", "field", f, "value", answer)
		}
	}
}

func (c *Client) record() clock.TimeRecord {
	if c.time != nil {
		return *c.time
	}
	return RecordFromTime(c.now())
}
