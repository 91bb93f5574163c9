// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialline

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Statistics tracks serial link counters. Producer and consumer sides update
// it concurrently; all methods are safe on a nil receiver.
type Statistics struct {
	startTime time.Time

	// Producer side
	bytesReceived atomic.Uint64
	bytesDropped  atomic.Uint64 // ring full
	bytesIgnored  atomic.Uint64 // received while not listening

	// Consumer side
	linesCompleted atomic.Uint64
	linesTruncated atomic.Uint64
	emptyLines     atomic.Uint64
	linesSent      atomic.Uint64
	writeErrors    atomic.Uint64
}

// Snapshot is a point-in-time copy of the counters with derived rates
type Snapshot struct {
	Uptime time.Duration

	BytesReceived  uint64
	BytesDropped   uint64
	BytesIgnored   uint64
	LinesCompleted uint64
	LinesTruncated uint64
	EmptyLines     uint64
	LinesSent      uint64
	WriteErrors    uint64

	// Rates (calculated)
	ByteRate float64 // bytes/sec
	LineRate float64 // lines/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) received(accepted bool) {
	if s == nil {
		return
	}
	s.bytesReceived.Add(1)
	if !accepted {
		s.bytesDropped.Add(1)
	}
}

func (s *Statistics) ignored(n int) {
	if s == nil {
		return
	}
	s.bytesReceived.Add(uint64(n))
	s.bytesIgnored.Add(uint64(n))
}

func (s *Statistics) lineCompleted(truncated bool) {
	if s == nil {
		return
	}
	s.linesCompleted.Add(1)
	if truncated {
		s.linesTruncated.Add(1)
	}
}

func (s *Statistics) emptyLine() {
	if s == nil {
		return
	}
	s.emptyLines.Add(1)
}

func (s *Statistics) sent(err error) {
	if s == nil {
		return
	}
	s.linesSent.Add(1)
	if err != nil {
		s.writeErrors.Add(1)
	}
}

// Snapshot copies the counters and calculates rates since creation
func (s *Statistics) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}

	snap := Snapshot{
		Uptime:         time.Since(s.startTime),
		BytesReceived:  s.bytesReceived.Load(),
		BytesDropped:   s.bytesDropped.Load(),
		BytesIgnored:   s.bytesIgnored.Load(),
		LinesCompleted: s.linesCompleted.Load(),
		LinesTruncated: s.linesTruncated.Load(),
		EmptyLines:     s.emptyLines.Load(),
		LinesSent:      s.linesSent.Load(),
		WriteErrors:    s.writeErrors.Load(),
	}

	if elapsed := snap.Uptime.Seconds(); elapsed > 0 {
		snap.ByteRate = float64(snap.BytesReceived) / elapsed
		snap.LineRate = float64(snap.LinesCompleted) / elapsed
	}
	return snap
}

// String formats a one-line summary
func (s Snapshot) String() string {
	return fmt.Sprintf("rx=%d dropped=%d ignored=%d lines=%d truncated=%d sent=%d write_errors=%d (%.1f B/s)",
		s.BytesReceived, s.BytesDropped, s.BytesIgnored, s.LinesCompleted, s.LinesTruncated,
		s.LinesSent, s.WriteErrors, s.ByteRate)
}
