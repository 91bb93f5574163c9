// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialline

// CommandSize is the capacity of the command buffer. One byte is reserved
// for the terminator, so a line keeps at most MaxCommandLen bytes; longer
// lines are cut and still complete on the delimiter.
const (
	CommandSize   = 32
	MaxCommandLen = CommandSize - 1
)

// Reassembler assembles bytes drained from a Ring into commands terminated by
// '\r' or '\n'. Empty lines are discarded. Only one command is held at a
// time: a line completed while another is pending replaces it.
//
// Reassembler belongs to the consumer side and is not goroutine-safe.
type Reassembler struct {
	ring  *Ring
	stats *Statistics

	line      [MaxCommandLen]byte
	n         int
	truncated bool

	pending string
	ready   bool
}

// NewReassembler creates a reassembler draining ring. stats may be nil.
func NewReassembler(ring *Ring, stats *Statistics) *Reassembler {
	return &Reassembler{ring: ring, stats: stats}
}

// Process drains the ring. Every line completed along the way replaces the
// pending command, so after a burst only the latest line is left.
func (a *Reassembler) Process() {
	for {
		b, ok := a.ring.Get()
		if !ok {
			return
		}

		if b == '\r' || b == '\n' {
			if a.n == 0 {
				a.stats.emptyLine()
				continue
			}
			a.pending = string(a.line[:a.n])
			a.ready = true
			a.stats.lineCompleted(a.truncated)
			a.n = 0
			a.truncated = false
			continue
		}

		if a.n < MaxCommandLen {
			a.line[a.n] = b
			a.n++
		} else {
			a.truncated = true
		}
	}
}

// Command returns the pending command and clears it
func (a *Reassembler) Command() (string, bool) {
	if !a.ready {
		return "", false
	}
	cmd := a.pending
	a.pending = ""
	a.ready = false
	return cmd, true
}

// Pending reports whether a complete command is waiting
func (a *Reassembler) Pending() bool {
	return a.ready
}

// Reset discards the partial line, the pending command and every byte still
// buffered in the ring.
func (a *Reassembler) Reset() {
	a.ring.Discard()
	a.n = 0
	a.truncated = false
	a.pending = ""
	a.ready = false
}
