// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialline

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/Thermoquad/chronostat/pkg/logger"
)

// LineEnding terminates every outbound line
const LineEnding = "\r\n"

// Port is the appliance side of a serial link.
//
// Receive is the producer entry point and may run on its own goroutine.
// Poll, Send and the listening controls belong to the tick loop.
// While not listening, received bytes are ignored the way a UART with its
// receive interrupt disabled would lose them.
type Port struct {
	ring  *Ring
	asm   *Reassembler
	stats *Statistics
	log   logger.Logger

	listening atomic.Bool

	mu     sync.Mutex
	out    io.Writer
	onSend func(line string)
}

// PortOption configures a Port
type PortOption func(*Port)

// WithWriter sets the outbound byte sink
func WithWriter(w io.Writer) PortOption {
	return func(p *Port) { p.out = w }
}

// WithLogger sets the port logger
func WithLogger(l logger.Logger) PortOption {
	return func(p *Port) { p.log = l }
}

// WithSendHook registers a callback invoked with every outbound line
// (without the line ending), e.g. to keep a transcript.
func WithSendHook(fn func(line string)) PortOption {
	return func(p *Port) { p.onSend = fn }
}

// NewPort creates a port with a receive ring of the given capacity
func NewPort(capacity int, opts ...PortOption) *Port {
	stats := NewStatistics()
	ring := NewRing(capacity)
	p := &Port{
		ring:  ring,
		asm:   NewReassembler(ring, stats),
		stats: stats,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Receive queues bytes from the link and returns how many were accepted.
// Bytes are dropped silently when the ring is full or the port is not
// listening.
func (p *Port) Receive(data []byte) int {
	if !p.listening.Load() {
		p.stats.ignored(len(data))
		return 0
	}
	accepted := 0
	for _, b := range data {
		ok := p.ring.Put(b)
		p.stats.received(ok)
		if ok {
			accepted++
		}
	}
	return accepted
}

// StartListening enables reception
func (p *Port) StartListening() {
	p.listening.Store(true)
}

// StopListening disables reception. Bytes already queued are kept.
func (p *Port) StopListening() {
	p.listening.Store(false)
}

// Listening reports whether reception is enabled
func (p *Port) Listening() bool {
	return p.listening.Load()
}

// Poll drains queued bytes and returns a complete command if one is ready
func (p *Port) Poll() (string, bool) {
	p.asm.Process()
	return p.asm.Command()
}

// Flush discards queued bytes, any partial line and any pending command
func (p *Port) Flush() {
	p.asm.Reset()
}

// Send writes line followed by the line ending. Write failures are logged
// and counted, not returned: the tick loop has no recovery for them.
func (p *Port) Send(line string) {
	p.mu.Lock()
	out := p.out
	hook := p.onSend
	p.mu.Unlock()

	var err error
	if out != nil {
		_, err = io.WriteString(out, line+LineEnding)
		if err != nil {
			p.log.Warn("serial write failed", "err", err)
		}
	}
	p.stats.sent(err)

	if hook != nil {
		hook(line)
	}
}

// SetWriter replaces the outbound sink, e.g. after a reconnect
func (p *Port) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// Stats returns the link statistics
func (p *Port) Stats() *Statistics {
	return p.stats
}

// Buffered returns the number of bytes waiting in the receive ring
func (p *Port) Buffered() int {
	return p.ring.Len()
}
