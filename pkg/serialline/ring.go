// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package serialline turns the raw byte stream of a serial link into discrete
// newline-terminated commands.
//
// Bytes arrive from an asynchronous producer (a port reader goroutine standing
// in for the receive interrupt) into a bounded single-producer/single-consumer
// ring. The tick loop drains the ring through a Reassembler that exposes at
// most one complete command at a time.
package serialline

import "sync/atomic"

// DefaultRingCapacity is the receive ring size of the reference appliance
const DefaultRingCapacity = 64

// Ring is a bounded single-producer/single-consumer byte queue.
//
// The producer owns head and the consumer owns tail; each side only stores
// its own index. One slot is always left free to tell full from empty, so a
// ring of capacity n holds at most n-1 bytes. When full, Put drops the byte.
type Ring struct {
	buf  []byte
	head atomic.Uint32 // next write position, producer-owned
	tail atomic.Uint32 // next read position, consumer-owned
}

// NewRing creates a ring with the given capacity (minimum 2)
func NewRing(capacity int) *Ring {
	if capacity < 2 {
		capacity = 2
	}
	return &Ring{buf: make([]byte, capacity)}
}

// Cap returns the ring capacity, one more than the bytes it can hold
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Put appends b. It returns false and drops b when the ring is full.
// Only the producer may call Put.
func (r *Ring) Put(b byte) bool {
	head := r.head.Load()
	next := (head + 1) % uint32(len(r.buf))
	if next == r.tail.Load() {
		return false
	}
	r.buf[head] = b
	r.head.Store(next)
	return true
}

// Get removes the oldest byte. Only the consumer may call Get.
func (r *Ring) Get() (byte, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, false
	}
	b := r.buf[tail]
	r.tail.Store((tail + 1) % uint32(len(r.buf)))
	return b, true
}

// Len returns the number of buffered bytes
func (r *Ring) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int((head + uint32(len(r.buf)) - tail) % uint32(len(r.buf)))
}

// Discard drops every buffered byte. Only the consumer may call Discard.
func (r *Ring) Discard() {
	r.tail.Store(r.head.Load())
}
