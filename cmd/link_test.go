// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/chronostat/pkg/config"
	"github.com/Thermoquad/chronostat/pkg/logger"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

// pipeConn is a Connection whose peer writes into peer and reads written
type pipeConn struct {
	r    *io.PipeReader
	peer *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
}

func newPipeConn() *pipeConn {
	r, w := io.Pipe()
	return &pipeConn{r: r, peer: w}
}

func (c *pipeConn) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *pipeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *pipeConn) Close() error { return c.r.Close() }

func (c *pipeConn) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

func waitFor[T any](t *testing.T, events <-chan any) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if msg, ok := ev.(T); ok {
				return msg
			}
		case <-deadline:
			var zero T
			t.Fatalf("no %T event", zero)
			return zero
		}
	}
}

func startTestLink(t *testing.T, conn Connection) (*linkManager, *serialline.Port, <-chan any) {
	t.Helper()
	port := serialline.NewPort(serialline.DefaultRingCapacity)
	port.StartListening()

	events := make(chan any, 64)
	lm := newLinkManager(conn, "pipe", port, logger.Nop())
	lm.notify = func(msg any) { events <- msg }
	lm.start()
	t.Cleanup(lm.stop)
	return lm, port, events
}

func TestLinkManager_FeedsPort(t *testing.T) {
	conn := newPipeConn()
	_, port, events := startTestLink(t, conn)

	go conn.peer.Write([]byte("23\r\n"))
	rx := waitFor[linkRxMsg](t, events)
	assert.Equal(t, len(rx.data), rx.accepted)

	line, ok := port.Poll()
	require.True(t, ok)
	assert.Equal(t, "23", line)
}

func TestLinkManager_SendsToConnection(t *testing.T) {
	conn := newPipeConn()
	_, port, _ := startTestLink(t, conn)

	port.Send("Hours (0-23): ")
	assert.Equal(t, "Hours (0-23): \r\n", conn.output())
}

func TestLinkManager_Reconnects(t *testing.T) {
	first := newPipeConn()
	second := newPipeConn()

	lm, port, events := startTestLink(t, first)
	lm.open = func() (Connection, string, error) { return second, "pipe 2", nil }

	first.peer.Close()
	lost := waitFor[linkLostMsg](t, events)
	assert.ErrorIs(t, lost.err, io.EOF)

	restored := waitFor[linkRestoredMsg](t, events)
	assert.Equal(t, "pipe 2", restored.connInfo)
	assert.Equal(t, "pipe 2", lm.info())

	port.Send("Day: ")
	assert.Equal(t, "Day: \r\n", second.output())

	go second.peer.Write([]byte("Wed\r\n"))
	waitFor[linkRxMsg](t, events)
	line, ok := port.Poll()
	require.True(t, ok)
	assert.Equal(t, "Wed", line)
}

func TestOpenLink_RequiresTarget(t *testing.T) {
	cfg := config.Default()
	_, _, err := openLink(cfg.Serial)
	assert.Error(t, err)
}
