// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/chronostat/pkg/logger"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

// Link events delivered through linkManager.notify
type linkLostMsg struct {
	err error
}

type linkRestoredMsg struct {
	connInfo string
}

type linkRxMsg struct {
	data     []byte
	accepted int
}

// linkManager carries bytes between a Connection and the appliance serial
// port. The reader goroutine is the producer side of the port; outbound
// lines go straight to the connection through the port writer.
type linkManager struct {
	conn     Connection
	connInfo string
	mu       sync.RWMutex
	port     *serialline.Port
	log      logger.Logger
	notify   func(msg any)
	open     func() (Connection, string, error)
	done     chan struct{}
	stopOnce sync.Once
}

func newLinkManager(conn Connection, connInfo string, port *serialline.Port, log logger.Logger) *linkManager {
	return &linkManager{
		conn:     conn,
		connInfo: connInfo,
		port:     port,
		log:      log,
		notify:   func(any) {},
		open:     OpenConnection,
		done:     make(chan struct{}),
	}
}

func (lm *linkManager) getConn() Connection {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.conn
}

func (lm *linkManager) setConn(conn Connection, connInfo string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.conn = conn
	lm.connInfo = connInfo
}

func (lm *linkManager) info() string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.connInfo
}

// start attaches the connection to the port and begins reading
func (lm *linkManager) start() {
	lm.port.SetWriter(lm.getConn())
	go lm.readerLoop()
}

// stop ends the reader and closes the connection
func (lm *linkManager) stop() {
	lm.stopOnce.Do(func() {
		close(lm.done)
		lm.port.SetWriter(nil)
		if conn := lm.getConn(); conn != nil {
			conn.Close()
		}
	})
}

// readerLoop handles reading from the connection with automatic reconnection
func (lm *linkManager) readerLoop() {
	for {
		select {
		case <-lm.done:
			return
		default:
		}

		err := lm.readFromConnection()
		if err == nil {
			return // Shutdown requested
		}

		lm.port.SetWriter(nil)
		lm.log.Warn("link lost", "conn", lm.info(), "err", err)
		lm.notify(linkLostMsg{err: err})

		if !lm.reconnect() {
			return // Shutdown requested during reconnect
		}
	}
}

// readFromConnection feeds received bytes into the port until the link
// fails. It returns nil when shutdown was requested.
func (lm *linkManager) readFromConnection() error {
	buf := make([]byte, 128)
	for {
		conn := lm.getConn()
		if conn == nil {
			return ErrConnectionClosed
		}

		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			accepted := lm.port.Receive(data)
			lm.notify(linkRxMsg{data: data, accepted: accepted})
		}
		if err != nil {
			select {
			case <-lm.done:
				return nil
			default:
			}
			// A WebSocket read error or EOF means the link is gone for good
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				return err
			}
			if _, ws := conn.(*bridgeLink); ws {
				return err
			}
			// Brief pause before retry on transient errors (e.g., serial)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (lm *linkManager) reconnect() bool {
	if conn := lm.getConn(); conn != nil {
		conn.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-lm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := lm.open()
		if err == nil {
			lm.setConn(conn, connInfo)
			lm.port.SetWriter(conn)
			lm.log.Info("link restored", "conn", connInfo)
			lm.notify(linkRestoredMsg{connInfo: connInfo})
			return true
		}
		lm.log.Debug("reconnect failed", "err", err, "retry_in", backoff)

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
