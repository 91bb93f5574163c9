// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/Thermoquad/chronostat/pkg/config"
)

type wsFrame struct {
	kind int
	data string
}

// startBridge serves a WebSocket that sends frames, then reports the first
// frame it receives on got and hangs up
func startBridge(t *testing.T, frames []wsFrame) (string, <-chan wsFrame) {
	t.Helper()
	got := make(chan wsFrame, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for _, f := range frames {
			if err := c.WriteMessage(f.kind, []byte(f.data)); err != nil {
				return
			}
		}
		kind, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		got <- wsFrame{kind: kind, data: string(data)}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), got
}

func dialTestBridge(t *testing.T, url, frames string) *bridgeLink {
	t.Helper()
	s := config.Default().Serial
	s.URL = url
	s.Frames = frames
	b, err := dialBridge(s, "")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func readAll(t *testing.T, b *bridgeLink, want int) string {
	t.Helper()
	var out []byte
	buf := make([]byte, 4)
	for len(out) < want {
		n, err := b.Read(buf)
		require.NoError(t, err)
		out = append(out, buf[:n]...)
	}
	return string(out)
}

func waitFrame(t *testing.T, got <-chan wsFrame) wsFrame {
	t.Helper()
	select {
	case f := <-got:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("bridge received nothing")
		return wsFrame{}
	}
}

func TestBridgeLink_TextFrames(t *testing.T) {
	url, got := startBridge(t, []wsFrame{
		{websocket.BinaryMessage, "\x00\x01"},
		{websocket.TextMessage, "Hours (0-23): \r\n"},
	})
	b := dialTestBridge(t, url, config.FramesText)

	assert.Equal(t, "Hours (0-23): \r\n", readAll(t, b, 16))

	_, err := b.Write([]byte("10\r\n"))
	require.NoError(t, err)
	assert.Equal(t, wsFrame{websocket.TextMessage, "10\r\n"}, waitFrame(t, got))

	_, err = b.Read(make([]byte, 8))
	assert.Error(t, err, "bridge hung up")
	_, err = b.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestBridgeLink_AnyFrames(t *testing.T) {
	url, got := startBridge(t, []wsFrame{
		{websocket.BinaryMessage, "Day: "},
		{websocket.TextMessage, "\r\n"},
	})
	b := dialTestBridge(t, url, config.FramesAny)

	assert.Equal(t, "Day: \r\n", readAll(t, b, 7))

	_, err := b.Write([]byte("Wed\r\n"))
	require.NoError(t, err)
	assert.Equal(t, wsFrame{websocket.BinaryMessage, "Wed\r\n"}, waitFrame(t, got))
}

func TestBridgeLink_BinaryFramesSkipText(t *testing.T) {
	url, _ := startBridge(t, []wsFrame{
		{websocket.TextMessage, "noise"},
		{websocket.BinaryMessage, "ok"},
	})
	b := dialTestBridge(t, url, config.FramesBinary)

	assert.Equal(t, "ok", readAll(t, b, 2))
}

func TestDialBridge_RejectsScheme(t *testing.T) {
	s := config.Default().Serial
	s.URL = "http://router/uart"
	_, err := dialBridge(s, "")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestBasicAuth(t *testing.T) {
	assert.Empty(t, basicAuth("", "secret"))
	assert.Empty(t, basicAuth("admin", ""))

	h := basicAuth("admin", "secret")
	req := http.Request{Header: h}
	user, pw, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "secret", pw)
}

func TestSerialMode(t *testing.T) {
	tests := []struct {
		parity   string
		stopBits int
		want     serial.Mode
	}{
		{"none", 1, serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}},
		{"", 0, serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}},
		{"even", 2, serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.TwoStopBits}},
		{"odd", 1, serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.OddParity, StopBits: serial.OneStopBit}},
	}
	for _, tt := range tests {
		t.Run(tt.parity, func(t *testing.T) {
			s := config.SerialConfig{Baud: 9600, Parity: tt.parity, StopBits: tt.stopBits}
			mode, err := serialMode(s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *mode)
		})
	}

	_, err := serialMode(config.SerialConfig{Baud: 9600, Parity: "mark", StopBits: 1})
	assert.Error(t, err)
	_, err = serialMode(config.SerialConfig{Baud: 9600, Parity: "none", StopBits: 3})
	assert.Error(t, err)
}

func TestDescribeLink(t *testing.T) {
	s := config.Default().Serial
	s.Port = "/dev/ttyUSB0"
	assert.Equal(t, "Serial: /dev/ttyUSB0 @ 115200 8N1", describeLink(s))

	s.Parity, s.StopBits, s.Baud = "even", 2, 9600
	assert.Equal(t, "Serial: /dev/ttyUSB0 @ 9600 8E2", describeLink(s))

	s = config.Default().Serial
	s.URL = "ws://router/uart"
	s.Frames = config.FramesText
	assert.Equal(t, "WebSocket: ws://router/uart (text frames)", describeLink(s))
}
