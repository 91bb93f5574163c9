// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/chronostat/pkg/config"
)

// passwordEnv holds the bridge password for non-interactive use
const passwordEnv = "CHRONOSTAT_PASSWORD"

// Connection is the byte stream of an appliance UART, either a local serial
// port or a WebSocket bridge
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned by reads after a bridge connection failed
var ErrConnectionClosed = errors.New("websocket connection closed")

//////////////////////////////////////////////////////////////
// Serial
//////////////////////////////////////////////////////////////

type serialLink struct {
	port serial.Port
}

func (s *serialLink) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialLink) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialLink) Close() error                { return s.port.Close() }

// serialMode builds the line settings for s. Data bits are always 8.
func serialMode(s config.SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: s.Baud, DataBits: 8}

	switch s.Parity {
	case "", "none":
		mode.Parity = serial.NoParity
	case "even":
		mode.Parity = serial.EvenParity
	case "odd":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", s.Parity)
	}

	switch s.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", s.StopBits)
	}
	return mode, nil
}

func openSerial(s config.SerialConfig) (Connection, error) {
	mode, err := serialMode(s)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(s.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", s.Port, err)
	}
	return &serialLink{port: port}, nil
}

//////////////////////////////////////////////////////////////
// WebSocket bridge
//////////////////////////////////////////////////////////////

// bridgeLink carries the UART byte stream over a WebSocket. Each accepted
// frame is a chunk of the stream; frames of the other type are skipped.
type bridgeLink struct {
	conn    *websocket.Conn
	frames  string
	pending []byte
	closed  bool
}

func (b *bridgeLink) accepts(messageType int) bool {
	switch b.frames {
	case config.FramesText:
		return messageType == websocket.TextMessage
	case config.FramesBinary:
		return messageType == websocket.BinaryMessage
	default:
		return messageType == websocket.TextMessage || messageType == websocket.BinaryMessage
	}
}

func (b *bridgeLink) writeType() int {
	if b.frames == config.FramesText {
		return websocket.TextMessage
	}
	return websocket.BinaryMessage
}

func (b *bridgeLink) Read(p []byte) (int, error) {
	if b.closed {
		return 0, ErrConnectionClosed
	}
	for len(b.pending) == 0 {
		messageType, data, err := b.conn.ReadMessage()
		if err != nil {
			b.closed = true
			return 0, err
		}
		if b.accepts(messageType) {
			b.pending = data
		}
	}
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

func (b *bridgeLink) Write(p []byte) (int, error) {
	if err := b.conn.WriteMessage(b.writeType(), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *bridgeLink) Close() error {
	return b.conn.Close()
}

// basicAuth returns handshake headers carrying HTTP Basic credentials, or
// no headers when either part is empty
func basicAuth(username, password string) http.Header {
	h := http.Header{}
	if username == "" || password == "" {
		return h
	}
	req := http.Request{Header: h}
	req.SetBasicAuth(username, password)
	return h
}

func dialBridge(s config.SerialConfig, password string) (*bridgeLink, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	switch u.Scheme {
	case "ws":
	case "wss":
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: s.NoSSLVerify}
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, s.URL, basicAuth(s.Username, password))
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &bridgeLink{conn: conn, frames: s.Frames}, nil
}

//////////////////////////////////////////////////////////////
// Credentials
//////////////////////////////////////////////////////////////

// readPassword takes the bridge password from the environment or, failing
// that, from the terminal without echo
func readPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err == nil {
		return string(pw), nil
	}

	// Not a terminal: read a plain line.
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// The password is asked for once; reconnects reuse it.
var (
	passwordOnce sync.Once
	password     string
	passwordErr  error
)

func cachedPassword() (string, error) {
	passwordOnce.Do(func() {
		password, passwordErr = readPassword()
	})
	return password, passwordErr
}

//////////////////////////////////////////////////////////////
// Opening
//////////////////////////////////////////////////////////////

// OpenConnection opens the link described by the merged settings. The
// returned string describes the link for display.
func OpenConnection() (Connection, string, error) {
	return openLink(settings.Serial)
}

func openLink(s config.SerialConfig) (Connection, string, error) {
	switch {
	case s.URL != "":
		pw := ""
		if s.Username != "" {
			var err error
			if pw, err = cachedPassword(); err != nil {
				return nil, "", err
			}
		}
		conn, err := dialBridge(s, pw)
		if err != nil {
			return nil, "", err
		}
		return conn, describeLink(s), nil

	case s.Port != "":
		conn, err := openSerial(s)
		if err != nil {
			return nil, "", err
		}
		return conn, describeLink(s), nil
	}

	return nil, "", errors.New("either --port or --url must be specified (or serial.port / serial.url in the config file)")
}

// describeLink renders s as "Serial: /dev/ttyUSB0 @ 115200 8N1" or
// "WebSocket: ws://host/uart (text frames)"
func describeLink(s config.SerialConfig) string {
	if s.URL != "" {
		frames := s.Frames
		if frames == "" {
			frames = config.FramesAny
		}
		return fmt.Sprintf("WebSocket: %s (%s frames)", s.URL, frames)
	}

	parity := "N"
	switch s.Parity {
	case "even":
		parity = "E"
	case "odd":
		parity = "O"
	}
	stop := s.StopBits
	if stop == 0 {
		stop = 1
	}
	return fmt.Sprintf("Serial: %s @ %d 8%s%d", s.Port, s.Baud, parity, stop)
}
