// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const maxTranscriptEntries = 200

// Transcript directions
const (
	dirSent     = '<' // appliance to peer
	dirReceived = '>' // peer to appliance
	dirEvent    = '*' // link and simulator events
)

type transcriptEntry struct {
	timestamp time.Time
	dir       byte
	text      string
	isError   bool
}

// transcript keeps the most recent serial lines in both directions. It is
// owned by the bubbletea update goroutine.
type transcript struct {
	entries []transcriptEntry
	max     int
	partial []byte // received bytes not yet terminated
	changed bool
}

func newTranscript(max int) *transcript {
	return &transcript{max: max, changed: true}
}

func (t *transcript) add(dir byte, text string, isError bool) {
	t.entries = append(t.entries, transcriptEntry{
		timestamp: time.Now(),
		dir:       dir,
		text:      text,
		isError:   isError,
	})

	// Keep only last N entries
	if len(t.entries) > t.max {
		t.entries = t.entries[len(t.entries)-t.max:]
	}
	t.changed = true
}

// addSent records a line the appliance transmitted
func (t *transcript) addSent(line string) {
	t.add(dirSent, line, strings.HasPrefix(line, "ERROR"))
}

// addReceived records bytes from the link, one entry per completed line
func (t *transcript) addReceived(data []byte, accepted int) {
	if accepted < len(data) {
		t.add(dirEvent, fmt.Sprintf("%d of %d bytes ignored", len(data)-accepted, len(data)), true)
	}
	for _, b := range data {
		if b == '\r' || b == '\n' {
			if len(t.partial) > 0 {
				t.add(dirReceived, string(t.partial), false)
				t.partial = t.partial[:0]
			}
			continue
		}
		t.partial = append(t.partial, b)
	}
}

func (t *transcript) event(text string, isError bool) {
	t.add(dirEvent, text, isError)
}

// render formats the entries with one line each
func (t *transcript) render(headerStyle, sentStyle, receivedStyle, errorStyle lipgloss.Style) string {
	if len(t.entries) == 0 {
		return headerStyle.Render("  (no traffic yet)")
	}

	var s strings.Builder
	for i, e := range t.entries {
		if i > 0 {
			s.WriteString("\n")
		}
		style := sentStyle
		switch {
		case e.isError:
			style = errorStyle
		case e.dir == dirReceived:
			style = receivedStyle
		case e.dir == dirEvent:
			style = headerStyle
		}
		fmt.Fprintf(&s, "%s %s",
			headerStyle.Render(e.timestamp.Format("15:04:05.000")),
			style.Render(fmt.Sprintf("%c %s", e.dir, e.text)),
		)
	}
	return s.String()
}
