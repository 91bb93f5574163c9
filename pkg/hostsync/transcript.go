// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hostsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/clockfsm"
)

// EventKind classifies one line of appliance output
type EventKind uint8

const (
	EventOther EventKind = iota
	EventBanner
	EventHint
	EventPrompt
	EventEcho
	EventReject
	EventTimeout
	EventComplete
	EventFailure
)

func (k EventKind) String() string {
	switch k {
	case EventBanner:
		return "BANNER"
	case EventHint:
		return "HINT"
	case EventPrompt:
		return "PROMPT"
	case EventEcho:
		return "ECHO"
	case EventReject:
		return "REJECT"
	case EventTimeout:
		return "TIMEOUT"
	case EventComplete:
		return "COMPLETE"
	case EventFailure:
		return "FAILURE"
	default:
		return "OTHER"
	}
}

// IsError reports whether k signals a problem in the session
func (k EventKind) IsError() bool {
	return k == EventReject || k == EventTimeout || k == EventFailure
}

// Event is a classified appliance line
type Event struct {
	Kind      EventKind
	Line      string
	Field     clock.Field // valid for EventPrompt
	Value     string      // valid for EventEcho
	Timestamp time.Time
}

// Classify interprets one line of appliance output
func Classify(line string) Event {
	ev := Event{Kind: EventOther, Line: line, Timestamp: time.Now()}
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == clockfsm.UpdateBanner:
		ev.Kind = EventBanner
	case trimmed == strings.TrimSpace(clockfsm.Prompts[clock.FieldWeekday][0]):
		ev.Kind = EventHint
	case strings.HasPrefix(line, clockfsm.ReceivedPrefix):
		ev.Kind = EventEcho
		ev.Value = strings.TrimPrefix(line, clockfsm.ReceivedPrefix)
	case trimmed == clockfsm.RejectNotice:
		ev.Kind = EventReject
	case trimmed == clockfsm.TimeoutNotice:
		ev.Kind = EventTimeout
	case trimmed == clockfsm.CompleteNotice:
		ev.Kind = EventComplete
	case strings.HasPrefix(trimmed, "ERROR:"):
		ev.Kind = EventFailure
	default:
		if f, ok := PromptField(line); ok {
			ev.Kind = EventPrompt
			ev.Field = f
		}
	}
	return ev
}

// Format renders an event as a log line
func (e Event) Format() string {
	ts := e.Timestamp.Format("15:04:05.000")
	switch e.Kind {
	case EventPrompt:
		return fmt.Sprintf("[%s] %-8s %s", ts, e.Kind, e.Field)
	case EventEcho:
		return fmt.Sprintf("[%s] %-8s %q", ts, e.Kind, e.Value)
	default:
		return fmt.Sprintf("[%s] %-8s %s", ts, e.Kind, strings.TrimSpace(e.Line))
	}
}

// SessionStats tracks update sessions seen in appliance output
type SessionStats struct {
	startTime time.Time

	Lines     uint64
	Started   uint64
	Completed uint64
	Failed    uint64
	Prompts   uint64
	Accepted  uint64
	Rejected  uint64
	Timeouts  uint64

	// TimeoutsByField counts timeouts per prompted field
	TimeoutsByField [clock.FieldCount]uint64

	// Active is true between a banner and the end of its session
	Active  bool
	Current clock.Field

	// Rates (calculated)
	LineRate float64 // lines/sec
}

// NewSessionStats creates an empty tracker
func NewSessionStats() *SessionStats {
	return &SessionStats{startTime: time.Now()}
}

// Update accounts for one event
func (s *SessionStats) Update(ev Event) {
	s.Lines++
	switch ev.Kind {
	case EventBanner:
		s.Started++
		s.Active = true
		s.Current = clock.FieldHour
	case EventPrompt:
		s.Prompts++
		s.Current = ev.Field
	case EventEcho:
		s.Accepted++
	case EventReject:
		s.Rejected++
	case EventTimeout:
		s.Timeouts++
		s.TimeoutsByField[s.Current]++
	case EventComplete:
		s.Completed++
		s.Active = false
	case EventFailure:
		s.Failed++
		s.Active = false
	}
}

// CalculateRates updates the derived rates
func (s *SessionStats) CalculateRates() {
	if elapsed := time.Since(s.startTime).Seconds(); elapsed > 0 {
		s.LineRate = float64(s.Lines) / elapsed
	}
}

// SuccessRate returns the share of finished sessions that completed
func (s *SessionStats) SuccessRate() float64 {
	finished := s.Completed + s.Failed
	if finished == 0 {
		return 0
	}
	return float64(s.Completed) * 100.0 / float64(finished)
}

// String returns a multi-line summary
func (s *SessionStats) String() string {
	s.CalculateRates()

	var b strings.Builder
	b.WriteString("=== Update Session Statistics ===\n")
	fmt.Fprintf(&b, "Uptime:     %s\n", time.Since(s.startTime).Round(time.Second))
	fmt.Fprintf(&b, "Lines:      %d (%.1f lines/s)\n", s.Lines, s.LineRate)
	fmt.Fprintf(&b, "Sessions:   %d started, %d completed, %d failed (%.1f%% success)\n",
		s.Started, s.Completed, s.Failed, s.SuccessRate())
	fmt.Fprintf(&b, "Responses:  %d prompts, %d accepted, %d rejected, %d timeouts\n",
		s.Prompts, s.Accepted, s.Rejected, s.Timeouts)
	if s.Timeouts > 0 {
		b.WriteString("Timeouts by field:")
		for _, f := range clock.Fields {
			if n := s.TimeoutsByField[f]; n > 0 {
				fmt.Fprintf(&b, " %s=%d", f, n)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
