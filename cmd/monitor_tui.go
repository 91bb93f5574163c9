// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/hostsync"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// TUI model
type monitorModel struct {
	connInfo      string
	showAll       bool
	started       time.Time
	stats         *hostsync.SessionStats
	eventLog      []eventLogEntry
	maxLogEntries int
	lastPrompt    *hostsync.Event
	closed        bool
	width         int
	height        int
	quitting      bool
}

// Messages
type monitorTickMsg time.Time
type monitorEventMsg hostsync.Event
type monitorClosedMsg struct{}

// formatUptime formats a duration as a human-friendly string
func formatUptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0 seconds"
	}

	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialMonitorModel(connInfo string, showAll bool) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		showAll:       showAll,
		started:       time.Now(),
		stats:         hostsync.NewSessionStats(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case monitorClosedMsg:
		m.closed = true
		m.addLogEntry("Connection closed", true)

	case monitorEventMsg:
		ev := hostsync.Event(msg)
		m.stats.Update(ev)

		switch {
		case ev.Kind == hostsync.EventPrompt:
			m.lastPrompt = &ev
			if m.showAll {
				m.addLogEntry(fmt.Sprintf("Prompt: %s", ev.Field), false)
			}
		case ev.Kind == hostsync.EventReject:
			m.addLogEntry(fmt.Sprintf("%s rejected", m.promptedField()), true)
		case ev.Kind == hostsync.EventTimeout:
			m.addLogEntry(fmt.Sprintf("%s timed out", m.promptedField()), true)
		case ev.Kind == hostsync.EventFailure:
			m.addLogEntry(strings.TrimSpace(ev.Line), true)
			m.lastPrompt = nil
		case ev.Kind == hostsync.EventBanner:
			m.addLogEntry("Update session started", false)
		case ev.Kind == hostsync.EventComplete:
			m.addLogEntry("Update complete", false)
			m.lastPrompt = nil
		case m.showAll:
			m.addLogEntry(strings.TrimSpace(ev.Line), false)
		}
	}

	return m, nil
}

func (m *monitorModel) promptedField() string {
	if m.lastPrompt == nil {
		return "response"
	}
	return m.lastPrompt.Field.String()
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("CHRONOSTAT - UPDATE SESSION MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Mode: %s | Press 'q' to quit",
		m.connInfo, func() string {
			if m.showAll {
				return "All lines"
			}
			return "Errors only"
		}())))
	s.WriteString("\n\n")

	// Session status
	switch {
	case m.closed:
		s.WriteString(errorStyle.Render("✗ Connection closed"))
	case m.stats.Active:
		s.WriteString(statsValueStyle.Render(fmt.Sprintf("● Session active, waiting for %s", m.stats.Current)))
	default:
		s.WriteString(warningStyle.Render("⏳ Waiting for an update session..."))
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("  (up %s)", formatUptime(time.Since(m.started)))))
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Sessions:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Started)),
		statsLabelStyle.Render("Completed:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.Completed, m.stats.SuccessRate())),
		statsLabelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.Failed)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Prompts:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Prompts)),
		statsLabelStyle.Render("Accepted:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Accepted)),
		statsLabelStyle.Render("Rejected:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.Rejected)),
		statsLabelStyle.Render("Timeouts:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.Timeouts)),
	))

	if m.stats.Timeouts > 0 {
		statsContent.WriteString(statsLabelStyle.Render("Timeouts by field:"))
		for _, f := range clock.Fields {
			if n := m.stats.TimeoutsByField[f]; n > 0 {
				statsContent.WriteString(fmt.Sprintf(" %s %d", headerStyle.Render(f.String()), n))
			}
		}
		statsContent.WriteString("\n")
	}

	statsContent.WriteString(fmt.Sprintf("%s %s",
		statsLabelStyle.Render("Line Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f lines/s", m.stats.LineRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 15 // Reserve space for header and stats
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
