// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/chronostat/pkg/clock"
	"github.com/Thermoquad/chronostat/pkg/clockfsm"
	"github.com/Thermoquad/chronostat/pkg/serialline"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusKeypad = iota
	focusConsole
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// runModel is the Bubble Tea model for the simulator TUI
type runModel struct {
	app      *appliance
	link     *linkManager
	connInfo string
	tr       *transcript

	// Console
	console      textinput.Model
	traffic      viewport.Model
	focusedField int

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
	lastKey        string
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type runTickMsg time.Time

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialRunModel(app *appliance, link *linkManager, tr *transcript, connInfo string) runModel {
	ti := textinput.New()
	ti.Placeholder = "type a response, enter to send"
	ti.CharLimit = serialline.MaxCommandLen
	ti.Width = serialline.MaxCommandLen + 2

	vp := viewport.New(76, 8)

	return runModel{
		app:          app,
		link:         link,
		connInfo:     connInfo,
		tr:           tr,
		console:      ti,
		traffic:      vp,
		focusedField: focusKeypad,
		width:        80,
		height:       24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m runModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m runModel) tickCmd() tea.Cmd {
	return tea.Tick(m.app.cfg.Tick(), func(t time.Time) tea.Msg {
		return runTickMsg(t)
	})
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTraffic()

	case runTickMsg:
		m.app.tick()
		m.refreshTraffic()
		return m, m.tickCmd()

	case linkRxMsg:
		m.tr.addReceived(msg.data, msg.accepted)
		m.refreshTraffic()

	case linkLostMsg:
		m.connectionLost = true
		m.tr.event(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)
		m.refreshTraffic()

	case linkRestoredMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.tr.event("Reconnected", false)
		m.refreshTraffic()
	}

	return m, nil
}

func (m runModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.focusedField == focusConsole {
		switch msg.String() {
		case "esc", "tab":
			m.focusedField = focusKeypad
			m.console.Blur()
			return m, nil
		case "enter":
			m.sendConsoleLine()
			return m, nil
		}
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(msg)
		return m, cmd
	}

	key := msg.String()
	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "tab":
		m.focusedField = focusConsole
		return m, m.console.Focus()
	case "m":
		m.app.press(clockfsm.ButtonMode)
	case "R":
		m.app.reset()
	case "up", "k":
		m.app.press(clockfsm.ButtonUp)
	case "U":
		m.app.hold(clockfsm.ButtonUp, m.app.repeatTicks())
	case "down", "j":
		m.app.press(clockfsm.ButtonDown)
	case "D":
		m.app.hold(clockfsm.ButtonDown, m.app.repeatTicks())
	case "n", "enter", "right":
		m.app.press(clockfsm.ButtonNext)
	default:
		return m, nil
	}
	m.lastKey = key
	return m, nil
}

// sendConsoleLine delivers the console text to the appliance receiver
func (m *runModel) sendConsoleLine() {
	line := m.console.Value()
	m.console.SetValue("")

	accepted := m.app.inject(line)
	m.tr.add(dirReceived, line, false)
	if accepted == 0 {
		m.tr.event("receiver not listening, line dropped", true)
	}
	m.refreshTraffic()
}

func (m *runModel) resizeTraffic() {
	m.traffic.Width = max(m.width-4, 20)
	// Reserve space for the display, status box, console and help
	m.traffic.Height = max(m.height-24, 4)
	m.refreshTraffic()
}

func (m *runModel) refreshTraffic() {
	if !m.tr.changed {
		return
	}
	m.tr.changed = false
	m.traffic.SetContent(m.tr.render(runHeaderStyle, runSentStyle, runReceivedStyle, runErrorStyle))
	m.traffic.GotoBottom()
}

//////////////////////////////////////////////////////////////
// Styles
//////////////////////////////////////////////////////////////

var (
	runTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	runHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	runLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	runValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	runSentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	runReceivedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11"))

	runErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	runBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	runFocusedBoxStyle = runBoxStyle.
				BorderForeground(lipgloss.Color("12"))
)

//////////////////////////////////////////////////////////////
// Rendering
//////////////////////////////////////////////////////////////

func (m runModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(runTitleStyle.Render("CHRONOSTAT - CLOCK SIMULATOR"))
	s.WriteString("\n")

	conn := m.connInfo
	if m.connectionLost {
		conn = runErrorStyle.Render(conn + " (lost)")
	}
	s.WriteString(runHeaderStyle.Render(fmt.Sprintf("Serial: %s | Tick: %s | Press 'q' to quit",
		conn, m.app.cfg.Tick())))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.app.canvas.Render(),
		"  ",
		runBoxStyle.Render(m.renderState()),
	))
	s.WriteString("\n")

	s.WriteString(runLabelStyle.Render("Serial Traffic:"))
	s.WriteString("\n")
	s.WriteString(runBoxStyle.Width(max(m.width-2, 20)).Render(m.traffic.View()))
	s.WriteString("\n")

	consoleBox := runBoxStyle
	if m.focusedField == focusConsole {
		consoleBox = runFocusedBoxStyle
	}
	s.WriteString(consoleBox.Render(m.console.View()))
	s.WriteString("\n")

	s.WriteString(runHeaderStyle.Render("m mode · R reset · ↑↓/kj step · U/D hold · n next · tab console"))
	return s.String()
}

func (m runModel) renderState() string {
	ctrl := m.app.ctrl

	var s strings.Builder
	fmt.Fprintf(&s, "%s %s\n", runLabelStyle.Render("Mode:"), runValueStyle.Render(ctrl.Mode().String()))
	fmt.Fprintf(&s, "%s %s\n", runLabelStyle.Render("RTC:"), runValueStyle.Render(ctrl.Now().String()))
	fmt.Fprintf(&s, "%s %s\n", runLabelStyle.Render("Alarm:"), runValueStyle.Render(ctrl.Alarm().String()))

	switch ctrl.Mode() {
	case clock.ModeSetTime:
		fmt.Fprintf(&s, "%s %s\n", runLabelStyle.Render("Editing:"), runValueStyle.Render(ctrl.TimeCursor().String()))
	case clock.ModeSetAlarm:
		fmt.Fprintf(&s, "%s %s\n", runLabelStyle.Render("Editing:"), runValueStyle.Render(ctrl.AlarmCursor().String()))
	case clock.ModeUpdate:
		if sess, ok := ctrl.Session(); ok {
			fmt.Fprintf(&s, "%s %s\n", runLabelStyle.Render("Waiting:"),
				runValueStyle.Render(fmt.Sprintf("%s (%d ticks)", sess.Cursor, sess.TicksUntilTimeout)))
		}
	}

	snap := m.app.port.Stats().Snapshot()
	listening := "off"
	if m.app.port.Listening() {
		listening = "on"
	}
	fmt.Fprintf(&s, "%s %s   %s %d/%d\n",
		runLabelStyle.Render("RX:"), runValueStyle.Render(listening),
		runLabelStyle.Render("Buffered:"), m.app.port.Buffered(), m.app.cfg.Serial.RingCapacity)
	fmt.Fprintf(&s, "%s %d   %s %d   %s %d",
		runLabelStyle.Render("Lines in:"), snap.LinesCompleted,
		runLabelStyle.Render("out:"), snap.LinesSent,
		runLabelStyle.Render("dropped:"), snap.BytesDropped+snap.BytesIgnored)
	if m.lastKey != "" {
		fmt.Fprintf(&s, "\n%s %s", runLabelStyle.Render("Last key:"), runHeaderStyle.Render(m.lastKey))
	}
	return s.String()
}
