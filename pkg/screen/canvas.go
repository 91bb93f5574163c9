// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package screen renders the controller's display intents. A Canvas keeps
// the last intent of every slot, the way a small LCD keeps its pixels, and
// turns them into text for a terminal.
package screen

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/chronostat/pkg/clockfsm"
)

// Width is the character width of the simulated panel
const Width = 32

var palette = map[clockfsm.Color]lipgloss.Color{
	clockfsm.ColorWhite:   lipgloss.Color("15"),
	clockfsm.ColorGreen:   lipgloss.Color("10"),
	clockfsm.ColorYellow:  lipgloss.Color("11"),
	clockfsm.ColorCyan:    lipgloss.Color("14"),
	clockfsm.ColorMagenta: lipgloss.Color("13"),
	clockfsm.ColorRed:     lipgloss.Color("9"),
	clockfsm.ColorBlack:   lipgloss.Color("0"),
}

// separator returns the text placed before slot i of region r
func separator(r clockfsm.Region, i int) string {
	if i == 0 {
		return ""
	}
	switch r {
	case clockfsm.RegionTime:
		return ":"
	case clockfsm.RegionDate:
		if i == 1 {
			return " "
		}
		return "/"
	default:
		return " "
	}
}

// Canvas implements clockfsm.Display. It is not goroutine-safe.
type Canvas struct {
	regions [clockfsm.RegionCount]map[uint8]clockfsm.Intent
	panel   lipgloss.Style
}

// NewCanvas creates an empty canvas
func NewCanvas() *Canvas {
	return &Canvas{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Background(lipgloss.Color("0")).
			Width(Width).
			Padding(0, 1),
	}
}

// Clear erases every slot of r
func (c *Canvas) Clear(r clockfsm.Region) {
	if int(r) < len(c.regions) {
		c.regions[r] = nil
	}
}

// Draw stores i, replacing whatever its slot held
func (c *Canvas) Draw(i clockfsm.Intent) {
	if int(i.Region) >= len(c.regions) {
		return
	}
	if c.regions[i.Region] == nil {
		c.regions[i.Region] = make(map[uint8]clockfsm.Intent)
	}
	c.regions[i.Region][i.Slot] = i
}

// Slot returns the text a slot currently shows; blanked slots read as
// spaces.
func (c *Canvas) Slot(r clockfsm.Region, slot uint8) string {
	if int(r) >= len(c.regions) {
		return ""
	}
	i, ok := c.regions[r][slot]
	if !ok {
		return ""
	}
	return visible(i)
}

func visible(i clockfsm.Intent) string {
	if i.Blank {
		return strings.Repeat(" ", lipgloss.Width(i.Text))
	}
	return i.Text
}

// sorted returns the intents of r in slot order
func (c *Canvas) sorted(r clockfsm.Region) []clockfsm.Intent {
	slots := c.regions[r]
	keys := make([]int, 0, len(slots))
	for k := range slots {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)

	intents := make([]clockfsm.Intent, 0, len(keys))
	for _, k := range keys {
		intents = append(intents, slots[uint8(k)])
	}
	return intents
}

// Lines returns one plain-text line per region
func (c *Canvas) Lines() []string {
	lines := make([]string, clockfsm.RegionCount)
	for r := range lines {
		var b strings.Builder
		for i, in := range c.sorted(clockfsm.Region(r)) {
			b.WriteString(separator(clockfsm.Region(r), i))
			b.WriteString(visible(in))
		}
		lines[r] = strings.TrimRight(b.String(), " ")
	}
	return lines
}

// String joins Lines, dropping empty regions
func (c *Canvas) String() string {
	var out []string
	for _, l := range c.Lines() {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// Render draws the panel with every intent in its color
func (c *Canvas) Render() string {
	rows := make([]string, clockfsm.RegionCount)
	for r := range rows {
		var b strings.Builder
		for i, in := range c.sorted(clockfsm.Region(r)) {
			b.WriteString(separator(clockfsm.Region(r), i))
			style := lipgloss.NewStyle().Foreground(palette[in.Color])
			if r == int(clockfsm.RegionTime) || r == int(clockfsm.RegionMessage) {
				style = style.Bold(true)
			}
			b.WriteString(style.Render(visible(in)))
		}
		rows[r] = b.String()
	}
	return c.panel.Render(strings.Join(rows, "\n"))
}
