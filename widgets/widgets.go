package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-chiptodo/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color theme.RGB, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Hex(color)))
	return style.Render(string(symbol))
}

// StepMeter shows where the loop is: one cell per sixteenth of the current
// bar, plus the bar number
type StepMeter struct {
	StepsPerBar int
	Playhead    rune
	Beat        rune
	Empty       rune
	On          theme.RGB
	Off         theme.RGB
}

// Render draws the meter for step of a loop of length steps. A stopped
// meter shows no playhead.
func (s StepMeter) Render(step, length int, running bool) string {
	per := s.StepsPerBar
	if per <= 0 {
		per = 16
	}
	bars := (length + per - 1) / per
	bar := 0
	if length > 0 {
		bar = (step % length) / per
	}

	var out strings.Builder
	for i := 0; i < per; i++ {
		if i > 0 && i%4 == 0 {
			out.WriteString(" ")
		}
		switch {
		case running && step%per == i:
			out.WriteString(RenderPad(s.On, s.Playhead))
		case i%4 == 0:
			out.WriteString(RenderPad(s.Off, s.Beat))
		default:
			out.WriteString(RenderPad(s.Off, s.Empty))
		}
	}
	fmt.Fprintf(&out, "  bar %d/%d", bar+1, bars)
	return out.String()
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine formats key bindings on one line: "a:add  d:delete"
func RenderKeyLine(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key + ":" + k.Desc
	}
	return strings.Join(parts, "  ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
