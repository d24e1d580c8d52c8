package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Todo list
	Done    rune // ■ completed
	Open    rune // □ not completed
	Cursor  rune // ▶ selected row
	HasMemo rune // ✎ memo attached

	// Step meter
	StepEmpty    rune // · no hit
	StepBeat     rune // ● beat position
	StepPlayhead rune // ▶ current step

	// Status
	SoundOn  rune // ♪
	SoundOff rune // ×
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Done:    '■',
			Open:    '□',
			Cursor:  '▶',
			HasMemo: '✎',

			StepEmpty:    '·',
			StepBeat:     '●',
			StepPlayhead: '▶',

			SoundOn:  '♪',
			SoundOff: '×',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleMuted   = 0.2
	RoleAccent  = 0.55
	RoleCursor  = 0.9
	RoleActive  = 0.75
	RoleWarning = 0.4
	RoleSuccess = 0.7
)

// Style helpers

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(Hex(c))
}

// Hex formats c as #rrggbb
func Hex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
