package theme

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
)

//go:embed palettes/*.gpl
var builtin embed.FS

// DefaultPalette is used when no palette is configured
const DefaultPalette = "famicom"

type RGB [3]uint8

type Palette struct {
	Name   string
	Colors []RGB
}

// ParseGPL reads a GIMP palette
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "Name:") {
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		}

		// Skip headers and comments
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "GIMP") || strings.HasPrefix(line, "Columns") {
			continue
		}

		// First 3 fields are R G B, the rest is a color name
		fields := strings.Fields(line)
		if len(fields) >= 3 {
			r, err1 := strconv.Atoi(fields[0])
			g, err2 := strconv.Atoi(fields[1])
			b, err3 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil && err3 == nil {
				p.Colors = append(p.Colors, RGB{uint8(r), uint8(g), uint8(b)})
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors found in palette %q", p.Name)
	}
	return p, nil
}

// LoadGPL reads a palette file from disk
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Builtin returns an embedded palette by name
func Builtin(name string) (*Palette, error) {
	f, err := builtin.Open(path.Join("palettes", name+".gpl"))
	if err != nil {
		return nil, fmt.Errorf("unknown palette %q", name)
	}
	defer f.Close()
	return ParseGPL(f)
}

// Resolve loads name as a builtin palette, or as a file path if it is not
// one. Empty means DefaultPalette.
func Resolve(name string) (*Palette, error) {
	if name == "" {
		name = DefaultPalette
	}
	if p, err := Builtin(name); err == nil {
		return p, nil
	}
	return LoadGPL(name)
}

// MustBuiltin is Builtin for names compiled into the program
func MustBuiltin(name string) *Palette {
	p, err := Builtin(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load palette %s: %v", name, err))
	}
	return p
}

// Lookup returns interpolated color for normalized value 0-1
func (p *Palette) Lookup(norm float64) RGB {
	if norm <= 0 {
		return p.Colors[0]
	}
	if norm >= 1 {
		return p.Colors[len(p.Colors)-1]
	}

	pos := norm * float64(len(p.Colors)-1)
	i := int(pos)
	frac := pos - float64(i)

	c0 := p.Colors[i]
	c1 := p.Colors[i+1]

	return RGB{
		lerp(c0[0], c1[0], frac),
		lerp(c0[1], c1[1], frac),
		lerp(c0[2], c1[2], frac),
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

// Index returns color at specific index (no interpolation)
func (p *Palette) Index(i int) RGB {
	if i < 0 {
		return p.Colors[0]
	}
	if i >= len(p.Colors) {
		return p.Colors[len(p.Colors)-1]
	}
	return p.Colors[i]
}
