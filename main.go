package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-chiptodo/audio"
	"go-chiptodo/bgm"
	"go-chiptodo/config"
	"go-chiptodo/debug"
	"go-chiptodo/midi"
	"go-chiptodo/synth"
	"go-chiptodo/theme"
	"go-chiptodo/todo"
	"go-chiptodo/tui"
)

func main() {
	debugFlag := flag.Bool("debug", false, "write debug.log to the config dir")
	paletteFlag := flag.String("palette", "", "builtin palette name or .gpl file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	if *debugFlag {
		if dir, err := config.Dir(); err == nil {
			if err := debug.Enable(dir); err != nil {
				fmt.Printf("Warning: debug log: %v\n", err)
			}
		}
		defer debug.Disable()
	}

	// Load theme
	paletteName := cfg.UI.Palette
	if *paletteFlag != "" {
		paletteName = *paletteFlag
	}
	palette, err := theme.Resolve(paletteName)
	if err != nil {
		fmt.Printf("Warning: %v (using %s)\n", err, theme.DefaultPalette)
		palette = theme.MustBuiltin(theme.DefaultPalette)
	}
	th := theme.New(palette)

	// Todo list
	todosPath, err := config.TodosPath()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	list := todo.Load(todosPath)

	// Audio
	engine := synth.New(cfg.Audio.SampleRate)
	am := audio.New(engine, bgm.Default, audio.Prefs{
		Muted:      cfg.Audio.Muted,
		BGMEnabled: cfg.Audio.BGMEnabled,
		Volume:     cfg.Audio.Volume,
		Tempo:      cfg.Audio.Tempo,
	})
	defer am.Close()
	am.OnChange(func(p audio.Prefs) {
		cfg.Audio.Muted = p.Muted
		cfg.Audio.BGMEnabled = p.BGMEnabled
		cfg.Audio.Volume = p.Volume
		cfg.Audio.Tempo = p.Tempo
		if err := cfg.Save(); err != nil {
			debug.Log("config", "save: %v", err)
		}
	})

	if cfg.MIDI.Mirror || cfg.MIDI.InPort != "" {
		defer midi.CloseDriver()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := am.Init(initCtx); err != nil {
		// Keep going silently; the m key retries Init
		fmt.Printf("Warning: %v (running without sound)\n", err)
	}
	initCancel()

	// Optional MIDI mirror, plugged in any time
	var mirror *midi.Mirror
	if cfg.MIDI.Mirror && cfg.MIDI.OutPort != "" {
		mirror = midi.NewMirror(engine)
		am.Sequencer().AddObserver(mirror)

		watcher := midi.NewWatcher(cfg.MIDI.OutPort)
		go watcher.Run(ctx)
		go func() {
			for ev := range watcher.Events() {
				if ev.Connected {
					mirror.SetSender(ev.Send)
				} else {
					mirror.SetSender(nil)
				}
			}
		}()
	}

	// Optional keyboard play-along
	if cfg.MIDI.InPort != "" {
		in, err := midi.Listen(cfg.MIDI.InPort)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		} else {
			go midi.PlayAlong(in.Notes(), engine)
			defer in.Close()
		}
	}
	// Create and run TUI
	m := tui.NewModel(am, list, th, todo.ParseFilter(cfg.UI.LastFilter))
	m.Mirror = mirror
	m.Save = func(l *todo.List) error { return l.Save(todosPath) }
	m.OnFilter = func(f todo.Filter) {
		cfg.UI.LastFilter = string(f)
		if err := cfg.Save(); err != nil {
			debug.Log("config", "save: %v", err)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
