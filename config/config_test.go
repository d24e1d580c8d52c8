package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.Muted || !cfg.Audio.BGMEnabled || cfg.Audio.Volume != 1 || cfg.Audio.Tempo != 85 {
		t.Fatalf("defaults = %+v", cfg.Audio)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv(HomeEnv, dir)

	cfg := DefaultConfig()
	cfg.Audio.Muted = true
	cfg.Audio.BGMEnabled = false
	cfg.MIDI.OutPort = "IAC Driver Bus 1"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Audio.Muted || got.Audio.BGMEnabled || got.MIDI.OutPort != "IAC Driver Bus 1" {
		t.Fatalf("loaded %+v", got)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	data := []byte(`{"audio": {"muted": true, "bgmEnabled": true, "volume": 4, "tempo": 900}}`)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.Volume != 1 || cfg.Audio.Tempo != 85 || cfg.Audio.SampleRate != 44100 {
		t.Fatalf("not normalized: %+v", cfg.Audio)
	}
	if cfg.UI.LastFilter != "all" {
		t.Fatalf("LastFilter = %q", cfg.UI.LastFilter)
	}
}

func TestLoadCorruptFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for corrupt config")
	}
}
