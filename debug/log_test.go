package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesCategoryLines(t *testing.T) {
	dir := t.TempDir()
	if err := Enable(dir); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer Disable()

	Log("bgm", "step=%d", 7)
	for i := 0; i < 4; i++ {
		LogEvery(2, "audio", "voice added")
	}

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "bgm") || !strings.Contains(out, "step=7") {
		t.Fatalf("missing bgm line in %q", out)
	}
	if got := strings.Count(out, "voice added"); got != 2 {
		t.Fatalf("LogEvery(2) wrote %d lines for 4 calls, want 2", got)
	}
}

func TestLogDisabledIsNoop(t *testing.T) {
	Disable()
	Log("bgm", "dropped")
	LogEvery(1, "bgm", "dropped")
	if Enabled() {
		t.Fatal("expected logging disabled")
	}
}
