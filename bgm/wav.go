package bgm

import (
	"fmt"
	"io"
	"math"
	"os"

	wav "github.com/youpy/go-wav"
)

// WriteWAV writes mono samples in [-1, 1] as 16-bit PCM
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	out := wav.NewWriter(w, uint32(len(samples)), 1, uint32(sampleRate), 16)
	buf := make([]wav.Sample, len(samples))
	for i, s := range samples {
		buf[i].Values[0] = int(math.Round(float64(s) * math.MaxInt16))
	}
	return out.WriteSamples(buf)
}

// WriteWAVFile writes samples to path
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
