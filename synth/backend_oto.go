//go:build !headless

package synth

import (
	"context"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

var otoDevice = &sharedDevice[*oto.Context]{
	create: func(sampleRate int) (*oto.Context, <-chan struct{}, error) {
		c, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
			BufferSize:   20 * time.Millisecond,
		})
		return c, ready, err
	},
}

type otoBackend struct {
	player *oto.Player
}

func openBackend(ctx context.Context, sampleRate int, r io.Reader) (backend, error) {
	c, err := otoDevice.get(ctx, sampleRate)
	if err != nil {
		return nil, err
	}
	if err := c.Resume(); err != nil {
		return nil, err
	}
	p := c.NewPlayer(r)
	p.Play()
	return &otoBackend{player: p}, nil
}

func (b *otoBackend) Close() error {
	return b.player.Close()
}
