package otoaudio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/jsphweid/ceol/audio"
)

// otoBufferSize is in bytes: 8192 bytes of 16-bit stereo is ~46ms.
const otoBufferSize = 8192

type Context struct {
	ctx *oto.Context

	mu        sync.Mutex
	suspended bool
}

// NewContext opens the default output device and waits until it is ready.
// oto allows a single context per process.
func NewContext() (audio.Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.ChannelCount,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

func (c *Context) NewPlayer(r io.Reader) audio.Player {
	p := c.ctx.NewPlayer(r)
	p.SetBufferSize(otoBufferSize)
	return p
}

func (c *Context) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ctx.Resume(); err != nil {
		return fmt.Errorf("cannot resume oto context: %w", err)
	}
	c.suspended = false
	return nil
}
