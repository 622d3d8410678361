// Package audiotest provides an in-memory audio.Context for tests.
package audiotest

import (
	"io"
	"sync"

	"github.com/jsphweid/ceol/audio"
)

// Context records every player it creates. A player drains its reader when
// played and reports not playing once it is drained, unless Hold is set.
type Context struct {
	mu        sync.Mutex
	suspended bool
	resumes   int
	players   []*Player

	Hold      bool
	ResumeErr error
}

func NewContext(suspended bool) *Context {
	return &Context{suspended: suspended}
}

func (c *Context) NewPlayer(r io.Reader) audio.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &Player{r: r, hold: c.Hold}
	c.players = append(c.players, p)
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
	c.resumes++
	if c.ResumeErr != nil {
		return c.ResumeErr
	}
	c.suspended = false
	return nil
}

func (c *Context) Resumes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumes
}

func (c *Context) Players() []*Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Player(nil), c.players...)
}

type Player struct {
	mu      sync.Mutex
	r       io.Reader
	hold    bool
	playing bool
	closed  bool
	bytes   int
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, _ := io.Copy(io.Discard, p.r)
	p.bytes += int(n)
	p.playing = p.hold
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Close() error {
	p.mu.Lock()
	p.closed = true
	p.playing = false
	p.mu.Unlock()
	return nil
}

func (p *Player) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Bytes is the amount of PCM the player consumed.
func (p *Player) Bytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytes
}
