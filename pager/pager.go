// Package pager tracks the current page of the tune book.
package pager

import (
	"fmt"
	"sync"
	"time"

	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/util"
)

type Direction string

const (
	Backward Direction = "prev"
	Forward  Direction = "next"
)

// Flipper shows the page-turn cue. EndFlip is called from a timer goroutine.
type Flipper interface {
	BeginFlip(dir Direction)
	EndFlip()
}

type Controller struct {
	length   func() int
	flipper  Flipper
	onChange func(index int)

	mu       sync.Mutex
	index    int
	flipTime time.Duration
	flip     *time.Timer
}

// New builds a pager over a list whose length is read on every move, so tunes
// added later are reachable without telling the pager.
func New(length func() int, flipper Flipper, onChange func(index int)) *Controller {
	return &Controller{length: length, flipper: flipper, onChange: onChange, flipTime: constants.FlipDuration}
}

func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Controller) Previous() bool {
	return c.step(Backward)
}

func (c *Controller) Next() bool {
	return c.step(Forward)
}

func (c *Controller) step(dir Direction) bool {
	c.mu.Lock()
	n := c.length()
	if n == 0 {
		c.mu.Unlock()
		return false
	}
	target := c.index - 1
	if dir == Forward {
		target = c.index + 1
	}
	target = util.Clamp(target, 0, n-1)
	if target == c.index {
		c.mu.Unlock()
		return false
	}
	c.startFlip(dir)
	c.index = target
	c.mu.Unlock()

	c.changed(target)
	return true
}

// startFlip restarts the cue timer. Called with mu held.
func (c *Controller) startFlip(dir Direction) {
	if c.flipper == nil {
		return
	}
	if c.flip != nil {
		c.flip.Stop()
	}
	c.flipper.BeginFlip(dir)
	c.flip = time.AfterFunc(c.flipTime, c.flipper.EndFlip)
}

// JumpTo moves without a flip cue. Out of range indices are ignored.
func (c *Controller) JumpTo(i int) bool {
	c.mu.Lock()
	if !util.InRange(i, c.length()) {
		c.mu.Unlock()
		return false
	}
	c.index = i
	c.mu.Unlock()

	c.changed(i)
	return true
}

func (c *Controller) changed(i int) {
	if c.onChange != nil {
		c.onChange(i)
	}
}

// Position is the 1-based page label, "1 / 0" for an empty book.
func (c *Controller) Position() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.length()
	if n == 0 {
		return constants.EmptyPosition
	}
	return fmt.Sprintf("%d / %d", c.index+1, n)
}
