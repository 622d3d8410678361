// Package playback runs at most one playback session at a time.
package playback

import (
	"context"
	"log"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/ceol/audio"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/model"
)

type State string

const (
	Idle      State = "idle"
	Preparing State = "preparing"
	Playing   State = "playing"
)

// Controls enables or disables the play and stop buttons.
type Controls interface {
	SetPlayControls(playEnabled, stopEnabled bool)
}

type Controller struct {
	ready    func(ctx context.Context) (engine.Engine, error)
	newAudio audio.Factory
	controls Controls
	logger   *log.Logger

	audioMu  sync.Mutex
	audioCtx audio.Context

	mu      sync.Mutex
	state   State
	gen     int
	session engine.Session
}

func New(ready func(ctx context.Context) (engine.Engine, error), newAudio audio.Factory, controls Controls, logger *log.Logger) *Controller {
	return &Controller{ready: ready, newAudio: newAudio, controls: controls, logger: logger, state: Idle}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) IsPlaying() bool {
	return c.State() == Playing
}

// Toggle stops a session that is playing or being prepared. Otherwise it
// prepares a session for score and starts it in the background. It returns
// the state the toggle left the controller in.
func (c *Controller) Toggle(ctx context.Context, score engine.VisualScore, inst model.Instrument) State {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		c.Stop()
		return Idle
	}
	if score == nil {
		c.mu.Unlock()
		return Idle
	}
	c.gen++
	gen := c.gen
	c.state = Preparing
	c.mu.Unlock()

	session, err := c.prepare(ctx, score, inst)

	c.mu.Lock()
	if gen != c.gen {
		// overtaken by Stop or Reset while preparing
		state := c.state
		c.mu.Unlock()
		if session != nil {
			session.Stop()
		}
		return state
	}
	if err != nil {
		c.state = Idle
		c.setControls(true, false)
		c.mu.Unlock()
		c.logger.Printf("%+v", fault.Wrap(err,
			fmsg.WithDesc("prepare playback of "+score.Title(), "Playback could not start."),
			ftag.With(model.KindSessionPrepare)))
		return Idle
	}
	c.session = session
	c.state = Playing
	c.setControls(false, true)
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), gen, session)
	return Playing
}

func (c *Controller) prepare(ctx context.Context, score engine.VisualScore, inst model.Instrument) (engine.Session, error) {
	eng, err := c.ready(ctx)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("engine unavailable"))
	}
	actx, err := c.audioContext()
	if err != nil {
		return nil, err
	}
	if actx.Suspended() {
		if err := actx.Resume(); err != nil {
			return nil, fault.Wrap(err, fmsg.With("resume audio context"))
		}
	}
	session := eng.CreateSynth()
	if err := session.Init(ctx, engine.SessionOptions{AudioContext: actx, VisualScore: score}); err != nil {
		return nil, fault.Wrap(err, fmsg.With("init session"))
	}
	// the program is part of what Prime renders
	session.SetProgram(inst.Program())
	if err := session.Prime(ctx); err != nil {
		return nil, fault.Wrap(err, fmsg.With("prime session"))
	}
	return session, nil
}

// audioContext builds the audio context on first use and keeps it. A failed
// attempt is retried on the next toggle.
func (c *Controller) audioContext() (audio.Context, error) {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	if c.audioCtx != nil {
		return c.audioCtx, nil
	}
	actx, err := c.newAudio()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("create audio context"))
	}
	c.audioCtx = actx
	return actx, nil
}

func (c *Controller) run(ctx context.Context, gen int, session engine.Session) {
	err := session.Start(ctx)

	c.mu.Lock()
	if gen == c.gen && c.state == Playing {
		c.state = Idle
		c.session = nil
		c.setControls(true, false)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Printf("%+v", fault.Wrap(err, fmsg.With("playback ended"), ftag.With(model.KindSessionPrepare)))
	}
}

// Stop halts the session if there is one. Failures are logged, never
// returned: the controller always ends Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.gen++
	session := c.session
	c.session = nil
	c.state = Idle
	c.setControls(true, false)
	c.mu.Unlock()

	if session == nil {
		return
	}
	if err := session.Stop(); err != nil {
		c.logger.Printf("%+v", fault.Wrap(err, fmsg.With("stop session"), ftag.With(model.KindSessionStop)))
	}
}

// Reset tears down any session. It runs on every tune change.
func (c *Controller) Reset() {
	c.Stop()
}

func (c *Controller) setControls(play, stop bool) {
	if c.controls != nil {
		c.controls.SetPlayControls(play, stop)
	}
}
