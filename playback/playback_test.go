package playback

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/jsphweid/ceol/audio"
	"github.com/jsphweid/ceol/audio/audiotest"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/engine/enginetest"
	"github.com/jsphweid/ceol/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controls struct {
	mu      sync.Mutex
	play    bool
	stop    bool
	history [][2]bool
}

func (c *controls) SetPlayControls(play, stop bool) {
	c.mu.Lock()
	c.play, c.stop = play, stop
	c.history = append(c.history, [2]bool{play, stop})
	c.mu.Unlock()
}

func (c *controls) get() (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.play, c.stop
}

type harness struct {
	ctrl     *Controller
	eng      *enginetest.Engine
	actx     *audiotest.Context
	controls *controls
	logs     *bytes.Buffer
	factory  int
}

func newHarness(engErr error) *harness {
	h := &harness{
		eng:      &enginetest.Engine{},
		actx:     audiotest.NewContext(true),
		controls: &controls{},
		logs:     &bytes.Buffer{},
	}
	ready := func(ctx context.Context) (engine.Engine, error) {
		if engErr != nil {
			return nil, engErr
		}
		return h.eng, nil
	}
	factory := func() (audio.Context, error) {
		h.factory++
		return h.actx, nil
	}
	h.ctrl = New(ready, factory, h.controls, log.New(h.logs, "", 0))
	return h
}

var score = &enginetest.Score{}

func TestToggleStartsPlayback(t *testing.T) {
	h := newHarness(nil)

	state := h.ctrl.Toggle(context.Background(), score, model.Accordion)

	assert := assert.New(t)
	assert.Equal(Playing, state)
	assert.True(h.ctrl.IsPlaying())
	play, stop := h.controls.get()
	assert.False(play)
	assert.True(stop)

	sessions := h.eng.Sessions()
	require.Len(t, sessions, 1)
	<-sessions[0].Started()
	assert.Equal(22, sessions[0].Program())
	assert.Same(h.actx, sessions[0].Options().AudioContext)
	assert.Equal(1, h.actx.Resumes())
	assert.False(h.actx.Suspended())
}

func TestNaturalCompletionReturnsToIdle(t *testing.T) {
	h := newHarness(nil)
	require.Equal(t, Playing, h.ctrl.Toggle(context.Background(), score, model.Violin))
	s := h.eng.Sessions()[0]
	<-s.Started()
	s.Finish()

	require.Eventually(t, func() bool { return h.ctrl.State() == Idle }, time.Second, time.Millisecond)
	play, stop := h.controls.get()
	assert.True(t, play)
	assert.False(t, stop)
}

func TestToggleWhilePlayingStops(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.Toggle(context.Background(), score, model.Violin)

	assert.Equal(t, Idle, h.ctrl.Toggle(context.Background(), score, model.Violin))
	assert.Equal(t, Idle, h.ctrl.State())
	assert.Equal(t, 1, h.eng.Sessions()[0].Stops())
	assert.Len(t, h.eng.Sessions(), 1)
}

func TestAudioContextIsCreatedOnce(t *testing.T) {
	h := newHarness(nil)
	for i := 0; i < 3; i++ {
		h.ctrl.Toggle(context.Background(), score, model.Mandolin)
		h.ctrl.Stop()
	}
	assert.Equal(t, 1, h.factory)
	assert.Len(t, h.eng.Sessions(), 3)
	assert.Equal(t, 25, h.eng.Sessions()[2].Program())
}

func TestNoScoreStaysIdle(t *testing.T) {
	h := newHarness(nil)
	assert.Equal(t, Idle, h.ctrl.Toggle(context.Background(), nil, model.Violin))
	assert.Empty(t, h.eng.Sessions())
	assert.Zero(t, h.factory)
}

func TestPreparationFailures(t *testing.T) {
	cases := map[string]func(h *harness){
		"init":   func(h *harness) { s := enginetest.NewSession(); s.InitErr = errors.New("bad init"); h.eng.Queue(s) },
		"prime":  func(h *harness) { s := enginetest.NewSession(); s.PrimeErr = errors.New("bad prime"); h.eng.Queue(s) },
		"resume": func(h *harness) { h.actx.ResumeErr = errors.New("bad resume") },
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(nil)
			setup(h)
			assert.Equal(t, Idle, h.ctrl.Toggle(context.Background(), score, model.Violin))
			assert.Equal(t, Idle, h.ctrl.State())
			play, stop := h.controls.get()
			assert.True(t, play)
			assert.False(t, stop)
			assert.Contains(t, h.logs.String(), "bad "+name)
		})
	}
}

func TestEngineFailureStaysIdle(t *testing.T) {
	h := newHarness(errors.New("engine down"))
	assert.Equal(t, Idle, h.ctrl.Toggle(context.Background(), score, model.Violin))
	assert.Contains(t, h.logs.String(), "engine down")
	assert.Zero(t, h.factory)
}

func TestStopSwallowsFailures(t *testing.T) {
	h := newHarness(nil)
	s := enginetest.NewSession()
	s.StopErr = errors.New("already stopped")
	h.eng.Queue(s)
	h.ctrl.Toggle(context.Background(), score, model.Violin)

	h.ctrl.Stop()
	assert.Equal(t, Idle, h.ctrl.State())
	play, stop := h.controls.get()
	assert.True(t, play)
	assert.False(t, stop)
	assert.Contains(t, h.logs.String(), "already stopped")

	// stopping with no session is fine too
	h.ctrl.Reset()
	assert.Equal(t, 1, s.Stops())
}

func TestToggleWhilePreparingStops(t *testing.T) {
	h := newHarness(nil)
	s := enginetest.NewSession()
	s.Gate = make(chan struct{})
	h.eng.Queue(s)

	result := make(chan State, 1)
	go func() { result <- h.ctrl.Toggle(context.Background(), score, model.Violin) }()
	require.Eventually(t, func() bool { return h.ctrl.State() == Preparing }, time.Second, time.Millisecond)

	assert.Equal(t, Idle, h.ctrl.Toggle(context.Background(), score, model.Violin))
	close(s.Gate)

	assert.Equal(t, Idle, <-result)
	assert.Equal(t, Idle, h.ctrl.State())
	// the overtaken session is torn down and never started
	assert.Equal(t, 1, s.Stops())
	select {
	case <-s.Started():
		t.Fatal("stale session was started")
	default:
	}
}

func TestResetDuringPlaybackIgnoresLateCompletion(t *testing.T) {
	h := newHarness(nil)
	h.ctrl.Toggle(context.Background(), score, model.Violin)
	first := h.eng.Sessions()[0]
	h.ctrl.Reset()

	require.Equal(t, Playing, h.ctrl.Toggle(context.Background(), score, model.Violin))
	first.Finish()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, Playing, h.ctrl.State())
}

func TestRenderFailureNeverReportsPlaying(t *testing.T) {
	boom := errors.New("synth exploded")
	eng := engine.NewABC(&enginetest.Renderer{Err: boom})
	v, err := eng.Parse("X:1\nT:Kesh\nK:G\nGAG GAB|", engine.RenderOptions{})
	require.NoError(t, err)

	h := newHarness(nil)
	h.ctrl.ready = func(ctx context.Context) (engine.Engine, error) { return eng, nil }

	state := h.ctrl.Toggle(context.Background(), v, model.Mandolin)

	assert := assert.New(t)
	assert.Equal(Idle, state)
	assert.Equal(Idle, h.ctrl.State())
	assert.NotContains(h.controls.history, [2]bool{false, true})
	assert.Contains(h.logs.String(), "synth exploded")
	assert.Empty(h.actx.Players())
}

func TestProgramIsSetBeforePrime(t *testing.T) {
	r := &enginetest.Renderer{}
	eng := engine.NewABC(r)
	v, err := eng.Parse("X:1\nT:Kesh\nK:G\nGAG GAB|", engine.RenderOptions{})
	require.NoError(t, err)

	h := newHarness(nil)
	h.ctrl.ready = func(ctx context.Context) (engine.Engine, error) { return eng, nil }

	assert.Equal(t, Playing, h.ctrl.Toggle(context.Background(), v, model.Accordion))
	assert.Equal(t, []int{22}, r.Programs())
	h.ctrl.Stop()
}
