package engine

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/jsphweid/ceol/abc"
	"github.com/jsphweid/ceol/audio"
	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/synth"
)

var (
	ErrNotInitialized = errors.New("session not initialized")
	ErrForeignScore   = errors.New("visual score was not rendered by this engine")
	ErrNoAudioContext = errors.New("no audio context")
	ErrNotPrimed      = errors.New("session not primed")
)

// pollInterval is how often a running session checks its player.
var pollInterval = 20 * time.Millisecond

// Renderer turns notes into stereo samples. *synth.Renderer implements it.
type Renderer interface {
	Loaded() bool
	Render(program int, notes []synth.Note) ([]float32, []float32, error)
}

// Visual is the engraved form of an ABC tune.
type Visual struct {
	score   *abc.Score
	perLine int
}

func (v *Visual) Title() string {
	return v.score.Title()
}

func (v *Visual) Lines() []string {
	return v.score.Engrave(v.perLine)
}

func (v *Visual) Score() *abc.Score {
	return v.score
}

// Notes converts the playback schedule to absolute times at the tune tempo,
// given in quarter notes per minute.
func (v *Visual) Notes(velocity int) []synth.Note {
	perMinute := time.Duration(v.score.Tempo() * abc.TicksPerQuarter)
	// whole minutes first so long schedules do not overflow
	at := func(ticks int) time.Duration {
		t := time.Duration(ticks)
		return t/perMinute*time.Minute + t%perMinute*time.Minute/perMinute
	}
	var notes []synth.Note
	for _, e := range v.score.Events() {
		for _, k := range e.Keys {
			notes = append(notes, synth.Note{
				Key:      k,
				Velocity: velocity,
				Start:    at(e.Start),
				Duration: at(e.Duration),
			})
		}
	}
	return notes
}

type ABC struct {
	renderer Renderer
}

func NewABC(r Renderer) *ABC {
	return &ABC{renderer: r}
}

// LoadABC builds a LoadFunc for the ABC engine. An empty path loads without a
// SoundFont: rendering works and every playback fails to prepare.
func LoadABC(soundFontPath string) LoadFunc {
	return func(ctx context.Context) (Engine, error) {
		if soundFontPath == "" {
			return NewABC(synth.NewRenderer(nil)), nil
		}
		sf, err := synth.LoadSoundFontFile(soundFontPath)
		if err != nil {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("load soundfont "+soundFontPath, "The notation engine could not be loaded."),
				ftag.With(model.KindEngineLoad))
		}
		return NewABC(synth.NewRenderer(sf)), nil
	}
}

// Parse parses text without drawing it anywhere.
func (e *ABC) Parse(text string, opts RenderOptions) (*Visual, error) {
	score, err := abc.Parse(text)
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(model.KindNotationParse))
	}
	return &Visual{score: score, perLine: opts.MeasuresPerLine}, nil
}

func (e *ABC) RenderNotation(text string, surface Surface, opts RenderOptions) (VisualScore, error) {
	v, err := e.Parse(text, opts)
	if err != nil {
		return nil, err
	}
	surface.Draw(v)
	return v, nil
}

func (e *ABC) CreateSynth() Session {
	return &abcSession{renderer: e.renderer, program: model.DefaultProgram}
}

type abcSession struct {
	renderer Renderer

	mu      sync.Mutex
	actx    audio.Context
	visual  *Visual
	program int
	// pcm is rendered by Prime with primed as the program.
	pcm     []byte
	primed  int
	player  audio.Player
	stop    chan struct{}
	stopped bool
}

func (s *abcSession) Init(ctx context.Context, opts SessionOptions) error {
	if opts.AudioContext == nil {
		return ErrNoAudioContext
	}
	v, ok := opts.VisualScore.(*Visual)
	if !ok || v == nil {
		return ErrForeignScore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actx = opts.AudioContext
	s.visual = v
	s.stop = make(chan struct{})
	return nil
}

// Prime renders the whole tune so Start only has to play it.
func (s *abcSession) Prime(ctx context.Context) error {
	s.mu.Lock()
	visual, program := s.visual, s.program
	s.mu.Unlock()
	if visual == nil {
		return ErrNotInitialized
	}
	if !s.renderer.Loaded() {
		return synth.ErrNoSoundFont
	}
	pcm, err := s.render(visual, program)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.pcm, s.primed = pcm, program
	s.mu.Unlock()
	return nil
}

func (s *abcSession) render(visual *Visual, program int) ([]byte, error) {
	left, right, err := s.renderer.Render(program, visual.Notes(constants.DefaultVelocity))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("render "+visual.Title()))
	}
	return synth.MixPCM(left, right), nil
}

// SetProgram before Prime. A later change is rendered again by Start.
func (s *abcSession) SetProgram(program int) {
	s.mu.Lock()
	s.program = program
	s.mu.Unlock()
}

func (s *abcSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.visual == nil {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.pcm == nil {
		s.mu.Unlock()
		return ErrNotPrimed
	}
	visual, program, actx, stop, pcm := s.visual, s.program, s.actx, s.stop, s.pcm
	stale := program != s.primed
	s.mu.Unlock()

	if stale {
		var err error
		if pcm, err = s.render(visual, program); err != nil {
			return err
		}
	}
	player := actx.NewPlayer(bytes.NewReader(pcm))

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return player.Close()
	}
	s.player = player
	s.mu.Unlock()

	player.Play()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				return s.release()
			}
		}
	}
}

func (s *abcSession) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	return err
}

// Stop halts playback. Stopping twice, or before Start, is allowed.
func (s *abcSession) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	if s.stop != nil {
		close(s.stop)
	}
	player := s.player
	s.player = nil
	s.mu.Unlock()

	if player == nil {
		return nil
	}
	player.Pause()
	return player.Close()
}
