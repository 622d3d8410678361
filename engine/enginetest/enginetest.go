// Package enginetest provides scriptable engine fakes for tests.
package enginetest

import (
	"context"
	"strings"
	"sync"

	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/synth"
)

// Renderer produces a few samples of silence instead of synthesizing.
type Renderer struct {
	Unloaded bool
	Err      error

	mu       sync.Mutex
	programs []int
	notes    int
}

func (r *Renderer) Loaded() bool {
	return !r.Unloaded
}

func (r *Renderer) Render(program int, notes []synth.Note) ([]float32, []float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs = append(r.programs, program)
	r.notes += len(notes)
	if r.Err != nil {
		return nil, nil, r.Err
	}
	return make([]float32, 16), make([]float32, 16), nil
}

func (r *Renderer) Programs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.programs...)
}

func (r *Renderer) Notes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes
}

// Score is the visual score of the fake Engine: the title is the first line
// of the text and every other non-empty line is an engraved line.
type Score struct {
	title string
	lines []string
}

func (s *Score) Title() string   { return s.title }
func (s *Score) Lines() []string { return s.lines }

type Engine struct {
	RenderErr error

	mu       sync.Mutex
	queue    []*Session
	sessions []*Session
	renders  []string
}

// Queue makes the next CreateSynth calls return these sessions in order.
func (e *Engine) Queue(sessions ...*Session) {
	e.mu.Lock()
	e.queue = append(e.queue, sessions...)
	e.mu.Unlock()
}

func (e *Engine) RenderNotation(text string, surface engine.Surface, opts engine.RenderOptions) (engine.VisualScore, error) {
	e.mu.Lock()
	e.renders = append(e.renders, text)
	err := e.RenderErr
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s := &Score{}
	for i, l := range strings.Split(strings.TrimSpace(text), "\n") {
		if i == 0 {
			s.title = l
		} else if l != "" {
			s.lines = append(s.lines, l)
		}
	}
	surface.Draw(s)
	return s, nil
}

func (e *Engine) CreateSynth() engine.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	var s *Session
	if len(e.queue) > 0 {
		s, e.queue = e.queue[0], e.queue[1:]
	} else {
		s = NewSession()
	}
	e.sessions = append(e.sessions, s)
	return s
}

func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.sessions...)
}

func (e *Engine) Renders() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.renders...)
}

// Session blocks in Start until Finish or Stop is called.
type Session struct {
	InitErr  error
	PrimeErr error
	StopErr  error

	// Gate, when set, holds Prime until it is closed.
	Gate chan struct{}

	mu          sync.Mutex
	opts        engine.SessionOptions
	program     int
	stops       int
	started     chan struct{}
	startedOnce sync.Once
	done        chan struct{}
	doneOnce    sync.Once
}

func NewSession() *Session {
	return &Session{program: -1, started: make(chan struct{}), done: make(chan struct{})}
}

func (s *Session) Init(ctx context.Context, opts engine.SessionOptions) error {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	return s.InitErr
}

func (s *Session) Prime(ctx context.Context) error {
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.PrimeErr
}

func (s *Session) SetProgram(program int) {
	s.mu.Lock()
	s.program = program
	s.mu.Unlock()
}

func (s *Session) Start(ctx context.Context) error {
	s.startedOnce.Do(func() { close(s.started) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish ends playback as if the tune reached its end.
func (s *Session) Finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Session) Stop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.Finish()
	return s.StopErr
}

// Started is closed once Start has been called.
func (s *Session) Started() <-chan struct{} {
	return s.started
}

func (s *Session) Program() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program
}

func (s *Session) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *Session) Options() engine.SessionOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}
