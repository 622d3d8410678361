// Package engine is the boundary between the application and the notation
// engine. The application only depends on the interfaces here; the ABC
// implementation lives next to them.
package engine

import (
	"context"

	"github.com/jsphweid/ceol/audio"
)

// VisualScore is the rendered form of a tune.
type VisualScore interface {
	Title() string
	Lines() []string
}

// Surface is anything a visual score can be drawn on.
type Surface interface {
	Clear()
	Draw(score VisualScore)
}

type RenderOptions struct {
	MeasuresPerLine int
}

type SessionOptions struct {
	AudioContext audio.Context
	VisualScore  VisualScore
}

// Session is a single playback of a visual score.
type Session interface {
	Init(ctx context.Context, opts SessionOptions) error
	Prime(ctx context.Context) error
	SetProgram(program int)
	// Start blocks until playback finishes, Stop is called or ctx is done.
	Start(ctx context.Context) error
	Stop() error
}

type Engine interface {
	RenderNotation(text string, surface Surface, opts RenderOptions) (VisualScore, error)
	CreateSynth() Session
}
