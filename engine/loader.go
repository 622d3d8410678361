package engine

import (
	"context"
	"sync"
)

type LoadFunc func(ctx context.Context) (Engine, error)

// Loader loads the engine at most once. Every caller waits on the same
// pending load and sees the same result afterwards, error included.
type Loader struct {
	load LoadFunc
	once sync.Once
	done chan struct{}

	engine Engine
	err    error
}

func NewLoader(load LoadFunc) *Loader {
	return &Loader{load: load, done: make(chan struct{})}
}

// Ready starts the load if needed and waits for it. The load itself is not
// bound to ctx; a caller giving up does not cancel it for the others.
func (l *Loader) Ready(ctx context.Context) (Engine, error) {
	l.once.Do(func() {
		loadCtx := context.WithoutCancel(ctx)
		go func() {
			defer close(l.done)
			l.engine, l.err = l.load(loadCtx)
		}()
	})
	select {
	case <-l.done:
		return l.engine, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded returns the engine without waiting. ok is false while loading and
// after a failed load.
func (l *Loader) Loaded() (Engine, bool) {
	select {
	case <-l.done:
		return l.engine, l.err == nil && l.engine != nil
	default:
		return nil, false
	}
}
