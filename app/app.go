// Package app ties the tune book together: the library, the pager, playback
// and the notation engine, drawn on a Surface and driven by Events.
package app

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/bep/debounce"
	"github.com/jsphweid/ceol/audio"
	"github.com/jsphweid/ceol/constants"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/pager"
	"github.com/jsphweid/ceol/playback"
	"github.com/jsphweid/ceol/source"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Store   *library.Store
	Source  source.Source
	Loader  *engine.Loader
	Audio   audio.Factory
	Surface Surface
	Logger  *log.Logger

	MeasuresPerLine int
	// PreviewDelay debounces preview renders. Zero renders synchronously.
	PreviewDelay time.Duration
}

// State is the part of the session that is not drawn on the surface.
type State struct {
	Index      int              `json:"index"`
	Count      int              `json:"count"`
	Instrument model.Instrument `json:"instrument"`
	Query      string           `json:"query"`
	Section    Section          `json:"section"`
	Playback   playback.State   `json:"playback"`
	EngineUp   bool             `json:"engineUp"`
}

type App struct {
	store    *library.Store
	source   source.Source
	loader   *engine.Loader
	surface  Surface
	logger   *log.Logger
	pager    *pager.Controller
	playback *playback.Controller
	opts     engine.RenderOptions
	preview  func(f func())

	mu         sync.Mutex
	score      engine.VisualScore
	instrument model.Instrument
	query      string
	section    Section
	draft      string
	// stale is set while an edit waits for its debounced preview render.
	stale bool
}

func New(cfg Config) *App {
	a := &App{
		store:      cfg.Store,
		source:     cfg.Source,
		loader:     cfg.Loader,
		surface:    cfg.Surface,
		logger:     cfg.Logger,
		opts:       engine.RenderOptions{MeasuresPerLine: cfg.MeasuresPerLine},
		instrument: model.Violin,
		section:    Book,
	}
	if a.opts.MeasuresPerLine <= 0 {
		a.opts.MeasuresPerLine = constants.DefaultMeasures
	}
	a.pager = pager.New(a.store.Len, a.surface, a.tuneChanged)
	a.playback = playback.New(a.loader.Ready, cfg.Audio, a.surface, a.logger)
	if cfg.PreviewDelay > 0 {
		a.preview = debounce.New(cfg.PreviewDelay)
	} else {
		a.preview = func(f func()) { f() }
	}
	return a
}

// Start loads the tunes and the engine side by side, then draws the first
// page. Neither failure stops the app.
func (a *App) Start(ctx context.Context) error {
	engineUp := false
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if a.source == nil {
			return nil
		}
		// logged by the store; an empty book is still a book
		a.store.Load(gctx, a.source)
		return nil
	})
	g.Go(func() error {
		if _, err := a.loader.Ready(gctx); err != nil {
			a.logger.Printf("%+v", fault.Wrap(err, fmsg.With("load notation engine"), ftag.With(model.KindEngineLoad)))
			return nil
		}
		engineUp = true
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.surface.SetInstrument(a.instrument)
	a.surface.SelectSection(a.section)
	a.surface.SetPlayControls(true, false)
	a.surface.ShowLibrary(a.store.Search(a.query))
	if !a.pager.JumpTo(0) {
		a.renderTune()
		a.updatePager()
	}
	a.renderPreview()
	if !engineUp {
		a.surface.Score().Clear()
		a.surface.Score().ShowNotice(constants.EngineDownNotice)
	}
	return nil
}

func (a *App) Dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case TogglePlayback:
		a.togglePlayback(ctx)
		return
	case StopPlayback:
		a.playback.Stop()
		return
	case EditNotation:
		a.mu.Lock()
		a.draft = e.Notation
		a.stale = true
		a.mu.Unlock()
		a.preview(a.FlushPreview)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	switch e := ev.(type) {
	case PrevPage:
		a.pager.Previous()
	case NextPage:
		a.pager.Next()
	case OpenTune:
		if a.pager.JumpTo(e.Index) {
			a.selectSection(Book)
		}
	case SelectInstrument:
		a.instrument = e.Instrument
		a.surface.SetInstrument(e.Instrument)
		a.renderTune()
	case ApplyNotation:
		if _, ok := a.store.Add(e.Title, e.Type, e.Notation); !ok {
			return
		}
		a.surface.ShowLibrary(a.store.Search(a.query))
		a.pager.JumpTo(a.store.Len() - 1)
		a.selectSection(Book)
	case Search:
		a.query = e.Query
		a.surface.ShowLibrary(a.store.Search(e.Query))
	case OpenDocument:
		url := strings.TrimSpace(e.URL)
		if url == "" {
			return
		}
		a.surface.OpenDocument(url)
	case SelectSection:
		a.selectSection(e.Section)
	}
}

// FlushPreview renders a pending preview now instead of after the debounce.
// Binders that answer each edit with the resulting view call it.
func (a *App) FlushPreview() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stale {
		a.renderPreview()
	}
}

func (a *App) togglePlayback(ctx context.Context) {
	a.mu.Lock()
	score, inst := a.score, a.instrument
	a.mu.Unlock()
	a.playback.Toggle(ctx, score, inst)
}

func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, up := a.loader.Loaded()
	return State{
		Index:      a.pager.Index(),
		Count:      a.store.Len(),
		Instrument: a.instrument,
		Query:      a.query,
		Section:    a.section,
		Playback:   a.playback.State(),
		EngineUp:   up,
	}
}

func (a *App) Store() *library.Store {
	return a.store
}

// tuneChanged runs on every index change, with mu held by the caller.
func (a *App) tuneChanged(int) {
	a.playback.Reset()
	a.renderTune()
	a.updatePager()
}

func (a *App) selectSection(s Section) {
	a.section = s
	a.surface.SelectSection(s)
}

func (a *App) renderTune() {
	a.score = nil
	tune, ok := a.store.Get(a.pager.Index())
	if !ok {
		a.surface.ShowSource("")
		a.surface.Score().Clear()
		a.surface.Score().ShowNotice(constants.NoTuneNotice)
		return
	}
	a.surface.ShowSource(tune.Notation)
	a.score = a.renderNotation(tune.Notation, a.surface.Score())
}

func (a *App) renderPreview() {
	a.stale = false
	text := a.draft
	if strings.TrimSpace(text) == "" {
		text = constants.SampleFragment
	}
	a.renderNotation(text, a.surface.Preview())
}

// renderNotation is a no-op until the engine is loaded. A parse failure
// leaves the surface cleared with a notice.
func (a *App) renderNotation(text string, surface ScoreSurface) engine.VisualScore {
	eng, ok := a.loader.Loaded()
	if !ok {
		return nil
	}
	surface.Clear()
	score, err := eng.RenderNotation(text, surface, a.opts)
	if err != nil {
		surface.ShowNotice(constants.ParseErrorNotice)
		a.logger.Printf("%+v", fault.Wrap(err, fmsg.With("render notation"), ftag.With(model.KindNotationParse)))
		return nil
	}
	return score
}

func (a *App) updatePager() {
	view := PagerView{Position: a.pager.Position()}
	if tune, ok := a.store.Get(a.pager.Index()); ok {
		view.Title = tune.Title
		view.Type = tune.Type
	}
	a.surface.SetPager(view)
}
