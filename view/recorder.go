// Package view keeps what the app has drawn as plain data, so the web and
// terminal frontends can render it however they like.
package view

import (
	"sync"

	"github.com/jsphweid/ceol/app"
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/pager"
)

type Score struct {
	Title  string   `json:"title"`
	Lines  []string `json:"lines"`
	Notice string   `json:"notice,omitempty"`
}

type Snapshot struct {
	Score       Score            `json:"score"`
	Preview     Score            `json:"preview"`
	Source      string           `json:"source"`
	Pager       app.PagerView    `json:"pager"`
	Instrument  model.Instrument `json:"instrument"`
	PlayEnabled bool             `json:"playEnabled"`
	StopEnabled bool             `json:"stopEnabled"`
	Library     []library.Entry  `json:"library"`
	Section     app.Section      `json:"section"`
	Document    string           `json:"document,omitempty"`
	Flipping    pager.Direction  `json:"flipping,omitempty"`
}

// Recorder is an app.Surface that records into a Snapshot and calls the
// listener after every change, outside its lock.
type Recorder struct {
	mu       sync.Mutex
	snap     Snapshot
	listener func(Snapshot)
}

func NewRecorder() *Recorder {
	return &Recorder{snap: Snapshot{Library: []library.Entry{}, Score: Score{Lines: []string{}}, Preview: Score{Lines: []string{}}}}
}

// Listen replaces the change listener.
func (r *Recorder) Listen(f func(Snapshot)) {
	r.mu.Lock()
	r.listener = f
	r.mu.Unlock()
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.copy()
}

func (s Snapshot) copy() Snapshot {
	s.Score.Lines = append([]string{}, s.Score.Lines...)
	s.Preview.Lines = append([]string{}, s.Preview.Lines...)
	s.Library = append([]library.Entry{}, s.Library...)
	return s
}

func (r *Recorder) update(f func(s *Snapshot)) {
	r.mu.Lock()
	f(&r.snap)
	snap := r.snap.copy()
	listener := r.listener
	r.mu.Unlock()
	if listener != nil {
		listener(snap)
	}
}

func (r *Recorder) Score() app.ScoreSurface {
	return scoreSurface{r: r, pick: func(s *Snapshot) *Score { return &s.Score }}
}

func (r *Recorder) Preview() app.ScoreSurface {
	return scoreSurface{r: r, pick: func(s *Snapshot) *Score { return &s.Preview }}
}

func (r *Recorder) ShowSource(notation string) {
	r.update(func(s *Snapshot) { s.Source = notation })
}

func (r *Recorder) SetPager(v app.PagerView) {
	r.update(func(s *Snapshot) { s.Pager = v })
}

func (r *Recorder) SetInstrument(inst model.Instrument) {
	r.update(func(s *Snapshot) { s.Instrument = inst })
}

func (r *Recorder) SetPlayControls(play, stop bool) {
	r.update(func(s *Snapshot) {
		s.PlayEnabled = play
		s.StopEnabled = stop
	})
}

func (r *Recorder) ShowLibrary(entries []library.Entry) {
	r.update(func(s *Snapshot) { s.Library = append([]library.Entry{}, entries...) })
}

func (r *Recorder) SelectSection(section app.Section) {
	r.update(func(s *Snapshot) { s.Section = section })
}

func (r *Recorder) OpenDocument(url string) {
	r.update(func(s *Snapshot) { s.Document = url })
}

func (r *Recorder) BeginFlip(dir pager.Direction) {
	r.update(func(s *Snapshot) { s.Flipping = dir })
}

func (r *Recorder) EndFlip() {
	r.update(func(s *Snapshot) { s.Flipping = "" })
}

type scoreSurface struct {
	r    *Recorder
	pick func(s *Snapshot) *Score
}

func (ss scoreSurface) Clear() {
	ss.r.update(func(s *Snapshot) { *ss.pick(s) = Score{Lines: []string{}} })
}

func (ss scoreSurface) Draw(v engine.VisualScore) {
	ss.r.update(func(s *Snapshot) {
		*ss.pick(s) = Score{Title: v.Title(), Lines: append([]string{}, v.Lines()...)}
	})
}

func (ss scoreSurface) ShowNotice(msg string) {
	ss.r.update(func(s *Snapshot) { ss.pick(s).Notice = msg })
}
