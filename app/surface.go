package app

import (
	"github.com/jsphweid/ceol/engine"
	"github.com/jsphweid/ceol/library"
	"github.com/jsphweid/ceol/model"
	"github.com/jsphweid/ceol/pager"
	"github.com/jsphweid/ceol/playback"
)

type Section string

const (
	Book    Section = "book"
	Library Section = "library"
	Editor  Section = "abc"
	PDF     Section = "pdf"
)

var Sections = []Section{Book, Library, Editor, PDF}

func ParseSection(s string) (Section, bool) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}

// ScoreSurface is a surface that can also show a one-line notice in place
// of a score.
type ScoreSurface interface {
	engine.Surface
	ShowNotice(msg string)
}

type PagerView struct {
	Position string `json:"position"`
	Title    string `json:"title"`
	Type     string `json:"type"`
}

// Surface is everything the app draws on. Implementations must be safe for
// use from several goroutines: playback completion and the flip timer call
// in from their own.
type Surface interface {
	pager.Flipper
	playback.Controls

	Score() ScoreSurface
	Preview() ScoreSurface
	ShowSource(notation string)
	SetPager(view PagerView)
	SetInstrument(inst model.Instrument)
	ShowLibrary(entries []library.Entry)
	SelectSection(section Section)
	OpenDocument(url string)
}
