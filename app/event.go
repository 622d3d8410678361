package app

import "github.com/jsphweid/ceol/model"

// Event is a user action.
type Event interface {
	event()
}

type PrevPage struct{}

type NextPage struct{}

// OpenTune opens the tune at Index in the full list.
type OpenTune struct {
	Index int
}

type TogglePlayback struct{}

type StopPlayback struct{}

type SelectInstrument struct {
	Instrument model.Instrument
}

// EditNotation is a change to the editor text. It only updates the preview.
type EditNotation struct {
	Notation string
}

// ApplyNotation commits the editor to the library.
type ApplyNotation struct {
	Title    string
	Type     string
	Notation string
}

type Search struct {
	Query string
}

type OpenDocument struct {
	URL string
}

type SelectSection struct {
	Section Section
}

func (PrevPage) event()         {}
func (NextPage) event()         {}
func (OpenTune) event()         {}
func (TogglePlayback) event()   {}
func (StopPlayback) event()     {}
func (SelectInstrument) event() {}
func (EditNotation) event()     {}
func (ApplyNotation) event()    {}
func (Search) event()           {}
func (OpenDocument) event()     {}
func (SelectSection) event()    {}
