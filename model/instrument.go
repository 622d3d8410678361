package model

import "strings"

type Instrument string

const (
	Violin    Instrument = "violin"
	Accordion Instrument = "accordion"
	Mandolin  Instrument = "mandolin"
)

const DefaultProgram = 40

var Instruments = []Instrument{Violin, Accordion, Mandolin}

var programs = map[Instrument]int{
	Violin:    40,
	Accordion: 22,
	Mandolin:  25,
}

// Program returns the General MIDI program (0-based) for the instrument,
// falling back to violin for anything unrecognized.
func (i Instrument) Program() int {
	if p, ok := programs[i]; ok {
		return p
	}
	return DefaultProgram
}

func ParseInstrument(s string) Instrument {
	return Instrument(strings.ToLower(strings.TrimSpace(s)))
}

// Next cycles through the known instruments.
func (i Instrument) Next() Instrument {
	for n, inst := range Instruments {
		if inst == i {
			return Instruments[(n+1)%len(Instruments)]
		}
	}
	return Violin
}
