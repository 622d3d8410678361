package abc

import (
	"fmt"
	"strings"
)

const (
	TicksPerQuarter = 480
	ticksPerWhole   = 4 * TicksPerQuarter

	DefaultTempo           = 120
	DefaultMeasuresPerLine = 4
)

type Fraction struct {
	Num int
	Den int
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Meter is the zero value for free meter (M:none).
type Meter struct {
	Num int
	Den int
}

func (m Meter) IsFree() bool {
	return m.Den == 0
}

func (m Meter) String() string {
	if m.IsFree() {
		return "none"
	}
	return fmt.Sprintf("%d/%d", m.Num, m.Den)
}

// BarTicks is the length of one full measure; a whole note for free meter.
func (m Meter) BarTicks() int {
	if m.IsFree() {
		return ticksPerWhole
	}
	return ticksPerWhole * m.Num / m.Den
}

type Header struct {
	Reference  int
	Title      string
	Composer   string
	Rhythm     string
	Meter      Meter
	UnitLength Fraction
	Tempo      int
	Key        string
}

type elementKind int

const (
	noteElement elementKind = iota
	restElement
	barElement
)

type bar struct {
	repeatStart bool
	repeatEnd   bool
	double      bool
	ending      int
}

type element struct {
	kind  elementKind
	keys  []int
	ticks int
	tie   bool
	bar   bar
}

type token struct {
	text  string
	isBar bool
}

// Event is one sounding note or chord of the playback schedule.
type Event struct {
	Keys     []int
	Start    int
	Duration int
}

// Score is the parsed form of one tune: the header, the measures used for
// engraving, and the elements used for playback.
type Score struct {
	Header   Header
	elements []element
	tokens   []token
}

func (s *Score) Title() string {
	return s.Header.Title
}

func (s *Score) Tempo() int {
	if s.Header.Tempo <= 0 {
		return DefaultTempo
	}
	return s.Header.Tempo
}

// Lines engraves the score with the default layout.
func (s *Score) Lines() []string {
	return s.Engrave(DefaultMeasuresPerLine)
}

// Engrave lays the measures out perLine to a line. Bar lines stay attached to
// the measure they close.
func (s *Score) Engrave(perLine int) []string {
	if perLine <= 0 {
		perLine = DefaultMeasuresPerLine
	}
	var lines []string
	var cur []string
	count := 0
	content := false
	for _, tok := range s.tokens {
		cur = append(cur, tok.text)
		if !tok.isBar {
			content = true
			continue
		}
		if !content {
			continue
		}
		content = false
		count++
		if count == perLine {
			lines = append(lines, strings.Join(cur, " "))
			cur = nil
			count = 0
		}
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

// Measures counts measures with at least one note or rest.
func (s *Score) Measures() int {
	n := 0
	content := false
	for _, tok := range s.tokens {
		if !tok.isBar {
			content = true
			continue
		}
		if content {
			n++
		}
		content = false
	}
	if content {
		n++
	}
	return n
}

// Events expands repeats and endings, merges ties and returns the schedule in
// ticks. Rests advance time without producing events.
func (s *Score) Events() []Event {
	var events []Event
	t := 0
	tied := -1
	for _, e := range s.expand() {
		if e.kind == restElement {
			t += e.ticks
			tied = -1
			continue
		}
		if tied >= 0 && sameKeys(events[tied].Keys, e.keys) {
			events[tied].Duration += e.ticks
		} else {
			events = append(events, Event{Keys: append([]int(nil), e.keys...), Start: t, Duration: e.ticks})
			tied = len(events) - 1
		}
		if !e.tie {
			tied = -1
		}
		t += e.ticks
	}
	return events
}

// TotalTicks is the length of the expanded schedule, rests included.
func (s *Score) TotalTicks() int {
	total := 0
	for _, e := range s.expand() {
		total += e.ticks
	}
	return total
}

func (s *Score) expand() []element {
	var seq []element
	start := 0
	pass := 1
	ending := 0
	done := make(map[int]bool)
	// A finished repeat keeps the second pass alive only for an ending that
	// follows it directly ("|1 ... :| [2 ...").
	afterRepeat := false
	for i := 0; i < len(s.elements); i++ {
		e := s.elements[i]
		if e.kind != barElement {
			if afterRepeat {
				pass = 1
				afterRepeat = false
			}
			if ending == 0 || ending == pass {
				seq = append(seq, e)
			}
			continue
		}
		b := e.bar
		if b.repeatEnd && !done[i] && (ending == 0 || ending == pass) {
			done[i] = true
			pass = 2
			ending = 0
			afterRepeat = false
			i = start - 1
			continue
		}
		if b.ending > 0 {
			afterRepeat = false
		}
		if b.repeatEnd {
			start = i + 1
			afterRepeat = b.ending == 0
		}
		switch {
		case b.ending > 0:
			ending = b.ending
		case b.repeatStart || b.repeatEnd || b.double:
			ending = 0
		}
		if b.repeatStart || b.double {
			start = i + 1
			pass = 1
		}
	}
	return seq
}

func sameKeys(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
