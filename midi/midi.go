package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jsphweid/ceol/abc"
	"github.com/jsphweid/ceol/constants"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const channel = 0

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return &smf.SMF{}, fmt.Errorf("error reading midi file... %w", err)
	}
	return ReadMidi(bytes.NewReader(dat))
}

func ReadMidi(r io.Reader) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = &smf.SMF{}, fmt.Errorf("error parsing midi file... %v", r)
		}
	}()

	res, err := smf.ReadFrom(r)
	if err != nil {
		return &smf.SMF{}, fmt.Errorf("error parsing midi file... %w", err)
	}
	return res, nil
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  []byte
}

// Export writes the tune as a single track: name, meter, tempo, program and
// the expanded notes.
func Export(score *abc.Score, program int) (*smf.SMF, error) {
	if program < 0 || program > 127 {
		return nil, fmt.Errorf("program %d out of range", program)
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(abc.TicksPerQuarter)

	var tr smf.Track
	if title := score.Title(); title != "" {
		tr.Add(0, smf.MetaTrackSequenceName(title))
	}
	if m := score.Header.Meter; !m.IsFree() {
		tr.Add(0, smf.MetaMeter(uint8(m.Num), uint8(m.Den)))
	}
	tr.Add(0, smf.MetaTempo(float64(score.Tempo())))
	tr.Add(0, midi.ProgramChange(channel, uint8(program)))

	var msgs []timedMessage
	for _, ev := range score.Events() {
		for _, k := range ev.Keys {
			if k < 0 || k > 127 {
				continue
			}
			msgs = append(msgs,
				timedMessage{tick: uint32(ev.Start), msg: midi.NoteOn(channel, uint8(k), constants.DefaultVelocity)},
				timedMessage{tick: uint32(ev.Start + ev.Duration), off: true, msg: midi.NoteOff(channel, uint8(k))})
		}
	}
	// note-offs sort before note-ons on the same tick
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})

	var last uint32
	for _, m := range msgs {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}
	end := uint32(score.TotalTicks())
	if end < last {
		end = last
	}
	tr.Close(end - last)
	if err := s.Add(tr); err != nil {
		return nil, fmt.Errorf("error adding track: %w", err)
	}
	return s, nil
}

func WriteExport(w io.Writer, score *abc.Score, program int) error {
	s, err := Export(score, program)
	if err != nil {
		return err
	}
	_, err = s.WriteTo(w)
	return err
}

type Summary struct {
	Tracks   int
	Name     string
	Tempo    float64
	Program  int
	Notes    int
	Duration time.Duration
}

var ErrEmpty = errors.New("midi file has no tracks")

// Summarize counts note starts over all tracks. Program is -1 when no
// program change is present.
func Summarize(s *smf.SMF) (Summary, error) {
	sum := Summary{Tracks: len(s.Tracks), Program: -1}
	if sum.Tracks == 0 {
		return sum, ErrEmpty
	}
	if tc := s.TempoChanges(); len(tc) > 0 {
		sum.Tempo = tc[0].BPM
	}

	var maxTicks int64
	for _, events := range s.Tracks {
		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			msg := midi.Message(event.Message)
			var ch, key, vel, prog uint8
			var name string
			switch {
			case event.Message.GetMetaTrackName(&name):
				if sum.Name == "" {
					sum.Name = name
				}
			case msg.GetNoteStart(&ch, &key, &vel):
				sum.Notes++
			case msg.GetProgramChange(&ch, &prog):
				if sum.Program < 0 {
					sum.Program = int(prog)
				}
			}
		}
		if absTicks > maxTicks {
			maxTicks = absTicks
		}
	}
	sum.Duration = time.Duration(s.TimeAt(maxTicks)) * time.Microsecond
	return sum, nil
}
