package synth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"
)

const (
	SampleRate = 44100

	// fixed render block; meltysynth's effects are happiest on whole blocks
	block = 1024

	// tailSamples lets releases and reverb ring out after the last note.
	tailSamples = SampleRate
	// fadeSamples is faded to silence at the very end.
	fadeSamples = SampleRate
)

var ErrNoSoundFont = errors.New("no soundfont loaded")

// Note is a single MIDI note with an absolute start time.
type Note struct {
	Key      int
	Velocity int
	Start    time.Duration
	Duration time.Duration
}

// Synthesizer is the subset of meltysynth.Synthesizer used for rendering.
type Synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

type Renderer struct {
	soundFont *meltysynth.SoundFont
	settings  *meltysynth.SynthesizerSettings

	newSynthesizer func(sf *meltysynth.SoundFont, settings *meltysynth.SynthesizerSettings) (Synthesizer, error)
}

func defaultSynthesizer(sf *meltysynth.SoundFont, settings *meltysynth.SynthesizerSettings) (Synthesizer, error) {
	return meltysynth.NewSynthesizer(sf, settings)
}

func NewRenderer(sf *meltysynth.SoundFont) *Renderer {
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	settings.BlockSize = block
	return &Renderer{soundFont: sf, settings: settings, newSynthesizer: defaultSynthesizer}
}

// Loaded reports whether a SoundFont is available to render with.
func (r *Renderer) Loaded() bool {
	return r != nil && r.soundFont != nil
}

func LoadSoundFont(r io.Reader) (*meltysynth.SoundFont, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse soundfont: %w", err)
	}
	return sf, nil
}

func LoadSoundFontFile(path string) (*meltysynth.SoundFont, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open soundfont: %w", err)
	}
	defer f.Close()
	return LoadSoundFont(f)
}

func toSamples(d time.Duration) int {
	return int((d.Nanoseconds()*int64(SampleRate) + int64(time.Second/2)) / int64(time.Second))
}

type event struct {
	key, vel   int
	start, end int
}

// Render plays notes through a fresh synthesizer set to program on channel 0
// and returns the left and right channels.
func (r *Renderer) Render(program int, notes []Note) ([]float32, []float32, error) {
	if r == nil || r.soundFont == nil {
		return nil, nil, ErrNoSoundFont
	}
	const ch = 0
	// a fresh synth per song keeps its internal state private to this render
	syn, err := r.newSynthesizer(r.soundFont, r.settings)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create synthesizer: %w", err)
	}
	syn.ProcessMidiMessage(ch, 0xC0, int32(program), 0)

	var events []event
	maxEnd := 0
	for _, n := range notes {
		dur := toSamples(n.Duration)
		if dur <= 0 {
			continue
		}
		start := toSamples(n.Start)
		ev := event{key: n.Key, vel: n.Velocity, start: start, end: start + dur}
		events = append(events, ev)
		if ev.end > maxEnd {
			maxEnd = ev.end
		}
	}

	total := maxEnd + tailSamples
	left := make([]float32, 0, total)
	right := make([]float32, 0, total)
	active := map[int]bool{}

	trigger := func(start, count int) {
		end := start + count
		// note-offs first so a key ending and restarting in one block retriggers
		for _, ev := range events {
			if ev.end >= start && ev.end < end && active[ev.key] {
				syn.NoteOff(ch, int32(ev.key))
				active[ev.key] = false
			}
		}
		for _, ev := range events {
			if ev.start >= start && ev.start < end && !active[ev.key] {
				syn.NoteOn(ch, int32(ev.key), int32(ev.vel))
				active[ev.key] = true
			}
		}
	}

	bufL := make([]float32, block)
	bufR := make([]float32, block)
	for pos := 0; pos < total; pos += block {
		n := block
		if pos+n > total {
			n = total - pos
		}
		trigger(pos, n)
		if err := safeRender(syn, bufL, bufR); err != nil {
			return nil, nil, err
		}
		left = append(left, bufL[:n]...)
		right = append(right, bufR[:n]...)
	}
	return left, right, nil
}

func safeRender(s Synthesizer, left, right []float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("synth render: %v", r)
		}
	}()
	s.Render(left, right)
	return nil
}

// MixPCM fades out the tail, normalizes and interleaves the channels into
// 16-bit little-endian stereo PCM.
func MixPCM(left, right []float32) []byte {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	fade := fadeSamples
	if fade > n {
		fade = n
	}
	for i := n - fade; i < n; i++ {
		g := 1 - float32(i-(n-fade))/float32(fade)
		left[i] *= g
		right[i] *= g
	}

	var peak float32
	for i := 0; i < n; i++ {
		if v := float32(math.Abs(float64(left[i]))); v > peak {
			peak = v
		}
		if v := float32(math.Abs(float64(right[i]))); v > peak {
			peak = v
		}
	}
	gain := float32(1)
	if peak > 0 {
		gain = 0.99 / peak
	}

	pcm := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(pcm[4*i:], uint16(int16(left[i]*gain*math.MaxInt16)))
		binary.LittleEndian.PutUint16(pcm[4*i+2:], uint16(int16(right[i]*gain*math.MaxInt16)))
	}
	return pcm
}
