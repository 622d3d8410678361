package synth

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"
)

type noteAction struct {
	key    int
	on     bool
	sample int
}

type mockSynth struct {
	cur     int
	program int32
	events  []noteAction
}

func (m *mockSynth) ProcessMidiMessage(channel int32, command int32, data1, data2 int32) {
	if command == 0xC0 {
		m.program = data1
	}
}

func (m *mockSynth) NoteOn(channel, key, vel int32) {
	m.events = append(m.events, noteAction{int(key), true, m.cur})
}

func (m *mockSynth) NoteOff(channel, key int32) {
	m.events = append(m.events, noteAction{int(key), false, m.cur})
}

func (m *mockSynth) Render(left, right []float32) {
	for i := range left {
		left[i] = 0.5
		right[i] = -0.25
	}
	m.cur += len(left)
}

func newMockRenderer(ms *mockSynth) *Renderer {
	r := &Renderer{
		soundFont: &meltysynth.SoundFont{},
		settings:  meltysynth.NewSynthesizerSettings(SampleRate),
	}
	r.newSynthesizer = func(*meltysynth.SoundFont, *meltysynth.SynthesizerSettings) (Synthesizer, error) {
		return ms, nil
	}
	return r
}

func TestRenderSchedulesNotesOnBlockBoundaries(t *testing.T) {
	ms := &mockSynth{}
	r := newMockRenderer(ms)

	blockDur := time.Second * time.Duration(block) / SampleRate
	notes := []Note{
		{Key: 60, Velocity: 100, Start: 0, Duration: 2 * blockDur},
		{Key: 64, Velocity: 100, Start: blockDur, Duration: 2 * blockDur},
	}
	left, right, err := r.Render(40, notes)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(int32(40), ms.program)
	require.Len(t, ms.events, 4)
	assert.Equal(noteAction{60, true, 0}, ms.events[0])
	assert.Equal(64, ms.events[1].key)
	assert.True(ms.events[1].on)
	assert.False(ms.events[2].on)
	assert.Equal(60, ms.events[2].key)
	assert.Equal(len(left), len(right))
	assert.Equal(toSamples(3*blockDur)+tailSamples, len(left))
}

func TestRenderWithoutSoundFont(t *testing.T) {
	var r *Renderer
	_, _, err := r.Render(40, nil)
	assert.ErrorIs(t, err, ErrNoSoundFont)

	_, _, err = NewRenderer(nil).Render(40, nil)
	assert.ErrorIs(t, err, ErrNoSoundFont)
}

func TestRenderSkipsEmptyNotes(t *testing.T) {
	ms := &mockSynth{}
	_, _, err := newMockRenderer(ms).Render(0, []Note{{Key: 60, Velocity: 90, Duration: 0}})
	require.NoError(t, err)
	assert.Empty(t, ms.events)
}

func TestMixPCMNormalizesAndFades(t *testing.T) {
	n := 2 * fadeSamples
	left := make([]float32, n)
	right := make([]float32, n)
	for i := range left {
		left[i] = 0.5
		right[i] = -0.5
	}
	pcm := MixPCM(left, right)

	assert := assert.New(t)
	require.Len(t, pcm, n*4)
	first := int16(binary.LittleEndian.Uint16(pcm[0:]))
	assert.InDelta(0.99*32767, float64(first), 2)
	second := int16(binary.LittleEndian.Uint16(pcm[2:]))
	assert.InDelta(-0.99*32767, float64(second), 2)
	lastFrame := int16(binary.LittleEndian.Uint16(pcm[len(pcm)-4:]))
	assert.InDelta(0, float64(lastFrame), 10)
}

func TestLoaded(t *testing.T) {
	var r *Renderer
	assert.False(t, r.Loaded())
	assert.False(t, NewRenderer(nil).Loaded())
	assert.True(t, newMockRenderer(&mockSynth{}).Loaded())
}
