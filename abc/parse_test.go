package abc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kesh = `X:3
T:The Kesh
R:jig
M:6/8
L:1/8
Q:3/8=120
K:G
|:GAG GAB|ABA ABd:|
`

func keysOf(events []Event) []int {
	var res []int
	for _, e := range events {
		res = append(res, e.Keys...)
	}
	return res
}

func durationsOf(events []Event) []int {
	var res []int
	for _, e := range events {
		res = append(res, e.Duration)
	}
	return res
}

func mustParse(t *testing.T, text string) *Score {
	t.Helper()
	s, err := Parse(text)
	require.NoError(t, err)
	return s
}

func TestParsesHeader(t *testing.T) {
	s := mustParse(t, kesh)

	assert := assert.New(t)
	assert.Equal(3, s.Header.Reference)
	assert.Equal("The Kesh", s.Title())
	assert.Equal("jig", s.Header.Rhythm)
	assert.Equal(Meter{6, 8}, s.Header.Meter)
	assert.Equal(Fraction{1, 8}, s.Header.UnitLength)
	assert.Equal(180, s.Tempo())
	assert.Equal("G", s.Header.Key)
}

func TestExpandsRepeats(t *testing.T) {
	s := mustParse(t, kesh)
	events := s.Events()

	assert := assert.New(t)
	assert.Len(events, 24)
	assert.Equal([]int{67, 69, 67, 67, 69, 71}, keysOf(events[:6]))
	assert.Equal(keysOf(events[:12]), keysOf(events[12:]))
	assert.Equal(5760, s.TotalTicks())
	assert.Equal(events[11].Start+240, events[12].Start)
}

func TestDefaultUnitLengthFollowsMeter(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(Fraction{1, 16}, mustParse(t, "M:2/4\nK:C\nC").Header.UnitLength)
	assert.Equal(Fraction{1, 8}, mustParse(t, "M:3/4\nK:C\nC").Header.UnitLength)
	assert.Equal(Fraction{1, 8}, mustParse(t, "K:C\nC").Header.UnitLength)
	assert.Equal(Fraction{1, 4}, mustParse(t, "M:C|\nL:1/4\nK:C\nC").Header.UnitLength)
}

func TestAccidentalsCarryThroughMeasure(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:D\nF ^G =F F | F c")
	assert.Equal(t, []int{66, 68, 65, 65, 66, 73}, keysOf(s.Events()))
}

func TestOctaveMarks(t *testing.T) {
	s := mustParse(t, "K:C\nC, C c c' c''")
	assert.Equal(t, []int{48, 60, 72, 84, 96}, keysOf(s.Events()))
}

func TestLengths(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:C\nA2 A/ A// A3/2 A/4 A")
	assert.Equal(t, []int{480, 120, 60, 360, 60, 240}, durationsOf(s.Events()))
}

func TestBrokenRhythm(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]int{360, 120}, durationsOf(mustParse(t, "L:1/8\nK:C\nA>B").Events()))
	assert.Equal([]int{120, 360}, durationsOf(mustParse(t, "L:1/8\nK:C\nA<B").Events()))
	assert.Equal([]int{420, 60}, durationsOf(mustParse(t, "L:1/8\nK:C\nA>>B").Events()))
}

func TestTriplets(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:C\n(3ABc d")
	events := s.Events()
	assert.Equal(t, []int{160, 160, 160, 240}, durationsOf(events))
	assert.Equal(t, 480, events[3].Start)
}

func TestChordLengthWithOddUnit(t *testing.T) {
	events := mustParse(t, "L:3/16\nK:C\n[CE]2 [D/F]3/2").Events()
	require.Len(t, events, 2)
	assert.Equal(t, 720, events[0].Duration)
	assert.Equal(t, 270, events[1].Duration)
}

func TestShortestUnitDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		s, err := Parse("L:1/1920\nK:C\n[CE]/2 C// [DF]3|")
		require.NoError(t, err)
		s.Events()
		s.Lines()
	})
}

func TestChordsTiesAndRests(t *testing.T) {
	assert := assert.New(t)

	chord := mustParse(t, "L:1/8\nK:C\n[CEG]2 z2 A").Events()
	require.Len(t, chord, 2)
	assert.Equal([]int{60, 64, 67}, chord[0].Keys)
	assert.Equal(480, chord[0].Duration)
	assert.Equal(960, chord[1].Start)

	tied := mustParse(t, "L:1/8\nK:C\nA2-A2 A-B").Events()
	assert.Equal([]int{960, 240, 240}, durationsOf(tied))
}

func TestEndings(t *testing.T) {
	assert := assert.New(t)
	attached := mustParse(t, "L:1/8\nK:C\n|:A|1B:|2c|]")
	assert.Equal([]int{69, 71, 69, 72}, keysOf(attached.Events()))

	separate := mustParse(t, "L:1/8\nK:C\n|:A|1B:|[2c|]")
	assert.Equal([]int{69, 71, 69, 72}, keysOf(separate.Events()))

	twoParts := mustParse(t, "L:1/8\nK:C\nA:|B|1c:|2d|]")
	assert.Equal([]int{69, 69, 71, 72, 71, 74}, keysOf(twoParts.Events()))
}

func TestSkipsDecorationsAndAnnotations(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:G\n\"G\"~G2 {A}B !trill!c +fermata+d .e % comment")
	assert.Equal(t, []int{67, 71, 72, 74, 76}, keysOf(s.Events()))
}

func TestInlineAndBodyFields(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:C\nF [K:G] F|\nK:F\nB")
	assert.Equal(t, []int{65, 66, 70}, keysOf(s.Events()))
	assert.Equal(t, "F", s.Header.Key)
}

func TestOnlyFirstTune(t *testing.T) {
	s := mustParse(t, "X:1\nT:One\nK:C\nC\n\nX:2\nT:Two\nK:C\nD")
	assert.Equal(t, "One", s.Title())
	assert.Len(t, s.Events(), 1)
}

func TestEmptyText(t *testing.T) {
	s := mustParse(t, "")
	assert.Empty(t, s.Events())
	assert.Empty(t, s.Lines())
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unexpected character":    "K:G\nGAB @ c",
		"unterminated chord":      "K:G\n[GB",
		"unknown key":             "K:H\nG",
		"unterminated annotation": "K:G\n\"Am G",
		"zero divisor":            "K:G\nA/0",
		"bad meter":               "M:7\nK:C\nC",
		"lone colon":              "K:C\nA : B",
		"unit below one tick":     "X:1\nL:1/2000\nK:C\n[CE]|",
		"unit too long":           "L:16/1\nK:C\nC",
		"length out of range":     "K:C\nA99999",
		"rest too long":           "M:4/4\nK:C\nZ100000|C|",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			require.Error(t, err)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("K:G\nGAB @ c")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, 5, pe.Column)
	assert.Contains(t, pe.Error(), "line 2, column 5")
}

func TestEngrave(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:D\n|:A|dfa afd|dfa afd|gfe dcB|AFA d2:|")

	assert := assert.New(t)
	assert.Equal([]string{
		"|: A | dfa afd |",
		"dfa afd | gfe dcB |",
		"AFA d2 :|",
	}, s.Engrave(2))
	assert.Equal(5, s.Measures())
	assert.Len(s.Lines(), 2)
}

func TestEngraveKeepsTiesAndBrokenRhythm(t *testing.T) {
	s := mustParse(t, "L:1/8\nK:C\nA2-A2 A>B (3cde|")
	assert.Equal(t, []string{"A2-A2 A>B (3cde |"}, s.Lines())
}
