package abc

import (
	"fmt"
	"strings"
)

// Key is a key signature: the sharps (+1) and flats (-1) applied to each
// note letter, upper case.
type Key struct {
	Name        string
	Accidentals map[byte]int
}

var letterFifths = map[byte]int{
	'F': -1, 'C': 0, 'G': 1, 'D': 2, 'A': 3, 'E': 4, 'B': 5,
}

var modeFifths = map[string]int{
	"":    0,
	"maj": 0,
	"ion": 0,
	"m":   -3,
	"min": -3,
	"aeo": -3,
	"mix": -1,
	"dor": -2,
	"phr": -4,
	"lyd": 1,
	"loc": -5,
}

const (
	sharpOrder = "FCGDAEB"
	flatOrder  = "BEADGCF"
)

func lookupMode(s string) (int, bool) {
	m := strings.ToLower(s)
	if m != "m" && len(m) > 3 {
		m = m[:3]
	}
	f, ok := modeFifths[m]
	return f, ok
}

func signature(fifths int) map[byte]int {
	acc := make(map[byte]int)
	for i := 0; i < fifths; i++ {
		acc[sharpOrder[i]] = 1
	}
	for i := 0; i < -fifths; i++ {
		acc[flatOrder[i]] = -1
	}
	return acc
}

// ParseKey reads the value of a K: field. Trailing clef and octave
// modifiers are ignored.
func ParseKey(value string) (Key, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return Key{Name: "C", Accidentals: signature(0)}, nil
	}
	first := fields[0]
	switch first {
	case "none", "HP":
		return Key{Name: first, Accidentals: signature(0)}, nil
	case "Hp":
		return Key{Name: first, Accidentals: map[byte]int{'F': 1, 'C': 1}}, nil
	}

	letter := first[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	fifths, ok := letterFifths[letter]
	if !ok {
		return Key{}, fmt.Errorf("unrecognized key %q", value)
	}
	rest := first[1:]
	if strings.HasPrefix(rest, "#") {
		fifths += 7
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "b") {
		fifths -= 7
		rest = rest[1:]
	}
	name := first
	if rest == "" && len(fields) > 1 {
		if _, ok := lookupMode(fields[1]); ok && !strings.Contains(fields[1], "=") {
			rest = fields[1]
			name = first + " " + fields[1]
		}
	}
	mode, ok := lookupMode(rest)
	if !ok {
		return Key{}, fmt.Errorf("unrecognized mode %q in key %q", rest, value)
	}
	fifths += mode
	if fifths > 7 || fifths < -7 {
		return Key{}, fmt.Errorf("unsupported key %q", value)
	}
	return Key{Name: name, Accidentals: signature(fifths)}, nil
}
