package abc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

const (
	// maxUnit bounds L: in whole notes; shorter than a tick is rejected too.
	maxUnit = 16
	// maxFactor bounds the numbers in lengths and L: fields.
	maxFactor = 1 << 12
	// maxRestMeasures bounds Z counts.
	maxRestMeasures = 999
)

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var fieldLine = regexp.MustCompile(`^[A-Za-z]:([^|:]|$)`)

// skipped single characters: decorations, slurs, spacers, line continuation,
// voice overlay and back-quotes.
const ignored = "~.HLMOPSTuvy&\\`)"

type accidentalKey struct {
	letter byte
	octave int
}

type tuplet struct {
	p, q, remaining int
}

type parser struct {
	score   *Score
	meter   Meter
	unit    Fraction
	unitSet bool
	key     Key
	barAcc  map[accidentalKey]int
	tuplet  tuplet
	broken  *Fraction
	prefix  string
	line    int
	inBody  bool
	started bool
	spaced  bool
}

// Parse reads the first tune of an ABC text. Empty text gives an empty score.
func Parse(text string) (*Score, error) {
	p := &parser{
		score:  &Score{},
		barAcc: make(map[accidentalKey]int),
	}
	p.key, _ = ParseKey("")
	p.score.Header.Tempo = DefaultTempo

	text = strings.ReplaceAll(text, "\r\n", "\n")
	seenX := false
	for n, raw := range strings.Split(text, "\n") {
		p.line = n + 1
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "%") {
			continue
		}
		if trimmed == "" {
			if p.inBody && len(p.score.tokens) > 0 {
				break
			}
			continue
		}
		if fieldLine.MatchString(trimmed) {
			name := trimmed[0]
			value := strings.TrimSpace(stripComment(trimmed[2:]))
			if name == 'X' {
				if seenX || p.started {
					break
				}
				seenX = true
			}
			if err := p.field(name, value); err != nil {
				return nil, p.errorf(1, "%v", err)
			}
			if name == 'K' && !p.inBody {
				p.beginBody()
			}
			continue
		}
		if !p.inBody {
			p.beginBody()
		}
		if err := p.body(line); err != nil {
			return nil, err
		}
	}
	p.score.Header.Meter = p.meter
	if !p.unitSet {
		p.unit = p.defaultUnit()
	}
	p.score.Header.UnitLength = p.unit
	if p.score.Header.Key == "" {
		p.score.Header.Key = p.key.Name
	}
	return p.score, nil
}

func (p *parser) beginBody() {
	p.inBody = true
	if !p.unitSet {
		p.unit = p.defaultUnit()
		p.unitSet = true
	}
	p.score.Header.Key = p.key.Name
}

func (p *parser) defaultUnit() Fraction {
	if p.meter.IsFree() || p.meter.Num*4 >= p.meter.Den*3 {
		return Fraction{1, 8}
	}
	return Fraction{1, 16}
}

func (p *parser) errorf(col int, format string, args ...any) error {
	return &ParseError{Line: p.line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func stripComment(s string) string {
	if i := strings.Index(s, "%"); i >= 0 {
		return s[:i]
	}
	return s
}

func (p *parser) field(name byte, value string) error {
	h := &p.score.Header
	switch name {
	case 'X':
		h.Reference, _ = strconv.Atoi(value)
	case 'T':
		if h.Title == "" {
			h.Title = value
		}
	case 'C':
		h.Composer = value
	case 'R':
		h.Rhythm = value
	case 'M':
		m, err := parseMeter(value)
		if err != nil {
			return err
		}
		p.meter = m
	case 'L':
		f, err := parseFraction(value)
		if err != nil {
			return fmt.Errorf("bad unit length %q", value)
		}
		if f.Num > maxFactor || f.Den > maxFactor || f.Num/f.Den >= maxUnit || ticksPerWhole*f.Num/f.Den < 1 {
			return fmt.Errorf("unit length %q out of range", value)
		}
		p.unit = f
		p.unitSet = true
	case 'Q':
		tempo, err := p.parseTempo(value)
		if err != nil {
			return err
		}
		h.Tempo = tempo
	case 'K':
		k, err := ParseKey(value)
		if err != nil {
			return err
		}
		p.key = k
		p.barAcc = make(map[accidentalKey]int)
		if p.inBody {
			p.score.Header.Key = k.Name
		}
	}
	return nil
}

func parseMeter(value string) (Meter, error) {
	switch value {
	case "", "none":
		return Meter{}, nil
	case "C":
		return Meter{4, 4}, nil
	case "C|":
		return Meter{2, 2}, nil
	}
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return Meter{}, fmt.Errorf("bad meter %q", value)
	}
	num := 0
	for _, s := range strings.Split(strings.Trim(parts[0], "()"), "+") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return Meter{}, fmt.Errorf("bad meter %q", value)
		}
		num += n
	}
	den, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || den <= 0 {
		return Meter{}, fmt.Errorf("bad meter %q", value)
	}
	return Meter{num, den}, nil
}

func parseFraction(value string) (Fraction, error) {
	parts := strings.SplitN(strings.TrimSpace(value), "/", 2)
	num, err := strconv.Atoi(parts[0])
	if err != nil || num <= 0 {
		return Fraction{}, fmt.Errorf("bad fraction %q", value)
	}
	if len(parts) == 1 {
		return Fraction{num, 1}, nil
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil || den <= 0 {
		return Fraction{}, fmt.Errorf("bad fraction %q", value)
	}
	return Fraction{num, den}, nil
}

var quoted = regexp.MustCompile(`"[^"]*"`)

// parseTempo converts a Q: field to quarter notes per minute.
func (p *parser) parseTempo(value string) (int, error) {
	v := strings.TrimSpace(quoted.ReplaceAllString(value, ""))
	if v == "" {
		return p.score.Header.Tempo, nil
	}
	beat := p.unit
	if !p.unitSet {
		beat = p.defaultUnit()
	}
	if i := strings.Index(v, "="); i >= 0 {
		beats := strings.Fields(v[:i])
		if len(beats) == 0 {
			return 0, fmt.Errorf("bad tempo %q", value)
		}
		f, err := parseFraction(beats[0])
		if err != nil {
			return 0, fmt.Errorf("bad tempo %q", value)
		}
		beat = f
		v = strings.TrimSpace(v[i+1:])
	}
	bpm, err := strconv.Atoi(v)
	if err != nil || bpm <= 0 {
		return 0, fmt.Errorf("bad tempo %q", value)
	}
	return bpm * 4 * beat.Num / beat.Den, nil
}

func isNoteLetter(c byte) bool {
	return (c >= 'A' && c <= 'G') || (c >= 'a' && c <= 'g')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (p *parser) body(line string) error {
	p.started = true
	p.spaced = true
	i := 0
	for i < len(line) {
		c := line[i]
		col := i + 1
		switch {
		case c == ' ' || c == '\t':
			p.spaced = true
			i++
		case c == '%':
			return nil
		case strings.IndexByte(ignored, c) >= 0:
			i++
		case c == '"' || c == '!' || c == '+' || c == '{':
			closer := c
			if c == '{' {
				closer = '}'
			}
			end := strings.IndexByte(line[i+1:], closer)
			if end < 0 {
				return p.errorf(col, "unterminated %q", string(c))
			}
			i += end + 2
		case c == '(':
			n, err := p.tupletAt(line, i)
			if err != nil {
				return err
			}
			i = n
		case c == '[' && i+2 < len(line) && isFieldName(line[i+1]) && line[i+2] == ':':
			end := strings.IndexByte(line[i:], ']')
			if end < 0 {
				return p.errorf(col, "unterminated inline field")
			}
			if err := p.field(line[i+1], strings.TrimSpace(line[i+3:i+end])); err != nil {
				return p.errorf(col, "%v", err)
			}
			i += end + 1
		case c == '[' && i+1 < len(line) && isDigit(line[i+1]):
			n := p.endingBar(line, i)
			i = n
		case c == '[' && i+1 < len(line) && line[i+1] == '|':
			n, err := p.barAt(line, i)
			if err != nil {
				return err
			}
			i = n
		case c == '[':
			n, err := p.chord(line, i)
			if err != nil {
				return err
			}
			i = n
		case c == '|' || c == ':':
			n, err := p.barAt(line, i)
			if err != nil {
				return err
			}
			i = n
		case c == '>' || c == '<':
			i = p.brokenRhythm(line, i)
		case c == '-':
			p.tie()
			i++
		case c == 'z' || c == 'x':
			n, ticks, err := p.length(line, i+1)
			if err != nil {
				return err
			}
			p.add(element{kind: restElement, ticks: ticks}, line[i:n])
			i = n
		case c == 'Z':
			n := i + 1
			for n < len(line) && isDigit(line[n]) {
				n++
			}
			count := 1
			if n > i+1 {
				count, _ = strconv.Atoi(line[i+1 : n])
			}
			if count > maxRestMeasures {
				return p.errorf(col, "multi-measure rest of %d measures", count)
			}
			p.add(element{kind: restElement, ticks: count * p.meter.BarTicks()}, line[i:n])
			i = n
		case c == '^' || c == '_' || c == '=' || isNoteLetter(c):
			key, n, err := p.pitch(line, i)
			if err != nil {
				return err
			}
			n, ticks, err := p.length(line, n)
			if err != nil {
				return err
			}
			p.add(element{kind: noteElement, keys: []int{key}, ticks: ticks}, line[i:n])
			i = n
		default:
			return p.errorf(col, "unexpected character %q", string(c))
		}
	}
	return nil
}

func isFieldName(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func (p *parser) add(e element, text string) {
	isBar := e.kind == barElement
	if !isBar {
		if p.tuplet.remaining > 0 {
			e.ticks = e.ticks * p.tuplet.q / p.tuplet.p
			p.tuplet.remaining--
		}
		if p.broken != nil {
			e.ticks = e.ticks * p.broken.Num / p.broken.Den
			p.broken = nil
		}
		text = p.prefix + text
		p.prefix = ""
	}
	p.score.elements = append(p.score.elements, e)
	// notes written without a space between them stay one beamed token
	n := len(p.score.tokens)
	if !isBar && !p.spaced && n > 0 && !p.score.tokens[n-1].isBar {
		p.score.tokens[n-1].text += text
	} else {
		p.score.tokens = append(p.score.tokens, token{text: text, isBar: isBar})
	}
	p.spaced = false
}

func (p *parser) last() *element {
	n := len(p.score.elements) - 1
	if n < 0 || p.score.elements[n].kind == barElement {
		return nil
	}
	return &p.score.elements[n]
}

func (p *parser) appendText(s string) {
	n := len(p.score.tokens) - 1
	if n >= 0 && !p.score.tokens[n].isBar {
		p.score.tokens[n].text += s
	}
}

func (p *parser) tie() {
	if e := p.last(); e != nil && e.kind == noteElement {
		e.tie = true
		p.appendText("-")
	}
}

func (p *parser) brokenRhythm(line string, i int) int {
	c := line[i]
	n := i
	for n < len(line) && line[n] == c && n-i < 3 {
		n++
	}
	count := n - i
	den := 1 << count
	long := Fraction{2*den - 1, den}
	short := Fraction{1, den}
	if c == '<' {
		long, short = short, long
	}
	if e := p.last(); e != nil {
		e.ticks = e.ticks * long.Num / long.Den
		p.appendText(line[i:n])
		p.broken = &short
	}
	return n
}

func (p *parser) tupletAt(line string, i int) (int, error) {
	n := i + 1
	if n >= len(line) || !isDigit(line[n]) {
		return n, nil
	}
	num := int(line[n] - '0')
	if num < 2 {
		return 0, p.errorf(i+1, "bad tuplet %q", line[i:n+1])
	}
	n++
	q := 2
	switch num {
	case 2, 4, 8:
		q = 3
	}
	r := num
	if n < len(line) && line[n] == ':' {
		n++
		if n < len(line) && isDigit(line[n]) {
			q = int(line[n] - '0')
			n++
		}
		if n < len(line) && line[n] == ':' {
			n++
			if n < len(line) && isDigit(line[n]) {
				r = int(line[n] - '0')
				n++
			}
		}
	}
	if q == 0 || r == 0 {
		return 0, p.errorf(i+1, "bad tuplet %q", line[i:n])
	}
	p.tuplet = tuplet{p: num, q: q, remaining: r}
	p.prefix += line[i:n]
	return n, nil
}

// pitch reads accidentals, a note letter and octave marks, returning the
// MIDI key. Middle C is 60.
func (p *parser) pitch(line string, i int) (int, int, error) {
	col := i + 1
	explicit := false
	offset := 0
	switch line[i] {
	case '^':
		explicit = true
		offset = 1
		i++
		if i < len(line) && line[i] == '^' {
			offset = 2
			i++
		}
	case '_':
		explicit = true
		offset = -1
		i++
		if i < len(line) && line[i] == '_' {
			offset = -2
			i++
		}
	case '=':
		explicit = true
		i++
	}
	if i >= len(line) || !isNoteLetter(line[i]) {
		return 0, 0, p.errorf(col, "expected a note after accidental")
	}
	c := line[i]
	octave := 4
	if c >= 'a' {
		c -= 'a' - 'A'
		octave = 5
	}
	i++
	for i < len(line) && (line[i] == '\'' || line[i] == ',') {
		if line[i] == '\'' {
			octave++
		} else {
			octave--
		}
		i++
	}
	ak := accidentalKey{letter: c, octave: octave}
	if explicit {
		p.barAcc[ak] = offset
	} else if o, ok := p.barAcc[ak]; ok {
		offset = o
	} else {
		offset = p.key.Accidentals[c]
	}
	key := 12*(octave+1) + semitones[c] + offset
	if key < 0 || key > 127 {
		return 0, 0, p.errorf(col, "note out of range")
	}
	return key, i, nil
}

// multiplier reads a length multiplier such as 2, 3/2, /, // or /4.
func (p *parser) multiplier(line string, i int) (int, int, int, error) {
	col := i + 1
	num, den := 1, 1
	start := i
	for i < len(line) && isDigit(line[i]) {
		i++
	}
	if i > start {
		num, _ = strconv.Atoi(line[start:i])
		if num == 0 {
			return 0, 0, 0, p.errorf(col, "zero length")
		}
	}
	if i < len(line) && line[i] == '/' {
		slashes := 0
		for i < len(line) && line[i] == '/' {
			slashes++
			i++
		}
		dstart := i
		for i < len(line) && isDigit(line[i]) {
			i++
		}
		if i > dstart {
			if slashes > 1 {
				return 0, 0, 0, p.errorf(col, "bad length %q", line[start:i])
			}
			den, _ = strconv.Atoi(line[dstart:i])
			if den == 0 {
				return 0, 0, 0, p.errorf(col, "zero length divisor")
			}
		} else {
			den = 1 << slashes
		}
	}
	if num > maxFactor || den > maxFactor {
		return 0, 0, 0, p.errorf(col, "length %q out of range", line[start:i])
	}
	return i, num, den, nil
}

// length reads a length multiplier and returns the note length in ticks.
func (p *parser) length(line string, i int) (int, int, error) {
	i, num, den, err := p.multiplier(line, i)
	if err != nil {
		return 0, 0, err
	}
	return i, ticksPerWhole * p.unit.Num * num / (p.unit.Den * den), nil
}

func (p *parser) chord(line string, i int) (int, error) {
	col := i + 1
	end := strings.IndexByte(line[i:], ']')
	if end < 0 {
		return 0, p.errorf(col, "unterminated chord")
	}
	end += i
	var keys []int
	ticks := 0
	tie := false
	n := i + 1
	for n < end {
		c := line[n]
		switch {
		case c == ' ':
			n++
		case c == '-':
			tie = true
			n++
		case c == '^' || c == '_' || c == '=' || isNoteLetter(c):
			key, next, err := p.pitch(line, n)
			if err != nil {
				return 0, err
			}
			next, t, err := p.length(line, next)
			if err != nil {
				return 0, err
			}
			if len(keys) == 0 {
				ticks = t
			}
			keys = append(keys, key)
			n = next
		default:
			return 0, p.errorf(n+1, "unexpected character %q in chord", string(c))
		}
	}
	if len(keys) == 0 {
		return 0, p.errorf(col, "empty chord")
	}
	// a length after the bracket multiplies the first note's length
	next, num, den, err := p.multiplier(line, end+1)
	if err != nil {
		return 0, err
	}
	ticks = ticks * num / den
	p.add(element{kind: noteElement, keys: keys, ticks: ticks, tie: tie}, line[i:next])
	return next, nil
}

func (p *parser) endingBar(line string, i int) int {
	n := i + 1
	for n < len(line) && (isDigit(line[n]) || line[n] == ',' || line[n] == '-') {
		n++
	}
	ending, _ := strconv.Atoi(leadingDigits(line[i+1 : n]))
	p.closeMeasure()
	p.add(element{kind: barElement, bar: bar{ending: ending}}, line[i:n])
	return n
}

func leadingDigits(s string) string {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return s[:n]
}

func (p *parser) barAt(line string, i int) (int, error) {
	col := i + 1
	n := i
	for n < len(line) && strings.IndexByte("|:[]", line[n]) >= 0 {
		if line[n] == '[' && n > i {
			break
		}
		n++
	}
	run := line[i:n]
	if !strings.Contains(run, "|") && !strings.HasPrefix(run, "::") {
		return 0, p.errorf(col, "unexpected %q", run)
	}
	b := bar{
		repeatStart: strings.HasSuffix(run, ":"),
		repeatEnd:   strings.HasPrefix(run, ":"),
		double: strings.Contains(run, "||") || strings.Contains(run, "|]") ||
			strings.Contains(run, "[|"),
	}
	if n < len(line) && isDigit(line[n]) && strings.HasSuffix(run, "|") {
		start := n
		for n < len(line) && (isDigit(line[n]) || line[n] == ',' || line[n] == '-') {
			n++
		}
		b.ending, _ = strconv.Atoi(leadingDigits(line[start:n]))
	}
	p.closeMeasure()
	p.add(element{kind: barElement, bar: b}, line[i:n])
	return n, nil
}

// closeMeasure drops accidentals carried through the measure.
func (p *parser) closeMeasure() {
	if len(p.barAcc) > 0 {
		p.barAcc = make(map[accidentalKey]int)
	}
}
