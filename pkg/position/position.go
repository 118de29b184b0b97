package position

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

// Place is a zero-based line and a character counted in UTF-16 code units,
// the way editors speaking LSP address text.
type Place struct {
	Line      int
	Character int
}

type Range struct {
	Start Place
	End   Place
}

// RawPosition represents a span of the source text by byte offset.
type RawPosition struct {
	// Offset is the byte offset in the source text
	Offset int
	// Text is the actual text at this position
	Text string
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

// ID returns a unique identifier for this position based on offset and text
func (p RawPosition) ID() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

func (p RawPosition) Length() int {
	return len(p.Text)
}

func (p RawPosition) End() int {
	return p.Offset + p.Length()
}

// HasRangeOverlapWith reports whether two spans share at least one byte. A
// zero-length span overlaps a span it touches.
func (p RawPosition) HasRangeOverlapWith(other RawPosition) bool {
	if p.Length() == 0 {
		return p.Offset >= other.Offset && p.Offset <= other.End()
	}
	if other.Length() == 0 {
		return other.Offset >= p.Offset && other.Offset <= p.End()
	}
	return other.Offset < p.End() && other.End() > p.Offset
}

func (p RawPosition) String() string {
	return p.ID()
}

// Mapper converts between byte offsets and LSP places for one text.
type Mapper struct {
	text  string
	lines []int
}

func NewMapper(text string) *Mapper {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			lines = append(lines, i+1)
		}
	}
	return &Mapper{text: text, lines: lines}
}

func (m *Mapper) LineCount() int {
	return len(m.lines)
}

// LineStart returns the byte offset at which line begins.
func (m *Mapper) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(m.lines) {
		return len(m.text)
	}
	return m.lines[line]
}

// LineEnd returns the byte offset of the line break ending line, or the end
// of the text.
func (m *Mapper) LineEnd(line int) int {
	end := m.LineStart(line + 1)
	if line+1 < len(m.lines) {
		for end > m.LineStart(line) && (m.text[end-1] == '\n' || m.text[end-1] == '\r') {
			end--
		}
	}
	return end
}

// Line returns the zero-based line containing offset.
func (m *Mapper) Line(offset int) int {
	offset = m.clamp(offset)
	return sort.Search(len(m.lines), func(i int) bool { return m.lines[i] > offset }) - 1
}

// Place converts a byte offset into an LSP place.
func (m *Mapper) Place(offset int) Place {
	offset = m.clamp(offset)
	line := m.Line(offset)
	return Place{Line: line, Character: utf16Len(m.text[m.lines[line]:offset])}
}

// Offset converts an LSP place into a byte offset. Places past the end of a
// line clamp to the line end; lines past the end clamp to the text end.
func (m *Mapper) Offset(p Place) int {
	if p.Line >= len(m.lines) {
		return len(m.text)
	}
	start, end := m.LineStart(p.Line), m.LineEnd(p.Line)
	units := 0
	for i, r := range m.text[start:end] {
		if units >= p.Character {
			return start + i
		}
		units += utf16RuneLen(r)
	}
	return end
}

func (m *Mapper) Range(start, end int) Range {
	return Range{Start: m.Place(start), End: m.Place(end)}
}

func (m *Mapper) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(m.text) {
		return len(m.text)
	}
	return offset
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16RuneLen(r)
	}
	return n
}

func utf16RuneLen(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
