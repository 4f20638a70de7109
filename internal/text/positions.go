// Package text defines source offsets, spans, line ranges and position types.
package text

import "fmt"

// ByteOffset is a byte index into a UTF-8 source buffer.
type ByteOffset int

// IsValid reports whether the offset is non-negative.
func (o ByteOffset) IsValid() bool {
	return o >= 0
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start ByteOffset // inclusive
	End   ByteOffset // exclusive
}

// Validate reports an error if the span is invalid.
func (s Span) Validate() error {
	if !s.Start.IsValid() {
		return fmt.Errorf("invalid span start: %d", s.Start)
	}
	if !s.End.IsValid() {
		return fmt.Errorf("invalid span end: %d", s.End)
	}
	if s.End < s.Start {
		return fmt.Errorf("invalid span bounds: end (%d) < start (%d)", s.End, s.Start)
	}
	return nil
}

// IsValid reports whether the span bounds are well-formed.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() && s.End >= s.Start
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() ByteOffset {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Point is a UTF-8 byte-based source location.
type Point struct {
	Line   int // 0-based
	Column int // byte column
}

// Range is a source range expressed in UTF-8 byte-based points.
type Range struct {
	Start Point
	End   Point
}

// Lines returns the line range covered by r.
func (r Range) Lines() LineRange {
	return LineRange{Start: r.Start.Line, End: r.End.Line}
}

// LineRange is an inclusive range of 0-based line numbers.
type LineRange struct {
	Start int
	End   int
}

// Validate reports an error if the range is negative or reversed.
func (r LineRange) Validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("invalid line range %s", r)
	}
	if r.End < r.Start {
		return fmt.Errorf("invalid line range %s: end before start", r)
	}
	return nil
}

// Contains reports whether line lies inside the range.
func (r LineRange) Contains(line int) bool {
	return r.Start <= line && line <= r.End
}

func (r LineRange) String() string {
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// UTF16Position is an LSP-facing UTF-16 position kept at system edges.
type UTF16Position struct {
	Line      int
	Character int
}

// UTF16Range is an LSP-facing UTF-16 range kept at system edges.
type UTF16Range struct {
	Start UTF16Position
	End   UTF16Position
}
