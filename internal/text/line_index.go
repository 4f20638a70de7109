package text

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf16"
	"unicode/utf8"
)

// LineIndex maps byte offsets to lines over a UTF-8 source buffer.
//
// Lines are 0-based. A line's content excludes its terminator ("\n" or "\r\n").
// UTF-16 positions are used only at the LSP edge.
type LineIndex struct {
	src        []byte
	lineStarts []ByteOffset
}

var (
	errNilLineIndex            = errors.New("nil LineIndex")
	errInvalidUTF8Sequence     = errors.New("invalid UTF-8 sequence")
	errSplitUTF16SurrogatePair = errors.New("UTF-16 position splits surrogate pair")
)

// NewLineIndex builds an index over src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []ByteOffset{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return &LineIndex{src: src, lineStarts: starts}
}

// LineCount returns the number of logical lines in the source.
func (li *LineIndex) LineCount() int {
	if li == nil {
		return 0
	}
	return len(li.lineStarts)
}

// LineOf returns the line containing off.
func (li *LineIndex) LineOf(off ByteOffset) (int, error) {
	if li == nil {
		return 0, errNilLineIndex
	}
	if err := li.validateOffset(off); err != nil {
		return 0, err
	}
	return li.lineForOffset(off), nil
}

// OffsetToPoint converts a byte offset to a UTF-8 byte-based point.
func (li *LineIndex) OffsetToPoint(off ByteOffset) (Point, error) {
	line, err := li.LineOf(off)
	if err != nil {
		return Point{}, err
	}
	return Point{Line: line, Column: int(off - li.lineStarts[line])}, nil
}

// LineSpan returns the span of line including its terminator.
func (li *LineIndex) LineSpan(line int) (Span, error) {
	if li == nil {
		return Span{}, errNilLineIndex
	}
	if err := li.validateLine(line); err != nil {
		return Span{}, err
	}
	start, next, _ := li.lineBounds(line)
	return Span{Start: start, End: next}, nil
}

// LinesSpan returns the span covering every line in r including the last terminator.
func (li *LineIndex) LinesSpan(r LineRange) (Span, error) {
	if err := r.Validate(); err != nil {
		return Span{}, err
	}
	first, err := li.LineSpan(r.Start)
	if err != nil {
		return Span{}, err
	}
	last, err := li.LineSpan(min(r.End, li.LineCount()-1))
	if err != nil {
		return Span{}, err
	}
	return Span{Start: first.Start, End: last.End}, nil
}

// OffsetToUTF16Position converts a byte offset to an LSP-facing UTF-16 position.
func (li *LineIndex) OffsetToUTF16Position(off ByteOffset) (UTF16Position, error) {
	line, err := li.LineOf(off)
	if err != nil {
		return UTF16Position{}, err
	}
	start, next, contentEnd := li.lineBounds(line)
	// Offsets inside a line terminator collapse to the end of the line content.
	if off > contentEnd && off < next {
		off = contentEnd
	}

	char, err := utf16Units(li.src[start:off])
	if err != nil {
		return UTF16Position{}, err
	}
	return UTF16Position{Line: line, Character: char}, nil
}

// UTF16PositionToOffset converts an LSP-facing UTF-16 position to a byte offset.
func (li *LineIndex) UTF16PositionToOffset(pos UTF16Position) (ByteOffset, error) {
	if li == nil {
		return 0, errNilLineIndex
	}
	if err := li.validateLine(pos.Line); err != nil {
		return 0, err
	}
	if pos.Character < 0 {
		return 0, fmt.Errorf("character out of range: %d", pos.Character)
	}

	start, _, contentEnd := li.lineBounds(pos.Line)
	rel, err := byteOffsetForUTF16Units(li.src[start:contentEnd], pos.Character)
	if err != nil {
		return 0, err
	}
	return start + rel, nil
}

func (li *LineIndex) validateOffset(off ByteOffset) error {
	if !off.IsValid() || off > ByteOffset(len(li.src)) {
		return fmt.Errorf("offset out of range: %d (len=%d)", off, len(li.src))
	}
	return nil
}

func (li *LineIndex) validateLine(line int) error {
	if line < 0 || line >= li.LineCount() {
		return fmt.Errorf("line out of range: %d", line)
	}
	return nil
}

func (li *LineIndex) lineForOffset(off ByteOffset) int {
	i, found := slices.BinarySearch(li.lineStarts, off)
	if found {
		return i
	}
	return i - 1
}

func (li *LineIndex) lineBounds(line int) (start, next, contentEnd ByteOffset) {
	start = li.lineStarts[line]
	next = ByteOffset(len(li.src))
	if line+1 < len(li.lineStarts) {
		next = li.lineStarts[line+1]
	}
	contentEnd = next
	if contentEnd > start && li.src[contentEnd-1] == '\n' {
		contentEnd--
		if contentEnd > start && li.src[contentEnd-1] == '\r' {
			contentEnd--
		}
	}
	return start, next, contentEnd
}

func utf16Units(b []byte) (int, error) {
	units := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			return 0, errInvalidUTF8Sequence
		}
		units += utf16Width(r)
		b = b[size:]
	}
	return units, nil
}

func byteOffsetForUTF16Units(line []byte, want int) (ByteOffset, error) {
	units := 0
	i := 0
	for i < len(line) {
		if units == want {
			return ByteOffset(i), nil
		}
		r, size := utf8.DecodeRune(line[i:])
		if r == utf8.RuneError && size == 1 {
			return 0, errInvalidUTF8Sequence
		}
		w := utf16Width(r)
		if want > units && want < units+w {
			return 0, errSplitUTF16SurrogatePair
		}
		units += w
		i += size
	}
	// Positions past the end of the line clamp to the line end.
	return ByteOffset(len(line)), nil
}

func utf16Width(r rune) int {
	if utf16.IsSurrogate(r) || r <= 0xFFFF {
		return 1
	}
	return 2
}
