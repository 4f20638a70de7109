package text

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
)

// ByteEdit replaces the bytes in Span with NewText.
type ByteEdit struct {
	Span    Span
	NewText []byte
}

// ApplyEdits applies non-overlapping byte edits and returns the updated buffer.
// Edits may be provided in any order; touching spans are allowed.
func ApplyEdits(src []byte, edits []ByteEdit) ([]byte, error) {
	if len(edits) == 0 {
		return slices.Clone(src), nil
	}

	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b ByteEdit) int {
		if c := cmp.Compare(a.Span.Start, b.Span.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Span.End, b.Span.End)
	})

	srcLen := ByteOffset(len(src))
	for i, e := range sorted {
		if err := e.Span.Validate(); err != nil {
			return nil, fmt.Errorf("invalid edit span %s: %w", e.Span, err)
		}
		if e.Span.End > srcLen {
			return nil, fmt.Errorf("edit span %s exceeds source length %d", e.Span, srcLen)
		}
		if i > 0 && e.Span.Start < sorted[i-1].Span.End {
			return nil, fmt.Errorf("overlapping edits: %s and %s", sorted[i-1].Span, e.Span)
		}
	}

	var out bytes.Buffer
	cursor := ByteOffset(0)
	for _, e := range sorted {
		out.Write(src[cursor:e.Span.Start])
		out.Write(e.NewText)
		cursor = e.Span.End
	}
	out.Write(src[cursor:])
	return out.Bytes(), nil
}

// MinimalEdit returns the single edit that turns before into after by trimming
// their common prefix and suffix. ok is false when the buffers are equal.
//
// The edit never splits a UTF-8 sequence: prefix and suffix boundaries are
// moved back to the nearest rune start.
func MinimalEdit(before, after []byte) (edit ByteEdit, ok bool) {
	if bytes.Equal(before, after) {
		return ByteEdit{}, false
	}

	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	for prefix > 0 && prefix < len(before) && isContinuationByte(before[prefix]) {
		prefix--
	}

	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	for suffix > 0 && isContinuationByte(before[len(before)-suffix]) {
		suffix--
	}

	return ByteEdit{
		Span:    Span{Start: ByteOffset(prefix), End: ByteOffset(len(before) - suffix)},
		NewText: slices.Clone(after[prefix : len(after)-suffix]),
	}, true
}

func isContinuationByte(b byte) bool {
	return b&0xC0 == 0x80
}
