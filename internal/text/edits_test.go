package text

import (
	"bytes"
	"testing"
)

func TestApplyEditsNonOverlappingAndUnsorted(t *testing.T) {
	t.Parallel()

	src := []byte("abcdef")
	edits := []ByteEdit{
		{Span: Span{Start: 4, End: 6}, NewText: []byte("XY")},
		{Span: Span{Start: 0, End: 0}, NewText: []byte("<")},
		{Span: Span{Start: 1, End: 3}, NewText: []byte("12")},
	}

	got, err := ApplyEdits(src, edits)
	if err != nil {
		t.Fatalf("ApplyEdits error = %v", err)
	}
	if string(got) != "<a12dXY" {
		t.Fatalf("ApplyEdits() = %q, want %q", got, "<a12dXY")
	}
}

func TestApplyEditsNoEditsReturnsCopy(t *testing.T) {
	t.Parallel()

	src := []byte("abc")
	got, err := ApplyEdits(src, nil)
	if err != nil {
		t.Fatalf("ApplyEdits error = %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("ApplyEdits() = %q, want %q", got, src)
	}
	if &got[0] == &src[0] {
		t.Fatal("ApplyEdits() should return a copy when no edits are provided")
	}
}

func TestApplyEditsErrors(t *testing.T) {
	t.Parallel()

	src := []byte("abcde")
	tests := map[string][]ByteEdit{
		"out of bounds": {{Span: Span{Start: 4, End: 6}}},
		"invalid span":  {{Span: Span{Start: 3, End: 2}}},
		"overlapping":   {{Span: Span{Start: 1, End: 3}}, {Span: Span{Start: 2, End: 4}}},
	}
	for name, edits := range tests {
		edits := edits
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ApplyEdits(src, edits); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMinimalEdit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		before, after string
		wantSpan      Span
		wantText      string
	}{
		"replace middle":  {before: "struct A{1:i32 a}", after: "struct A{1: i32 a}", wantSpan: Span{Start: 11, End: 11}, wantText: " "},
		"append":          {before: "abc", after: "abcdef", wantSpan: Span{Start: 3, End: 3}, wantText: "def"},
		"delete prefix":   {before: "  x", after: "x", wantSpan: Span{Start: 0, End: 2}, wantText: ""},
		"repeated suffix": {before: "aa", after: "aaa", wantSpan: Span{Start: 2, End: 2}, wantText: "a"},
		"multibyte":       {before: "é", after: "è", wantSpan: Span{Start: 0, End: 2}, wantText: "è"},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			edit, ok := MinimalEdit([]byte(tc.before), []byte(tc.after))
			if !ok {
				t.Fatal("MinimalEdit() ok = false, want true")
			}
			if edit.Span != tc.wantSpan || string(edit.NewText) != tc.wantText {
				t.Fatalf("MinimalEdit() = %s %q, want %s %q", edit.Span, edit.NewText, tc.wantSpan, tc.wantText)
			}
			got, err := ApplyEdits([]byte(tc.before), []ByteEdit{edit})
			if err != nil {
				t.Fatalf("ApplyEdits error = %v", err)
			}
			if string(got) != tc.after {
				t.Fatalf("round trip = %q, want %q", got, tc.after)
			}
		})
	}

	if _, ok := MinimalEdit([]byte("same"), []byte("same")); ok {
		t.Fatal("MinimalEdit() ok = true for equal buffers")
	}
}
