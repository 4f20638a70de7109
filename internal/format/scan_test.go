package format

import (
	"reflect"
	"testing"
)

func TestSplitLineComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, code, comment string
	}{
		{in: "1: i32 id // note", code: "1: i32 id ", comment: "// note"},
		{in: "1: i32 id # note", code: "1: i32 id ", comment: "# note"},
		{in: `1: string s = "a // b"`, code: `1: string s = "a // b"`},
		{in: `1: string s = 'x # y' // z`, code: `1: string s = 'x # y' `, comment: "// z"},
		{in: `const string Q = "say \"hi\" // there" # real`, code: `const string Q = "say \"hi\" // there" `, comment: "# real"},
		{in: "// only", comment: "// only"},
		{in: "a / b", code: "a / b"},
	}
	for _, tt := range tests {
		code, comment := splitLineComment(tt.in)
		if code != tt.code || comment != tt.comment {
			t.Fatalf("splitLineComment(%q) = (%q, %q), want (%q, %q)", tt.in, code, comment, tt.code, tt.comment)
		}
	}
}

func TestSplitTrailingAnnotation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, base, annotation string
	}{
		{in: `1: string name (go.tag = "x")`, base: "1: string name", annotation: `(go.tag = "x")`},
		{in: `RED = 1 (a = "(")`, base: "RED = 1", annotation: `(a = "(")`},
		{in: "x (a = (b))", base: "x", annotation: "(a = (b))"},
		{in: "(a = 1)", base: "(a = 1)"},
		{in: "x (a = 1", base: "x (a = 1"},
		{in: "x (a) y", base: "x (a) y"},
		{in: "void ping()", base: "void ping", annotation: "()"},
		{in: "plain", base: "plain"},
	}
	for _, tt := range tests {
		base, annotation := splitTrailingAnnotation(tt.in)
		if base != tt.base || annotation != tt.annotation {
			t.Fatalf("splitTrailingAnnotation(%q) = (%q, %q), want (%q, %q)", tt.in, base, annotation, tt.base, tt.annotation)
		}
	}
}

func TestSplitTerminator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, rest, terminator string
	}{
		{in: "1: i32 id,", rest: "1: i32 id", terminator: ","},
		{in: "1: i32 id ; ", rest: "1: i32 id", terminator: ";"},
		{in: "1: i32 id", rest: "1: i32 id"},
		{in: ",", terminator: ","},
	}
	for _, tt := range tests {
		rest, terminator := splitTerminator(tt.in)
		if rest != tt.rest || terminator != tt.terminator {
			t.Fatalf("splitTerminator(%q) = (%q, %q), want (%q, %q)", tt.in, rest, terminator, tt.rest, tt.terminator)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{in: "map < string , list < i32 > >", want: "map<string,list<i32>>"},
		{in: "list<string>", want: "list<string>"},
		{in: "  i64 ", want: "i64"},
		{in: "set < binary >", want: "set<binary>"},
		{in: "map<i32 ,string>", want: "map<i32,string>"},
		{in: "map<string, i32>", want: "map<string,i32>"},
		{in: "list < string >", want: "list<string>"},
	}
	for _, tt := range tests {
		if got := normalizeType(tt.in); got != tt.want {
			t.Fatalf("normalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := normalizeType(tt.want); got != tt.want {
			t.Fatalf("normalizeType(%q) is not stable: %q", tt.want, got)
		}
	}
}

func TestSplitTopLevelPartsWithSeparators(t *testing.T) {
	t.Parallel()

	got := splitTopLevelPartsWithSeparators(`1: map<string,i32> m; 2: string s = "a,b", 3: list<i32> l = [1, 2] (x = "y;z");`)
	want := []part{
		{text: "1: map<string,i32> m", separator: ";"},
		{text: `2: string s = "a,b"`, separator: ","},
		{text: `3: list<i32> l = [1, 2] (x = "y;z")`, separator: ";"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parts = %#v, want %#v", got, want)
	}

	if got := splitTopLevelParts(" ; ,, "); len(got) != 0 {
		t.Fatalf("splitTopLevelParts(empty parts) = %q, want none", got)
	}
	if got := splitTopLevelParts("a>,b"); !reflect.DeepEqual(got, []string{"a>", "b"}) {
		t.Fatalf("splitTopLevelParts(unbalanced) = %q", got)
	}
}

func TestNormalizeGenericsInSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{
			in:   "map < string , i32 > lookup(1: list < string > keys) // find",
			want: "map<string,i32> lookup(1: list<string> keys) // find",
		},
		{in: "void ping()", want: "void ping()"},
		{in: "list<string >  names( )", want: "list<string>  names( )"},
		{in: `string echo(1: string s = "a < b")`, want: `string echo(1: string s = "a < b")`},
		{in: "set<i32> ,", want: "set<i32>,"},
	}
	for _, tt := range tests {
		if got := normalizeGenericsInSignature(tt.in); got != tt.want {
			t.Fatalf("normalizeGenericsInSignature(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDelimiterHelpers(t *testing.T) {
	t.Parallel()

	if got := bracketDelta(`{"a": [1, "]"`); got != 2 {
		t.Fatalf("bracketDelta = %d, want 2", got)
	}
	if got := parenDelta(`) throws (1: E e`); got != 0 {
		t.Fatalf("parenDelta = %d, want 0", got)
	}
	if open, closing := braceIndexes(`struct S { 1: string s = "}" }`); open != 9 || closing != 29 {
		t.Fatalf("braceIndexes = (%d, %d), want (9, 29)", open, closing)
	}
	if got := collapseSpaces("  struct \t S   extends  \"a  b\" "); got != `struct S extends "a  b"` {
		t.Fatalf("collapseSpaces = %q", got)
	}
}
