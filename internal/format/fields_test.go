package format

import (
	"context"
	"strings"
	"testing"

	"github.com/kpumuk/thriftfmt/internal/syntax"
)

func parseIndex(t *testing.T, src string) *structuralIndex {
	t.Helper()

	doc, err := syntax.Parse(context.Background(), []byte(src), syntax.ParseOptions{URI: "test.thrift"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return newStructuralIndex(doc)
}

func TestStructFieldParsersAgree(t *testing.T) {
	t.Parallel()

	lines := []string{
		`1: i32 id`,
		`2: required string name,`,
		`3: optional map<string, i32> scores = {"a": 1} (go.tag = "x"), // c`,
		`-4: list < binary > blobs; # hash`,
		`5: shared.Base base = shared.DEFAULT`,
		`6: bool flag = true (a = "(", b = ")")`,
	}
	idx := parseIndex(t, "struct S {\n"+strings.Join(lines, "\n")+"\n}\n")

	for i, line := range lines {
		f := idx.fields[i+1]
		if f == nil {
			t.Fatalf("no indexed field on line %d (%q)", i+1, line)
		}
		fromAST := buildStructFieldFromAST(line, f)
		fromText, ok := parseStructFieldText(line)
		if !ok {
			t.Fatalf("parseStructFieldText(%q) failed", line)
		}
		if fromAST != fromText {
			t.Fatalf("field parsers disagree for %q\nast:  %+v\ntext: %+v", line, fromAST, fromText)
		}
	}
}

func TestParseStructFieldText(t *testing.T) {
	t.Parallel()

	got, ok := parseStructFieldText(`3: optional map < string , i32 > scores = {"a": 1} (go.tag = "x"), // c`)
	if !ok {
		t.Fatal("parseStructFieldText failed")
	}
	want := structField{
		raw:        `3: optional map < string , i32 > scores = {"a": 1} (go.tag = "x"), // c`,
		id:         "3",
		qualifier:  "optional",
		typ:        "map<string,i32>",
		name:       "scores",
		def:        `{"a": 1}`,
		terminator: ",",
		annotation: `(go.tag = "x")`,
		comment:    "// c",
	}
	if got != want {
		t.Fatalf("parseStructFieldText = %+v, want %+v", got, want)
	}

	for _, bad := range []string{"1: i32", "x: i32 id", "1: i32 3bad", "struct S {"} {
		if _, ok := parseStructFieldText(bad); ok {
			t.Fatalf("parseStructFieldText(%q) = ok, want failure", bad)
		}
	}
}

func TestEnumFieldParsersAgree(t *testing.T) {
	t.Parallel()

	lines := []string{
		`A = 1,`,
		`B=0x1F; // hex`,
		`C = -3 (deprecated = "yes")`,
		`D`,
	}
	idx := parseIndex(t, "enum E {\n"+strings.Join(lines, "\n")+"\n}\n")

	for i, line := range lines {
		m := idx.members[i+1]
		if m == nil {
			t.Fatalf("no indexed member on line %d (%q)", i+1, line)
		}
		fromAST := buildEnumFieldFromAST(line, m)
		fromText, ok := parseEnumFieldText(line)
		if !ok {
			t.Fatalf("parseEnumFieldText(%q) failed", line)
		}
		if fromAST != fromText {
			t.Fatalf("member parsers disagree for %q\nast:  %+v\ntext: %+v", line, fromAST, fromText)
		}
	}
}

func TestFieldLineDetection(t *testing.T) {
	t.Parallel()

	structTests := []struct {
		line string
		want bool
	}{
		{"1: i32 id", true},
		{"-1 : string s", true},
		{"10:", true},
		{"/* 1: i32 id */", false},
		{"1: i32 id /* x */", false},
		{"i32 id", false},
		{"}", false},
	}
	for _, tt := range structTests {
		if got := isStructFieldText(tt.line); got != tt.want {
			t.Fatalf("isStructFieldText(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}

	enumTests := []struct {
		line string
		want bool
	}{
		{"A = 1", true},
		{"A=0x10,", true},
		{"A = -2; // note", true},
		{`A = 1 (x = "y")`, true},
		{"A", false},
		{"A = B", false},
		{"/* A = 1 */", false},
		{"1: i32 id", false},
	}
	for _, tt := range enumTests {
		if got := isEnumFieldText(tt.line); got != tt.want {
			t.Fatalf("isEnumFieldText(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestParseConstField(t *testing.T) {
	t.Parallel()

	got, ok := parseConstFieldText(`const map < string , i32 >  LIMITS = {"a": 1}; // limits`)
	if !ok {
		t.Fatal("parseConstFieldText failed")
	}
	if got.typ != "map<string,i32>" || got.name != "LIMITS" || got.value != `{"a": 1}` || got.terminator != ";" || got.comment != "// limits" {
		t.Fatalf("parseConstFieldText = %+v", got)
	}
	if got.multiline() {
		t.Fatal("single-line const reported multiline")
	}

	lines := []string{
		"const list<i32> PRIMES = [ // first",
		"  2,",
		"    3",
		"]",
	}
	ml, ok := parseConstField(lines, 0, 3)
	if !ok {
		t.Fatal("parseConstField failed")
	}
	if ml.value != "[\n2,\n3\n]" {
		t.Fatalf("multi-line value = %q", ml.value)
	}
	if ml.comment != "// first" || !ml.multiline() {
		t.Fatalf("multi-line const = %+v", ml)
	}

	for _, bad := range []string{"const i32 X =", "const X = 1", "constant i32 X = 1"} {
		if _, ok := parseConstFieldText(bad); ok {
			t.Fatalf("parseConstFieldText(%q) = ok, want failure", bad)
		}
	}
}
