package lexer

import (
	"testing"

	"github.com/kpumuk/thriftfmt/internal/testutil"
)

func FuzzLex(f *testing.F) {
	addCommonSeeds(f)

	f.Fuzz(func(t *testing.T, src []byte) {
		if len(src) > 512*1024 {
			t.Skip()
		}

		res := Lex(src)
		if len(res.Tokens) == 0 {
			t.Fatal("lexer returned no tokens")
		}
		if last := res.Tokens[len(res.Tokens)-1]; last.Kind != EOF {
			t.Fatalf("last token kind = %v, want EOF", last.Kind)
		}

		prevEnd, prevLine := -1, 0
		for i, tok := range res.Tokens {
			if err := tok.Span.Validate(); err != nil {
				t.Fatalf("token[%d] invalid span %s: %v", i, tok.Span, err)
			}
			if int(tok.Span.End) > len(src) {
				t.Fatalf("token[%d] span %s out of bounds (len=%d)", i, tok.Span, len(src))
			}
			if prevEnd > int(tok.Span.Start) {
				t.Fatalf("token spans out of order: prevEnd=%d curStart=%d", prevEnd, tok.Span.Start)
			}
			if tok.Line < prevLine {
				t.Fatalf("token[%d] line %d before previous line %d", i, tok.Line, prevLine)
			}
			prevEnd, prevLine = int(tok.Span.End), tok.Line
		}
	})
}

func addCommonSeeds(f *testing.F) {
	f.Helper()

	for _, s := range [][]byte{
		nil,
		[]byte("struct S {\n  1: string a\n}\n"),
		[]byte("service Demo { void ping(1: i32 id) }\n"),
		[]byte("const string X = 'unterminated\n"),
		[]byte("/* unterminated block comment"),
		{0xff, 0xfe, 0xfd},
		[]byte("const map<string,list<i32>> M = {'a': [1, 2]}\n"),
	} {
		f.Add(s)
	}

	if cases, err := testutil.FormatGoldenCases(); err == nil {
		for _, c := range cases {
			f.Add(testutil.ReadFile(f, c.InputPath))
		}
	}
}
