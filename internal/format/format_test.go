package format

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kpumuk/thriftfmt/internal/syntax"
	"github.com/kpumuk/thriftfmt/internal/text"
)

func TestFormatBasicStruct(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.AlignTypes = true
	opts.AlignFieldNames = true
	opts.TrailingComma = TrailingCommaAdd

	got := Format("struct User{1:i32 id;2:string name;}", opts)
	want := "struct User {\n    1: i32    id,\n    2: string name,\n}"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatEnumDefaultAlignment(t *testing.T) {
	t.Parallel()

	got := Format("enum Status{ACTIVE=1;INACTIVE=2;PENDING=3}", DefaultOptions())
	want := "enum Status {\n    ACTIVE   = 1,\n    INACTIVE = 2,\n    PENDING  = 3,\n}"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatInlineServiceExpansion(t *testing.T) {
	t.Parallel()

	got := Format("service UserService{User getUser(1:i32 id);void createUser(1:User user);}", DefaultOptions())
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("Format produced %d lines, want 4:\n%s", len(lines), got)
	}
	want := []string{
		"service UserService {",
		"    User getUser(1:i32 id);",
		"    void createUser(1:User user);",
		"}",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatRangeResumesInsideOpenStruct(t *testing.T) {
	t.Parallel()

	content := "struct User {\n1: i32 id\n2: string name\n}"
	r := text.LineRange{Start: 1, End: 2}

	opts := DefaultOptions()
	withoutContext := FormatRange(content, r, opts)

	opts.InitialContext = &Context{IndentLevel: 1, InStruct: true}
	withContext := FormatRange(content, r, opts)

	if want := "1: i32 id\n2: string name"; withoutContext != want {
		t.Fatalf("FormatRange without context = %q, want %q", withoutContext, want)
	}
	if want := "    1: i32    id\n    2: string name"; withContext != want {
		t.Fatalf("FormatRange with context = %q, want %q", withContext, want)
	}
}

func TestFormatRangeResumesInsideService(t *testing.T) {
	t.Parallel()

	content := "service S {\nvoid ping(\n1: i32 id\n)\n}"
	opts := DefaultOptions()
	opts.InitialContext = &Context{InService: true}

	got := FormatRange(content, text.LineRange{Start: 1, End: 4}, opts)
	want := "    void ping(\n        1: i32 id\n    )\n}"
	if got != want {
		t.Fatalf("FormatRange = %q, want %q", got, want)
	}
}

func TestFormatHandlesImplicitBlockEndAndStrayClosers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{
			name: "new block closes open block",
			in:   "struct A {\n1: i32 a\nstruct B {\n1: i32 b\n}",
			want: "struct A {\n    1: i32 a\nstruct B {\n    1: i32 b\n}",
		},
		{
			name: "stray closers",
			in:   "}\n  }\n",
			want: "}\n}\n",
		},
		{
			name: "comment inside struct",
			in:   "struct A {\n// first\n1: i32 a // trailing\n}",
			want: "struct A {\n    // first\n    1: i32 a // trailing\n}",
		},
		{
			name: "empty inline body",
			in:   "struct Empty{ } // nothing",
			want: "struct Empty {} // nothing",
		},
		{
			name: "closer with annotation",
			in:   "enum E{A=1} (x = \"y\")",
			want: "enum E {\n    A = 1,\n} (x = \"y\")",
		},
		{
			name: "tabs",
			in:   "struct T{1:i32 a}",
			want: "struct T {\n\t1: i32 a,\n}",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultOptions()
			if tt.name == "tabs" {
				opts.InsertSpaces = false
			}
			if got := Format(tt.in, opts); got != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatKeepsUnparsableMemberText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{
			name: "extra token after name",
			in:   "struct S {\n1: string name extra,\n}",
			want: "struct S {\n    1: string name extra,\n}",
		},
		{
			name: "expression default",
			in:   "struct S {\n1: i32 a = 1 + 2,\n}",
			want: "struct S {\n    1: i32 a = 1 + 2,\n}",
		},
		{
			name: "enum value followed by junk",
			in:   "enum E {\nA = 1 garbage,\n}",
			want: "enum E {\n    A = 1 garbage,\n}",
		},
		{
			name: "unknown character after name",
			in:   "struct S {\n1: string name @x,\n}",
			want: "struct S {\n    1: string name @x,\n}",
		},
		{
			name: "unknown character in name",
			in:   "struct S {\n1: string $name,\n}",
			want: "struct S {\n    1: string $name,\n}",
		},
		{
			name: "non-ASCII name",
			in:   "struct S {\n1: string \u00f1ame,\n}",
			want: "struct S {\n    1: string \u00f1ame,\n}",
		},
		{
			name: "malformed line between fields",
			in:   "struct S {\n1: i32 id,\n2: string name extra,\n3: bool ok,\n}",
			want: "struct S {\n    1: i32         id,\n    2: string name extra,\n    3: bool        ok,\n}",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Format(tt.in, DefaultOptions()); got != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatIndentsMultilineFieldAnnotation(t *testing.T) {
	t.Parallel()

	in := "struct S {\n4: string s (\ngo.tag = \"x\"\n)\n}"
	want := "struct S {\n    4: string s (\n        go.tag = \"x\"\n    )\n}"
	if got := Format(in, DefaultOptions()); got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

type capturedError struct {
	mu   sync.Mutex
	errs []error
	ctxs []ErrorContext
}

func (c *capturedError) handle(err error, ctx ErrorContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	c.ctxs = append(c.ctxs, ctx)
}

func TestFormatReturnsInputWhenParserFails(t *testing.T) {
	t.Parallel()

	parseErr := errors.New("boom")
	var captured capturedError
	f := New(
		WithParser(ParserFunc(func(context.Context, []byte) (*syntax.Document, error) {
			return nil, parseErr
		})),
		WithErrorHandler(captured.handle),
	)

	content := "struct  S{1:i32 a}"
	if got := f.Format(content, DefaultOptions()); got != content {
		t.Fatalf("Format = %q, want input unchanged", got)
	}
	if len(captured.errs) != 1 {
		t.Fatalf("handler called %d times, want 1", len(captured.errs))
	}
	if !errors.Is(captured.errs[0], parseErr) {
		t.Fatalf("handler error = %v, want wrapped %v", captured.errs[0], parseErr)
	}
	var unsafe *ErrUnsafeToFormat
	if !AsUnsafeToFormat(captured.errs[0], &unsafe) || unsafe.Reason != UnsafeReasonParseFailed {
		t.Fatalf("handler error = %v, want %s refusal", captured.errs[0], UnsafeReasonParseFailed)
	}
	want := ErrorContext{Component: "formatter", Operation: "format", ContentLength: len(content)}
	if captured.ctxs[0] != want {
		t.Fatalf("error context = %+v, want %+v", captured.ctxs[0], want)
	}
}

func TestFormatRecoversFromParserPanic(t *testing.T) {
	t.Parallel()

	var captured capturedError
	f := New(
		WithParser(ParserFunc(func(context.Context, []byte) (*syntax.Document, error) {
			panic("parser exploded")
		})),
		WithErrorHandler(captured.handle),
	)

	content := "struct S {\n1: i32 a\n}"
	if got := f.Format(content, DefaultOptions()); got != content {
		t.Fatalf("Format = %q, want input unchanged", got)
	}
	if got := f.FormatRange(content, text.LineRange{Start: 1, End: 2}, DefaultOptions()); got != "1: i32 a\n}" {
		t.Fatalf("FormatRange = %q, want original range", got)
	}
	if len(captured.errs) != 2 {
		t.Fatalf("handler called %d times, want 2", len(captured.errs))
	}
	for _, err := range captured.errs {
		var unsafe *ErrUnsafeToFormat
		if !AsUnsafeToFormat(err, &unsafe) || unsafe.Reason != UnsafeReasonInternalPanic {
			t.Fatalf("handler error = %v, want %s refusal", err, UnsafeReasonInternalPanic)
		}
	}
	if captured.ctxs[1].Operation != "formatRange" {
		t.Fatalf("second operation = %q, want formatRange", captured.ctxs[1].Operation)
	}
}

func TestFormatReturnsInputForInvalidUTF8AndOptions(t *testing.T) {
	t.Parallel()

	var captured capturedError
	f := New(WithErrorHandler(captured.handle))

	invalid := "struct S {\xff}"
	if got := f.Format(invalid, DefaultOptions()); got != invalid {
		t.Fatalf("Format(invalid UTF-8) = %q, want input unchanged", got)
	}
	opts := DefaultOptions()
	opts.IndentSize = -1
	if got := f.Format("struct S{}", opts); got != "struct S{}" {
		t.Fatalf("Format(bad options) = %q, want input unchanged", got)
	}
	if got := f.FormatRange("a\nb", text.LineRange{Start: 1, End: 5}, DefaultOptions()); got != "b" {
		t.Fatalf("FormatRange(out of bounds) = %q, want %q", got, "b")
	}

	if len(captured.errs) != 3 {
		t.Fatalf("handler called %d times, want 3", len(captured.errs))
	}
	var unsafe *ErrUnsafeToFormat
	if !AsUnsafeToFormat(captured.errs[0], &unsafe) || unsafe.Reason != UnsafeReasonInvalidUTF8 {
		t.Fatalf("first error = %v, want %s refusal", captured.errs[0], UnsafeReasonInvalidUTF8)
	}
	if IsErrUnsafeToFormat(captured.errs[1]) {
		t.Fatalf("options error %v must not be a safety refusal", captured.errs[1])
	}
}

func TestFormatterIsSafeForConcurrentUse(t *testing.T) {
	t.Parallel()

	f := New()
	inputs := []string{
		"struct A{1:i32 a;2:string b}",
		"enum B{X=1,Y=2}",
		"const list<i32> C = [1, 2]",
	}
	want := make([]string, len(inputs))
	for i, in := range inputs {
		want[i] = f.Format(in, DefaultOptions())
	}

	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			i := n % len(inputs)
			if got := f.Format(inputs[i], DefaultOptions()); got != want[i] {
				t.Errorf("concurrent Format(%q) = %q, want %q", inputs[i], got, want[i])
			}
		}()
	}
	wg.Wait()
}

func TestValidateOptions(t *testing.T) {
	t.Parallel()

	valid := DefaultOptions()
	valid.TrailingComma = "ADD"
	valid.CollectionStyle = "Auto"
	if err := ValidateOptions(valid); err != nil {
		t.Fatalf("ValidateOptions(case-insensitive) = %v", err)
	}
	if err := ValidateOptions(Options{}); err != nil {
		t.Fatalf("ValidateOptions(zero) = %v", err)
	}

	for name, opts := range map[string]Options{
		"trailing comma":   {TrailingComma: "sometimes"},
		"collection style": {CollectionStyle: "compact"},
		"indent size":      {IndentSize: -2},
		"tab size":         {TabSize: -1},
		"max line length":  {MaxLineLength: -80},
		"initial context":  {InitialContext: &Context{IndentLevel: -1}},
	} {
		if err := ValidateOptions(opts); err == nil {
			t.Fatalf("ValidateOptions(%s) = nil, want error", name)
		}
	}
}

func TestSourcePreservesBOMAndCRLF(t *testing.T) {
	t.Parallel()

	src := []byte("\xEF\xBB\xBFstruct S{1:i32 a}\r\n")
	res, err := Source(context.Background(), src, DefaultOptions())
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	want := "\xEF\xBB\xBFstruct S {\r\n    1: i32 a,\r\n}\r\n"
	if string(res.Output) != want {
		t.Fatalf("Source output = %q, want %q", res.Output, want)
	}
	if !res.Changed {
		t.Fatal("Changed = false, want true")
	}

	again, err := Source(context.Background(), res.Output, DefaultOptions())
	if err != nil {
		t.Fatalf("Source(idempotence): %v", err)
	}
	if again.Changed {
		t.Fatalf("second pass changed output to %q", again.Output)
	}
}

func TestSourceReportsMixedNewlines(t *testing.T) {
	t.Parallel()

	res, err := Source(context.Background(), []byte("a\r\nb\r\nc\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if string(res.Output) != "a\r\nb\r\nc\r\n" {
		t.Fatalf("Source output = %q", res.Output)
	}
	if !hasDiagnostic(res.Diagnostics, DiagnosticFormatterMixedNewlines) {
		t.Fatalf("diagnostics = %v, want %s", res.Diagnostics, DiagnosticFormatterMixedNewlines)
	}
}

func TestSourceRefusesInvalidUTF8(t *testing.T) {
	t.Parallel()

	res, err := Source(context.Background(), []byte{'a', 0xff, '\n'}, DefaultOptions())
	if !IsErrUnsafeToFormat(err) {
		t.Fatalf("Source error = %v, want unsafe refusal", err)
	}
	if !hasDiagnostic(res.Diagnostics, DiagnosticFormatterInvalidUTF8) {
		t.Fatalf("diagnostics = %v, want %s", res.Diagnostics, DiagnosticFormatterInvalidUTF8)
	}
}

func TestSourceFormatsIncompleteInputWithDiagnostics(t *testing.T) {
	t.Parallel()

	res, err := Source(context.Background(), []byte("struct X {\n1: i32 a\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if string(res.Output) != "struct X {\n    1: i32 a\n" {
		t.Fatalf("Source output = %q", res.Output)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected parser diagnostics for incomplete input")
	}
}

func TestSourceHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Source(ctx, []byte("struct S{}"), DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Source error = %v, want context.Canceled", err)
	}
	if _, err := Range(ctx, []byte("struct S{}"), text.LineRange{}, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Range error = %v, want context.Canceled", err)
	}
}

func TestRangeDerivesContextAndReturnsMinimalEdit(t *testing.T) {
	t.Parallel()

	src := []byte("struct S {\n1: i32 id\n2: string name\n}\n")
	res, err := Range(context.Background(), src, text.LineRange{Start: 1, End: 2}, DefaultOptions())
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if res.Output != "    1: i32    id\n    2: string name" {
		t.Fatalf("Range output = %q", res.Output)
	}
	if len(res.Edits) != 1 {
		t.Fatalf("Range edits = %d, want 1", len(res.Edits))
	}
	out, err := text.ApplyEdits(src, res.Edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if want := "struct S {\n    1: i32    id\n    2: string name\n}\n"; string(out) != want {
		t.Fatalf("edited source = %q, want %q", out, want)
	}

	again, err := Range(context.Background(), out, text.LineRange{Start: 1, End: 2}, DefaultOptions())
	if err != nil {
		t.Fatalf("Range(formatted): %v", err)
	}
	if len(again.Edits) != 0 {
		t.Fatalf("Range on formatted source returned %d edits, want 0", len(again.Edits))
	}
}

func TestRangeKeepsBOMAndCRLFOffsets(t *testing.T) {
	t.Parallel()

	src := []byte("\xEF\xBB\xBFenum E {\r\nA=1\r\n}\r\n")
	res, err := Range(context.Background(), src, text.LineRange{Start: 1, End: 1}, DefaultOptions())
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	out, err := text.ApplyEdits(src, res.Edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if want := "\xEF\xBB\xBFenum E {\r\n    A = 1\r\n}\r\n"; string(out) != want {
		t.Fatalf("edited source = %q, want %q", out, want)
	}
}

func TestRangeRejectsOutOfBoundsLines(t *testing.T) {
	t.Parallel()

	if _, err := Range(context.Background(), []byte("a\nb"), text.LineRange{Start: 1, End: 2}, DefaultOptions()); err == nil {
		t.Fatal("Range(out of bounds) succeeded, want error")
	}
}

func TestContextAt(t *testing.T) {
	t.Parallel()

	content := "service S {\n  void ping()\n}\nenum E {\n  A = 1\n}\n  struct T {\n"
	tests := []struct {
		line int
		want Context
	}{
		{line: 0, want: Context{}},
		{line: 1, want: Context{InService: true}},
		{line: 3, want: Context{}},
		{line: 4, want: Context{IndentLevel: 1, InEnum: true}},
		{line: 6, want: Context{}},
		{line: 7, want: Context{IndentLevel: 1, InStruct: true}},
		{line: 100, want: Context{IndentLevel: 1, InStruct: true}},
	}
	for _, tt := range tests {
		if got := ContextAt(content, tt.line); *got != tt.want {
			t.Fatalf("ContextAt(%d) = %+v, want %+v", tt.line, *got, tt.want)
		}
	}
}

func hasDiagnostic(diags []syntax.Diagnostic, code syntax.DiagnosticCode) bool {
	for _, d := range diags {
		if d.Code == string(code) {
			return true
		}
	}
	return false
}
