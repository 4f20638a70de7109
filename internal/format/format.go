package format

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kpumuk/thriftfmt/internal/logging"
	"github.com/kpumuk/thriftfmt/internal/syntax"
	"github.com/kpumuk/thriftfmt/internal/text"
)

const (
	componentFormatter = "formatter"

	operationFormat      = "format"
	operationFormatRange = "formatRange"
)

// Parser turns source into the declaration document the formatter indexes.
type Parser interface {
	Parse(ctx context.Context, src []byte) (*syntax.Document, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, src []byte) (*syntax.Document, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, src []byte) (*syntax.Document, error) {
	return f(ctx, src)
}

// DefaultParser parses with the built-in Thrift parser.
var DefaultParser Parser = ParserFunc(func(ctx context.Context, src []byte) (*syntax.Document, error) {
	return syntax.Parse(ctx, src, syntax.ParseOptions{})
})

// Formatter formats Thrift source. It holds no per-call state and is safe for
// concurrent use.
type Formatter struct {
	parser  Parser
	onError ErrorHandler
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithParser replaces the parser collaborator.
func WithParser(p Parser) FormatterOption {
	return func(f *Formatter) {
		if p != nil {
			f.parser = p
		}
	}
}

// WithErrorHandler replaces the handler that receives masked failures.
func WithErrorHandler(h ErrorHandler) FormatterOption {
	return func(f *Formatter) {
		if h != nil {
			f.onError = h
		}
	}
}

// New returns a Formatter using the built-in parser and a handler that logs
// failures to the default logger.
func New(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		parser:  DefaultParser,
		onError: logError,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func logError(err error, ctx ErrorContext) {
	logging.Default().Error("formatting failed; returning input unchanged",
		logging.FieldError, err,
		logging.FieldComponent, ctx.Component,
		logging.FieldOperation, ctx.Operation,
		logging.FieldContentLength, ctx.ContentLength,
	)
}

var defaultFormatter = New()

// Format formats content with the default formatter.
func Format(content string, opts Options) string {
	return defaultFormatter.Format(content, opts)
}

// FormatRange formats lines r of content with the default formatter.
func FormatRange(content string, r text.LineRange, opts Options) string {
	return defaultFormatter.FormatRange(content, r, opts)
}

// Source formats source bytes with the default formatter.
func Source(ctx context.Context, src []byte, opts Options) (Result, error) {
	return defaultFormatter.Source(ctx, src, opts)
}

// Range formats lines r of src with the default formatter.
func Range(ctx context.Context, src []byte, r text.LineRange, opts Options) (RangeResult, error) {
	return defaultFormatter.Range(ctx, src, r, opts)
}

// ContextAt returns the block state in effect at the start of line.
func ContextAt(content string, line int) *Context {
	return contextAt(splitLines(content), line)
}

// Format returns the formatted content. It never fails: on any error the
// input is returned unchanged and the error is passed to the error handler.
func (f *Formatter) Format(content string, opts Options) string {
	out, err := f.format(context.Background(), content, opts)
	if err != nil {
		f.report(err, operationFormat, len(content))
		return content
	}
	return out
}

// FormatRange returns the formatted text of lines r (0-based, inclusive)
// joined by "\n". opts.InitialContext describes the block state at r.Start.
// On failure the original text of the range is returned.
func (f *Formatter) FormatRange(content string, r text.LineRange, opts Options) string {
	out, err := f.formatRange(context.Background(), content, r, opts)
	if err != nil {
		f.report(err, operationFormatRange, len(content))
		return originalRange(content, r)
	}
	return out
}

// Source formats a whole document preserving its BOM and dominant newline
// style. Unlike Format it reports failures to the caller.
func (f *Formatter) Source(ctx context.Context, src []byte, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	policy, diags := analyzeSourcePolicy(src)
	if !policy.ValidUTF8 {
		return Result{Diagnostics: diags}, unsafeFormattingErr(UnsafeReasonInvalidUTF8, "input contains invalid UTF-8 bytes")
	}

	body := string(bytes.TrimPrefix(src, []byte(utf8BOM)))
	doc, out, err := f.formatDocument(ctx, body, opts)
	if doc != nil {
		diags = append(append([]syntax.Diagnostic(nil), doc.Diagnostics...), diags...)
	}
	if err != nil {
		return Result{Diagnostics: diags}, err
	}
	formatted := policy.apply(out)
	return Result{
		Output:      formatted,
		Changed:     !bytes.Equal(formatted, src),
		Diagnostics: diags,
	}, nil
}

// Range formats lines r of src and returns the minimal edit that applies the
// result. When opts.InitialContext is nil the context is derived from the
// lines preceding the range.
func (f *Formatter) Range(ctx context.Context, src []byte, r text.LineRange, opts Options) (RangeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return RangeResult{}, err
	}
	policy, diags := analyzeSourcePolicy(src)
	if !policy.ValidUTF8 {
		return RangeResult{Diagnostics: diags}, unsafeFormattingErr(UnsafeReasonInvalidUTF8, "input contains invalid UTF-8 bytes")
	}

	body := bytes.TrimPrefix(src, []byte(utf8BOM))
	bomLen := text.ByteOffset(len(src) - len(body))
	content := string(body)
	lines := splitLines(content)
	if err := validateLineRange(r, len(lines)); err != nil {
		return RangeResult{Diagnostics: diags}, err
	}
	if opts.InitialContext == nil {
		opts.InitialContext = contextAt(lines, r.Start)
	}
	out, err := f.formatRange(ctx, content, r, opts)
	if err != nil {
		return RangeResult{Diagnostics: diags}, err
	}

	span, err := text.NewLineIndex(body).LinesSpan(r)
	if err != nil {
		return RangeResult{Diagnostics: diags}, err
	}
	old := body[span.Start:span.End]
	old = old[:len(old)-len(lineTerminator(old))]

	res := RangeResult{Lines: r, Output: out, Diagnostics: diags}
	if edit, ok := text.MinimalEdit(old, policy.newlines(out)); ok {
		edit.Span.Start += span.Start + bomLen
		edit.Span.End += span.Start + bomLen
		res.Edits = []text.ByteEdit{edit}
	}
	return res, nil
}

func (f *Formatter) report(err error, operation string, n int) {
	if f.onError == nil {
		return
	}
	f.onError(err, ErrorContext{
		Component:     componentFormatter,
		Operation:     operation,
		ContentLength: n,
	})
}

func (f *Formatter) format(ctx context.Context, content string, opts Options) (string, error) {
	_, out, err := f.formatDocument(ctx, content, opts)
	return out, err
}

// formatDocument parses and formats content. Panics are converted into
// ErrUnsafeToFormat so callers can fall back to the input.
func (f *Formatter) formatDocument(ctx context.Context, content string, opts Options) (doc *syntax.Document, out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = unsafeFormattingErr(UnsafeReasonInternalPanic, fmt.Sprint(r))
		}
	}()

	norm, err := normalizeOptions(opts)
	if err != nil {
		return nil, "", err
	}
	if !utf8.ValidString(content) {
		return nil, "", unsafeFormattingErr(UnsafeReasonInvalidUTF8, "input contains invalid UTF-8 bytes")
	}
	body, hasBOM := strings.CutPrefix(content, utf8BOM)
	doc, err = f.parse(ctx, body)
	if err != nil {
		return nil, "", err
	}

	formatted := strings.Join(formatLines(splitLines(body), 0, newStructuralIndex(doc), norm), "\n")
	if hasBOM {
		formatted = utf8BOM + formatted
	}
	return doc, formatted, nil
}

func (f *Formatter) formatRange(ctx context.Context, content string, r text.LineRange, opts Options) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = unsafeFormattingErr(UnsafeReasonInternalPanic, fmt.Sprint(rec))
		}
	}()

	norm, err := normalizeOptions(opts)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(content) {
		return "", unsafeFormattingErr(UnsafeReasonInvalidUTF8, "input contains invalid UTF-8 bytes")
	}
	lines := splitLines(content)
	if err := validateLineRange(r, len(lines)); err != nil {
		return "", err
	}
	doc, err := f.parse(ctx, content)
	if err != nil {
		return "", err
	}

	formatted := formatLines(lines[r.Start:r.End+1], r.Start, newStructuralIndex(doc), norm)
	return strings.Join(formatted, "\n"), nil
}

func (f *Formatter) parse(ctx context.Context, content string) (*syntax.Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := f.parser.Parse(ctx, []byte(content))
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", unsafeFormattingErr(UnsafeReasonParseFailed, "parser failed"), err)
	}
	return doc, nil
}

// contextAt replays the scan over the lines before line without an index and
// reports the resulting block state.
func contextAt(lines []string, line int) *Context {
	line = min(max(line, 0), len(lines))
	s := newScanState(lines[:line], 0, newStructuralIndex(nil), DefaultOptions())
	s.run()
	return s.context()
}

func validateLineRange(r text.LineRange, lineCount int) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.End >= lineCount {
		return fmt.Errorf("line range %s out of bounds for %d lines", r, lineCount)
	}
	return nil
}

func originalRange(content string, r text.LineRange) string {
	lines := splitLines(content)
	if r.Validate() != nil || r.Start >= len(lines) {
		return ""
	}
	return strings.Join(lines[r.Start:min(r.End+1, len(lines))], "\n")
}

func lineTerminator(b []byte) []byte {
	switch {
	case bytes.HasSuffix(b, []byte("\r\n")):
		return b[len(b)-2:]
	case bytes.HasSuffix(b, []byte("\n")):
		return b[len(b)-1:]
	}
	return nil
}
