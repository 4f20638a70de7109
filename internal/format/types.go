// Package format implements a configurable, line-oriented formatter for Thrift IDL.
//
// Formatting is a single top-to-bottom scan over source lines. A declaration
// index built from the parser output is consulted opportunistically and text
// patterns take over wherever the document is incomplete, so open editor
// buffers can be formatted while they are being typed.
package format

import (
	"errors"
	"fmt"

	"github.com/kpumuk/thriftfmt/internal/syntax"
	"github.com/kpumuk/thriftfmt/internal/text"
)

// Result is the full-document formatting result.
type Result struct {
	Output      []byte
	Changed     bool
	Diagnostics []syntax.Diagnostic
}

// RangeResult is the range-formatting result.
type RangeResult struct {
	Lines       text.LineRange
	Output      string
	Edits       []text.ByteEdit
	Diagnostics []syntax.Diagnostic
}

// UnsafeReason identifies why a request was refused as unsafe.
type UnsafeReason string

const (
	// UnsafeReasonInvalidUTF8 indicates invalid UTF-8 bytes in the source input.
	UnsafeReasonInvalidUTF8 UnsafeReason = "invalid_utf8"
	// UnsafeReasonParseFailed indicates the parser returned an error instead of a document.
	UnsafeReasonParseFailed UnsafeReason = "parse_failed"
	// UnsafeReasonInternalPanic indicates a recovered panic inside the formatter.
	UnsafeReasonInternalPanic UnsafeReason = "internal_panic"
)

// ErrUnsafeToFormat is returned when formatting is refused due to unsafe input state.
type ErrUnsafeToFormat struct {
	Reason  UnsafeReason
	Message string
}

func (e *ErrUnsafeToFormat) Error() string {
	if e == nil {
		return "unsafe to format"
	}
	if e.Message == "" {
		return fmt.Sprintf("unsafe to format (%s)", e.Reason)
	}
	return fmt.Sprintf("unsafe to format (%s): %s", e.Reason, e.Message)
}

// IsErrUnsafeToFormat reports whether err is a formatter safety refusal.
func IsErrUnsafeToFormat(err error) bool {
	var target *ErrUnsafeToFormat
	return AsUnsafeToFormat(err, &target)
}

// AsUnsafeToFormat reports whether err contains an ErrUnsafeToFormat.
func AsUnsafeToFormat(err error, target **ErrUnsafeToFormat) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.As(err, target)
}

func unsafeFormattingErr(reason UnsafeReason, msg string) *ErrUnsafeToFormat {
	return &ErrUnsafeToFormat{
		Reason:  reason,
		Message: msg,
	}
}

// ErrorContext describes where a masked formatter failure happened.
type ErrorContext struct {
	Component     string
	Operation     string
	ContentLength int
}

// ErrorHandler receives failures that Format and FormatRange mask by
// returning their input unchanged.
type ErrorHandler func(err error, ctx ErrorContext)
