// Package syntax parses Thrift IDL into a declaration-level document.
//
// The parser is error tolerant: a declaration or member that cannot be parsed
// is reported as a diagnostic and left out of the document, so consumers can
// fall back to text for the affected lines.
package syntax

import (
	"fmt"

	"github.com/kpumuk/thriftfmt/internal/text"
)

// DeclKind identifies a top-level declaration.
type DeclKind uint8

// DeclKind values.
const (
	DeclInclude DeclKind = iota + 1
	DeclCppInclude
	DeclNamespace
	DeclTypedef
	DeclConst
	DeclEnum
	DeclSenum
	DeclStruct
	DeclUnion
	DeclException
	DeclService
)

func (k DeclKind) String() string {
	switch k {
	case DeclInclude:
		return "include"
	case DeclCppInclude:
		return "cpp_include"
	case DeclNamespace:
		return "namespace"
	case DeclTypedef:
		return "typedef"
	case DeclConst:
		return "const"
	case DeclEnum:
		return "enum"
	case DeclSenum:
		return "senum"
	case DeclStruct:
		return "struct"
	case DeclUnion:
		return "union"
	case DeclException:
		return "exception"
	case DeclService:
		return "service"
	default:
		return fmt.Sprintf("DeclKind(%d)", k)
	}
}

// IsStructLike reports whether declarations of kind k carry Fields.
func (k DeclKind) IsStructLike() bool {
	return k == DeclStruct || k == DeclUnion || k == DeclException
}

// IsEnumLike reports whether declarations of kind k carry Members.
func (k DeclKind) IsEnumLike() bool {
	return k == DeclEnum || k == DeclSenum
}

// Decl is a top-level declaration.
//
// Type and Value hold raw source text (typedef/const). Annotation holds the
// raw trailing "(...)" clause when present.
type Decl struct {
	Kind       DeclKind
	Name       string
	Range      text.Range
	Extends    string
	Type       string
	Value      string
	Annotation string

	Fields    []*Field
	Members   []*EnumMember
	Functions []*Function
}

// Field is a struct/union/exception field or a function parameter.
type Field struct {
	Range      text.Range
	ID         string // original digit text, "" when implicit
	Qualifier  string // "required", "optional" or ""
	Type       string
	Name       string
	Default    string
	Annotation string
	Separator  string // "," ";" or ""
}

// EnumMember is an enum or senum value.
type EnumMember struct {
	Range      text.Range
	Name       string
	Value      string
	Annotation string
	Separator  string
}

// Function is a service method.
type Function struct {
	Range      text.Range
	Oneway     bool
	ReturnType string
	Name       string
	Params     []*Field
	Throws     []*Field
	Annotation string
}

// Severity is a diagnostic severity level.
type Severity uint8

const (
	// SeverityError indicates an error diagnostic.
	SeverityError Severity = iota + 1
	// SeverityWarning indicates a warning diagnostic.
	SeverityWarning
)

// DiagnosticCode identifies a syntax-layer diagnostic kind.
type DiagnosticCode string

const (
	// DiagnosticUnexpectedToken reports a token the parser could not place.
	DiagnosticUnexpectedToken DiagnosticCode = "PARSE_UNEXPECTED_TOKEN"
	// DiagnosticUnclosedBlock reports a body that reached EOF before its closing brace.
	DiagnosticUnclosedBlock DiagnosticCode = "PARSE_UNCLOSED_BLOCK"
)

// Diagnostic is a lexer or parser issue.
type Diagnostic struct {
	Code     string
	Message  string
	Severity Severity
	Span     text.Span
	Line     int
	Source   string // lexer | parser
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s: %s (%s)", d.Line+1, d.Source, d.Message, d.Code)
}

// ParseOptions control parsing.
type ParseOptions struct {
	URI string
}

// Document is the parse result.
type Document struct {
	URI         string
	Source      []byte
	Body        []*Decl
	Diagnostics []Diagnostic
	LineIndex   *text.LineIndex
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (d *Document) HasErrors() bool {
	if d == nil {
		return false
	}
	for _, diag := range d.Diagnostics {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}
