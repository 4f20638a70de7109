// Package lexer tokenizes Thrift IDL source for the declaration parser.
//
// Comments and whitespace are skipped; every token records its byte span and
// the 0-based line it starts on so declarations can be mapped back to lines.
package lexer

import (
	"fmt"

	"github.com/kpumuk/thriftfmt/internal/text"
)

// Kind identifies the syntactic category of a token.
type Kind uint8

// Kind values produced by Lex.
const (
	Error Kind = iota
	EOF
	Identifier
	IntLiteral
	FloatLiteral
	StringLiteral

	KwInclude
	KwCppInclude
	KwNamespace
	KwConst
	KwTypedef
	KwEnum
	KwSenum
	KwStruct
	KwUnion
	KwException
	KwService
	KwExtends
	KwOneway
	KwAsync
	KwThrows
	KwRequired
	KwOptional

	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	LAngle
	RAngle
	Comma
	Semi
	Colon
	Equal
	Plus
	Minus
	Star
	Slash

	kindCount
)

var kindNames = [kindCount]string{
	Error:         "Error",
	EOF:           "EOF",
	Identifier:    "Identifier",
	IntLiteral:    "IntLiteral",
	FloatLiteral:  "FloatLiteral",
	StringLiteral: "StringLiteral",
	KwInclude:     "include",
	KwCppInclude:  "cpp_include",
	KwNamespace:   "namespace",
	KwConst:       "const",
	KwTypedef:     "typedef",
	KwEnum:        "enum",
	KwSenum:       "senum",
	KwStruct:      "struct",
	KwUnion:       "union",
	KwException:   "exception",
	KwService:     "service",
	KwExtends:     "extends",
	KwOneway:      "oneway",
	KwAsync:       "async",
	KwThrows:      "throws",
	KwRequired:    "required",
	KwOptional:    "optional",
	LBrace:        "{",
	RBrace:        "}",
	LParen:        "(",
	RParen:        ")",
	LBracket:      "[",
	RBracket:      "]",
	LAngle:        "<",
	RAngle:        ">",
	Comma:         ",",
	Semi:          ";",
	Colon:         ":",
	Equal:         "=",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwInclude && k <= KwOptional
}

// IsDefinition reports whether k starts a top-level declaration.
func (k Kind) IsDefinition() bool {
	switch k {
	case KwInclude, KwCppInclude, KwNamespace, KwConst, KwTypedef,
		KwEnum, KwSenum, KwStruct, KwUnion, KwException, KwService:
		return true
	default:
		return false
	}
}

var keywords = func() map[string]Kind {
	m := make(map[string]Kind, KwOptional-KwInclude+1)
	for k := KwInclude; k <= KwOptional; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// Token is a lexed token with its source span and starting line.
type Token struct {
	Kind Kind
	Span text.Span
	Line int // 0-based
}

// Text returns the token bytes as a string, or "" if the span is outside src.
func (t Token) Text(src []byte) string {
	if !t.Span.IsValid() || int(t.Span.End) > len(src) {
		return ""
	}
	return string(src[t.Span.Start:t.Span.End])
}
