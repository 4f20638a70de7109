package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/kpumuk/thriftfmt/internal/text"
)

// DiagnosticCode identifies lexer diagnostic categories.
type DiagnosticCode string

// DiagnosticCode values emitted by the lexer.
const (
	DiagnosticInvalidByte              DiagnosticCode = "LEX_INVALID_BYTE"
	DiagnosticUnknownCharacter         DiagnosticCode = "LEX_UNKNOWN_CHARACTER"
	DiagnosticUnterminatedString       DiagnosticCode = "LEX_UNTERMINATED_STRING"
	DiagnosticUnterminatedBlockComment DiagnosticCode = "LEX_UNTERMINATED_BLOCK_COMMENT"
	DiagnosticInvalidHexLiteral        DiagnosticCode = "LEX_INVALID_HEX_LITERAL"
)

// Diagnostic is a lexer-level issue with source location.
type Diagnostic struct {
	Code    DiagnosticCode
	Message string
	Span    text.Span
	Line    int
}

// Result is the output of lexing source bytes.
type Result struct {
	Tokens      []Token // always terminated by an EOF token
	Comments    []Comment
	Diagnostics []Diagnostic
}

// Lex tokenizes src. Malformed input yields Error tokens and diagnostics, never a panic.
func Lex(src []byte) Result {
	s := scanner{src: src}
	for {
		s.skipTrivia()
		if s.eof() {
			s.emit(EOF, len(src), s.line)
			break
		}
		s.scanToken()
	}
	return Result{Tokens: s.tokens, Comments: s.comments, Diagnostics: s.diagnostics}
}

type scanner struct {
	src         []byte
	i           int
	line        int
	tokens      []Token
	comments    []Comment
	diagnostics []Diagnostic
}

func (s *scanner) skipTrivia() {
	for !s.eof() {
		switch b := s.src[s.i]; {
		case b == '\n':
			s.line++
			s.i++
		case b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f':
			s.i++
		case b == '#':
			s.skipLine(CommentHash)
		case b == '/' && s.peek(1) == '/':
			s.skipLine(CommentLine)
		case b == '/' && s.peek(1) == '*':
			s.skipBlockComment()
		default:
			return
		}
	}
}

func (s *scanner) skipLine(kind CommentKind) {
	start := s.i
	for !s.eof() && s.src[s.i] != '\n' {
		s.i++
	}
	end := s.i
	if end > start && s.src[end-1] == '\r' {
		end--
	}
	s.comments = append(s.comments, Comment{Kind: kind, Span: span(start, end), Line: s.line})
}

func (s *scanner) skipBlockComment() {
	start, line := s.i, s.line
	kind := CommentBlock
	if s.peek(2) == '*' && s.peek(3) != '/' {
		kind = CommentDoc
	}
	s.i += 2
	for !s.eof() {
		switch {
		case s.src[s.i] == '*' && s.peek(1) == '/':
			s.i += 2
			s.comments = append(s.comments, Comment{Kind: kind, Span: span(start, s.i), Line: line})
			return
		case s.src[s.i] == '\n':
			s.line++
		}
		s.i++
	}
	s.comments = append(s.comments, Comment{Kind: kind, Span: span(start, s.i), Line: line})
	s.report(DiagnosticUnterminatedBlockComment, "unterminated block comment", start, s.i, line)
}

func (s *scanner) scanToken() {
	start, line := s.i, s.line
	b := s.src[s.i]

	switch {
	case isIdentStart(b):
		s.i++
		for !s.eof() && isIdentPart(s.src[s.i]) {
			s.i++
		}
		kind := Identifier
		if kw, ok := keywords[string(s.src[start:s.i])]; ok {
			kind = kw
		}
		s.emit(kind, start, line)
	case isDigit(b) || (b == '.' && isDigit(s.peek(1))):
		s.scanNumber()
	case b == '"' || b == '\'':
		s.scanString()
	case b >= utf8.RuneSelf:
		r, size := utf8.DecodeRune(s.src[s.i:])
		s.i += size
		if r == utf8.RuneError && size == 1 {
			s.fail(DiagnosticInvalidByte, "invalid UTF-8 byte", start, line)
			return
		}
		s.fail(DiagnosticUnknownCharacter, fmt.Sprintf("unsupported character %q", r), start, line)
	default:
		s.i++
		if kind, ok := punctuation[b]; ok {
			s.emit(kind, start, line)
			return
		}
		s.fail(DiagnosticUnknownCharacter, fmt.Sprintf("unknown character %q", b), start, line)
	}
}

var punctuation = map[byte]Kind{
	'{': LBrace, '}': RBrace,
	'(': LParen, ')': RParen,
	'[': LBracket, ']': RBracket,
	'<': LAngle, '>': RAngle,
	',': Comma, ';': Semi, ':': Colon, '=': Equal,
	'+': Plus, '-': Minus, '*': Star, '/': Slash,
}

func (s *scanner) scanNumber() {
	start, line := s.i, s.line
	if s.src[s.i] == '0' && (s.peek(1) == 'x' || s.peek(1) == 'X') {
		s.i += 2
		digits := s.i
		for !s.eof() && isHexDigit(s.src[s.i]) {
			s.i++
		}
		if s.i == digits {
			s.fail(DiagnosticInvalidHexLiteral, "invalid hex literal", start, line)
			return
		}
		s.emit(IntLiteral, start, line)
		return
	}

	kind := IntLiteral
	s.skipDigits()
	if s.peek(0) == '.' && isDigit(s.peek(1)) {
		kind = FloatLiteral
		s.i++
		s.skipDigits()
	}
	if s.scanExponent() {
		kind = FloatLiteral
	}
	s.emit(kind, start, line)
}

func (s *scanner) skipDigits() {
	for !s.eof() && isDigit(s.src[s.i]) {
		s.i++
	}
}

func (s *scanner) scanExponent() bool {
	if c := s.peek(0); c != 'e' && c != 'E' {
		return false
	}
	j := s.i + 1
	if j < len(s.src) && (s.src[j] == '+' || s.src[j] == '-') {
		j++
	}
	if j >= len(s.src) || !isDigit(s.src[j]) {
		return false
	}
	s.i = j
	s.skipDigits()
	return true
}

func (s *scanner) scanString() {
	start, line := s.i, s.line
	quote := s.src[s.i]
	for s.i++; !s.eof(); s.i++ {
		switch s.src[s.i] {
		case quote:
			s.i++
			s.emit(StringLiteral, start, line)
			return
		case '\\':
			if s.i+1 < len(s.src) && s.src[s.i+1] != '\n' {
				s.i++
			}
		case '\n':
			s.fail(DiagnosticUnterminatedString, "unterminated string literal", start, line)
			return
		}
	}
	s.fail(DiagnosticUnterminatedString, "unterminated string literal", start, line)
}

func (s *scanner) emit(kind Kind, start, line int) {
	s.tokens = append(s.tokens, Token{Kind: kind, Span: span(start, s.i), Line: line})
}

func (s *scanner) fail(code DiagnosticCode, msg string, start, line int) {
	s.report(code, msg, start, s.i, line)
	s.emit(Error, start, line)
}

func (s *scanner) report(code DiagnosticCode, msg string, start, end, line int) {
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Code:    code,
		Message: msg,
		Span:    span(start, end),
		Line:    line,
	})
}

func (s *scanner) eof() bool {
	return s.i >= len(s.src)
}

func (s *scanner) peek(delta int) byte {
	j := s.i + delta
	if j < 0 || j >= len(s.src) {
		return 0
	}
	return s.src[j]
}

func span(start, end int) text.Span {
	return text.Span{Start: text.ByteOffset(start), End: text.ByteOffset(end)}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

// Dots are part of identifiers so qualified names (shared.Base, java.lang) lex as one token.
func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b) || b == '.'
}
