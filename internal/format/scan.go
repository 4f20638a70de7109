package format

import (
	"strings"
)

// quoteState tracks string literals while scanning a line byte by byte.
type quoteState struct {
	quote   byte
	escaped bool
}

// step consumes c and reports whether it belongs to a string literal
// (including the delimiting quotes).
func (q *quoteState) step(c byte) bool {
	if q.quote != 0 {
		switch {
		case q.escaped:
			q.escaped = false
		case c == '\\':
			q.escaped = true
		case c == q.quote:
			q.quote = 0
		}
		return true
	}
	if c == '"' || c == '\'' {
		q.quote = c
		return true
	}
	return false
}

// splitLineComment splits line at the first "//" or "#" outside a string.
// comment keeps its marker; code is the untouched prefix.
func splitLineComment(line string) (code, comment string) {
	var q quoteState
	for i := 0; i < len(line); i++ {
		c := line[i]
		if q.step(c) {
			continue
		}
		if c == '#' || (c == '/' && i+1 < len(line) && line[i+1] == '/') {
			return line[:i], line[i:]
		}
	}
	return line, ""
}

// splitTrailingAnnotation extracts the outermost "(...)" group that ends the
// trimmed text. Unbalanced or non-trailing groups yield no annotation.
func splitTrailingAnnotation(s string) (base, annotation string) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasSuffix(trimmed, ")") {
		return s, ""
	}

	var q quoteState
	var stack []int
	groupStart, groupEnd := -1, -1
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if q.step(c) {
			continue
		}
		switch c {
		case '(':
			stack = append(stack, i)
		case ')':
			if len(stack) == 0 {
				return s, ""
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				groupStart, groupEnd = open, i
			}
		}
	}
	if len(stack) != 0 || q.quote != 0 || groupEnd != len(trimmed)-1 {
		return s, ""
	}
	base = strings.TrimSpace(trimmed[:groupStart])
	if base == "" {
		return s, ""
	}
	return base, trimmed[groupStart:]
}

// splitTerminator removes one trailing ',' or ';' from the trimmed text.
func splitTerminator(s string) (rest, terminator string) {
	trimmed := strings.TrimSpace(s)
	if n := len(trimmed); n > 0 && (trimmed[n-1] == ',' || trimmed[n-1] == ';') {
		return strings.TrimSpace(trimmed[:n-1]), trimmed[n-1:]
	}
	return trimmed, ""
}

// normalizeType removes whitespace around the punctuation of generic type
// expressions: "list < string >" becomes "list<string>".
func normalizeType(typ string) string {
	typ = strings.TrimSpace(typ)
	var b strings.Builder
	b.Grow(len(typ))
	var q quoteState
	for i := 0; i < len(typ); i++ {
		c := typ[i]
		if q.step(c) {
			b.WriteByte(c)
			continue
		}
		if isSpace(c) {
			j := i
			for j < len(typ) && isSpace(typ[j]) {
				j++
			}
			prev := lastByte(b.String())
			if j < len(typ) && !isTypePunct(prev) && !isTypePunct(typ[j]) {
				b.WriteByte(' ')
			}
			i = j - 1
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isTypePunct(c byte) bool {
	switch c {
	case '<', '>', ',', ';':
		return true
	}
	return false
}

// depthCounter tracks nesting of <> () {} [] outside strings. Counters never
// drop below zero so unbalanced input is tolerated.
type depthCounter struct {
	angle, paren, brace, bracket int
	q                            quoteState
}

// step consumes c and reports whether it was outside a string literal.
func (d *depthCounter) step(c byte) bool {
	if d.q.step(c) {
		return false
	}
	switch c {
	case '<':
		d.angle++
	case '>':
		d.angle = max(d.angle-1, 0)
	case '(':
		d.paren++
	case ')':
		d.paren = max(d.paren-1, 0)
	case '{':
		d.brace++
	case '}':
		d.brace = max(d.brace-1, 0)
	case '[':
		d.bracket++
	case ']':
		d.bracket = max(d.bracket-1, 0)
	}
	return true
}

func (d *depthCounter) topLevel() bool {
	return d.angle == 0 && d.paren == 0 && d.brace == 0 && d.bracket == 0
}

// part is one top-level segment of a single-line body.
type part struct {
	text      string
	separator string
}

// splitTopLevelPartsWithSeparators splits content on ',' and ';' that appear
// outside strings and nested delimiters. Empty parts are dropped.
func splitTopLevelPartsWithSeparators(content string) []part {
	var parts []part
	var d depthCounter
	start := 0
	emit := func(end int, sep string) {
		if t := strings.TrimSpace(content[start:end]); t != "" {
			parts = append(parts, part{text: t, separator: sep})
		}
	}
	for i := 0; i < len(content); i++ {
		c := content[i]
		if !d.step(c) {
			continue
		}
		if (c == ',' || c == ';') && d.topLevel() {
			emit(i, string(c))
			start = i + 1
		}
	}
	emit(len(content), "")
	return parts
}

// splitTopLevelParts is splitTopLevelPartsWithSeparators without separators.
func splitTopLevelParts(content string) []string {
	parts := splitTopLevelPartsWithSeparators(content)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.text
	}
	return out
}

// normalizeGenericsInSignature tightens the spacing of generic types inside a
// function signature or typedef line. A trailing line comment is re-appended
// verbatim.
func normalizeGenericsInSignature(line string) string {
	code, comment := splitLineComment(line)
	code = strings.TrimSpace(code)

	var b strings.Builder
	b.Grow(len(code))
	var q quoteState
	depth := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		if q.step(c) {
			b.WriteByte(c)
			continue
		}
		switch c {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		}
		if !isSpace(c) {
			b.WriteByte(c)
			continue
		}

		j := i
		for j < len(code) && isSpace(code[j]) {
			j++
		}
		prev := lastByte(b.String())
		var next byte
		if j < len(code) {
			next = code[j]
		}
		if !dropSignatureSpace(prev, next, depth) {
			b.WriteString(code[i:j])
		}
		i = j - 1
	}

	out := b.String()
	if comment != "" {
		if out == "" {
			return comment
		}
		return out + " " + comment
	}
	return out
}

func dropSignatureSpace(prev, next byte, depth int) bool {
	switch {
	case prev == '<':
		return true
	case next == '<' && isIdentByte(prev):
		return true
	case depth > 0 && (next == ',' || next == '>' || prev == ','):
		return true
	case prev == '>' && (next == ',' || next == '>' || next == ')'):
		return true
	}
	return false
}

// bracketDelta returns the change in {} and [] nesting contributed by the
// code outside strings.
func bracketDelta(code string) int {
	var q quoteState
	delta := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		if q.step(c) {
			continue
		}
		switch c {
		case '{', '[':
			delta++
		case '}', ']':
			delta--
		}
	}
	return delta
}

// nestingDelta is the net change of {} [] and () depth across code.
func nestingDelta(code string) int {
	return bracketDelta(code) + parenDelta(code)
}

// parenDelta is bracketDelta for ().
func parenDelta(code string) int {
	var q quoteState
	delta := 0
	for i := 0; i < len(code); i++ {
		c := code[i]
		if q.step(c) {
			continue
		}
		switch c {
		case '(':
			delta++
		case ')':
			delta--
		}
	}
	return delta
}

// braceIndexes returns the first '{' and last '}' outside strings, or -1.
func braceIndexes(code string) (open, closing int) {
	open, closing = -1, -1
	var q quoteState
	for i := 0; i < len(code); i++ {
		c := code[i]
		if q.step(c) {
			continue
		}
		switch c {
		case '{':
			if open < 0 {
				open = i
			}
		case '}':
			closing = i
		}
	}
	return open, closing
}

// collapseSpaces replaces whitespace runs outside strings with one space.
func collapseSpaces(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	var q quoteState
	for i := 0; i < len(s); i++ {
		c := s[i]
		if q.step(c) || !isSpace(c) {
			b.WriteByte(c)
			continue
		}
		for i+1 < len(s) && isSpace(s[i+1]) {
			i++
		}
		b.WriteByte(' ')
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func lastByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}
