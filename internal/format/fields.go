package format

import (
	"regexp"
	"strings"

	"github.com/kpumuk/thriftfmt/internal/syntax"
)

var (
	structFieldTextRe = regexp.MustCompile(`^-?\d+\s*:`)
	structFieldPartRe = regexp.MustCompile(`^(-?\d+)\s*:\s*(?:(required|optional)\s+)?(.*)$`)
	enumFieldTextRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=\s*(?:[+-]?\d+|0[xX][0-9A-Fa-f]+)$`)
	enumFieldPartRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*)(?:\s*=\s*(.+))?$`)
	constHeaderRe     = regexp.MustCompile(`^const\s+(.+?)\s+([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*(.*)$`)
)

// structField is one struct, union or exception field.
type structField struct {
	raw        string
	id         string
	qualifier  string
	typ        string
	name       string
	def        string
	terminator string
	annotation string
	comment    string
}

// enumField is one enum or senum member.
type enumField struct {
	raw        string
	name       string
	value      string
	terminator string
	annotation string
	comment    string
}

// constField is one const declaration. value holds one line per source line
// for multi-line literals.
type constField struct {
	raw        string
	typ        string
	name       string
	value      string
	terminator string
	comment    string
}

func (c constField) multiline() bool {
	return strings.Contains(c.value, "\n")
}

// fieldLine is the trimmed code, terminator, annotation and comment of a
// member line, consumed left to right.
type fieldLine struct {
	code       string
	terminator string
	annotation string
	comment    string
}

func splitFieldLine(line string) fieldLine {
	code, comment := splitLineComment(line)
	var fl fieldLine
	fl.comment = strings.TrimSpace(comment)
	code, fl.terminator = splitTerminator(code)
	fl.code, fl.annotation = splitTrailingAnnotation(code)
	fl.code = strings.TrimSpace(fl.code)
	return fl
}

// isStructFieldText reports whether line looks like "<id>: ...".
func isStructFieldText(line string) bool {
	t := strings.TrimSpace(line)
	if strings.Contains(t, "/*") {
		return false
	}
	return structFieldTextRe.MatchString(t)
}

// isEnumFieldText reports whether line looks like "NAME = <int-or-hex>".
func isEnumFieldText(line string) bool {
	t := strings.TrimSpace(line)
	if strings.Contains(t, "/*") {
		return false
	}
	fl := splitFieldLine(t)
	return enumFieldTextRe.MatchString(fl.code)
}

func buildStructFieldFromAST(line string, f *syntax.Field) structField {
	fl := splitFieldLine(line)
	return structField{
		raw:        strings.TrimSpace(line),
		id:         f.ID,
		qualifier:  f.Qualifier,
		typ:        normalizeType(f.Type),
		name:       f.Name,
		def:        strings.TrimSpace(f.Default),
		terminator: f.Separator,
		annotation: strings.TrimSpace(f.Annotation),
		comment:    fl.comment,
	}
}

// covers reports whether the record reproduces every non-blank character of
// code, the member line without its comment. A parser that recovered past
// tokens it could not place yields a record that does not.
func (f structField) covers(code string) bool {
	var b strings.Builder
	if f.id != "" {
		b.WriteString(f.id + ":")
	}
	b.WriteString(f.qualifier + f.typ + f.name)
	if f.def != "" {
		b.WriteString("=" + f.def)
	}
	b.WriteString(f.annotation + f.terminator)
	return squashSpace(b.String()) == squashSpace(code)
}

func parseStructFieldText(line string) (structField, bool) {
	fl := splitFieldLine(line)
	m := structFieldPartRe.FindStringSubmatch(fl.code)
	if m == nil {
		return structField{}, false
	}
	rest, def := splitDefault(m[3])
	typ, name, ok := splitTypeAndName(rest)
	if !ok {
		return structField{}, false
	}
	return structField{
		raw:        strings.TrimSpace(line),
		id:         m[1],
		qualifier:  m[2],
		typ:        normalizeType(typ),
		name:       name,
		def:        def,
		terminator: fl.terminator,
		annotation: fl.annotation,
		comment:    fl.comment,
	}, true
}

// splitDefault splits "<type> <name> = <value>" at the first top-level '='.
func splitDefault(s string) (rest, def string) {
	var d depthCounter
	for i := 0; i < len(s); i++ {
		if !d.step(s[i]) {
			continue
		}
		if s[i] == '=' && d.topLevel() {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return strings.TrimSpace(s), ""
}

// splitTypeAndName splits at the last whitespace outside generic brackets.
func splitTypeAndName(s string) (typ, name string, ok bool) {
	var d depthCounter
	cut := -1
	for i := 0; i < len(s); i++ {
		if !d.step(s[i]) {
			continue
		}
		if isSpace(s[i]) && d.topLevel() {
			cut = i
		}
	}
	if cut < 0 {
		return "", "", false
	}
	typ = strings.TrimSpace(s[:cut])
	name = strings.TrimSpace(s[cut+1:])
	if typ == "" || name == "" || !isIdentifier(name) {
		return "", "", false
	}
	return typ, name, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func buildEnumFieldFromAST(line string, m *syntax.EnumMember) enumField {
	fl := splitFieldLine(line)
	return enumField{
		raw:        strings.TrimSpace(line),
		name:       m.Name,
		value:      strings.TrimSpace(m.Value),
		terminator: m.Separator,
		annotation: strings.TrimSpace(m.Annotation),
		comment:    fl.comment,
	}
}

// covers is structField.covers for enum members.
func (f enumField) covers(code string) bool {
	rec := f.name
	if f.value != "" {
		rec += "=" + f.value
	}
	return squashSpace(rec+f.annotation+f.terminator) == squashSpace(code)
}

// squashSpace drops all whitespace.
func squashSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// parseEnumFieldText accepts "NAME" and "NAME = VALUE" forms.
func parseEnumFieldText(line string) (enumField, bool) {
	fl := splitFieldLine(line)
	m := enumFieldPartRe.FindStringSubmatch(fl.code)
	if m == nil {
		return enumField{}, false
	}
	value := strings.TrimSpace(m[2])
	if strings.ContainsAny(value, " \t") {
		return enumField{}, false
	}
	return enumField{
		raw:        strings.TrimSpace(line),
		name:       m[1],
		value:      value,
		terminator: fl.terminator,
		annotation: fl.annotation,
		comment:    fl.comment,
	}, true
}

// parseConstField parses lines[start..end] as one const declaration.
func parseConstField(lines []string, start, end int) (constField, bool) {
	if start < 0 || start >= len(lines) {
		return constField{}, false
	}
	end = min(max(end, start), len(lines)-1)
	if end == start {
		return parseConstFieldText(lines[start])
	}

	code, comment := splitLineComment(lines[start])
	m := constHeaderRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return constField{}, false
	}
	values := []string{strings.TrimSpace(m[3])}
	for _, l := range lines[start+1 : end+1] {
		values = append(values, strings.TrimSpace(l))
	}
	return constField{
		raw:     strings.TrimSpace(lines[start]),
		typ:     normalizeType(m[1]),
		name:    m[2],
		value:   strings.Join(values, "\n"),
		comment: strings.TrimSpace(comment),
	}, true
}

func parseConstFieldText(line string) (constField, bool) {
	code, comment := splitLineComment(line)
	m := constHeaderRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return constField{}, false
	}
	value, terminator := splitTerminator(m[3])
	if value == "" {
		return constField{}, false
	}
	return constField{
		raw:        strings.TrimSpace(line),
		typ:        normalizeType(m[1]),
		name:       m[2],
		value:      value,
		terminator: terminator,
		comment:    strings.TrimSpace(comment),
	}, true
}
