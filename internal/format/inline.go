package format

import "strings"

// expandInline turns a one-line "Header { a; b }" definition into a header
// line, one aligned line per member, and a closing line.
func expandInline(kind blockKind, line string, level int, opts Options) []string {
	code, comment := splitLineComment(line)
	code = strings.TrimSpace(code)
	comment = strings.TrimSpace(comment)
	open, closing := braceIndexes(code)
	if open < 0 || closing < open {
		return nil
	}

	header := normalizeHeader(code[:open])
	body := code[open+1 : closing]
	after := code[closing+1:]
	parts := splitTopLevelPartsWithSeparators(body)

	indent := opts.indent(level)
	if len(parts) == 0 {
		return []string{indent + header + " {" + closerLine(after, comment)}
	}

	out := []string{indent + header + " {"}
	out = append(out, expandParts(kind, parts, level+1, opts)...)
	return append(out, indent+closerLine(after, comment))
}

func expandParts(kind blockKind, parts []part, level int, opts Options) []string {
	if kind == blockService {
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, opts.indent(level)+normalizeGenericsInSignature(p.text)+p.separator)
		}
		return out
	}

	var out []string
	var structs []structField
	var enums []enumField
	flush := func() {
		out = append(out, renderStructFields(structs, level, opts)...)
		out = append(out, renderEnumFields(enums, level, opts)...)
		structs, enums = nil, nil
	}
	for _, p := range parts {
		switch kind {
		case blockStruct:
			if f, ok := parseStructFieldText(p.text); ok {
				f.terminator = ","
				structs = append(structs, f)
				continue
			}
		case blockEnum:
			if f, ok := parseEnumFieldText(p.text); ok {
				f.terminator = ","
				enums = append(enums, f)
				continue
			}
		}
		flush()
		out = append(out, opts.indent(level)+p.text+p.separator)
	}
	flush()
	return out
}
