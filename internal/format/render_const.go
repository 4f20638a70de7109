package format

import (
	"strings"
)

// renderConstFields renders one batch of consecutive consts at level.
func renderConstFields(fields []constField, level int, opts Options) []string {
	if len(fields) == 0 {
		return nil
	}
	rows := newRows(len(fields))

	column(rows, false, func(i int) (string, bool) { return "const " + fields[i].typ, true })
	column(rows, opts.AlignFieldNames, func(i int) (string, bool) { return " " + fields[i].name, true })
	column(rows, opts.AlignStructDefaults, func(int) (string, bool) { return " =", true })

	expanded := make([][]string, len(fields))
	for i, f := range fields {
		if f.multiline() {
			continue
		}
		if opts.CollectionStyle != CollectionPreserve {
			head := rows[i].String() + " "
			expanded[i] = expandCollection(head, f.value, f.terminator, level, opts)
		}
	}

	column(rows, false, func(i int) (string, bool) {
		f := fields[i]
		if f.multiline() {
			first, _, _ := strings.Cut(f.value, "\n")
			return " " + first, true
		}
		return " " + f.value + f.terminator, true
	})
	commentColumn(rows, opts.AlignComments, func(i int) string {
		if expanded[i] != nil || fields[i].multiline() {
			return ""
		}
		return fields[i].comment
	})

	prefix := opts.indent(level)
	var out []string
	for i, f := range fields {
		switch {
		case expanded[i] != nil:
			out = append(out, expanded[i]...)
			appendComment(out, f.comment)
		case f.multiline():
			first := prefix + rows[i].String()
			if f.comment != "" {
				first += " " + f.comment
			}
			out = append(out, first)
			out = append(out, reindentContinuation(f.value, level, opts)...)
		default:
			out = append(out, prefix+rows[i].String())
		}
	}
	return out
}

// reindentContinuation re-indents the lines after the first of a multi-line
// value by their bracket depth.
func reindentContinuation(value string, level int, opts Options) []string {
	lines := strings.Split(value, "\n")
	first, _ := splitLineComment(lines[0])
	depth := max(nestingDelta(first), 0)

	out := make([]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		l = strings.TrimSpace(l)
		code, _ := splitLineComment(l)
		lineDepth := depth
		if startsWithCloser(code) {
			lineDepth--
		}
		if l == "" {
			out = append(out, "")
		} else {
			out = append(out, opts.indent(level+max(lineDepth, 0))+l)
		}
		depth = max(depth+nestingDelta(code), 0)
	}
	return out
}

func startsWithCloser(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && (code[0] == ']' || code[0] == '}' || code[0] == ')')
}

// appendComment attaches comment to the last non-blank line of out.
func appendComment(out []string, comment string) {
	if comment == "" {
		return
	}
	for i := len(out) - 1; i >= 0; i-- {
		if strings.TrimSpace(out[i]) != "" {
			out[i] += " " + comment
			return
		}
	}
}

// expandCollection splits a single-line list or map literal into one item per
// line. It returns nil when value is not a collection literal, or when the
// style is auto and the literal fits within MaxLineLength.
func expandCollection(head, value, tail string, level int, opts Options) []string {
	value = strings.TrimSpace(value)
	if !isCollectionLiteral(value) {
		return nil
	}
	items := splitTopLevelParts(value[1 : len(value)-1])
	if len(items) == 0 {
		return nil
	}

	force := opts.CollectionStyle == CollectionMultiline
	sep, brk := SoftLine(), SoftBreak()
	if force {
		sep, brk = Line(), Line()
	}
	body := make([]Doc, 0, 2*len(items)+1)
	for i, it := range items {
		if i > 0 {
			body = append(body, Text(","), sep)
		}
		body = append(body, Text(it))
	}
	if opts.TrailingComma != TrailingCommaRemove {
		body = append(body, IfBreak(","))
	}
	doc := Concat(
		Text(head+value[:1]),
		Indent(Concat(brk, Concat(body...))),
		brk,
		Text(value[len(value)-1:]+tail),
	)
	if !force {
		doc = Group(doc)
	}

	out, err := Render(doc, RenderOptions{
		LineWidth:   opts.MaxLineLength,
		Indent:      opts.indentUnit(),
		IndentWidth: opts.indentWidth(1),
		BaseIndent:  level,
	})
	if err != nil {
		return nil
	}
	lines := strings.Split(string(out), "\n")
	if len(lines) == 1 {
		return nil
	}
	return lines
}

// isCollectionLiteral reports whether value is one bracketed list or braced
// map whose opening delimiter is matched by its final byte.
func isCollectionLiteral(value string) bool {
	if len(value) < 2 {
		return false
	}
	open, closing := value[0], value[len(value)-1]
	if !(open == '[' && closing == ']') && !(open == '{' && closing == '}') {
		return false
	}
	var d depthCounter
	for i := 0; i < len(value); i++ {
		if !d.step(value[i]) {
			continue
		}
		if d.brace == 0 && d.bracket == 0 && i < len(value)-1 {
			return false
		}
	}
	return d.q.quote == 0 && d.topLevel()
}
