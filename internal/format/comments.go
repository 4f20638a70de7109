package format

import "strings"

// reflowBlockComment re-renders the "/* ... */" comment starting at
// lines[start] with its interior '*' column normalized at level. It returns
// the rendered lines and the number of source lines consumed, or zero when
// the line is not a standalone block comment.
func reflowBlockComment(lines []string, start, level int, opts Options) ([]string, int) {
	first := strings.TrimSpace(lines[start])
	if !strings.HasPrefix(first, "/*") {
		return nil, 0
	}
	indent := opts.indent(level)

	if end := strings.Index(first[2:], "*/"); end >= 0 {
		if rest := strings.TrimSpace(first[end+4:]); rest != "" {
			return nil, 0
		}
		return []string{indent + first}, 1
	}

	out := []string{indent + first}
	for i := start + 1; i < len(lines); i++ {
		l := strings.TrimSpace(lines[i])
		idx := strings.Index(l, "*/")
		if idx < 0 {
			out = append(out, commentInterior(indent, l))
			continue
		}

		if before := stripCommentStar(l[:idx]); before != "" {
			out = append(out, commentInterior(indent, before))
		}
		closer := indent + " */"
		if after := strings.TrimSpace(l[idx+2:]); after != "" {
			closer += " " + after
		}
		return append(out, closer), i - start + 1
	}
	// Unterminated: stop at end of input without inventing a closer.
	return out, len(lines) - start
}

func commentInterior(indent, l string) string {
	content := stripCommentStar(l)
	if content == "" {
		return indent + " *"
	}
	return indent + " * " + content
}

// stripCommentStar removes one leading '*' and the single space after it.
func stripCommentStar(l string) string {
	l = strings.TrimSpace(l)
	if rest, ok := strings.CutPrefix(l, "*"); ok {
		l = rest
		l = strings.TrimPrefix(l, " ")
	}
	return strings.TrimRight(l, " \t")
}
