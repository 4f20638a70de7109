package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// row is one rendered member line without its leading indentation.
type row struct {
	b strings.Builder
	w int
}

func (r *row) write(s string) {
	r.b.WriteString(s)
	r.w += runewidth.StringWidth(s)
}

func (r *row) padTo(col int) {
	if r.w < col {
		r.write(strings.Repeat(" ", col-r.w))
	}
}

func (r *row) String() string { return r.b.String() }

// column appends one segment per row. Rows for which seg returns ok=false do
// not take part. When aligned, participating rows are first padded to the
// widest participating row so every segment starts at the same column.
func column(rows []*row, aligned bool, seg func(i int) (string, bool)) {
	if aligned {
		target := 0
		for i, r := range rows {
			if _, ok := seg(i); ok {
				target = max(target, r.w)
			}
		}
		for i, r := range rows {
			if _, ok := seg(i); ok {
				r.padTo(target)
			}
		}
	}
	for i, r := range rows {
		if s, ok := seg(i); ok {
			r.write(s)
		}
	}
}

// commentColumn appends trailing comments. Alignment applies only when more
// than one row carries a comment, and never removes the separating space.
func commentColumn(rows []*row, aligned bool, comment func(i int) string) {
	commented := 0
	target := 0
	for i, r := range rows {
		if comment(i) != "" {
			commented++
			target = max(target, r.w)
		}
	}
	for i, r := range rows {
		c := comment(i)
		if c == "" {
			continue
		}
		pad := 1
		if aligned && commented > 1 {
			pad = max(1, target-r.w+1)
		}
		r.write(strings.Repeat(" ", pad))
		r.write(c)
	}
}

// applyTerminator resolves a member terminator under the trailing-comma policy.
// Semicolons are never rewritten.
func applyTerminator(orig string, policy TrailingCommaPolicy) string {
	if orig == ";" {
		return orig
	}
	switch policy {
	case TrailingCommaAdd:
		return ","
	case TrailingCommaRemove:
		return ""
	default:
		return orig
	}
}

func indentRows(rows []*row, level int, opts Options) []string {
	prefix := opts.indent(level)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = prefix + r.String()
	}
	return out
}

func newRows(n int) []*row {
	rows := make([]*row, n)
	for i := range rows {
		rows[i] = &row{}
	}
	return rows
}
