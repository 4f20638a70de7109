package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// renderEnumFields renders one batch of enum members at level.
func renderEnumFields(fields []enumField, level int, opts Options) []string {
	if len(fields) == 0 {
		return nil
	}
	rows := newRows(len(fields))

	column(rows, false, func(i int) (string, bool) { return fields[i].name, true })

	valueWidth := 0
	for _, f := range fields {
		valueWidth = max(valueWidth, runewidth.StringWidth(f.value))
	}
	alignEquals := opts.AlignEnumNames || opts.AlignEnumEquals
	column(rows, alignEquals, func(i int) (string, bool) {
		if fields[i].value == "" {
			return "", false
		}
		v := fields[i].value
		if opts.AlignEnumValues {
			v = strings.Repeat(" ", valueWidth-runewidth.StringWidth(v)) + v
		}
		return " = " + v, true
	})
	column(rows, opts.AlignAnnotations, func(i int) (string, bool) {
		if fields[i].annotation == "" {
			return "", false
		}
		return " " + fields[i].annotation, true
	})
	column(rows, false, func(i int) (string, bool) {
		return applyTerminator(fields[i].terminator, opts.TrailingComma), true
	})
	commentColumn(rows, opts.AlignComments, func(i int) string { return fields[i].comment })

	return indentRows(rows, level, opts)
}
