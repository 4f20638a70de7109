package format

// renderStructFields renders one batch of struct fields at level.
func renderStructFields(fields []structField, level int, opts Options) []string {
	if len(fields) == 0 {
		return nil
	}
	rows := newRows(len(fields))

	column(rows, false, func(i int) (string, bool) {
		if fields[i].id == "" {
			return "", true
		}
		return fields[i].id + ":", true
	})

	anyQualifier := false
	for _, f := range fields {
		if f.qualifier != "" {
			anyQualifier = true
		}
	}
	if anyQualifier && opts.AlignTypes {
		column(rows, true, func(i int) (string, bool) {
			if fields[i].id == "" {
				return "", true
			}
			return " ", true
		})
		column(rows, false, func(i int) (string, bool) { return fields[i].qualifier, true })
		column(rows, true, func(int) (string, bool) { return " ", true })
	} else {
		column(rows, opts.AlignTypes, func(i int) (string, bool) {
			s := ""
			if fields[i].id != "" {
				s = " "
			}
			if q := fields[i].qualifier; q != "" {
				s += q + " "
			}
			return s, true
		})
	}

	column(rows, false, func(i int) (string, bool) { return fields[i].typ, true })
	column(rows, opts.AlignFieldNames, func(i int) (string, bool) { return " " + fields[i].name, true })
	column(rows, opts.AlignStructDefaults, func(i int) (string, bool) {
		if fields[i].def == "" {
			return "", false
		}
		return " = " + fields[i].def, true
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
