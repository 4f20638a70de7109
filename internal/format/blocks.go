package format

import (
	"regexp"
	"strings"
)

type blockKind uint8

const (
	blockNone blockKind = iota
	blockStruct
	blockEnum
	blockService
)

var (
	structStartRe  = regexp.MustCompile(`^(?:struct|union|exception)\s+[A-Za-z_][A-Za-z0-9_]*`)
	enumStartRe    = regexp.MustCompile(`^(?:enum|senum)\s+[A-Za-z_][A-Za-z0-9_]*`)
	serviceStartRe = regexp.MustCompile(`^service\s+[A-Za-z_][A-Za-z0-9_]*`)
)

// blockKindOf classifies the trimmed code of a definition header line.
func blockKindOf(code string) blockKind {
	code = strings.TrimSpace(code)
	switch {
	case structStartRe.MatchString(code):
		return blockStruct
	case enumStartRe.MatchString(code):
		return blockEnum
	case serviceStartRe.MatchString(code):
		return blockService
	}
	return blockNone
}

// isInlineBody reports whether code holds a complete "{...}" body.
func isInlineBody(code string) bool {
	open, closing := braceIndexes(code)
	return open >= 0 && closing > open
}

// isCloser reports whether the trimmed code starts with '}'.
func isCloser(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), "}")
}

// normalizeHeader collapses whitespace in a definition header and ensures a
// single space before '{'.
func normalizeHeader(header string) string {
	return normalizeGenericsInSignature(collapseSpaces(header))
}

// closerLine renders "}" followed by whatever trailed it on the line.
func closerLine(after, comment string) string {
	out := "}"
	after = strings.TrimSpace(after)
	if after != "" {
		if after[0] != ';' && after[0] != ',' {
			out += " "
		}
		out += after
	}
	if comment != "" {
		out += " " + comment
	}
	return out
}
