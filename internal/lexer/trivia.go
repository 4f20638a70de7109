package lexer

import (
	"fmt"

	"github.com/kpumuk/thriftfmt/internal/text"
)

// CommentKind identifies the comment syntax used in source.
type CommentKind uint8

// CommentKind values.
const (
	CommentLine  CommentKind = iota + 1 // "// ..."
	CommentHash                         // "# ..."
	CommentBlock                        // "/* ... */"
	CommentDoc                          // "/** ... */"
)

func (k CommentKind) String() string {
	switch k {
	case CommentLine:
		return "LineComment"
	case CommentHash:
		return "HashComment"
	case CommentBlock:
		return "BlockComment"
	case CommentDoc:
		return "DocComment"
	default:
		return fmt.Sprintf("CommentKind(%d)", k)
	}
}

// Comment is a comment skipped between tokens.
type Comment struct {
	Kind CommentKind
	Span text.Span
	Line int // 0-based line of the first byte
}

// Text returns the comment bytes, or "" if the span is outside src.
func (c Comment) Text(src []byte) string {
	if !c.Span.IsValid() || int(c.Span.End) > len(src) {
		return ""
	}
	return string(src[c.Span.Start:c.Span.End])
}
