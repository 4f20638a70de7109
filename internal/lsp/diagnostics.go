package lsp

import (
	"bufio"

	"github.com/kpumuk/thriftfmt/internal/syntax"
	itext "github.com/kpumuk/thriftfmt/internal/text"
)

const (
	lspSeverityError   = 1
	lspSeverityWarning = 2
)

// publishDiagnostics sends the parser diagnostics of uri's current snapshot,
// or an empty set once the document is closed.
func (s *Server) publishDiagnostics(w *bufio.Writer, uri string) error {
	params := PublishDiagnosticsParams{URI: uri, Diagnostics: []Diagnostic{}}
	if snap, ok := s.store.Snapshot(uri); ok {
		version := snap.Version
		params.Version = &version
		params.Diagnostics = toDiagnostics(snap.Doc)
	}
	return s.writeNotification(w, "textDocument/publishDiagnostics", params)
}

func toDiagnostics(doc *syntax.Document) []Diagnostic {
	out := make([]Diagnostic, 0, len(doc.Diagnostics))
	for _, d := range doc.Diagnostics {
		r, err := toRange(doc.LineIndex, d.Span)
		if err != nil {
			r = lineRange(doc.LineIndex, d.Line)
		}
		severity := lspSeverityError
		if d.Severity == syntax.SeverityWarning {
			severity = lspSeverityWarning
		}
		out = append(out, Diagnostic{
			Range:    r,
			Severity: severity,
			Code:     d.Code,
			Source:   "thriftls",
			Message:  d.Message,
		})
	}
	return out
}

func lineRange(li *itext.LineIndex, line int) Range {
	line = min(max(line, 0), max(li.LineCount()-1, 0))
	return Range{Start: Position{Line: line}, End: Position{Line: line}}
}
