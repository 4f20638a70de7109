package lsp

import (
	"context"

	"github.com/kpumuk/thriftfmt/internal/format"
	"github.com/kpumuk/thriftfmt/internal/logging"
	itext "github.com/kpumuk/thriftfmt/internal/text"
)

// Formatting formats the whole document and returns at most one edit covering
// the changed region.
func (s *Server) Formatting(ctx context.Context, p DocumentFormattingParams) ([]TextEdit, error) {
	snap, err := s.snapshotFor(p.TextDocument.URI, p.Version)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := snap.Doc.Source
	res, err := s.formatter.Source(ctx, src, s.requestOptions(p.Options))
	if err != nil {
		logging.FromContext(ctx).Debug("formatting refused", logging.FieldURI, snap.URI, logging.FieldError, err)
		return nil, err
	}
	if !res.Changed {
		return []TextEdit{}, nil
	}
	edit, ok := itext.MinimalEdit(src, res.Output)
	if !ok {
		return []TextEdit{}, nil
	}
	return toTextEdits(snap.Doc.LineIndex, []itext.ByteEdit{edit})
}

// RangeFormatting formats the lines touched by p.Range. The block state at the
// first line is derived from the lines above it.
func (s *Server) RangeFormatting(ctx context.Context, p DocumentRangeFormattingParams) ([]TextEdit, error) {
	snap, err := s.snapshotFor(p.TextDocument.URI, p.Version)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	li := snap.Doc.LineIndex
	res, err := s.formatter.Range(ctx, snap.Doc.Source, requestLines(p.Range, li.LineCount()), s.requestOptions(p.Options))
	if err != nil {
		logging.FromContext(ctx).Debug("range formatting refused", logging.FieldURI, snap.URI, logging.FieldError, err)
		return nil, err
	}
	if len(res.Edits) == 0 {
		return []TextEdit{}, nil
	}
	return toTextEdits(li, res.Edits)
}

func (s *Server) snapshotFor(uri string, version *int32) (*Snapshot, error) {
	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	if version != nil {
		return store.SnapshotAtVersion(uri, *version)
	}
	snap, ok := store.Snapshot(uri)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	return snap, nil
}

// requestOptions overlays the editor's indentation settings on the configured
// options. A zero tabSize means the client sent no options.
func (s *Server) requestOptions(fo FormattingOptions) format.Options {
	opts := s.Options()
	if fo.TabSize > 0 {
		opts.TabSize = fo.TabSize
		opts.InsertSpaces = fo.InsertSpaces
		if fo.InsertSpaces {
			opts.IndentSize = fo.TabSize
		}
	}
	return opts
}

// requestLines converts an LSP range to whole lines. An end position at
// column 0 of a later line does not select that line.
func requestLines(r Range, lineCount int) itext.LineRange {
	start := max(r.Start.Line, 0)
	end := r.End.Line
	if r.End.Character == 0 && end > start {
		end--
	}
	end = min(max(end, start), lineCount-1)
	start = min(start, end)
	return itext.LineRange{Start: start, End: end}
}

func toTextEdits(li *itext.LineIndex, edits []itext.ByteEdit) ([]TextEdit, error) {
	out := make([]TextEdit, 0, len(edits))
	for _, e := range edits {
		r, err := toRange(li, e.Span)
		if err != nil {
			return nil, err
		}
		out = append(out, TextEdit{Range: r, NewText: string(e.NewText)})
	}
	return out, nil
}

func toRange(li *itext.LineIndex, span itext.Span) (Range, error) {
	start, err := li.OffsetToUTF16Position(span.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := li.OffsetToUTF16Position(span.End)
	if err != nil {
		return Range{}, err
	}
	return Range{
		Start: Position{Line: start.Line, Character: start.Character},
		End:   Position{Line: end.Line, Character: end.Character},
	}, nil
}
