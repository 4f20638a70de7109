package format

import "github.com/kpumuk/thriftfmt/internal/syntax"

// structuralIndex maps zero-based source lines to the declarations and
// members that start on them. It is built once per call and never mutated.
type structuralIndex struct {
	structs   map[int]*syntax.Decl
	enums     map[int]*syntax.Decl
	services  map[int]*syntax.Decl
	consts    map[int]*syntax.Decl
	constEnd  map[int]int
	fields    map[int]*syntax.Field
	members   map[int]*syntax.EnumMember
	functions map[int]*syntax.Function
}

func newStructuralIndex(doc *syntax.Document) *structuralIndex {
	idx := &structuralIndex{
		structs:   map[int]*syntax.Decl{},
		enums:     map[int]*syntax.Decl{},
		services:  map[int]*syntax.Decl{},
		consts:    map[int]*syntax.Decl{},
		constEnd:  map[int]int{},
		fields:    map[int]*syntax.Field{},
		members:   map[int]*syntax.EnumMember{},
		functions: map[int]*syntax.Function{},
	}
	if doc == nil {
		return idx
	}

	for _, d := range doc.Body {
		if d == nil {
			continue
		}
		line := d.Range.Start.Line
		switch {
		case d.Kind.IsStructLike():
			idx.structs[line] = d
			for _, f := range d.Fields {
				setFirst(idx.fields, f.Range.Start.Line, f)
			}
		case d.Kind.IsEnumLike():
			idx.enums[line] = d
			for _, m := range d.Members {
				setFirst(idx.members, m.Range.Start.Line, m)
			}
		case d.Kind == syntax.DeclService:
			idx.services[line] = d
			for _, fn := range d.Functions {
				setFirst(idx.functions, fn.Range.Start.Line, fn)
			}
		case d.Kind == syntax.DeclConst:
			idx.consts[line] = d
			idx.constEnd[line] = d.Range.End.Line
		}
	}
	return idx
}

// setFirst keeps the first node recorded for a line; later nodes on the same
// line are recovered from text.
func setFirst[T any](m map[int]*T, line int, v *T) {
	if _, ok := m[line]; !ok {
		m[line] = v
	}
}

// singleLineDecl returns the struct-like, enum-like or service declaration
// that starts and ends on line.
func (idx *structuralIndex) singleLineDecl(line int) *syntax.Decl {
	for _, m := range []map[int]*syntax.Decl{idx.structs, idx.enums, idx.services} {
		if d, ok := m[line]; ok && d.Range.End.Line == line {
			return d
		}
	}
	return nil
}
