package syntax

import (
	"context"
	"fmt"

	"github.com/kpumuk/thriftfmt/internal/lexer"
	"github.com/kpumuk/thriftfmt/internal/text"
)

// Parse tokenizes and parses src into a Document.
//
// Syntax errors never fail the call; they are recorded in Document.Diagnostics.
// An error is returned only when ctx is done.
func Parse(ctx context.Context, src []byte, opts ParseOptions) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lexed := lexer.Lex(src)
	p := &parser{
		src:   src,
		lines: text.NewLineIndex(src),
		toks:  make([]lexer.Token, 0, len(lexed.Tokens)),
	}
	for _, tok := range lexed.Tokens {
		if tok.Kind != lexer.Error {
			p.toks = append(p.toks, tok)
		}
	}
	for _, d := range lexed.Diagnostics {
		p.diags = append(p.diags, Diagnostic{
			Code:     string(d.Code),
			Message:  d.Message,
			Severity: SeverityError,
			Span:     d.Span,
			Line:     d.Line,
			Source:   "lexer",
		})
	}

	doc := &Document{URI: opts.URI, Source: src, LineIndex: p.lines}
	for !p.at(lexer.EOF) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if decl := p.parseDecl(); decl != nil {
			doc.Body = append(doc.Body, decl)
		}
	}
	doc.Diagnostics = p.diags
	return doc, nil
}

type parser struct {
	src   []byte
	lines *text.LineIndex
	toks  []lexer.Token
	pos   int
	diags []Diagnostic
}

func (p *parser) parseDecl() *Decl {
	switch p.peek().Kind {
	case lexer.KwInclude, lexer.KwCppInclude:
		return p.parseInclude()
	case lexer.KwNamespace:
		return p.parseNamespace()
	case lexer.KwTypedef:
		return p.parseTypedef()
	case lexer.KwConst:
		return p.parseConst()
	case lexer.KwEnum, lexer.KwSenum:
		return p.parseEnum()
	case lexer.KwStruct, lexer.KwUnion, lexer.KwException:
		return p.parseStruct()
	case lexer.KwService:
		return p.parseService()
	default:
		tok := p.next()
		p.errorf(tok, "unexpected %q at top level", tok.Text(p.src))
		p.syncTopLevel()
		return nil
	}
}

func (p *parser) parseInclude() *Decl {
	first := p.next()
	kind := DeclInclude
	if first.Kind == lexer.KwCppInclude {
		kind = DeclCppInclude
	}
	path, ok := p.expect(lexer.StringLiteral, "include path")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	p.separator()
	return &Decl{Kind: kind, Name: path.Text(p.src), Range: p.rangeFrom(first)}
}

func (p *parser) parseNamespace() *Decl {
	first := p.next()
	scope := p.peek()
	if scope.Kind != lexer.Identifier && scope.Kind != lexer.Star {
		p.errorf(scope, "expected namespace scope, found %q", scope.Text(p.src))
		p.syncTopLevel()
		return nil
	}
	p.next()
	name, ok := p.expect(lexer.Identifier, "namespace name")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	d := &Decl{Kind: DeclNamespace, Type: scope.Text(p.src), Name: name.Text(p.src)}
	d.Annotation, ok = p.annotations()
	if !ok {
		p.syncTopLevel()
		return nil
	}
	p.separator()
	d.Range = p.rangeFrom(first)
	return d
}

func (p *parser) parseTypedef() *Decl {
	first := p.next()
	typ, ok := p.typeRef()
	if !ok {
		p.syncTopLevel()
		return nil
	}
	name, ok := p.expect(lexer.Identifier, "typedef name")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	d := &Decl{Kind: DeclTypedef, Type: typ, Name: name.Text(p.src)}
	if d.Annotation, ok = p.annotations(); !ok {
		p.syncTopLevel()
		return nil
	}
	p.separator()
	d.Range = p.rangeFrom(first)
	return d
}

func (p *parser) parseConst() *Decl {
	first := p.next()
	typ, ok := p.typeRef()
	if !ok {
		p.syncTopLevel()
		return nil
	}
	name, ok := p.expect(lexer.Identifier, "const name")
	if !ok {
		p.syncTopLevel()
		return nil
	}
	if _, ok := p.expect(lexer.Equal, "'='"); !ok {
		p.syncTopLevel()
		return nil
	}
	valueStart := p.peek()
	if !p.constValue() {
		p.syncTopLevel()
		return nil
	}
	d := &Decl{Kind: DeclConst, Type: typ, Name: name.Text(p.src), Value: p.rawFrom(valueStart)}
	p.separator()
	d.Range = p.rangeFrom(first)
	return d
}

func (p *parser) parseEnum() *Decl {
	first := p.next()
	d := &Decl{Kind: DeclEnum}
	if first.Kind == lexer.KwSenum {
		d.Kind = DeclSenum
	}
	if !p.header(d, "enum") {
		return nil
	}
	p.body(first, func() bool {
		m, ok := p.enumMember(d.Kind == DeclSenum)
		if ok {
			d.Members = append(d.Members, m)
		}
		return ok
	})
	p.finish(first, d)
	return d
}

func (p *parser) parseStruct() *Decl {
	first := p.next()
	d := &Decl{Kind: DeclStruct}
	switch first.Kind {
	case lexer.KwUnion:
		d.Kind = DeclUnion
	case lexer.KwException:
		d.Kind = DeclException
	}
	if !p.header(d, d.Kind.String()) {
		return nil
	}
	p.body(first, func() bool {
		f, ok := p.field()
		if ok {
			d.Fields = append(d.Fields, f)
		}
		return ok
	})
	p.finish(first, d)
	return d
}

func (p *parser) parseService() *Decl {
	first := p.next()
	d := &Decl{Kind: DeclService}
	if !p.header(d, "service") {
		return nil
	}
	p.body(first, func() bool {
		fn, ok := p.function()
		if ok {
			d.Functions = append(d.Functions, fn)
		}
		return ok
	})
	p.finish(first, d)
	return d
}

// header parses "<name> [extends <base>] [xsd_all] {".
func (p *parser) header(d *Decl, what string) bool {
	name, ok := p.expect(lexer.Identifier, what+" name")
	if !ok {
		p.syncTopLevel()
		return false
	}
	d.Name = name.Text(p.src)
	if _, ok := p.accept(lexer.KwExtends); ok {
		base, ok := p.expect(lexer.Identifier, "base service")
		if !ok {
			p.syncTopLevel()
			return false
		}
		d.Extends = base.Text(p.src)
	}
	if tok := p.peek(); tok.Kind == lexer.Identifier && tok.Text(p.src) == "xsd_all" {
		p.next()
	}
	if _, ok := p.expect(lexer.LBrace, "'{'"); !ok {
		p.syncTopLevel()
		return false
	}
	return true
}

// body parses members until '}' recovering from broken members line by line.
func (p *parser) body(opener lexer.Token, member func() bool) {
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) && !p.peek().Kind.IsDefinition() {
		start := p.pos
		if !member() {
			p.recoverMember(start, lexer.RBrace)
		}
	}
	if _, ok := p.accept(lexer.RBrace); !ok {
		p.report(DiagnosticUnclosedBlock, opener, fmt.Sprintf("%q body is not closed", opener.Text(p.src)))
	}
}

func (p *parser) finish(first lexer.Token, d *Decl) {
	if ann, ok := p.annotations(); ok {
		d.Annotation = ann
	}
	p.separator()
	d.Range = p.rangeFrom(first)
}

func (p *parser) field() (*Field, bool) {
	first := p.peek()
	f := &Field{}
	if p.at(lexer.IntLiteral) || p.at(lexer.Minus) {
		idStart := p.peek()
		p.accept(lexer.Minus)
		if _, ok := p.expect(lexer.IntLiteral, "field id"); !ok {
			return nil, false
		}
		f.ID = p.rawFrom(idStart)
		if _, ok := p.expect(lexer.Colon, "':'"); !ok {
			return nil, false
		}
	}
	if tok, ok := p.accept(lexer.KwRequired); ok {
		f.Qualifier = tok.Text(p.src)
	} else if tok, ok := p.accept(lexer.KwOptional); ok {
		f.Qualifier = tok.Text(p.src)
	}

	var ok bool
	if f.Type, ok = p.typeRef(); !ok {
		return nil, false
	}
	name, ok := p.expect(lexer.Identifier, "field name")
	if !ok {
		return nil, false
	}
	f.Name = name.Text(p.src)
	if _, ok := p.accept(lexer.Equal); ok {
		valueStart := p.peek()
		if !p.constValue() {
			return nil, false
		}
		f.Default = p.rawFrom(valueStart)
	}
	if f.Annotation, ok = p.annotations(); !ok {
		return nil, false
	}
	f.Separator = p.separator()
	f.Range = p.rangeFrom(first)
	return f, true
}

func (p *parser) enumMember(senum bool) (*EnumMember, bool) {
	first := p.peek()
	m := &EnumMember{}
	if senum {
		tok, ok := p.expect(lexer.StringLiteral, "senum value")
		if !ok {
			return nil, false
		}
		m.Name = tok.Text(p.src)
	} else {
		tok, ok := p.expect(lexer.Identifier, "enum member")
		if !ok {
			return nil, false
		}
		m.Name = tok.Text(p.src)
		if _, ok := p.accept(lexer.Equal); ok {
			valueStart := p.peek()
			p.accept(lexer.Minus)
			if _, ok := p.expect(lexer.IntLiteral, "enum value"); !ok {
				return nil, false
			}
			m.Value = p.rawFrom(valueStart)
		}
	}
	var ok bool
	if m.Annotation, ok = p.annotations(); !ok {
		return nil, false
	}
	m.Separator = p.separator()
	m.Range = p.rangeFrom(first)
	return m, true
}

func (p *parser) function() (*Function, bool) {
	first := p.peek()
	fn := &Function{}
	if _, ok := p.accept(lexer.KwOneway); ok {
		fn.Oneway = true
	} else if _, ok := p.accept(lexer.KwAsync); ok {
		fn.Oneway = true
	}
	var ok bool
	if fn.ReturnType, ok = p.typeRef(); !ok {
		return nil, false
	}
	name, ok := p.expect(lexer.Identifier, "function name")
	if !ok {
		return nil, false
	}
	fn.Name = name.Text(p.src)
	if fn.Params, ok = p.paramList(); !ok {
		return nil, false
	}
	if _, ok := p.accept(lexer.KwThrows); ok {
		if fn.Throws, ok = p.paramList(); !ok {
			return nil, false
		}
	}
	if fn.Annotation, ok = p.annotations(); !ok {
		return nil, false
	}
	p.separator()
	fn.Range = p.rangeFrom(first)
	return fn, true
}

func (p *parser) paramList() ([]*Field, bool) {
	if _, ok := p.expect(lexer.LParen, "'('"); !ok {
		return nil, false
	}
	var out []*Field
	for !p.at(lexer.RParen) {
		f, ok := p.field()
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	p.next()
	return out, true
}

// typeRef consumes a type reference and returns its source text.
func (p *parser) typeRef() (string, bool) {
	start, ok := p.expect(lexer.Identifier, "type")
	if !ok {
		return "", false
	}
	if p.at(lexer.LAngle) {
		depth := 0
		for {
			tok := p.next()
			switch tok.Kind {
			case lexer.LAngle:
				depth++
			case lexer.RAngle:
				depth--
			case lexer.EOF, lexer.LBrace, lexer.RBrace, lexer.Semi:
				p.errorf(tok, "unterminated type arguments")
				return "", false
			}
			if depth == 0 {
				break
			}
		}
	}
	return p.rawFrom(start), true
}

func (p *parser) constValue() bool {
	tok := p.peek()
	switch tok.Kind {
	case lexer.IntLiteral, lexer.FloatLiteral, lexer.StringLiteral, lexer.Identifier:
		p.next()
		return true
	case lexer.Plus, lexer.Minus:
		p.next()
		if p.at(lexer.IntLiteral) || p.at(lexer.FloatLiteral) {
			p.next()
			return true
		}
	case lexer.LBracket:
		p.next()
		for !p.at(lexer.RBracket) {
			if !p.constValue() {
				return false
			}
			p.separator()
		}
		p.next()
		return true
	case lexer.LBrace:
		p.next()
		for !p.at(lexer.RBrace) {
			if !p.constValue() {
				return false
			}
			if _, ok := p.expect(lexer.Colon, "':'"); !ok {
				return false
			}
			if !p.constValue() {
				return false
			}
			p.separator()
		}
		p.next()
		return true
	}
	p.errorf(tok, "expected constant value, found %q", tok.Text(p.src))
	return false
}

// annotations consumes an optional "(key = value, ...)" clause.
func (p *parser) annotations() (string, bool) {
	if !p.at(lexer.LParen) {
		return "", true
	}
	start := p.next()
	for !p.at(lexer.RParen) {
		if _, ok := p.expect(lexer.Identifier, "annotation name"); !ok {
			return "", false
		}
		if _, ok := p.accept(lexer.Equal); ok && !p.constValue() {
			return "", false
		}
		p.separator()
	}
	p.next()
	return p.rawFrom(start), true
}

func (p *parser) separator() string {
	if _, ok := p.accept(lexer.Comma); ok {
		return ","
	}
	if _, ok := p.accept(lexer.Semi); ok {
		return ";"
	}
	return ""
}

// recoverMember skips the rest of the line where a broken member started.
func (p *parser) recoverMember(start int, closer lexer.Kind) {
	line := p.toks[start].Line
	if p.pos == start && !p.at(closer) && !p.at(lexer.EOF) {
		p.next()
	}
	for !p.at(lexer.EOF) && !p.at(closer) && p.peek().Line <= line && !p.peek().Kind.IsDefinition() {
		p.next()
	}
}

func (p *parser) syncTopLevel() {
	for !p.at(lexer.EOF) && !p.peek().Kind.IsDefinition() {
		p.next()
	}
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) at(kind lexer.Kind) bool {
	return p.peek().Kind == kind
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kind lexer.Kind) (lexer.Token, bool) {
	if !p.at(kind) {
		return lexer.Token{}, false
	}
	return p.next(), true
}

func (p *parser) expect(kind lexer.Kind, what string) (lexer.Token, bool) {
	if tok, ok := p.accept(kind); ok {
		return tok, true
	}
	tok := p.peek()
	found := tok.Text(p.src)
	if tok.Kind == lexer.EOF {
		found = "end of file"
	}
	p.errorf(tok, "expected %s, found %q", what, found)
	return tok, false
}

func (p *parser) last() lexer.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *parser) rawFrom(first lexer.Token) string {
	end := p.last().Span.End
	if end < first.Span.Start {
		return ""
	}
	return string(p.src[first.Span.Start:end])
}

func (p *parser) rangeFrom(first lexer.Token) text.Range {
	return text.Range{Start: p.point(first.Span.Start), End: p.point(p.last().Span.End)}
}

func (p *parser) point(off text.ByteOffset) text.Point {
	pt, err := p.lines.OffsetToPoint(off)
	if err != nil {
		return text.Point{}
	}
	return pt
}

func (p *parser) errorf(tok lexer.Token, format string, args ...any) {
	p.report(DiagnosticUnexpectedToken, tok, fmt.Sprintf(format, args...))
}

func (p *parser) report(code DiagnosticCode, tok lexer.Token, msg string) {
	p.diags = append(p.diags, Diagnostic{
		Code:     string(code),
		Message:  msg,
		Severity: SeverityError,
		Span:     tok.Span,
		Line:     tok.Line,
		Source:   "parser",
	})
}
