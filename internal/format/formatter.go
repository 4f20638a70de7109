package format

import (
	"strings"

	"github.com/kpumuk/thriftfmt/internal/syntax"
)

// scanState is the orchestrator state for one formatting pass. It is owned by
// a single call and never shared.
type scanState struct {
	opts  Options
	idx   *structuralIndex
	lines []string
	base  int // document line of lines[0]
	out   []string

	indentLevel        int
	inStruct           bool
	inEnum             bool
	inService          bool
	serviceIndentLevel int
	serviceParenDepth  int

	pendingStruct    []structField
	pendingEnum      []enumField
	pendingConst     []constField
	inConstBlock     bool
	constIndentLevel int
}

func newScanState(lines []string, base int, idx *structuralIndex, opts Options) *scanState {
	s := &scanState{opts: opts, idx: idx, lines: lines, base: base}
	if c := opts.InitialContext; c != nil {
		s.indentLevel = max(c.IndentLevel, 0)
		s.inStruct = c.InStruct
		s.inEnum = c.InEnum && !c.InStruct
		s.inService = c.InService && !c.InStruct && !c.InEnum
		if s.inService {
			s.serviceIndentLevel = s.indentLevel
		}
	}
	return s
}

// formatLines formats lines, whose first element is document line base, and
// returns the output lines without trailing whitespace.
func formatLines(lines []string, base int, idx *structuralIndex, opts Options) []string {
	s := newScanState(lines, base, idx, opts)
	s.run()
	for i, l := range s.out {
		s.out[i] = strings.TrimRight(l, " \t")
	}
	return s.out
}

func (s *scanState) run() {
	for i := 0; i < len(s.lines); {
		i += s.step(i)
	}
	s.flushStruct()
	s.flushEnum()
	s.flushConst()
}

// context reports the block state after the lines scanned so far.
func (s *scanState) context() *Context {
	c := &Context{
		IndentLevel: s.indentLevel,
		InStruct:    s.inStruct,
		InEnum:      s.inEnum,
		InService:   s.inService,
	}
	if s.inService {
		c.IndentLevel = s.serviceIndentLevel
	}
	return c
}

// step handles lines[i] and returns the number of lines consumed.
func (s *scanState) step(i int) int {
	abs := s.base + i
	trimmed := strings.TrimSpace(s.lines[i])
	code, comment := splitLineComment(trimmed)
	code = strings.TrimSpace(code)
	comment = strings.TrimSpace(comment)

	if len(s.pendingStruct) > 0 && !s.isStructFieldLine(abs, code) && !isCloser(code) {
		s.flushStruct()
	}
	if len(s.pendingEnum) > 0 && !s.isEnumFieldLine(abs, code) && !isCloser(code) {
		s.flushEnum()
	}
	if s.inConstBlock && !startsWithKeyword(code, "const") {
		s.flushConst()
	}

	if strings.HasPrefix(trimmed, "/*") {
		if out, n := reflowBlockComment(s.lines, i, s.commentLevel(), s.opts); n > 0 {
			s.flushConst()
			s.out = append(s.out, out...)
			return n
		}
	}

	if trimmed == "" {
		s.out = append(s.out, "")
		return 1
	}
	if code == "" {
		s.emit(s.commentLevel(), trimmed)
		return 1
	}

	if n := s.handleConst(i, abs, code); n > 0 {
		return n
	}

	if startsWithKeyword(code, "typedef") {
		s.emit(s.indentLevel, normalizeGenericsInSignature(trimmed))
		return 1
	}

	kind := blockKindOf(code)
	if kind != blockNone && isInlineBody(code) {
		s.closeOpenBlock()
		s.out = append(s.out, expandInline(kind, trimmed, s.indentLevel, s.opts)...)
		return 1
	}
	if d := s.idx.singleLineDecl(abs); d != nil && isInlineBody(code) {
		s.closeOpenBlock()
		s.out = append(s.out, expandInline(declBlockKind(d), trimmed, s.indentLevel, s.opts)...)
		return 1
	}

	if kind == blockNone {
		kind = s.indexedBlockKind(abs)
	}
	if kind != blockNone {
		s.closeOpenBlock()
		s.openBlock(kind, code, comment)
		return 1
	}

	if code == "{" {
		level := max(s.indentLevel-1, 0)
		if s.inService {
			level = s.serviceIndentLevel
		}
		s.emit(level, trimmed)
		return 1
	}

	switch {
	case s.inStruct:
		return s.structContent(i, abs, trimmed, code, comment)
	case s.inEnum:
		return s.enumContent(i, abs, trimmed, code, comment)
	case s.inService:
		return s.serviceContent(abs, trimmed, code, comment)
	}

	s.emit(s.indentLevel, trimmed)
	return 1
}

func (s *scanState) emit(level int, line string) {
	s.out = append(s.out, s.opts.indent(level)+line)
}

// commentLevel is the indentation of standalone comments.
func (s *scanState) commentLevel() int {
	if s.inService {
		return s.serviceIndentLevel + 1
	}
	return s.indentLevel
}

func (s *scanState) handleConst(i, abs int, code string) int {
	if !startsWithKeyword(code, "const") {
		return 0
	}
	var f constField
	ok := false
	n := 1
	if _, indexed := s.idx.consts[abs]; indexed {
		end := min(max(s.idx.constEnd[abs]-s.base, i), len(s.lines)-1)
		if f, ok = parseConstField(s.lines, i, end); ok {
			n = end - i + 1
		}
	}
	if !ok {
		f, ok = parseConstFieldText(s.lines[i])
	}
	if !ok {
		s.flushConst()
		return 0
	}

	if !s.inConstBlock {
		s.inConstBlock = true
		s.constIndentLevel = 0
		if s.inStruct || s.inEnum || s.inService {
			s.constIndentLevel = s.indentLevel
		}
	}
	s.pendingConst = append(s.pendingConst, f)
	return n
}

// openBlock emits a multi-line definition header and enters its body.
func (s *scanState) openBlock(kind blockKind, code, comment string) {
	var header, rest string
	if open, _ := braceIndexes(code); open >= 0 {
		header = normalizeHeader(code[:open]) + " {"
		rest = strings.TrimSpace(code[open+1:])
	} else {
		header = normalizeHeader(code)
	}
	if comment != "" {
		header += " " + comment
	}
	s.emit(s.indentLevel, header)

	switch kind {
	case blockStruct:
		s.indentLevel++
		s.inStruct = true
	case blockEnum:
		s.indentLevel++
		s.inEnum = true
	case blockService:
		s.inService = true
		s.serviceIndentLevel = s.indentLevel
		s.serviceParenDepth = 0
	}

	if rest != "" {
		s.bodyRemainder(rest)
	}
}

// bodyRemainder handles members written on the header line after '{'.
func (s *scanState) bodyRemainder(rest string) {
	switch {
	case s.inStruct:
		s.structContent(-1, -1, rest, rest, "")
	case s.inEnum:
		s.enumContent(-1, -1, rest, rest, "")
	case s.inService:
		s.serviceContent(-1, rest, rest, "")
	}
}

// closeOpenBlock ends a block that was left open when a new definition starts.
func (s *scanState) closeOpenBlock() {
	s.flushStruct()
	s.flushEnum()
	s.flushConst()
	if s.inStruct || s.inEnum {
		s.indentLevel = max(s.indentLevel-1, 0)
	}
	s.inStruct, s.inEnum, s.inService = false, false, false
	s.serviceParenDepth = 0
}

func (s *scanState) closeLine(level int, code, comment string) {
	s.emit(level, closerLine(strings.TrimSpace(code)[1:], comment))
}

func (s *scanState) structContent(i, abs int, trimmed, code, comment string) int {
	if isCloser(code) {
		s.flushStruct()
		s.indentLevel = max(s.indentLevel-1, 0)
		s.inStruct = false
		s.closeLine(s.indentLevel, code, comment)
		return 1
	}

	f := s.astField(abs, code)
	if f != nil && f.Range.End.Line > abs && i >= 0 {
		return s.emitMultiline(i, f.Range.End.Line-s.base)
	}
	if parts, ok := splitMembers(code, blockStruct); ok {
		for j, p := range parts {
			sf, _ := parseStructFieldText(p.text + p.separator)
			if j == len(parts)-1 {
				sf.comment = comment
			}
			s.pendingStruct = append(s.pendingStruct, sf)
		}
		return 1
	}
	if f != nil {
		if sf := buildStructFieldFromAST(trimmed, f); sf.covers(code) {
			s.pendingStruct = append(s.pendingStruct, sf)
			return 1
		}
	}
	if isStructFieldText(code) {
		if sf, ok := parseStructFieldText(trimmed); ok && sf.covers(code) {
			s.pendingStruct = append(s.pendingStruct, sf)
			return 1
		}
	}

	s.flushStruct()
	if strings.Contains(code, "(") {
		s.emit(s.indentLevel, normalizeGenericsInSignature(trimmed))
		return 1
	}
	s.emit(s.indentLevel, trimmed)
	return 1
}

func (s *scanState) enumContent(i, abs int, trimmed, code, comment string) int {
	if isCloser(code) {
		s.flushEnum()
		s.indentLevel = max(s.indentLevel-1, 0)
		s.inEnum = false
		s.closeLine(s.indentLevel, code, comment)
		return 1
	}

	m := s.astMember(abs, code)
	if m != nil && m.Range.End.Line > abs && i >= 0 {
		return s.emitMultiline(i, m.Range.End.Line-s.base)
	}
	if parts, ok := splitMembers(code, blockEnum); ok {
		for j, p := range parts {
			ef, _ := parseEnumFieldText(p.text + p.separator)
			if j == len(parts)-1 {
				ef.comment = comment
			}
			s.pendingEnum = append(s.pendingEnum, ef)
		}
		return 1
	}
	if m != nil {
		if ef := buildEnumFieldFromAST(trimmed, m); ef.covers(code) {
			s.pendingEnum = append(s.pendingEnum, ef)
			return 1
		}
	}
	if isEnumFieldText(code) {
		if ef, ok := parseEnumFieldText(trimmed); ok && ef.covers(code) {
			s.pendingEnum = append(s.pendingEnum, ef)
			return 1
		}
	}

	s.flushEnum()
	s.emit(s.indentLevel, trimmed)
	return 1
}

func (s *scanState) serviceContent(abs int, trimmed, code, comment string) int {
	if _, ok := s.idx.functions[abs]; ok {
		s.serviceParenDepth = 0
	}
	if s.serviceParenDepth == 0 && isCloser(code) {
		s.inService = false
		s.closeLine(s.serviceIndentLevel, code, comment)
		return 1
	}

	level := s.serviceIndentLevel + 1
	if s.serviceParenDepth > 0 && !strings.HasPrefix(code, ")") {
		level++
	}
	s.emit(level, normalizeGenericsInSignature(trimmed))
	s.serviceParenDepth = max(s.serviceParenDepth+parenDelta(code), 0)
	return 1
}

// emitMultiline re-indents a member that spans lines[i..end] by bracket depth.
func (s *scanState) emitMultiline(i, end int) int {
	s.flushStruct()
	s.flushEnum()
	end = min(max(end, i), len(s.lines)-1)
	value := make([]string, 0, end-i+1)
	for _, l := range s.lines[i : end+1] {
		value = append(value, strings.TrimSpace(l))
	}
	s.emit(s.indentLevel, value[0])
	s.out = append(s.out, reindentContinuation(strings.Join(value, "\n"), s.indentLevel, s.opts)...)
	return end - i + 1
}

func (s *scanState) astField(abs int, code string) *syntax.Field {
	if abs < 0 || strings.Contains(code, "/*") {
		return nil
	}
	return s.idx.fields[abs]
}

func (s *scanState) astMember(abs int, code string) *syntax.EnumMember {
	if abs < 0 || strings.Contains(code, "/*") {
		return nil
	}
	return s.idx.members[abs]
}

func (s *scanState) isStructFieldLine(abs int, code string) bool {
	if s.astField(abs, code) != nil || isStructFieldText(code) {
		return true
	}
	_, ok := splitMembers(code, blockStruct)
	return ok
}

func (s *scanState) isEnumFieldLine(abs int, code string) bool {
	if s.astMember(abs, code) != nil || isEnumFieldText(code) {
		return true
	}
	_, ok := splitMembers(code, blockEnum)
	return ok
}

// indexedBlockKind reports the kind of a multi-line declaration the parser
// found starting on line.
func (s *scanState) indexedBlockKind(line int) blockKind {
	switch {
	case s.idx.structs[line] != nil:
		return blockStruct
	case s.idx.enums[line] != nil:
		return blockEnum
	case s.idx.services[line] != nil:
		return blockService
	}
	return blockNone
}

func (s *scanState) flushStruct() {
	if len(s.pendingStruct) == 0 {
		return
	}
	s.out = append(s.out, renderStructFields(s.pendingStruct, s.indentLevel, s.opts)...)
	s.pendingStruct = nil
}

func (s *scanState) flushEnum() {
	if len(s.pendingEnum) == 0 {
		return
	}
	s.out = append(s.out, renderEnumFields(s.pendingEnum, s.indentLevel, s.opts)...)
	s.pendingEnum = nil
}

func (s *scanState) flushConst() {
	if len(s.pendingConst) > 0 {
		s.out = append(s.out, renderConstFields(s.pendingConst, s.constIndentLevel, s.opts)...)
		s.pendingConst = nil
	}
	s.inConstBlock = false
}

// splitMembers splits a line holding several members of kind. ok is false
// unless there are at least two parts and every part parses.
func splitMembers(code string, kind blockKind) ([]part, bool) {
	if strings.Contains(code, "/*") {
		return nil, false
	}
	parts := splitTopLevelPartsWithSeparators(code)
	if len(parts) < 2 {
		return nil, false
	}
	for _, p := range parts {
		switch kind {
		case blockStruct:
			if !isStructFieldText(p.text) {
				return nil, false
			}
			if _, ok := parseStructFieldText(p.text); !ok {
				return nil, false
			}
		case blockEnum:
			if _, ok := parseEnumFieldText(p.text); !ok {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return parts, true
}

func declBlockKind(d *syntax.Decl) blockKind {
	switch {
	case d.Kind.IsStructLike():
		return blockStruct
	case d.Kind.IsEnumLike():
		return blockEnum
	case d.Kind == syntax.DeclService:
		return blockService
	}
	return blockNone
}

// startsWithKeyword reports whether code begins with kw followed by
// whitespace or end of line.
func startsWithKeyword(code, kw string) bool {
	rest, ok := strings.CutPrefix(code, kw)
	return ok && (rest == "" || isSpace(rest[0]))
}

// splitLines splits content on "\n", dropping a "\r" before each break.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
