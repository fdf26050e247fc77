package fixture

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"forscape/internal/ast"
	"forscape/internal/diag"
	"forscape/internal/settings"
	"forscape/internal/source"
	"forscape/internal/symbols"
)

// Load reads path into fs and builds the unit.
func Load(fs *source.FileSet, path string, reporter diag.Reporter) (*Unit, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return Parse(fs, id, reporter)
}

// Parse builds the unit stored in file id of fs. Syntax errors are
// returned as errors; naming and structure mistakes are reported and make
// Parse return ErrInvalid together with the partially built unit.
func Parse(fs *source.FileSet, id source.FileID, reporter diag.Reporter) (*Unit, error) {
	file := fs.Get(id)
	if file == nil {
		return nil, fmt.Errorf("fixture: unknown file %d", id)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(file.Content, &doc); err != nil {
		return nil, fmt.Errorf("fixture: parse %s: %w", file.Path, err)
	}

	l := &loader{
		fs:       fs,
		file:     file,
		reporter: reporter,
		tree:     ast.NewTree(uint(len(file.Content) / 4)),
		b:        symbols.NewBuilder(nil),
	}
	unit := &Unit{
		Name: strings.TrimSuffix(filepath.Base(file.Path), Ext),
		File: id,
		Tree: l.tree,
	}
	l.unit = unit

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.MappingNode {
		l.unitMapping(root)
	} else {
		l.invalid(root, "a unit must be a mapping with a 'body' sequence")
		l.tree.SetRoot(l.tree.NewNary(ast.OpBlock).Finalize(l.span(root)))
	}

	table, err := l.b.Finish()
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", file.Path, err)
	}
	unit.Table = table
	if l.errors > 0 {
		return unit, fmt.Errorf("%w: %d error(s) in %s", ErrInvalid, l.errors, file.Path)
	}
	return unit, nil
}

type loader struct {
	fs       *source.FileSet
	file     *source.File
	reporter diag.Reporter
	tree     *ast.Tree
	b        *symbols.Builder
	unit     *Unit
	errors   int
}

func (l *loader) unitMapping(m *yaml.Node) {
	body := ast.NoNodeID
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i], m.Content[i+1]
		switch key.Value {
		case "unit":
			if value.Kind == yaml.ScalarNode && value.Value != "" {
				l.unit.Name = value.Value
			}
		case "warnings":
			for _, o := range l.warnings(value) {
				l.b.Override(o.Category, o.Level)
			}
		case "body":
			body = l.statements(value, ast.OpBlock)
		default:
			l.invalid(key, fmt.Sprintf("unknown unit key %q", key.Value))
		}
	}
	if !body.IsValid() {
		body = l.tree.NewNary(ast.OpBlock).Finalize(l.span(m))
	}
	l.tree.SetRoot(body)
}

// statements builds an n-ary node from a sequence of statements.
func (l *loader) statements(seq *yaml.Node, op ast.Op) ast.NodeID {
	list := l.tree.NewNary(op)
	if seq.Kind == yaml.ScalarNode && seq.ShortTag() == "!!null" {
		return list.Finalize(l.span(seq))
	}
	if seq.Kind != yaml.SequenceNode {
		l.invalid(seq, "expected a sequence of statements")
		return list.Finalize(l.span(seq))
	}
	for _, item := range seq.Content {
		if n := l.statement(item); n.IsValid() {
			list.Add(n)
		}
	}
	return list.Finalize(l.span(seq))
}

type stmtKeys struct {
	kind      string
	kindKey   *yaml.Node
	kindValue *yaml.Node
	fields    map[string]*yaml.Node
}

var statementKinds = map[string][]string{
	"let":       {"value"},
	"read":      nil,
	"call":      {"args"},
	"algorithm": {"params", "captures", "body"},
	"lambda":    {"params", "captures", "body"},
	"block":     {"warnings"},
}

func (l *loader) splitStatement(m *yaml.Node) (stmtKeys, bool) {
	var s stmtKeys
	s.fields = make(map[string]*yaml.Node)
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i], m.Content[i+1]
		if _, ok := statementKinds[key.Value]; ok {
			if s.kindKey != nil {
				l.invalid(key, fmt.Sprintf("statement has both %q and %q", s.kind, key.Value))
				return s, false
			}
			s.kind, s.kindKey, s.kindValue = key.Value, key, value
			continue
		}
		s.fields[key.Value] = value
	}
	if s.kindKey == nil {
		l.invalid(m, "statement needs one of let, read, call, algorithm, lambda or block")
		return s, false
	}
	allowed := statementKinds[s.kind]
	for name, value := range s.fields {
		if !contains(allowed, name) {
			l.invalid(value, fmt.Sprintf("%q is not valid in a %s statement", name, s.kind))
			return s, false
		}
	}
	return s, true
}

func (l *loader) statement(item *yaml.Node) ast.NodeID {
	if item.Kind != yaml.MappingNode {
		l.invalid(item, "a statement must be a mapping")
		return ast.NoNodeID
	}
	s, ok := l.splitStatement(item)
	if !ok {
		return ast.NoNodeID
	}
	switch s.kind {
	case "let":
		return l.let(s)
	case "read":
		return l.read(s.kindValue)
	case "call":
		return l.call(s)
	case "algorithm":
		return l.algorithm(s)
	case "lambda":
		return l.lambda(s)
	case "block":
		return l.block(s)
	}
	return ast.NoNodeID
}

// let evaluates the optional value before binding the name, so
// `let: x, value: x` reads the outer x.
func (l *loader) let(s stmtKeys) ast.NodeID {
	rhs := ast.NoNodeID
	if v, ok := s.fields["value"]; ok {
		rhs = l.value(v)
	}
	decl := l.declare(s.kindValue, symbols.SymbolLet)
	if !decl.IsValid() {
		return ast.NoNodeID
	}
	if !rhs.IsValid() {
		return decl
	}
	return l.tree.AddNode(ast.OpAssign, l.span(s.kindKey).Cover(l.tree.Span(rhs)), decl, rhs)
}

func (l *loader) value(v *yaml.Node) ast.NodeID {
	if v.Kind == yaml.ScalarNode && (v.ShortTag() == "!!int" || v.ShortTag() == "!!float") {
		return l.tree.AddTerminal(ast.OpNumber, l.span(v))
	}
	return l.read(v)
}

func (l *loader) call(s stmtKeys) ast.NodeID {
	callee := l.read(s.kindValue)
	list := l.tree.NewNary(ast.OpCall)
	list.Add(callee)
	if args, ok := s.fields["args"]; ok {
		for _, a := range l.sequence(args) {
			list.Add(l.value(a))
		}
	}
	return list.Finalize(l.span(s.kindKey))
}

func (l *loader) algorithm(s stmtKeys) ast.NodeID {
	name := l.name(s.kindValue)
	if name == "" {
		return ast.NoNodeID
	}
	nameID := l.b.Strings().Intern(name)
	if prev, ok := l.b.LookupLocal(nameID); ok {
		if sym := l.b.Symbol(prev); sym != nil && sym.Kind != symbols.SymbolAlgorithm {
			l.redeclared(s.kindValue, name, sym.Span)
			return ast.NoNodeID
		}
	}
	sp := l.span(s.kindValue)
	nameNode := l.tree.AddTerminal(ast.OpIdentifier, sp)
	sym := l.b.Declare(nameID, symbols.SymbolAlgorithm, nameNode, sp)
	l.tree.SetSym(nameNode, uint32(sym))

	fn := l.tree.AddNode(ast.OpAlgorithm, l.span(s.kindKey))
	l.tree.SetArg(fn, ast.AlgorithmNameArg, nameNode)
	l.closure(fn, s, ast.AlgorithmParamsArg, ast.AlgorithmBodyArg, ast.AlgorithmCapturedArg)
	l.unit.Algorithms = append(l.unit.Algorithms, Algorithm{Symbol: sym, Node: fn})
	return fn
}

func (l *loader) lambda(s stmtKeys) ast.NodeID {
	if s.kindValue.Kind != yaml.ScalarNode || s.kindValue.ShortTag() != "!!null" {
		l.invalid(s.kindValue, "lambda takes no value; put params, captures and body next to it")
	}
	fn := l.tree.AddNode(ast.OpLambda, l.span(s.kindKey))
	l.closure(fn, s, ast.LambdaParamsArg, ast.LambdaBodyArg, ast.LambdaCapturedArg)
	return fn
}

// closure reads the captured names in the enclosing scope, then opens the
// closure scope and binds captures and parameters inside it.
func (l *loader) closure(fn ast.NodeID, s stmtKeys, paramsArg, bodyArg, capturedArg int) {
	type capture struct {
		node  *yaml.Node
		name  string
		outer ast.NodeID
	}
	var caps []capture
	if v, ok := s.fields["captures"]; ok {
		for _, c := range l.sequence(v) {
			outer := l.read(c)
			if !outer.IsValid() {
				continue
			}
			if sym := l.b.Symbol(symbols.SymbolID(l.tree.Sym(outer))); sym != nil && sym.DeclClosureDepth == 0 {
				diag.ReportWarning(l.reporter, diag.UnitCaptureGlobal, l.span(c),
					fmt.Sprintf("%q is a global; capturing it copies its current value", c.Value)).Emit()
			}
			caps = append(caps, capture{node: c, name: l.name(c), outer: outer})
		}
	}

	l.b.OpenScope(fn)

	captured := l.tree.NewList()
	for _, c := range caps {
		nameID := l.b.Strings().Intern(c.name)
		if prev, ok := l.b.LookupLocal(nameID); ok {
			l.redeclared(c.node, c.name, l.b.Symbol(prev).Span)
			continue
		}
		sp := l.span(c.node)
		inner := l.tree.AddTerminal(ast.OpIdentifier, sp)
		sym := l.b.DeclareCaptured(nameID, inner, sp)
		l.tree.SetSym(inner, uint32(sym))
		captured.Add(l.tree.AddNode(ast.OpAssign, sp, inner, c.outer))
	}

	params := l.tree.NewList()
	if v, ok := s.fields["params"]; ok {
		for _, p := range l.sequence(v) {
			if n := l.declare(p, symbols.SymbolParam); n.IsValid() {
				params.Add(n)
			}
		}
	}

	body := ast.NoNodeID
	if v, ok := s.fields["body"]; ok {
		body = l.statements(v, ast.OpBlock)
	} else {
		body = l.tree.NewNary(ast.OpBlock).Finalize(l.span(s.kindKey))
	}

	l.b.CloseScope()

	span := l.span(s.kindKey)
	l.tree.SetArg(fn, paramsArg, params.Finalize(span))
	l.tree.SetArg(fn, bodyArg, body)
	l.tree.SetArg(fn, capturedArg, captured.Finalize(span))
}

func (l *loader) block(s stmtKeys) ast.NodeID {
	l.b.OpenScope(ast.NoNodeID)
	if v, ok := s.fields["warnings"]; ok {
		for _, o := range l.warnings(v) {
			l.b.Override(o.Category, o.Level)
		}
	}
	n := l.statements(s.kindValue, ast.OpBlock)
	l.b.CloseScope()
	return n
}

func (l *loader) declare(v *yaml.Node, kind symbols.SymbolKind) ast.NodeID {
	name := l.name(v)
	if name == "" {
		return ast.NoNodeID
	}
	nameID := l.b.Strings().Intern(name)
	if prev, ok := l.b.LookupLocal(nameID); ok {
		l.redeclared(v, name, l.b.Symbol(prev).Span)
		return ast.NoNodeID
	}
	sp := l.span(v)
	n := l.tree.AddTerminal(ast.OpIdentifier, sp)
	sym := l.b.Declare(nameID, kind, n, sp)
	l.tree.SetSym(n, uint32(sym))
	return n
}

func (l *loader) read(v *yaml.Node) ast.NodeID {
	name := l.name(v)
	if name == "" {
		return ast.NoNodeID
	}
	sym, ok := l.b.Lookup(l.b.Strings().Intern(name))
	if !ok {
		l.errors++
		diag.ReportError(l.reporter, diag.UnitUndeclared, l.span(v),
			fmt.Sprintf("undeclared identifier %q", name)).Emit()
		return ast.NoNodeID
	}
	n := l.tree.AddTerminal(ast.OpIdentifier, l.span(v))
	l.tree.SetSym(n, uint32(sym))
	l.b.Read(sym, n)
	return n
}

// name validates an identifier scalar and returns it in NFC form.
func (l *loader) name(v *yaml.Node) string {
	if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
		l.invalid(v, "expected an identifier")
		return ""
	}
	name := norm.NFC.String(strings.TrimSpace(v.Value))
	if !isIdentifier(name) {
		l.invalid(v, fmt.Sprintf("%q is not a valid identifier", v.Value))
		return ""
	}
	return name
}

// sequence accepts a sequence or a single scalar.
func (l *loader) sequence(v *yaml.Node) []*yaml.Node {
	switch v.Kind {
	case yaml.SequenceNode:
		return v.Content
	case yaml.ScalarNode:
		if v.ShortTag() == "!!null" {
			return nil
		}
		return []*yaml.Node{v}
	default:
		l.invalid(v, "expected a list")
		return nil
	}
}

func (l *loader) warnings(v *yaml.Node) []settings.Override {
	if v.Kind != yaml.MappingNode {
		l.invalid(v, "warnings must map categories to off, warn or error")
		return nil
	}
	out := make([]settings.Override, 0, len(v.Content)/2)
	for i := 0; i+1 < len(v.Content); i += 2 {
		key, value := v.Content[i], v.Content[i+1]
		cat, err := settings.ParseCategory(key.Value)
		if err != nil {
			l.errors++
			diag.ReportError(l.reporter, diag.UnitBadWarning, l.span(key), err.Error()).Emit()
			continue
		}
		level, err := settings.ParseLevel(value.Value)
		if err != nil {
			l.errors++
			diag.ReportError(l.reporter, diag.UnitBadWarning, l.span(value), err.Error()).Emit()
			continue
		}
		out = append(out, settings.Override{Category: cat, Level: level})
	}
	return out
}

func (l *loader) invalid(v *yaml.Node, msg string) {
	l.errors++
	diag.ReportError(l.reporter, diag.UnitInvalid, l.span(v), msg).Emit()
}

func (l *loader) redeclared(v *yaml.Node, name string, prev source.Span) {
	l.errors++
	diag.ReportError(l.reporter, diag.UnitRedeclared, l.span(v),
		fmt.Sprintf("%q is already declared in this scope", name)).
		WithNote(prev, "previous declaration is here").
		Emit()
}

// span converts a yaml node position into a byte span of the file.
// yaml columns count characters, so the column is mapped through the line text.
func (l *loader) span(v *yaml.Node) source.Span {
	if v == nil || v.Line <= 0 {
		return source.Span{File: l.file.ID}
	}
	line := uint32(v.Line) //nolint:gosec // yaml line numbers are positive
	text := l.file.GetLine(line)
	col := 1
	for i := 1; i < v.Column && col <= len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[col-1:])
		col += size
	}
	start := l.fs.Offset(l.file.ID, source.LineCol{Line: line, Col: uint32(col)}) //nolint:gosec // bounded by line length
	length := len(v.Value)
	if v.Kind != yaml.ScalarNode {
		length = 0
	}
	if v.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		start++
	}
	return source.Span{File: l.file.ID, Start: start, End: start + uint32(length)} //nolint:gosec // scalar length
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '\''):
		default:
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
