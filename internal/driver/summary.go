package driver

import (
	"fmt"
	"io"
	"strings"

	"forscape/internal/ast"
	"forscape/internal/diag"
	"forscape/internal/resolve"
	"forscape/internal/source"
	"forscape/internal/symbols"
)

// summarySchema versions the Summary layout stored in the disk cache.
const summarySchema uint16 = 1

// Summary is the rendered outcome of one unit. It is what the CLI prints
// and what the disk cache stores.
type Summary struct {
	Schema      uint16        `json:"schema" msgpack:"schema"`
	Unit        string        `json:"unit" msgpack:"unit"`
	Path        string        `json:"path" msgpack:"path"`
	Resolved    bool          `json:"resolved" msgpack:"resolved"`
	Stats       resolve.Stats `json:"stats" msgpack:"stats"`
	Tree        string        `json:"tree,omitempty" msgpack:"tree,omitempty"`
	Storage     []string      `json:"storage,omitempty" msgpack:"storage,omitempty"`
	Captures    []string      `json:"captures,omitempty" msgpack:"captures,omitempty"`
	Overloads   []string      `json:"overloads,omitempty" msgpack:"overloads,omitempty"`
	Diagnostics []string      `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
	Errors      int           `json:"errors" msgpack:"errors"`
	Warnings    int           `json:"warnings" msgpack:"warnings"`
}

// Render builds the summary of a result that was not served from cache.
func Render(res *Result) *Summary {
	s := &Summary{Schema: summarySchema, Path: res.Path, Resolved: res.Resolved, Stats: res.Stats}
	if res.Bag != nil {
		s.Errors, s.Warnings = res.Bag.Counts()
		s.Diagnostics = lines(diag.FormatGolden(res.Bag.Items(), res.FileSet, false))
	}
	u := res.Unit
	if u == nil || u.Table == nil {
		return s
	}
	s.Unit = u.Name
	s.Tree = ast.DumpString(u.Tree, u.Tree.Root(), u.SymbolName)

	for _, id := range u.Table.Symbols.IDs() {
		sym := u.Table.Symbol(id)
		s.Storage = append(s.Storage, fmt.Sprintf("%s %s %s %s",
			u.Table.Name(id), position(res.FileSet, sym.Span), sym.Kind, sym.Storage))
	}
	if res.Resolved {
		s.Captures = captureLines(res.FileSet, u.Tree, u.Table)
	}
	if res.Types != nil {
		for _, set := range res.Overloads {
			s.Overloads = append(s.Overloads, set.Name+": "+res.Types.TypeString(set.Type))
		}
	}
	return s
}

// captureLines lists the capture list of every closure in tree order.
func captureLines(fs *source.FileSet, tree *ast.Tree, table *symbols.Table) []string {
	var out []string
	var walk func(id ast.NodeID)
	walk = func(id ast.NodeID) {
		if !id.IsValid() {
			return
		}
		op := tree.Op(id)
		if arg, ok := ast.UpvaluesArg(op); ok {
			label := op.String()
			if op == ast.OpAlgorithm {
				if name := tree.Arg(id, ast.AlgorithmNameArg); name.IsValid() {
					label += " " + table.Name(symbols.SymbolID(tree.Sym(name)))
				}
			}
			entries := make([]string, 0)
			if list := tree.Arg(id, arg); list.IsValid() {
				for i := range tree.NumArgs(list) {
					e := tree.Arg(list, i)
					entries = append(entries, table.Name(symbols.SymbolID(tree.Sym(e)))+":"+tree.Op(e).String())
				}
			}
			out = append(out, fmt.Sprintf("%s %s [%s]", label, position(fs, tree.Span(id)), strings.Join(entries, " ")))
		}
		for i := range tree.NumArgs(id) {
			walk(tree.Arg(id, i))
		}
	}
	walk(tree.Root())
	return out
}

func position(fs *source.FileSet, sp source.Span) string {
	if fs == nil || fs.Get(sp.File) == nil {
		return "-"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%d:%d", start.Line, start.Col)
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// WriteText prints the summary in the layout of `forscape resolve`.
func (s *Summary) WriteText(w io.Writer, withTree bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "unit %s (%s)\n", s.Unit, s.Path)
	if withTree && s.Tree != "" {
		b.WriteString("tree:\n")
		for _, line := range lines(s.Tree) {
			b.WriteString("  " + line + "\n")
		}
	}
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(title + ":\n")
		for _, item := range items {
			b.WriteString("  " + item + "\n")
		}
	}
	section("storage", s.Storage)
	section("captures", s.Captures)
	section("overloads", s.Overloads)
	if s.Resolved {
		fmt.Fprintf(&b, "stats: globals=%d locals=%d upvalues=%d captures=%d closures=%d max_stack=%d\n",
			s.Stats.Globals, s.Stats.Locals, s.Stats.Upvalues, s.Stats.Captures, s.Stats.Closures, s.Stats.MaxStack)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
