package ast

import (
	"fmt"
	"io"
	"strings"
)

// NameFunc maps a node's Sym to a display name; nil prints "#sym".
type NameFunc func(sym uint32) string

// Dump writes an indented rendering of the subtree at root, one node per
// line, annotated with whatever operand slots the resolver filled in.
// The output is stable and is used for golden comparisons.
func Dump(w io.Writer, t *Tree, root NodeID, names NameFunc) error {
	var sb strings.Builder
	dumpNode(&sb, t, root, names, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpString is Dump into a string.
func DumpString(t *Tree, root NodeID, names NameFunc) string {
	var sb strings.Builder
	dumpNode(&sb, t, root, names, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, t *Tree, id NodeID, names NameFunc, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if !id.IsValid() {
		sb.WriteString("-\n")
		return
	}
	n := t.Get(id)
	if n == nil {
		fmt.Fprintf(sb, "<bad node %d>\n", id)
		return
	}
	sb.WriteString(n.Op.String())
	if n.Sym != 0 {
		sb.WriteByte(' ')
		if names != nil {
			sb.WriteString(names(n.Sym))
		} else {
			fmt.Fprintf(sb, "#%d", n.Sym)
		}
	}
	if a := annotate(n); a != "" {
		sb.WriteString(" [")
		sb.WriteString(a)
		sb.WriteByte(']')
	}
	sb.WriteByte('\n')
	for _, child := range n.Args {
		dumpNode(sb, t, child, names, depth+1)
	}
}

func annotate(n *Node) string {
	parts := make([]string, 0, 3)
	if n.ClosureIndex != Unset {
		parts = append(parts, fmt.Sprintf("upvalue=%d", n.ClosureIndex))
	}
	if n.GlobalIndex != Unset {
		parts = append(parts, fmt.Sprintf("global=%d", n.GlobalIndex))
	}
	if n.StackOffset != Unset {
		parts = append(parts, fmt.Sprintf("offset=%d", n.StackOffset))
	}
	return strings.Join(parts, " ")
}
