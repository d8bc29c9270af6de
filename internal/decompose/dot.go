package decompose

import (
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/flowstruct/internal/stats"
)

var edgeStyles = map[stats.EdgeType]string{
	stats.EdgeRegular:   `color="black"`,
	stats.EdgeException: `color="red", style="dashed"`,
	stats.EdgeBreak:     `color="blue", style="bold"`,
	stats.EdgeContinue:  `color="darkgreen", style="dashed"`,
}

// ExportDOT writes the statement tree as a Graphviz digraph. Composite
// statements are drawn as nested clusters and edges are styled by type.
func ExportDOT(w io.Writer, name string, root *stats.Statement) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", name)
	sb.WriteString("  node [shape=box, fontname=\"monospace\"];\n")

	g := root.Graph()
	var edges []*stats.Edge
	var write func(st *stats.Statement, indent string)
	write = func(st *stats.Statement, indent string) {
		edges = append(edges, st.Successors(stats.MaskAll)...)
		if st.ChildCount() == 0 {
			fmt.Fprintf(&sb, "%s%s [label=%q];\n", indent, dotID(st), nodeLabel(st))
			return
		}
		fmt.Fprintf(&sb, "%ssubgraph cluster_%d {\n", indent, st.ID)
		fmt.Fprintf(&sb, "%s  label=%q;\n", indent, st.String())
		fmt.Fprintf(&sb, "%s  %s [label=%q, shape=point];\n", indent, dotID(st), st.String())
		for _, c := range st.Children() {
			write(c, indent+"  ")
		}
		fmt.Fprintf(&sb, "%s}\n", indent)
	}
	write(root, "  ")

	if exit := g.Node(root.Root().DummyExit); exit != nil {
		fmt.Fprintf(&sb, "  %s [label=\"exit\", shape=doublecircle];\n", dotID(exit))
	}

	for _, e := range edges {
		attrs := edgeStyles[e.Type]
		if e.Labeled && e.Explicit && e.Closure != stats.NoNode {
			attrs += fmt.Sprintf(", label=%q", LabelName(g.Node(e.Closure)))
		}
		if !e.Explicit && e.Type != stats.EdgeException {
			attrs += `, arrowhead="empty"`
		}
		fmt.Fprintf(&sb, "  s%d -> s%d [%s];\n", e.Source, e.Destination, attrs)
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func dotID(st *stats.Statement) string {
	return fmt.Sprintf("s%d", st.ID)
}

func nodeLabel(st *stats.Statement) string {
	if st.Kind() == stats.KindBasicBlock {
		if b := st.Block().Block; b != nil {
			return fmt.Sprintf("%s B%d", st, b.ID)
		}
	}
	return st.String()
}
