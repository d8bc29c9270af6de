package decompose

import "github.com/ludo-technologies/flowstruct/internal/stats"

// CondenseSequences flattens nested sequences into their parent sequence
// and unwraps sequences left with a single statement
func CondenseSequences(root *stats.Statement) {
	condenseSequences(root)
}

func condenseSequences(st *stats.Statement) {
	for _, child := range st.Children() {
		condenseSequences(child)
	}
	if st.Kind() != stats.KindSequence {
		return
	}

	for changed := true; changed; {
		changed = false
		for i, child := range st.Children() {
			if child.Kind() == stats.KindSequence && isSequenceDisbandable(st, i) {
				flattenSequence(st, child)
				changed = true
				break
			}
		}
	}
	unwrapSingleSequence(st)
}

// isSequenceDisbandable reports whether the i-th child of seq, itself a
// sequence, can be spliced into seq without changing where its jumps go
func isSequenceDisbandable(seq *stats.Statement, i int) bool {
	inner := seq.ChildAt(i)
	if len(inner.Successors(stats.EdgeException)) > 0 || len(inner.Predecessors(stats.EdgeException)) > 0 {
		return false
	}
	if i == seq.ChildCount()-1 {
		return true
	}

	next := seq.ChildAt(i + 1)
	last := inner.LastChild()
	if e := last.FirstSuccessor(); e != nil && e.Destination != next.ID {
		return false
	}
	g := seq.Graph()
	for _, e := range next.Predecessors(stats.EdgeBreak) {
		if src := g.Node(e.Source); src != last && !last.ContainsStrict(src) {
			return false
		}
	}
	for _, e := range inner.LabelEdges() {
		if e.Destination != next.ID {
			return false
		}
	}
	return true
}

// flattenSequence splices the children of inner into seq in its place
func flattenSequence(seq, inner *stats.Statement) {
	g := seq.Graph()
	idx := seq.IndexOf(inner)
	isLast := idx == seq.ChildCount()-1
	children := inner.Children()
	last := inner.LastChild()

	for _, e := range inner.Predecessors(stats.MaskAll) {
		g.Retarget(e, inner.First())
	}

	if isLast {
		for _, e := range inner.Successors(stats.MaskAll) {
			g.RemoveEdge(e)
		}
		for _, e := range inner.LabelEdges() {
			g.SetClosure(e, seq)
		}
	} else {
		next := seq.ChildAt(idx + 1)
		for _, e := range inner.Successors(stats.MaskAll) {
			g.RemoveEdge(e)
		}
		direct := last.Successors(stats.MaskDirectAll)
		if len(direct) == 0 {
			g.AddEdge(stats.EdgeRegular, last, next, nil)
		}
		for _, e := range direct {
			if e.Destination == next.ID {
				g.ChangeType(e, stats.EdgeRegular)
				g.SetClosure(e, nil)
			}
		}
		for _, e := range inner.LabelEdges() {
			g.SetClosure(e, last)
		}
	}

	wasFirst := seq.First() == inner
	seq.RemoveChild(inner)
	for k, c := range children {
		inner.RemoveChild(c)
		seq.InsertChild(idx+k, c)
	}
	if wasFirst {
		seq.SetFirst(children[0])
	}
}

// unwrapSingleSequence replaces a sequence holding one statement by that
// statement
func unwrapSingleSequence(seq *stats.Statement) {
	parent := seq.Parent()
	if seq.Kind() != stats.KindSequence || seq.ChildCount() != 1 || parent == nil {
		return
	}
	g := seq.Graph()
	only := seq.First()

	exits := make(map[stats.NodeID]bool)
	for _, e := range seq.Successors(stats.MaskDirectAll) {
		exits[e.Destination] = true
	}
	for _, e := range seq.LabelEdges() {
		if e.Source == only.ID && exits[e.Destination] {
			g.RemoveEdge(e)
		}
	}
	parent.ReplaceStatement(seq, only)
}
