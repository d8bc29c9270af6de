package decompose

import "github.com/ludo-technologies/flowstruct/internal/stats"

// LowContinueLabels moves continue edges of an outer infinite loop onto the
// inner loop that starts its body. Both jump to the same place, and the
// inner loop is the one a plain continue refers to.
func LowContinueLabels(root *stats.Statement) {
	lowContinueLabels(root, nil)
}

func lowContinueLabels(st *stats.Statement, edges []*stats.Edge) {
	ok := st.Kind() != stats.KindDo
	if !ok {
		data := st.Do()
		ok = data.LoopType == stats.LoopInfinite || data.LoopType == stats.LoopWhile ||
			(data.LoopType == stats.LoopFor && data.Increment == "")
	}
	if ok {
		edges = append(append([]*stats.Edge(nil), edges...), st.Predecessors(stats.EdgeContinue)...)
	}
	if ok && st.Kind() == stats.KindDo {
		g := st.Graph()
		for _, e := range edges {
			if !e.Attached() || !st.ContainsStrict(g.Node(e.Source)) {
				continue
			}
			if e.Destination != st.ID {
				g.Retarget(e, st)
			}
			if e.Closure != st.ID {
				g.SetClosure(e, st)
			}
		}
	}
	for _, child := range st.Children() {
		if child == st.First() {
			lowContinueLabels(child, edges)
		} else {
			lowContinueLabels(child, nil)
		}
	}
}

// flow is where control goes when a statement completes normally
type flow struct {
	node *stats.Statement
	cont bool
}

func (f flow) matches(e *stats.Edge) bool {
	if f.node == nil || f.node.ID != e.Destination {
		return false
	}
	return f.cont == (e.Type == stats.EdgeContinue)
}

// natural returns the statement that follows st without a jump. The zero
// flow means there is no such statement.
func natural(st *stats.Statement) flow {
	p := st.Parent()
	if p == nil {
		return flow{}
	}
	g := st.Graph()

	switch p.Kind() {
	case stats.KindRoot:
		return flow{node: g.Node(p.Root().DummyExit)}
	case stats.KindSequence:
		if i := p.IndexOf(st); i < p.ChildCount()-1 {
			return flow{node: p.ChildAt(i + 1)}
		}
		return natural(p)
	case stats.KindIf:
		if st == p.First() {
			return flow{}
		}
		return natural(p)
	case stats.KindDo:
		return flow{node: p, cont: true}
	case stats.KindSwitch:
		if st == p.First() {
			return flow{}
		}
		cases := p.Switch().Cases
		for i, id := range cases {
			if id == st.ID && i < len(cases)-1 {
				return flow{node: g.Node(cases[i+1])}
			}
		}
		return natural(p)
	case stats.KindSynchronized:
		if st == p.First() {
			return flow{node: g.Node(p.Sync().Body)}
		}
		return natural(p)
	case stats.KindTryCatch, stats.KindCatchAll:
		return natural(p)
	}
	return flow{}
}

func isBreakable(st *stats.Statement) bool {
	return st.Kind() == stats.KindDo || st.Kind() == stats.KindSwitch
}

// LabelEdges classifies every jump in the tree. Fallthrough edges become
// implicit; breaks get the innermost enclosing statement that completes at
// their destination as closure, labeled unless it is the innermost loop or
// switch; continues are labeled unless they target the innermost loop.
// Jumps directly inside an irreducible General keep their goto form.
func LabelEdges(root *stats.Statement) {
	g := root.Graph()
	exit := g.Node(root.Root().DummyExit)

	stats.Walk(root, func(st *stats.Statement) bool {
		if p := st.Parent(); p != nil && p.Kind() == stats.KindGeneral {
			return true
		}
		for _, e := range st.Successors(stats.MaskDirectAll) {
			labelEdge(root, exit, st, e)
		}
		return true
	})
}

func labelEdge(root, exit, src *stats.Statement, e *stats.Edge) {
	g := root.Graph()
	dst := g.Node(e.Destination)
	nat := natural(src)

	switch e.Type {
	case stats.EdgeRegular:
		e.Explicit = false
		e.Labeled = false

	case stats.EdgeContinue:
		if dst.Kind() != stats.KindDo {
			return
		}
		e.Explicit = !nat.matches(e)
		e.Labeled = innermost(src, isBreakableLoop) != dst
		if e.Closure != dst.ID {
			g.SetClosure(e, dst)
		}

	case stats.EdgeBreak:
		if dst == exit {
			e.Explicit = !nat.matches(e)
			e.Labeled = false
			if e.Closure != root.ID {
				g.SetClosure(e, root)
			}
			return
		}

		var completes *stats.Statement
		for a := src.Parent(); a != nil; a = a.Parent() {
			if natural(a).matches(e) {
				completes = a
				break
			}
		}

		switch {
		case nat.matches(e):
			e.Explicit = false
			e.Labeled = false
			if completes != nil {
				setClosure(e, completes)
			}
		default:
			e.Explicit = true
			if b := innermost(src, isBreakable); b != nil && natural(b).matches(e) {
				setClosure(e, b)
				e.Labeled = false
			} else if completes != nil {
				setClosure(e, completes)
				e.Labeled = true
			}
		}
	}
}

func setClosure(e *stats.Edge, closure *stats.Statement) {
	if e.Closure != closure.ID {
		closure.Graph().SetClosure(e, closure)
	}
}

func isBreakableLoop(st *stats.Statement) bool {
	return st.Kind() == stats.KindDo
}

// innermost returns the closest proper ancestor of st satisfying pred
func innermost(st *stats.Statement, pred func(*stats.Statement) bool) *stats.Statement {
	for a := st.Parent(); a != nil; a = a.Parent() {
		if pred(a) {
			return a
		}
	}
	return nil
}
