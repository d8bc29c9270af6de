package decompose

import "github.com/ludo-technologies/flowstruct/internal/stats"

// RefineLoops rewrites infinite loops guarded by a condition test. A loop
// whose body starts with an empty if that leaves the loop becomes a while
// loop; a loop whose body ends with such an if jumping back becomes a
// do-while loop. For and foreach loops need expression analysis and are
// left to later passes.
func RefineLoops(root *stats.Statement) {
	refineLoops(root)
}

func refineLoops(st *stats.Statement) {
	for _, child := range st.Children() {
		refineLoops(child)
	}
	if st.Kind() == stats.KindDo && st.Do().LoopType == stats.LoopInfinite {
		if !matchWhile(st) {
			matchDoWhile(st)
		}
	}
}

// emptyCondition reports whether an if consists of its test alone
func emptyCondition(ifst *stats.Statement) bool {
	data := ifst.If()
	return data.IfType == stats.IfOnly && data.IfBranch == stats.NoNode && bareHead(ifst)
}

func matchWhile(loop *stats.Statement) bool {
	g := loop.Graph()
	first := loop.First()
	for first.Kind() == stats.KindSequence {
		first = first.First()
	}
	if first.Kind() != stats.KindIf || !emptyCondition(first) {
		return false
	}

	data := first.If()
	ifedge := g.Edge(data.IfEdge)
	if ifedge == nil || !ifedge.Attached() || !isDirectPath(loop, g.Node(ifedge.Destination)) {
		return false
	}

	loopData := loop.Do()
	loopData.LoopType = stats.LoopWhile
	loopData.Condition = negate(data.Condition)

	if succs := first.Successors(stats.MaskAll); len(succs) > 0 {
		g.RemoveEdge(succs[0])
	}
	moveExitToLoop(loop, ifedge)
	removeLoopStatement(loop, first, true)
	return true
}

func matchDoWhile(loop *stats.Statement) bool {
	g := loop.Graph()
	last := loop.First()
	for last.Kind() == stats.KindSequence {
		last = last.LastChild()
	}
	if last.Kind() != stats.KindIf || !emptyCondition(last) {
		return false
	}

	data := last.If()
	ifedge := g.Edge(data.IfEdge)
	succs := last.Successors(stats.MaskAll)
	if ifedge == nil || !ifedge.Attached() || len(succs) == 0 {
		return false
	}
	elseedge := succs[0]

	var exit, back *stats.Edge
	switch {
	case ifedge.Type == stats.EdgeBreak && elseedge.Type == stats.EdgeContinue &&
		elseedge.Destination == loop.ID && isDirectPath(loop, g.Node(ifedge.Destination)):
		exit, back = ifedge, elseedge
	case ifedge.Type == stats.EdgeContinue && elseedge.Type == stats.EdgeBreak &&
		ifedge.Destination == loop.ID && isDirectPath(loop, g.Node(elseedge.Destination)):
		exit, back = elseedge, ifedge
	default:
		return false
	}

	for _, e := range loop.Predecessors(stats.EdgeContinue) {
		if e != back && !last.Contains(g.Node(e.Source)) {
			return false
		}
	}

	loopData := loop.Do()
	loopData.LoopType = stats.LoopDoWhile
	if exit == ifedge {
		loopData.Condition = negate(data.Condition)
	} else {
		loopData.Condition = data.Condition
	}

	g.RemoveEdge(back)
	moveExitToLoop(loop, exit)
	removeLoopStatement(loop, last, false)
	return true
}

// moveExitToLoop makes exit the outgoing edge of the loop when the loop has
// none, otherwise drops it
func moveExitToLoop(loop *stats.Statement, exit *stats.Edge) {
	g := loop.Graph()
	if len(loop.Successors(stats.MaskAll)) > 0 {
		g.RemoveEdge(exit)
		return
	}
	g.MoveSource(exit, loop)
	if exit.Closure == loop.ID {
		g.SetClosure(exit, loop.Parent())
	}
}

// removeLoopStatement drops the condition test from the loop body. A test
// that is the whole body is replaced by an empty block.
func removeLoopStatement(loop, st *stats.Statement, leading bool) {
	g := loop.Graph()
	for _, e := range st.Successors(stats.MaskAll) {
		g.RemoveEdge(e)
	}
	for _, e := range st.First().Successors(stats.MaskAll) {
		if e.Type != stats.EdgeException {
			g.RemoveEdge(e)
		}
	}

	if st == loop.First() {
		loop.ReplaceStatement(st, g.NewEmptyBlock())
		return
	}

	if !leading {
		for _, e := range st.Predecessors(stats.MaskDirectAll) {
			g.ChangeType(e, stats.EdgeContinue)
			g.Retarget(e, loop)
			g.SetClosure(e, loop)
		}
	}
	seq := st.Parent()
	seq.RemoveChild(st)
	unwrapSingleSequence(seq)
}

// isDirectPath reports whether control leaving st reaches end without a
// jump
func isDirectPath(st, end *stats.Statement) bool {
	if end == nil {
		return false
	}
	succs := st.SuccessorNodes(stats.MaskDirectAll)
	if len(succs) > 0 {
		return containsNode(succs, end)
	}

	parent := st.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case stats.KindRoot:
		return end.Kind() == stats.KindDummyExit
	case stats.KindDo:
		return end == parent
	case stats.KindSwitch:
		g := st.Graph()
		cases := parent.Switch().Cases
		for i := 0; i < len(cases)-1; i++ {
			if cases[i] != st.ID {
				continue
			}
			next := g.Node(cases[i+1])
			if next.Kind() == stats.KindBasicBlock && next.Block().Block == nil {
				if fs := next.FirstSuccessor(); fs != nil {
					next = g.Node(fs.Destination)
				}
			}
			return end == next
		}
	}
	return isDirectPath(parent, end)
}

// CondenseInfiniteLoopsWithReturn rewrites infinite loops of the form
//
//	while (true) { if (c) { S; continue } T; return }
//
// into while (c) { S } T; return. It reports whether the tree changed.
func CondenseInfiniteLoopsWithReturn(root *stats.Statement) bool {
	if !condenseReturnLoops(root) {
		return false
	}
	CondenseSequences(root)
	return true
}

func condenseReturnLoops(st *stats.Statement) bool {
	res := false
	if st.Kind() == stats.KindDo && st.Do().LoopType == stats.LoopInfinite {
		res = condenseLoop(st)
	}
	for _, child := range st.Children() {
		res = condenseReturnLoops(child) || res
	}
	return res
}

func condenseLoop(loop *stats.Statement) bool {
	body := loop.First()
	if body == nil || body.Kind() != stats.KindSequence || loop.Parent() == nil ||
		len(loop.Successors(stats.EdgeRegular)) > 0 {
		return false
	}
	if extractableFrom(body, loop) != 1 {
		return false
	}
	g := loop.Graph()
	guard := body.First()
	if guard.Kind() != stats.KindIf || !bareHead(guard) {
		return false
	}
	data := guard.If()
	if data.IfType != stats.IfOnly || data.IfBranch == stats.NoNode {
		return false
	}
	breaks := body.LastChild().Successors(stats.EdgeBreak)
	if len(breaks) == 0 || g.Node(breaks[0].Destination).Kind() != stats.KindDummyExit {
		return false
	}
	if !continues(guard, loop) {
		return false
	}
	tail := body.Children()[1:]
	for _, st := range tail {
		if continues(st, loop) {
			return false
		}
	}

	for _, st := range tail {
		for _, e := range st.Predecessors(stats.MaskAll) {
			src := g.Node(e.Source)
			switch {
			case e.Type == stats.EdgeRegular && src == guard:
				g.RemoveEdge(e)
			case e.Type == stats.EdgeBreak && loop.ContainsStrict(src):
				g.SetClosure(e, loop)
			}
		}
	}

	for _, st := range tail {
		body.RemoveChild(st)
	}
	outer := g.NewComposite(stats.KindSequence, loop, append([]*stats.Statement{loop}, tail...), nil)
	loop.Parent().ReplaceStatement(loop, outer)
	for _, e := range outer.LabelEdges() {
		g.SetClosure(e, loop)
	}
	for _, e := range outer.Predecessors(stats.EdgeContinue) {
		if loop.ContainsStrict(g.Node(e.Source)) {
			g.Retarget(e, loop)
		}
	}
	outer.SetAllParent()
	g.AddEdge(stats.EdgeRegular, loop, tail[0], nil)

	inner := g.Node(data.IfBranch)
	g.RemoveEdge(g.Edge(data.IfEdge))
	loop.ReplaceStatement(body, inner)

	loopData := loop.Do()
	loopData.LoopType = stats.LoopWhile
	loopData.Condition = data.Condition
	return true
}

// extractableFrom returns the index of the first statement of the loop
// body that never continues the loop and is entered by fallthrough from
// its predecessor, or -1
func extractableFrom(body, loop *stats.Statement) int {
	children := body.Children()
	for i, st := range children {
		if i == 0 || continues(st, loop) {
			continue
		}
		succs := children[i-1].Successors(stats.MaskAll)
		if len(succs) == 1 && succs[0].Type == stats.EdgeRegular && succs[0].Destination == st.ID {
			return i
		}
	}
	return -1
}

// continues reports whether a jump from within st continues loop
func continues(st, loop *stats.Statement) bool {
	found := false
	stats.Walk(st, func(s *stats.Statement) bool {
		for _, e := range s.Successors(stats.EdgeContinue) {
			if e.Destination == loop.ID {
				found = true
			}
		}
		return !found
	})
	return found
}
