package decompose

import "github.com/ludo-technologies/flowstruct/internal/stats"

// ifLink says how an if node reaches one of its neighbours
type ifLink int

const (
	// linkDirect: the neighbour is a child or the next sibling
	linkDirect ifLink = iota
	// linkIndirect: the neighbour is reached by a jump
	linkIndirect
	// linkElse: the neighbour is the else branch
	linkElse
)

// ifNode is a two level view of an if statement: what runs when its
// condition holds and what runs after it
type ifNode struct {
	value     *stats.Statement
	inner     *ifNode
	innerLink ifLink
	succ      *ifNode
	succLink  ifLink
}

// buildIfNode builds the view of ifst. A single statement has no sibling,
// so its successor is always reached indirectly.
func buildIfNode(ifst *stats.Statement, single bool) *ifNode {
	g := ifst.Graph()
	data := ifst.If()
	ifedge := attachedEdge(g, data.IfEdge)
	if ifedge == nil {
		return nil
	}

	n := &ifNode{value: ifst}
	if data.IfBranch == stats.NoNode {
		n.inner = &ifNode{value: g.Node(ifedge.Destination)}
		n.innerLink = linkIndirect
	} else {
		n.inner = subIfNode(g.Node(data.IfBranch))
		n.innerLink = linkDirect
	}

	switch {
	case data.IfType == stats.IfElse:
		if data.ElseBranch == stats.NoNode {
			return nil
		}
		n.succ = subIfNode(g.Node(data.ElseBranch))
		n.succLink = linkElse
	default:
		if e := ifst.FirstSuccessor(); e != nil {
			next := g.Node(e.Destination)
			if single || e.Type != stats.EdgeRegular {
				n.succ = &ifNode{value: next}
				n.succLink = linkIndirect
			} else {
				n.succ = subIfNode(next)
				n.succLink = linkDirect
			}
		}
	}
	return n
}

// subIfNode views st one level deep. Only one-sided ifs get an inner node.
func subIfNode(st *stats.Statement) *ifNode {
	g := st.Graph()
	n := &ifNode{value: st}
	if st.Kind() == stats.KindIf && st.If().IfType == stats.IfOnly {
		data := st.If()
		if data.IfBranch == stats.NoNode {
			if e := attachedEdge(g, data.IfEdge); e != nil {
				n.inner = &ifNode{value: g.Node(e.Destination)}
				n.innerLink = linkIndirect
			}
		} else {
			n.inner = &ifNode{value: g.Node(data.IfBranch)}
			n.innerLink = linkDirect
		}
	}
	if e := st.FirstSuccessor(); e != nil {
		n.succ = &ifNode{value: g.Node(e.Destination)}
		n.succLink = linkIndirect
	}
	return n
}

func attachedEdge(g *stats.Graph, id stats.EdgeID) *stats.Edge {
	if e := g.Edge(id); e != nil && e.Attached() {
		return e
	}
	return nil
}

// MergeIfs folds nested and chained conditionals into single ifs with
// compound conditions and reorders one-sided ifs so that the arm which
// reaches the end of the enclosing sequence directly comes last. It
// reports whether the tree changed.
func MergeIfs(root *stats.Statement) bool {
	m := &ifMerger{
		reordered: make(map[stats.NodeID]bool),
		budget:    4*root.Graph().NodeCount() + 16,
	}
	if !m.mergeAll(root) {
		return false
	}
	CondenseSequences(root)
	return true
}

type ifMerger struct {
	reordered map[stats.NodeID]bool
	// budget bounds the rewrites of one run
	budget int
}

func (m *ifMerger) mergeAll(st *stats.Statement) bool {
	if st.Kind() == stats.KindBasicBlock || st.Kind() == stats.KindGeneral {
		return false
	}
	res := false
	for {
		changed := false
		for _, child := range st.Children() {
			res = m.mergeAll(child) || res
			if m.merge(child) {
				changed = true
				break
			}
		}
		res = res || changed
		if !changed {
			return res
		}
	}
}

// merge rewrites the ifs of an if or a sequence until none applies
func (m *ifMerger) merge(st *stats.Statement) bool {
	if st.Kind() != stats.KindIf && st.Kind() != stats.KindSequence {
		return false
	}
	res := false
	for m.budget > 0 {
		lst := []*stats.Statement{st}
		if st.Kind() == stats.KindSequence {
			lst = st.Children()
		}
		single := len(lst) == 1

		rewrote := false
		for _, ifst := range lst {
			if ifst.Kind() == stats.KindIf && m.rewrite(ifst, single) {
				rewrote = true
				break
			}
		}
		if !rewrote {
			return res
		}
		res = true
		m.budget--
	}
	return res
}

func (m *ifMerger) rewrite(ifst *stats.Statement, single bool) bool {
	n := buildIfNode(ifst, single)
	if n == nil {
		return false
	}
	if collapseIfIf(n) {
		return true
	}
	if !m.reordered[ifst.ID] {
		if collapseIfElse(n) || collapseElse(n) || collapseTernary(n) || denestElseChain(n) {
			return true
		}
	}
	if reorderIf(ifst) {
		m.reordered[ifst.ID] = true
		return true
	}
	return false
}

// bareHead reports whether the head block of an if holds its test alone
func bareHead(ifst *stats.Statement) bool {
	head := ifst.First()
	if head == nil || head.Kind() != stats.KindBasicBlock {
		return false
	}
	b := head.Block().Block
	return b == nil || len(b.Instructions) <= 1
}

// nestedIf reports whether an if nested in another can be dissolved: it is
// entered only from the outer head, has one way out and no handlers
func nestedIf(ifst *stats.Statement) bool {
	head := ifst.First()
	return len(ifst.Predecessors(stats.MaskAll)) == 1 &&
		len(ifst.Successors(stats.MaskAll)) == 1 &&
		len(head.Predecessors(stats.MaskAll)) == 0 &&
		len(head.Successors(stats.EdgeException)) == 0
}

func noExceptions(sts ...*stats.Statement) bool {
	for _, st := range sts {
		if len(st.Successors(stats.EdgeException)) > 0 || len(st.Predecessors(stats.EdgeException)) > 0 {
			return false
		}
	}
	return true
}

// retire hands the jumps owned by a statement that leaves the tree to heir
func retire(st, heir *stats.Statement) {
	g := st.Graph()
	for _, e := range st.LabelEdges() {
		g.SetClosure(e, heir)
	}
}

// collapseIfIf turns
//
//	if (a) { if (b) { S } } T
//
// into if (a && b) { S } T. S may also be a jump.
func collapseIfIf(n *ifNode) bool {
	if n.innerLink != linkDirect || n.inner.inner == nil || n.succ == nil || n.inner.succ == nil ||
		n.succ.value != n.inner.succ.value {
		return false
	}
	parent, child := n.value, n.inner.value
	if !bareHead(child) || !nestedIf(child) {
		return false
	}
	g := parent.Graph()
	pdata, cdata := parent.If(), child.If()
	head := parent.First()

	g.RemoveEdge(g.Edge(pdata.IfEdge))
	g.RemoveEdge(child.FirstSuccessor())
	parent.RemoveChild(child)

	if n.inner.innerLink == linkIndirect {
		ifedge := g.Edge(cdata.IfEdge)
		g.MoveSource(ifedge, head)
		if ifedge.Closure == child.ID {
			g.SetClosure(ifedge, nil)
		}
		pdata.IfBranch = stats.NoNode
		pdata.IfEdge = ifedge.ID
	} else {
		inner := n.inner.inner.value
		g.RemoveEdge(g.Edge(cdata.IfEdge))
		child.RemoveChild(inner)
		parent.AppendChild(inner)
		pdata.IfBranch = inner.ID
		pdata.IfEdge = g.AddEdge(stats.EdgeRegular, head, inner, nil).ID
	}
	retire(child, parent)

	pdata.Condition = andCond(pdata.Condition, cdata.Condition)
	return true
}

// collapseIfElse turns
//
//	if (a) { if (b) goto A; goto B } A
//
// into if (a && !b) goto B; A
func collapseIfElse(n *ifNode) bool {
	if n.innerLink != linkDirect || n.inner.inner == nil || n.inner.innerLink != linkIndirect ||
		n.succ == nil || n.succ.value != n.inner.inner.value {
		return false
	}
	parent, child := n.value, n.inner.value
	if !bareHead(child) || !nestedIf(child) {
		return false
	}
	ifedge := child.FirstSuccessor()
	if ifedge == nil || ifedge.Type == stats.EdgeRegular {
		return false
	}
	g := parent.Graph()
	pdata, cdata := parent.If(), child.If()

	g.RemoveEdge(g.Edge(pdata.IfEdge))
	g.RemoveEdge(g.Edge(cdata.IfEdge))
	parent.RemoveChild(child)

	g.MoveSource(ifedge, parent.First())
	if ifedge.Closure == child.ID {
		g.SetClosure(ifedge, nil)
	}
	retire(child, parent)
	pdata.IfBranch = stats.NoNode
	pdata.IfEdge = ifedge.ID

	pdata.Condition = andCond(pdata.Condition, negate(cdata.Condition))
	return true
}

// collapseElse merges an if with the statement that follows it in the
// sequence. See mergeChainedIfs and absorbElse.
func collapseElse(n *ifNode) bool {
	if n.succLink != linkDirect || n.succ == nil {
		return false
	}
	if n.succ.inner != nil {
		return mergeChainedIfs(n)
	}
	if n.innerLink == linkIndirect && n.succ.succ != nil && n.succ.succ.value == n.inner.value {
		return absorbElse(n)
	}
	return false
}

// mergeChainedIfs turns two consecutive ifs sharing a target into one:
//
//	if (a) goto A; if (b) goto A; S    =>  if (a || b) goto A; S
//	if (a) goto A; if (b) { S } A      =>  if (!a && b) { S } A
func mergeChainedIfs(n *ifNode) bool {
	firstif, secondif := n.value, n.succ.value
	var path int
	switch {
	case n.succ.succ != nil && n.succ.succ.value == n.inner.value:
		path = 2
	case n.succ.inner.value == n.inner.value:
		path = 1
	default:
		return false
	}

	parent := firstif.Parent()
	if parent == nil || parent.Kind() != stats.KindSequence || !bareHead(secondif) ||
		!noExceptions(firstif, firstif.First(), secondif) {
		return false
	}
	g := firstif.Graph()
	for _, e := range firstif.Successors(stats.MaskAll) {
		if e.Destination != secondif.ID {
			return false
		}
	}
	for _, e := range secondif.Predecessors(stats.MaskAll) {
		if !firstif.Contains(g.Node(e.Source)) {
			return false
		}
	}

	fdata, sdata := firstif.If(), secondif.If()
	g.RemoveEdge(g.Edge(fdata.IfEdge))
	for _, e := range firstif.Successors(stats.MaskAll) {
		g.RemoveEdge(e)
	}
	for _, e := range firstif.Predecessors(stats.MaskAll) {
		if !firstif.ContainsStrict(g.Node(e.Source)) {
			g.Retarget(e, secondif)
		}
	}

	wasFirst := parent.First() == firstif
	parent.RemoveChild(firstif)
	if wasFirst {
		parent.SetFirst(secondif)
	}
	retire(firstif, secondif)

	if path == 2 {
		sdata.Condition = andCond(negate(fdata.Condition), sdata.Condition)
	} else {
		sdata.Condition = orCond(fdata.Condition, sdata.Condition)
	}

	if !bareHead(firstif) {
		secondif.ReplaceStatement(secondif.First(), firstif.First())
	}
	return true
}

// absorbElse turns
//
//	if (a) goto A; S; goto A
//
// into if (!a) { S } goto A
func absorbElse(n *ifNode) bool {
	firstif, second := n.value, n.succ.value
	parent := firstif.Parent()
	if parent == nil || parent.Kind() != stats.KindSequence || !noExceptions(firstif, firstif.First(), second) {
		return false
	}
	g := firstif.Graph()
	for _, e := range firstif.Successors(stats.MaskAll) {
		if e.Destination != second.ID {
			return false
		}
	}
	for _, e := range second.Predecessors(stats.MaskAll) {
		if e.Source != firstif.ID {
			return false
		}
	}

	data := firstif.If()
	for _, e := range firstif.Successors(stats.MaskAll) {
		g.RemoveEdge(e)
	}
	for _, e := range second.Successors(stats.MaskAll) {
		g.MoveSource(e, firstif)
	}

	ifedge := g.Edge(data.IfEdge)
	typ, dst, closure := ifedge.Type, g.Node(ifedge.Destination), g.Node(ifedge.Closure)
	g.RemoveEdge(ifedge)
	g.AddEdge(typ, second, dst, closure)

	parent.RemoveChild(second)
	firstif.AppendChild(second)
	data.IfBranch = second.ID
	data.IfEdge = g.AddEdge(stats.EdgeRegular, firstif.First(), second, nil).ID

	data.Condition = negate(data.Condition)
	return true
}

// collapseTernary turns
//
//	if (a) { if (b) goto A; goto B } else { if (c) goto A; goto B }
//
// into if (a ? b : c) goto A; goto B. When the arms of the first inner if
// are swapped its condition is negated.
func collapseTernary(n *ifNode) bool {
	if n.innerLink != linkDirect || n.succLink != linkElse {
		return false
	}
	ifb, elseb := n.inner, n.succ
	if ifb.inner == nil || elseb.inner == nil || ifb.succ == nil || elseb.succ == nil ||
		ifb.innerLink != linkIndirect || ifb.succLink != linkIndirect ||
		elseb.innerLink != linkIndirect || elseb.succLink != linkIndirect {
		return false
	}

	var inverted bool
	switch {
	case ifb.inner.value == elseb.inner.value && ifb.succ.value == elseb.succ.value:
		inverted = false
	case ifb.inner.value == elseb.succ.value && ifb.succ.value == elseb.inner.value:
		inverted = true
	default:
		return false
	}

	mainIf, firstIf, secondIf := n.value, ifb.value, elseb.value
	if !bareHead(firstIf) || !bareHead(secondIf) || !nestedIf(firstIf) || !nestedIf(secondIf) {
		return false
	}
	g := mainIf.Graph()
	data := mainIf.If()

	mainIf.RemoveChild(firstIf)
	g.RemoveEdge(g.Edge(data.IfEdge))
	mainIf.RemoveChild(secondIf)
	g.RemoveEdge(g.Edge(data.ElseEdge))

	g.RemoveEdge(g.Edge(firstIf.If().IfEdge))
	g.RemoveEdge(firstIf.FirstSuccessor())

	ifedge := g.Edge(secondIf.If().IfEdge)
	g.MoveSource(ifedge, mainIf.First())

	if e := mainIf.FirstSuccessor(); e != nil {
		g.RemoveEdge(e)
	}
	out := secondIf.FirstSuccessor()
	g.MoveSource(out, mainIf)
	if out.Closure == mainIf.ID {
		g.SetClosure(out, nil)
		g.ChangeType(out, stats.EdgeRegular)
	}
	retire(firstIf, mainIf)
	retire(secondIf, mainIf)

	data.IfBranch = stats.NoNode
	data.ElseBranch = stats.NoNode
	data.IfEdge = ifedge.ID
	data.ElseEdge = stats.NoEdge
	data.IfType = stats.IfOnly

	first := firstIf.If().Condition
	if inverted {
		first = negate(first)
	}
	data.Condition = ternaryCond(data.Condition, first, secondIf.If().Condition)
	return true
}

// denestElseChain turns
//
//	if (a) { if (b) { X } Y } Z
//
// where X, Y and Z all reach the end of the sequence into
// if (!a) { Z } if (b) { X } Y so that an else-if chain stays flat.
func denestElseChain(n *ifNode) bool {
	if n.innerLink != linkDirect || n.succLink == linkElse {
		return false
	}
	outer := n.value
	parent := outer.Parent()
	if parent == nil || parent.Kind() != stats.KindSequence || !noExceptions(outer) {
		return false
	}
	g := outer.Graph()
	nested := n.inner.value
	if !hasDirectEndEdge(nested, parent) || !hasDirectEndEdge(parent.LastChild(), parent) {
		return false
	}

	inner := leadingIf(nested)
	if inner == nil || !bareHead(inner) || inner.If().IfBranch == stats.NoNode ||
		!hasDirectEndEdge(g.Node(inner.If().IfBranch), parent) {
		return false
	}

	e := outer.FirstSuccessor()
	if e == nil || e.Type != stats.EdgeRegular {
		return false
	}
	if next := leadingIf(g.Node(e.Destination)); next != nil && bareHead(next) {
		return false
	}

	data := outer.If()
	data.Condition = negate(data.Condition)
	swapBranches(outer, false, parent)
	return true
}

// leadingIf returns st when it is an if, or the first statement of a
// sequence when that is an if
func leadingIf(st *stats.Statement) *stats.Statement {
	switch {
	case st == nil:
		return nil
	case st.Kind() == stats.KindIf:
		return st
	case st.Kind() == stats.KindSequence && st.First() != nil && st.First().Kind() == stats.KindIf:
		return st.First()
	}
	return nil
}

// reorderIf swaps or completes the arms of a one-sided if so that the arm
// reaching the end of the enclosing sequence directly comes last. An if
// whose both arms reach the end becomes an if-else over the rest of the
// sequence.
func reorderIf(ifst *stats.Statement) bool {
	data := ifst.If()
	parent := ifst.Parent()
	if data.IfType == stats.IfElse || parent == nil || !noExceptions(ifst) {
		return false
	}
	g := ifst.Graph()
	ifedge := attachedEdge(g, data.IfEdge)
	if ifedge == nil {
		return false
	}

	inSeq := parent.Kind() == stats.KindSequence
	from := ifst
	if inSeq {
		from = parent
	}
	next := nextStatement(from)

	noIfStat := data.IfBranch == stats.NoNode
	var ifDirect bool
	if noIfStat {
		ifDirect = isDirectPath(from, g.Node(ifedge.Destination))
	} else {
		ifDirect = hasDirectEndEdge(g.Node(data.IfBranch), from)
	}

	last := ifst
	if inSeq {
		last = parent.LastChild()
	}
	noElseStat := last == ifst
	elseDirect := hasDirectEndEdge(last, from)

	succs := ifst.Successors(stats.MaskAll)
	if len(succs) == 0 {
		return false
	}
	if !noElseStat && existsPath(ifst, g.Node(succs[0].Destination)) {
		return false
	}

	var ifDirectPath, elseDirectPath bool
	if !ifDirect && !noIfStat {
		ifDirectPath = existsPath(ifst, next)
	}
	if !elseDirect && !noElseStat {
		children := parent.Children()
		for i := len(children) - 1; i >= 0 && children[i] != ifst; i-- {
			if existsPath(children[i], next) {
				elseDirectPath = true
				break
			}
		}
	}

	switch {
	case (ifDirect || ifDirectPath) && (elseDirect || elseDirectPath) && !noIfStat && !noElseStat:
		addElse(ifst, parent)
	case ifDirect && (!elseDirect || (noIfStat && !noElseStat)):
		if noElseStat {
			if !flipLastIf(ifst, noIfStat) {
				return false
			}
		} else {
			swapBranches(ifst, noIfStat, parent)
		}
		data.Condition = negate(data.Condition)
	default:
		return false
	}
	return true
}

// detachTail removes the statements following ifst from its sequence and
// returns them as one statement
func detachTail(ifst, parent *stats.Statement) *stats.Statement {
	g := ifst.Graph()
	children := parent.Children()
	tail := children[parent.IndexOf(ifst)+1:]
	for _, st := range tail {
		parent.RemoveChild(st)
	}
	if len(tail) == 1 {
		return tail[0]
	}
	seq := g.NewComposite(stats.KindSequence, tail[0], tail, nil)
	seq.SetAllParent()
	return seq
}

// addElse moves the rest of the sequence into the else arm of ifst
func addElse(ifst, parent *stats.Statement) {
	g := ifst.Graph()
	data := ifst.If()
	if e := ifst.FirstSuccessor(); e != nil {
		g.RemoveEdge(e)
	}
	stelse := detachTail(ifst, parent)
	ifst.AppendChild(stelse)
	data.ElseBranch = stelse.ID
	data.ElseEdge = g.AddEdge(stats.EdgeRegular, ifst.First(), stelse, nil).ID
	data.IfType = stats.IfElse
}

// swapBranches makes the rest of the sequence the arm of ifst. The old arm
// follows ifst in the sequence, an old jump becomes the exit of ifst.
func swapBranches(ifst *stats.Statement, noIfStat bool, parent *stats.Statement) {
	if parent.IndexOf(ifst) == parent.ChildCount()-1 {
		return
	}
	g := ifst.Graph()
	data := ifst.If()
	head := ifst.First()

	if e := ifst.FirstSuccessor(); e != nil {
		g.RemoveEdge(e)
	}
	stelse := detachTail(ifst, parent)

	if noIfStat {
		g.MoveSource(g.Edge(data.IfEdge), ifst)
	} else {
		branch := g.Node(data.IfBranch)
		g.RemoveEdge(g.Edge(data.IfEdge))
		ifst.RemoveChild(branch)
		g.AddEdge(stats.EdgeRegular, ifst, branch, nil)
		parent.AppendChild(branch)
		for _, e := range ifst.LabelEdges() {
			if branch.Contains(g.Node(e.Source)) {
				g.SetClosure(e, parent)
			}
		}
	}

	ifst.AppendChild(stelse)
	data.IfBranch = stelse.ID
	data.IfEdge = g.AddEdge(stats.EdgeRegular, head, stelse, nil).ID
}

// flipLastIf swaps the arms of an if that ends its sequence: the jump that
// leaves the if becomes its test and the old arm follows it
func flipLastIf(ifst *stats.Statement, noIfStat bool) bool {
	g := ifst.Graph()
	data := ifst.If()
	elseedge := ifst.FirstSuccessor()
	if elseedge == nil || elseedge.Type == stats.EdgeRegular {
		return false
	}

	if noIfStat {
		ifedge := g.Edge(data.IfEdge)
		g.MoveSource(ifedge, ifst)
		g.MoveSource(elseedge, ifst.First())
		data.IfEdge = elseedge.ID
		return true
	}

	branch := g.Node(data.IfBranch)
	g.RemoveEdge(g.Edge(data.IfEdge))
	ifst.RemoveChild(branch)
	data.IfBranch = stats.NoNode
	g.MoveSource(elseedge, ifst.First())
	data.IfEdge = elseedge.ID

	seq := g.NewComposite(stats.KindSequence, ifst, []*stats.Statement{ifst, branch}, nil)
	ifst.Parent().ReplaceStatement(ifst, seq)
	seq.SetAllParent()
	g.AddEdge(stats.EdgeRegular, ifst, branch, nil)
	return true
}

// hasDirectEndEdge reports whether control leaving st, or a statement that
// ends st, reaches the end of from without a jump
func hasDirectEndEdge(st, from *stats.Statement) bool {
	if st == nil {
		return false
	}
	g := st.Graph()
	for _, e := range st.Successors(stats.MaskAll) {
		if isDirectPath(from, g.Node(e.Destination)) {
			return true
		}
	}

	switch st.Kind() {
	case stats.KindSequence:
		return hasDirectEndEdge(st.LastChild(), from)
	case stats.KindTryCatch, stats.KindCatchAll, stats.KindSwitch:
		for _, c := range st.Children() {
			if hasDirectEndEdge(c, from) {
				return true
			}
		}
	case stats.KindIf:
		if data := st.If(); data.IfType == stats.IfElse {
			return hasDirectEndEdge(g.Node(data.IfBranch), from) || hasDirectEndEdge(g.Node(data.ElseBranch), from)
		}
	case stats.KindSynchronized:
		return hasDirectEndEdge(g.Node(st.Sync().Body), from)
	}
	return false
}

// nextStatement returns the statement control reaches after st completes
func nextStatement(st *stats.Statement) *stats.Statement {
	p := st.Parent()
	if p == nil {
		return nil
	}
	switch p.Kind() {
	case stats.KindRoot:
		return st.Graph().Node(p.Root().DummyExit)
	case stats.KindDo:
		return p
	case stats.KindSequence:
		if i := p.IndexOf(st); i < p.ChildCount()-1 {
			return p.ChildAt(i + 1)
		}
	}
	return nextStatement(p)
}

// existsPath reports whether a jump from inside from reaches to
func existsPath(from, to *stats.Statement) bool {
	if to == nil {
		return false
	}
	g := from.Graph()
	for _, e := range to.Predecessors(stats.MaskAll) {
		if from.ContainsStrict(g.Node(e.Source)) {
			return true
		}
	}
	return false
}

func andCond(a, b string) string {
	return operand(a) + " && " + operand(b)
}

func orCond(a, b string) string {
	return operand(a) + " || " + operand(b)
}

func ternaryCond(a, b, c string) string {
	return operand(a) + " ? " + operand(b) + " : " + operand(c)
}

// operand parenthesizes a condition with operators outside parentheses
func operand(cond string) string {
	depth := 0
	for _, r := range cond {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				return "(" + cond + ")"
			}
		}
	}
	return cond
}
