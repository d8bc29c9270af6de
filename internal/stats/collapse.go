package stats

import "fmt"

// CollapseNodesToStatement splices a detached composite into s in
// place of its children. The composite's first child is the head and its
// post (if any) the continuation. Edges are reclassified as follows:
// edges from inside to post become breaks owned by the composite, edges
// from inside to the head become continues owned by the composite, all
// other edges into the head are retargeted to the composite, and
// exception handlers shared by every absorbed node move to the composite.
func (s *Statement) CollapseNodesToStatement(stat *Statement) {
	parent, g := s, s.g
	for _, id := range stat.children {
		if !parent.HasChild(id) {
			fail("CollapseNodesToStatement",
				fmt.Sprintf("%s is not a child of %s", g.nodes[id], parent), parent.ID, id)
		}
	}

	for _, edit := range stat.onMerge {
		e := g.edges[edit.edge]
		if edit.adopt {
			g.MoveSource(e, stat)
		} else {
			g.RemoveEdge(e)
		}
	}
	stat.onMerge = nil

	head := stat.First()
	post := stat.Post()

	if post != nil {
		for _, e := range post.Predecessors(MaskDirectAll) {
			if stat.ContainsStrict(g.nodes[e.Source]) {
				g.ChangeType(e, EdgeBreak)
				g.SetClosure(e, stat)
			}
		}
	}

	for _, e := range head.Predecessors(MaskAll) {
		if e.Type != EdgeException && stat.ContainsStrict(g.nodes[e.Source]) {
			g.ChangeType(e, EdgeContinue)
			g.SetClosure(e, stat)
		}
		g.Retarget(e, stat)
	}

	if stat.HasChild(parent.first) {
		parent.first = stat.ID
	}

	handlers := exceptionTargets(head)
	for _, id := range stat.children {
		common := exceptionTargets(g.nodes[id])
		for h := range handlers {
			if !common[h] {
				delete(handlers, h)
			}
		}
	}
	if len(handlers) > 0 {
		for _, e := range head.Successors(EdgeException) {
			if handlers[e.Destination] && !stat.HasChild(e.Destination) {
				g.AddExceptionEdge(stat, g.nodes[e.Destination], e.Exceptions)
			}
		}
		for _, id := range stat.children {
			for _, e := range g.nodes[id].Successors(EdgeException) {
				if handlers[e.Destination] {
					g.RemoveEdge(e)
				}
			}
		}
	}

	if post != nil && !exceptionTargets(stat)[post.ID] {
		g.AddEdge(EdgeRegular, stat, post, nil)
	}

	for _, id := range stat.children {
		parent.children = removeID(parent.children, id)
	}
	parent.children = append(parent.children, stat.ID)

	stat.SetAllParent()
	stat.parent = parent.ID

	stat.BuildContinueSet()
	stat.BuildMonitorFlags()

	if stat.kind == KindSwitch {
		stat.SortEdgesAndNodes()
	}
}

func exceptionTargets(s *Statement) map[NodeID]bool {
	res := make(map[NodeID]bool)
	for _, e := range s.Successors(EdgeException) {
		res[e.Destination] = true
	}
	return res
}

// ReplaceStatement puts newStat in the position of the direct child oldStat.
// Edges, entry role and label ownership move to newStat and closures that
// referred to oldStat are redirected.
func (s *Statement) ReplaceStatement(oldStat, newStat *Statement) {
	parent, g := s, s.g
	idx := parent.IndexOf(oldStat)
	if idx < 0 {
		fail("ReplaceStatement",
			fmt.Sprintf("cannot replace %s with %s: not a child of %s", oldStat, newStat, parent),
			parent.ID, oldStat.ID, newStat.ID)
	}

	for _, e := range oldStat.Predecessors(MaskAll) {
		g.Retarget(e, newStat)
	}
	for _, e := range oldStat.Successors(MaskAll) {
		g.MoveSource(e, newStat)
	}

	if newStat.parent != NoNode && newStat.parent != parent.ID {
		if p := g.nodes[newStat.parent]; p.HasChild(newStat.ID) {
			p.children = removeID(p.children, newStat.ID)
		}
	}
	parent.children[idx] = newStat.ID
	newStat.parent = parent.ID
	newStat.post = oldStat.post
	oldStat.parent = NoNode

	if parent.first == oldStat.ID {
		parent.first = newStat.ID
	}

	labels := oldStat.LabelEdges()
	for i := len(labels) - 1; i >= 0; i-- {
		e := labels[i]
		switch {
		case e.Source != newStat.ID:
			g.SetClosure(e, newStat)
		case parent.ID == e.Destination || parent.ContainsStrict(g.nodes[e.Destination]):
			g.SetClosure(e, nil)
		default:
			g.SetClosure(e, parent)
		}
	}

	replaceClosure(parent, oldStat, newStat)
	oldStat.labelEdges = nil
}

func replaceClosure(stat, oldStat, newStat *Statement) {
	g := stat.g
	for _, e := range stat.Successors(MaskAll) {
		if e.Closure == oldStat.ID {
			g.SetClosure(e, newStat)
		}
	}
	for _, id := range stat.children {
		replaceClosure(g.nodes[id], oldStat, newStat)
	}
}
