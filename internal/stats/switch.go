package stats

import "sort"

// SortEdgesAndNodes orders the arms of a merged switch by their position in
// the jump table and records, per arm, the head edges and case values that
// lead to it. Arms that are a bare break or continue get an empty basic
// block so that every arm has a body. The default arm sorts after the cases
// it does not share a body with.
func (s *Statement) SortEdgesAndNodes() {
	g := s.g
	first := s.First()
	data := s.Switch()

	headSuccs := first.Successors(MaskDirectAll)
	edgeIndex := make(map[EdgeID]int, len(headSuccs))
	for i, e := range headSuccs {
		if i == 0 {
			edgeIndex[e.ID] = len(headSuccs)
		} else {
			edgeIndex[e.ID] = i
		}
	}

	var values []int
	if block := first.Block().Block; block != nil {
		if last := block.Last(); last != nil {
			values = last.Values
		}
	}

	var nodes []*Statement
	var groups [][]int

	for _, st := range s.Children() {
		if st == first {
			continue
		}
		var idx []int
		for _, e := range st.Predecessors(EdgeRegular) {
			if e.Source == first.ID {
				idx = append(idx, edgeIndex[e.ID])
			}
		}
		sort.Ints(idx)
		nodes = append(nodes, st)
		groups = append(groups, idx)
	}

	exits := first.Successors(EdgeBreak | EdgeContinue)
	for len(exits) > 0 {
		sample := exits[0]
		var idx []int
		rest := exits[:0:0]
		for _, e := range exits {
			if e.Destination == sample.Destination && e.Type == sample.Type {
				idx = append(idx, edgeIndex[e.ID])
			} else {
				rest = append(rest, e)
			}
		}
		exits = rest
		sort.Ints(idx)
		nodes = append(nodes, nil)
		groups = append(groups, idx)
	}

	// arms without any head edge (reached only by fallthrough) keep their
	// relative position after the sort
	key := func(i int) int {
		if len(groups[i]) == 0 {
			return len(headSuccs) + 1
		}
		return groups[i][0]
	}
	for i := 0; i < len(groups)-1; i++ {
		for j := len(groups) - 1; j > i; j-- {
			if key(j-1) > key(j) {
				groups[j-1], groups[j] = groups[j], groups[j-1]
				nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
			}
		}
	}

	// an arm reached by fallthrough from a sibling goes right after it
	for index := 0; index < len(nodes); index++ {
		st := nodes[index]
		if st == nil {
			continue
		}
		pred := fallthroughPred(st, first)
		if pred == nil {
			continue
		}
		for j := range nodes {
			if j == index-1 || nodes[j] != pred {
				continue
			}
			group := groups[index]
			nodes = insertAt(nodes, j+1, st)
			groups = insertAt(groups, j+1, group)
			if j > index {
				nodes = deleteAt(nodes, index)
				groups = deleteAt(groups, index)
				index--
			} else {
				nodes = deleteAt(nodes, index+1)
				groups = deleteAt(groups, index+1)
			}
			break
		}
	}

	headSuccs = first.Successors(MaskDirectAll)
	caseEdges := make([][]EdgeID, len(groups))
	caseValues := make([][]CaseValue, len(groups))
	for i, idx := range groups {
		for _, in := range idx {
			k := in
			if in == len(headSuccs) {
				k = 0
			}
			caseEdges[i] = append(caseEdges[i], headSuccs[k].ID)
			if k == 0 {
				caseValues[i] = append(caseValues[i], CaseValue{Default: true})
			} else if k-1 < len(values) {
				caseValues[i] = append(caseValues[i], CaseValue{Value: values[k-1]})
			}
		}
	}

	for i, st := range nodes {
		if st != nil {
			continue
		}
		bstat := g.NewEmptyBlock()
		sample := g.edges[caseEdges[i][0]]
		g.AddEdge(sample.Type, bstat, g.nodes[sample.Destination], g.Node(sample.Closure))
		for _, id := range caseEdges[i] {
			e := g.edges[id]
			g.ChangeType(e, EdgeRegular)
			g.SetClosure(e, nil)
			g.Retarget(e, bstat)
		}
		nodes[i] = bstat
		s.children = append(s.children, bstat.ID)
		bstat.parent = s.ID
	}

	data.Cases = make([]NodeID, len(nodes))
	for i, st := range nodes {
		data.Cases[i] = st.ID
	}
	data.CaseEdges = caseEdges
	data.CaseValues = caseValues
	if len(headSuccs) > 0 {
		data.DefaultEdge = headSuccs[0].ID
	}
}

// fallthroughPred returns the sibling arm that flows into st, if any. The
// lowest id wins when there are several.
func fallthroughPred(st, head *Statement) *Statement {
	var best *Statement
	for _, p := range st.PredecessorNodes(EdgeRegular) {
		if p == head {
			continue
		}
		if best == nil || p.ID < best.ID {
			best = p
		}
	}
	return best
}

func insertAt[T any](list []T, i int, v T) []T {
	list = append(list, v)
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func deleteAt[T any](list []T, i int) []T {
	return append(list[:i], list[i+1:]...)
}
