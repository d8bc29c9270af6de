package stats

import "fmt"

// ReversePostOrder lists the children of s reachable from its entry in
// reverse postorder, following regular and exception edges
func (s *Statement) ReversePostOrder() []*Statement {
	return s.ReversePostOrderFrom(s.First())
}

// ReversePostOrderFrom is ReversePostOrder starting at an arbitrary node. The
// traversal uses an explicit stack.
func (s *Statement) ReversePostOrderFrom(start *Statement) []*Statement {
	if start == nil {
		return nil
	}
	g := s.g

	type frame struct {
		node  *Statement
		index int
	}

	var post []*Statement
	visited := map[NodeID]bool{start.ID: true}
	stack := []frame{{node: start}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succ := top.node.succ
		pushed := false
		for top.index < len(succ) {
			e := g.edges[succ[top.index]]
			top.index++
			if e.Type != EdgeRegular && e.Type != EdgeException {
				continue
			}
			if visited[e.Destination] {
				continue
			}
			visited[e.Destination] = true
			stack = append(stack, frame{node: g.nodes[e.Destination]})
			pushed = true
			break
		}
		if !pushed {
			post = append(post, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// PostReversePostOrder lists the children of s in reverse postorder of the
// reversed graph, starting from the representatives of the exit components.
// Every child must be reached.
func (s *Statement) PostReversePostOrder() []*Statement {
	return s.PostReversePostOrderFrom(ExitReps(s.StrongComponents()))
}

// PostReversePostOrderFrom is PostReversePostOrder with explicit exits
func (s *Statement) PostReversePostOrderFrom(exits []*Statement) []*Statement {
	var res []*Statement
	visited := make(map[NodeID]bool)

	var visit func(st *Statement)
	visit = func(st *Statement) {
		if visited[st.ID] {
			return
		}
		visited[st.ID] = true
		for _, mask := range []EdgeType{EdgeRegular, EdgeException} {
			for _, pred := range st.PredecessorNodes(mask) {
				if !visited[pred.ID] && s.HasChild(pred.ID) {
					visit(pred)
				}
			}
		}
		res = append(res, st)
	}

	for _, exit := range exits {
		visit(exit)
	}

	if len(res) != len(s.children) {
		fail("PostReversePostOrder",
			fmt.Sprintf("reached %d of %d statements", len(res), len(s.children)), s.ID)
	}

	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}

// StrongComponents partitions the children of s into strongly connected
// components over regular edges. The entry is explored first, then nodes
// without direct predecessors, then everything left.
func (s *Statement) StrongComponents() [][]*Statement {
	g := s.g
	var (
		components [][]*Statement
		stack      []*Statement
		onStack    = make(map[NodeID]bool)
		index      = make(map[NodeID]int)
		lowlink    = make(map[NodeID]int)
		counter    int
	)

	var visit func(st *Statement)
	visit = func(st *Statement) {
		index[st.ID] = counter
		lowlink[st.ID] = counter
		counter++
		stack = append(stack, st)
		onStack[st.ID] = true

		for _, e := range st.Successors(EdgeRegular) {
			if !s.HasChild(e.Destination) {
				continue
			}
			succ := g.nodes[e.Destination]
			if _, seen := index[succ.ID]; !seen {
				visit(succ)
				lowlink[st.ID] = min(lowlink[st.ID], lowlink[succ.ID])
			} else if onStack[succ.ID] {
				lowlink[st.ID] = min(lowlink[st.ID], index[succ.ID])
			}
		}

		if lowlink[st.ID] == index[st.ID] {
			var comp []*Statement
			for {
				v := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[v.ID] = false
				comp = append(comp, v)
				if v == st {
					break
				}
			}
			components = append(components, comp)
		}
	}

	if first := s.First(); first != nil {
		visit(first)
	}
	for _, st := range s.Children() {
		if _, seen := index[st.ID]; !seen && len(st.Predecessors(MaskDirectAll)) == 0 {
			visit(st)
		}
	}
	for _, st := range s.Children() {
		if _, seen := index[st.ID]; !seen {
			visit(st)
		}
	}
	return components
}

// IsExitComponent reports whether no regular edge leaves the component
func IsExitComponent(comp []*Statement) bool {
	members := make(map[NodeID]bool, len(comp))
	for _, st := range comp {
		members[st.ID] = true
	}
	for _, st := range comp {
		for _, e := range st.Successors(EdgeRegular) {
			if !members[e.Destination] {
				return false
			}
		}
	}
	return true
}

// ExitReps returns the first member of every exit component
func ExitReps(comps [][]*Statement) []*Statement {
	var res []*Statement
	for _, comp := range comps {
		if IsExitComponent(comp) {
			res = append(res, comp[0])
		}
	}
	return res
}
