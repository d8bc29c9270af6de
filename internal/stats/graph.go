package stats

import (
	"fmt"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
)

// Graph is the arena of one structuring job. It owns every statement and
// edge and hands out ids from counters that are never shared between jobs.
type Graph struct {
	nodes      []*Statement
	edges      []*Edge
	varCounter int
}

// NewGraph creates an empty arena
func NewGraph() *Graph {
	return &Graph{}
}

// Node returns the statement with the id, or nil for NoNode
func (g *Graph) Node(id NodeID) *Statement {
	if id == NoNode {
		return nil
	}
	if int(id) < 0 || int(id) >= len(g.nodes) {
		fail("Node", fmt.Sprintf("unknown statement id %d", id))
	}
	return g.nodes[id]
}

// Edge returns the edge with the id, or nil for NoEdge
func (g *Graph) Edge(id EdgeID) *Edge {
	if id == NoEdge {
		return nil
	}
	if int(id) < 0 || int(id) >= len(g.edges) {
		fail("Edge", fmt.Sprintf("unknown edge id %d", id))
	}
	return g.edges[id]
}

// NodeCount returns the number of statements ever allocated
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of attached edges
func (g *Graph) EdgeCount() int {
	n := 0
	for _, e := range g.edges {
		if e.attached {
			n++
		}
	}
	return n
}

// NewVar allocates a synthesized variable
func (g *Graph) NewVar(typ string) Var {
	v := Var{ID: g.varCounter, Type: typ}
	g.varCounter++
	return v
}

func (g *Graph) newStatement(kind Kind) *Statement {
	s := &Statement{
		ID:          NodeID(len(g.nodes)),
		g:           g,
		kind:        kind,
		data:        kind.newPayload(),
		parent:      NoNode,
		first:       NoNode,
		post:        NoNode,
		continueSet: make(map[NodeID]struct{}),
	}
	g.nodes = append(g.nodes, s)
	return s
}

// NewBasicBlock wraps an input block
func (g *Graph) NewBasicBlock(block *cfg.BasicBlock) *Statement {
	s := g.newStatement(KindBasicBlock)
	s.Block().Block = block
	if block != nil {
		switch block.LastOp() {
		case cfg.OpIf:
			s.lastBasicType = LastIf
		case cfg.OpSwitch:
			s.lastBasicType = LastSwitch
		}
	}
	return s
}

// NewEmptyBlock creates a synthetic basic block without instructions
func (g *Graph) NewEmptyBlock() *Statement {
	return g.NewBasicBlock(nil)
}

// NewDummyExit creates the synthetic method exit
func (g *Graph) NewDummyExit() *Statement {
	return g.newStatement(KindDummyExit)
}

// NewRoot creates the root over first and the dummy exit
func (g *Graph) NewRoot(first, exit *Statement) *Statement {
	s := g.newStatement(KindRoot)
	s.Root().DummyExit = exit.ID
	s.children = []NodeID{first.ID}
	s.first = first.ID
	first.parent = s.ID
	return s
}

// NewComposite creates a detached composite over children. The children are
// not re-parented until the composite is merged.
func (g *Graph) NewComposite(kind Kind, first *Statement, children []*Statement, post *Statement) *Statement {
	switch kind {
	case KindRoot, KindBasicBlock, KindDummyExit:
		fail("NewComposite", fmt.Sprintf("%s is not a composite kind", kind))
	}
	s := g.newStatement(kind)
	seen := make(map[NodeID]bool, len(children))
	for _, c := range children {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		s.children = append(s.children, c.ID)
	}
	if first != nil {
		if !seen[first.ID] {
			fail("NewComposite", fmt.Sprintf("entry %s is not among the children", first), first.ID)
		}
		s.first = first.ID
	}
	s.SetPost(post)
	return s
}

// AddEdge creates a non-exception edge and registers it on both endpoints
// and on its closure
func (g *Graph) AddEdge(typ EdgeType, src, dst, closure *Statement) *Edge {
	if typ == EdgeException {
		fail("AddEdge", "exception edges need AddExceptionEdge", src.ID, dst.ID)
	}
	e := g.newEdge(typ, src, dst)
	if closure != nil {
		e.Closure = closure.ID
		closure.labelEdges = append(closure.labelEdges, e.ID)
	}
	return e
}

// AddExceptionEdge creates an exception edge from a protected statement to
// its handler. A nil types list catches everything.
func (g *Graph) AddExceptionEdge(src, handler *Statement, types []string) *Edge {
	e := g.newEdge(EdgeException, src, handler)
	if types != nil {
		e.Exceptions = append([]string{}, types...)
	}
	return e
}

func (g *Graph) newEdge(typ EdgeType, src, dst *Statement) *Edge {
	e := &Edge{
		ID:          EdgeID(len(g.edges)),
		Type:        typ,
		Source:      src.ID,
		Destination: dst.ID,
		Closure:     NoNode,
		Explicit:    true,
		Labeled:     true,
		attached:    true,
	}
	g.edges = append(g.edges, e)
	src.succ = append(src.succ, e.ID)
	dst.pred = append(dst.pred, e.ID)
	return e
}

// RemoveEdge detaches an edge from its endpoints and its closure
func (g *Graph) RemoveEdge(e *Edge) {
	if e == nil || !e.attached {
		return
	}
	src, dst := g.nodes[e.Source], g.nodes[e.Destination]
	src.succ = removeID(src.succ, e.ID)
	dst.pred = removeID(dst.pred, e.ID)
	if e.Closure != NoNode {
		c := g.nodes[e.Closure]
		c.labelEdges = removeID(c.labelEdges, e.ID)
	}
	e.attached = false
}

// Retarget changes the destination of an edge. Its position in the source's
// successor list is kept.
func (g *Graph) Retarget(e *Edge, dst *Statement) {
	g.mustBeAttached("Retarget", e)
	old := g.nodes[e.Destination]
	old.pred = removeID(old.pred, e.ID)
	e.Destination = dst.ID
	dst.pred = append(dst.pred, e.ID)
}

// MoveSource changes the source of an edge; the edge is appended to the new
// source's successors
func (g *Graph) MoveSource(e *Edge, src *Statement) {
	g.mustBeAttached("MoveSource", e)
	old := g.nodes[e.Source]
	old.succ = removeID(old.succ, e.ID)
	e.Source = src.ID
	src.succ = append(src.succ, e.ID)
}

// ChangeType reclassifies a non-exception edge
func (g *Graph) ChangeType(e *Edge, typ EdgeType) {
	if e.Type == typ {
		return
	}
	if e.Type == EdgeException || typ == EdgeException {
		fail("ChangeType", fmt.Sprintf("invalid edge type change %s -> %s", e.Type, typ), e.Source, e.Destination)
	}
	e.Type = typ
}

// SetClosure moves the label ownership of an edge to closure; nil clears it
func (g *Graph) SetClosure(e *Edge, closure *Statement) {
	if e.Closure != NoNode {
		old := g.nodes[e.Closure]
		old.labelEdges = removeID(old.labelEdges, e.ID)
	}
	e.Closure = NoNode
	if closure != nil {
		e.Closure = closure.ID
		if e.attached {
			closure.labelEdges = append(closure.labelEdges, e.ID)
		}
	}
}

func (g *Graph) mustBeAttached(op string, e *Edge) {
	if !e.attached {
		fail(op, fmt.Sprintf("edge %d is detached", e.ID), e.Source, e.Destination)
	}
}

func removeID[T comparable](list []T, id T) []T {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
