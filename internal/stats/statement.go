package stats

import (
	"fmt"
	"sort"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
)

// NodeID is the stable arena index of a statement
type NodeID int

// EdgeID is the stable arena index of an edge
type EdgeID int

const (
	// NoNode is the absent statement
	NoNode NodeID = -1
	// NoEdge is the absent edge
	NoEdge EdgeID = -1
)

// Statement is a node of the statement tree. Composite statements own an
// ordered set of children; all statements carry typed successor and
// predecessor edges that live in the owning Graph.
type Statement struct {
	ID NodeID

	g      *Graph
	kind   Kind
	data   Payload
	parent NodeID
	first  NodeID
	post   NodeID

	children   []NodeID
	succ       []EdgeID
	pred       []EdgeID
	labelEdges []EdgeID

	continueSet   map[NodeID]struct{}
	lastBasicType LastBasicType

	monitorEnter        bool
	containsMonitorExit bool
	lastThrow           bool

	// edits recorded by a recognizer, applied when the statement is merged
	onMerge []mergeEdit
}

type mergeEdit struct {
	edge  EdgeID
	adopt bool
}

// Kind returns the variant of the statement
func (s *Statement) Kind() Kind {
	return s.kind
}

// Graph returns the arena owning the statement
func (s *Statement) Graph() *Graph {
	return s.g
}

// String returns a short diagnostic name
func (s *Statement) String() string {
	return fmt.Sprintf("%s(%d)", s.kind, s.ID)
}

// Payload returns the kind-specific data
func (s *Statement) Payload() Payload {
	return s.data
}

func (s *Statement) payloadAs(k Kind) Payload {
	if s.kind != k {
		fail("payload", fmt.Sprintf("%s is not a %s", s, k), s.ID)
	}
	return s.data
}

// Root returns the payload of a Root statement
func (s *Statement) Root() *RootData { return s.payloadAs(KindRoot).(*RootData) }

// Block returns the payload of a BasicBlock statement
func (s *Statement) Block() *BlockData { return s.payloadAs(KindBasicBlock).(*BlockData) }

// General returns the payload of a General statement
func (s *Statement) General() *GeneralData { return s.payloadAs(KindGeneral).(*GeneralData) }

// If returns the payload of an If statement
func (s *Statement) If() *IfData { return s.payloadAs(KindIf).(*IfData) }

// Do returns the payload of a Do statement
func (s *Statement) Do() *DoData { return s.payloadAs(KindDo).(*DoData) }

// Switch returns the payload of a Switch statement
func (s *Statement) Switch() *SwitchData { return s.payloadAs(KindSwitch).(*SwitchData) }

// Catch returns the payload of a TryCatch statement
func (s *Statement) Catch() *CatchData { return s.payloadAs(KindTryCatch).(*CatchData) }

// CatchAll returns the payload of a CatchAll statement
func (s *Statement) CatchAll() *CatchAllData { return s.payloadAs(KindCatchAll).(*CatchAllData) }

// Sync returns the payload of a Synchronized statement
func (s *Statement) Sync() *SynchronizedData {
	return s.payloadAs(KindSynchronized).(*SynchronizedData)
}

// Parent returns the enclosing statement, or nil
func (s *Statement) Parent() *Statement {
	return s.g.Node(s.parent)
}

// First returns the entry child, or nil for leaves
func (s *Statement) First() *Statement {
	return s.g.Node(s.first)
}

// SetFirst makes a child the entry of the statement
func (s *Statement) SetFirst(child *Statement) {
	if child == nil {
		s.first = NoNode
		return
	}
	if !s.HasChild(child.ID) {
		fail("SetFirst", fmt.Sprintf("%s is not a child of %s", child, s), s.ID, child.ID)
	}
	s.first = child.ID
}

// Post returns the statement control reaches after this one, if known
func (s *Statement) Post() *Statement {
	return s.g.Node(s.post)
}

// SetPost records the exit successor of a statement under construction
func (s *Statement) SetPost(post *Statement) {
	if post == nil {
		s.post = NoNode
		return
	}
	s.post = post.ID
}

// Children returns the children in order
func (s *Statement) Children() []*Statement {
	res := make([]*Statement, len(s.children))
	for i, id := range s.children {
		res[i] = s.g.nodes[id]
	}
	return res
}

// ChildCount returns the number of children
func (s *Statement) ChildCount() int {
	return len(s.children)
}

// ChildAt returns the i-th child
func (s *Statement) ChildAt(i int) *Statement {
	return s.g.nodes[s.children[i]]
}

// LastChild returns the last child, or nil
func (s *Statement) LastChild() *Statement {
	if len(s.children) == 0 {
		return nil
	}
	return s.g.nodes[s.children[len(s.children)-1]]
}

// IndexOf returns the position of a direct child, or -1
func (s *Statement) IndexOf(child *Statement) int {
	for i, id := range s.children {
		if id == child.ID {
			return i
		}
	}
	return -1
}

// HasChild reports whether id is a direct child
func (s *Statement) HasChild(id NodeID) bool {
	for _, c := range s.children {
		if c == id {
			return true
		}
	}
	return false
}

// InsertChild places child at index i and adopts it
func (s *Statement) InsertChild(i int, child *Statement) {
	if s.HasChild(child.ID) {
		fail("InsertChild", fmt.Sprintf("%s already contains %s", s, child), s.ID, child.ID)
	}
	s.children = append(s.children, NoNode)
	copy(s.children[i+1:], s.children[i:])
	s.children[i] = child.ID
	child.parent = s.ID
}

// AppendChild adds child at the end and adopts it
func (s *Statement) AppendChild(child *Statement) {
	s.InsertChild(len(s.children), child)
}

// RemoveChild detaches a direct child. The entry is moved to the new first
// child when the removed child was the entry.
func (s *Statement) RemoveChild(child *Statement) {
	i := s.IndexOf(child)
	if i < 0 {
		fail("RemoveChild", fmt.Sprintf("%s is not a child of %s", child, s), s.ID, child.ID)
	}
	s.children = append(s.children[:i], s.children[i+1:]...)
	if child.parent == s.ID {
		child.parent = NoNode
	}
	if s.first == child.ID {
		s.first = NoNode
		if len(s.children) > 0 {
			s.first = s.children[0]
		}
	}
}

// SetAllParent makes this statement the parent of all of its children
func (s *Statement) SetAllParent() {
	for _, id := range s.children {
		s.g.nodes[id].parent = s.ID
	}
}

// Contains reports whether other is this statement or one of its descendants
func (s *Statement) Contains(other *Statement) bool {
	return s == other || s.ContainsStrict(other)
}

// ContainsStrict reports whether other is a descendant. It follows the
// child lists, so it also works on detached composites.
func (s *Statement) ContainsStrict(other *Statement) bool {
	if other == nil {
		return false
	}
	for _, id := range s.children {
		if id == other.ID || s.g.nodes[id].ContainsStrict(other) {
			return true
		}
	}
	return false
}

func (s *Statement) edges(list []EdgeID, mask EdgeType) []*Edge {
	var res []*Edge
	for _, id := range list {
		e := s.g.edges[id]
		if e.Type.Matches(mask) {
			res = append(res, e)
		}
	}
	return res
}

// Successors returns outgoing edges selected by mask, in insertion order
func (s *Statement) Successors(mask EdgeType) []*Edge {
	return s.edges(s.succ, mask)
}

// Predecessors returns incoming edges selected by mask, in insertion order
func (s *Statement) Predecessors(mask EdgeType) []*Edge {
	return s.edges(s.pred, mask)
}

// SuccessorNodes returns the destinations of outgoing edges selected by mask
func (s *Statement) SuccessorNodes(mask EdgeType) []*Statement {
	var res []*Statement
	for _, e := range s.Successors(mask) {
		res = append(res, s.g.nodes[e.Destination])
	}
	return res
}

// PredecessorNodes returns the sources of incoming edges selected by mask
func (s *Statement) PredecessorNodes(mask EdgeType) []*Statement {
	var res []*Statement
	for _, e := range s.Predecessors(mask) {
		res = append(res, s.g.nodes[e.Source])
	}
	return res
}

// FirstSuccessor returns the first non-exception outgoing edge, or nil
func (s *Statement) FirstSuccessor() *Edge {
	for _, id := range s.succ {
		if e := s.g.edges[id]; e.Type != EdgeException {
			return e
		}
	}
	return nil
}

// LabelEdges returns the edges whose closure is this statement
func (s *Statement) LabelEdges() []*Edge {
	res := make([]*Edge, len(s.labelEdges))
	for i, id := range s.labelEdges {
		res[i] = s.g.edges[id]
	}
	return res
}

// BasicHead returns the basic block control enters first
func (s *Statement) BasicHead() *Statement {
	if s.kind == KindBasicBlock || s.first == NoNode {
		return s
	}
	return s.g.nodes[s.first].BasicHead()
}

// LastBasicType returns how the statement's last basic block ends
func (s *Statement) LastBasicType() LastBasicType {
	return s.lastBasicType
}

// IsMonitorEnter reports whether the statement ends with monitorenter
func (s *Statement) IsMonitorEnter() bool {
	return s.monitorEnter
}

// ContainsMonitorExit reports whether a monitorexit occurs inside
func (s *Statement) ContainsMonitorExit() bool {
	return s.containsMonitorExit
}

// IsLastThrow reports whether the statement ends by throwing
func (s *Statement) IsLastThrow() bool {
	return s.lastThrow
}

// ContainsMonitorExitOrThrow reports either monitor flag
func (s *Statement) ContainsMonitorExitOrThrow() bool {
	return s.containsMonitorExit || s.lastThrow
}

// InContinueSet reports whether basic head id is a pending continue target
func (s *Statement) InContinueSet(id NodeID) bool {
	_, ok := s.continueSet[id]
	return ok
}

// ContinueSet returns the pending continue targets, sorted
func (s *Statement) ContinueSet() []NodeID {
	res := make([]NodeID, 0, len(s.continueSet))
	for id := range s.continueSet {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// BuildContinueSet recomputes, bottom-up, the loop heads reachable from
// inside the statement by continue edges that are not yet enclosed by a loop
func (s *Statement) BuildContinueSet() map[NodeID]struct{} {
	set := make(map[NodeID]struct{})
	for _, id := range s.children {
		child := s.g.nodes[id]
		for k := range child.BuildContinueSet() {
			set[k] = struct{}{}
		}
		if id != s.first {
			delete(set, child.BasicHead().ID)
		}
	}
	for _, e := range s.Successors(EdgeContinue) {
		set[s.g.nodes[e.Destination].BasicHead().ID] = struct{}{}
	}
	if s.kind == KindDo && s.first != NoNode {
		delete(set, s.g.nodes[s.first].BasicHead().ID)
	}
	s.continueSet = set
	return set
}

// BuildMonitorFlags recomputes the monitor and throw flags bottom-up
func (s *Statement) BuildMonitorFlags() {
	for _, id := range s.children {
		s.g.nodes[id].BuildMonitorFlags()
	}

	switch s.kind {
	case KindBasicBlock:
		b := s.Block().Block
		if b != nil && len(b.Instructions) > 0 {
			s.containsMonitorExit = b.Contains(cfg.OpMonitorExit)
			s.monitorEnter = b.LastOp() == cfg.OpMonitorEnter
			s.lastThrow = b.LastOp() == cfg.OpThrow
		}
	case KindSynchronized, KindRoot, KindGeneral:
	default:
		s.containsMonitorExit = false
		s.lastThrow = false
		for _, id := range s.children {
			child := s.g.nodes[id]
			s.containsMonitorExit = s.containsMonitorExit || child.containsMonitorExit
			s.lastThrow = s.lastThrow || child.lastThrow
		}
	}
}

// MarkMonitorExitDead flags every contained monitorexit as removable
func (s *Statement) MarkMonitorExitDead() {
	for _, id := range s.children {
		s.g.nodes[id].MarkMonitorExitDead()
	}
	if s.kind == KindBasicBlock {
		data := s.Block()
		if data.Block != nil && data.Block.Contains(cfg.OpMonitorExit) {
			data.RemovableMonitorExit = true
		}
	}
}

// DetachOnMerge records that edge must be removed from its source when this
// composite is merged into its parent
func (s *Statement) DetachOnMerge(e *Edge) {
	s.onMerge = append(s.onMerge, mergeEdit{edge: e.ID})
}

// AdoptOnMerge records that edge must move its source to this composite when
// it is merged into its parent
func (s *Statement) AdoptOnMerge(e *Edge) {
	s.onMerge = append(s.onMerge, mergeEdit{edge: e.ID, adopt: true})
}
