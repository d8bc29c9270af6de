package stats

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of the tree below root: every
// child points back to its parent, the entry is a child, every attached
// edge is registered on both endpoints and closures agree with label
// ownership. All violations are collected into one error.
func Validate(root *Statement) error {
	g := root.g
	var errs []error
	report := func(nodes []NodeID, format string, args ...interface{}) {
		errs = append(errs, &ConsistencyError{Op: "Validate", Nodes: nodes, Msg: fmt.Sprintf(format, args...)})
	}

	var walk func(s *Statement)
	walk = func(s *Statement) {
		if s.first != NoNode && !s.HasChild(s.first) {
			report([]NodeID{s.ID, s.first}, "entry of %s is not a child", s)
		}
		if len(s.children) > 0 && s.first == NoNode {
			report([]NodeID{s.ID}, "%s has children but no entry", s)
		}
		seen := make(map[NodeID]bool, len(s.children))
		for _, id := range s.children {
			if seen[id] {
				report([]NodeID{s.ID, id}, "duplicate child %d in %s", id, s)
			}
			seen[id] = true
			if c := g.nodes[id]; c.parent != s.ID {
				report([]NodeID{s.ID, id}, "%s does not point back to parent %s", c, s)
			}
		}

		for _, id := range s.succ {
			e := g.edges[id]
			switch {
			case !e.attached:
				report([]NodeID{s.ID}, "detached edge %d listed as successor", id)
			case e.Source != s.ID:
				report([]NodeID{s.ID, e.Source}, "edge %d listed on %s has another source", id, s)
			case !contains(g.nodes[e.Destination].pred, id):
				report([]NodeID{s.ID, e.Destination}, "edge %d missing from predecessors of %d", id, e.Destination)
			}
			if e.Closure != NoNode && !contains(g.nodes[e.Closure].labelEdges, id) {
				report([]NodeID{s.ID, e.Closure}, "edge %d not registered on its closure %d", id, e.Closure)
			}
		}
		for _, id := range s.pred {
			e := g.edges[id]
			if e.Destination != s.ID || !contains(g.nodes[e.Source].succ, id) {
				report([]NodeID{s.ID, e.Source}, "edge %d listed as predecessor of %s is inconsistent", id, s)
			}
		}
		for _, id := range s.labelEdges {
			if e := g.edges[id]; e.Closure != s.ID {
				report([]NodeID{s.ID}, "edge %d owned by %s has closure %d", id, s, e.Closure)
			}
		}

		for _, id := range s.children {
			walk(g.nodes[id])
		}
	}

	if root.parent != NoNode {
		report([]NodeID{root.ID}, "root %s has a parent", root)
	}
	walk(root)
	return errors.Join(errs...)
}

func contains(list []EdgeID, id EdgeID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// Walk visits the tree below s depth-first in child order
func Walk(s *Statement, fn func(*Statement) bool) {
	if !fn(s) {
		return
	}
	for _, c := range s.Children() {
		Walk(c, fn)
	}
}

// ClearPosts drops the transient post references below s
func ClearPosts(s *Statement) {
	Walk(s, func(st *Statement) bool {
		st.post = NoNode
		return true
	})
}
