package decompose

import "github.com/ludo-technologies/flowstruct/internal/stats"

// nodeSet is an insertion-ordered set of statements
type nodeSet struct {
	order []*stats.Statement
	index map[stats.NodeID]bool
}

func newNodeSet(items ...*stats.Statement) *nodeSet {
	s := &nodeSet{index: make(map[stats.NodeID]bool)}
	for _, it := range items {
		s.add(it)
	}
	return s
}

func (s *nodeSet) add(st *stats.Statement) bool {
	if st == nil || s.index[st.ID] {
		return false
	}
	s.index[st.ID] = true
	s.order = append(s.order, st)
	return true
}

func (s *nodeSet) remove(st *stats.Statement) {
	if st == nil || !s.index[st.ID] {
		return
	}
	delete(s.index, st.ID)
	for i, o := range s.order {
		if o.ID == st.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *nodeSet) has(st *stats.Statement) bool {
	return st != nil && s.index[st.ID]
}

func (s *nodeSet) len() int {
	return len(s.order)
}

func (s *nodeSet) items() []*stats.Statement {
	return append([]*stats.Statement(nil), s.order...)
}

func (s *nodeSet) containsAll(list []*stats.Statement) bool {
	for _, st := range list {
		if !s.has(st) {
			return false
		}
	}
	return true
}

// UniquePredExceptions returns the exception handlers of head that are
// entered from no other statement
func UniquePredExceptions(head *stats.Statement) []*stats.Statement {
	handlers := newNodeSet(head.SuccessorNodes(stats.EdgeException)...)
	var res []*stats.Statement
	for _, h := range handlers.items() {
		if len(h.Predecessors(stats.EdgeException)) <= 1 {
			res = append(res, h)
		}
	}
	return res
}

// IsChoiceStatement checks that the regular successors of head form the
// arms of an if or switch: every arm is entered only from head (or by
// fallthrough from a sibling arm) and all arms leave to at most one common
// post node. On success the post (possibly nil) is returned first, followed
// by the arms and head itself.
func IsChoiceStatement(head *stats.Statement) ([]*stats.Statement, bool) {
	var post *stats.Statement
	dest := newNodeSet(head.SuccessorNodes(stats.EdgeRegular)...)
	if dest.has(head) {
		return nil, false
	}

	var lst []*stats.Statement
	for {
		lst = lst[:0]
		repeat := false
		dest.remove(post)

	arms:
		for _, st := range dest.items() {
			if st.LastBasicType() != stats.LastGeneral {
				if post == nil {
					post = st
					repeat = true
					break arms
				}
				return nil, false
			}

			preds := newNodeSet(st.PredecessorNodes(stats.EdgeRegular)...)
			preds.remove(head)
			if preds.has(st) {
				return nil, false
			}
			if !dest.containsAll(preds.items()) || preds.len() > 1 {
				if post == nil {
					post = st
					repeat = true
					break arms
				}
				return nil, false
			} else if preds.len() == 1 {
				pred := preds.items()[0]
				for steps := 0; containsNode(lst, pred) && steps <= len(lst); steps++ {
					up := newNodeSet(pred.PredecessorNodes(stats.EdgeRegular)...)
					up.remove(head)
					if up.len() == 0 {
						break
					}
					pred = up.items()[0]
					if pred == st {
						return nil, false
					}
				}
			}

			succs := st.Successors(stats.EdgeRegular)
			if len(succs) > 1 {
				targets := newNodeSet(st.SuccessorNodes(stats.EdgeRegular)...)
				for _, tg := range targets.items() {
					if dest.has(tg) {
						return nil, false
					}
				}
				if post == nil {
					post = st
					repeat = true
					break arms
				}
				return nil, false
			} else if len(succs) == 1 {
				d := st.Graph().Node(succs[0].Destination)
				if d == head {
					return nil, false
				}
				if d != post && !dest.has(d) {
					if post != nil {
						return nil, false
					}
					if len(newNodeSet(d.PredecessorNodes(stats.EdgeRegular)...).items()) > 1 {
						post = d
						repeat = true
						break arms
					}
					return nil, false
				}
			}
			lst = append(lst, st)
		}

		if !repeat {
			break
		}
	}

	lst = append(lst, head)
	res := make([]*stats.Statement, 0, len(lst)+1)
	res = append(res, post)
	for _, st := range lst {
		if st != post {
			res = append(res, st)
		}
	}
	return res, true
}

// CheckStatementExceptions verifies that merging lst keeps exception ranges
// intact: handlers not shared by every member must themselves be members
// entered only from members, and no member other than the first may be a
// handler of something outside.
func CheckStatementExceptions(lst []*stats.Statement) bool {
	all := newNodeSet(lst...)
	handlers := newNodeSet()
	var intersection *nodeSet

	for _, st := range lst {
		cur := newNodeSet(st.SuccessorNodes(stats.EdgeException)...)
		if intersection == nil {
			intersection = cur
			continue
		}
		for _, h := range intersection.items() {
			if !cur.has(h) {
				handlers.add(h)
				intersection.remove(h)
			}
		}
		for _, h := range cur.items() {
			if !intersection.has(h) {
				handlers.add(h)
			}
		}
	}

	for _, h := range handlers.items() {
		if !all.has(h) || !all.containsAll(h.PredecessorNodes(stats.EdgeException)) {
			return false
		}
	}

	for _, st := range lst[min(1, len(lst)):] {
		if st == nil {
			continue
		}
		if len(st.Predecessors(stats.EdgeException)) > 0 && !handlers.has(st) {
			return false
		}
	}
	return true
}

func containsNode(list []*stats.Statement, st *stats.Statement) bool {
	for _, o := range list {
		if o == st {
			return true
		}
	}
	return false
}
