package decompose

import (
	"sort"

	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// postEntry is the candidate post list of one head
type postEntry struct {
	head  *stats.Statement
	posts []*stats.Statement
}

// calcPostDominators computes post-dominator sets of the children of a
// general statement over regular edges. Strongly connected components with
// no regular exit seed the computation. Each list is sorted by reverse
// postorder with the head itself moved to the end.
func calcPostDominators(general *stats.Statement) []postEntry {
	comps := general.StrongComponents()
	order := general.PostReversePostOrderFrom(stats.ExitReps(comps))

	all := make(map[stats.NodeID]bool, len(order))
	for _, st := range order {
		all[st.ID] = true
	}

	doms := make(map[stats.NodeID]map[stats.NodeID]bool, len(order))
	for _, comp := range comps {
		var set map[stats.NodeID]bool
		if stats.IsExitComponent(comp) {
			set = make(map[stats.NodeID]bool, len(comp))
			for _, st := range comp {
				set[st.ID] = true
			}
		} else {
			set = copySet(all)
		}
		for _, st := range comp {
			doms[st.ID] = set
		}
	}

	flagged := copySet(all)
	for len(flagged) > 0 {
		for _, st := range order {
			if !flagged[st.ID] {
				continue
			}
			delete(flagged, st.ID)

			var next map[stats.NodeID]bool
			for _, succ := range st.SuccessorNodes(stats.EdgeRegular) {
				set, ok := doms[succ.ID]
				if !ok {
					continue
				}
				if next == nil {
					next = copySet(set)
					continue
				}
				for id := range next {
					if !set[id] {
						delete(next, id)
					}
				}
			}
			if next == nil {
				next = make(map[stats.NodeID]bool)
			}
			next[st.ID] = true

			if !equalSets(next, doms[st.ID]) {
				doms[st.ID] = next
				for _, pred := range st.PredecessorNodes(stats.EdgeRegular) {
					if all[pred.ID] {
						flagged[pred.ID] = true
					}
				}
			}
		}
	}

	rank := rpoRank(general)
	res := make([]postEntry, 0, len(order))
	for _, st := range order {
		posts := make([]*stats.Statement, 0, len(doms[st.ID]))
		for id := range doms[st.ID] {
			posts = append(posts, general.Graph().Node(id))
		}
		sortByRank(posts, rank)
		if len(posts) > 1 && posts[0] == st {
			posts = append(posts[1:], st)
		}
		res = append(res, postEntry{head: st, posts: posts})
	}
	return res
}

// reachableFrom lists the children of general reachable from st through
// regular and exception edges. st itself is included only if it lies on a
// cycle.
func reachableFrom(general, st *stats.Statement) map[stats.NodeID]bool {
	seen := make(map[stats.NodeID]bool)
	stack := []*stats.Statement{st}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, mask := range []stats.EdgeType{stats.EdgeRegular, stats.EdgeException} {
			for _, succ := range cur.SuccessorNodes(mask) {
				if seen[succ.ID] || !general.HasChild(succ.ID) {
					continue
				}
				seen[succ.ID] = true
				stack = append(stack, succ)
			}
		}
	}
	return seen
}

// candidatePosts lists every reachable node as a possible post of each head
func candidatePosts(general *stats.Statement) []postEntry {
	rank := rpoRank(general)
	order := general.PostReversePostOrder()
	fromFirst := reachableFrom(general, general.First())

	res := make([]postEntry, 0, len(order))
	for _, st := range order {
		var posts []*stats.Statement
		for id := range reachableFrom(general, st) {
			if id != st.ID {
				posts = append(posts, general.Graph().Node(id))
			}
		}
		sortByRank(posts, rank)
		if fromFirst[st.ID] {
			posts = append(posts, st)
		}
		res = append(res, postEntry{head: st, posts: posts})
	}
	return res
}

// findGeneralStatement looks for a single-entry region between a head and a
// post, wraps it in a nested General and merges it. It returns nil when no
// region qualifies.
func findGeneralStatement(general *stats.Statement, forceall bool) *stats.Statement {
	var entries []postEntry
	if forceall {
		entries = candidatePosts(general)
	} else {
		entries = calcPostDominators(general)
	}

	for _, entry := range entries {
		head := entry.head
		reach := reachableFrom(general, head)

		for _, post := range entry.posts {
			if post != head && !reach[post.ID] {
				continue
			}
			if region := collectRegion(general, head, post); region != nil {
				var p *stats.Statement
				if post != head {
					p = post
				}
				res := general.Graph().NewComposite(stats.KindGeneral, head, region, p)
				general.CollapseNodesToStatement(res)
				return res
			}
		}
	}
	return nil
}

// collectRegion gathers the nodes between head and post. Exception handlers
// are pulled in once every statement they protect is inside. The region is
// rejected unless it is entered only through head, all its handlers cover it
// completely and it is a proper subset of the general.
func collectRegion(general, head, post *stats.Statement) []*stats.Statement {
	same := post == head
	nodes := newNodeSet()
	preds := newNodeSet()
	handlers := newNodeSet(head)

	for {
		found := false
		for _, handler := range handlers.items() {
			if nodes.has(handler) {
				continue
			}
			add := nodes.len() == 0
			if !add {
				throwers := handler.PredecessorNodes(stats.EdgeException)
				add = nodes.containsAll(throwers) && (nodes.len() > len(throwers) || nodes.len() == 1)
			}
			if !add {
				continue
			}

			queue := []*stats.Statement{handler}
			for len(queue) > 0 {
				st := queue[0]
				queue = queue[1:]
				if nodes.has(st) || (!same && st == post) {
					continue
				}
				nodes.add(st)
				if st != head {
					for _, p := range st.PredecessorNodes(stats.EdgeRegular) {
						preds.add(p)
					}
				}
				for _, succ := range st.SuccessorNodes(stats.EdgeRegular) {
					if general.HasChild(succ.ID) {
						queue = append(queue, succ)
					}
				}
				for _, h := range st.SuccessorNodes(stats.EdgeException) {
					handlers.add(h)
				}
			}
			found = true
			handlers.remove(handler)
			break
		}
		if !found {
			break
		}
	}

	outside := newNodeSet()
	for _, st := range nodes.items() {
		for _, h := range st.SuccessorNodes(stats.EdgeException) {
			if !nodes.has(h) {
				outside.add(h)
			}
		}
	}
	for _, h := range outside.items() {
		if !newNodeSet(h.PredecessorNodes(stats.EdgeException)...).containsAll(nodes.items()) {
			return nil
		}
	}

	for _, p := range preds.items() {
		if !nodes.has(p) {
			return nil
		}
	}

	selfLoop := containsNode(head.PredecessorNodes(stats.EdgeRegular), head)
	if (nodes.len() <= 1 && !selfLoop) || nodes.len() >= general.ChildCount() {
		return nil
	}
	if !checkSynchronizedCompleteness(nodes) {
		return nil
	}
	return nodes.items()
}

// checkSynchronizedCompleteness rejects regions that would separate a
// monitor enter from the statement it guards
func checkSynchronizedCompleteness(nodes *nodeSet) bool {
	for _, st := range nodes.items() {
		if !st.IsMonitorEnter() {
			continue
		}
		succs := st.Successors(stats.MaskDirectAll)
		if len(succs) != 1 || succs[0].Type != stats.EdgeRegular {
			return false
		}
		if !nodes.has(st.Graph().Node(succs[0].Destination)) {
			return false
		}
	}
	return true
}

func rpoRank(general *stats.Statement) map[stats.NodeID]int {
	order := general.ReversePostOrder()
	rank := make(map[stats.NodeID]int, len(order))
	for i, st := range order {
		rank[st.ID] = i
	}
	return rank
}

func sortByRank(list []*stats.Statement, rank map[stats.NodeID]int) {
	pos := func(st *stats.Statement) int {
		if r, ok := rank[st.ID]; ok {
			return r
		}
		return len(rank) + int(st.ID)
	}
	sort.SliceStable(list, func(i, j int) bool { return pos(list[i]) < pos(list[j]) })
}

func copySet(src map[stats.NodeID]bool) map[stats.NodeID]bool {
	res := make(map[stats.NodeID]bool, len(src))
	for k, v := range src {
		if v {
			res[k] = true
		}
	}
	return res
}

func equalSets(a, b map[stats.NodeID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
