package stats

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
)

// Hash returns a digest of the whole arena: every statement with its
// children, edges, flags and payload. Two arenas hash equal only when they
// are structurally identical, so it detects any mutation.
func (g *Graph) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "nodes=%d edges=%d vars=%d\n", len(g.nodes), len(g.edges), g.varCounter)
	for _, s := range g.nodes {
		fmt.Fprintf(h, "S%d %s p=%d f=%d post=%d lbt=%d m=%t,%t,%t c=%v s=%v pr=%v l=%v cs=%v\n",
			s.ID, s.kind, s.parent, s.first, s.post, s.lastBasicType,
			s.monitorEnter, s.containsMonitorExit, s.lastThrow,
			s.children, s.succ, s.pred, sortedEdges(s.labelEdges), s.ContinueSet())
		hashPayload(h, s)
	}
	for _, e := range g.edges {
		fmt.Fprintf(h, "E%d %s %d->%d c=%d x=%v e=%t l=%t a=%t\n",
			e.ID, e.Type, e.Source, e.Destination, e.Closure, e.Exceptions, e.Explicit, e.Labeled, e.attached)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sortedEdges(ids []EdgeID) []EdgeID {
	res := append([]EdgeID(nil), ids...)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func hashPayload(w io.Writer, s *Statement) {
	switch d := s.data.(type) {
	case *RootData:
		fmt.Fprintf(w, " root exit=%d comments=%q\n", d.DummyExit, d.Comments)
	case *BlockData:
		id := -1
		if d.Block != nil {
			id = d.Block.ID
		}
		fmt.Fprintf(w, " block=%d rm=%t\n", id, d.RemovableMonitorExit)
	case *GeneralData:
		fmt.Fprintf(w, " general=%t,%t\n", d.Placeholder, d.Irreducible)
	case *IfData:
		fmt.Fprintf(w, " if=%d else=%d neg=%t ie=%d ee=%d t=%d c=%q\n",
			d.IfBranch, d.ElseBranch, d.Negated, d.IfEdge, d.ElseEdge, d.IfType, d.Condition)
	case *DoData:
		fmt.Fprintf(w, " do=%s %q %q %q\n", d.LoopType, d.Init, d.Condition, d.Increment)
	case *SwitchData:
		fmt.Fprintf(w, " switch d=%d cases=%v edges=%v values=%v guards=%q\n",
			d.DefaultEdge, d.Cases, d.CaseEdges, d.CaseValues, d.Guards)
	case *CatchData:
		fmt.Fprintf(w, " catch=%q vars=%v\n", d.ExceptionTypes, d.Vars)
	case *CatchAllData:
		mv := "-"
		if d.MonitorVar != nil {
			mv = d.MonitorVar.Name()
		}
		fmt.Fprintf(w, " catchall h=%d fin=%t mv=%s v=%v\n", d.Handler, d.IsFinally, mv, d.Var)
	case *SynchronizedData:
		fmt.Fprintf(w, " sync %d %d %d %q\n", d.Head, d.Body, d.Handler, d.Monitor)
	}
}
