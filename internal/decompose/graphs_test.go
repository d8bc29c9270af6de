package decompose

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/ludo-technologies/flowstruct/internal/stats"
	"github.com/stretchr/testify/require"
)

const exitID = 99

// fixture is the initial statement tree of a graph before any merge
type fixture struct {
	g       *stats.Graph
	root    *stats.Statement
	general *stats.Statement
	blocks  map[int]*stats.Statement
}

func newFixture(t *testing.T, graph *cfg.Graph) *fixture {
	t.Helper()
	require.NoError(t, graph.Validate())

	g := stats.NewGraph()
	root := BuildRoot(g, graph)
	f := &fixture{g: g, root: root, general: root.First(), blocks: make(map[int]*stats.Statement)}
	stats.Walk(root, func(st *stats.Statement) bool {
		if st.Kind() == stats.KindBasicBlock && st.Block().Block != nil {
			f.blocks[st.Block().Block.ID] = st
		}
		return true
	})
	return f
}

// merge collapses a recognizer hit into the general
func (f *fixture) merge(t *testing.T, st *stats.Statement) *stats.Statement {
	t.Helper()
	require.NotNil(t, st)
	f.general.CollapseNodesToStatement(st)
	return st
}

// blockIDs lists the input block ids of the basic blocks below st in tree order
func blockIDs(st *stats.Statement) []int {
	var ids []int
	stats.Walk(st, func(s *stats.Statement) bool {
		if s.Kind() == stats.KindBasicBlock && s.Block().Block != nil {
			ids = append(ids, s.Block().Block.ID)
		}
		return true
	})
	return ids
}

func findKind(root *stats.Statement, kind stats.Kind) []*stats.Statement {
	var res []*stats.Statement
	stats.Walk(root, func(st *stats.Statement) bool {
		if st.Kind() == kind {
			res = append(res, st)
		}
		return true
	})
	return res
}

// straightGraph: 0 -> 1 -> 2 -> exit
func straightGraph() *cfg.Graph {
	g := cfg.NewGraph("straight", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "a = 1")
	g.Connect(0, 1)
	g.Block(1).Add(cfg.OpPlain, "b = a")
	g.Connect(1, 2)
	g.Block(2).Add(cfg.OpReturn, "b")
	g.Connect(2, exitID)
	return g
}

// ifThenGraph: 0 falls through to 1 or jumps to 2, 1 -> 2 -> exit
func ifThenGraph() *cfg.Graph {
	g := cfg.NewGraph("ifThen", 0, exitID)
	g.Block(0).Add(cfg.OpIf, "c")
	g.Connect(0, 1)
	g.Connect(0, 2)
	g.Block(1).Add(cfg.OpPlain, "x = 1")
	g.Connect(1, 2)
	g.Block(2).Add(cfg.OpReturn, "x")
	g.Connect(2, exitID)
	return g
}

// deadEndIfGraph: 0 falls through to 1 or jumps to 2, 2 throws, 1 -> 3 -> exit
func deadEndIfGraph() *cfg.Graph {
	g := cfg.NewGraph("deadEnd", 0, exitID)
	g.Block(0).Add(cfg.OpIf, "c")
	g.Connect(0, 1)
	g.Connect(0, 2)
	g.Block(1).Add(cfg.OpPlain, "f()")
	g.Connect(1, 3)
	g.Block(2).Add(cfg.OpThrow, "e")
	g.Block(3).Add(cfg.OpReturn, "")
	g.Connect(3, exitID)
	return g
}

// diamondGraph: 0 branches to 1 and 2 which join at 3
func diamondGraph() *cfg.Graph {
	g := cfg.NewGraph("diamond", 0, exitID)
	g.Block(0).Add(cfg.OpIf, "a > b")
	g.Connect(0, 1)
	g.Connect(0, 2)
	g.Block(1).Add(cfg.OpPlain, "m = b")
	g.Connect(1, 3)
	g.Block(2).Add(cfg.OpPlain, "m = a")
	g.Connect(2, 3)
	g.Block(3).Add(cfg.OpReturn, "m")
	g.Connect(3, exitID)
	return g
}

// nestedDiamondGraph: a diamond nested in the fallthrough arm of another
func nestedDiamondGraph() *cfg.Graph {
	g := cfg.NewGraph("nested", 0, exitID)
	g.Block(0).Add(cfg.OpIf, "p")
	g.Connect(0, 1)
	g.Connect(0, 5)
	g.Block(1).Add(cfg.OpIf, "q")
	g.Connect(1, 2)
	g.Connect(1, 3)
	g.Block(2).Add(cfg.OpPlain, "x = 1")
	g.Connect(2, 4)
	g.Block(3).Add(cfg.OpPlain, "x = 2")
	g.Connect(3, 4)
	g.Block(4).Add(cfg.OpPlain, "y = x")
	g.Connect(4, 6)
	g.Block(5).Add(cfg.OpPlain, "y = 0")
	g.Connect(5, 6)
	g.Block(6).Add(cfg.OpReturn, "y")
	g.Connect(6, exitID)
	return g
}

// selfLoopGraph: 0 -> 1, 1 loops on itself forever
func selfLoopGraph() *cfg.Graph {
	g := cfg.NewGraph("spin", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "i = 0")
	g.Connect(0, 1)
	g.Block(1).Add(cfg.OpPlain, "i++")
	g.Connect(1, 1)
	return g
}

// whileGraph: 0 -> 1, 1 leaves to 3 or runs body 2 which jumps back to 1
func whileGraph() *cfg.Graph {
	g := cfg.NewGraph("count", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "i = 0")
	g.Connect(0, 1)
	g.Block(1).Add(cfg.OpIf, "i >= n")
	g.Connect(1, 2)
	g.Connect(1, 3)
	g.Block(2).Add(cfg.OpPlain, "i++")
	g.Connect(2, 1)
	g.Block(3).Add(cfg.OpReturn, "i")
	g.Connect(3, exitID)
	return g
}

// doWhileGraph: 0 -> 1, 1 tests and jumps back to itself or falls to 2
func doWhileGraph() *cfg.Graph {
	g := cfg.NewGraph("repeat", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "i = 0")
	g.Connect(0, 1)
	g.Block(1).Add(cfg.OpIf, "i < n")
	g.Connect(1, 2)
	g.Connect(1, 1)
	g.Block(2).Add(cfg.OpReturn, "i")
	g.Connect(2, exitID)
	return g
}

// switchGraph: 0 switches over cases 1..3 (blocks 2..4) with default 1,
// every arm flows to 5
func switchGraph() *cfg.Graph {
	g := cfg.NewGraph("select", 0, exitID)
	g.Block(0).Add(cfg.OpSwitch, "k")
	g.Block(0).Last().Values = []int{1, 2, 3}
	for _, s := range []int{1, 2, 3, 4} {
		g.Connect(0, s)
		g.Block(s).Add(cfg.OpPlain, fmt.Sprintf("x = %d", s))
		g.Connect(s, 5)
	}
	g.Block(5).Add(cfg.OpReturn, "x")
	g.Connect(5, exitID)
	return g
}

// catchAllGraph: 0 is protected by a catch-everything handler 1 that ends
// with op, 0 -> 2 -> exit
func catchAllGraph(op cfg.Opcode) *cfg.Graph {
	g := cfg.NewGraph("guarded", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "work()")
	g.Connect(0, 2)
	g.Protect(0, 1)
	g.Block(1).Add(op, "t")
	if op == cfg.OpReturn {
		g.Connect(1, exitID)
	}
	g.Block(2).Add(cfg.OpReturn, "")
	g.Connect(2, exitID)
	return g
}

// tryCatchGraph: 0 has two typed handlers that both continue at 3
func tryCatchGraph() *cfg.Graph {
	g := cfg.NewGraph("typed", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "read()")
	g.Connect(0, 3)
	g.Protect(0, 1, "java/io/IOException")
	g.Protect(0, 2, "java/lang/RuntimeException")
	g.Block(1).Add(cfg.OpPlain, "log(e)")
	g.Connect(1, 3)
	g.Block(2).Add(cfg.OpPlain, "fail(e)")
	g.Connect(2, 3)
	g.Block(3).Add(cfg.OpReturn, "")
	g.Connect(3, exitID)
	return g
}

// monitorGraph: 0 enters a monitor guarding 1, handler 2 releases and
// rethrows, 1 -> 3 -> exit
func monitorGraph() *cfg.Graph {
	g := cfg.NewGraph("locked", 0, exitID)
	g.Block(0).Add(cfg.OpPlain, "x = this").Add(cfg.OpMonitorEnter, "lock")
	g.Connect(0, 1)
	g.Block(1).Add(cfg.OpPlain, "work()").Add(cfg.OpMonitorExit, "lock")
	g.Connect(1, 3)
	g.Protect(1, 2)
	g.Block(2).Add(cfg.OpMonitorExit, "lock").Add(cfg.OpThrow, "t")
	g.Block(3).Add(cfg.OpReturn, "")
	g.Connect(3, exitID)
	return g
}

// irreducibleGraph: 0 enters the cycle 1 <-> 2 at both nodes
func irreducibleGraph() *cfg.Graph {
	g := cfg.NewGraph("twoEntries", 0, exitID)
	g.Block(0).Add(cfg.OpIf, "c")
	g.Connect(0, 1)
	g.Connect(0, 2)
	g.Block(1).Add(cfg.OpPlain, "a()")
	g.Connect(1, 2)
	g.Block(2).Add(cfg.OpPlain, "b()")
	g.Connect(2, 1)
	return g
}

// sharedHandlerGraph: handler 3 of block 1 is also a switch arm of 0 and of
// 1, and jumps back to the entry
func sharedHandlerGraph() *cfg.Graph {
	g := cfg.NewGraph("sharedHandler", 0, exitID)
	g.Block(0).Add(cfg.OpSwitch, "k")
	g.Block(0).Last().Values = []int{1, 2}
	g.Connect(0, 3)
	g.Connect(0, 1)
	g.Connect(0, 2)
	g.Block(1).Add(cfg.OpSwitch, "j")
	g.Block(1).Last().Values = []int{1, 2}
	g.Connect(1, exitID)
	g.Connect(1, 3)
	g.Connect(1, 2)
	g.Protect(1, 3, "java/io/IOException")
	g.Block(2).Add(cfg.OpReturn, "")
	g.Connect(2, exitID)
	g.Block(3).Add(cfg.OpPlain, "retry()")
	g.Connect(3, 0)
	return g
}

// fallthroughHandlerGraph: catch-all handler 2 of the self-looping entry is
// also a switch arm of 1
func fallthroughHandlerGraph() *cfg.Graph {
	g := cfg.NewGraph("fallthroughHandler", 0, exitID)
	g.Block(0).Add(cfg.OpIf, "a")
	g.Connect(0, 0)
	g.Connect(0, 1)
	g.Protect(0, 2)
	g.Block(1).Add(cfg.OpSwitch, "k")
	g.Block(1).Last().Values = []int{1, 2}
	g.Connect(1, 2)
	g.Connect(1, 0)
	g.Connect(1, 0)
	g.Block(2).Add(cfg.OpIf, "b")
	g.Connect(2, 0)
	g.Connect(2, exitID)
	return g
}

// switchFallthroughGraph: 0 switches with default 1, case 10 jumping
// straight to the join 4, case 20 at 3 and case 30 at 2. The default arm
// falls through into case 20.
func switchFallthroughGraph() *cfg.Graph {
	g := cfg.NewGraph("fallthrough", 0, exitID)
	g.Block(0).Add(cfg.OpSwitch, "k")
	g.Block(0).Last().Values = []int{10, 20, 30}
	g.Connect(0, 1)
	g.Connect(0, 4)
	g.Connect(0, 3)
	g.Connect(0, 2)
	g.Block(1).Add(cfg.OpPlain, "d()")
	g.Connect(1, 3)
	g.Block(2).Add(cfg.OpPlain, "c()")
	g.Connect(2, 4)
	g.Block(3).Add(cfg.OpPlain, "b()")
	g.Connect(3, 4)
	g.Block(4).Add(cfg.OpReturn, "")
	g.Connect(4, exitID)
	return g
}

// randomDAG builds an acyclic graph of up to n blocks with regular edges
// only. Every jump goes forward, the last block returns and blocks not
// reachable from the entry are dropped.
func randomDAG(rng *rand.Rand, name string, n int) *cfg.Graph {
	forward := func(from, k int) []int {
		perm := rng.Perm(n - from - 1)
		if k > len(perm) {
			k = len(perm)
		}
		res := make([]int, k)
		for i := range res {
			res[i] = from + 1 + perm[i]
		}
		return res
	}

	type shape struct {
		op    cfg.Opcode
		succs []int
	}
	shapes := make([]shape, n)
	for i := 0; i < n; i++ {
		left := n - i - 1
		switch r := rng.Intn(10); {
		case left == 0 || r == 0:
			shapes[i] = shape{op: cfg.OpReturn, succs: []int{exitID}}
		case left >= 3 && r <= 2:
			shapes[i] = shape{op: cfg.OpSwitch, succs: forward(i, 2+rng.Intn(min(left, 4)-1))}
		case left >= 2 && r <= 6:
			shapes[i] = shape{op: cfg.OpIf, succs: forward(i, 2)}
		default:
			shapes[i] = shape{op: cfg.OpPlain, succs: forward(i, 1)}
		}
	}

	reachable := map[int]bool{0: true}
	for i := 0; i < n; i++ {
		if !reachable[i] {
			continue
		}
		for _, s := range shapes[i].succs {
			reachable[s] = true
		}
	}

	g := cfg.NewGraph(name, 0, exitID)
	for i := 0; i < n; i++ {
		if !reachable[i] {
			continue
		}
		b := g.Block(i).Add(shapes[i].op, fmt.Sprintf("s%d", i))
		if shapes[i].op == cfg.OpSwitch {
			for v := 1; v < len(shapes[i].succs); v++ {
				b.Last().Values = append(b.Last().Values, v)
			}
		}
		for _, s := range shapes[i].succs {
			g.Connect(i, s)
		}
	}
	return g
}
