package decompose

import (
	"testing"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/ludo-technologies/flowstruct/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizerPriority(t *testing.T) {
	var names []string
	for _, r := range Recognizers() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"sequence", "if", "loop", "switch", "trycatch", "catchall"}, names)

	// the table handed out is a copy
	list := Recognizers()
	list[0].Name = "changed"
	assert.Equal(t, "sequence", Recognizers()[0].Name)
}

func TestMatchSequence(t *testing.T) {
	f := newFixture(t, straightGraph())
	a, b, c := f.blocks[0], f.blocks[1], f.blocks[2]

	seq := MatchSequence(a)
	require.NotNil(t, seq)
	assert.Equal(t, stats.KindSequence, seq.Kind())
	assert.Equal(t, []*stats.Statement{a, b}, seq.Children())
	assert.Equal(t, a, seq.First())
	assert.Equal(t, c, seq.Post())

	before := f.general.ChildCount()
	f.merge(t, seq)
	assert.Equal(t, before-1, f.general.ChildCount())
	assert.Equal(t, seq, a.Parent())
	assert.Equal(t, seq, b.Parent())
	assert.Equal(t, 0, a.Block().Block.ID, "merged statements keep their identity")

	t.Run("join node is not absorbed", func(t *testing.T) {
		f := newFixture(t, diamondGraph())
		assert.Nil(t, MatchSequence(f.blocks[1]), "3 has two predecessors")
		assert.Nil(t, MatchSequence(f.blocks[0]), "a conditional head is not a sequence")
	})
}

func TestMatchIf(t *testing.T) {
	t.Run("fallthrough arm before join", func(t *testing.T) {
		f := newFixture(t, ifThenGraph())
		head, arm, join := f.blocks[0], f.blocks[1], f.blocks[2]

		st := MatchIf(head)
		require.NotNil(t, st)
		data := st.If()
		assert.Equal(t, stats.IfOnly, data.IfType)
		assert.Equal(t, arm.ID, data.IfBranch)
		assert.Equal(t, stats.NoNode, data.ElseBranch)
		assert.True(t, data.Negated)
		assert.Equal(t, "!(c)", data.Condition)
		assert.Equal(t, join, st.Post())

		f.merge(t, st)
		assert.NoError(t, stats.Validate(f.root))
		succs := st.Successors(stats.MaskDirectAll)
		require.Len(t, succs, 1)
		assert.Equal(t, join.ID, succs[0].Destination)
		for _, e := range join.Predecessors(stats.MaskAll) {
			assert.NotEqual(t, head.ID, e.Source, "the jump around the arm is dropped")
		}
	})

	t.Run("dead end arm", func(t *testing.T) {
		f := newFixture(t, deadEndIfGraph())
		head, fall, throw := f.blocks[0], f.blocks[1], f.blocks[2]

		assert.Nil(t, MatchIf(head), "the fallthrough arm must be folded first")
		seq := f.merge(t, MatchSequence(fall))

		st := MatchIf(head)
		require.NotNil(t, st)
		data := st.If()
		assert.Equal(t, stats.IfOnly, data.IfType)
		assert.Equal(t, throw.ID, data.IfBranch)
		assert.Equal(t, stats.NoNode, data.ElseBranch)
		assert.False(t, data.Negated)
		assert.Equal(t, "c", data.Condition)
		assert.Equal(t, seq, st.Post())
		assert.Equal(t, []*stats.Statement{head, throw}, st.Children())
	})

	t.Run("if else", func(t *testing.T) {
		f := newFixture(t, diamondGraph())
		head, left, right, join := f.blocks[0], f.blocks[1], f.blocks[2], f.blocks[3]

		st := MatchIf(head)
		require.NotNil(t, st)
		data := st.If()
		assert.Equal(t, stats.IfElse, data.IfType)
		assert.Equal(t, right.ID, data.IfBranch, "the jump target is the if branch")
		assert.Equal(t, left.ID, data.ElseBranch)
		assert.False(t, data.Negated)
		assert.Equal(t, "a > b", data.Condition)
		assert.Equal(t, join, st.Post())

		f.merge(t, st)
		for _, e := range join.Predecessors(stats.EdgeBreak) {
			assert.Equal(t, st.ID, e.Closure)
		}
		assert.NoError(t, stats.Validate(f.root))
	})

	t.Run("loop head is rejected", func(t *testing.T) {
		f := newFixture(t, whileGraph())
		assert.Nil(t, MatchIf(f.blocks[1]), "arm 2 jumps back to the head")
	})
}

func TestMatchLoop(t *testing.T) {
	f := newFixture(t, selfLoopGraph())
	entry, body := f.blocks[0], f.blocks[1]

	assert.Nil(t, MatchLoop(entry))

	loop := MatchLoop(body)
	require.NotNil(t, loop)
	assert.Equal(t, stats.KindDo, loop.Kind())
	assert.Equal(t, stats.LoopInfinite, loop.Do().LoopType)
	assert.Equal(t, body, loop.First())
	assert.Nil(t, loop.Post())

	f.merge(t, loop)
	back := loop.Predecessors(stats.EdgeContinue)
	require.Len(t, back, 1)
	assert.Equal(t, body.ID, back[0].Source)
	assert.Equal(t, loop.ID, back[0].Closure)
	assert.Len(t, loop.Predecessors(stats.EdgeRegular), 1, "entry edge is retargeted")
}

func TestMatchSwitch(t *testing.T) {
	f := newFixture(t, switchGraph())
	head, def, post := f.blocks[0], f.blocks[1], f.blocks[5]

	st := MatchSwitch(head)
	require.NotNil(t, st)
	assert.Equal(t, 5, st.ChildCount(), "head plus four arms")
	assert.Equal(t, post, st.Post())

	f.merge(t, st)
	data := st.Switch()
	require.Len(t, data.Cases, 4)
	require.Len(t, data.CaseValues, 4)

	got := make(map[int][]stats.CaseValue)
	for i, id := range data.Cases {
		got[f.g.Node(id).Block().Block.ID] = data.CaseValues[i]
	}
	assert.Equal(t, map[int][]stats.CaseValue{
		1: {{Default: true}},
		2: {{Value: 1}},
		3: {{Value: 2}},
		4: {{Value: 3}},
	}, got)

	defEdge := f.g.Edge(data.DefaultEdge)
	require.NotNil(t, defEdge)
	assert.Equal(t, def.ID, defEdge.Destination)
	assert.NoError(t, stats.Validate(f.root))
}

func TestMatchSwitchArmOrder(t *testing.T) {
	f := newFixture(t, switchFallthroughGraph())
	head, post := f.blocks[0], f.blocks[4]

	st := MatchSwitch(head)
	require.NotNil(t, st)
	assert.Equal(t, post, st.Post())
	f.merge(t, st)

	data := st.Switch()
	require.Len(t, data.Cases, 4)
	require.Len(t, data.CaseValues, 4)

	t.Run("bare break arm gets an empty body", func(t *testing.T) {
		empty := f.g.Node(data.Cases[0])
		assert.Equal(t, stats.KindBasicBlock, empty.Kind())
		assert.Nil(t, empty.Block().Block)
		assert.Equal(t, st, empty.Parent())
		assert.Equal(t, []stats.CaseValue{{Value: 10}}, data.CaseValues[0])
		assert.Equal(t, []*stats.Statement{head}, empty.PredecessorNodes(stats.EdgeRegular))

		breaks := empty.Successors(stats.EdgeBreak)
		require.Len(t, breaks, 1)
		assert.Equal(t, post.ID, breaks[0].Destination)
	})

	t.Run("fallthrough arm follows its sibling", func(t *testing.T) {
		var arms []int
		for _, id := range data.Cases[1:] {
			arms = append(arms, f.g.Node(id).Block().Block.ID)
		}
		assert.Equal(t, []int{2, 1, 3}, arms)
		assert.Equal(t, [][]stats.CaseValue{
			{{Value: 30}},
			{{Default: true}},
			{{Value: 20}},
		}, data.CaseValues[1:])
	})

	assert.Equal(t, 5, st.ChildCount(), "head, three arms and the empty arm")
	assert.NoError(t, stats.Validate(f.root))
}

func TestMatchCatchAll(t *testing.T) {
	f := newFixture(t, catchAllGraph(cfg.OpThrow))
	head, handler, next := f.blocks[0], f.blocks[1], f.blocks[2]

	assert.Nil(t, MatchCatch(head), "an untyped handler is not a typed catch")

	st := MatchCatchAll(head)
	require.NotNil(t, st)
	data := st.CatchAll()
	assert.Equal(t, handler.ID, data.Handler)
	assert.Equal(t, ThrowableType, data.Var.Type)
	assert.Equal(t, next, st.Post())
	assert.Equal(t, []*stats.Statement{head, handler}, st.Children())

	f.merge(t, st)
	assert.NoError(t, stats.Validate(f.root))
}

func TestMatchCatch(t *testing.T) {
	f := newFixture(t, tryCatchGraph())
	head, io, rt, next := f.blocks[0], f.blocks[1], f.blocks[2], f.blocks[3]

	assert.Nil(t, MatchSequence(head), "3 is a join")
	assert.Nil(t, MatchCatchAll(head))

	st := MatchCatch(head)
	require.NotNil(t, st)
	assert.Equal(t, []*stats.Statement{head, io, rt}, st.Children())
	assert.Equal(t, next, st.Post())

	data := st.Catch()
	assert.Equal(t, [][]string{{"java/io/IOException"}, {"java/lang/RuntimeException"}}, data.ExceptionTypes)
	require.Len(t, data.Vars, 2)
	assert.Equal(t, "java/io/IOException", data.Vars[0].Type)
	assert.NotEqual(t, data.Vars[0].Name(), data.Vars[1].Name())

	f.merge(t, st)
	assert.NoError(t, stats.Validate(f.root))
}

func TestRecognizerMissLeavesArenaUntouched(t *testing.T) {
	graphs := []*cfg.Graph{
		straightGraph(), ifThenGraph(), deadEndIfGraph(), diamondGraph(), whileGraph(),
		doWhileGraph(), switchGraph(), catchAllGraph(cfg.OpThrow), tryCatchGraph(),
		monitorGraph(), irreducibleGraph(),
	}
	for _, graph := range graphs {
		t.Run(graph.Name, func(t *testing.T) {
			f := newFixture(t, graph)
			for _, st := range f.general.Children() {
				for _, r := range Recognizers() {
					before := f.g.Hash()
					if r.Match(st) == nil {
						assert.Equal(t, before, f.g.Hash(), "%s on %s", r.Name, st)
					}
				}
			}
		})
	}

	t.Run("irreducible region has no hit", func(t *testing.T) {
		f := newFixture(t, irreducibleGraph())
		for _, st := range f.general.Children() {
			res, name := detect(st)
			assert.Nil(t, res, "%s matched %s", name, st)
		}
	})
}

func TestNegate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"c", "!(c)"},
		{"!(c)", "c"},
		{"!(a) && !(b)", "!(!(a) && !(b))"},
		{"!(a) || (b)", "!(!(a) || (b))"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, negate(tt.in), tt.in)
	}
}
