package decompose

import (
	"strings"

	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// BuildSynchronized turns a monitor enter followed by a catch-all whose
// handler releases the monitor into a Synchronized statement. The
// monitorexit instructions it covers are marked removable.
func BuildSynchronized(st *stats.Statement) {
	for _, child := range st.Children() {
		BuildSynchronized(child)
	}
	if st.Kind() != stats.KindSequence {
		return
	}

	for buildSynchronizedOnce(st) {
	}
	unwrapSingleSequence(st)
}

func buildSynchronizedOnce(seq *stats.Statement) bool {
	g := seq.Graph()
	children := seq.Children()

	for i := 0; i < len(children)-1; i++ {
		current := children[i]
		if !current.IsMonitorEnter() {
			continue
		}

		next := children[i+1]
		nextDirect := next
		for next.Kind() == stats.KindSequence {
			next = next.First()
		}
		if next.Kind() != stats.KindCatchAll {
			continue
		}

		body := next.First()
		handler := g.Node(next.CatchAll().Handler)
		headOK := body.ContainsMonitorExitOrThrow() || hasNoExits(body)
		if !headOK || !handler.ContainsMonitorExit() {
			continue
		}

		body.MarkMonitorExitDead()
		handler.MarkMonitorExitDead()

		if succs := current.Successors(stats.MaskDirectAll); len(succs) > 0 {
			g.RemoveEdge(succs[0])
		}
		for _, e := range current.Predecessors(stats.MaskDirectAll) {
			g.Retarget(e, nextDirect)
		}
		seq.RemoveChild(current)

		next.RemoveChild(body)
		next.RemoveChild(handler)
		sync := g.NewComposite(stats.KindSynchronized, current, []*stats.Statement{current, body, handler}, nil)
		sync.SetAllParent()
		data := sync.Sync()
		data.Head = current.ID
		data.Body = body.ID
		data.Handler = handler.ID
		data.Monitor = monitorText(current)

		for _, e := range next.LabelEdges() {
			g.SetClosure(e, sync)
		}
		g.AddEdge(stats.EdgeRegular, current, body, nil)

		next.Parent().ReplaceStatement(next, sync)
		return true
	}
	return false
}

// hasNoExits reports whether no direct edge leaves head or its descendants
func hasNoExits(head *stats.Statement) bool {
	g := head.Graph()
	stack := []*stats.Statement{head}
	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range st.Successors(stats.MaskDirectAll) {
			if !head.Contains(g.Node(e.Destination)) {
				return false
			}
		}
		stack = append(stack, st.Children()...)
	}
	return true
}

func monitorText(st *stats.Statement) string {
	if st.Kind() != stats.KindBasicBlock {
		return ""
	}
	if b := st.Block().Block; b != nil {
		if last := b.Last(); last != nil {
			return strings.TrimSpace(last.Text)
		}
	}
	return ""
}

// MarkFinally flags catch-all handlers that end by rethrowing as finally
// blocks
func MarkFinally(root *stats.Statement) {
	g := root.Graph()
	stats.Walk(root, func(st *stats.Statement) bool {
		if st.Kind() == stats.KindCatchAll {
			data := st.CatchAll()
			if h := g.Node(data.Handler); h != nil && h.IsLastThrow() {
				data.IsFinally = true
			}
		}
		return true
	})
}
