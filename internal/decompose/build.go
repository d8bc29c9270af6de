package decompose

import (
	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// BuildRoot turns a validated control-flow graph into the initial statement
// tree: one basic block statement per block, wrapped in a General container
// under a Root. Jumps to the entry block become continue edges of the
// container and jumps to the exit become breaks to the dummy exit.
func BuildRoot(g *stats.Graph, graph *cfg.Graph) *stats.Statement {
	blocks := make(map[int]*stats.Statement, len(graph.Blocks))
	ordered := make([]*stats.Statement, 0, len(graph.Blocks))
	for _, b := range graph.Blocks {
		st := g.NewBasicBlock(b)
		blocks[b.ID] = st
		ordered = append(ordered, st)
	}

	entryBlock := graph.GetBlock(graph.Entry)
	entry := blocks[graph.Entry]
	dummy := g.NewDummyExit()

	if len(graph.Blocks) == 1 && !entryBlock.IsSuccessor(entryBlock.ID) {
		root := g.NewRoot(entry, dummy)
		g.AddEdge(stats.EdgeBreak, entry, dummy, root)
		root.BuildContinueSet()
		root.BuildMonitorFlags()
		return root
	}

	// A handler that is also reached by regular flow is entered through an
	// empty landing block, which becomes the only exception target
	landing := make(map[int]*stats.Statement)
	var landed []int
	for _, id := range sharedHandlers(graph) {
		pad := g.NewEmptyBlock()
		landing[id] = pad
		landed = append(landed, id)
		ordered = append(ordered, pad)
	}
	handlerOf := func(id int) *stats.Statement {
		if pad, ok := landing[id]; ok {
			return pad
		}
		return blocks[id]
	}
	protect := func(src *stats.Statement, b *cfg.BasicBlock) {
		for _, h := range b.Handlers {
			// a block that is its own handler is a circular range
			if h.Handler == b.ID {
				continue
			}
			g.AddExceptionEdge(src, handlerOf(h.Handler), h.Types)
		}
	}

	general := g.NewComposite(stats.KindGeneral, entry, ordered, nil)
	general.SetAllParent()

	for _, b := range graph.Blocks {
		src := blocks[b.ID]
		for _, s := range b.Successors {
			switch {
			case s == graph.Entry:
				g.AddEdge(stats.EdgeContinue, src, general, general)
			case s == graph.Exit:
				g.AddEdge(stats.EdgeBreak, src, dummy, general)
			default:
				g.AddEdge(stats.EdgeRegular, src, blocks[s], nil)
			}
		}
		protect(src, b)
	}

	// the landing block stays inside every range that covers its handler
	for _, id := range landed {
		pad := landing[id]
		g.AddEdge(stats.EdgeRegular, pad, blocks[id], nil)
		protect(pad, graph.GetBlock(id))
	}

	general.BuildContinueSet()
	general.BuildMonitorFlags()
	return g.NewRoot(general, dummy)
}

// sharedHandlers returns the handler blocks that are also regular successors
// of some block, in block order
func sharedHandlers(graph *cfg.Graph) []int {
	regular := make(map[int]bool)
	handlers := make(map[int]bool)
	for _, b := range graph.Blocks {
		for _, s := range b.Successors {
			regular[s] = true
		}
		for _, h := range b.Handlers {
			if h.Handler != b.ID {
				handlers[h.Handler] = true
			}
		}
	}

	var res []int
	for _, b := range graph.Blocks {
		if handlers[b.ID] && regular[b.ID] {
			res = append(res, b.ID)
		}
	}
	return res
}
