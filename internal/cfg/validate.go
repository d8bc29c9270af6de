package cfg

import (
	"fmt"
	"strings"
)

// ValidationError describes why a graph was rejected
type ValidationError struct {
	Graph    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid control-flow graph %q: %s", e.Graph, strings.Join(e.Problems, "; "))
}

// Validate checks the structural preconditions of the structuring engine.
// Every problem found is reported, not only the first one.
func (g *Graph) Validate() error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(g.Blocks) == 0 {
		return &ValidationError{Graph: g.Name, Problems: []string{"graph has no blocks"}}
	}

	seen := make(map[int]bool, len(g.Blocks))
	for _, b := range g.Blocks {
		if b == nil {
			addf("nil block")
			continue
		}
		if seen[b.ID] {
			addf("duplicate block id %d", b.ID)
		}
		seen[b.ID] = true
	}
	if seen[g.Exit] {
		addf("exit id %d collides with a block", g.Exit)
	}
	if !seen[g.Entry] {
		addf("entry block %d does not exist", g.Entry)
	}
	if len(problems) > 0 {
		return &ValidationError{Graph: g.Name, Problems: problems}
	}

	for _, b := range g.Blocks {
		for _, s := range b.Successors {
			if s != g.Exit && !seen[s] {
				addf("block %d: unknown successor %d", b.ID, s)
			}
		}
		for _, h := range b.Handlers {
			if !seen[h.Handler] {
				addf("block %d: unknown handler %d", b.ID, h.Handler)
			}
			if h.Handler == g.Entry && h.Handler != b.ID {
				addf("block %d: entry block %d cannot be an exception handler", b.ID, h.Handler)
			}
		}

		switch b.LastOp() {
		case OpIf:
			if len(b.Successors) != 2 {
				addf("block %d: conditional jump needs 2 successors, has %d", b.ID, len(b.Successors))
			}
		case OpSwitch:
			want := len(b.Last().Values) + 1
			if len(b.Successors) != want {
				addf("block %d: switch with %d cases needs %d successors, has %d",
					b.ID, want-1, want, len(b.Successors))
			}
		case OpReturn, OpThrow:
			for _, s := range b.Successors {
				if s != g.Exit {
					addf("block %d: %s may only flow to the exit", b.ID, b.LastOp())
					break
				}
			}
		default:
			if len(b.Successors) > 1 {
				addf("block %d: %d successors without a branching instruction", b.ID, len(b.Successors))
			}
		}

		for i, instr := range b.Instructions {
			if i == len(b.Instructions)-1 {
				break
			}
			switch instr.Op {
			case OpIf, OpSwitch, OpGoto, OpReturn, OpThrow:
				addf("block %d: %s at offset %d is not the last instruction", b.ID, instr.Op, instr.Offset)
			}
		}
	}

	if len(problems) == 0 {
		for _, id := range g.unreachable() {
			addf("block %d is unreachable from entry", id)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Graph: g.Name, Problems: problems}
	}
	return nil
}

// unreachable returns blocks not reachable from the entry through regular
// or exception edges, in insertion order
func (g *Graph) unreachable() []int {
	visited := map[int]bool{g.Entry: true}
	worklist := []int{g.Entry}
	for len(worklist) > 0 {
		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		b := g.GetBlock(id)
		if b == nil {
			continue
		}
		next := append([]int(nil), b.Successors...)
		for _, h := range b.Handlers {
			next = append(next, h.Handler)
		}
		for _, s := range next {
			if s == g.Exit || visited[s] {
				continue
			}
			visited[s] = true
			worklist = append(worklist, s)
		}
	}

	var res []int
	for _, b := range g.Blocks {
		if !visited[b.ID] {
			res = append(res, b.ID)
		}
	}
	return res
}
