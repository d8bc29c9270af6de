package decompose

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// ifRounds bounds how often if merging and loop refinement alternate
const ifRounds = 8

// Options configures a structuring run
type Options struct {
	// MaxPasses bounds the number of recognizer passes; zero derives it
	// from the size of the graph
	MaxPasses int

	// Verify runs the tree validator after structuring
	Verify bool

	CondenseSequences bool
	BuildSynchronized bool
	RefineLoops       bool
	LabelEdges        bool

	// MergeIfs folds nested and chained ifs into compound conditions and
	// reorders if arms. It runs on fully structured trees only.
	MergeIfs bool
	// CondenseLoops turns infinite loops that return from their tail into
	// while loops. It runs on fully structured trees only.
	CondenseLoops bool

	// Logger traces the driver; nil is silent
	Logger *log.Logger
}

// DefaultOptions returns options with the core post passes enabled. The
// condition rewriting passes are opt-in.
func DefaultOptions() Options {
	return Options{
		CondenseSequences: true,
		BuildSynchronized: true,
		RefineLoops:       true,
		LabelEdges:        true,
	}
}

// Result is the outcome of structuring one method
type Result struct {
	Name   string
	Graph  *stats.Graph
	Root   *stats.Statement
	Status Status

	// Comments are diagnostics attached to the root, such as the reason a
	// region stayed irreducible
	Comments []string

	Passes   int
	Merges   int
	Generals int

	// Aborted is set when cancellation or the pass budget stopped the run
	Aborted error
}

// Irreducible reports whether any region could not be structured
func (r *Result) Irreducible() bool {
	return r.Status == StatusIrreducible
}

// Structure converts a control-flow graph into a statement tree. Malformed
// input is rejected before any work is done. Internal consistency
// violations are returned as *stats.ConsistencyError; they never escape as
// panics.
func Structure(ctx context.Context, graph *cfg.Graph, opts Options) (*Result, error) {
	if graph == nil {
		return nil, errors.New("structure: nil graph")
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return structure(ctx, graph, opts)
}

func structure(ctx context.Context, graph *cfg.Graph, opts Options) (res *Result, err error) {
	defer stats.Recover(&err)

	g := stats.NewGraph()
	root := BuildRoot(g, graph)

	d := NewDriver(root, opts.MaxPasses)
	d.SetLogger(opts.Logger)
	status := d.Run(ctx)

	LowContinueLabels(root)
	if opts.CondenseSequences {
		CondenseSequences(root)
	}
	root.BuildMonitorFlags()
	if opts.BuildSynchronized {
		BuildSynchronized(root)
	}
	MarkFinally(root)
	if opts.RefineLoops {
		RefineLoops(root)
	}
	if status == StatusFullyStructured {
		if opts.MergeIfs {
			for i := 0; i < ifRounds && MergeIfs(root); i++ {
				if opts.RefineLoops {
					RefineLoops(root)
				}
			}
		}
		if opts.CondenseLoops {
			CondenseInfiniteLoopsWithReturn(root)
		}
	}
	if opts.LabelEdges {
		LabelEdges(root)
	}
	stats.ClearPosts(root)

	if opts.Verify {
		if verr := stats.Validate(root); verr != nil {
			return nil, fmt.Errorf("structure %s: %w", graph.Name, verr)
		}
	}

	return &Result{
		Name:     graph.Name,
		Graph:    g,
		Root:     root,
		Status:   status,
		Comments: append([]string(nil), root.Root().Comments...),
		Passes:   d.Passes(),
		Merges:   d.Merges(),
		Generals: d.Generals(),
		Aborted:  d.AbortErr(),
	}, nil
}
