package decompose

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// Status is the state of the structuring driver
type Status int

const (
	// StatusScanning is set while a pass walks the nodes of a region
	StatusScanning Status = iota
	// StatusMatched is set right after a recognizer merged a composite
	StatusMatched
	// StatusNoProgress is set when a pass finished without a merge
	StatusNoProgress
	// StatusFullyStructured is terminal: the tree has no General left
	StatusFullyStructured
	// StatusIrreducible is terminal: at least one region could not be structured
	StatusIrreducible
)

// String returns string representation of Status
func (s Status) String() string {
	switch s {
	case StatusScanning:
		return "scanning"
	case StatusMatched:
		return "matched"
	case StatusNoProgress:
		return "no-progress"
	case StatusFullyStructured:
		return "fully-structured"
	case StatusIrreducible:
		return "irreducible"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends a run
func (s Status) Terminal() bool {
	return s == StatusFullyStructured || s == StatusIrreducible
}

// ErrPassLimit is reported when a run exceeds its pass budget
var ErrPassLimit = errors.New("pass limit exceeded")

// passFactor bounds the passes of a run relative to the initial node count
const passFactor = 8

// Driver runs the region collapsing loop over one statement tree
type Driver struct {
	root      *stats.Statement
	logger    *log.Logger
	maxPasses int

	status   Status
	passes   int
	merges   int
	generals int
	abortErr error
}

// NewDriver creates a driver for root. A maxPasses of zero derives the
// budget from the size of the tree.
func NewDriver(root *stats.Statement, maxPasses int) *Driver {
	if maxPasses <= 0 {
		maxPasses = passFactor*root.Graph().NodeCount() + 16
	}
	return &Driver{
		root:      root,
		maxPasses: maxPasses,
		status:    StatusScanning,
	}
}

// SetLogger sets an optional logger for tracing merges
func (d *Driver) SetLogger(logger *log.Logger) {
	d.logger = logger
}

func (d *Driver) logf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf("Driver: "+format, args...)
	}
}

// Status returns the current driver state
func (d *Driver) Status() Status { return d.status }

// Passes returns the number of passes run so far
func (d *Driver) Passes() int { return d.passes }

// Merges returns the number of recognizer merges so far
func (d *Driver) Merges() int { return d.merges }

// Generals returns the number of nested regions extracted so far
func (d *Driver) Generals() int { return d.generals }

// AbortErr returns the reason the run stopped early, if any
func (d *Driver) AbortErr() error { return d.abortErr }

// Run structures the tree below the root until it reaches a terminal
// status. Cancellation of ctx is observed once per pass; an aborted run is
// reported as irreducible with a comment on the root.
func (d *Driver) Run(ctx context.Context) Status {
	if ctx == nil {
		ctx = context.Background()
	}

	first := d.root.First()
	if first.Kind() != stats.KindBasicBlock {
		if d.processGeneral(ctx, first) {
			d.root.ReplaceStatement(first, first.First())
		}
	}

	data := d.root.Root()
	switch {
	case d.abortErr != nil:
		d.status = StatusIrreducible
		data.Comments = append(data.Comments, fmt.Sprintf("structuring aborted: %v", d.abortErr))
	default:
		irreducible := IrreducibleRegions(d.root)
		if len(irreducible) == 0 {
			d.status = StatusFullyStructured
			break
		}
		d.status = StatusIrreducible
		for _, st := range irreducible {
			data.Comments = append(data.Comments,
				fmt.Sprintf("irreducible control flow in %s with %d statements: node splitting required",
					st, st.ChildCount()))
		}
	}
	d.logf("finished with status %s after %d passes, %d merges", d.status, d.passes, d.merges)
	return d.status
}

// processGeneral collapses the children of a General until one remains.
// A nested region that cannot be structured stays behind as an irreducible
// General and the outer region carries on around it.
func (d *Driver) processGeneral(ctx context.Context, general *stats.Statement) bool {
	for _, forceall := range []bool{false, true} {
		for {
			d.findSimpleStatements(ctx, general)
			if d.abortErr != nil {
				general.General().Irreducible = true
				return false
			}
			if general.General().Placeholder {
				return true
			}

			sub := findGeneralStatement(general, forceall)
			if sub == nil {
				break
			}
			d.generals++
			d.logf("%s: extracted %s with %d statements (forceall=%t)", general, sub, sub.ChildCount(), forceall)

			if d.processGeneral(ctx, sub) {
				general.ReplaceStatement(sub, sub.First())
			} else if d.abortErr != nil {
				general.General().Irreducible = true
				return false
			}
		}
	}

	d.logf("%s: no structure found for %d statements", general, general.ChildCount())
	general.General().Irreducible = true
	return false
}

// findSimpleStatements runs recognizer passes over the children of general
// in post reverse postorder. The first match is merged and the pass
// restarts; a pass without a match ends the loop.
func (d *Driver) findSimpleStatements(ctx context.Context, general *stats.Statement) bool {
	success := false
	for {
		if d.checkAbort(ctx) {
			return success
		}
		d.passes++
		d.status = StatusScanning

		found := false
		for _, st := range general.PostReversePostOrder() {
			res, name := detect(st)
			if res == nil {
				continue
			}
			data := general.General()
			if !data.Placeholder && res.First() == general.First() && res.ChildCount() == general.ChildCount() {
				data.Placeholder = true
			}
			general.CollapseNodesToStatement(res)
			d.merges++
			d.status = StatusMatched
			d.logf("%s: %s at %s merged into %s", general, name, st, res)
			found = true
			break
		}

		if !found {
			d.status = StatusNoProgress
			return success
		}
		success = true
	}
}

func (d *Driver) checkAbort(ctx context.Context) bool {
	if d.abortErr != nil {
		return true
	}
	if err := ctx.Err(); err != nil {
		d.abortErr = err
		return true
	}
	if d.passes >= d.maxPasses {
		d.abortErr = fmt.Errorf("%w after %d passes", ErrPassLimit, d.passes)
		return true
	}
	return false
}

// IrreducibleRegions returns the General statements left in the tree that
// could not be structured
func IrreducibleRegions(root *stats.Statement) []*stats.Statement {
	var res []*stats.Statement
	stats.Walk(root, func(st *stats.Statement) bool {
		if st.Kind() == stats.KindGeneral && st.General().Irreducible {
			res = append(res, st)
		}
		return true
	})
	return res
}
