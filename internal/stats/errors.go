package stats

import (
	"fmt"
	"strings"
)

// ConsistencyError reports a broken structural invariant. Arena operations
// panic with it; the structuring entry point recovers it and returns it as
// an error for the current method only.
type ConsistencyError struct {
	Op    string
	Nodes []NodeID
	Msg   string
}

func (e *ConsistencyError) Error() string {
	if len(e.Nodes) == 0 {
		return fmt.Sprintf("internal consistency violation in %s: %s", e.Op, e.Msg)
	}
	ids := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		ids[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("internal consistency violation in %s (nodes %s): %s", e.Op, strings.Join(ids, ","), e.Msg)
}

func fail(op, msg string, nodes ...NodeID) {
	panic(&ConsistencyError{Op: op, Nodes: nodes, Msg: msg})
}

// Recover converts a ConsistencyError panic into an error. Other panics are
// re-raised. Use it as: defer stats.Recover(&err).
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*ConsistencyError); ok {
		*err = ce
		return
	}
	panic(r)
}
