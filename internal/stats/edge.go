package stats

import "strings"

// EdgeType represents the type of an edge between statements. The values
// are bit flags so several types can be combined into a query mask.
type EdgeType uint32

const (
	// EdgeRegular is ordinary control flow
	EdgeRegular EdgeType = 1 << iota
	// EdgeException links a protected statement to its handler
	EdgeException
	// EdgeBreak leaves an enclosing statement
	EdgeBreak
	// EdgeContinue jumps back to the head of an enclosing loop
	EdgeContinue
)

const (
	// MaskAll selects every edge type
	MaskAll EdgeType = 0x80000000
	// MaskDirectAll selects every edge type except exception edges
	MaskDirectAll EdgeType = 0x40000000
)

// edgeTypes lists the concrete types in mask resolution order
var edgeTypes = []EdgeType{EdgeRegular, EdgeException, EdgeBreak, EdgeContinue}

// Matches reports whether an edge of type t is selected by mask
func (t EdgeType) Matches(mask EdgeType) bool {
	switch mask {
	case MaskAll:
		return true
	case MaskDirectAll:
		return t != EdgeException
	default:
		return mask&t != 0
	}
}

// String returns string representation of EdgeType
func (t EdgeType) String() string {
	switch t {
	case EdgeRegular:
		return "regular"
	case EdgeException:
		return "exception"
	case EdgeBreak:
		return "break"
	case EdgeContinue:
		return "continue"
	case MaskAll:
		return "all"
	case MaskDirectAll:
		return "direct"
	}
	var parts []string
	for _, et := range edgeTypes {
		if t&et != 0 {
			parts = append(parts, et.String())
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// Edge is a directed, typed connection between two statements
type Edge struct {
	ID          EdgeID
	Type        EdgeType
	Source      NodeID
	Destination NodeID

	// Exceptions lists caught types for exception edges; nil catches everything
	Exceptions []string

	// Closure is the statement that owns the label of a break or continue
	Closure NodeID

	// Explicit is false when the edge is plain fallthrough and needs no jump
	Explicit bool

	// Labeled is true when the jump has to name its closure
	Labeled bool

	attached bool
}

// Attached reports whether the edge is still registered on its endpoints
func (e *Edge) Attached() bool {
	return e.attached
}

// IsCatchAll reports whether an exception edge catches everything
func (e *Edge) IsCatchAll() bool {
	return e.Type == EdgeException && e.Exceptions == nil
}
