package stats

import (
	"fmt"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
)

// Kind identifies the variant of a statement
type Kind int

const (
	KindRoot Kind = iota
	KindBasicBlock
	KindSequence
	KindDummyExit
	KindGeneral
	KindIf
	KindDo
	KindSwitch
	KindSynchronized
	KindTryCatch
	KindCatchAll
)

var kindNames = [...]string{
	KindRoot:         "Root",
	KindBasicBlock:   "Block",
	KindSequence:     "Seq",
	KindDummyExit:    "Exit",
	KindGeneral:      "General",
	KindIf:           "If",
	KindDo:           "Do",
	KindSwitch:       "Switch",
	KindSynchronized: "Monitor",
	KindTryCatch:     "Catch",
	KindCatchAll:     "CatchAll",
}

// Kinds lists every statement kind
var Kinds = []Kind{
	KindRoot, KindBasicBlock, KindSequence, KindDummyExit, KindGeneral,
	KindIf, KindDo, KindSwitch, KindSynchronized, KindTryCatch, KindCatchAll,
}

// String returns string representation of Kind
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// newPayload returns the zero payload of a kind. Every kind must be listed.
func (k Kind) newPayload() Payload {
	switch k {
	case KindRoot:
		return &RootData{DummyExit: NoNode}
	case KindBasicBlock:
		return &BlockData{}
	case KindSequence:
		return &SequenceData{}
	case KindDummyExit:
		return &DummyExitData{}
	case KindGeneral:
		return &GeneralData{}
	case KindIf:
		return &IfData{IfBranch: NoNode, ElseBranch: NoNode, IfEdge: NoEdge, ElseEdge: NoEdge}
	case KindDo:
		return &DoData{}
	case KindSwitch:
		return &SwitchData{DefaultEdge: NoEdge}
	case KindSynchronized:
		return &SynchronizedData{Head: NoNode, Body: NoNode, Handler: NoNode}
	case KindTryCatch:
		return &CatchData{}
	case KindCatchAll:
		return &CatchAllData{Handler: NoNode}
	}
	panic(&ConsistencyError{Op: "newPayload", Msg: fmt.Sprintf("unhandled statement kind %d", int(k))})
}

// LastBasicType classifies how the last basic block of a statement ends
type LastBasicType int

const (
	LastGeneral LastBasicType = iota
	LastIf
	LastSwitch
)

// Payload is the kind-specific data of a statement
type Payload interface {
	Kind() Kind
}

// RootData is the payload of the single Root statement
type RootData struct {
	DummyExit NodeID
	Comments  []string
}

// BlockData wraps an input basic block
type BlockData struct {
	// Block is nil for synthetic empty blocks
	Block *cfg.BasicBlock

	// RemovableMonitorExit marks monitorexit instructions made redundant
	// by an enclosing synchronized statement
	RemovableMonitorExit bool
}

// SequenceData is the payload of a sequence; children are in order
type SequenceData struct{}

// DummyExitData is the payload of the synthetic method exit
type DummyExitData struct{}

// GeneralData is the payload of an unstructured region
type GeneralData struct {
	// Placeholder is set once every child has been folded into one
	Placeholder bool

	// Irreducible marks a region that could not be structured and
	// would need node splitting
	Irreducible bool
}

// IfType distinguishes if from if-else
type IfType int

const (
	IfOnly IfType = iota
	IfElse
)

// IfData is the payload of a conditional
type IfData struct {
	IfBranch   NodeID
	ElseBranch NodeID
	Negated    bool
	IfEdge     EdgeID
	ElseEdge   EdgeID
	IfType     IfType

	// Condition is the rendered branch condition with negation applied
	Condition string
}

// LoopType is the flavour of a loop
type LoopType int

const (
	LoopInfinite LoopType = iota
	LoopWhile
	LoopDoWhile
	LoopFor
	LoopForEach
)

// String returns string representation of LoopType
func (l LoopType) String() string {
	switch l {
	case LoopInfinite:
		return "infinite"
	case LoopWhile:
		return "while"
	case LoopDoWhile:
		return "do-while"
	case LoopFor:
		return "for"
	case LoopForEach:
		return "foreach"
	default:
		return "unknown"
	}
}

// DoData is the payload of a loop
type DoData struct {
	LoopType  LoopType
	Init      string
	Condition string
	Increment string
}

// CaseValue is one label of a switch arm
type CaseValue struct {
	Default bool
	Value   int
}

// String returns the case label text
func (c CaseValue) String() string {
	if c.Default {
		return "default"
	}
	return fmt.Sprintf("case %d", c.Value)
}

// SwitchData is the payload of a switch
type SwitchData struct {
	DefaultEdge EdgeID
	Cases       []NodeID
	CaseEdges   [][]EdgeID
	CaseValues  [][]CaseValue
	Guards      []string
}

// Var is a synthesized variable
type Var struct {
	ID   int
	Type string
}

// Name returns the rendered variable name
func (v Var) Name() string {
	return fmt.Sprintf("var%d", v.ID)
}

// CatchData is the payload of a try/catch
type CatchData struct {
	// ExceptionTypes holds one type list per handler, in child order after the body
	ExceptionTypes [][]string
	Vars           []Var
}

// CatchAllData is the payload of a try/finally or catch-everything handler
type CatchAllData struct {
	Handler    NodeID
	IsFinally  bool
	MonitorVar *Var
	Var        Var
}

// SynchronizedData is the payload of a synchronized block
type SynchronizedData struct {
	Head    NodeID
	Body    NodeID
	Handler NodeID
	Monitor string
}

func (*RootData) Kind() Kind         { return KindRoot }
func (*BlockData) Kind() Kind        { return KindBasicBlock }
func (*SequenceData) Kind() Kind     { return KindSequence }
func (*DummyExitData) Kind() Kind    { return KindDummyExit }
func (*GeneralData) Kind() Kind      { return KindGeneral }
func (*IfData) Kind() Kind           { return KindIf }
func (*DoData) Kind() Kind           { return KindDo }
func (*SwitchData) Kind() Kind       { return KindSwitch }
func (*SynchronizedData) Kind() Kind { return KindSynchronized }
func (*CatchData) Kind() Kind        { return KindTryCatch }
func (*CatchAllData) Kind() Kind     { return KindCatchAll }
