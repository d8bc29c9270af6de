package cfg

import (
	"fmt"
	"sort"
	"strings"
)

// Opcode classifies the instruction that matters for structuring
type Opcode int

const (
	// OpPlain is any instruction that does not transfer control
	OpPlain Opcode = iota
	// OpIf is a two-way conditional jump
	OpIf
	// OpSwitch is a multi-way jump (table or lookup switch)
	OpSwitch
	// OpGoto is an unconditional jump
	OpGoto
	// OpReturn leaves the method
	OpReturn
	// OpThrow raises an exception
	OpThrow
	// OpMonitorEnter acquires a monitor
	OpMonitorEnter
	// OpMonitorExit releases a monitor
	OpMonitorExit
)

var opcodeNames = map[Opcode]string{
	OpPlain:        "plain",
	OpIf:           "if",
	OpSwitch:       "switch",
	OpGoto:         "goto",
	OpReturn:       "return",
	OpThrow:        "throw",
	OpMonitorEnter: "monitorenter",
	OpMonitorExit:  "monitorexit",
}

// String returns string representation of Opcode
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOpcode converts a textual opcode into an Opcode
func ParseOpcode(s string) (Opcode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OpPlain, nil
	}
	for op, name := range opcodeNames {
		if name == s {
			return op, nil
		}
	}
	return OpPlain, fmt.Errorf("unknown opcode %q", s)
}

// Instruction is a single instruction of a basic block
type Instruction struct {
	Op Opcode

	// Text is the opaque rendering of the instruction (e.g. the branch condition)
	Text string

	// Offset is the bytecode offset, kept for diagnostics only
	Offset int

	// Values are the case values of a switch, aligned with successors 1..n
	Values []int
}

// ExceptionHandler links a block to the handler that covers it
type ExceptionHandler struct {
	Handler int

	// Types lists the caught exception types; nil catches everything
	Types []string
}

// BasicBlock is a straight-line sequence of instructions
type BasicBlock struct {
	// ID is the unique identifier for this block
	ID int

	// Instructions in execution order
	Instructions []Instruction

	// Successors are the regular successor block ids. For a conditional
	// block index 0 is the fallthrough and index 1 the jump target; for a
	// switch index 0 is the default target followed by one entry per case.
	Successors []int

	// Handlers are the exception handlers covering this block
	Handlers []ExceptionHandler
}

// NewBasicBlock creates a new basic block with the given ID
func NewBasicBlock(id int) *BasicBlock {
	return &BasicBlock{ID: id}
}

// Add appends an instruction to the block
func (bb *BasicBlock) Add(op Opcode, text string) *BasicBlock {
	offset := 0
	if n := len(bb.Instructions); n > 0 {
		offset = bb.Instructions[n-1].Offset + 1
	}
	bb.Instructions = append(bb.Instructions, Instruction{Op: op, Text: text, Offset: offset})
	return bb
}

// Last returns the last instruction, or nil for an empty block
func (bb *BasicBlock) Last() *Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	return &bb.Instructions[len(bb.Instructions)-1]
}

// LastOp returns the opcode of the last instruction
func (bb *BasicBlock) LastOp() Opcode {
	if last := bb.Last(); last != nil {
		return last.Op
	}
	return OpPlain
}

// Contains reports whether the block has an instruction with the opcode
func (bb *BasicBlock) Contains(op Opcode) bool {
	for _, instr := range bb.Instructions {
		if instr.Op == op {
			return true
		}
	}
	return false
}

// IsSuccessor reports whether id is a regular successor of the block
func (bb *BasicBlock) IsSuccessor(id int) bool {
	for _, s := range bb.Successors {
		if s == id {
			return true
		}
	}
	return false
}

// String returns a string representation of the basic block
func (bb *BasicBlock) String() string {
	return fmt.Sprintf("[B%d: %d instrs]", bb.ID, len(bb.Instructions))
}

// Graph is the control-flow graph of a single method
type Graph struct {
	// Name is the name of the method
	Name string

	// Entry is the id of the entry block
	Entry int

	// Exit is the id of the synthetic exit. It is not a member of Blocks.
	Exit int

	// Blocks in insertion order
	Blocks []*BasicBlock

	byID map[int]*BasicBlock
}

// NewGraph creates an empty graph with the given entry and exit ids
func NewGraph(name string, entry, exit int) *Graph {
	return &Graph{
		Name:  name,
		Entry: entry,
		Exit:  exit,
		byID:  make(map[int]*BasicBlock),
	}
}

// AddBlock adds an existing block to the graph
func (g *Graph) AddBlock(block *BasicBlock) {
	if block == nil {
		return
	}
	if g.byID == nil {
		g.reindex()
	}
	g.Blocks = append(g.Blocks, block)
	g.byID[block.ID] = block
}

// Block creates a block with the id, or returns the existing one
func (g *Graph) Block(id int) *BasicBlock {
	if b := g.GetBlock(id); b != nil {
		return b
	}
	b := NewBasicBlock(id)
	g.AddBlock(b)
	return b
}

// GetBlock retrieves a block by its ID
func (g *Graph) GetBlock(id int) *BasicBlock {
	if g.byID == nil || len(g.byID) != len(g.Blocks) {
		g.reindex()
	}
	return g.byID[id]
}

func (g *Graph) reindex() {
	g.byID = make(map[int]*BasicBlock, len(g.Blocks))
	for _, b := range g.Blocks {
		g.byID[b.ID] = b
	}
}

// Connect appends a regular successor edge
func (g *Graph) Connect(from, to int) {
	b := g.Block(from)
	b.Successors = append(b.Successors, to)
}

// Protect registers handler as an exception handler of block. A nil
// types list makes the handler catch everything.
func (g *Graph) Protect(block, handler int, types ...string) {
	b := g.Block(block)
	var t []string
	if len(types) > 0 {
		t = append(t, types...)
	}
	b.Handlers = append(b.Handlers, ExceptionHandler{Handler: handler, Types: t})
}

// Size returns the number of blocks in the graph
func (g *Graph) Size() int {
	return len(g.Blocks)
}

// Predecessors returns the ids of blocks with a regular edge to id, sorted
func (g *Graph) Predecessors(id int) []int {
	var preds []int
	for _, b := range g.Blocks {
		if b.IsSuccessor(id) {
			preds = append(preds, b.ID)
		}
	}
	sort.Ints(preds)
	return preds
}

// EdgeCount returns the number of regular and exception edges
func (g *Graph) EdgeCount() int {
	n := 0
	for _, b := range g.Blocks {
		n += len(b.Successors) + len(b.Handlers)
	}
	return n
}
