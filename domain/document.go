package domain

import (
	"fmt"
)

// GraphDocument is the serialized input: the control-flow graphs of the
// methods of one class
type GraphDocument struct {
	Class   string           `json:"class" yaml:"class" msgpack:"class"`
	Methods []MethodDocument `json:"methods" yaml:"methods" msgpack:"methods"`
}

// MethodDocument is the control-flow graph of one method
type MethodDocument struct {
	Name   string          `json:"name" yaml:"name" msgpack:"name"`
	Entry  int             `json:"entry" yaml:"entry" msgpack:"entry"`
	Exit   int             `json:"exit" yaml:"exit" msgpack:"exit"`
	Blocks []BlockDocument `json:"blocks" yaml:"blocks" msgpack:"blocks"`
}

// BlockDocument is one basic block
type BlockDocument struct {
	ID           int                   `json:"id" yaml:"id" msgpack:"id"`
	Instructions []InstructionDocument `json:"instructions,omitempty" yaml:"instructions,omitempty" msgpack:"instructions,omitempty"`
	Successors   []int                 `json:"successors,omitempty" yaml:"successors,omitempty" msgpack:"successors,omitempty"`
	Handlers     []HandlerDocument     `json:"handlers,omitempty" yaml:"handlers,omitempty" msgpack:"handlers,omitempty"`
}

// InstructionDocument is one instruction; Op is one of plain, if, switch,
// goto, return, throw, monitorenter, monitorexit
type InstructionDocument struct {
	Op     string `json:"op" yaml:"op" msgpack:"op"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty" msgpack:"text,omitempty"`
	Offset int    `json:"offset" yaml:"offset" msgpack:"offset"`
	Values []int  `json:"values,omitempty" yaml:"values,omitempty" msgpack:"values,omitempty"`
}

// HandlerDocument is an exception handler covering a block. Empty Types
// catches everything.
type HandlerDocument struct {
	Handler int      `json:"handler" yaml:"handler" msgpack:"handler"`
	Types   []string `json:"types,omitempty" yaml:"types,omitempty" msgpack:"types,omitempty"`
}

// Validate checks document level constraints. Graph level checks happen
// per method when the graph is built.
func (d *GraphDocument) Validate() error {
	if len(d.Methods) == 0 {
		return NewValidationError("graph document has no methods")
	}
	seen := make(map[string]bool, len(d.Methods))
	for i, m := range d.Methods {
		if m.Name == "" {
			return NewValidationError(fmt.Sprintf("method %d has no name", i))
		}
		if seen[m.Name] {
			return NewValidationError(fmt.Sprintf("duplicate method name: %s", m.Name))
		}
		seen[m.Name] = true
	}
	return nil
}
