package service

import (
	"fmt"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/cfg"
)

// BuildGraph converts a method document into a control-flow graph. Only
// opcodes are checked here; the graph itself is validated by the engine.
func BuildGraph(m *domain.MethodDocument) (*cfg.Graph, error) {
	g := cfg.NewGraph(m.Name, m.Entry, m.Exit)

	for _, bd := range m.Blocks {
		block := cfg.NewBasicBlock(bd.ID)
		for _, in := range bd.Instructions {
			op, err := cfg.ParseOpcode(in.Op)
			if err != nil {
				return nil, domain.NewInvalidInputError(
					fmt.Sprintf("method %s, block %d, offset %d", m.Name, bd.ID, in.Offset), err)
			}
			block.Instructions = append(block.Instructions, cfg.Instruction{
				Op:     op,
				Text:   in.Text,
				Offset: in.Offset,
				Values: append([]int(nil), in.Values...),
			})
		}
		block.Successors = append([]int(nil), bd.Successors...)
		for _, h := range bd.Handlers {
			var types []string
			if len(h.Types) > 0 {
				types = append(types, h.Types...)
			}
			block.Handlers = append(block.Handlers, cfg.ExceptionHandler{Handler: h.Handler, Types: types})
		}
		g.AddBlock(block)
	}

	return g, nil
}
