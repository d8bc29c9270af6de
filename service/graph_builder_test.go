package service

import (
	"testing"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph(t *testing.T) {
	doc, err := DecodeDocument([]byte(guardedDocument), DocumentJSON)
	require.NoError(t, err)

	g, err := BuildGraph(&doc.Methods[0])
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	assert.Equal(t, "typed", g.Name)
	assert.Equal(t, 0, g.Entry)
	assert.Equal(t, 99, g.Exit)
	assert.Equal(t, 4, g.Size())

	b0 := g.GetBlock(0)
	require.NotNil(t, b0)
	assert.Equal(t, cfg.OpPlain, b0.LastOp())
	assert.Equal(t, []int{3}, b0.Successors)
	require.Len(t, b0.Handlers, 2)
	assert.Equal(t, 2, b0.Handlers[1].Handler)
	assert.Equal(t, []string{"java/lang/RuntimeException"}, b0.Handlers[1].Types)

	assert.Equal(t, cfg.OpReturn, g.GetBlock(3).LastOp())
}

func TestBuildGraph_CopiesSlices(t *testing.T) {
	m := &domain.MethodDocument{
		Name: "sw", Entry: 0, Exit: 9,
		Blocks: []domain.BlockDocument{
			{ID: 0, Instructions: []domain.InstructionDocument{{Op: "switch", Text: "k", Values: []int{1, 2}}}, Successors: []int{1, 1, 1}},
			{ID: 1, Instructions: []domain.InstructionDocument{{Op: "return"}}, Successors: []int{9}},
		},
	}

	g, err := BuildGraph(m)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	m.Blocks[0].Instructions[0].Values[0] = 42
	m.Blocks[0].Successors[0] = 7
	assert.Equal(t, []int{1, 2}, g.GetBlock(0).Last().Values)
	assert.Equal(t, []int{1, 1, 1}, g.GetBlock(0).Successors)
}

func TestBuildGraph_UnknownOpcode(t *testing.T) {
	m := &domain.MethodDocument{
		Name: "odd", Entry: 0, Exit: 9,
		Blocks: []domain.BlockDocument{{ID: 3, Instructions: []domain.InstructionDocument{{Op: "jsr", Offset: 12}}}},
	}

	_, err := BuildGraph(m)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.ErrorCode(err))
	assert.Contains(t, err.Error(), "method odd, block 3, offset 12")
}
