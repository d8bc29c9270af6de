package decompose

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/flowstruct/internal/cfg"
	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// TokenKind classifies an emitted token
type TokenKind int

const (
	TokenKeyword TokenKind = iota
	TokenLabel
	TokenBlock
	TokenCondition
	TokenOpen
	TokenClose
	TokenJump
	TokenCase
	TokenCatch
	TokenComment
)

var tokenKindNames = map[TokenKind]string{
	TokenKeyword:   "keyword",
	TokenLabel:     "label",
	TokenBlock:     "block",
	TokenCondition: "condition",
	TokenOpen:      "open",
	TokenClose:     "close",
	TokenJump:      "jump",
	TokenCase:      "case",
	TokenCatch:     "catch",
	TokenComment:   "comment",
}

// String returns string representation of TokenKind
func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is one abstract element of the structured output
type Token struct {
	Kind TokenKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Text string    `json:"text" yaml:"text" msgpack:"text"`

	// Detail carries the instruction texts of a block
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty" msgpack:"detail,omitempty"`

	// Node is the statement that produced the token
	Node stats.NodeID `json:"node" yaml:"node" msgpack:"node"`

	// Depth is the brace nesting level
	Depth int `json:"depth" yaml:"depth" msgpack:"depth"`
}

// Emit walks the statement tree depth-first and produces its tokens
func Emit(root *stats.Statement) []Token {
	e := &emitter{g: root.Graph()}
	e.stat(root)
	return e.tokens
}

type emitter struct {
	g      *stats.Graph
	tokens []Token
	depth  int
}

func (e *emitter) add(kind TokenKind, text string, st *stats.Statement) {
	node := stats.NoNode
	if st != nil {
		node = st.ID
	}
	e.tokens = append(e.tokens, Token{Kind: kind, Text: text, Node: node, Depth: e.depth})
}

func (e *emitter) open(st *stats.Statement) {
	e.add(TokenOpen, "{", st)
	e.depth++
}

func (e *emitter) close(st *stats.Statement) {
	e.depth--
	e.add(TokenClose, "}", st)
}

func (e *emitter) label(st *stats.Statement) {
	for _, edge := range st.LabelEdges() {
		if edge.Labeled && edge.Explicit {
			e.add(TokenLabel, LabelName(st)+":", st)
			return
		}
	}
}

// LabelName returns the label of a statement that is the target of a
// labeled jump
func LabelName(st *stats.Statement) string {
	return fmt.Sprintf("label%d", st.ID)
}

func (e *emitter) stat(st *stats.Statement) {
	if st == nil {
		return
	}
	switch st.Kind() {
	case stats.KindRoot:
		for _, c := range st.Root().Comments {
			e.add(TokenComment, c, st)
		}
		e.stat(st.First())

	case stats.KindDummyExit:

	case stats.KindBasicBlock:
		e.block(st)
		e.jumps(st)

	case stats.KindSequence:
		e.label(st)
		for _, c := range st.Children() {
			e.stat(c)
		}
		e.jumps(st)

	case stats.KindGeneral:
		e.add(TokenComment, "irreducible region", st)
		e.add(TokenKeyword, "general", st)
		e.open(st)
		for _, c := range st.Children() {
			e.add(TokenLabel, fmt.Sprintf("S%d:", c.ID), c)
			e.stat(c)
		}
		e.close(st)
		e.jumps(st)

	case stats.KindIf:
		e.ifStat(st)

	case stats.KindDo:
		e.loop(st)

	case stats.KindSwitch:
		e.switchStat(st)

	case stats.KindTryCatch:
		e.label(st)
		e.add(TokenKeyword, "try", st)
		e.open(st)
		e.stat(st.First())
		e.close(st)
		data := st.Catch()
		for i, h := range st.Children()[1:] {
			var text string
			if i < len(data.ExceptionTypes) && i < len(data.Vars) {
				text = fmt.Sprintf("%s %s", strings.Join(data.ExceptionTypes[i], " | "), data.Vars[i].Name())
			}
			e.add(TokenKeyword, "catch", st)
			e.add(TokenCatch, text, st)
			e.open(st)
			e.stat(h)
			e.close(st)
		}
		e.jumps(st)

	case stats.KindCatchAll:
		e.label(st)
		data := st.CatchAll()
		e.add(TokenKeyword, "try", st)
		e.open(st)
		e.stat(st.First())
		e.close(st)
		if data.IsFinally {
			e.add(TokenKeyword, "finally", st)
		} else {
			e.add(TokenKeyword, "catch", st)
			e.add(TokenCatch, fmt.Sprintf("%s %s", data.Var.Type, data.Var.Name()), st)
		}
		e.open(st)
		e.stat(e.g.Node(data.Handler))
		e.close(st)
		e.jumps(st)

	case stats.KindSynchronized:
		e.label(st)
		data := st.Sync()
		e.block(e.g.Node(data.Head))
		e.add(TokenKeyword, "synchronized", st)
		e.add(TokenCondition, data.Monitor, st)
		e.open(st)
		e.stat(e.g.Node(data.Body))
		e.close(st)
		e.jumps(st)
	}
}

func (e *emitter) ifStat(st *stats.Statement) {
	data := st.If()
	e.label(st)
	e.block(st.First())
	e.add(TokenKeyword, "if", st)
	e.add(TokenCondition, data.Condition, st)
	e.open(st)
	if data.IfBranch != stats.NoNode {
		e.stat(e.g.Node(data.IfBranch))
	} else if edge := e.g.Edge(data.IfEdge); edge != nil && edge.Attached() && edge.Explicit {
		e.jump(st.First(), edge)
	}
	e.close(st)
	if data.IfType == stats.IfElse && data.ElseBranch != stats.NoNode {
		e.add(TokenKeyword, "else", st)
		e.open(st)
		e.stat(e.g.Node(data.ElseBranch))
		e.close(st)
	}
	e.jumps(st)
}

func (e *emitter) loop(st *stats.Statement) {
	data := st.Do()
	e.label(st)
	switch data.LoopType {
	case stats.LoopDoWhile:
		e.add(TokenKeyword, "do", st)
		e.open(st)
		e.stat(st.First())
		e.close(st)
		e.add(TokenKeyword, "while", st)
		e.add(TokenCondition, data.Condition, st)
	case stats.LoopWhile:
		e.add(TokenKeyword, "while", st)
		e.add(TokenCondition, data.Condition, st)
		e.open(st)
		e.stat(st.First())
		e.close(st)
	case stats.LoopFor, stats.LoopForEach:
		e.add(TokenKeyword, data.LoopType.String(), st)
		e.add(TokenCondition, strings.Join([]string{data.Init, data.Condition, data.Increment}, "; "), st)
		e.open(st)
		e.stat(st.First())
		e.close(st)
	default:
		e.add(TokenKeyword, "while", st)
		e.add(TokenCondition, "true", st)
		e.open(st)
		e.stat(st.First())
		e.close(st)
	}
	e.jumps(st)
}

func (e *emitter) switchStat(st *stats.Statement) {
	data := st.Switch()
	e.label(st)
	e.block(st.First())
	e.add(TokenKeyword, "switch", st)
	e.add(TokenCondition, conditionOf(st.First()), st)
	e.open(st)
	for i, id := range data.Cases {
		if i < len(data.CaseValues) {
			for _, v := range data.CaseValues[i] {
				e.add(TokenCase, v.String()+":", st)
			}
		}
		e.stat(e.g.Node(id))
	}
	e.close(st)
	e.jumps(st)
}

// block emits a reference to a basic block with its non-control
// instructions as detail
func (e *emitter) block(st *stats.Statement) {
	if st == nil || st.Kind() != stats.KindBasicBlock {
		e.stat(st)
		return
	}
	b := st.Block()
	tok := Token{Kind: TokenBlock, Node: st.ID, Depth: e.depth, Text: "empty"}
	if b.Block != nil {
		tok.Text = fmt.Sprintf("B%d", b.Block.ID)
		var parts []string
		for _, in := range b.Block.Instructions {
			switch in.Op {
			case cfg.OpIf, cfg.OpSwitch, cfg.OpGoto:
				continue
			case cfg.OpMonitorExit:
				if b.RemovableMonitorExit {
					continue
				}
			}
			text := in.Text
			if in.Op != cfg.OpPlain {
				text = strings.TrimSpace(in.Op.String() + " " + in.Text)
			}
			if text != "" {
				parts = append(parts, text)
			}
		}
		tok.Detail = strings.Join(parts, "; ")
	}
	e.tokens = append(e.tokens, tok)
}

// jumps emits the explicit jumps leaving a statement. Edges leaving the head
// of an if or switch belong to that statement and are skipped.
func (e *emitter) jumps(st *stats.Statement) {
	if p := st.Parent(); p != nil && st == p.First() {
		switch p.Kind() {
		case stats.KindIf, stats.KindSwitch, stats.KindSynchronized:
			return
		}
	}
	for _, edge := range st.Successors(stats.MaskDirectAll) {
		if edge.Explicit {
			e.jump(st, edge)
		}
	}
}

func (e *emitter) jump(src *stats.Statement, edge *stats.Edge) {
	dst := e.g.Node(edge.Destination)
	if p := src.Parent(); p != nil && p.Kind() == stats.KindGeneral && edge.Type == stats.EdgeRegular {
		e.add(TokenJump, fmt.Sprintf("goto S%d", dst.ID), src)
		return
	}
	if dst.Kind() == stats.KindDummyExit {
		e.add(TokenJump, "return", src)
		return
	}

	var text string
	switch edge.Type {
	case stats.EdgeBreak:
		text = "break"
	case stats.EdgeContinue:
		text = "continue"
	default:
		text = fmt.Sprintf("goto S%d", dst.ID)
	}
	if edge.Labeled && edge.Closure != stats.NoNode {
		text += " " + LabelName(e.g.Node(edge.Closure))
	}
	e.add(TokenJump, text, src)
}

func conditionOf(st *stats.Statement) string {
	if st.Kind() != stats.KindBasicBlock {
		return ""
	}
	if b := st.Block().Block; b != nil {
		if last := b.Last(); last != nil {
			return strings.TrimSpace(last.Text)
		}
	}
	return ""
}
