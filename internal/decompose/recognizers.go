package decompose

import (
	"strings"

	"github.com/ludo-technologies/flowstruct/internal/stats"
)

// Recognizer inspects a head node and proposes a composite statement. On a
// miss it returns nil and leaves the arena untouched; on a hit the returned
// composite is fully formed but still detached, and the caller merges it.
type Recognizer struct {
	Name  string
	Match func(head *stats.Statement) *stats.Statement
}

// priority is the order in which recognizers are tried at every node
var priority = [...]Recognizer{
	{Name: "sequence", Match: MatchSequence},
	{Name: "if", Match: MatchIf},
	{Name: "loop", Match: MatchLoop},
	{Name: "switch", Match: MatchSwitch},
	{Name: "trycatch", Match: MatchCatch},
	{Name: "catchall", Match: MatchCatchAll},
}

// Recognizers returns the recognizer table in priority order
func Recognizers() []Recognizer {
	return append([]Recognizer(nil), priority[:]...)
}

// detect runs the recognizers in priority order and returns the first hit
func detect(head *stats.Statement) (*stats.Statement, string) {
	for _, r := range priority {
		if res := r.Match(head); res != nil {
			return res, r.Name
		}
	}
	return nil, ""
}

func node(head *stats.Statement, id stats.NodeID) *stats.Statement {
	return head.Graph().Node(id)
}

// siblings reports whether every statement of lst is a direct child of the
// parent of head. Exception and choice successors may lie outside the
// region being collapsed, and a composite never spans two regions.
func siblings(head *stats.Statement, lst []*stats.Statement) bool {
	parent := head.Parent()
	if parent == nil {
		return false
	}
	for _, st := range lst {
		if st == nil || !parent.HasChild(st.ID) {
			return false
		}
	}
	return true
}

// MatchSequence folds head and its single-entry regular successor
func MatchSequence(head *stats.Statement) *stats.Statement {
	if head.LastBasicType() != stats.LastGeneral {
		return nil
	}
	edge := head.FirstSuccessor()
	if edge == nil || edge.Type != stats.EdgeRegular {
		return nil
	}
	next := node(head, edge.Destination)
	if next == head || len(next.Predecessors(stats.EdgeRegular)) != 1 || next.IsMonitorEnter() {
		return nil
	}
	if next.LastBasicType() != stats.LastGeneral {
		return nil
	}
	if !siblings(head, []*stats.Statement{next}) || !CheckStatementExceptions([]*stats.Statement{head, next}) {
		return nil
	}

	var post *stats.Statement
	if e := next.FirstSuccessor(); e != nil && e.Type == stats.EdgeRegular && e.Destination != head.ID {
		post = node(head, e.Destination)
	}
	return head.Graph().NewComposite(stats.KindSequence, head, []*stats.Statement{head, next}, post)
}

// MatchIf recognizes a conditional basic block together with its arms
func MatchIf(head *stats.Statement) *stats.Statement {
	if head.Kind() != stats.KindBasicBlock || head.LastBasicType() != stats.LastIf {
		return nil
	}

	regsize := len(head.Successors(stats.EdgeRegular))
	var post *stats.Statement
	if regsize >= 2 {
		lst, ok := IsChoiceStatement(head)
		if !ok {
			return nil
		}
		post = lst[0]
		arms := lst[1:]
		for _, st := range arms {
			if st.IsMonitorEnter() {
				return nil
			}
		}
		if !CheckStatementExceptions(arms) {
			return nil
		}
	}
	return newIf(head, regsize, post)
}

func newIf(head *stats.Statement, regedges int, choicePost *stats.Statement) *stats.Statement {
	succs := head.Successors(stats.MaskDirectAll)
	if len(succs) < 2 {
		return nil
	}

	var ifstat, elsestat, post *stats.Statement
	negated := false

	switch regedges {
	case 0:
	case 1:
		if succs[1].Type != stats.EdgeRegular {
			post = node(head, succs[0].Destination)
		} else {
			post = node(head, succs[1].Destination)
			negated = true
		}
	default:
		elsestat = node(head, succs[0].Destination)
		ifstat = node(head, succs[1].Destination)
		ifSuccs := ifstat.SuccessorNodes(stats.EdgeRegular)
		elseSuccs := elsestat.SuccessorNodes(stats.EdgeRegular)

		switch {
		case len(ifstat.Predecessors(stats.EdgeRegular)) > 1 || len(ifSuccs) > 1:
			post = ifstat
		case len(elsestat.Predecessors(stats.EdgeRegular)) > 1 || len(elseSuccs) > 1:
			post = elsestat
		case len(ifSuccs) == 0:
			post = elsestat
		case len(elseSuccs) == 0:
			post = ifstat
		}

		switch {
		case ifstat == post:
			if elsestat != post {
				ifstat = elsestat
				negated = true
			} else {
				ifstat = nil
			}
			elsestat = nil
		case elsestat == post:
			elsestat = nil
		default:
			post = choicePost
		}
		if elsestat == nil {
			regedges = 1
		}
	}

	children := []*stats.Statement{head}
	if ifstat != nil {
		children = append(children, ifstat)
	}
	if elsestat != nil {
		children = append(children, elsestat)
	}
	if !siblings(head, children) {
		return nil
	}

	g := head.Graph()
	stub := g.NewComposite(stats.KindIf, head, children, post)
	if post == head {
		stub.SetPost(stub)
	}

	data := stub.If()
	data.Negated = negated
	data.Condition = conditionText(head, negated)
	if ifstat != nil {
		data.IfBranch = ifstat.ID
	}
	if elsestat != nil {
		data.ElseBranch = elsestat.ID
	}
	if negated {
		data.IfEdge = succs[0].ID
	} else {
		data.IfEdge = succs[1].ID
	}
	if regedges == 2 {
		data.IfType = stats.IfElse
		if negated {
			data.ElseEdge = succs[1].ID
		} else {
			data.ElseEdge = succs[0].ID
		}
	} else {
		data.IfType = stats.IfOnly
		switch regedges {
		case 0:
			stub.AdoptOnMerge(succs[0])
		case 1:
			if negated {
				stub.DetachOnMerge(succs[1])
			} else {
				stub.DetachOnMerge(succs[0])
			}
		}
	}
	return stub
}

// conditionText renders the branch condition of a conditional block
func conditionText(head *stats.Statement, negated bool) string {
	text := "cond"
	if b := head.Block().Block; b != nil {
		if last := b.Last(); last != nil && strings.TrimSpace(last.Text) != "" {
			text = strings.TrimSpace(last.Text)
		}
	}
	if negated {
		return negate(text)
	}
	return text
}

// negate wraps a condition in a logical not, unwrapping a double negation
func negate(cond string) string {
	if strings.HasPrefix(cond, "!(") && strings.HasSuffix(cond, ")") && balanced(cond[2:len(cond)-1]) {
		return cond[2 : len(cond)-1]
	}
	return "!(" + cond + ")"
}

func balanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// MatchLoop recognizes a loop whose head either jumps to itself or is the
// target of pending continue edges
func MatchLoop(head *stats.Statement) *stats.Statement {
	if head.LastBasicType() != stats.LastGeneral || head.IsMonitorEnter() {
		return nil
	}

	edge := head.FirstSuccessor()
	selfLoop := edge != nil && edge.Type == stats.EdgeRegular && edge.Destination == head.ID
	continued := head.Kind() != stats.KindDo &&
		(edge == nil || edge.Type != stats.EdgeRegular) &&
		head.InContinueSet(head.BasicHead().ID)
	if !selfLoop && !continued {
		return nil
	}

	stub := head.Graph().NewComposite(stats.KindDo, head, []*stats.Statement{head}, nil)
	stub.Do().LoopType = stats.LoopInfinite
	return stub
}

// MatchSwitch recognizes a multi-way jump together with its arms
func MatchSwitch(head *stats.Statement) *stats.Statement {
	if head.Kind() != stats.KindBasicBlock || head.LastBasicType() != stats.LastSwitch {
		return nil
	}
	lst, ok := IsChoiceStatement(head)
	if !ok {
		return nil
	}
	post := lst[0]
	arms := lst[1:]
	for _, st := range arms {
		if st.IsMonitorEnter() {
			return nil
		}
	}
	if !CheckStatementExceptions(arms) {
		return nil
	}

	children := newNodeSet(head)
	for _, st := range head.SuccessorNodes(stats.EdgeRegular) {
		if st != post {
			children.add(st)
		}
	}
	if !siblings(head, children.items()) {
		return nil
	}

	stub := head.Graph().NewComposite(stats.KindSwitch, head, children.items(), post)
	if succs := head.Successors(stats.MaskDirectAll); len(succs) > 0 {
		stub.Switch().DefaultEdge = succs[0].ID
	}
	return stub
}

// MatchCatch recognizes a protected statement with typed handlers that all
// continue at the same place
func MatchCatch(head *stats.Statement) *stats.Statement {
	if head.LastBasicType() != stats.LastGeneral {
		return nil
	}
	handlers := newNodeSet(UniquePredExceptions(head)...)
	if handlers.len() == 0 {
		return nil
	}

	nextCount := 0
	var next *stats.Statement
	if e := head.FirstSuccessor(); e != nil && e.Type == stats.EdgeRegular {
		next = node(head, e.Destination)
		nextCount = 2
	}

	for _, e := range head.Successors(stats.EdgeException) {
		st := node(head, e.Destination)
		ok := e.Exceptions != nil && handlers.has(st)
		if ok {
			if st.LastBasicType() != stats.LastGeneral {
				ok = false
			} else if fs := st.FirstSuccessor(); fs != nil && fs.Type == stats.EdgeRegular {
				succ := node(head, fs.Destination)
				if next == nil {
					next = succ
				} else if next != succ {
					ok = false
				}
				if ok {
					nextCount++
				}
			}
		}
		if !ok {
			handlers.remove(st)
		}
	}

	if nextCount == 1 || handlers.len() == 0 {
		return nil
	}

	lst := append([]*stats.Statement{head}, handlers.items()...)
	for _, st := range lst {
		if st.IsMonitorEnter() {
			return nil
		}
	}
	if !siblings(head, lst) || !CheckStatementExceptions(lst) {
		return nil
	}

	g := head.Graph()
	children := []*stats.Statement{head}
	var types [][]string
	position := make(map[stats.NodeID]int)
	for _, e := range head.Successors(stats.EdgeException) {
		st := node(head, e.Destination)
		if !handlers.has(st) {
			continue
		}
		if i, seen := position[st.ID]; seen {
			types[i] = append(types[i], e.Exceptions...)
			continue
		}
		position[st.ID] = len(types)
		children = append(children, st)
		types = append(types, append([]string(nil), e.Exceptions...))
	}

	stub := g.NewComposite(stats.KindTryCatch, head, children, next)
	data := stub.Catch()
	data.ExceptionTypes = types
	for _, t := range types {
		data.Vars = append(data.Vars, g.NewVar(t[0]))
	}
	return stub
}

// ThrowableType is the type of variables bound by catch-all handlers
const ThrowableType = "java/lang/Throwable"

// MatchCatchAll recognizes a protected statement with a single handler
// that catches everything and does not fall through
func MatchCatchAll(head *stats.Statement) *stats.Statement {
	if head.LastBasicType() != stats.LastGeneral {
		return nil
	}
	unique := UniquePredExceptions(head)
	if len(unique) != 1 {
		return nil
	}
	handlers := newNodeSet(unique...)

	for _, e := range head.Successors(stats.EdgeException) {
		exc := node(head, e.Destination)
		if e.Exceptions != nil || exc.LastBasicType() != stats.LastGeneral || !handlers.has(exc) {
			continue
		}
		if fs := exc.FirstSuccessor(); fs != nil && fs.Type == stats.EdgeRegular {
			continue
		}
		if head.IsMonitorEnter() || exc.IsMonitorEnter() {
			return nil
		}
		if !siblings(head, []*stats.Statement{exc}) || !CheckStatementExceptions([]*stats.Statement{head, exc}) {
			continue
		}

		var post *stats.Statement
		if fs := head.FirstSuccessor(); fs != nil && fs.Type == stats.EdgeRegular {
			post = node(head, fs.Destination)
		}
		g := head.Graph()
		stub := g.NewComposite(stats.KindCatchAll, head, []*stats.Statement{head, exc}, post)
		data := stub.CatchAll()
		data.Handler = exc.ID
		data.Var = g.NewVar(ThrowableType)
		return stub
	}
	return nil
}
