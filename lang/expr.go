package lang

import (
	"iter"
	"slices"
)

// Expr is a node of the syntax tree. Spans are byte offsets into the source
// with End exclusive.
type Expr interface {
	Bounds() Span
	// Children yields the direct subexpressions in source order.
	Children() iter.Seq[Expr]
	exprNode()
}

// Span is the source range of an expression.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Bounds returns s itself; it lets node types satisfy [Expr] by embedding.
func (s Span) Bounds() Span { return s }

// Contains reports whether pos lies within s, counting the position just
// past the last byte.
func (s Span) Contains(pos int) bool { return pos >= s.Start && pos <= s.End }

type (
	NullExpr struct{ Span }

	BoolExpr struct {
		Span
		Value bool
	}

	NumberExpr struct {
		Span
		Value float64
	}

	StringExpr struct {
		Span
		Value string
	}

	// VariableExpr reads a global.
	VariableExpr struct {
		Span
		Name string
	}

	// GetExpr reads field Name of the map produced by Object.
	GetExpr struct {
		Span
		Object Expr
		Name   string
	}

	CallExpr struct {
		Span
		Callee Expr
		Args   []Expr
	}

	UnaryExpr struct {
		Span
		Op    TokenKind
		Right Expr
	}

	BinaryExpr struct {
		Span
		Left  Expr
		Op    TokenKind
		Right Expr
	}

	// LogicalExpr is a short-circuit "and" or "or".
	LogicalExpr struct {
		Span
		Left  Expr
		Op    TokenKind
		Right Expr
	}

	ConditionalExpr struct {
		Span
		Cond, Then, Else Expr
	}

	GroupExpr struct {
		Span
		Inner Expr
	}

	// BlockExpr is a brace-delimited expression embedded in literal text.
	// Inner is nil for an empty pair of braces.
	BlockExpr struct {
		Span
		Inner Expr
	}

	// SectionExpr starts output channel Index and renders Inner into it.
	SectionExpr struct {
		Span
		Index int
		Inner Expr
	}
)

func (*NullExpr) exprNode()        {}
func (*BoolExpr) exprNode()        {}
func (*NumberExpr) exprNode()      {}
func (*StringExpr) exprNode()      {}
func (*VariableExpr) exprNode()    {}
func (*GetExpr) exprNode()         {}
func (*CallExpr) exprNode()        {}
func (*UnaryExpr) exprNode()       {}
func (*BinaryExpr) exprNode()      {}
func (*LogicalExpr) exprNode()     {}
func (*ConditionalExpr) exprNode() {}
func (*GroupExpr) exprNode()       {}
func (*BlockExpr) exprNode()       {}
func (*SectionExpr) exprNode()     {}

func none(func(Expr) bool) {}

// each yields the non-nil expressions of list.
func each(list ...Expr) iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		for _, e := range list {
			if e != nil && !yield(e) {
				return
			}
		}
	}
}

func (*NullExpr) Children() iter.Seq[Expr]     { return none }
func (*BoolExpr) Children() iter.Seq[Expr]     { return none }
func (*NumberExpr) Children() iter.Seq[Expr]   { return none }
func (*StringExpr) Children() iter.Seq[Expr]   { return none }
func (*VariableExpr) Children() iter.Seq[Expr] { return none }

func (e *GetExpr) Children() iter.Seq[Expr] { return each(e.Object) }

func (e *CallExpr) Children() iter.Seq[Expr] {
	return each(append([]Expr{e.Callee}, e.Args...)...)
}

func (e *UnaryExpr) Children() iter.Seq[Expr]   { return each(e.Right) }
func (e *BinaryExpr) Children() iter.Seq[Expr]  { return each(e.Left, e.Right) }
func (e *LogicalExpr) Children() iter.Seq[Expr] { return each(e.Left, e.Right) }

func (e *ConditionalExpr) Children() iter.Seq[Expr] {
	return each(e.Cond, e.Then, e.Else)
}

func (e *GroupExpr) Children() iter.Seq[Expr]   { return each(e.Inner) }
func (e *BlockExpr) Children() iter.Seq[Expr]   { return each(e.Inner) }
func (e *SectionExpr) Children() iter.Seq[Expr] { return each(e.Inner) }

// Walk calls fn for e and its descendants in depth-first pre-order. A false
// return from fn skips the node's children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	for c := range e.Children() {
		Walk(c, fn)
	}
}

// kindName is the node name used in tree dumps and serialized output.
func kindName(e Expr) string {
	switch e.(type) {
	case *NullExpr:
		return "Null"
	case *BoolExpr:
		return "Bool"
	case *NumberExpr:
		return "Number"
	case *StringExpr:
		return "String"
	case *VariableExpr:
		return "Variable"
	case *GetExpr:
		return "Get"
	case *CallExpr:
		return "Call"
	case *UnaryExpr:
		return "Unary"
	case *BinaryExpr:
		return "Binary"
	case *LogicalExpr:
		return "Logical"
	case *ConditionalExpr:
		return "Conditional"
	case *GroupExpr:
		return "Group"
	case *BlockExpr:
		return "Block"
	case *SectionExpr:
		return "Section"
	default:
		return "?"
	}
}

// childList collects e.Children.
func childList(e Expr) []Expr { return slices.Collect(e.Children()) }
