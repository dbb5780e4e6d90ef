// Package ast contains the abstract syntax tree produced by the parser
// and consumed by the code generator.
//
// Every node is immutable once built and owns its subtrees: Expr is a
// marker interface implemented by one concrete struct per node kind,
// with recursive fields typed as Expr (an interface value - Go's
// equivalent of the owned heap handle a tagged-variant language would
// use for the same recursive shape). There are no cycles, so no
// reference counting is needed.
package ast

import (
	"github.com/skx/cish-compiler/instructions"
	"github.com/skx/cish-compiler/token"
)

// Expr is implemented by every expression node. The method exists only
// to seal the interface to this package's node types.
type Expr interface {
	exprNode()
}

// Definition is a top-level named function: a name, an ordered unique
// set of parameter names, and a body expression. Parameter order is
// significant - it maps directly to the System V argument registers.
type Definition struct {
	Name   token.Name
	Params []token.Name
	Body   Expr
}

// Integer is a literal signed 64-bit constant.
type Integer struct {
	Value int64
}

// String is a literal string, stored verbatim including its surrounding
// quotes exactly as written in source.
type String struct {
	Raw string
}

// Undefined is the implicit value of a statement that produces none
// (a bare "break" or "return", or an elided let rvalue).
type Undefined struct{}

// Variable is a reference to a name: a local slot if one is in scope,
// otherwise the address of an external symbol.
type Variable struct {
	Name token.Name
}

// Pointer takes the address of a local. It is a compile error for Name
// to resolve to anything but a local slot.
type Pointer struct {
	Name token.Name
}

// Derefer loads through a pointer expression at the given width.
type Derefer struct {
	Target Expr
	Size   token.Size
}

// Call invokes a callee expression (usually a Variable naming a
// function) with an ordered list of argument expressions.
type Call struct {
	Callee Expr
	Args   []Expr
}

// Block runs a sequence of expressions in order; its value is whatever
// the last one leaves in rax (the generator concatenates, it doesn't
// thread a value between lines).
type Block struct {
	Lines []Expr
}

// Let binds a value to an lvalue. LValue must be either a Variable
// (introduces or updates a local) or a Derefer (stores through a
// pointer); any other shape is a parser/generator error.
type Let struct {
	LValue Expr
	RValue Expr
}

// If evaluates Cond and branches to Then or, if present, Else.
type If struct {
	Cond Expr
	Then Expr
	Else Expr // nil when no else clause was written
}

// While repeats Body for as long as Cond is non-zero.
type While struct {
	Cond Expr
	Body Expr
}

// Break unwinds to the end of the nearest lexically enclosing While.
// Value is still evaluated (for its side effects) before the jump.
type Break struct {
	Value Expr
}

// Return evaluates Value and then leaves the current function.
type Return struct {
	Value Expr
}

// Binary is one of the strictly-binary signed-64-bit operators.
type Binary struct {
	Op    instructions.BinaryOp
	Left  Expr
	Right Expr
}

func (*Integer) exprNode()  {}
func (*String) exprNode()   {}
func (*Undefined) exprNode() {}
func (*Variable) exprNode() {}
func (*Pointer) exprNode()  {}
func (*Derefer) exprNode()  {}
func (*Call) exprNode()     {}
func (*Block) exprNode()    {}
func (*Let) exprNode()      {}
func (*If) exprNode()       {}
func (*While) exprNode()    {}
func (*Break) exprNode()    {}
func (*Return) exprNode()   {}
func (*Binary) exprNode()   {}
