// Copyright © 2024 The ELPS authors

package lang

import (
	"bytes"
	"strconv"
)

// ExprType is the type of an Expr
type ExprType uint

// Possible ExprType values
const (
	// EInvalid (0) is not a valid expression type.
	EInvalid ExprType = iota
	// ENum expressions store their literal in the Expr.Int field.
	ENum
	// EIdent expressions store the identifier in the Expr.Name field.
	EIdent
	// EAdd and EMul expressions use Expr.Cells to store the following items:
	//		[0] left operand
	//		[1] right operand
	EAdd
	EMul
	// EIf0 expressions use Expr.Cells to store the following items:
	//		[0] condition
	//		[1] expression evaluated when the condition is zero
	//		[2] expression evaluated otherwise
	EIf0
	// EFun expressions store the formal parameter in Expr.Name and the body
	// in Expr.Cells[0].
	EFun
	// EApp expressions use Expr.Cells to store the following items:
	//		[0] function expression
	//		[1] argument expression
	EApp
	// ENewBox expressions store the initial value expression in Cells[0].
	ENewBox
	// ESetBox expressions use Expr.Cells to store the following items:
	//		[0] box expression
	//		[1] value expression
	ESetBox
	// EOpenBox expressions store the box expression in Cells[0].
	EOpenBox
	// ESeq expressions evaluate Cells[0] for effect and then Cells[1].
	ESeq
	// ETypeMax is not a real type but represents a value numerically greater
	// than all valid ExprType values.
	ETypeMax
)

var exprTypeStrings = []string{
	EInvalid: "INVALID",
	ENum:     "num",
	EIdent:   "id",
	EAdd:     "+",
	EMul:     "*",
	EIf0:     "if0",
	EFun:     "fun",
	EApp:     "app",
	ENewBox:  "box",
	ESetBox:  "set-box!",
	EOpenBox: "unbox",
	ESeq:     "seq",
}

func (t ExprType) String() string {
	if t >= ExprType(len(exprTypeStrings)) {
		return exprTypeStrings[EInvalid]
	}
	return exprTypeStrings[t]
}

// Expr is an expression in the object language.  Expressions are built once
// by the caller with the constructor functions below and are never mutated
// afterwards, so a single Expr may be shared by any number of closures.
type Expr struct {
	// Name is used by EIdent and EFun expressions.
	Name string

	// Cells holds subexpressions.  See the ExprType constants for layouts.
	Cells []*Expr

	// Type is the variant of the expression.
	Type ExprType

	// Int is used by ENum expressions.
	Int int
}

// Num returns a number literal.
func Num(n int) *Expr {
	return &Expr{Type: ENum, Int: n}
}

// Ident returns an identifier reference.
func Ident(name string) *Expr {
	return &Expr{Type: EIdent, Name: name}
}

// Add returns an expression summing lhs and rhs.
func Add(lhs, rhs *Expr) *Expr {
	return &Expr{Type: EAdd, Cells: []*Expr{lhs, rhs}}
}

// Mul returns an expression multiplying lhs and rhs.
func Mul(lhs, rhs *Expr) *Expr {
	return &Expr{Type: EMul, Cells: []*Expr{lhs, rhs}}
}

// If0 returns a conditional which evaluates then when cond is zero and els
// otherwise.
func If0(cond, then, els *Expr) *Expr {
	return &Expr{Type: EIf0, Cells: []*Expr{cond, then, els}}
}

// Fun returns a function literal of one parameter.
func Fun(param string, body *Expr) *Expr {
	return &Expr{Type: EFun, Name: param, Cells: []*Expr{body}}
}

// App returns the application of fn to arg.
func App(fn, arg *Expr) *Expr {
	return &Expr{Type: EApp, Cells: []*Expr{fn, arg}}
}

// NewBox returns an expression allocating a box holding the value of init.
func NewBox(init *Expr) *Expr {
	return &Expr{Type: ENewBox, Cells: []*Expr{init}}
}

// SetBox returns an expression that overwrites the contents of box.
func SetBox(box, val *Expr) *Expr {
	return &Expr{Type: ESetBox, Cells: []*Expr{box, val}}
}

// OpenBox returns an expression reading the contents of box.
func OpenBox(box *Expr) *Expr {
	return &Expr{Type: EOpenBox, Cells: []*Expr{box}}
}

// Seq returns an expression which evaluates first for effect and then
// evaluates to second.
func Seq(first, second *Expr) *Expr {
	return &Expr{Type: ESeq, Cells: []*Expr{first, second}}
}

// Let binds name to value while evaluating body.  There is no distinct let
// form in the language, the result is an application of a function literal.
func Let(name string, value, body *Expr) *Expr {
	return App(Fun(name, body), value)
}

// Param returns the formal parameter of a function literal.
func (e *Expr) Param() string {
	return e.Name
}

// Body returns the body of a function literal.
func (e *Expr) Body() *Expr {
	if e.Type != EFun {
		return nil
	}
	return e.Cells[0]
}

func (e *Expr) String() string {
	var buf bytes.Buffer
	e.write(&buf)
	return buf.String()
}

func (e *Expr) write(buf *bytes.Buffer) {
	if e == nil {
		buf.WriteString("<nil>")
		return
	}
	switch e.Type {
	case ENum:
		buf.WriteString(strconv.Itoa(e.Int))
		return
	case EIdent:
		buf.WriteString(e.Name)
		return
	case EFun:
		buf.WriteString("(fun (")
		buf.WriteString(e.Name)
		buf.WriteString(") ")
		e.Cells[0].write(buf)
		buf.WriteString(")")
		return
	case EApp:
		buf.WriteString("(")
		e.Cells[0].write(buf)
		buf.WriteString(" ")
		e.Cells[1].write(buf)
		buf.WriteString(")")
		return
	}
	buf.WriteString("(")
	buf.WriteString(e.Type.String())
	for _, c := range e.Cells {
		buf.WriteString(" ")
		c.write(buf)
	}
	buf.WriteString(")")
}
