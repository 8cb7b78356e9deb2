// Copyright © 2024 The ELPS authors

package lang

import (
	"fmt"
)

// ValueType is the type of a Value
type ValueType uint

// Possible ValueType values
const (
	// VInvalid (0) is not a valid value type.  The zero Value has this type.
	VInvalid ValueType = iota
	// VNum values store an int in the Value.Int field.
	VNum
	// VClosure values store a function literal in Value.Fun and the
	// environment it was created in in Value.Env.
	VClosure
	// VAddr values store a store address in Value.Addr.  An address is a
	// handle to a store slot, it does not own the slot.
	VAddr
	// VTypeMax is not a real type but represents a value numerically greater
	// than all valid ValueType values.
	VTypeMax
)

var valueTypeStrings = []string{
	VInvalid: "INVALID",
	VNum:     "number",
	VClosure: "closure",
	VAddr:    "address",
}

func (t ValueType) String() string {
	if t >= ValueType(len(valueTypeStrings)) {
		return valueTypeStrings[VInvalid]
	}
	return valueTypeStrings[t]
}

// Address identifies a slot in a Store.  Addresses are only produced by
// Store.Alloc.
type Address int

func (a Address) String() string {
	return fmt.Sprintf("@%d", int(a))
}

// Value is the result of evaluating an Expr.  Values are small and are passed
// by value; a closure shares its Env and function literal.
type Value struct {
	// Fun is the function literal of a VClosure.
	Fun *Expr

	// Env is the environment captured by a VClosure.
	Env *Env

	// Type is the variant of the value.
	Type ValueType

	// Int is used by VNum values.
	Int int

	// Addr is used by VAddr values.
	Addr Address

	// marked is only meaningful while a collection cycle is in progress.
	// Outside of a collection it is always false.
	marked bool
}

// Number returns a number value.
func Number(n int) Value {
	return Value{Type: VNum, Int: n}
}

// Closure returns a closure of fun over env.  Fun should be an EFun
// expression, applying a closure over anything else is a NotCallable error.
func Closure(fun *Expr, env *Env) Value {
	return Value{Type: VClosure, Fun: fun, Env: env}
}

// AddressOf returns a value referencing the store slot at a.
func AddressOf(a Address) Value {
	return Value{Type: VAddr, Addr: a}
}

// IsNumber returns true if v is a number.
func (v Value) IsNumber() bool {
	return v.Type == VNum
}

// IsClosure returns true if v is a closure.
func (v Value) IsClosure() bool {
	return v.Type == VClosure
}

// IsAddress returns true if v is an address.
func (v Value) IsAddress() bool {
	return v.Type == VAddr
}

// Marked reports the collector's mark bit for v.  It is false for every
// value observed outside of a collection cycle.
func (v Value) Marked() bool {
	return v.marked
}

func (v Value) String() string {
	switch v.Type {
	case VNum:
		return fmt.Sprint(v.Int)
	case VAddr:
		return v.Addr.String()
	case VClosure:
		return fmt.Sprintf("#<closure %s>", v.Fun)
	}
	return "#<invalid>"
}
