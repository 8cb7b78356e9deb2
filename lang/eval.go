// Copyright © 2024 The ELPS authors

package lang

import (
	"context"
	"errors"
)

// Eval evaluates expr with env as the root environment, allocating boxes in
// store.  Evaluation is call-by-value and operands are evaluated left to
// right.  Any error aborts the whole evaluation.
func Eval(expr *Expr, env *Env, store Store) (Value, error) {
	ev := &evaluator{
		store: store,
		stack: &CallStack{MaxHeight: DefaultMaxStackHeight},
	}
	return ev.run(expr, env)
}

type evaluator struct {
	store Store
	stack *CallStack
	ctx   context.Context
}

func (ev *evaluator) run(expr *Expr, env *Env) (Value, error) {
	if env == nil {
		env = NewEnv(nil)
	}
	err := ev.stack.Push(nil, env)
	if err != nil {
		return Value{}, ev.wrap(expr, err)
	}
	v, err := ev.eval(expr, env)
	if err != nil {
		return Value{}, err
	}
	ev.stack.Pop()
	return v, nil
}

func (ev *evaluator) eval(e *Expr, env *Env) (Value, error) {
	switch e.Type {
	case ENum:
		return Number(e.Int), nil
	case EIdent:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return Value{}, ev.fail(UnboundIdentifier, e, "%s", e.Name)
		}
		return v, nil
	case EAdd, EMul:
		return ev.arith(e, env)
	case EIf0:
		c, err := ev.eval(e.Cells[0], env)
		if err != nil {
			return Value{}, err
		}
		if !c.IsNumber() {
			return Value{}, ev.fail(TypeMismatch, e, "condition is a %v, not a number", c.Type)
		}
		if c.Int == 0 {
			return ev.eval(e.Cells[1], env)
		}
		return ev.eval(e.Cells[2], env)
	case EFun:
		return Closure(e, env), nil
	case EApp:
		return ev.apply(e, env)
	case ENewBox:
		v, err := ev.eval(e.Cells[0], env)
		if err != nil {
			return Value{}, err
		}
		a, err := ev.store.Alloc(ev.stack, v)
		if err != nil {
			return Value{}, ev.wrap(e, err)
		}
		return AddressOf(a), nil
	case ESetBox:
		b, err := ev.eval(e.Cells[0], env)
		if err != nil {
			return Value{}, err
		}
		if !b.IsAddress() {
			return Value{}, ev.fail(NotAnAddress, e, "cannot set a %v", b.Type)
		}
		// The box must survive a collection triggered by the value.
		ev.stack.PushTemp(b)
		v, err := ev.eval(e.Cells[1], env)
		if err != nil {
			return Value{}, err
		}
		ev.stack.PopTemp()
		ev.store.Write(b.Addr, v)
		return v, nil
	case EOpenBox:
		b, err := ev.eval(e.Cells[0], env)
		if err != nil {
			return Value{}, err
		}
		if !b.IsAddress() {
			return Value{}, ev.fail(NotAnAddress, e, "cannot open a %v", b.Type)
		}
		return ev.store.Read(b.Addr), nil
	case ESeq:
		_, err := ev.eval(e.Cells[0], env)
		if err != nil {
			return Value{}, err
		}
		return ev.eval(e.Cells[1], env)
	}
	return Value{}, ev.fail(ErrorUnknown, e, "invalid expression type: %v", e.Type)
}

func (ev *evaluator) arith(e *Expr, env *Env) (Value, error) {
	lhs, err := ev.eval(e.Cells[0], env)
	if err != nil {
		return Value{}, err
	}
	if !lhs.IsNumber() {
		return Value{}, ev.fail(TypeMismatch, e, "left operand of %v is a %v, not a number", e.Type, lhs.Type)
	}
	rhs, err := ev.eval(e.Cells[1], env)
	if err != nil {
		return Value{}, err
	}
	if !rhs.IsNumber() {
		return Value{}, ev.fail(TypeMismatch, e, "right operand of %v is a %v, not a number", e.Type, rhs.Type)
	}
	if e.Type == EAdd {
		return Number(lhs.Int + rhs.Int), nil
	}
	return Number(lhs.Int * rhs.Int), nil
}

// apply evaluates the function and argument in the caller's environment and
// then evaluates the body in a new frame on top of the environment the
// closure captured, which gives identifiers lexical scope.  The caller's
// frame stays on the call stack, and so remains a root, until the body
// returns.
func (ev *evaluator) apply(e *Expr, env *Env) (Value, error) {
	fn, err := ev.eval(e.Cells[0], env)
	if err != nil {
		return Value{}, err
	}
	if !fn.IsClosure() {
		return Value{}, ev.fail(NotCallable, e, "cannot apply a %v", fn.Type)
	}
	if fn.Fun == nil || fn.Fun.Type != EFun {
		return Value{}, ev.fail(NotCallable, e, "closure over %v is not a function literal", exprTypeOf(fn.Fun))
	}
	ev.stack.PushTemp(fn)
	arg, err := ev.eval(e.Cells[1], env)
	if err != nil {
		return Value{}, err
	}
	ev.stack.PopTemp()
	if ev.ctx != nil {
		if err := ev.ctx.Err(); err != nil {
			return Value{}, ev.wrap(e, err)
		}
	}
	callEnv := fn.Env.Bind(fn.Fun.Param(), arg)
	err = ev.stack.Push(fn.Fun, callEnv)
	if err != nil {
		return Value{}, ev.wrap(e, err)
	}
	v, err := ev.eval(fn.Fun.Body(), callEnv)
	if err != nil {
		return Value{}, err
	}
	ev.stack.Pop()
	return v, nil
}

func exprTypeOf(e *Expr) ExprType {
	if e == nil {
		return EInvalid
	}
	return e.Type
}

func (ev *evaluator) fail(kind ErrorKind, e *Expr, format string, v ...interface{}) error {
	lerr := errorf(kind, format, v...)
	lerr.Expr = e
	lerr.Stack = ev.stack.Copy()
	return lerr
}

// wrap converts err into an *Error carrying the location of the failure.
func (ev *evaluator) wrap(e *Expr, err error) error {
	var lerr *Error
	if errors.As(err, &lerr) {
		if lerr.Stack == nil {
			lerr.Stack = ev.stack.Copy()
		}
		if lerr.Expr == nil {
			lerr.Expr = e
		}
		return lerr
	}
	var overflow *StackOverflowError
	kind := ErrorUnknown
	switch {
	case errors.As(err, &overflow):
		kind = StackOverflow
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = Cancelled
	}
	return &Error{
		Kind:  kind,
		Err:   err,
		Expr:  e,
		Stack: ev.stack.Copy(),
	}
}
