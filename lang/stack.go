// Copyright © 2024 The ELPS authors

package lang

import (
	"fmt"
	"io"
)

// DefaultMaxStackHeight is the physical stack height used when a Runtime is
// not configured with WithMaxStackHeight.
const DefaultMaxStackHeight = 25000

// RootSet is the set of values the collector must treat as live.  The
// evaluator's CallStack is the RootSet used during evaluation.  A lone *Env
// is also a RootSet.
type RootSet interface {
	// EachEnv calls fn for each environment in flight.  Every frame of each
	// environment is a root.
	EachEnv(fn func(*Env))
	// EachValue calls fn for each temporary held outside of an environment.
	EachValue(fn func(Value))
}

// CallStack is the evaluator's reified call stack.  It exists so that a
// collection triggered in the middle of evaluation can find every
// environment belonging to a call that has not yet returned, along with the
// intermediate values those calls are holding.
type CallStack struct {
	Frames    []CallFrame
	MaxHeight int
}

var _ RootSet = (*CallStack)(nil)

// CallFrame is one frame in the CallStack
type CallFrame struct {
	// Env is the environment the call evaluates its body in.
	Env *Env
	// Fun is the function literal being evaluated, nil for the entrypoint.
	Fun *Expr
	// Temps are values computed by the call which are waiting to be
	// consumed.
	Temps []Value
}

func (f *CallFrame) String() string {
	if f.Fun == nil {
		return fmt.Sprintf("<entrypoint> %s", f.Env.head())
	}
	return fmt.Sprintf("(fun (%s) ...) %s", f.Fun.Param(), f.Env.head())
}

// Copy creates a copy of the current stack so that it can be attached to a
// runtime error.
func (s *CallStack) Copy() *CallStack {
	frames := make([]CallFrame, len(s.Frames))
	copy(frames, s.Frames)
	for i := range frames {
		if len(frames[i].Temps) > 0 {
			frames[i].Temps = append([]Value(nil), frames[i].Temps...)
		}
	}
	return &CallStack{
		MaxHeight: s.MaxHeight,
		Frames:    frames,
	}
}

// Top returns the CallFrame at the top of the stack or nil if none exists.
func (s *CallStack) Top() *CallFrame {
	if s == nil || len(s.Frames) == 0 {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// Height returns the number of frames on the stack.
func (s *CallStack) Height() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Push pushes a new frame evaluating fun in env.
func (s *CallStack) Push(fun *Expr, env *Env) error {
	if s.MaxHeight > 0 && s.MaxHeight <= len(s.Frames) {
		return &StackOverflowError{len(s.Frames) + 1}
	}
	s.Frames = append(s.Frames, CallFrame{
		Env: env,
		Fun: fun,
	})
	return nil
}

// Pop removes the top CallFrame from the stack and returns it.
func (s *CallStack) Pop() CallFrame {
	if len(s.Frames) < 1 {
		panic("pop called on an empty stack")
	}
	f := s.Frames[len(s.Frames)-1]
	s.Frames[len(s.Frames)-1] = CallFrame{}
	s.Frames = s.Frames[:len(s.Frames)-1]
	return f
}

// PushTemp roots v in the top frame until the matching PopTemp.
func (s *CallStack) PushTemp(v Value) {
	top := s.Top()
	if top == nil {
		panic("temporary pushed on an empty stack")
	}
	top.Temps = append(top.Temps, v)
}

// PopTemp removes the most recent temporary from the top frame.
func (s *CallStack) PopTemp() Value {
	top := s.Top()
	if top == nil || len(top.Temps) == 0 {
		panic("pop called without a temporary")
	}
	v := top.Temps[len(top.Temps)-1]
	top.Temps[len(top.Temps)-1] = Value{}
	top.Temps = top.Temps[:len(top.Temps)-1]
	return v
}

// EachEnv implements RootSet.
func (s *CallStack) EachEnv(fn func(*Env)) {
	if s == nil {
		return
	}
	for i := range s.Frames {
		if s.Frames[i].Env != nil {
			fn(s.Frames[i].Env)
		}
	}
}

// EachValue implements RootSet.
func (s *CallStack) EachValue(fn func(Value)) {
	if s == nil {
		return
	}
	for i := range s.Frames {
		for _, v := range s.Frames[i].Temps {
			fn(v)
		}
	}
}

// DebugPrint prints s
func (s *CallStack) DebugPrint(w io.Writer) (int, error) {
	n, err := fmt.Fprintf(w, "Stack Trace [%d frames -- entrypoint last]:\n", len(s.Frames))
	if err != nil {
		return n, err
	}
	indent := "  "
	for i := len(s.Frames) - 1; i >= 0; i-- {
		fstr := s.Frames[i].String()
		_n, err := fmt.Fprintf(w, "%sheight %d: %s\n", indent, i, fstr)
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// StackOverflowError is returned by CallStack.Push when the stack would grow
// beyond its maximum height.
type StackOverflowError struct {
	Height int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("stack height exceeded maximum: %v", e.Height)
}
