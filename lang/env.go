// Copyright © 2024 The ELPS authors

package lang

import (
	"bytes"
	"sort"
)

// Frame is one binding scope.  A frame is created by each function
// application, binding exactly the function's parameter, or by the caller of
// the evaluator to hold top-level bindings.  Frames are immutable once
// constructed.
type Frame struct {
	names []string
	vals  []Value
}

// NewFrame returns a frame holding a copy of bindings.  Names are kept in
// sorted order so that frames print and traverse deterministically.
func NewFrame(bindings map[string]Value) *Frame {
	f := &Frame{
		names: make([]string, 0, len(bindings)),
		vals:  make([]Value, 0, len(bindings)),
	}
	for name := range bindings {
		f.names = append(f.names, name)
	}
	sort.Strings(f.names)
	for _, name := range f.names {
		f.vals = append(f.vals, bindings[name])
	}
	return f
}

func singleFrame(name string, v Value) *Frame {
	return &Frame{
		names: []string{name},
		vals:  []Value{v},
	}
}

// Get returns the value bound to name in f.
func (f *Frame) Get(name string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	for i := range f.names {
		if f.names[i] == name {
			return f.vals[i], true
		}
	}
	return Value{}, false
}

// Len returns the number of bindings in f.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Each calls fn for every binding in f, in name order.
func (f *Frame) Each(fn func(name string, v Value)) {
	if f == nil {
		return
	}
	for i := range f.names {
		fn(f.names[i], f.vals[i])
	}
}

// Env is a stack of frames, innermost first.  The head frame is the one
// created by the most recent application in the lexical chain and Parent
// holds the frames captured by the closure that was applied.  Env values are
// shared by closures and are never modified.
type Env struct {
	Frame  *Frame
	Parent *Env
}

// NewEnv returns a root environment containing a single frame with the given
// bindings.  A nil or empty map produces an empty root frame.
func NewEnv(bindings map[string]Value) *Env {
	return &Env{Frame: NewFrame(bindings)}
}

// Bind returns a new environment whose head frame binds name to v on top of
// env.  The receiver is not modified.
func (env *Env) Bind(name string, v Value) *Env {
	return &Env{
		Frame:  singleFrame(name, v),
		Parent: env,
	}
}

// Lookup resolves name starting with the head frame and continuing through
// the lexically enclosing frames.
func (env *Env) Lookup(name string) (Value, bool) {
	for e := env; e != nil; e = e.Parent {
		if v, ok := e.Frame.Get(name); ok {
			return v, true
		}
	}
	return Value{}, false
}

// EachEnv allows a lone environment to be used as a RootSet.
func (env *Env) EachEnv(fn func(*Env)) {
	if env != nil {
		fn(env)
	}
}

// EachValue implements RootSet.  An environment holds no temporaries.
func (env *Env) EachValue(fn func(Value)) {}

func (f *Frame) String() string {
	var buf bytes.Buffer
	buf.WriteString("{")
	f.Each(func(name string, v Value) {
		if buf.Len() > 1 {
			buf.WriteString(" ")
		}
		buf.WriteString(name)
		buf.WriteString("=")
		if v.Type == VClosure {
			buf.WriteString("#<closure>")
		} else {
			buf.WriteString(v.String())
		}
	})
	buf.WriteString("}")
	return buf.String()
}

func (env *Env) String() string {
	var buf bytes.Buffer
	buf.WriteString("[")
	for e := env; e != nil; e = e.Parent {
		if e != env {
			buf.WriteString(" | ")
		}
		buf.WriteString(e.Frame.String())
	}
	buf.WriteString("]")
	return buf.String()
}

func (env *Env) head() string {
	if env == nil {
		return "{}"
	}
	return env.Frame.String()
}
