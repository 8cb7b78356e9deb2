// Copyright © 2024 The ELPS authors

// Package langlib provides combinators and example programs built from the
// lang expression constructors, along with a loader that binds the
// combinators in a runtime's root environment.
package langlib

import (
	"fmt"
	"sort"

	"github.com/luthersystems/boxlang/lang"
)

// Z returns the call-by-value fixed point combinator
//
//	(fun (f) ((fun (x) (f (fun (v) ((x x) v))))
//	          (fun (x) (f (fun (v) ((x x) v))))))
func Z() *lang.Expr {
	half := lang.Fun("x", lang.App(lang.Ident("f"),
		lang.Fun("v", lang.App(lang.App(lang.Ident("x"), lang.Ident("x")), lang.Ident("v")))))
	return lang.Fun("f", lang.App(half, half))
}

// Pred returns a function subtracting one from its argument.
func Pred() *lang.Expr {
	return lang.Fun("n", lang.Add(lang.Ident("n"), lang.Num(-1)))
}

// Neg returns a function negating its argument.
func Neg() *lang.Expr {
	return lang.Fun("n", lang.Mul(lang.Ident("n"), lang.Num(-1)))
}

// Rec binds name to a recursive function of param while evaluating in.
// Recursion is tied through a box: the box is allocated first, then
// back-patched with a closure that opens it to find itself.  Because the
// knot lives in the store the collector traces it like any other box.
func Rec(name, param string, body, in *lang.Expr) *lang.Expr {
	knot := name + "$knot"
	self := func(e *lang.Expr) *lang.Expr {
		return lang.Let(name, lang.OpenBox(lang.Ident(knot)), e)
	}
	return lang.Let(knot, lang.NewBox(lang.Num(0)),
		lang.Seq(
			lang.SetBox(lang.Ident(knot), lang.Fun(param, self(body))),
			self(in)))
}

// Countdown returns a program which recurses n times, allocating a box on
// each call and immediately dropping it.  It evaluates to 0.
func Countdown(n int) *lang.Expr {
	body := lang.If0(lang.Ident("n"),
		lang.Num(0),
		lang.Seq(
			lang.NewBox(lang.Ident("n")),
			lang.App(lang.Ident("loop"), lang.Add(lang.Ident("n"), lang.Num(-1)))))
	return Rec("loop", "n", body, lang.App(lang.Ident("loop"), lang.Num(n)))
}

// Chain returns a program which builds a chain of n+1 boxes, each holding the
// address of the next, and evaluates to the address of the head.  Every box
// in the chain stays reachable.
func Chain(n int) *lang.Expr {
	body := lang.If0(lang.Ident("n"),
		lang.NewBox(lang.Num(0)),
		lang.NewBox(lang.App(lang.Ident("build"), lang.Add(lang.Ident("n"), lang.Num(-1)))))
	return Rec("build", "n", body, lang.App(lang.Ident("build"), lang.Num(n)))
}

// Factorial returns a program computing n! with the Z combinator.  It
// allocates nothing.
func Factorial(n int) *lang.Expr {
	return factorial(Z(), lang.Num(-1), n)
}

// LibFactorial is Factorial written against the combinators bound by
// LoadLibrary.  It fails with an unbound identifier in a runtime without
// them.
func LibFactorial(n int) *lang.Expr {
	return factorial(lang.Ident("Z"), nil, n)
}

// factorial applies fix to the factorial functional.  Decrement is done by
// adding step, or by the library's pred when step is nil.
func factorial(fix, step *lang.Expr, n int) *lang.Expr {
	dec := lang.App(lang.Ident("pred"), lang.Ident("n"))
	if step != nil {
		dec = lang.Add(lang.Ident("n"), step)
	}
	fact := lang.Fun("self", lang.Fun("n",
		lang.If0(lang.Ident("n"),
			lang.Num(1),
			lang.Mul(lang.Ident("n"), lang.App(lang.Ident("self"), dec)))))
	return lang.App(lang.App(fix, fact), lang.Num(n))
}

// Counter returns a program where a closure captures a box, the box is
// written after the closure is created, and the closure observes the write.
// It evaluates to 27.
func Counter() *lang.Expr {
	return lang.Let("box", lang.NewBox(lang.Num(42)),
		lang.Let("show", lang.Fun("_", lang.OpenBox(lang.Ident("box"))),
			lang.Seq(
				lang.SetBox(lang.Ident("box"), lang.Num(27)),
				lang.App(lang.Ident("show"), lang.Num(0)))))
}

// TwoBoxes returns a program that allocates a box holding 42, a box holding
// the first box's address and then a third box.  With only two slots and no
// reclamation the third allocation fails.
func TwoBoxes() *lang.Expr {
	return lang.Let("a", lang.NewBox(lang.Num(42)),
		lang.Let("b", lang.NewBox(lang.Ident("a")),
			lang.NewBox(lang.Num(0))))
}

// ReadAfterWrite returns a program which writes 7 to a fresh box and reads it
// back.  It evaluates to 7.
func ReadAfterWrite() *lang.Expr {
	return lang.Let("b", lang.NewBox(lang.Num(1)),
		lang.Seq(
			lang.SetBox(lang.Ident("b"), lang.Num(7)),
			lang.OpenBox(lang.Ident("b"))))
}

// Program is a named example program.  Programs may refer to the
// combinators bound by LoadLibrary.
type Program struct {
	Name string
	Doc  string
	Expr *lang.Expr
}

var catalog = map[string]func() Program{
	"countdown": func() Program {
		return Program{"countdown", "Recurse 100 times, allocating and dropping a box per call.", Countdown(100)}
	},
	"chain": func() Program {
		return Program{"chain", "Build a chain of 11 boxes which all stay reachable.", Chain(10)}
	},
	"factorial": func() Program {
		return Program{"factorial", "Compute 10! with the library's Z and pred.", LibFactorial(10)}
	},
	"counter": func() Program {
		return Program{"counter", "A closure observes a write to a box it captured.", Counter()}
	},
	"two-boxes": func() Program {
		return Program{"two-boxes", "Allocate three boxes, the second referencing the first.", TwoBoxes()}
	},
	"read-after-write": func() Program {
		return Program{"read-after-write", "Write a box and read it back.", ReadAfterWrite()}
	},
}

// Catalog returns every example program, sorted by name.
func Catalog() []Program {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	progs := make([]Program, len(names))
	for i, name := range names {
		progs[i] = catalog[name]()
	}
	return progs
}

// Lookup returns the example program with the given name.
func Lookup(name string) (Program, error) {
	fn, ok := catalog[name]
	if !ok {
		return Program{}, fmt.Errorf("no such program: %s", name)
	}
	return fn(), nil
}

// LoadLibrary binds the library combinators in the root environment of rt:
// Z, pred and neg.
func LoadLibrary(rt *lang.Runtime) error {
	defs := []struct {
		name string
		expr *lang.Expr
	}{
		{"Z", Z()},
		{"pred", Pred()},
		{"neg", Neg()},
	}
	for _, def := range defs {
		v, err := rt.Eval(def.expr)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", def.name, err)
		}
		rt.Define(def.name, v)
	}
	return nil
}
