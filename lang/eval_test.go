// Copyright © 2024 The ELPS authors

package lang_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/luthersystems/boxlang/lang"
	"github.com/luthersystems/boxlang/lang/langlib"
	"github.com/luthersystems/boxlang/langtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	identity := lang.Fun("x", lang.Ident("x"))
	tests := langtest.TestSuite{
		{Name: "number", Expr: lang.Num(3), Result: "3"},
		{Name: "addition", Expr: lang.Add(lang.Num(3), lang.Num(4)), Result: "7"},
		{Name: "multiplication", Expr: lang.Mul(lang.Num(3), lang.Add(lang.Num(1), lang.Num(-5))), Result: "-12"},
		{Name: "if0 zero", Expr: lang.If0(lang.Num(0), lang.Num(1), lang.Num(2)), Result: "1"},
		{Name: "if0 nonzero", Expr: lang.If0(lang.Num(-3), lang.Num(1), lang.Num(2)), Result: "2"},
		{Name: "application", Expr: lang.App(identity, lang.Num(5)), Result: "5"},
		{Name: "let", Expr: lang.Let("x", lang.Num(2), lang.Mul(lang.Ident("x"), lang.Ident("x"))), Result: "4"},
		{Name: "curried", Expr: lang.App(lang.App(lang.Fun("a", lang.Fun("b", lang.Add(lang.Ident("a"), lang.Ident("b")))), lang.Num(1)), lang.Num(2)), Result: "3"},
		{Name: "sequence", Expr: lang.Seq(lang.Num(1), lang.Num(2)), Result: "2"},
		{Name: "box", Expr: lang.OpenBox(lang.NewBox(lang.Num(9))), Result: "9"},
		{Name: "set-box returns value", Expr: lang.SetBox(lang.NewBox(lang.Num(1)), lang.Num(8)), Result: "8"},
		{Name: "read after write", Expr: langlib.ReadAfterWrite(), Result: "7"},
		{Name: "closure observes box", Expr: langlib.Counter(), Result: "27"},
		{Name: "factorial", Expr: langlib.Factorial(5), Result: "120"},
		{Name: "first allocation", Expr: lang.NewBox(lang.Num(0)), Result: "@0"},
	}
	langtest.RunTestSuite(t, tests)
}

func TestEvalErrors(t *testing.T) {
	identity := lang.Fun("x", lang.Ident("x"))
	tests := langtest.TestSuite{
		{Name: "unbound", Expr: lang.Ident("z"), Err: lang.ErrUnboundIdentifier},
		{Name: "add closure", Expr: lang.Add(lang.Num(1), identity), Err: lang.ErrTypeMismatch},
		{Name: "multiply address", Expr: lang.Mul(lang.NewBox(lang.Num(1)), lang.Num(1)), Err: lang.ErrTypeMismatch},
		{Name: "if0 closure", Expr: lang.If0(identity, lang.Num(1), lang.Num(2)), Err: lang.ErrTypeMismatch},
		{Name: "apply number", Expr: lang.App(lang.Num(1), lang.Num(2)), Err: lang.ErrNotCallable},
		{Name: "open number", Expr: lang.OpenBox(lang.Num(3)), Err: lang.ErrNotAnAddress},
		{Name: "set closure", Expr: lang.SetBox(identity, lang.Num(3)), Err: lang.ErrNotAnAddress},
		// Operands are evaluated left to right.
		{Name: "left to right", Expr: lang.Add(lang.Ident("nope"), lang.App(lang.Num(1), lang.Num(1))), Err: lang.ErrUnboundIdentifier},
		{Name: "argument before call", Expr: lang.App(lang.Num(1), lang.Ident("nope")), Err: lang.ErrNotCallable},
		// Scoping is lexical, the caller's bindings are invisible.
		{
			Name: "no dynamic scope",
			Expr: lang.Let("f", lang.Fun("_", lang.Ident("y")), lang.Let("y", lang.Num(1), lang.App(lang.Ident("f"), lang.Num(0)))),
			Err:  lang.ErrUnboundIdentifier,
		},
	}
	langtest.RunTestSuite(t, tests)
}

func TestLexicalScope(t *testing.T) {
	expr := lang.Let("x", lang.Num(1),
		lang.Let("f", lang.Fun("_", lang.Ident("x")),
			lang.Let("x", lang.Num(2),
				lang.App(lang.Ident("f"), lang.Num(0)))))
	v, err := lang.Eval(expr, nil, lang.NewMarkSweepStore(1))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(1), v)
}

func TestMemoryExhaustion(t *testing.T) {
	tests := langtest.TestSuite{
		{Name: "two boxes", Expr: langlib.TwoBoxes(), Capacity: 2, Err: lang.ErrOutOfMemory},
		{Name: "two boxes fit", Expr: langlib.TwoBoxes(), Capacity: 3, Result: "@2"},
		{
			Name:       "countdown collects",
			Expr:       langlib.Countdown(50),
			Capacity:   2,
			Strategies: []lang.Strategy{lang.StrategyMarkSweep},
			Result:     "0",
		},
		{
			Name:       "countdown exhausts",
			Expr:       langlib.Countdown(50),
			Capacity:   2,
			Strategies: []lang.Strategy{lang.StrategyNoGC},
			Err:        lang.ErrOutOfMemory,
		},
		{
			Name:       "live chain fits",
			Expr:       lang.OpenBox(langlib.Chain(5)),
			Capacity:   7,
			Strategies: []lang.Strategy{lang.StrategyMarkSweep},
			Result:     "@5",
		},
		{Name: "live chain too long", Expr: langlib.Chain(5), Capacity: 6, Err: lang.ErrOutOfMemory},
	}
	langtest.RunTestSuite(t, tests)
}

func TestChainSurvivesCollection(t *testing.T) {
	rt := langtest.NewRuntime(t, lang.WithCapacity(7))
	v, err := rt.Eval(langlib.Chain(5))
	require.NoError(t, err)
	require.True(t, v.IsAddress())
	rt.Define("head", v)

	stats, ok := rt.Collect()
	require.True(t, ok)
	// The knot box is garbage once the program returns.
	assert.Equal(t, 1, stats.Freed)
	assert.Equal(t, 6, stats.Live)

	depth := 0
	for cur := v; cur.IsAddress(); cur = rt.Store.Read(cur.Addr) {
		depth++
	}
	assert.Equal(t, 6, depth)
}

func TestSetBoxRootsBox(t *testing.T) {
	// The box being set is only held by the evaluator while the new value
	// is computed, and that computation fills the store.
	expr := lang.SetBox(lang.NewBox(lang.Num(1)),
		lang.Seq(lang.NewBox(lang.Num(2)),
			lang.Seq(lang.NewBox(lang.Num(3)), lang.Num(9))))
	rt := langtest.NewRuntime(t, lang.WithCapacity(2))
	v, err := rt.Eval(expr)
	require.NoError(t, err)
	assert.Equal(t, lang.Number(9), v)

	snap := rt.Store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, lang.Number(9), snap[0].Value)
	assert.Equal(t, lang.Number(3), snap[1].Value)
}

func TestApplicationRootsClosure(t *testing.T) {
	// The closure is only held by the evaluator while its argument is
	// computed, and it is the only path to the box it captured.
	fn := lang.Let("k", lang.NewBox(lang.Num(5)), lang.Fun("_", lang.OpenBox(lang.Ident("k"))))
	arg := lang.Seq(lang.NewBox(lang.Num(0)), lang.Seq(lang.NewBox(lang.Num(0)), lang.Num(1)))
	rt := langtest.NewRuntime(t, lang.WithCapacity(2))
	v, err := rt.Eval(lang.App(fn, arg))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(5), v)
}

func TestCallerFramesAreRoots(t *testing.T) {
	// While the callee runs, the caller's frame holds the only reference to
	// its box.
	callee := lang.Fun("_", lang.Seq(lang.NewBox(lang.Num(0)), lang.Seq(lang.NewBox(lang.Num(0)), lang.Num(0))))
	expr := lang.Let("b", lang.NewBox(lang.Num(11)),
		lang.Seq(lang.App(callee, lang.Num(0)), lang.OpenBox(lang.Ident("b"))))
	rt := langtest.NewRuntime(t, lang.WithCapacity(2))
	v, err := rt.Eval(expr)
	require.NoError(t, err)
	assert.Equal(t, lang.Number(11), v)
}

func TestNonMoving(t *testing.T) {
	rt := langtest.NewRuntime(t, lang.WithCapacity(4))
	v, err := rt.Eval(lang.NewBox(lang.Num(100)))
	require.NoError(t, err)
	rt.Define("keep", v)
	_, err = rt.Eval(langlib.Countdown(20))
	require.NoError(t, err)
	ms := rt.Store.(*lang.MarkSweepStore)
	assert.Greater(t, ms.Cycles(), 0)
	assert.Equal(t, lang.Number(100), rt.Store.Read(v.Addr))

	v2, err := rt.Eval(lang.OpenBox(lang.Ident("keep")))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(100), v2)
}

func TestStackOverflow(t *testing.T) {
	loop := langlib.Rec("f", "n", lang.App(lang.Ident("f"), lang.Ident("n")), lang.App(lang.Ident("f"), lang.Num(0)))
	rt := langtest.NewRuntime(t, lang.WithMaxStackHeight(100))
	_, err := rt.Eval(loop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lang.ErrStackOverflow), "unexpected error: %v", err)

	var lerr *lang.Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 100, lerr.Stack.Height())
	var overflow *lang.StackOverflowError
	assert.True(t, errors.As(err, &overflow))

	// The runtime is usable after a failed evaluation.
	v, err := rt.Eval(lang.Add(lang.Num(1), lang.Num(1)))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(2), v)
	assert.Equal(t, 0, rt.Stack.Height())
}

func TestEvalContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rt := langtest.NewRuntime(t)
	_, err := rt.EvalContext(ctx, langlib.Factorial(3))
	assert.True(t, errors.Is(err, lang.ErrCancelled), "unexpected error: %v", err)
	assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)

	v, err := rt.EvalContext(ctx, lang.Num(4))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(4), v)
}

func TestErrorTrace(t *testing.T) {
	expr := lang.Let("x", lang.Num(1), lang.App(lang.Fun("y", lang.Add(lang.Ident("y"), lang.Ident("missing"))), lang.Num(2)))
	rt := langtest.NewRuntime(t)
	_, err := rt.Eval(expr)
	var lerr *lang.Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, lang.UnboundIdentifier, lerr.Kind)
	assert.Equal(t, "unbound-identifier: missing", lerr.Error())

	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	require.NoError(t, ioerr)
	assert.Equal(t, `unbound-identifier: missing
  in expression: missing
Stack Trace [3 frames -- entrypoint last]:
  height 2: (fun (y) ...) {y=2}
  height 1: (fun (x) ...) {x=1}
  height 0: <entrypoint> {}
`, buf.String())
}

func TestEvalWithEnvironment(t *testing.T) {
	env := lang.NewEnv(map[string]lang.Value{"x": lang.Number(3), "y": lang.Number(4)})
	v, err := lang.Eval(lang.Mul(lang.Ident("x"), lang.Ident("y")), env, lang.NewNoGCStore(1))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(12), v)
}

func TestRuntimeConfig(t *testing.T) {
	_, err := lang.NewRuntime(lang.WithCapacity(0))
	assert.Error(t, err)
	_, err = lang.NewRuntime(lang.WithMaxStackHeight(-1))
	assert.Error(t, err)
	_, err = lang.NewRuntime(lang.WithStrategy(lang.Strategy(7)))
	assert.Error(t, err)

	rt := langtest.NewRuntime(t, lang.WithStrategy(lang.StrategyNoGC), lang.WithCapacity(5))
	assert.Equal(t, lang.StrategyNoGC, rt.Strategy())
	assert.Equal(t, 5, rt.Store.Cap())
	_, ok := rt.Collect()
	assert.False(t, ok)

	store := lang.NewMarkSweepStore(3)
	rt = langtest.NewRuntime(t, lang.WithStore(store), lang.WithGlobals(map[string]lang.Value{"g": lang.Number(8)}))
	assert.Same(t, store, rt.Store)
	v, err := rt.Eval(lang.Ident("g"))
	require.NoError(t, err)
	assert.Equal(t, lang.Number(8), v)
}

func TestRuntimeGCLog(t *testing.T) {
	var buf bytes.Buffer
	rt, err := lang.NewRuntime(lang.WithCapacity(2), lang.WithGCLog(true), lang.WithStderr(&buf))
	require.NoError(t, err)
	_, err = rt.Eval(langlib.Countdown(3))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "gc: cycle 1:")
}

func TestExprString(t *testing.T) {
	expr := lang.Let("b", lang.NewBox(lang.Num(1)), lang.Seq(lang.SetBox(lang.Ident("b"), lang.Add(lang.Num(2), lang.Num(3))), lang.OpenBox(lang.Ident("b"))))
	assert.Equal(t, "((fun (b) (seq (set-box! b (+ 2 3)) (unbox b))) (box 1))", expr.String())
}

type cycleCounter struct {
	started int
	done    int
}

func (c *cycleCounter) StartCycle(lang.CycleInfo) func(lang.GCStats) {
	c.started++
	return func(lang.GCStats) {
		c.done++
	}
}

func TestRuntimeWithStoreCollectorOptions(t *testing.T) {
	var buf bytes.Buffer
	store := lang.NewMarkSweepStore(2)
	obs := &cycleCounter{}
	rt, err := lang.NewRuntime(
		lang.WithStore(store),
		lang.WithGCLog(true),
		lang.WithObserver(obs),
		lang.WithStderr(&buf))
	require.NoError(t, err)
	_, err = rt.Eval(langlib.Countdown(5))
	require.NoError(t, err)

	assert.Equal(t, 4, store.Cycles())
	assert.Equal(t, 4, obs.started)
	assert.Equal(t, 4, obs.done)
	assert.Contains(t, buf.String(), "gc: cycle 1:")
	assert.Contains(t, buf.String(), "gc: cycle 4:")

	// A store which never collects cannot honor collector options.
	_, err = lang.NewRuntime(lang.WithStore(lang.NewNoGCStore(2)), lang.WithGCLog(true))
	assert.Error(t, err)
	_, err = lang.NewRuntime(lang.WithStore(lang.NewNoGCStore(2)), lang.WithObserver(obs))
	assert.Error(t, err)
	_, err = lang.NewRuntime(lang.WithStore(lang.NewNoGCStore(2)))
	assert.NoError(t, err)
}

func TestMarksClearedAfterCollection(t *testing.T) {
	rt := langtest.NewRuntime(t, lang.WithCapacity(4))
	v, err := rt.Eval(langlib.Chain(1))
	require.NoError(t, err)
	rt.Define("chain", v)
	_, err = rt.Eval(langlib.Countdown(20))
	require.NoError(t, err)
	require.Greater(t, rt.Store.(*lang.MarkSweepStore).Cycles(), 0)

	snap := rt.Store.Snapshot()
	require.NotEmpty(t, snap)
	for _, info := range snap {
		assert.False(t, info.Value.Marked(), "slot %v left marked", info.Addr)
	}
}

func TestApplyClosureOverNonFunction(t *testing.T) {
	globals := map[string]lang.Value{
		"num": lang.Closure(lang.Num(1), lang.NewEnv(nil)),
		"nil": lang.Closure(nil, nil),
	}
	for name := range globals {
		rt := langtest.NewRuntime(t, lang.WithGlobals(globals))
		_, err := rt.Eval(lang.App(lang.Ident(name), lang.Num(0)))
		assert.True(t, errors.Is(err, lang.ErrNotCallable), "%s: unexpected error: %v", name, err)
	}
}

func BenchmarkCountdown(b *testing.B) {
	for _, s := range langtest.Strategies {
		s := s
		b.Run(s.String(), func(b *testing.B) {
			langtest.RunBenchmark(b, langlib.Countdown(100), lang.WithStrategy(s), lang.WithCapacity(128))
		})
	}
}

func BenchmarkChain(b *testing.B) {
	for _, s := range langtest.Strategies {
		s := s
		b.Run(s.String(), func(b *testing.B) {
			langtest.RunBenchmark(b, langlib.Chain(50), lang.WithStrategy(s), lang.WithCapacity(64))
		})
	}
}
