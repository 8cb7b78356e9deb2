// Copyright © 2024 The ELPS authors

// Package langtest runs expression programs in tests, against every store
// strategy.
package langtest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/luthersystems/boxlang/lang"
)

// Strategies lists every store strategy.
var Strategies = []lang.Strategy{lang.StrategyMarkSweep, lang.StrategyNoGC}

// NewRuntime returns a runtime which logs to t.  The logger is flushed when
// the test completes.
func NewRuntime(t testing.TB, configs ...lang.Config) *lang.Runtime {
	t.Helper()
	logger := NewLogger(t)
	t.Cleanup(logger.Flush)
	configs = append([]lang.Config{lang.WithStderr(logger)}, configs...)
	rt, err := lang.NewRuntime(configs...)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	return rt
}

// TestCase is a program with its expected outcome.
type TestCase struct {
	Name string
	Expr *lang.Expr
	// Capacity is the store capacity.  Zero means lang.DefaultCapacity.
	Capacity int
	// Strategies restricts the stores the case runs against.  Nil means
	// every strategy.
	Strategies []lang.Strategy
	// Result is the expected printed value when Err is nil.
	Result string
	// Err is the expected error, compared with errors.Is.
	Err error
}

// TestSuite is a set of TestCases
type TestSuite []TestCase

// RunTestSuite runs each TestCase on an isolated runtime for each of its
// strategies.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for _, test := range tests {
		test := test
		strategies := test.Strategies
		if strategies == nil {
			strategies = Strategies
		}
		for _, s := range strategies {
			s := s
			t.Run(test.Name+"/"+s.String(), func(t *testing.T) {
				configs := []lang.Config{lang.WithStrategy(s)}
				if test.Capacity > 0 {
					configs = append(configs, lang.WithCapacity(test.Capacity))
				}
				rt := NewRuntime(t, configs...)
				v, err := rt.Eval(test.Expr)
				if test.Err != nil {
					if !errors.Is(err, test.Err) {
						t.Errorf("expected error %v (got value %v, error %v)", test.Err, v, err)
					}
					return
				}
				if err != nil {
					LangError(t, err)
					return
				}
				if v.String() != test.Result {
					t.Errorf("expected result %s (got %s)", test.Result, v)
				}
			})
		}
	}
}

// LangError reports err, with a stack trace when it is a *lang.Error.
func LangError(t testing.TB, err error) {
	t.Helper()
	var lerr *lang.Error
	if !errors.As(err, &lerr) {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// RunBenchmark evaluates expr b.N times, each on a fresh runtime.
func RunBenchmark(b *testing.B, expr *lang.Expr, configs ...lang.Config) {
	b.StopTimer()
	for i := 0; i < b.N; i++ {
		rt, err := lang.NewRuntime(configs...)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		_, err = rt.Eval(expr)
		b.StopTimer()
		if err != nil {
			b.Fatal(err)
		}
	}
}
