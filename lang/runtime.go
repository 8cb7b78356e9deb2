// Copyright © 2024 The ELPS authors

package lang

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// DefaultCapacity is the store capacity used when a Runtime is not
// configured with WithCapacity.
const DefaultCapacity = 1024

// Runtime owns a store, the root environment and the call stack used to
// evaluate expressions against them.  Calls to Eval are serialized so that a
// collection never observes a store being mutated by another evaluation.
type Runtime struct {
	Store   Store
	Globals *Env
	Stack   *CallStack
	Stderr  io.Writer
	Logger  *log.Logger

	capacity int
	strategy Strategy
	maxStack int
	gcLog    bool
	observer CollectorObserver
	mu       sync.Mutex
}

// NewRuntime returns a Runtime configured by configs.  Unless WithStore is
// given a new store is created with the configured strategy and capacity.
// Collector options apply to a store given with WithStore as well, and are an
// error when that store does not collect.
func NewRuntime(configs ...Config) (*Runtime, error) {
	rt := &Runtime{
		Stderr:   os.Stderr,
		capacity: DefaultCapacity,
		strategy: StrategyMarkSweep,
		maxStack: DefaultMaxStackHeight,
	}
	for _, config := range configs {
		err := config(rt)
		if err != nil {
			return nil, err
		}
	}
	rt.Logger = log.New(rt.Stderr, "", 0)
	var opts []StoreOption
	if rt.observer != nil {
		opts = append(opts, WithCollectorObserver(rt.observer))
	}
	if rt.gcLog {
		opts = append(opts, WithCollectorLog(rt.Logger))
	}
	switch s := rt.Store.(type) {
	case nil:
		store, err := NewStore(rt.strategy, rt.capacity, opts...)
		if err != nil {
			return nil, err
		}
		rt.Store = store
	case *MarkSweepStore:
		s.Configure(opts...)
	default:
		if len(opts) > 0 {
			return nil, fmt.Errorf("store %T does not collect: collector observer and log options are not supported", s)
		}
	}
	if rt.Globals == nil {
		rt.Globals = NewEnv(nil)
	}
	rt.Stack = &CallStack{MaxHeight: rt.maxStack}
	return rt, nil
}

// Strategy returns the strategy the runtime's store was created with.
func (rt *Runtime) Strategy() Strategy {
	switch rt.Store.(type) {
	case *NoGCStore:
		return StrategyNoGC
	case *MarkSweepStore:
		return StrategyMarkSweep
	}
	return rt.strategy
}

// Define binds name to v in a new frame on top of the root environment.
// Values defined this way stay reachable across evaluations.
func (rt *Runtime) Define(name string, v Value) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Globals = rt.Globals.Bind(name, v)
}

// Eval evaluates expr in the root environment.
func (rt *Runtime) Eval(expr *Expr) (Value, error) {
	return rt.EvalContext(context.Background(), expr)
}

// EvalContext evaluates expr in the root environment.  If ctx is done before
// evaluation completes a Cancelled error is returned.
func (rt *Runtime) EvalContext(ctx context.Context, expr *Expr) (Value, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.Stack.Frames = rt.Stack.Frames[:0]
	defer func() {
		rt.Stack.Frames = rt.Stack.Frames[:0]
	}()
	ev := &evaluator{
		store: rt.Store,
		stack: rt.Stack,
		ctx:   ctx,
	}
	return ev.run(expr, rt.Globals)
}

// Collect forces a collection cycle on a mark-and-sweep store using the root
// environment as the root set.  It returns false if the store does not
// collect.
func (rt *Runtime) Collect() (GCStats, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	ms, ok := rt.Store.(*MarkSweepStore)
	if !ok {
		return GCStats{}, false
	}
	return ms.Collect(rt.Globals), true
}
