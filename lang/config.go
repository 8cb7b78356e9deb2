// Copyright © 2024 The ELPS authors

package lang

import (
	"fmt"
	"io"
)

// Config is a function that configures a Runtime before its store is
// created.
type Config func(rt *Runtime) error

// WithCapacity returns a Config that sets the number of slots in the
// runtime's store.  The capacity must be positive.
func WithCapacity(n int) Config {
	return func(rt *Runtime) error {
		if n <= 0 {
			return fmt.Errorf("store capacity must be positive: %d", n)
		}
		rt.capacity = n
		return nil
	}
}

// WithStrategy returns a Config that selects the store implementation.  The
// strategy only affects how memory exhaustion is handled.
func WithStrategy(s Strategy) Config {
	return func(rt *Runtime) error {
		if s >= Strategy(len(strategyStrings)) {
			return fmt.Errorf("unknown store strategy: %v", s)
		}
		rt.strategy = s
		return nil
	}
}

// WithStore returns a Config that makes the runtime use s instead of
// creating a store from its capacity and strategy.
func WithStore(s Store) Config {
	return func(rt *Runtime) error {
		rt.Store = s
		return nil
	}
}

// WithMaxStackHeight returns a Config that will prevent evaluation from
// nesting more than n calls.  A value of 0 removes the limit.
func WithMaxStackHeight(n int) Config {
	return func(rt *Runtime) error {
		if n < 0 {
			return fmt.Errorf("maximum stack height must not be negative: %d", n)
		}
		rt.maxStack = n
		return nil
	}
}

// WithStderr returns a Config that makes the runtime write diagnostic output
// to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stderr = w
		return nil
	}
}

// WithGCLog returns a Config that makes a mark-and-sweep store log a summary
// of each collection cycle to the runtime's Stderr.
func WithGCLog(enabled bool) Config {
	return func(rt *Runtime) error {
		rt.gcLog = enabled
		return nil
	}
}

// WithObserver returns a Config that attaches a collector observer to a
// mark-and-sweep store.
func WithObserver(o CollectorObserver) Config {
	return func(rt *Runtime) error {
		rt.observer = o
		return nil
	}
}

// WithGlobals returns a Config that binds the given names in the root
// environment of every evaluation.
func WithGlobals(bindings map[string]Value) Config {
	return func(rt *Runtime) error {
		rt.Globals = NewEnv(bindings)
		return nil
	}
}
