// Copyright © 2024 The ELPS authors

package lang

import (
	"fmt"
	"strings"
)

// Store is an address-indexed heap of boxes.
//
// Alloc places v in an unused slot and returns its address.  The roots are
// every value the running program can still reach other than v itself; a
// store that reclaims memory must not reclaim anything reachable from roots
// or from v.  Write and Read operate on addresses previously returned by
// Alloc.  Using any other address is a programming error and panics.
type Store interface {
	Alloc(roots RootSet, v Value) (Address, error)
	Write(a Address, v Value)
	Read(a Address) Value
	// Cap returns the number of slots in the store.
	Cap() int
	// Snapshot returns the occupied slots in address order.
	Snapshot() []SlotInfo
}

// SlotInfo describes one occupied store slot.
type SlotInfo struct {
	Addr  Address
	Value Value
}

// Strategy selects a Store implementation.
type Strategy uint

// Strategy constants.
const (
	// StrategyMarkSweep selects MarkSweepStore.
	StrategyMarkSweep Strategy = iota
	// StrategyNoGC selects NoGCStore.
	StrategyNoGC
)

var strategyStrings = []string{
	StrategyMarkSweep: "marksweep",
	StrategyNoGC:      "nogc",
}

func (s Strategy) String() string {
	if s >= Strategy(len(strategyStrings)) {
		return "invalid-strategy"
	}
	return strategyStrings[s]
}

// ParseStrategy returns the Strategy named by s.  Names are case
// insensitive.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "marksweep", "mark-sweep", "gc":
		return StrategyMarkSweep, nil
	case "nogc", "no-gc", "bump":
		return StrategyNoGC, nil
	}
	return 0, fmt.Errorf("unknown store strategy: %q", s)
}

// NewStore returns an empty store of the given strategy and capacity.
func NewStore(strategy Strategy, capacity int, opts ...StoreOption) (Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("store capacity must be positive: %d", capacity)
	}
	switch strategy {
	case StrategyMarkSweep:
		return NewMarkSweepStore(capacity, opts...), nil
	case StrategyNoGC:
		return NewNoGCStore(capacity), nil
	}
	return nil, fmt.Errorf("unknown store strategy: %v", strategy)
}

// NoGCStore is a bump allocator that never reclaims a slot.  Allocation fails
// once every slot has been handed out.
type NoGCStore struct {
	slots []Value
	next  int
}

var _ Store = (*NoGCStore)(nil)

// NewNoGCStore returns an empty NoGCStore with capacity slots.
func NewNoGCStore(capacity int) *NoGCStore {
	return &NoGCStore{
		slots: make([]Value, capacity),
	}
}

// Alloc implements Store.  Addresses are handed out in strictly increasing
// order.  The roots are ignored.
func (s *NoGCStore) Alloc(roots RootSet, v Value) (Address, error) {
	if s.next >= len(s.slots) {
		return 0, errorf(OutOfMemory, "store exhausted: %d of %d slots in use", s.next, len(s.slots))
	}
	a := Address(s.next)
	s.slots[a] = v
	s.slots[a].marked = false
	s.next++
	return a, nil
}

// Write implements Store.
func (s *NoGCStore) Write(a Address, v Value) {
	s.check(a)
	v.marked = false
	s.slots[a] = v
}

// Read implements Store.
func (s *NoGCStore) Read(a Address) Value {
	s.check(a)
	return s.slots[a]
}

func (s *NoGCStore) check(a Address) {
	if a < 0 || int(a) >= s.next {
		panic(fmt.Sprintf("address %v was never allocated", a))
	}
}

// Cap implements Store.
func (s *NoGCStore) Cap() int {
	return len(s.slots)
}

// Len returns the number of allocated slots.
func (s *NoGCStore) Len() int {
	return s.next
}

// Snapshot implements Store.
func (s *NoGCStore) Snapshot() []SlotInfo {
	info := make([]SlotInfo, s.next)
	for i := 0; i < s.next; i++ {
		info[i] = SlotInfo{Addr: Address(i), Value: s.slots[i]}
	}
	return info
}
