// Copyright © 2024 The ELPS authors

package lang

import (
	"fmt"
	"log"
)

// StoreOption configures a MarkSweepStore.
type StoreOption func(*MarkSweepStore)

// WithCollectorObserver returns a StoreOption that notifies o around every
// collection cycle.
func WithCollectorObserver(o CollectorObserver) StoreOption {
	return func(s *MarkSweepStore) {
		s.observer = o
	}
}

// WithCollectorLog returns a StoreOption that writes a summary line to l
// after every collection cycle.
func WithCollectorLog(l *log.Logger) StoreOption {
	return func(s *MarkSweepStore) {
		s.logger = l
	}
}

type slot struct {
	val  Value
	used bool
}

// MarkSweepStore is a fixed capacity store which runs a mark-and-sweep
// collection when an allocation finds no free slot.  Slots are found by a
// first-fit scan which starts at a cursor following the most recent
// allocation and wraps around.  Live slots are never moved.
type MarkSweepStore struct {
	slots    []slot
	free     int
	cursor   int
	cycles   int
	last     GCStats
	observer CollectorObserver
	logger   *log.Logger
}

var _ Store = (*MarkSweepStore)(nil)

// NewMarkSweepStore returns an empty MarkSweepStore with capacity slots.
func NewMarkSweepStore(capacity int, opts ...StoreOption) *MarkSweepStore {
	s := &MarkSweepStore{
		slots: make([]slot, capacity),
		free:  capacity,
	}
	s.Configure(opts...)
	return s
}

// Configure applies opts to an existing store.
func (s *MarkSweepStore) Configure(opts ...StoreOption) {
	for _, opt := range opts {
		opt(s)
	}
}

// Alloc implements Store.  When the store is full a collection cycle runs
// with roots and v treated as live.
func (s *MarkSweepStore) Alloc(roots RootSet, v Value) (Address, error) {
	if s.free == 0 {
		s.Collect(roots, v)
	}
	if s.free == 0 {
		return 0, errorf(OutOfMemory, "store exhausted: %d live slots after collection", len(s.slots))
	}
	n := len(s.slots)
	for i := 0; i < n; i++ {
		idx := (s.cursor + i) % n
		if s.slots[idx].used {
			continue
		}
		v.marked = false
		s.slots[idx] = slot{val: v, used: true}
		s.free--
		s.cursor = (idx + 1) % n
		return Address(idx), nil
	}
	// The free count says a slot is empty.
	panic(fmt.Sprintf("no empty slot found with free count %d", s.free))
}

// Write implements Store.
func (s *MarkSweepStore) Write(a Address, v Value) {
	s.check(a)
	v.marked = false
	s.slots[a].val = v
}

// Read implements Store.
func (s *MarkSweepStore) Read(a Address) Value {
	s.check(a)
	return s.slots[a].val
}

func (s *MarkSweepStore) check(a Address) {
	if a < 0 || int(a) >= len(s.slots) {
		panic(fmt.Sprintf("address %v out of range", a))
	}
	if !s.slots[a].used {
		panic(fmt.Sprintf("address %v refers to an empty slot", a))
	}
}

// Cap implements Store.
func (s *MarkSweepStore) Cap() int {
	return len(s.slots)
}

// Free returns the number of empty slots.
func (s *MarkSweepStore) Free() int {
	return s.free
}

// Live returns the number of occupied slots.
func (s *MarkSweepStore) Live() int {
	return len(s.slots) - s.free
}

// Cycles returns the number of collection cycles run so far.
func (s *MarkSweepStore) Cycles() int {
	return s.cycles
}

// LastCycle returns statistics for the most recent collection cycle.
func (s *MarkSweepStore) LastCycle() GCStats {
	return s.last
}

// Place puts v in the slot at a, which must be empty, without running a
// collection.  Place lets callers build a heap with a known layout.
func (s *MarkSweepStore) Place(a Address, v Value) {
	if a < 0 || int(a) >= len(s.slots) {
		panic(fmt.Sprintf("address %v out of range", a))
	}
	if s.slots[a].used {
		panic(fmt.Sprintf("address %v is already in use", a))
	}
	v.marked = false
	s.slots[a] = slot{val: v, used: true}
	s.free--
}

// Snapshot implements Store.
func (s *MarkSweepStore) Snapshot() []SlotInfo {
	info := make([]SlotInfo, 0, len(s.slots)-s.free)
	for i := range s.slots {
		if s.slots[i].used {
			info = append(info, SlotInfo{Addr: Address(i), Value: s.slots[i].val})
		}
	}
	return info
}
