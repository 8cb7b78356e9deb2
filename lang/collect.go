// Copyright © 2024 The ELPS authors

package lang

import (
	"sort"
	"time"
)

// GCStats summarizes one collection cycle.
type GCStats struct {
	// Cycle is the 1-based sequence number of the cycle in its store.
	Cycle    int
	Capacity int
	// Roots is the number of slots marked directly from the root set,
	// without passing through another slot.
	Roots int
	// Marked is the number of slots found reachable.
	Marked int
	// Freed is the number of slots reclaimed by the sweep.
	Freed int
	// Live is the number of occupied slots after the sweep.
	Live     int
	Duration time.Duration
}

// CycleInfo describes a collection cycle that is about to run.
type CycleInfo struct {
	Cycle    int
	Capacity int
	Live     int
}

// CollectorObserver is notified around collection cycles.  StartCycle is
// called before marking begins and the returned function is called with the
// cycle's statistics after the sweep.
type CollectorObserver interface {
	StartCycle(info CycleInfo) func(GCStats)
}

// Collect runs a full mark-and-sweep cycle.  Every slot reachable from roots
// or from any of extra survives; every other occupied slot is emptied.
// Collection is stop-the-world, no store operation may run concurrently.
func (s *MarkSweepStore) Collect(roots RootSet, extra ...Value) GCStats {
	s.cycles++
	start := time.Now()
	var done func(GCStats)
	if s.observer != nil {
		done = s.observer.StartCycle(CycleInfo{
			Cycle:    s.cycles,
			Capacity: len(s.slots),
			Live:     len(s.slots) - s.free,
		})
	}

	m := &marker{
		slots: s.slots,
		envs:  make(map[*Env]struct{}),
	}
	if roots != nil {
		roots.EachEnv(m.env)
		roots.EachValue(m.value)
	}
	for _, v := range extra {
		m.value(v)
	}
	m.drainEnvs()
	direct := m.marked
	m.drain()

	freed := s.sweep()

	stats := GCStats{
		Cycle:    s.cycles,
		Capacity: len(s.slots),
		Roots:    direct,
		Marked:   m.marked,
		Freed:    freed,
		Live:     len(s.slots) - s.free,
		Duration: time.Since(start),
	}
	s.last = stats
	if done != nil {
		done(stats)
	}
	if s.logger != nil {
		s.logger.Printf("gc: cycle %d: roots %d, marked %d, freed %d, live %d/%d (%v)",
			stats.Cycle, stats.Roots, stats.Marked, stats.Freed, stats.Live, stats.Capacity, stats.Duration)
	}
	return stats
}

// sweep empties every unmarked slot and clears the mark on every marked one.
func (s *MarkSweepStore) sweep() int {
	freed := 0
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.used {
			continue
		}
		if sl.val.marked {
			sl.val.marked = false
			continue
		}
		*sl = slot{}
		s.free++
		freed++
	}
	return freed
}

// marker computes the set of slots reachable from a root set.  Traversal uses
// explicit work lists so that long chains of environments or boxes cannot
// exhaust the host stack.  Each slot and each environment is expanded at
// most once per cycle.
type marker struct {
	slots  []slot
	envs   map[*Env]struct{}
	addrs  []Address
	frames []*Env
	marked int
}

// value enqueues the addresses embedded in v.
func (m *marker) value(v Value) {
	switch v.Type {
	case VAddr:
		m.addr(v.Addr)
	case VClosure:
		m.env(v.Env)
	}
}

func (m *marker) addr(a Address) {
	if a < 0 || int(a) >= len(m.slots) {
		return
	}
	sl := &m.slots[a]
	if !sl.used || sl.val.marked {
		return
	}
	sl.val.marked = true
	m.marked++
	m.addrs = append(m.addrs, a)
}

// env enqueues every frame of e not yet visited.  Once an environment has
// been seen its parents have been seen as well.
func (m *marker) env(e *Env) {
	for ; e != nil; e = e.Parent {
		if _, ok := m.envs[e]; ok {
			return
		}
		m.envs[e] = struct{}{}
		m.frames = append(m.frames, e)
	}
}

func (m *marker) drainEnvs() {
	for len(m.frames) > 0 {
		e := m.frames[len(m.frames)-1]
		m.frames = m.frames[:len(m.frames)-1]
		e.Frame.Each(func(_ string, v Value) {
			m.value(v)
		})
	}
}

func (m *marker) drain() {
	for len(m.addrs) > 0 || len(m.frames) > 0 {
		m.drainEnvs()
		if len(m.addrs) == 0 {
			continue
		}
		a := m.addrs[len(m.addrs)-1]
		m.addrs = m.addrs[:len(m.addrs)-1]
		m.value(m.slots[a].val)
	}
}

// AddressesIn returns the addresses directly embedded in v, in ascending
// order: the address itself for an address value and, for a closure, the
// addresses embedded in every value bound in every frame of its environment,
// following closures found along the way.  Numbers embed no addresses.
func AddressesIn(v Value) []Address {
	m := &marker{
		envs: make(map[*Env]struct{}),
	}
	seen := make(map[Address]struct{})
	var addrs []Address
	visit := func(v Value) {
		switch v.Type {
		case VAddr:
			if _, ok := seen[v.Addr]; !ok {
				seen[v.Addr] = struct{}{}
				addrs = append(addrs, v.Addr)
			}
		case VClosure:
			m.env(v.Env)
		}
	}
	visit(v)
	for len(m.frames) > 0 {
		e := m.frames[len(m.frames)-1]
		m.frames = m.frames[:len(m.frames)-1]
		e.Frame.Each(func(_ string, v Value) {
			visit(v)
		})
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
