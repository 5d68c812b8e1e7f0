//----------------------------------------------------------------------
// This file is part of leatea-routing.
// Copyright (C) 2022 Bernd Fix >Y<
//
// leatea-routing is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// leatea-routing is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package core

// FwHandle is a stable, opaque reference to a forwarding-table entry.
// It stays valid for the entry's lifetime; using it after Remove is a
// programming error detected by the generation check.
type FwHandle struct {
	index int
	gen   uint32
}

// zero reports whether h is the unset handle.
func (h FwHandle) zero() bool {
	return h.gen == 0
}

// fwSlot is one slot in the flat forwarding-table array.
type fwSlot struct {
	valid      bool
	gen        uint32
	dest       Address
	prefixLen  int
	nextHop    Address
	metric     int
	typ        EntryType
	best       bool
	backRef    any // opaque back-reference, e.g. the owning *DVEntry
}

// ForwardingTable is a growable array of routes, scanned linearly for
// longest-prefix-match. A flat array is deliberately preferred over a
// trie: fishnet tables stay in the hundreds of entries and every send
// can afford one full scan.
type ForwardingTable struct {
	slots []fwSlot
	free  []int // indices of invalid slots, reusable before growing
}

// NewForwardingTable creates a table with the configured initial
// capacity.
func NewForwardingTable() *ForwardingTable {
	return &ForwardingTable{
		slots: make([]fwSlot, 0, cfg.FwTableInitCap),
	}
}

// Add inserts a route into the first invalid slot, growing the backing
// array (by doubling) when none is free. The stored metric is
// metric+1: the hop cost of this node is always added on insert, even
// for Connected/Broadcast entries.
func (t *ForwardingTable) Add(dest Address, prefixLen int, nextHop Address, metric int, typ EntryType, backRef any) FwHandle {
	s := fwSlot{
		valid:     true,
		dest:      dest,
		prefixLen: prefixLen,
		nextHop:   nextHop,
		metric:    metric + 1,
		typ:       typ,
		backRef:   backRef,
	}
	if n := len(t.free); n > 0 {
		j := 0
		for k := 1; k < n; k++ {
			if t.free[k] < t.free[j] {
				j = k
			}
		}
		idx := t.free[j]
		t.free = append(t.free[:j], t.free[j+1:]...)
		s.gen = t.slots[idx].gen + 1
		t.slots[idx] = s
		return FwHandle{index: idx, gen: s.gen}
	}
	if len(t.slots) == cap(t.slots) && cap(t.slots) > 0 {
		grown := make([]fwSlot, len(t.slots), cap(t.slots)*2)
		copy(grown, t.slots)
		t.slots = grown
	}
	s.gen = 1
	t.slots = append(t.slots, s)
	return FwHandle{index: len(t.slots) - 1, gen: s.gen}
}

// Remove invalidates the entry referenced by h, freeing its slot for
// reuse, and returns its back-reference. A zero or stale handle is a
// no-op returning nil.
func (t *ForwardingTable) Remove(h FwHandle) any {
	if h.zero() || h.index >= len(t.slots) {
		return nil
	}
	s := &t.slots[h.index]
	if !s.valid || s.gen != h.gen {
		return nil
	}
	backRef := s.backRef
	*s = fwSlot{gen: s.gen}
	t.free = append(t.free, h.index)
	return backRef
}

// UpdateMetric overwrites the metric of the entry referenced by h. It
// is a no-op on a zero handle and fails (returns false) on a stale one.
func (t *ForwardingTable) UpdateMetric(h FwHandle, newMetric int) bool {
	if h.zero() {
		return false
	}
	if h.index >= len(t.slots) {
		return false
	}
	s := &t.slots[h.index]
	if !s.valid || s.gen != h.gen {
		return false
	}
	s.metric = newMetric
	return true
}

// SetBest marks/unmarks the entry referenced by h as the best route to
// its destination.
func (t *ForwardingTable) SetBest(h FwHandle, best bool) {
	if h.zero() || h.index >= len(t.slots) {
		return
	}
	s := &t.slots[h.index]
	if s.valid && s.gen == h.gen {
		s.best = best
	}
}

// Entry is a read-only snapshot of a forwarding-table entry.
type Entry struct {
	Handle    FwHandle
	Dest      Address
	PrefixLen int
	NextHop   Address
	Metric    int
	Type      EntryType
	Best      bool
	BackRef   any
}

// Get returns a snapshot of the entry referenced by h.
func (t *ForwardingTable) Get(h FwHandle) (Entry, bool) {
	if h.zero() || h.index >= len(t.slots) {
		return Entry{}, false
	}
	s := &t.slots[h.index]
	if !s.valid || s.gen != h.gen {
		return Entry{}, false
	}
	return t.snapshot(h.index), true
}

func (t *ForwardingTable) snapshot(idx int) Entry {
	s := &t.slots[idx]
	return Entry{
		Handle:    FwHandle{index: idx, gen: s.gen},
		Dest:      s.dest,
		PrefixLen: s.prefixLen,
		NextHop:   s.nextHop,
		Metric:    s.metric,
		Type:      s.typ,
		Best:      s.best,
		BackRef:   s.backRef,
	}
}

// LongestPrefixMatch scans all valid entries and returns the next hop
// of the entry with the greatest prefix length matching addr, breaking
// ties by smallest metric. It returns the zero address if no entry
// matches.
func (t *ForwardingTable) LongestPrefixMatch(addr Address) Address {
	bestPrefix := -1
	bestMetric := 0
	var nextHop Address
	found := false
	for i := range t.slots {
		s := &t.slots[i]
		if !s.valid {
			continue
		}
		mask := MaskLen(s.prefixLen)
		if (addr & mask) != (s.dest & mask) {
			continue
		}
		switch {
		case s.prefixLen > bestPrefix,
			s.prefixLen == bestPrefix && s.metric < bestMetric:
			bestPrefix = s.prefixLen
			bestMetric = s.metric
			nextHop = s.nextHop
			found = true
		}
	}
	if !found {
		return 0
	}
	return nextHop
}

// Iterate returns a range-over-func sequence of every valid entry of
// the requested type (or every valid entry if typ is 0). The visitor
// may call Remove on the yielded handle from within the loop body;
// handles are snapshotted before the body runs so that is safe.
func (t *ForwardingTable) Iterate(typ EntryType) func(func(Entry) bool) {
	handles := make([]int, 0, len(t.slots))
	for i := range t.slots {
		if t.slots[i].valid && (typ == 0 || t.slots[i].typ == typ) {
			handles = append(handles, i)
		}
	}
	return func(yield func(Entry) bool) {
		for _, idx := range handles {
			s := &t.slots[idx]
			if !s.valid {
				continue // removed by the visitor during this pass
			}
			if !yield(t.snapshot(idx)) {
				return
			}
		}
	}
}

// Len returns the number of valid entries.
func (t *ForwardingTable) Len() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].valid {
			n++
		}
	}
	return n
}
