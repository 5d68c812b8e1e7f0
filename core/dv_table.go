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

// DVState is the lifecycle state of a DV entry.
type DVState int

// DV entry states.
const (
	DVActive DVState = iota + 1
	DVBackup
	DVWithdrawn
)

func (s DVState) String() string {
	switch s {
	case DVActive:
		return "Active"
	case DVBackup:
		return "Backup"
	case DVWithdrawn:
		return "Withdrawn"
	default:
		return "?"
	}
}

// DVClass is the outcome of classifying an incoming advertisement
// record against the existing DV table, without mutating anything —
// kept separate from the refresh side effect the original folded in.
type DVClass int

// Classification outcomes for Classify.
const (
	DVAbsent DVClass = iota
	DVPresent
	DVUpdate
	DVIsBackup
)

// DVEntry is one route known via distance-vector advertisements.
type DVEntry struct {
	Dest              Address
	NextHop           Address
	Metric            int
	PrefixLen         int
	State             DVState
	TTL               int
	InForwardingTable bool
	FwHandle          FwHandle
	Valid             bool
}

type dvKey struct {
	dest, nextHop Address
}

// DVTable holds every known DV route, keyed by (dest, next_hop) so
// that an Active route and its Backups for the same destination
// coexist. It mutates a ForwardingTable to keep the best route per
// destination installed.
type DVTable struct {
	self     Address
	entries  map[dvKey]*DVEntry
	byDest   map[Address][]*DVEntry
	fw       *ForwardingTable
	listener Listener
}

// NewDVTable creates a DV table bound to self's own address and the
// forwarding table it keeps consistent.
func NewDVTable(self Address, fw *ForwardingTable) *DVTable {
	return &DVTable{
		self:    self,
		entries: make(map[dvKey]*DVEntry),
		byDest:  make(map[Address][]*DVEntry),
		fw:      fw,
	}
}

// SetListener registers an event listener.
func (t *DVTable) SetListener(l Listener) {
	t.listener = l
}

func (t *DVTable) notify(ev int, peer, ref Address, val int) {
	if t.listener != nil {
		t.listener(&Event{Type: ev, Peer: peer, Ref: ref, Val: val})
	}
}

// effectiveMetric clamps an advertised hop count plus the local hop
// into the sentinel range.
func effectiveMetric(m uint32) int {
	if m >= MaxTTL {
		return MaxTTL
	}
	return int(m) + 1
}

// Classify reports how a (dest, next_hop, metric) triplet relates to
// what the table already knows. A destination equal to self always
// classifies PRESENT: a route to ourselves is never recorded.
func (t *DVTable) Classify(dest, nextHop Address, metric int) DVClass {
	if dest == t.self {
		return DVPresent
	}
	if e, ok := t.entries[dvKey{dest, nextHop}]; ok && e.Valid {
		if e.Metric == metric {
			return DVPresent
		}
		return DVUpdate
	}
	for _, o := range t.byDest[dest] {
		if o.Valid {
			return DVIsBackup
		}
	}
	return DVAbsent
}

// Refresh resets the ttl of an existing (dest, next_hop) entry to the
// configured lifetime, as a standalone action separate from
// classification.
func (t *DVTable) Refresh(dest, nextHop Address) {
	if e, ok := t.entries[dvKey{dest, nextHop}]; ok && e.Valid {
		e.TTL = cfg.DVEntryTTL
	}
}

// Active returns the Active entry for dest, if any.
func (t *DVTable) Active(dest Address) (*DVEntry, bool) {
	for _, e := range t.byDest[dest] {
		if e.Valid && e.State == DVActive {
			return e, true
		}
	}
	return nil, false
}

func (t *DVTable) addEntry(e *DVEntry) {
	t.entries[dvKey{e.Dest, e.NextHop}] = e
	t.byDest[e.Dest] = append(t.byDest[e.Dest], e)
}

// installForwarding adds a DV-type forwarding entry whose displayed
// metric equals finalMetric, accounting for Add's unconditional +1.
func (t *DVTable) installForwarding(e *DVEntry, prefixLen int, finalMetric int) {
	h := t.fw.Add(e.Dest, prefixLen, e.NextHop, finalMetric-1, TypeDV, e)
	e.FwHandle = h
	e.InForwardingTable = true
}

func (t *DVTable) removeForwarding(e *DVEntry) {
	if e.InForwardingTable {
		t.fw.Remove(e.FwHandle)
		e.InForwardingTable = false
		e.FwHandle = FwHandle{}
		t.notify(EvForwardRemoved, e.Dest, e.NextHop, 0)
	}
}

// Learn processes one advertisement record received from neighbor src,
// applying §4.4's ABSENT/PRESENT/UPDATE/BACKUP rules.
func (t *DVTable) Learn(src Address, adv DVAdv) {
	if adv.Dest == t.self {
		return
	}
	metric := effectiveMetric(adv.Metric)
	class := t.Classify(adv.Dest, src, metric)

	switch class {
	case DVPresent:
		t.Refresh(adv.Dest, src)

	case DVAbsent:
		if adv.Metric >= MaxTTL {
			// do not learn a route already withdrawn by its source
			return
		}
		prefixLen := FindPrefixLength(adv.Netmask)
		e := &DVEntry{
			Dest: adv.Dest, NextHop: src, Metric: metric, PrefixLen: prefixLen,
			State: DVActive, TTL: cfg.DVEntryTTL, Valid: true,
		}
		t.addEntry(e)
		if _, ok := t.fwEntryFor(adv.Dest); !ok {
			t.installForwarding(e, prefixLen, int(adv.Metric))
		}
		t.notify(EvDVLearned, adv.Dest, src, e.Metric)

	case DVUpdate:
		e := t.entries[dvKey{adv.Dest, src}]
		e.TTL = cfg.DVEntryTTL
		e.Metric = metric
		if metric >= MaxTTL {
			t.withdraw(e)
		} else if e.State == DVActive && e.InForwardingTable {
			t.fw.UpdateMetric(e.FwHandle, metric-1)
		}

	case DVIsBackup:
		e := &DVEntry{
			Dest: adv.Dest, NextHop: src, Metric: metric, PrefixLen: FindPrefixLength(adv.Netmask),
			State: DVBackup, TTL: cfg.DVEntryTTL, Valid: true,
		}
		t.addEntry(e)
	}
}

// fwEntryFor reports whether some valid DV entry for dest is already
// installed in the forwarding table.
func (t *DVTable) fwEntryFor(dest Address) (*DVEntry, bool) {
	for _, e := range t.byDest[dest] {
		if e.Valid && e.InForwardingTable {
			return e, true
		}
	}
	return nil, false
}

// withdraw transitions e to Withdrawn and, if it held the forwarding
// slot for its destination, performs replacement.
func (t *DVTable) withdraw(e *DVEntry) {
	e.State = DVWithdrawn
	e.Metric = MaxTTL
	wasInTable := e.InForwardingTable
	t.notify(EvDVWithdrawn, e.Dest, e.NextHop, 0)
	if wasInTable {
		t.replace(e, MaxTTL)
	}
}

// replace implements "replacement on Active loss": remove lost's
// forwarding entry, then promote the Backup with the smallest metric
// strictly less than currentMetric, if any.
func (t *DVTable) replace(lost *DVEntry, currentMetric int) {
	t.removeForwarding(lost)

	var best *DVEntry
	for _, e := range t.byDest[lost.Dest] {
		if !e.Valid || e.State != DVBackup {
			continue
		}
		if e.Metric < currentMetric && (best == nil || e.Metric < best.Metric) {
			best = e
		}
	}
	if best == nil {
		lost.Valid = false
		return
	}
	best.State = DVActive
	t.installForwarding(best, best.PrefixLen, best.Metric-1)
	t.notify(EvDVPromoted, best.Dest, best.NextHop, best.Metric)
	// lost stays Withdrawn, pending its own ttl-driven final removal.
}

// AgeTick decrements ttl on every valid entry by one second, applying
// Active/Backup→Withdrawn and Withdrawn→invalidated transitions.
func (t *DVTable) AgeTick() {
	for dest, list := range t.byDest {
		keep := list[:0]
		for _, e := range list {
			if !e.Valid {
				continue
			}
			e.TTL--
			if e.TTL <= 0 {
				switch e.State {
				case DVActive, DVBackup:
					wasActive := e.State == DVActive
					e.State = DVWithdrawn
					e.Metric = MaxTTL
					e.TTL = cfg.DVEntryTTL
					t.notify(EvDVWithdrawn, e.Dest, e.NextHop, 0)
					if wasActive && e.InForwardingTable {
						t.replace(e, MaxTTL)
					}
				case DVWithdrawn:
					delete(t.entries, dvKey{e.Dest, e.NextHop})
					continue // drop from byDest too
				}
			}
			keep = append(keep, e)
		}
		if len(keep) == 0 {
			delete(t.byDest, dest)
		} else {
			t.byDest[dest] = keep
		}
	}
}

// AddNeighborRoute installs the DV entry a freshly confirmed neighbor
// always owns: dest=next_hop=neigh, metric=1 (stored as 0 pre-bump,
// matching the forwarding table's own +1-on-insert).
func (t *DVTable) AddNeighborRoute(neigh Address) {
	k := dvKey{neigh, neigh}
	if e, ok := t.entries[k]; ok && e.Valid {
		e.TTL = cfg.DVEntryTTL
		return
	}
	e := &DVEntry{
		Dest: neigh, NextHop: neigh, Metric: 1, PrefixLen: 32,
		State: DVActive, TTL: cfg.DVEntryTTL, Valid: true,
	}
	t.addEntry(e)
	h := t.fw.Add(neigh, 32, neigh, 0, TypeNeighbor, e)
	e.FwHandle = h
	e.InForwardingTable = true
}

// Advertisements builds the full periodic advertisement addressed to
// neighbor n: every Active entry, split-horizon/poison-reverse applied
// (the route learned through n itself is advertised as unreachable).
func (t *DVTable) Advertisements(n Address) []DVAdv {
	var out []DVAdv
	for _, list := range t.byDest {
		for _, e := range list {
			if !e.Valid || e.State != DVActive {
				continue
			}
			m := uint32(e.Metric)
			if e.NextHop == n {
				m = MaxTTL
			}
			out = append(out, DVAdv{Dest: e.Dest, Netmask: Broadcast, Metric: m})
			if len(out) >= cfg.MaxAdvInPacket {
				return out
			}
		}
	}
	return out
}
