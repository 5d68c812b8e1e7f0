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

// NeighborEntry records a one-hop reachable node.
type NeighborEntry struct {
	Addr  Address
	TTL   int
	Valid bool
}

// NeighborTable holds the set of currently reachable one-hop nodes,
// refreshed by the neighbor protocol and aged by a 1-second tick.
type NeighborTable struct {
	entries map[Address]*NeighborEntry
}

// NewNeighborTable creates an empty neighbor table.
func NewNeighborTable() *NeighborTable {
	return &NeighborTable{entries: make(map[Address]*NeighborEntry)}
}

// Refresh records a sighting of addr: refreshing ttl if already known,
// or creating a new entry at full ttl. It reports whether the entry was
// newly created.
func (nt *NeighborTable) Refresh(addr Address) (isNew bool) {
	if e, ok := nt.entries[addr]; ok {
		e.TTL = cfg.NeighborTTL
		e.Valid = true
		return false
	}
	nt.entries[addr] = &NeighborEntry{Addr: addr, TTL: cfg.NeighborTTL, Valid: true}
	return true
}

// Get returns the entry for addr, if any and valid.
func (nt *NeighborTable) Get(addr Address) (*NeighborEntry, bool) {
	e, ok := nt.entries[addr]
	if !ok || !e.Valid {
		return nil, false
	}
	return e, true
}

// Tick decrements ttl on every valid entry by one second, invalidating
// (and removing) those that reach zero. It returns the addresses that
// expired on this tick.
func (nt *NeighborTable) Tick() []Address {
	var expired []Address
	for addr, e := range nt.entries {
		if !e.Valid {
			continue
		}
		e.TTL--
		if e.TTL <= 0 {
			e.Valid = false
			expired = append(expired, addr)
			delete(nt.entries, addr)
		}
	}
	return expired
}

// List returns every currently valid neighbor address.
func (nt *NeighborTable) List() []Address {
	out := make([]Address, 0, len(nt.entries))
	for addr, e := range nt.entries {
		if e.Valid {
			out = append(out, addr)
		}
	}
	return out
}
