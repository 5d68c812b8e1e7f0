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

package netsim

import "github.com/lavertycalvin/Layer3/core"

// RoutingTable is a whole-network snapshot used by tests to assert
// route convergence: for every (from, to) pair it follows each node's
// forwarding table hop by hop toward to.
type RoutingTable struct {
	nodes map[core.Address]*core.Node
}

// RoutingTableOf snapshots every node currently registered on n.
func (n *Network) RoutingTableOf() *RoutingTable {
	n.mu.RLock()
	defer n.mu.RUnlock()
	rt := &RoutingTable{nodes: make(map[core.Address]*core.Node, len(n.nodes))}
	for addr, node := range n.nodes {
		rt.nodes[addr] = node
	}
	return rt
}

// Route follows from's forwarding table toward to, one hop at a time.
// It returns the hop count on success, 0 for a broken route (no entry
// somewhere along the way) and -1 if the walk cycles without reaching
// to within len(nodes) steps.
func (rt *RoutingTable) Route(from, to core.Address) (hops int, path []core.Address) {
	budget := len(rt.nodes)
	cur := from
	for {
		path = append(path, cur)
		if cur == to {
			return hops, path
		}
		node, ok := rt.nodes[cur]
		if !ok {
			return 0, path
		}
		next := node.ForwardingTable().LongestPrefixMatch(to)
		if next == 0 {
			return 0, path
		}
		cur = next
		hops++
		if budget--; budget < 0 {
			return -1, path
		}
	}
}

// Status walks every (from, to) pair and tallies outcomes.
func (rt *RoutingTable) Status() (loops, broken, success, totalHops int) {
	for from := range rt.nodes {
		for to := range rt.nodes {
			if from == to {
				continue
			}
			hops, _ := rt.Route(from, to)
			switch hops {
			case -1:
				loops++
			case 0:
				broken++
			default:
				success++
				totalHops += hops
			}
		}
	}
	return
}
