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

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

//----------------------------------------------------------------------

// Node is a fishnet Layer-3 node: a forwarding table, a seen-ID set, a
// neighbor table and a DV table, driven by a single-threaded event
// loop that owns all of them. There are no locks; every table mutation
// happens on the loop's own goroutine.
type Node struct {
	host  Host
	fw    *ForwardingTable
	seen  *SeenIDs
	neigh *NeighborTable
	dv    *DVTable

	listener  Listener
	onReceive ReceiveFunc

	inCh   chan []byte
	active atomic.Bool
}

// NewNode creates a node bound to host, with an inbound-frame channel
// the host's L2 layer feeds on every received frame.
func NewNode(host Host, inCh chan []byte) *Node {
	fw := NewForwardingTable()
	return &Node{
		host:  host,
		fw:    fw,
		seen:  NewSeenIDs(cfg.SeenIDsCap),
		neigh: NewNeighborTable(),
		dv:    NewDVTable(host.Address(), fw),
		inCh:  inCh,
	}
}

// OnReceive registers the upcall made for every payload addressed to
// (or flooded past) this node.
func (n *Node) OnReceive(f ReceiveFunc) {
	n.onReceive = f
}

// ForwardingTable exposes the node's forwarding table for diagnostics.
func (n *Node) ForwardingTable() *ForwardingTable {
	return n.fw
}

// DVTable exposes the node's DV table for diagnostics.
func (n *Node) DVTable() *DVTable {
	return n.dv
}

// NeighborTable exposes the node's neighbor table for diagnostics.
func (n *Node) NeighborTable() *NeighborTable {
	return n.neigh
}

func (n *Node) notify(ev int, peer, ref Address, val int) {
	if n.listener != nil {
		n.listener(&Event{Type: ev, Peer: peer, Ref: ref, Val: val})
	}
}

// Run starts the node's event loop: a single goroutine selecting over
// the five periodic tasks from §4.6 and the inbound-frame channel,
// until ctx is cancelled. Each timer re-arms itself at the tail of its
// own case, matching schedule_after's one-shot contract.
func (n *Node) Run(ctx context.Context, notify Listener) {
	n.listener = notify
	n.dv.SetListener(notify)
	n.active.Store(true)
	defer n.active.Store(false)

	probe := time.NewTimer(neighborProbeIntv())
	blankDV := time.NewTimer(dvAdvertiseIntv())
	fullDV := time.NewTimer(dvAdvertiseIntv())
	neighTick := time.NewTimer(tickIntv())
	dvTick := time.NewTimer(tickIntv())
	defer probe.Stop()
	defer blankDV.Stop()
	defer fullDV.Stop()
	defer neighTick.Stop()
	defer dvTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-probe.C:
			n.ProbeNeighbors()
			probe.Reset(neighborProbeIntv())

		case <-blankDV.C:
			n.AdvertiseBlank()
			blankDV.Reset(dvAdvertiseIntv())

		case <-fullDV.C:
			n.AdvertiseFull()
			fullDV.Reset(dvAdvertiseIntv())

		case <-neighTick.C:
			n.TickNeighbors()
			neighTick.Reset(tickIntv())

		case <-dvTick.C:
			n.TickDV()
			dvTick.Reset(tickIntv())

		case frame := <-n.inCh:
			n.Receive(frame)
		}
	}
}

// Stop marks the node as not running for IsRunning callers that cannot
// observe ctx directly. It does not end Run's loop: only cancelling the
// context passed to Run does that.
func (n *Node) Stop() {
	n.active.Store(false)
}

// IsRunning reports whether the node's loop is active.
func (n *Node) IsRunning() bool {
	return n.active.Load()
}

// String returns a human-readable summary of the node.
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s: %d routes}", n.host.Address(), n.fw.Len())
}
