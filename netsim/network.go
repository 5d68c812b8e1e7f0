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

// Package netsim is a test harness: an in-memory "ether" that wires
// several core.Node instances together over a fixed adjacency graph,
// the way the fishnet environment does for a real deployment.
package netsim

import (
	"context"
	"sync"

	"github.com/lavertycalvin/Layer3/core"
)

// Frame is one submission to the medium: the wire bytes, the L2 next
// hop the sender addressed it to, and the sender's own address.
type Frame struct {
	Data    []byte
	NextHop core.Address
	From    core.Address
}

// Network is the overall test controller: an "ether" queue plus the
// adjacency graph that decides which nodes a frame reaches.
type Network struct {
	mu        sync.RWMutex
	hosts     map[core.Address]*Host
	nodes     map[core.Address]*core.Node
	inbound   map[core.Address]chan []byte
	adjacency map[core.Address]map[core.Address]bool

	queue chan Frame
}

// NewNetwork creates an empty medium.
func NewNetwork() *Network {
	return &Network{
		hosts:     make(map[core.Address]*Host),
		nodes:     make(map[core.Address]*core.Node),
		inbound:   make(map[core.Address]chan []byte),
		adjacency: make(map[core.Address]map[core.Address]bool),
		queue:     make(chan Frame, 256),
	}
}

// AddNode creates a fishnode bound to addr and wires it onto the
// medium. The returned Node is not yet running; call Run to start the
// whole network's event loops, or drive the node's periodic tasks by
// hand for deterministic tests.
func (n *Network) AddNode(addr core.Address) *core.Node {
	h := &Host{addr: addr, net: n}
	inCh := make(chan []byte, 64)
	node := core.NewNode(h, inCh)
	h.node = node

	n.mu.Lock()
	n.hosts[addr] = h
	n.nodes[addr] = node
	n.inbound[addr] = inCh
	if n.adjacency[addr] == nil {
		n.adjacency[addr] = make(map[core.Address]bool)
	}
	n.mu.Unlock()
	return node
}

// Node returns the node previously created for addr, if any.
func (n *Network) Node(addr core.Address) (*core.Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	node, ok := n.nodes[addr]
	return node, ok
}

// Link marks a and b as one-hop L2-adjacent peers and seeds a Connected
// forwarding entry in each direction — the baseline route the physical
// layer itself provides a node to its radio-range peers, independent
// of anything the neighbor or DV protocol has learned yet.
func (n *Network) Link(a, b core.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.adjacency[a][b] = true
	n.adjacency[b][a] = true
	if na, ok := n.nodes[a]; ok {
		na.ForwardingTable().Add(b, 32, b, 0, core.TypeConnected, nil)
	}
	if nb, ok := n.nodes[b]; ok {
		nb.ForwardingTable().Add(a, 32, a, 0, core.TypeConnected, nil)
	}
}

// submit enqueues a frame for delivery; a full queue drops it, the
// same best-effort contract as a real radio medium.
func (n *Network) submit(f Frame) {
	select {
	case n.queue <- f:
	default:
	}
}

// Run starts every registered node's event loop and drains the medium
// until ctx is cancelled.
func (n *Network) Run(ctx context.Context, listener core.Listener) {
	n.mu.RLock()
	nodes := make([]*core.Node, 0, len(n.nodes))
	for _, node := range n.nodes {
		nodes = append(nodes, node)
	}
	n.mu.RUnlock()

	for _, node := range nodes {
		go node.Run(ctx, listener)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-n.queue:
			n.deliver(f)
		}
	}
}

// Pump delivers exactly one pending frame, if any, without blocking.
// Test harnesses that drive node timers by hand use this instead of
// Run's blocking loop.
func (n *Network) Pump() bool {
	select {
	case f := <-n.queue:
		n.deliver(f)
		return true
	default:
		return false
	}
}

// Drain calls Pump until the medium is empty, returning the number of
// frames delivered.
func (n *Network) Drain() int {
	count := 0
	for n.Pump() {
		count++
	}
	return count
}

// ProcessInbound synchronously drains addr's inbound queue, calling its
// node's Receive for each frame. It is the deterministic, single-
// threaded stand-in for what Node.Run's select loop would otherwise do
// from its own goroutine, for test harnesses that drive protocol steps
// by hand instead of calling Run.
func (n *Network) ProcessInbound(addr core.Address) int {
	n.mu.RLock()
	ch, ok := n.inbound[addr]
	node := n.nodes[addr]
	n.mu.RUnlock()
	if !ok {
		return 0
	}
	count := 0
	for {
		select {
		case frame := <-ch:
			node.Receive(frame)
			count++
		default:
			return count
		}
	}
}

// Settle repeats Drain and ProcessInbound across every node until
// neither the medium nor any inbound queue has anything left — the
// deterministic equivalent of letting one round of message exchange
// run to quiescence. It never advances timers; callers trigger
// protocol steps (ProbeNeighbors, AdvertiseFull, TickDV, ...) by hand
// between calls.
func (n *Network) Settle() {
	for {
		moved := n.Drain()

		n.mu.RLock()
		addrs := make([]core.Address, 0, len(n.nodes))
		for addr := range n.nodes {
			addrs = append(addrs, addr)
		}
		n.mu.RUnlock()

		processed := 0
		for _, addr := range addrs {
			processed += n.ProcessInbound(addr)
		}
		if moved == 0 && processed == 0 {
			return
		}
	}
}

func (n *Network) deliver(f Frame) {
	n.mu.RLock()
	var recipients []core.Address
	if f.NextHop == core.Broadcast {
		for peer := range n.adjacency[f.From] {
			recipients = append(recipients, peer)
		}
	} else if n.adjacency[f.From][f.NextHop] {
		recipients = append(recipients, f.NextHop)
	}
	n.mu.RUnlock()

	for _, addr := range recipients {
		n.deliverTo(addr, f.Data)
	}
}

func (n *Network) deliverTo(addr core.Address, data []byte) {
	n.mu.RLock()
	ch, ok := n.inbound[addr]
	n.mu.RUnlock()
	if !ok {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case ch <- cp:
	default:
	}
}
