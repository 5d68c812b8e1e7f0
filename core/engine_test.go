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

import "testing"

// mockHost is a minimal Host recording everything it is asked to do.
type mockHost struct {
	addr Address
	id   uint32

	sent []struct {
		frame   []byte
		nextHop Address
	}
	fcmp []struct {
		frame []byte
		code  FCMPError
	}
}

func newMockHost(addr Address) *mockHost {
	return &mockHost{addr: addr}
}

func (h *mockHost) Address() Address { return h.addr }

func (h *mockHost) NextPacketID() uint32 {
	h.id++
	return h.id
}

func (h *mockHost) L2Send(frame []byte, nextHop Address) error {
	h.sent = append(h.sent, struct {
		frame   []byte
		nextHop Address
	}{frame, nextHop})
	return nil
}

func (h *mockHost) FCMPSendResponse(frame []byte, code FCMPError) {
	h.fcmp = append(h.fcmp, struct {
		frame []byte
		code  FCMPError
	}{frame, code})
}

func TestSendPromotesZeroTTL(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))
	n.fw.Add(addrD, 32, addrB, 0, TypeDV, nil) // route to D via B

	if err := n.Send([]byte("hi"), addrD, ProtoECHO, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(host.sent) != 1 {
		t.Fatalf("expected one L2Send, got %d", len(host.sent))
	}
	hdr, err := DecodeL3Header(host.sent[0].frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hdr.TTL != MaxTTL {
		t.Fatalf("ttl = %d, want promoted to %d", hdr.TTL, MaxTTL)
	}
}

func TestForwardEmitsFCMPOnUnreachable(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))
	// no route to D at all
	if err := n.Send([]byte("hi"), addrD, ProtoECHO, 10); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(host.sent) != 0 {
		t.Fatal("expected no L2Send on an unreachable destination")
	}
	if len(host.fcmp) != 1 || host.fcmp[0].code != FCMPNetUnreachable {
		t.Fatalf("expected one NET_UNREACHABLE FCMP, got %+v", host.fcmp)
	}
}

func TestReceiveTransitDecrementsTTLAndForwards(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))
	n.fw.Add(addrD, 32, addrC, 0, TypeDV, nil) // A knows how to reach D via C

	hdr := &L3Header{TTL: 5, Proto: ProtoECHO, ID: 1, Src: addrB, Dest: addrD}
	frame := WrapFrame(hdr, []byte("payload"))
	n.Receive(frame)

	if len(host.sent) != 1 {
		t.Fatalf("expected frame forwarded once, got %d sends", len(host.sent))
	}
	if host.sent[0].nextHop != addrC {
		t.Fatalf("forwarded to %v, want C", host.sent[0].nextHop)
	}
	got, _ := DecodeL3Header(host.sent[0].frame)
	if got.TTL != 4 {
		t.Fatalf("ttl after transit = %d, want 4", got.TTL)
	}
}

func TestReceiveTTLExhaustedEmitsFCMP(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))

	hdr := &L3Header{TTL: 0, Proto: ProtoECHO, ID: 7, Src: addrB, Dest: addrD}
	frame := WrapFrame(hdr, nil)
	n.Receive(frame)

	if len(host.fcmp) != 1 || host.fcmp[0].code != FCMPTTLExceeded {
		t.Fatalf("expected one TTL_EXCEEDED FCMP, got %+v", host.fcmp)
	}
}

func TestReceiveBroadcastDedup(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))

	var delivered int
	n.OnReceive(func(payload []byte, proto Proto, src Address) {
		delivered++
	})

	hdr := &L3Header{TTL: 5, Proto: ProtoECHO, ID: 42, Src: addrB, Dest: Broadcast}
	frame := WrapFrame(hdr, []byte("flood"))
	n.Receive(frame)
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1 after first receipt", delivered)
	}

	// the flood returns to A via another path: same (src, id)
	frame2 := WrapFrame(hdr, []byte("flood"))
	n.Receive(frame2)
	if delivered != 1 {
		t.Fatalf("delivered = %d, want still 1 after reflected broadcast", delivered)
	}
}

func TestReceiveIgnoresBroadcastSource(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))
	var delivered int
	n.OnReceive(func(payload []byte, proto Proto, src Address) { delivered++ })

	hdr := &L3Header{TTL: 5, Proto: ProtoECHO, ID: 1, Src: Broadcast, Dest: addrA}
	n.Receive(WrapFrame(hdr, nil))
	if delivered != 0 {
		t.Fatal("a frame claiming BROADCAST as its source must be dropped silently")
	}
}

func TestNeighborRequestResponseWiresDVRoute(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))

	hdr := &L3Header{TTL: NeighTTL, Proto: ProtoNEIGH, ID: 1, Src: addrB, Dest: addrA}
	frame := WrapFrame(hdr, EncodeNeighbor(NeighResponse))
	n.Receive(frame)

	if _, ok := n.neigh.Get(addrB); !ok {
		t.Fatal("expected B recorded as a neighbor")
	}
	active, ok := n.dv.Active(addrB)
	if !ok || active.NextHop != addrB || active.Metric != 1 {
		t.Fatalf("expected an Active DV route to B with metric 1, got %+v", active)
	}
	if got := n.fw.LongestPrefixMatch(addrB); got != addrB {
		t.Fatalf("LongestPrefixMatch(B) = %v, want B", got)
	}
}

func TestNeighborRequestElicitsResponse(t *testing.T) {
	host := newMockHost(addrA)
	n := NewNode(host, make(chan []byte, 1))
	// the L2 environment seeds a Connected route to every one-hop peer
	// before any L3 protocol runs; the core never originates these itself.
	n.fw.Add(addrB, 32, addrB, 0, TypeConnected, nil)

	hdr := &L3Header{TTL: NeighTTL, Proto: ProtoNEIGH, ID: 1, Src: addrB, Dest: addrA}
	n.Receive(WrapFrame(hdr, EncodeNeighbor(NeighRequest)))

	if len(host.sent) != 1 {
		t.Fatalf("expected one RESPONSE sent, got %d", len(host.sent))
	}
	respHdr, _ := DecodeL3Header(host.sent[0].frame)
	if respHdr.Proto != ProtoNEIGH || respHdr.Dest != addrB {
		t.Fatalf("unexpected response header %+v", respHdr)
	}
	typ, _ := DecodeNeighbor(host.sent[0].frame[L3HeaderLen:])
	if typ != NeighResponse {
		t.Fatalf("expected NeighResponse, got %v", typ)
	}
}
