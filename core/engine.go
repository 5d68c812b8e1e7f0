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

// ReceiveFunc is the upcall a Node makes once a frame addressed to (or
// flooded past) this node has cleared classification: the L4 delivery
// the original calls l4_receive.
type ReceiveFunc func(payload []byte, proto Proto, src Address)

// Send builds and forwards a new L3 frame originated by this node. ttl
// is clamped into (0, MaxTTL]; a requested ttl of 0 is promoted to
// MaxTTL.
func (n *Node) Send(payload []byte, dst Address, proto Proto, ttl uint8) error {
	if ttl == 0 {
		ttl = MaxTTL
	}
	hdr := &L3Header{
		TTL: ttl, Proto: proto, ID: n.host.NextPacketID(),
		Src: n.host.Address(), Dest: dst,
	}
	frame := WrapFrame(hdr, payload)
	n.seen.Remember(hdr.Src, hdr.ID)
	return n.forward(frame)
}

// forward implements l3_forward: TTL-exceeded and unreachable checks,
// next-hop resolution, seen-ID bookkeeping and submission to L2.
func (n *Node) forward(frame []byte) error {
	hdr, err := DecodeL3Header(frame)
	if err != nil {
		return err
	}
	self := n.host.Address()

	if hdr.TTL == 0 && hdr.Dest != self {
		n.emitFCMP(frame, FCMPTTLExceeded)
		return nil
	}

	var nextHop Address
	if hdr.Dest == Broadcast {
		nextHop = Broadcast
	} else {
		nextHop = n.fw.LongestPrefixMatch(hdr.Dest)
	}
	if nextHop == 0 {
		n.emitFCMP(frame, FCMPNetUnreachable)
		return nil
	}

	n.seen.Remember(hdr.Src, hdr.ID)
	return n.host.L2Send(frame, nextHop)
}

// emitFCMP asks the host to send an FCMP report back toward the
// original frame's source, carrying its packet id as the sequence
// number.
func (n *Node) emitFCMP(frame []byte, code FCMPError) {
	hdr, err := DecodeL3Header(frame)
	if err != nil {
		return
	}
	n.host.FCMPSendResponse(frame, code)
	n.notify(EvFCMPSent, hdr.Src, 0, int(code))
}

// Receive implements l3_receive: classification of an inbound frame
// into self-destined, broadcast, or transit handling.
func (n *Node) Receive(frame []byte) {
	hdr, err := DecodeL3Header(frame)
	if err != nil {
		return
	}
	if hdr.Src == Broadcast {
		return // malformed source, no valid return path
	}
	self := n.host.Address()
	payload := frame[L3HeaderLen:]

	switch {
	case hdr.Dest == self:
		n.dispatchControl(hdr, payload)
		if n.onReceive != nil {
			n.onReceive(payload, hdr.Proto, hdr.Src)
		}

	case hdr.Dest == Broadcast:
		if n.seen.Has(hdr.Src, hdr.ID) {
			return
		}
		n.seen.Remember(hdr.Src, hdr.ID)
		n.dispatchControl(hdr, payload)
		if n.onReceive != nil {
			n.onReceive(payload, hdr.Proto, hdr.Src)
		}
		hdr.TTL--
		hdr.Encode(frame[:L3HeaderLen])
		_ = n.forward(frame)

	default:
		// a frame that arrives with ttl 0 keeps it, so forward reports
		// TTL_EXCEEDED rather than the counter wrapping around to 255
		if hdr.TTL > 0 {
			hdr.TTL--
		}
		hdr.Encode(frame[:L3HeaderLen])
		_ = n.forward(frame)
	}
}

// dispatchControl hands NEIGH/DV payloads to their protocol handlers;
// other protocols are left for L4 to interpret.
func (n *Node) dispatchControl(hdr *L3Header, payload []byte) {
	switch hdr.Proto {
	case ProtoDV:
		n.handleDV(hdr.Src, payload)
	case ProtoNEIGH:
		n.handleNeighbor(hdr.Src, payload)
	}
}

// ---- neighbor protocol -------------------------------------------------

// ProbeNeighbors emits a REQUEST to BROADCAST, the 30s periodic task.
func (n *Node) ProbeNeighbors() {
	_ = n.Send(EncodeNeighbor(NeighRequest), Broadcast, ProtoNEIGH, NeighTTL)
}

func (n *Node) handleNeighbor(src Address, payload []byte) {
	typ, err := DecodeNeighbor(payload)
	if err != nil {
		return
	}
	switch typ {
	case NeighRequest:
		_ = n.Send(EncodeNeighbor(NeighResponse), src, ProtoNEIGH, NeighTTL)
	case NeighResponse:
		isNew := n.neigh.Refresh(src)
		n.dv.AddNeighborRoute(src)
		if isNew {
			n.notify(EvNeighborUp, src, 0, 0)
		}
	}
}

// TickNeighbors ages the neighbor table by one second, the 1s periodic
// task; expired neighbors are reported via the listener. Invalidating
// a neighbor does not itself touch its DV entry — DV ageing handles
// that independently once advertisements stop refreshing it.
func (n *Node) TickNeighbors() {
	for _, addr := range n.neigh.Tick() {
		n.notify(EvNeighborExpired, addr, 0, 0)
	}
}

// ---- DV protocol --------------------------------------------------------

func (n *Node) handleDV(src Address, payload []byte) {
	advs, err := DecodeDVPacket(payload)
	if err != nil {
		return
	}
	for _, a := range advs {
		n.dv.Learn(src, a)
	}
}

// AdvertiseBlank emits a keepalive (num_adv=0) DV broadcast, the 30s
// periodic task.
func (n *Node) AdvertiseBlank() {
	_ = n.Send(EncodeDVPacket(nil), Broadcast, ProtoDV, NeighTTL)
}

// AdvertiseFull emits the full per-neighbor advertisement (with split
// horizon / poison reverse) to every known neighbor, the 30s periodic
// task.
func (n *Node) AdvertiseFull() {
	for _, neigh := range n.neigh.List() {
		advs := n.dv.Advertisements(neigh)
		_ = n.Send(EncodeDVPacket(advs), neigh, ProtoDV, NeighTTL)
	}
}

// TickDV ages the DV table by one second, the 1s periodic task.
func (n *Node) TickDV() {
	n.dv.AgeTick()
}
