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

import (
	"sync/atomic"

	"github.com/lavertycalvin/Layer3/core"
)

// Host is the core.Host implementation bound to one node sitting on a
// Network's shared "ether". It owns nothing but its own packet-id
// counter; the medium and delivery policy live on Network.
type Host struct {
	addr core.Address
	net  *Network
	node *core.Node
	id   atomic.Uint32
}

func (h *Host) Address() core.Address { return h.addr }

func (h *Host) NextPacketID() uint32 {
	return h.id.Add(1)
}

// L2Send hands a finalized frame to the medium for delivery to nextHop
// (or, for BROADCAST, to every node in radio range).
func (h *Host) L2Send(frame []byte, nextHop core.Address) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	h.net.submit(Frame{Data: cp, NextHop: nextHop, From: h.addr})
	return nil
}

// FCMPSendResponse builds and originates an FCMP report addressed back
// to the source of the frame that triggered it. ttl 0 is promoted by
// Send to MAX_TTL: the report may need to cross the same number of
// hops the original frame already had behind it.
func (h *Host) FCMPSendResponse(frame []byte, code core.FCMPError) {
	hdr, err := core.DecodeL3Header(frame)
	if err != nil {
		return
	}
	payload := core.EncodeFCMP(code, hdr.ID)
	_ = h.node.Send(payload, hdr.Src, core.ProtoFCMP, 0)
}
