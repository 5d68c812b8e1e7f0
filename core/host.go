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

// Host is the set of collaborators the core consumes from its
// environment: the Layer-2 transport, the packet-id source, and the
// FCMP report emitter. Scheduling is not part of Host either: Node.Run
// drives its own timers. l4_receive is not part of Host — it is an upcall into the
// core's own classifier output, registered on a Node via OnReceive.
type Host interface {
	// Address returns this node's own fishnet address.
	Address() Address

	// NextPacketID returns the next monotonic packet id to stamp on an
	// outgoing L3 frame.
	NextPacketID() uint32

	// L2Send submits a finalized frame to the given next hop.
	L2Send(frame []byte, nextHop Address) error

	// FCMPSendResponse emits an FCMP error report back toward the
	// source of the frame that triggered it.
	FCMPSendResponse(frame []byte, code FCMPError)
}
