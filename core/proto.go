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

// Proto identifies the payload carried by an L3 frame.
type Proto uint8

// Protocol numbers carried in the L3 header.
const (
	ProtoECHO  Proto = 2
	ProtoNEIGH Proto = 3
	ProtoNAME  Proto = 4
	ProtoDV    Proto = 7
	ProtoFCMP  Proto = 8
	ProtoARP   Proto = 9
)

// MaxTTL is the universal unreachable-metric sentinel and the initial
// hop budget handed to outgoing packets when none is requested.
const MaxTTL = 255

// FCMPError is an error code carried in an FCMP payload.
type FCMPError uint32

// FCMP error codes.
const (
	FCMPTTLExceeded     FCMPError = 1
	FCMPNetUnreachable  FCMPError = 2
	FCMPHostUnreachable FCMPError = 3
)

// NeighType identifies a neighbor-protocol message.
type NeighType uint16

// Neighbor message types.
const (
	NeighRequest  NeighType = 1
	NeighResponse NeighType = 2
)

// NeighTTL is the L3 ttl stamped on every neighbor-protocol packet: they
// never need to travel past a single hop.
const NeighTTL = 1

// EntryType tags the provenance of a forwarding-table entry.
type EntryType byte

// Forwarding-entry type tags.
const (
	TypeConnected EntryType = 'C'
	TypeLoopback  EntryType = 'L'
	TypeBroadcast EntryType = 'B'
	TypeNeighbor  EntryType = 'N'
	TypeDV        EntryType = 'D'
	TypeLinkState EntryType = 'S'
)

func (t EntryType) String() string {
	return string(rune(t))
}
