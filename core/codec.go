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
	"encoding/binary"
	"errors"
)

// L3HeaderLen is the fixed on-wire length of an L3 header.
const L3HeaderLen = 14

// ErrShortBuffer is returned by decode functions when a buffer is
// shorter than the structure it is expected to hold.
var ErrShortBuffer = errors.New("core: buffer too short")

// L3Header is the fixed 14-byte prefix on every fishnet L3 frame.
type L3Header struct {
	TTL   uint8
	Proto Proto
	ID    uint32
	Src   Address
	Dest  Address
}

// Encode writes the header into buf[:14] in wire order.
func (h *L3Header) Encode(buf []byte) {
	buf[0] = h.TTL
	buf[1] = byte(h.Proto)
	binary.BigEndian.PutUint32(buf[2:6], h.ID)
	binary.BigEndian.PutUint32(buf[6:10], uint32(h.Src))
	binary.BigEndian.PutUint32(buf[10:14], uint32(h.Dest))
}

// DecodeL3Header reads a header from the front of buf.
func DecodeL3Header(buf []byte) (*L3Header, error) {
	if len(buf) < L3HeaderLen {
		return nil, ErrShortBuffer
	}
	return &L3Header{
		TTL:   buf[0],
		Proto: Proto(buf[1]),
		ID:    binary.BigEndian.Uint32(buf[2:6]),
		Src:   Address(binary.BigEndian.Uint32(buf[6:10])),
		Dest:  Address(binary.BigEndian.Uint32(buf[10:14])),
	}, nil
}

// NeighborPayloadLen is the fixed length of a neighbor-protocol payload.
const NeighborPayloadLen = 2

// EncodeNeighbor writes a 2-byte neighbor-message payload.
func EncodeNeighbor(t NeighType) []byte {
	buf := make([]byte, NeighborPayloadLen)
	binary.BigEndian.PutUint16(buf, uint16(t))
	return buf
}

// DecodeNeighbor reads the neighbor-message type from its payload.
func DecodeNeighbor(buf []byte) (NeighType, error) {
	if len(buf) < NeighborPayloadLen {
		return 0, ErrShortBuffer
	}
	return NeighType(binary.BigEndian.Uint16(buf[:2])), nil
}

// DVAdv is a single advertised route record.
type DVAdv struct {
	Dest    Address
	Netmask Address
	Metric  uint32
}

const dvAdvLen = 12

// EncodeDVPacket writes a blank-or-full DV advertisement: num_adv:u16
// followed by that many 12-byte records.
func EncodeDVPacket(advs []DVAdv) []byte {
	buf := make([]byte, 2+len(advs)*dvAdvLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(advs)))
	off := 2
	for _, a := range advs {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(a.Dest))
		binary.BigEndian.PutUint32(buf[off+4:off+8], uint32(a.Netmask))
		binary.BigEndian.PutUint32(buf[off+8:off+12], a.Metric)
		off += dvAdvLen
	}
	return buf
}

// DecodeDVPacket parses a DV advertisement payload into its records.
func DecodeDVPacket(buf []byte) ([]DVAdv, error) {
	if len(buf) < 2 {
		return nil, ErrShortBuffer
	}
	n := int(binary.BigEndian.Uint16(buf[0:2]))
	need := 2 + n*dvAdvLen
	if len(buf) < need {
		return nil, ErrShortBuffer
	}
	advs := make([]DVAdv, n)
	off := 2
	for i := 0; i < n; i++ {
		advs[i] = DVAdv{
			Dest:    Address(binary.BigEndian.Uint32(buf[off : off+4])),
			Netmask: Address(binary.BigEndian.Uint32(buf[off+4 : off+8])),
			Metric:  binary.BigEndian.Uint32(buf[off+8 : off+12]),
		}
		off += dvAdvLen
	}
	return advs, nil
}

// FCMPPayloadLen is the fixed length of an FCMP payload.
const FCMPPayloadLen = 8

// EncodeFCMP writes an FCMP error report payload.
func EncodeFCMP(code FCMPError, seqNum uint32) []byte {
	buf := make([]byte, FCMPPayloadLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(code))
	binary.BigEndian.PutUint32(buf[4:8], seqNum)
	return buf
}

// DecodeFCMP parses an FCMP payload.
func DecodeFCMP(buf []byte) (code FCMPError, seqNum uint32, err error) {
	if len(buf) < FCMPPayloadLen {
		return 0, 0, ErrShortBuffer
	}
	code = FCMPError(binary.BigEndian.Uint32(buf[0:4]))
	seqNum = binary.BigEndian.Uint32(buf[4:8])
	return
}
