package protocol

import "encoding/binary"

// Link-layer ack payload, piggybacked by the gateway on every hardware ack:
//
//	+------------------------------------+----------+
//	| peer id, low 7 bytes little-endian | checksum |
//	+------------------------------------+----------+
//	|              7 bytes               |  1 byte  |
//	+------------------------------------+----------+
//
// The registration ack carries all 8 bytes of the peer id; here only the low
// seven are significant because the last byte is the checksum.

// peerIdentityMask selects the significant bytes of a peer id in a link ack.
const peerIdentityMask = 1<<(8*linkAckIdentitySize) - 1

// XORChecksum folds data into one byte, shifting byte i left by i bits before
// xoring. Exactly len(data) bytes are read.
func XORChecksum(data []byte) byte {
	var sum byte
	for i, v := range data {
		sum ^= v << uint(i)
	}
	return sum
}

// EncodeLinkAck builds the 8-byte ack payload advertising peerID.
func EncodeLinkAck(peerID uint64) []byte {
	ack := make([]byte, LinkAckSize)
	binary.LittleEndian.PutUint64(ack, peerID&peerIdentityMask)
	ack[linkAckIdentitySize] = XORChecksum(ack[:linkAckIdentitySize])
	return ack
}

// LinkAck is a parsed link-layer ack payload.
type LinkAck struct {
	PeerID   uint64 // low 7 bytes only
	Checksum byte
}

// DecodeLinkAck parses an ack payload; ok is false when it is too short.
func DecodeLinkAck(ack []byte) (LinkAck, bool) {
	if len(ack) < LinkAckSize {
		return LinkAck{}, false
	}
	var id [8]byte
	copy(id[:], ack[:linkAckIdentitySize])
	return LinkAck{
		PeerID:   binary.LittleEndian.Uint64(id[:]),
		Checksum: ack[linkAckIdentitySize],
	}, true
}

// Matches reports whether the ack names peerID.
func (a LinkAck) Matches(peerID uint64) bool {
	return a.PeerID == peerID&peerIdentityMask
}

// Valid reports whether the checksum covers the identity bytes.
func (a LinkAck) Valid() bool {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], a.PeerID)
	return XORChecksum(id[:linkAckIdentitySize]) == a.Checksum
}
