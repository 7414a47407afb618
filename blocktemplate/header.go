// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocktemplate

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HeaderSize is the fixed, canonical size of a serialized block header:
// 4 (version) + 32 (prevBlock) + 32 (merkleRoot) + 4 (ts) + 4 (bits) + 4 (nonce).
const HeaderSize = 4 + 32 + 32 + 4 + 4 + 4

// SerializeHeader produces the 80-byte canonical header encoding of §6:
// little-endian integers, hashes in their wire byte order.
func SerializeHeader(version int32, prevBlock, merkleRoot chainhash.Hash, ts, bits, nonce uint32) []byte {
	buf := make([]byte, 0, HeaderSize)
	var tmp [4]byte

	binary.LittleEndian.PutUint32(tmp[:], uint32(version))
	buf = append(buf, tmp[:]...)
	buf = append(buf, prevBlock[:]...)
	buf = append(buf, merkleRoot[:]...)
	binary.LittleEndian.PutUint32(tmp[:], ts)
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], bits)
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], nonce)
	buf = append(buf, tmp[:]...)
	return buf
}

// Header is the parsed form of SerializeHeader's output.
type Header struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// ParseHeader is the left inverse of SerializeHeader: ParseHeader(Serialize(h)) == h.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) != HeaderSize {
		return h, ErrMalformedHeader
	}
	h.Version = int32(binary.LittleEndian.Uint32(data[0:4]))
	copy(h.PrevBlock[:], data[4:36])
	copy(h.MerkleRoot[:], data[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(data[68:72])
	h.Bits = binary.LittleEndian.Uint32(data[72:76])
	h.Nonce = binary.LittleEndian.Uint32(data[76:80])
	return h, nil
}

// ErrMalformedHeader is returned by ParseHeader when given the wrong
// number of bytes.
var ErrMalformedHeader = headerError("blocktemplate: malformed header")

type headerError string

func (e headerError) Error() string { return string(e) }
