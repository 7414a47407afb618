// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package primitives wraps the low-level cryptographic and consensus-math
// functions the core treats as pure, externally supplied primitives:
// double-SHA-256, scrypt, canonical secp256k1 signing, and compact-target
// conversion. None of this package makes a decision; it only computes.
package primitives

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/scrypt"
)

// Hash256 returns the double-SHA-256 digest used throughout the wire
// format and the kernel predicate.
func Hash256(data []byte) chainhash.Hash {
	return chainhash.DoubleHashH(data)
}

// ScryptIdentity computes the scrypt-based block identity hash used for
// header versions below 7 (see IdentityHash), with the
// parameters N=1024, r=1, p=1, dkLen=32 and the header itself as salt.
func ScryptIdentity(header []byte) (chainhash.Hash, error) {
	var out chainhash.Hash
	sum, err := scrypt.Key(header, header, 1024, 1, 1, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], sum)
	return out, nil
}

// IdentityHash computes a block's identity hash: scrypt for version < 7,
// double-SHA-256 (sha256d) otherwise, per the wire header contract.
func IdentityHash(version int32, header []byte) (chainhash.Hash, error) {
	if version < 7 {
		return ScryptIdentity(header)
	}
	return Hash256(header), nil
}

// HashToBig interprets a hash's wire-order bytes as a little-endian 256-bit
// integer (the bytes are reversed before being read big-endian), the form
// every compact-target comparison is done in.
func HashToBig(h chainhash.Hash) *big.Int {
	reversed := make([]byte, len(h))
	for i, b := range h {
		reversed[len(h)-1-i] = b
	}
	return new(big.Int).SetBytes(reversed)
}

// CompactToBig expands a 32-bit compact difficulty encoding to its full
// big-integer target form.
func CompactToBig(bits uint32) *big.Int {
	return blockchain.CompactToBig(bits)
}

// BigToCompact packs a big-integer target back into its 32-bit compact
// form. Lossy for small values, bit-exact for consensus-relevant ranges.
func BigToCompact(target *big.Int) uint32 {
	return blockchain.BigToCompact(target)
}

// SignCanonical produces a deterministic, canonical secp256k1 signature
// over msg using sk. "Canonical" here means low-S and RFC6979-deterministic,
// which is what ecdsa.SignCompact already guarantees.
func SignCanonical(msg []byte, sk *secp256k1.PrivateKey) []byte {
	return ecdsa.SignCompact(sk, msg, true)
}

// VerifyCanonical checks a signature produced by SignCanonical against a
// message and a public key: it recovers the signer's key from sig and
// compares it with pubKey.
func VerifyCanonical(sig, msg []byte, pubKey *secp256k1.PublicKey) bool {
	recovered, _, err := ecdsa.RecoverCompact(sig, msg)
	if err != nil {
		return false
	}
	return recovered.IsEqual(pubKey)
}
