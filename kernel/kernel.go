// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package kernel implements the proof-of-stake kernel predicate: the pure
// function deciding whether a (coin, time) pair mints the right to produce
// the next block, and the stake-modifier update that scrambles future
// lookups. Nothing in this package touches a clock, a socket, or disk; it
// is safe to call concurrently, including from a worker pool.
package kernel

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shell-reserve/stakecore/primitives"
)

// OutPoint identifies the previous output a coinstake spends.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Coin is a spendable output reference eligible for staking consideration.
type Coin struct {
	Hash   chainhash.Hash
	Index  uint32
	Value  int64
	Height int32
	NTime  uint32
	Script []byte
}

// Out returns the OutPoint this coin represents.
func (c *Coin) Out() OutPoint {
	return OutPoint{Hash: c.Hash, Index: c.Index}
}

// TipSnapshot is the read-only view of the chain a job is built against.
// A job operates against exactly one snapshot; a new tip invalidates it.
type TipSnapshot struct {
	Height        int32
	PrevBlockHash chainhash.Hash
	Timestamp     int64
	Bits          uint32
	StakeModifier [32]byte
}

// Options tunes kernel behavior for the one sanctioned deviation the spec
// documents: whether the evaluated target comes from the coin's value
// (the default, matching the source's documented-but-atypical behavior)
// or from the block's own bits.
type Options struct {
	// UseBlockBits switches the evaluated target to the block's bits
	// instead of compact(coin.Value). Default false.
	UseBlockBits bool
}

// byOrder sorts coins deterministically by (txHash, index) ascending, the
// enumeration order the stake searcher must use.
type byOrder []*Coin

func (b byOrder) Len() int      { return len(b) }
func (b byOrder) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byOrder) Less(i, j int) bool {
	if c := bytes.Compare(b[i].Hash[:], b[j].Hash[:]); c != 0 {
		return c < 0
	}
	return b[i].Index < b[j].Index
}

// SortCoins orders coins by (txHash, index) ascending in place, matching
// the deterministic enumeration order the stake searcher requires.
func SortCoins(coins []*Coin) {
	sortCoins(coins)
}

func sortCoins(coins []*Coin) {
	// insertion sort: coin sets during staking are small and this keeps
	// the ordering contract obvious to read.
	for i := 1; i < len(coins); i++ {
		for j := i; j > 0 && byOrder(coins).Less(j, j-1); j-- {
			coins[j], coins[j-1] = coins[j-1], coins[j]
		}
	}
}

// Eligible reports whether coin has accumulated enough confirmations to
// stake at the block being built on top of prev (i.e. at height
// prev.Height+1), and carries a positive value.
func Eligible(prev *TipSnapshot, coin *Coin, minConfirmations int32) bool {
	if coin == nil {
		return false
	}
	if coin.Value <= 0 {
		return false
	}
	confirmations := (prev.Height + 1) - coin.Height
	return confirmations >= minConfirmations
}

// Evaluate is the kernel predicate of §4.1: it reports whether (coin,
// timeTx) satisfies the proof-of-stake hash test against blkBits, and
// returns the kernel hash so the caller can derive the next stake
// modifier on success. minConfirmations is the consensus STAKE_MIN_CONFIRMATIONS
// value; opts may be nil, equivalent to the zero value (UseBlockBits=false).
func Evaluate(prev *TipSnapshot, blkBits uint32, coin *Coin, previousOut OutPoint, timeTx uint32, minConfirmations int32, opts *Options) (bool, chainhash.Hash) {
	if !Eligible(prev, coin, minConfirmations) {
		return false, chainhash.Hash{}
	}

	target := evaluationTarget(blkBits, coin, opts)

	h := kernelHash(prev.StakeModifier, coin.NTime, previousOut, timeTx)
	quotient := hashToBigDividedByValue(h, coin.Value)
	return quotient.Cmp(target) <= 0, h
}

// evaluationTarget picks the compact target the kernel hash quotient is
// compared against. Per §9's open question, the source derives this from
// the coin's value rather than the block's bits; that is preserved as the
// default and is the behavior this spec defines as correct.
func evaluationTarget(blkBits uint32, coin *Coin, opts *Options) *big.Int {
	if opts != nil && opts.UseBlockBits {
		return primitives.CompactToBig(blkBits)
	}
	return primitives.CompactToBig(primitives.BigToCompact(bigFromInt64(coin.Value)))
}

// hashToBigDividedByValue computes floor(primitives.HashToBig(h) / value),
// the 256-bit truncating integer division §4.1 requires.
func hashToBigDividedByValue(h chainhash.Hash, value int64) *big.Int {
	hashNum := primitives.HashToBig(h)
	return hashNum.Div(hashNum, big.NewInt(value))
}

func bigFromInt64(v int64) *big.Int {
	return big.NewInt(v)
}

// NextStakeModifier derives the next stake modifier deterministically
// from the kernel hash that just succeeded and the previous modifier, per
// §4.1: hash256(kernelHash || prevStakeModifier).
func NextStakeModifier(kernelHash chainhash.Hash, prevModifier [32]byte) [32]byte {
	buf := make([]byte, 64)
	copy(buf[0:32], kernelHash[:])
	copy(buf[32:64], prevModifier[:])
	h := primitives.Hash256(buf)
	var out [32]byte
	copy(out[:], h[:])
	return out
}

// kernelHash computes hash256(modifier || coin.nTime || previousOut.Hash ||
// previousOut.Index || timeTx), all integers little-endian, hashes in
// their canonical wire order, per §4.1.
func kernelHash(modifier [32]byte, coinNTime uint32, previousOut OutPoint, timeTx uint32) chainhash.Hash {
	buf := make([]byte, 0, 32+4+32+4+4)
	buf = append(buf, modifier[:]...)
	buf = appendUint32LE(buf, coinNTime)
	buf = append(buf, previousOut.Hash[:]...)
	buf = appendUint32LE(buf, previousOut.Index)
	buf = appendUint32LE(buf, timeTx)
	return primitives.Hash256(buf)
}

func appendUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
