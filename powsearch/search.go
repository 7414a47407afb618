// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package powsearch implements the dual CPU-PoW path: a nonce search over
// fixed-size slices of the 32-bit nonce space, optionally offloaded to a
// worker pool (§4.4). It never touches a chain or a wallet and is safe to
// drive from the supervisor's single loop.
package powsearch

import (
	"math/big"

	"github.com/btcsuite/btclog"
	"github.com/shell-reserve/stakecore/miningjob"
	"github.com/shell-reserve/stakecore/primitives"
)

// log is a logger initialized with no output filters until the caller
// requests it, matching the teacher package's logging pattern.
var log btclog.Logger

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

func init() {
	DisableLog()
}

// DisableLog disables all library log output.
func DisableLog() {
	log = btclog.Disabled
}

// interval is the fixed slice width the nonce space is searched in:
// floor(2^32 / 1500), per §6's INTERVAL constant.
const interval = 0xffffffff / 1500

// maxNonce is the largest value a 32-bit header nonce can hold.
const maxNonce = ^uint32(0)

// StatusFunc is invoked after each exhausted slice with the current
// hashrate telemetry, matching the "emits a status event" requirement of
// §4.4. May be nil.
type StatusFunc func(hashesPerSec float64)

// MineFunc is the worker-pool offload contract of §6: given a header
// template, a target, and a half-open nonce range, it returns a winning
// nonce and true, or false if no nonce in [min, max) hashes under target.
// The default Inline implementation below satisfies this without a pool.
type MineFunc func(header []byte, target *big.Int, min, max uint32) (nonce uint32, found bool)

// Search drives the nonce-searcher contract of §4.4 against job, handing
// mine one [min, max) slice at a time in ascending order; mine receives
// the 80-byte header template (nonce field zeroed) and is responsible for
// trying every nonce in its slice.
//
// Search returns the winning nonce and true, or false if the entire
// nonce space was exhausted, or if job was destroyed mid-search (in
// which case found is always false: the caller must check
// job.Destroyed() to distinguish "exhausted" from "cancelled").
func Search(job *miningjob.Job, version int32, ts uint32, target *big.Int, mine MineFunc, status StatusFunc) (nonce uint32, found bool) {
	var min uint32
	for {
		if job.Destroyed() {
			return 0, false
		}

		max := min + interval
		overflow := max < min
		if overflow {
			max = maxNonce
		}

		n, ok := mine(job.GetHeader(ts, 0), target, min, max)
		if ok {
			return n, true
		}

		if status != nil {
			status(job.GetRate(max))
		}

		if overflow || max == maxNonce {
			return 0, false
		}
		min = max
	}
}

// Inline is the non-pooled MineFunc: it hashes every nonce in [min, max)
// in the calling goroutine using the version-appropriate identity hash.
// Grounded on the teacher's solveBlockRandomX inner loop shape, retargeted
// from RandomX to scrypt/sha256d.
func Inline(version int32) MineFunc {
	return func(header []byte, target *big.Int, min, max uint32) (uint32, bool) {
		buf := make([]byte, len(header))
		copy(buf, header)
		for n := min; ; n++ {
			putNonce(buf, n)
			h, err := primitives.IdentityHash(version, buf)
			if err != nil {
				log.Errorf("identity hash failed: %v", err)
				return 0, false
			}
			if primitives.HashToBig(h).Cmp(target) <= 0 {
				return n, true
			}
			if n == max-1 || n == maxNonce {
				return 0, false
			}
		}
	}
}

// putNonce writes the little-endian nonce into the trailing 4 bytes of a
// serialized 80-byte header.
func putNonce(header []byte, nonce uint32) {
	off := len(header) - 4
	header[off] = byte(nonce)
	header[off+1] = byte(nonce >> 8)
	header[off+2] = byte(nonce >> 16)
	header[off+3] = byte(nonce >> 24)
}
