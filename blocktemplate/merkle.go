// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocktemplate

import (
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// calcMerkleRoot computes the merkle root over txs. Merkle computation is
// an external, pure-function primitive out of scope for this package; it
// is consumed directly from btcd's blockchain package rather than
// reimplemented.
func calcMerkleRoot(txs []*btcutil.Tx) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.Hash{}
	}
	return blockchain.CalcMerkleRoot(txs, false)
}

// timestampFromUint32 converts a wire-format Unix timestamp to the
// time.Time wire.BlockHeader expects.
func timestampFromUint32(ts uint32) time.Time {
	return time.Unix(int64(ts), 0)
}
