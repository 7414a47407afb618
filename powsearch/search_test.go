// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package powsearch

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/shell-reserve/stakecore/miningjob"
	"github.com/shell-reserve/stakecore/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob() *miningjob.Job {
	tip := kernel.TipSnapshot{Height: 1, PrevBlockHash: chainhash.Hash{0x2}, Bits: 0x1d00ffff}
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{SignatureScript: []byte{0x1}})
	coinbase.AddTxOut(&wire.TxOut{Value: 1, PkScript: []byte{0x51}})
	tmpl := blocktemplate.New(tip, 1, coinbase, []byte("x"), nil)
	return miningjob.New(tmpl)
}

// TestSearchTrivialTarget exercises scenario 1 of §8: an all-ones target
// accepts every hash, so the very first nonce tried must win.
func TestSearchTrivialTarget(t *testing.T) {
	job := testJob()
	target := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	nonce, found := Search(job, 1, 1700000000, target, Inline(1), nil)
	require.True(t, found)
	assert.Equal(t, uint32(0), nonce)
}

// TestSearchDestroyedJobStopsImmediately exercises the abort path: a
// destroyed job must never invoke mine at all.
func TestSearchDestroyedJobStopsImmediately(t *testing.T) {
	job := testJob()
	job.Destroy()

	calls := 0
	mine := func(header []byte, target *big.Int, min, max uint32) (uint32, bool) {
		calls++
		return 0, false
	}

	_, found := Search(job, 1, 1700000000, big.NewInt(0), mine, nil)
	assert.False(t, found)
	assert.Equal(t, 0, calls)
}

func TestInlineFindsLowestNonceInSlice(t *testing.T) {
	mine := Inline(7) // sha256d path, version >= 7

	header := make([]byte, blocktemplate.HeaderSize)
	target := primitives.HashToBig(chainhash.Hash{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	nonce, found := mine(header, target, 0, 10)
	assert.True(t, found)
	assert.Equal(t, uint32(0), nonce)
}
