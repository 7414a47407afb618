// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miningjob

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate() *blocktemplate.Template {
	tip := kernel.TipSnapshot{
		Height:        10,
		PrevBlockHash: chainhash.Hash{0x1},
		Bits:          0x1d00ffff,
	}
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{SignatureScript: []byte{0x1}})
	coinbase.AddTxOut(&wire.TxOut{Value: 1, PkScript: []byte{0x51}})
	return blocktemplate.New(tip, 1, coinbase, []byte("x"), nil)
}

func TestJobDestroyTwicePanics(t *testing.T) {
	j := New(testTemplate())
	j.Destroy()
	assert.True(t, j.Destroyed())
	assert.Panics(t, func() { j.Destroy() })
}

func TestJobCommitAfterDestroyFails(t *testing.T) {
	j := New(testTemplate())
	j.Destroy()
	_, err := j.Commit(100, 1)
	assert.ErrorIs(t, err, ErrJobDestroyed)
}

func TestJobCommitIsSingleShot(t *testing.T) {
	j := New(testTemplate())
	_, err := j.Commit(100, 1)
	require.NoError(t, err)

	_, err = j.Commit(100, 2)
	assert.ErrorIs(t, err, blocktemplate.ErrAlreadyCommitted)
}

func TestJobExtraNonceRollover(t *testing.T) {
	j := New(testTemplate())
	j.n2 = 0xffffffff
	j.AdvanceExtraNonce()
	n1, n2 := j.ExtraNonce()
	assert.Equal(t, uint32(1), n1)
	assert.Equal(t, uint32(0), n2)
}

func TestJobGetHashes(t *testing.T) {
	j := New(testTemplate())
	j.n1 = 1
	j.n2 = 2
	got := j.GetHashes(3)
	want := (uint64(1)<<32 + 2)<<32 + 3
	assert.Equal(t, want, got)
}

func TestJobRollExtraNonceAdvancesAndRefreshesRoot(t *testing.T) {
	j := New(testTemplate())
	before := j.Template.MerkleRoot

	require.NoError(t, j.RollExtraNonce())

	n1, n2 := j.ExtraNonce()
	assert.Equal(t, uint32(0), n1)
	assert.Equal(t, uint32(1), n2)
	assert.NotEqual(t, before, j.Template.MerkleRoot)
}

func TestJobRollExtraNonceFailsAfterCommit(t *testing.T) {
	j := New(testTemplate())
	_, err := j.Commit(100, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, j.RollExtraNonce(), blocktemplate.ErrAlreadyCommitted)
}
