// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocktemplate

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/shell-reserve/stakecore/kernel"
)

func testCoinbase() *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
		SignatureScript:  []byte{0x01},
	})
	tx.AddTxOut(&wire.TxOut{Value: 50_0000_0000, PkScript: []byte{0x51}})
	return tx
}

func testTip() kernel.TipSnapshot {
	return kernel.TipSnapshot{
		Height:        99,
		PrevBlockHash: chainhash.Hash{0xaa},
		Timestamp:     1700000000,
		Bits:          0x1d00ffff,
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	root := chainhash.Hash{0x01, 0x02}
	prev := chainhash.Hash{0x03, 0x04}
	data := SerializeHeader(7, prev, root, 1234, 0x1d00ffff, 99)
	require.Len(t, data, HeaderSize)

	h, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, int32(7), h.Version)
	assert.Equal(t, prev, h.PrevBlock)
	assert.Equal(t, root, h.MerkleRoot)
	assert.Equal(t, uint32(1234), h.Timestamp)
	assert.Equal(t, uint32(0x1d00ffff), h.Bits)
	assert.Equal(t, uint32(99), h.Nonce)
}

func TestParseHeaderMalformed(t *testing.T) {
	_, err := ParseHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, ProofPow, DetectKind(6, 7))
	assert.Equal(t, ProofStake, DetectKind(7, 7))
	assert.Equal(t, ProofStake, DetectKind(8, 7))
}

func TestTemplateNewSeedsFromTip(t *testing.T) {
	tip := testTip()
	tmpl := New(tip, 1, testCoinbase(), []byte("shell"), nil)
	assert.Equal(t, tip.PrevBlockHash, tmpl.PrevBlock)
	assert.Equal(t, tip.Bits, tmpl.Bits)
	assert.Len(t, tmpl.Txs, 1)
	assert.NotEqual(t, chainhash.Hash{}, tmpl.MerkleRoot)
}

func TestTemplateAddTxPolicyRejects(t *testing.T) {
	tmpl := New(testTip(), 1, testCoinbase(), []byte("shell"), rejectAllPolicy{})
	err := tmpl.AddTx(wire.NewMsgTx(wire.TxVersion))
	var polErr *PolicyError
	require.ErrorAs(t, err, &polErr)
}

func TestTemplateGetProofChangesMerkleRoot(t *testing.T) {
	tmpl := New(testTip(), 1, testCoinbase(), []byte("shell"), nil)
	before := tmpl.MerkleRoot

	_, err := tmpl.GetProof(1, 0, 0)
	require.NoError(t, err)
	after := tmpl.MerkleRoot
	assert.NotEqual(t, before, after)
}

func TestTemplateCommitIsSingleShot(t *testing.T) {
	tmpl := New(testTip(), 1, testCoinbase(), []byte("shell"), nil)
	proof, err := tmpl.GetProof(1, 0, 42)
	require.NoError(t, err)

	block, err := tmpl.Commit(proof, 1700000100)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint32(42), block.Header.Nonce)

	_, err = tmpl.Commit(proof, 1700000100)
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
}

func TestTemplateCommitCoinstakeIsSingleShot(t *testing.T) {
	tmpl := New(testTip(), 7, testCoinbase(), []byte("shell"), nil)
	coinstake := wire.NewMsgTx(wire.TxVersion)
	coinstake.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{0x9}, Index: 0}})
	coinstake.AddTxOut(&wire.TxOut{})

	block, err := tmpl.CommitCoinstake(1700000016, coinstake)
	require.NoError(t, err)
	require.Len(t, block.Transactions, 2)
	assert.Equal(t, uint32(1700000016), uint32(block.Header.Timestamp.Unix()))

	_, err = tmpl.CommitCoinstake(1700000032, coinstake)
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
}

type rejectAllPolicy struct{}

func (rejectAllPolicy) Validate(tx *wire.MsgTx) error {
	return assertError{"rejected"}
}

type assertError struct{ s string }

func (e assertError) Error() string { return e.s }
