// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlock() *blocktemplate.Block {
	header := &wire.BlockHeader{}
	return &blocktemplate.Block{MsgBlock: wire.NewMsgBlock(header)}
}

func trivialNextHash(prev chainhash.Hash, block *blocktemplate.Block) chainhash.Hash {
	return chainhash.HashH(prev[:])
}

func TestMemoryChainAddWithoutKernelHashLeavesModifierUnchanged(t *testing.T) {
	tip := kernel.TipSnapshot{Height: 5, StakeModifier: [32]byte{0x7}}
	c := NewMemoryChain(tip, trivialNextHash)

	entry, err := c.Add(testBlock())
	require.NoError(t, err)
	assert.Equal(t, int32(6), entry.Height)
	assert.Equal(t, tip.StakeModifier, c.Tip().StakeModifier)
}

func TestMemoryChainAddWithKernelHashRollsModifierForward(t *testing.T) {
	prevModifier := [32]byte{0x7}
	tip := kernel.TipSnapshot{Height: 5, StakeModifier: prevModifier}
	c := NewMemoryChain(tip, trivialNextHash)

	kh := chainhash.HashH([]byte("kernel"))
	block := testBlock()
	block.KernelHash = &kh

	_, err := c.Add(block)
	require.NoError(t, err)

	want := kernel.NextStakeModifier(kh, prevModifier)
	assert.Equal(t, want, c.Tip().StakeModifier)
}
