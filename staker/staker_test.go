// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staker

import (
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/chain"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/shell-reserve/stakecore/mempool"
	"github.com/shell-reserve/stakecore/primitives"
	"github.com/shell-reserve/stakecore/wallet"
	"github.com/stretchr/testify/require"

	shellchaincfg "github.com/shell-reserve/stakecore/chaincfg"
)

func easyTarget() uint32 {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	return primitives.BigToCompact(max)
}

func buildPowTemplate(tip kernel.TipSnapshot) (*blocktemplate.Template, error) {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{SignatureScript: []byte{0x1}})
	coinbase.AddTxOut(&wire.TxOut{Value: 1, PkScript: []byte{0x51}})
	tip.Bits = easyTarget()
	return blocktemplate.New(tip, 1, coinbase, []byte("t"), nil), nil
}

// TestStakerTrivialPowRoundTrip exercises end-to-end scenario 1 of §8: an
// all-ones target, version 1 (PoW path), single coinbase tx. Start must
// produce an accepted block event at height tip+1.
func TestStakerTrivialPowRoundTrip(t *testing.T) {
	tip := kernel.TipSnapshot{Height: 10, PrevBlockHash: chainhash.Hash{0x1}}
	nextHash := func(prev chainhash.Hash, b *blocktemplate.Block) chainhash.Hash {
		return chainhash.Hash{0x2}
	}
	mc := chain.NewMemoryChain(tip, nextHash)
	mw := wallet.NewMemoryWallet()
	mn := mempool.NewMemoryNotifier()
	params := shellchaincfg.MainNetParams // version 1 < MinStakeVersion(7) ⇒ PoW path

	s := New(mc, mw, mn, params, buildPowTemplate, "default", nil)
	require.NoError(t, s.Start())

	select {
	case ev := <-s.Events():
		require.Equal(t, EventBlock, ev.Kind)
		require.NotNil(t, ev.Entry)
		require.Equal(t, tip.Height+1, ev.Entry.Height)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for block event")
	}

	require.NoError(t, s.Stop())
}

func TestStakerStartTwiceFails(t *testing.T) {
	tip := kernel.TipSnapshot{Height: 0}
	mc := chain.NewMemoryChain(tip, func(chainhash.Hash, *blocktemplate.Block) chainhash.Hash { return chainhash.Hash{} })
	mw := wallet.NewMemoryWallet()
	mn := mempool.NewMemoryNotifier()
	params := shellchaincfg.RegressionNetParams

	s := New(mc, mw, mn, params, buildPowTemplate, "default", nil)
	require.NoError(t, s.Start())
	require.ErrorIs(t, s.Start(), ErrAlreadyRunning)
	require.NoError(t, s.Stop())
}

func TestStakerStopWhenNotRunningFails(t *testing.T) {
	mc := chain.NewMemoryChain(kernel.TipSnapshot{}, func(chainhash.Hash, *blocktemplate.Block) chainhash.Hash { return chainhash.Hash{} })
	mw := wallet.NewMemoryWallet()
	mn := mempool.NewMemoryNotifier()
	params := shellchaincfg.RegressionNetParams

	s := New(mc, mw, mn, params, buildPowTemplate, "default", nil)
	require.ErrorIs(t, s.Stop(), ErrNotRunning)
}
