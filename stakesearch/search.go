// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stakesearch implements the PoS path of §4.5: a time-quantized
// search over the wallet's spendable coins, rather than a nonce
// enumeration. It calls into the kernel package for the predicate and
// into the chain/wallet collaborator interfaces for coin lookups and
// signing, but never reads the OS clock directly — the clock is injected
// so tests can drive virtual time.
package stakesearch

import (
	"errors"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/chain"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/shell-reserve/stakecore/miningjob"
	"github.com/shell-reserve/stakecore/primitives"
	"github.com/shell-reserve/stakecore/wallet"
)

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

// timeGrid is the stake-time quantization granularity, in seconds (§6).
const timeGrid = 16

// quantize truncates a Unix timestamp down to the 16-second grid, the
// "now AND NOT 15" rule of §4.5.
func quantize(t time.Time) uint32 {
	return uint32(t.Unix()) &^ (timeGrid - 1)
}

// ErrNoEligibleCoin is returned when job is destroyed before any coin
// satisfies the kernel, distinguishing cancellation from a found result.
var ErrNoEligibleCoin = errors.New("stakesearch: job destroyed before a coin matched")

// Search runs the PoS path of §4.5 against job until a coin's kernel
// succeeds or job is destroyed. minConfirmations and opts gate and tune
// the kernel check exactly as kernel.Evaluate does. clock is the sole
// wall-clock read; tests supply a deterministic one.
//
// On success it returns the signed block, ready for chain.Add.
func Search(
	job *miningjob.Job,
	prev kernel.TipSnapshot,
	blkBits uint32,
	coinSource func() ([]*kernel.Coin, error),
	chainStore chain.Chain,
	w wallet.Wallet,
	minConfirmations int32,
	opts *kernel.Options,
	clock func() time.Time,
	sleep func(time.Duration),
) (*blocktemplate.Block, chainhash.Hash, error) {
	var lastNTime uint32

	for {
		if job.Destroyed() {
			return nil, chainhash.Hash{}, ErrNoEligibleCoin
		}

		now := clock()
		nTime := quantize(now)
		if nTime == lastNTime {
			sleep(100 * time.Millisecond)
			continue
		}
		lastNTime = nTime

		coins, err := coinSource()
		if err != nil {
			return nil, chainhash.Hash{}, err
		}
		kernel.SortCoins(coins)

		for _, coin := range coins {
			if job.Destroyed() {
				return nil, chainhash.Hash{}, ErrNoEligibleCoin
			}

			prevTx, err := chainStore.GetCoins(coin.Hash)
			if err != nil {
				log.Debugf("stake search: skipping coin %s: %v", coin.Hash, err)
				continue
			}
			if prevTx.Height != coin.Height {
				log.Debugf("stake search: coin %s height mismatch, skipping stale record", coin.Hash)
				continue
			}

			ok, kernelHash := kernel.Evaluate(&prev, blkBits, coin, coin.Out(), nTime, minConfirmations, opts)
			if !ok {
				continue
			}

			block, err := finish(job, coin, nTime, w)
			if err == nil {
				block.KernelHash = &kernelHash
			}
			return block, kernelHash, err
		}
	}
}

// finish builds the coinstake for the winning coin, commits it into the
// job's template, re-signs it, and produces the canonical block signature
// (§4.5 steps 1-3).
func finish(job *miningjob.Job, coin *kernel.Coin, nTime uint32, w wallet.Wallet) (*blocktemplate.Block, error) {
	coinstake := buildCoinstake(coin)

	tb, err := job.CommitCoinstakeTime(nTime, coinstake)
	if err != nil {
		return nil, err
	}

	if err := w.Sign(tb.Transactions[1]); err != nil {
		return nil, err
	}

	blockHash := tb.Header.BlockHash()
	key, err := w.GetPrivateKey(coin.Script)
	if err != nil {
		return nil, err
	}
	tb.Signature = primitives.SignCanonical(blockHash[:], key)

	return tb, nil
}

// buildCoinstake constructs the coinstake transaction spending coin: one
// input at coin's outpoint, one output returning value to coin's own
// locking script. Re-signed by the wallet immediately after.
func buildCoinstake(coin *kernel.Coin) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: coin.Hash, Index: coin.Index},
	})
	tx.AddTxOut(&wire.TxOut{
		Value:    coin.Value,
		PkScript: coin.Script,
	})
	return tx
}
