// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain declares the external collaborator contract the staking
// core requires of the chain store: a tip snapshot, block submission, tip
// change notification, and coin lookups. Per the core's scope, consensus
// validation, fork choice, and persistence all live on the other side of
// this interface — this package never implements them, only consumes them.
package chain

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/kernel"
)

// Entry is what a successful Add returns: where the submitted block
// landed in the chain the store maintains.
type Entry struct {
	Height int32
	Hash   chainhash.Hash
}

// VerifyError is returned by Add when a submitted block fails consensus
// validation. It is never a programming error and is always handled by
// logging and continuing the staking loop (§7).
type VerifyError struct {
	Reason string
}

func (e *VerifyError) Error() string { return "verify error: " + e.Reason }

// ErrNoCoins is returned by GetCoins when the referenced transaction is
// unknown to the chain store.
var ErrNoCoins = errors.New("chain: no such transaction")

// PrevTx is the previous transaction backing a coin being evaluated by the
// stake searcher, as returned by GetCoins.
type PrevTx struct {
	Hash   chainhash.Hash
	Height int32
	NTime  uint32
}

// Chain is the external collaborator contract described in §6. Callers
// never hold a Chain's internal locks; every method call is treated as
// atomic at the boundary.
type Chain interface {
	// Tip returns the current best-chain snapshot.
	Tip() kernel.TipSnapshot

	// Add submits a mined or staked block. A nil Entry with a nil error
	// means a race: a sibling block was accepted first and this one was
	// silently superseded. A non-nil error is always a *VerifyError. When
	// block.KernelHash is set (a PoS block), an accepting implementation
	// rolls the stake modifier forward via kernel.NextStakeModifier.
	Add(block *blocktemplate.Block) (*Entry, error)

	// Subscribe returns a channel that receives a new snapshot each time
	// the tip changes. The channel is never closed by the implementation
	// while the chain is running.
	Subscribe() <-chan kernel.TipSnapshot

	// GetCoins looks up the previous transaction a coin spends.
	GetCoins(txHash chainhash.Hash) (*PrevTx, error)
}
