// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/kernel"
)

// MemoryChain is a minimal in-process Chain used by tests and by the
// cmd/staked demo entrypoint. It accepts every submitted block as the next
// block on top of the current tip, without checking the block's header
// (not even its prevBlock), and never rejects on consensus grounds; it
// exists to exercise the staking core, not to validate blocks.
type MemoryChain struct {
	mu       sync.Mutex
	tip      kernel.TipSnapshot
	coins    map[chainhash.Hash]*PrevTx
	subs     []chan kernel.TipSnapshot
	nextHash func(prev chainhash.Hash, block *blocktemplate.Block) chainhash.Hash
}

// NewMemoryChain creates a chain seeded at the given tip. nextHash derives
// the identity hash of an accepted block; tests typically pass a trivial
// function since the staking core, not this fake, is under test.
func NewMemoryChain(tip kernel.TipSnapshot, nextHash func(chainhash.Hash, *blocktemplate.Block) chainhash.Hash) *MemoryChain {
	return &MemoryChain{
		tip:      tip,
		coins:    make(map[chainhash.Hash]*PrevTx),
		nextHash: nextHash,
	}
}

// PutCoins registers the previous transaction for a hash so GetCoins can
// resolve it.
func (m *MemoryChain) PutCoins(hash chainhash.Hash, tx *PrevTx) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins[hash] = tx
}

func (m *MemoryChain) Tip() kernel.TipSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tip
}

func (m *MemoryChain) Add(block *blocktemplate.Block) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := m.nextHash(m.tip.PrevBlockHash, block)
	entry := &Entry{Height: m.tip.Height + 1, Hash: hash}

	modifier := m.tip.StakeModifier
	if block.KernelHash != nil {
		modifier = kernel.NextStakeModifier(*block.KernelHash, modifier)
	}

	next := kernel.TipSnapshot{
		Height:        entry.Height,
		PrevBlockHash: hash,
		Timestamp:     m.tip.Timestamp,
		Bits:          m.tip.Bits,
		StakeModifier: modifier,
	}
	m.tip = next
	log.Debugf("chain: accepted block height=%d hash=%s", entry.Height, entry.Hash)

	for _, sub := range m.subs {
		select {
		case sub <- next:
		default:
		}
	}
	return entry, nil
}

func (m *MemoryChain) Subscribe() <-chan kernel.TipSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan kernel.TipSnapshot, 4)
	m.subs = append(m.subs, ch)
	return ch
}

func (m *MemoryChain) GetCoins(txHash chainhash.Hash) (*PrevTx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.coins[txHash]
	if !ok {
		return nil, ErrNoCoins
	}
	return tx, nil
}
