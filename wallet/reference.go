// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/kernel"
)

// ErrUnknownScript is returned when no key is registered for a locking
// script.
var ErrUnknownScript = errors.New("wallet: no key for script")

type outpointKey struct {
	hash  [32]byte
	index uint32
}

// MemoryWallet is a minimal in-process Wallet keyed by locking script,
// sufficient to drive the stake searcher in tests without a real keyring.
type MemoryWallet struct {
	mu      sync.Mutex
	coins   map[string][]*kernel.Coin
	keys    map[string]*btcec.PrivateKey
	scripts map[outpointKey][]byte
}

// NewMemoryWallet returns an empty wallet.
func NewMemoryWallet() *MemoryWallet {
	return &MemoryWallet{
		coins:   make(map[string][]*kernel.Coin),
		keys:    make(map[string]*btcec.PrivateKey),
		scripts: make(map[outpointKey][]byte),
	}
}

// AddCoin registers a coin under the given staking account and binds its
// locking script to the key that can spend it.
func (w *MemoryWallet) AddCoin(account string, coin *kernel.Coin, key *btcec.PrivateKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coins[account] = append(w.coins[account], coin)
	w.keys[string(coin.Script)] = key
	w.scripts[outpointKey{hash: coin.Hash, index: coin.Index}] = coin.Script
}

func (w *MemoryWallet) CoinsOfAccount(account string) ([]*kernel.Coin, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*kernel.Coin, len(w.coins[account]))
	copy(out, w.coins[account])
	return out, nil
}

func (w *MemoryWallet) GetPrivateKey(script []byte) (*btcec.PrivateKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key, ok := w.keys[string(script)]
	if !ok {
		return nil, ErrUnknownScript
	}
	return key, nil
}

// Sign attaches a standard signature script to every input of mtx whose
// previous output this wallet recognizes, resolving each input's locking
// script from the coin it spends (mtx.TxIn[i].PreviousOutPoint must
// already be set).
func (w *MemoryWallet) Sign(mtx *wire.MsgTx) error {
	for i, in := range mtx.TxIn {
		w.mu.Lock()
		script, ok := w.scripts[outpointKey{hash: in.PreviousOutPoint.Hash, index: in.PreviousOutPoint.Index}]
		w.mu.Unlock()
		if !ok {
			log.Debugf("wallet: no script for input %d, leaving unsigned", i)
			continue
		}
		key, err := w.GetPrivateKey(script)
		if err != nil {
			return err
		}
		sigScript, err := txscript.SignatureScript(mtx, i, script, txscript.SigHashAll, key, true)
		if err != nil {
			return err
		}
		in.SignatureScript = sigScript
	}
	return nil
}
