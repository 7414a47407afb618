// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet declares the external collaborator contract §6 requires
// of the wallet: coin enumeration for the staking account, private key
// lookup by address, and partial-transaction signing. Credential storage
// and address derivation policy are out of scope; this package only
// consumes them.
package wallet

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/kernel"
)

// Wallet is the external collaborator contract of §6.
type Wallet interface {
	// CoinsOfAccount enumerates the spendable coins of the named staking
	// account. Confirmation filtering is the caller's responsibility
	// (kernel.Eligible), not the wallet's.
	CoinsOfAccount(account string) ([]*kernel.Coin, error)

	// GetPrivateKey returns the key authoritative for the given locking
	// script's address.
	GetPrivateKey(script []byte) (*btcec.PrivateKey, error)

	// Sign mutates mtx in place, attaching the signature(s) needed to
	// spend its inputs.
	Sign(mtx *wire.MsgTx) error
}
