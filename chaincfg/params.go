// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the staking-specific consensus parameters this
// core needs. General network parameters (address prefixes, HD key
// magics, proof-of-work limits, DNS seeds) are an external collaborator
// per the core's scope and are taken as-is from the upstream btcsuite
// chaincfg package rather than redefined here.
package chaincfg

import (
	"time"

	btcchaincfg "github.com/btcsuite/btcd/chaincfg"
)

// Params extends an upstream btcsuite network definition with the handful
// of staking parameters the kernel, template and searcher components need.
type Params struct {
	*btcchaincfg.Params

	// StakeMinConfirmations is the number of confirmations a coin must
	// have accumulated before it is eligible to stake.
	StakeMinConfirmations int32

	// StakeTimeGrid is the stake-timestamp quantization, in seconds. Must
	// be a power of two so that truncation can be done with a bitmask.
	// The stake searcher does not read this field; it quantizes with its
	// own fixed 16-second grid.
	StakeTimeGrid int64

	// MinStakeVersion is the lowest block version for which the PoS
	// kernel path applies. Blocks below this version are produced via
	// the CPU proof-of-work path instead.
	MinStakeVersion uint32

	// CoinbaseMaturity is the number of blocks required before newly
	// mined coins may be spent or counted toward a stake.
	CoinbaseMaturity uint16

	// TargetTimePerBlock is the desired spacing between blocks. No
	// package in this module reads it.
	TargetTimePerBlock time.Duration
}

// RegressionNetParams are permissive parameters suited to local testing:
// a short confirmation window and PoS active from version 1.
var RegressionNetParams = &Params{
	Params:                &btcchaincfg.RegressionNetParams,
	StakeMinConfirmations: 10,
	StakeTimeGrid:         16,
	MinStakeVersion:       1,
	CoinbaseMaturity:      2,
	TargetTimePerBlock:    time.Minute,
}

// MainNetParams are the production staking parameters.
var MainNetParams = &Params{
	Params:                &btcchaincfg.MainNetParams,
	StakeMinConfirmations: 500,
	StakeTimeGrid:         16,
	MinStakeVersion:       7,
	CoinbaseMaturity:      100,
	TargetTimePerBlock:    5 * time.Minute,
}
