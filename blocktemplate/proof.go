// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocktemplate

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/kernel"
)

// ProofKind tags which of the two commit paths produced a Proof, in place
// of deriving both from a shared abstract block type (§9 "Sum types over
// inheritance"). This mirrors the teacher's AlgorithmType/DetectAlgorithm
// dispatch in mining/policy.go, retargeted from RandomX-vs-MobileX to
// PoW-vs-PoS.
type ProofKind int

const (
	// ProofUnknown is the zero value; never a valid finished proof.
	ProofUnknown ProofKind = iota
	// ProofPow tags a nonce-search solution.
	ProofPow
	// ProofStake tags a kernel-search solution.
	ProofStake
)

func (k ProofKind) String() string {
	switch k {
	case ProofPow:
		return "pow"
	case ProofStake:
		return "stake"
	default:
		return "unknown"
	}
}

// Proof is the tagged union of a finished solve attempt: either a PoW
// nonce or a PoS kernel hit, never both.
type Proof struct {
	Kind ProofKind

	// Set when Kind == ProofPow.
	Nonce uint32

	// Set when Kind == ProofStake.
	StakeTime uint32
	StakeCoin *kernel.Coin
}

// DetectKind reports which proof path a block version uses, per §4.2:
// version < minStakeVersion is always the PoW path.
func DetectKind(version int32, minStakeVersion uint32) ProofKind {
	if version >= 0 && uint32(version) >= minStakeVersion {
		return ProofStake
	}
	return ProofPow
}

// Block wraps a standard wire block with the fields a proof-of-stake chain
// attaches after assembly that standard Bitcoin wire blocks have no room
// for: the block signature over the header hash (§4.5 step 3) and, for a PoS block, the
// kernel hash that satisfied the predicate. KernelHash is nil for a PoW
// block — there is no coin/kernel evaluation on that path — and non-nil
// for a PoS block, so the chain store can roll the stake modifier forward
// on acceptance per §4.1 without recomputing the kernel hash itself.
type Block struct {
	*wire.MsgBlock
	Signature  []byte
	KernelHash *chainhash.Hash
}

// ErrNotSigned is returned by callers that require a stake block to carry
// its block signature before submission.
var ErrNotSigned = errors.New("blocktemplate: stake block missing signature")
