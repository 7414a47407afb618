// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blocktemplate implements the mutable draft of the next block:
// header fields, transaction list, coinbase/coinstake slots, and the
// refresh/commit operations described in §4.2. A Template is mutable
// while a job owns it and frozen the instant it is committed.
package blocktemplate

import (
	"encoding/binary"
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/kernel"
)

// ErrAlreadyCommitted is returned by Commit/CommitCoinstake on a template
// that has already produced a block.
var ErrAlreadyCommitted = errors.New("blocktemplate: already committed")

// Policy validates a transaction before it is added to a template by
// addTx. PushTx appends without consulting it.
type Policy interface {
	Validate(tx *wire.MsgTx) error
}

// PolicyError wraps a Policy rejection, surfaced to the caller of AddTx
// per §7; the supervisor loop never sees it because the template builder
// that calls AddTx is trusted.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return "template: policy violation: " + e.Reason }

// extraNonceSize is the width, in bytes, reserved for each of the two
// extra-nonce counters inside the coinbase's signature script.
const extraNonceSize = 4

// Template is the mutable draft described in §3/§4.2.
type Template struct {
	Version    int32
	PrevBlock  chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	MerkleRoot chainhash.Hash

	// Txs[0] is always the coinbase. Txs[1] is the coinstake slot,
	// present only once a PoS path has installed it via CommitCoinstake.
	Txs []*wire.MsgTx

	// extraNonceOffset is the byte offset within Txs[0]'s signature
	// script where the 8-byte (n1, n2) pair lives.
	extraNonceOffset int

	policy    Policy
	committed bool
}

// New builds a fresh template on top of tip, with a coinbase transaction
// already in slot zero. coinbaseFlags is arbitrary miner-identifying data
// (à la BIP34-style tagging); an 8-byte extra-nonce slot is appended after
// it and is mutable via GetProof.
func New(tip kernel.TipSnapshot, version int32, coinbase *wire.MsgTx, coinbaseFlags []byte, policy Policy) *Template {
	coinbase.TxIn[0].SignatureScript = append(append([]byte{}, coinbaseFlags...), make([]byte, 2*extraNonceSize)...)

	t := &Template{
		Version:   version,
		PrevBlock: tip.PrevBlockHash,
		Timestamp: uint32(tip.Timestamp),
		Bits:      tip.Bits,
		Txs:       []*wire.MsgTx{coinbase},
		policy:    policy,
	}
	t.extraNonceOffset = len(coinbaseFlags)
	t.Refresh()
	return t
}

// AddTx validates tx against the template's policy and appends it,
// failing with a *PolicyError on violation (§4.2).
func (t *Template) AddTx(tx *wire.MsgTx) error {
	if t.committed {
		return ErrAlreadyCommitted
	}
	if t.policy != nil {
		if err := t.policy.Validate(tx); err != nil {
			return &PolicyError{Reason: err.Error()}
		}
	}
	t.Txs = append(t.Txs, tx)
	t.Refresh()
	return nil
}

// PushTx appends tx without policy validation. It does nothing on a
// committed template. The coinstake is not installed through PushTx:
// CommitCoinstake places it at Txs[1] itself.
func (t *Template) PushTx(tx *wire.MsgTx) {
	if t.committed {
		return
	}
	t.Txs = append(t.Txs, tx)
	t.Refresh()
}

// Refresh resets derived caches: the merkle root over the current Txs.
// Merkle computation is an external, pure-function primitive per §1; it
// is consumed from btcd's blockchain package, not rederived here.
func (t *Template) Refresh() {
	btxs := make([]*btcutil.Tx, len(t.Txs))
	for i, tx := range t.Txs {
		btxs[i] = btcutil.NewTx(tx)
	}
	t.MerkleRoot = calcMerkleRoot(btxs)
}

// GetHeader returns the 80-byte canonical header serialization for the
// given (root, ts, nonce), independent of whatever is currently cached on
// the template — callers searching a nonce range call this repeatedly.
func (t *Template) GetHeader(root chainhash.Hash, ts, nonce uint32) []byte {
	return SerializeHeader(t.Version, t.PrevBlock, root, ts, t.Bits, nonce)
}

// GetProof rebuilds the coinbase with the given extra-nonce pair,
// recomputes the merkle root, and returns a PoW Proof ready for Commit.
// Embedding (n1, n2) in the coinbase and re-deriving the root is the
// degree of freedom described in §4.3/§4.4 beyond the 32-bit header nonce.
func (t *Template) GetProof(n1, n2, nonce uint32) (*Proof, error) {
	if t.committed {
		return nil, ErrAlreadyCommitted
	}
	t.setExtraNonce(n1, n2)
	t.Refresh()
	return &Proof{Kind: ProofPow, Nonce: nonce}, nil
}

func (t *Template) setExtraNonce(n1, n2 uint32) {
	script := t.Txs[0].TxIn[0].SignatureScript
	off := t.extraNonceOffset
	binary.LittleEndian.PutUint32(script[off:off+extraNonceSize], n1)
	binary.LittleEndian.PutUint32(script[off+extraNonceSize:off+2*extraNonceSize], n2)
}

// Commit is the PoW commit path of §4.2: single-shot, freezes the
// template, and produces the finished block.
func (t *Template) Commit(proof *Proof, ts uint32) (*Block, error) {
	if t.committed {
		return nil, ErrAlreadyCommitted
	}
	if proof == nil || proof.Kind != ProofPow {
		return nil, errors.New("blocktemplate: Commit requires a PoW proof")
	}
	t.committed = true
	t.Timestamp = ts

	header := &wire.BlockHeader{
		Version:    t.Version,
		PrevBlock:  t.PrevBlock,
		MerkleRoot: t.MerkleRoot,
		Timestamp:  timestampFromUint32(ts),
		Bits:       t.Bits,
		Nonce:      proof.Nonce,
	}
	msg := wire.NewMsgBlock(header)
	for _, tx := range t.Txs {
		if err := msg.AddTransaction(tx); err != nil {
			return nil, err
		}
	}
	log.Debugf("template: committed PoW block nonce=%d txs=%d", proof.Nonce, len(t.Txs))
	return &Block{MsgBlock: msg}, nil
}

// CommitCoinstake is the PoS commit path of §4.2: installs the coinstake
// as Txs[1], sets the header timestamp to the already-quantized nTime,
// recomputes the merkle root, and returns the unsigned block for the
// caller to sign (stake searcher step 2/3 in §4.5).
func (t *Template) CommitCoinstake(nTime uint32, coinstake *wire.MsgTx) (*Block, error) {
	if t.committed {
		return nil, ErrAlreadyCommitted
	}
	if len(t.Txs) < 1 {
		return nil, errors.New("blocktemplate: template has no coinbase")
	}
	t.committed = true
	t.Timestamp = nTime

	// Txs[1] is reserved for the coinstake; any mempool transactions
	// already appended must shift to make room.
	rest := t.Txs[1:]
	t.Txs = append([]*wire.MsgTx{t.Txs[0], coinstake}, rest...)
	t.Refresh()

	header := &wire.BlockHeader{
		Version:    t.Version,
		PrevBlock:  t.PrevBlock,
		MerkleRoot: t.MerkleRoot,
		Timestamp:  timestampFromUint32(nTime),
		Bits:       t.Bits,
		Nonce:      0,
	}
	msg := wire.NewMsgBlock(header)
	for _, tx := range t.Txs {
		if err := msg.AddTransaction(tx); err != nil {
			return nil, err
		}
	}
	log.Debugf("template: committed coinstake block nTime=%d txs=%d", nTime, len(t.Txs))
	return &Block{MsgBlock: msg}, nil
}

// Committed reports whether this template has already produced a block.
func (t *Template) Committed() bool { return t.committed }
