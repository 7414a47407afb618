// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package miningjob wraps a single block-template attempt: the extra-nonce
// counters, the one-shot destroy/commit flags, and the hashrate telemetry
// a searcher reports while it works the job. A Job is created fresh on top
// of one chain tip and is never reused across tips (§3 "Mining Job").
package miningjob

import (
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
)

// Job is one live attempt at solving a Template. Safe for concurrent use
// by a searcher and the supervisor that may destroy it from another
// goroutine on a tip-change or stale-mempool event.
type Job struct {
	Template *blocktemplate.Template

	start time.Time

	destroyed int32 // atomic bool
	committed int32 // atomic bool

	n1, n2 uint32
}

// New wraps template in a fresh Job, timestamped at creation.
func New(template *blocktemplate.Template) *Job {
	return &Job{Template: template, start: currentTime()}
}

// currentTime is the sole wall-clock read in this package, kept as a var
// so tests can override it rather than reading the OS clock directly, per
// the source's injectable-clock guidance.
var currentTime = time.Now

// PrevBlock reports the hash this job's template was built on, the value
// the supervisor compares against an incoming tip's prevBlock.
func (j *Job) PrevBlock() chainhash.Hash {
	return j.Template.PrevBlock
}

// Start returns the creation timestamp, used by the supervisor's
// stale-mempool rule (§4.6: destroy a job whose start is >10s old).
func (j *Job) Start() time.Time {
	return j.start
}

// Destroyed reports whether Destroy has been called. Checked at every
// suspension point a searcher passes through.
func (j *Job) Destroyed() bool {
	return atomic.LoadInt32(&j.destroyed) != 0
}

// Destroy marks the job destroyed. It is one-shot: calling it twice is a
// programming error and panics, per §3's "second destroy is a programming
// error" invariant. Use TryDestroy where more than one caller may race to
// destroy the same job (tip invalidation racing a supervisor stop).
func (j *Job) Destroy() {
	if !atomic.CompareAndSwapInt32(&j.destroyed, 0, 1) {
		panic("miningjob: Destroy called twice")
	}
}

// TryDestroy destroys the job if it is not already destroyed, reporting
// whether this call was the one that did so. Unlike Destroy, a losing
// race is not a programming error: the supervisor's reactive-invalidation
// paths and its own stop path may legitimately race to destroy the same
// job.
func (j *Job) TryDestroy() bool {
	return atomic.CompareAndSwapInt32(&j.destroyed, 0, 1)
}

// updateNonce advances the extra-nonce pair: n2 increments, and on
// overflow at 2^32 it resets to zero while n1 increments (§4.3).
func (j *Job) updateNonce() {
	j.n2++
	if j.n2 == 0 {
		j.n1++
	}
}

// ExtraNonce returns the current (n1, n2) pair.
func (j *Job) ExtraNonce() (n1, n2 uint32) {
	return j.n1, j.n2
}

// AdvanceExtraNonce is the exported form of updateNonce for callers
// driving the nonce searcher loop.
func (j *Job) AdvanceExtraNonce() {
	j.updateNonce()
}

// RollExtraNonce advances the extra-nonce pair and re-embeds it into the
// template's coinbase, recomputing the merkle root the header nonce search
// restarts against. This is the "mine exhausted every slice" boundary of
// §4.4/§8: the searcher reports the whole 32-bit nonce space tried and
// missed, and the job rolls its extra nonce rather than being rebuilt from
// a fresh template.
func (j *Job) RollExtraNonce() error {
	j.updateNonce()
	_, err := j.Template.GetProof(j.n1, j.n2, 0)
	return err
}

// GetHashes reports the total hash count implied by the current
// extra-nonce pair and a header nonce, per §4.3:
// (n1*2^32 + n2)*2^32 + nonce.
func (j *Job) GetHashes(nonce uint32) uint64 {
	return (uint64(j.n1)<<32+uint64(j.n2))<<32 + uint64(nonce)
}

// GetRate reports hashes per second implied by GetHashes and the job's
// elapsed wall-clock age. Returns 0 if no time has elapsed yet.
func (j *Job) GetRate(nonce uint32) float64 {
	elapsed := currentTime().Sub(j.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(j.GetHashes(nonce)) / elapsed
}

// GetHeader returns the canonical 80-byte header for the current template
// state, root, timestamp, and nonce.
func (j *Job) GetHeader(ts, nonce uint32) []byte {
	return j.Template.GetHeader(j.Template.MerkleRoot, ts, nonce)
}

// Commit finalizes the job's template with a PoW proof at the given
// nonce and timestamp. Fails if the job was destroyed or already
// committed (§3, §7 "JobDestroyed").
func (j *Job) Commit(ts, nonce uint32) (*blocktemplate.Block, error) {
	if j.Destroyed() {
		return nil, ErrJobDestroyed
	}
	if !atomic.CompareAndSwapInt32(&j.committed, 0, 1) {
		return nil, blocktemplate.ErrAlreadyCommitted
	}
	n1, n2 := j.ExtraNonce()
	proof, err := j.Template.GetProof(n1, n2, nonce)
	if err != nil {
		return nil, err
	}
	return j.Template.Commit(proof, ts)
}

// CommitCoinstakeTime finalizes the job's template with the PoS path:
// installs coinstake and quantized nTime. Fails if the job was destroyed
// or already committed.
func (j *Job) CommitCoinstakeTime(nTime uint32, coinstake *wire.MsgTx) (*blocktemplate.Block, error) {
	if j.Destroyed() {
		return nil, ErrJobDestroyed
	}
	if !atomic.CompareAndSwapInt32(&j.committed, 0, 1) {
		return nil, blocktemplate.ErrAlreadyCommitted
	}
	return j.Template.CommitCoinstake(nTime, coinstake)
}

// ErrJobDestroyed signals a normal early return from Commit/CommitCoinstakeTime
// on a destroyed job; it is not a failure (§7 "JobDestroyed").
var ErrJobDestroyed = jobError("miningjob: job destroyed")

type jobError string

func (e jobError) Error() string { return string(e) }
