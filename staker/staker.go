// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package staker implements the long-running supervisor loop of §4.6: it
// creates a Template/Job pair on top of the current tip, drives the
// appropriate searcher, submits the result to the chain, and reacts to
// tip-change and stale-mempool events by cancelling the in-flight job.
//
// The supervisor never owns the chain or wallet it drives; it only holds
// the event channels and interfaces declared in their packages, per the
// source's guidance against cyclic ownership (§9 "Cyclic references").
package staker

import (
	"errors"
	"sync"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/chain"
	"github.com/shell-reserve/stakecore/chaincfg"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/shell-reserve/stakecore/mempool"
	"github.com/shell-reserve/stakecore/miningjob"
	"github.com/shell-reserve/stakecore/powsearch"
	"github.com/shell-reserve/stakecore/primitives"
	"github.com/shell-reserve/stakecore/stakesearch"
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

// state is the supervisor's idle/running/stopping machine (§3 "Supervisor State").
type state int32

const (
	idle state = iota
	running
	stopping
)

// Errors matching §7's programming-error kinds: asserted, never recovered.
var (
	ErrAlreadyRunning  = errors.New("staker: already running")
	ErrNotRunning      = errors.New("staker: not running")
	ErrAlreadyStopping = errors.New("staker: stop already in flight")
)

// jobStaleAfter is the mempool staleness window of §4.6: a job older than
// this when a new mempool entry arrives is discarded.
const jobStaleAfter = 10 * time.Second

// EventKind tags the three event kinds the supervisor emits (§6).
type EventKind int

const (
	// EventBlock reports a block accepted by the chain.
	EventBlock EventKind = iota
	// EventStatus reports periodic hashrate telemetry from the PoW path.
	EventStatus
	// EventError reports an unexpected, loop-terminating error.
	EventError
)

// Event is what Events delivers.
type Event struct {
	Kind  EventKind
	Entry *chain.Entry
	Rate  float64
	Err   error
}

// TemplateBuilder is the external block-template builder collaborator of
// §6. It takes only the tip; there is no address parameter. Supplied by
// the embedder, never implemented by this package.
type TemplateBuilder func(tip kernel.TipSnapshot) (*blocktemplate.Template, error)

// Staker is the supervisor of §4.6.
type Staker struct {
	chain    chain.Chain
	wallet   wallet.Wallet
	notifier mempool.NewEntryNotifier
	params   *chaincfg.Params
	build    TemplateBuilder
	account  string
	opts     *kernel.Options

	clock func() time.Time
	sleep func(time.Duration)

	events chan Event

	mu        sync.Mutex
	st        state
	job       *miningjob.Job
	stopCh    chan struct{}
	stoppedCh chan struct{}

	stopMu sync.Mutex
}

// New builds a Staker against the given collaborators. account selects
// which wallet coins are eligible for staking; opts tunes the kernel
// check and may be nil.
func New(c chain.Chain, w wallet.Wallet, notifier mempool.NewEntryNotifier, params *chaincfg.Params, build TemplateBuilder, account string, opts *kernel.Options) *Staker {
	return &Staker{
		chain:    c,
		wallet:   w,
		notifier: notifier,
		params:   params,
		build:    build,
		account:  account,
		opts:     opts,
		clock:    time.Now,
		sleep:    time.Sleep,
		events:   make(chan Event, 16),
	}
}

// Events returns the channel block/status/error events are delivered on.
func (s *Staker) Events() <-chan Event {
	return s.events
}

// Start begins the supervisor loop. Calling Start while already running
// is a programming error (§7 "AlreadyRunning").
func (s *Staker) Start() error {
	s.mu.Lock()
	if s.st != idle {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.st = running
	s.stopCh = make(chan struct{})
	s.stoppedCh = make(chan struct{})
	s.mu.Unlock()

	go s.watchTip()
	go s.watchMempool()
	go s.run()
	return nil
}

// Stop requests the loop to stop, destroys the in-flight job if any, and
// blocks until the loop has acknowledged the stop. At most one Stop call
// is in flight at a time (§4.6's exclusive stop lock); a concurrent
// second call returns ErrAlreadyStopping.
func (s *Staker) Stop() error {
	if !s.stopMu.TryLock() {
		return ErrAlreadyStopping
	}
	defer s.stopMu.Unlock()

	s.mu.Lock()
	if s.st == idle {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.st = stopping
	stopCh := s.stopCh
	stoppedCh := s.stoppedCh
	job := s.job
	s.mu.Unlock()

	close(stopCh)
	if job != nil {
		job.TryDestroy()
	}

	<-stoppedCh

	s.mu.Lock()
	s.st = idle
	s.mu.Unlock()
	return nil
}

func (s *Staker) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st == stopping
}

func (s *Staker) setJob(j *miningjob.Job) {
	s.mu.Lock()
	s.job = j
	s.mu.Unlock()
}

func (s *Staker) currentJob() *miningjob.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// run is the loop body of §4.6, executed on its own goroutine.
func (s *Staker) run() {
	defer close(s.stoppedCh)

	for !s.isStopping() {
		tip := s.chain.Tip()

		tmpl, err := s.build(tip)
		if err != nil {
			log.Errorf("staker: failed to build template: %v", err)
			s.sleep(time.Second)
			continue
		}

		job := miningjob.New(tmpl)
		s.setJob(job)
		// A Stop that read s.job before setJob has not seen this job;
		// destroy it here so the search below returns promptly.
		if s.isStopping() {
			job.TryDestroy()
		}

		block, err := s.drive(job, tip, tmpl)

		if job.Destroyed() {
			continue
		}
		if err != nil {
			s.emit(Event{Kind: EventError, Err: err})
			return
		}
		if block == nil {
			// drive returned neither a block nor an error (it does so
			// only for a cancelled job); rebuild against a fresh
			// tip/template.
			continue
		}

		entry, err := s.chain.Add(block)
		var verr *chain.VerifyError
		switch {
		case errors.As(err, &verr):
			log.Warnf("staker: block rejected: %v", verr)
			continue
		case err != nil:
			s.emit(Event{Kind: EventError, Err: err})
			return
		case entry == nil:
			log.Warnf("staker: bad-prevblk (race)")
			continue
		default:
			log.Infof("staker: accepted block height=%d hash=%s", entry.Height, entry.Hash)
			s.emit(Event{Kind: EventBlock, Entry: entry})
		}
	}
}

// drive dispatches to the stake or nonce searcher depending on the
// template's version, per §4.2/§4.6 step 2.
func (s *Staker) drive(job *miningjob.Job, tip kernel.TipSnapshot, tmpl *blocktemplate.Template) (*blocktemplate.Block, error) {
	kind := blocktemplate.DetectKind(tmpl.Version, s.params.MinStakeVersion)

	if kind == blocktemplate.ProofStake {
		// Search attaches the winning kernel hash to block.KernelHash; the
		// chain store reads it from there to roll the stake modifier
		// forward on acceptance (§4.1), so it needs no separate channel
		// here beyond the returned block itself.
		block, _, err := stakesearch.Search(
			job, tip, tmpl.Bits,
			func() ([]*kernel.Coin, error) { return s.wallet.CoinsOfAccount(s.account) },
			s.chain, s.wallet, int32(s.params.StakeMinConfirmations), s.opts,
			s.clock, s.sleep,
		)
		if errors.Is(err, stakesearch.ErrNoEligibleCoin) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return block, nil
	}

	target := primitives.CompactToBig(tmpl.Bits)
	mine := powsearch.Inline(tmpl.Version)
	statusFn := func(rate float64) {
		s.emit(Event{Kind: EventStatus, Rate: rate})
	}

	// The whole 32-bit nonce space exhausted with no hit rolls the job's
	// extra nonce and restarts the header search (§4.4/§8), rather than
	// rebuilding a fresh template: the job and its template stay the same,
	// only the coinbase's extra-nonce pair advances.
	for {
		nonce, found := powsearch.Search(job, tmpl.Version, uint32(tip.Timestamp), target, mine, statusFn)
		if found {
			return job.Commit(uint32(tip.Timestamp), nonce)
		}
		if job.Destroyed() {
			return nil, nil
		}
		if err := job.RollExtraNonce(); err != nil {
			return nil, err
		}
	}
}

func (s *Staker) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		log.Warnf("staker: event channel full, dropping %v", ev.Kind)
	}
}

// watchTip implements the reactive invalidation of §4.6: a new tip whose
// prevBlock matches the active job's prevBlock (a sibling-tip race, per
// §9's exact predicate) destroys that job.
func (s *Staker) watchTip() {
	sub := s.chain.Subscribe()
	for {
		select {
		case <-s.stopSignal():
			return
		case newTip, ok := <-sub:
			if !ok {
				return
			}
			job := s.currentJob()
			if job != nil && newTip.PrevBlockHash == job.PrevBlock() {
				job.TryDestroy()
			}
		}
	}
}

// watchMempool implements the stale-mempool rule of §4.6: a new mempool
// entry destroys the active job once it is more than 10 seconds old.
func (s *Staker) watchMempool() {
	sub := s.notifier.Subscribe()
	for {
		select {
		case <-s.stopSignal():
			return
		case _, ok := <-sub:
			if !ok {
				return
			}
			job := s.currentJob()
			if job != nil && s.clock().Sub(job.Start()) > jobStaleAfter {
				job.TryDestroy()
			}
		}
	}
}

// stopSignal returns the current stop channel, or a closed channel if the
// supervisor has never started (so watchers return promptly instead of
// blocking forever on a nil channel).
func (s *Staker) stopSignal() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.stopCh
}
