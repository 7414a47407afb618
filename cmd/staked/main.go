// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command staked wires the staking core against in-process reference
// implementations of the chain, wallet, and mempool collaborators. It
// exists to exercise the core end-to-end; a production deployment
// replaces chain.Chain and wallet.Wallet with real backends over the
// same interfaces.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/chain"
	"github.com/shell-reserve/stakecore/kernel"
	"github.com/shell-reserve/stakecore/mempool"
	"github.com/shell-reserve/stakecore/staker"
	"github.com/shell-reserve/stakecore/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		return fmt.Errorf("failed to init log rotator: %w", err)
	}
	useLoggers()
	setLogLevels(cfg.DebugLevel)

	paramsCopy := *cfg.chainParams()
	params := &paramsCopy
	if cfg.MinConfirmations >= 0 {
		params.StakeMinConfirmations = cfg.MinConfirmations
	}

	genesisTip := kernel.TipSnapshot{
		Height:        0,
		PrevBlockHash: chainhash.Hash{},
		Bits:          0x1d00ffff,
	}
	nextHash := func(prev chainhash.Hash, block *blocktemplate.Block) chainhash.Hash {
		return block.Header.BlockHash()
	}
	memChain := chain.NewMemoryChain(genesisTip, nextHash)
	memWallet := wallet.NewMemoryWallet()
	notifier := mempool.NewMemoryNotifier()

	build := func(tip kernel.TipSnapshot) (*blocktemplate.Template, error) {
		coinbase := wire.NewMsgTx(wire.TxVersion)
		coinbase.AddTxIn(&wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript:  []byte{0x01},
		})
		coinbase.AddTxOut(&wire.TxOut{Value: 50_0000_0000, PkScript: []byte{0x51}})
		return blocktemplate.New(tip, 1, coinbase, []byte("stakecore"), nil), nil
	}

	s := staker.New(memChain, memWallet, notifier, params, build, cfg.Account, &kernel.Options{UseBlockBits: cfg.UseBlockBits})

	go logEvents(s)

	if err := s.Start(); err != nil {
		return err
	}
	log.Infof("staker started (account=%s)", cfg.Account)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down")
	return s.Stop()
}

// logEvents drains the staker's event channel for as long as the process
// runs, translating block/status/error events into log lines.
func logEvents(s *staker.Staker) {
	for ev := range s.Events() {
		switch ev.Kind {
		case staker.EventBlock:
			log.Infof("block accepted height=%d hash=%s", ev.Entry.Height, ev.Entry.Hash)
		case staker.EventStatus:
			log.Debugf("hashrate=%.0f h/s", ev.Rate)
		case staker.EventError:
			log.Errorf("staker error: %v", ev.Err)
		}
	}
}
