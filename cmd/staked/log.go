// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
	"github.com/shell-reserve/stakecore/blocktemplate"
	"github.com/shell-reserve/stakecore/chain"
	"github.com/shell-reserve/stakecore/mempool"
	"github.com/shell-reserve/stakecore/powsearch"
	"github.com/shell-reserve/stakecore/staker"
	"github.com/shell-reserve/stakecore/stakesearch"
	"github.com/shell-reserve/stakecore/wallet"
)

// logRotator writes logged output to standard out and a file that is
// automatically rotated once it reaches a given size.
var logRotator *rotator.Rotator

const maxLogRolls = 8

// logWriter implements an io.Writer that fans writes out to both stdout
// and the rotator, matching the teacher ecosystem's standard log plumbing.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	logRotator.Write(p)
	return len(p), nil
}

// backendLog is the logging backend every package-level logger is spawned
// from.
var backendLog = btclog.NewBackend(logWriter{})

var log = backendLog.Logger("STKD")

// initLogRotator initializes the logging rotator to write logs to the
// provided file and create roll files in the same directory. It must be
// called before the package-level log rotator variable is used.
func initLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return err
	}
	r, err := rotator.New(logFile, 10*1024, false, maxLogRolls)
	if err != nil {
		return err
	}
	logRotator = r
	return nil
}

// subsystemLoggers maps each core package's name to its logger, so
// setLogLevels can configure them uniformly.
var subsystemLoggers = map[string]btclog.Logger{
	"STKD": log,
	"TMPL": backendLog.Logger("TMPL"),
	"CHAN": backendLog.Logger("CHAN"),
	"WALT": backendLog.Logger("WALT"),
	"MEMP": backendLog.Logger("MEMP"),
	"POWS": backendLog.Logger("POWS"),
	"STKS": backendLog.Logger("STKS"),
	"STKR": backendLog.Logger("STKR"),
}

// useLoggers wires each core package's logger, per the UseLogger pattern
// every package exposes.
func useLoggers() {
	blocktemplate.UseLogger(subsystemLoggers["TMPL"])
	chain.UseLogger(subsystemLoggers["CHAN"])
	wallet.UseLogger(subsystemLoggers["WALT"])
	mempool.UseLogger(subsystemLoggers["MEMP"])
	powsearch.UseLogger(subsystemLoggers["POWS"])
	stakesearch.UseLogger(subsystemLoggers["STKS"])
	staker.UseLogger(subsystemLoggers["STKR"])
}

// setLogLevels sets the logging level for every registered subsystem
// logger to the given level string (trace, debug, info, warn, error,
// critical).
func setLogLevels(levelStr string) {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		level = btclog.LevelInfo
	}
	for _, l := range subsystemLoggers {
		l.SetLevel(level)
	}
}
