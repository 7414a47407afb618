// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
	"github.com/shell-reserve/stakecore/chaincfg"
)

const (
	defaultConfigFilename = "staked.conf"
	defaultLogFilename    = "staked.log"
	defaultAccount        = "default"
)

var (
	defaultHomeDir    = appDataDir("staked", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, "logs")
)

// config defines the command-line and config-file options the daemon
// accepts, in the jessevdk/go-flags struct-tag style.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	HomeDir    string `long:"homedir" description:"Directory to store data and logs"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	Account          string `long:"account" description:"Wallet account whose coins are eligible for staking"`
	RegressionTest   bool   `long:"regtest" description:"Use the regression test chain parameters"`
	UseBlockBits     bool   `long:"useblockbits" description:"Evaluate the kernel against the block's own bits instead of the coin's value"`
	MinConfirmations int32  `long:"minconfirmations" description:"Override STAKE_MIN_CONFIRMATIONS"`
}

// loadConfig reads command-line flags, and a config file if one exists,
// into a fully populated config. Grounded on the standard btcd-style
// two-pass flags.Parse (once for -C/--configfile, once for everything
// else against the merged file+flag set).
func loadConfig() (*config, []string, error) {
	cfg := config{
		HomeDir:          defaultHomeDir,
		ConfigFile:        defaultConfigFile,
		LogDir:           defaultLogDir,
		DebugLevel:       "info",
		Account:          defaultAccount,
		MinConfirmations: -1,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := asFlagsErr(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if preCfg.ConfigFile != "" {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(cfg.ConfigFile); err != nil {
		var pathErr *os.PathError
		if !asPathErr(err, &pathErr) {
			return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	remaining, err := parser.Parse()
	if err != nil {
		return nil, nil, err
	}

	if cfg.HomeDir != defaultHomeDir {
		cfg.LogDir = filepath.Join(cfg.HomeDir, "logs")
	}

	return &cfg, remaining, nil
}

// chainParams resolves the network parameters this config selects.
func (cfg *config) chainParams() *chaincfg.Params {
	if cfg.RegressionTest {
		return chaincfg.RegressionNetParams
	}
	return chaincfg.MainNetParams
}

func asFlagsErr(err error, target **flags.Error) bool {
	fe, ok := err.(*flags.Error)
	if ok {
		*target = fe
	}
	return ok
}

func asPathErr(err error, target **os.PathError) bool {
	pe, ok := err.(*os.PathError)
	if ok {
		*target = pe
	}
	return ok
}

// appDataDir is a minimal stand-in for btcutil.AppDataDir: it returns
// $HOME/.<name> on every platform (./.<name> when no home directory is
// known) and ignores roaming.
func appDataDir(name string, roaming bool) string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+name)
	}
	return "." + name
}
