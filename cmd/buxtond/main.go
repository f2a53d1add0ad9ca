// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/buxton-foundation/buxton/lib/backend"
	"github.com/buxton-foundation/buxton/lib/config"
	"github.com/buxton-foundation/buxton/lib/smack"
	"github.com/buxton-foundation/buxton/lib/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--config", "-c":
			if i+1 >= len(os.Args) {
				return fmt.Errorf("--config requires a path")
			}
			i++
			configPath = os.Args[i]
		case "--help", "-h":
			fmt.Fprintln(os.Stderr, "usage: buxtond [--config <buxtond.yaml>]")
			return nil
		default:
			return fmt.Errorf("unknown argument %q", os.Args[i])
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.EnsureDatabaseRoot(); err != nil {
		return err
	}

	layers, err := config.LoadLayers(cfg.LayersFile)
	if err != nil {
		return err
	}
	logger.Info("layers loaded", "file", cfg.LayersFile, "layers", len(layers))

	var (
		rules  *smack.RuleSet
		ruleFD = -1
	)
	if cfg.SmackEnabled {
		rules = smack.NewRuleSet(cfg.SmackRules, logger)
		if err := rules.Load(); err != nil {
			return err
		}
		ruleFD, err = rules.Watch()
		if err != nil {
			return err
		}
	}

	registry := backend.NewRegistry(cfg.DatabaseRoot, logger)
	var access store.AccessChecker
	if rules != nil {
		access = rules
	}
	control, err := store.New(layers, registry, access, logger)
	if err != nil {
		return err
	}
	defer control.Close()

	d, err := newDaemon(control, rules, ruleFD, logger)
	if err != nil {
		return err
	}

	listeners, err := acquireListeners(cfg.SocketPath, logger)
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info("shutting down", "signal", sig)
		d.stop()
	}()

	return d.serve(listeners)
}
