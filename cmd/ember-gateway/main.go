// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// ember-gateway is the realtime sync service. It owns the websocket
// surface of the platform: clients connect, receive a complete "ready"
// snapshot of everything they can currently see, and from then on a
// permission-filtered stream of mutation events.
//
// Startup sequence:
//
//  1. Load and validate the YAML configuration (--config flag or the
//     EMBER_CONFIG environment variable).
//  2. Open the SQLite database, creating the schema on first start.
//  3. Assemble the in-process collaborators: the pub/sub bus, the
//     voice-session store, the presence registry, and the debounced
//     acknowledgement writer.
//  4. Serve websocket connections until SIGINT/SIGTERM, then drain:
//     the HTTP listener shuts down gracefully and pending read-marker
//     writes are flushed before exit.
//
// Each accepted connection gets its own gateway.State, owned by a
// single goroutine that applies bus events one at a time and forwards
// the rewritten stream to the socket as CBOR frames.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ember-chat/ember/database/sqlitedb"
	"github.com/ember-chat/ember/lib/clock"
	"github.com/ember-chat/ember/lib/config"
	"github.com/ember-chat/ember/presence"
	"github.com/ember-chat/ember/pubsub"
	"github.com/ember-chat/ember/tasks"
	"github.com/ember-chat/ember/voice"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ember-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	pflag.StringVar(&configPath, "config", "", "path to the gateway config file (default: $EMBER_CONFIG)")
	pflag.Parse()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlitedb.Open(cfg.Database.Path, cfg.Database.PoolSize, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	logger.Info("database open", "path", cfg.Database.Path)

	ackDelay, err := time.ParseDuration(cfg.Gateway.AckDelay)
	if err != nil {
		return fmt.Errorf("parsing gateway.ack_delay: %w", err)
	}

	bus := pubsub.NewBus()
	voiceStore := voice.NewMemoryStore()
	registry := presence.NewRegistry()
	acker := tasks.NewAcker(tasks.AckerConfig{
		DB:     db,
		Clock:  clock.Real(),
		Logger: logger,
		Delay:  ackDelay,
	})

	ackerDone := make(chan struct{})
	go func() {
		defer close(ackerDone)
		if err := acker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("acknowledgement worker stopped", "error", err)
		}
	}()

	sessions := &sessionHandler{
		db:       db,
		bus:      bus,
		voice:    voiceStore,
		presence: registry,
		acker:    acker,
		logger:   logger,
		seen:     cfg.Gateway.SeenCapacity,
		buffer:   cfg.Gateway.EventBuffer,
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Listen.Path, sessions)
	server := &http.Server{
		Addr:    cfg.Listen.Address,
		Handler: mux,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "address", cfg.Listen.Address, "path", cfg.Listen.Path)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("listener shutdown", "error", err)
	}

	// The acknowledgement worker flushes pending writes on its way out.
	<-ackerDone
	return nil
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("parsing log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
