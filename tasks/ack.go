// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package tasks hosts background workers the gateway hands slow or
// bursty work to. The acknowledgement worker debounces read-marker
// writes: a client scrolling a busy channel acks every message, and
// flushing only the newest marker per (channel, user) once per window
// keeps that from turning into a database write per message.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/lib/clock"
	"github.com/ember-chat/ember/lib/ref"
)

// DefaultAckDelay is the debounce window used when AckerConfig leaves
// Delay zero.
const DefaultAckDelay = 5 * time.Second

// DefaultAckQueue is the enqueue buffer used when AckerConfig leaves
// QueueSize zero.
const DefaultAckQueue = 256

// AckerConfig configures an Acker.
type AckerConfig struct {
	DB        database.Database
	Clock     clock.Clock
	Logger    *slog.Logger
	Delay     time.Duration
	QueueSize int
}

// Acker coalesces message acknowledgements and writes only the newest
// marker per (channel, user) each debounce window. Enqueue with Ack;
// the writes happen on the goroutine running Run.
type Acker struct {
	db    database.Database
	clock clock.Clock
	log   *slog.Logger
	delay time.Duration
	queue chan ackRequest
}

type ackRequest struct {
	channel   ref.ChannelID
	user      ref.UserID
	messageID string
}

type ackKey struct {
	channel ref.ChannelID
	user    ref.UserID
}

// NewAcker validates the config and returns a stopped Acker.
func NewAcker(cfg AckerConfig) *Acker {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultAckDelay
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultAckQueue
	}
	return &Acker{
		db:    cfg.DB,
		clock: cfg.Clock,
		log:   cfg.Logger,
		delay: cfg.Delay,
		queue: make(chan ackRequest, cfg.QueueSize),
	}
}

// Ack queues a read marker for the channel. A later Ack for the same
// (channel, user) within the debounce window supersedes this one.
func (a *Acker) Ack(ctx context.Context, channel ref.ChannelID, user ref.UserID, messageID string) error {
	select {
	case a.queue <- ackRequest{channel: channel, user: user, messageID: messageID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes the queue until ctx is cancelled, then flushes any
// pending markers and returns ctx.Err().
func (a *Acker) Run(ctx context.Context) error {
	pending := make(map[ackKey]string)
	var flush <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			a.drain(pending)
			a.flush(context.WithoutCancel(ctx), pending)
			return ctx.Err()
		case req := <-a.queue:
			pending[ackKey{channel: req.channel, user: req.user}] = req.messageID
			if flush == nil {
				flush = a.clock.After(a.delay)
			}
		case <-flush:
			// Pick up markers already enqueued so a newer ack racing
			// the timer still supersedes the one it replaces.
			a.drain(pending)
			a.flush(ctx, pending)
			pending = make(map[ackKey]string)
			flush = nil
		}
	}
}

func (a *Acker) drain(pending map[ackKey]string) {
	for {
		select {
		case req := <-a.queue:
			pending[ackKey{channel: req.channel, user: req.user}] = req.messageID
		default:
			return
		}
	}
}

func (a *Acker) flush(ctx context.Context, pending map[ackKey]string) {
	for key, messageID := range pending {
		if err := a.db.AcknowledgeMessage(ctx, key.channel, key.user, messageID); err != nil {
			a.log.Error("acknowledgement write failed",
				"channel", key.channel,
				"user", key.user,
				"message_id", messageID,
				"error", err)
		}
	}
}
