// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/gateway"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
	"github.com/ember-chat/ember/presence"
	"github.com/ember-chat/ember/pubsub"
	"github.com/ember-chat/ember/tasks"
	"github.com/ember-chat/ember/voice"
)

const (
	// writeTimeout bounds a single frame write.
	writeTimeout = 10 * time.Second

	// pongTimeout is how long a connection may go silent before the
	// read side gives up. Pings go out at a third of that.
	pongTimeout = 60 * time.Second
	pingPeriod  = pongTimeout / 3
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// sessionHandler accepts websocket connections and runs one sync
// session per connection.
type sessionHandler struct {
	db       database.Database
	bus      *pubsub.Bus
	voice    voice.Store
	presence *presence.Registry
	acker    *tasks.Acker
	logger   *slog.Logger
	seen     int
	buffer   int
}

func (h *sessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Authentication happens upstream; the authenticated viewer
	// arrives in the X-Ember-User header.
	viewerID, err := ref.ParseUserID(r.Header.Get("X-Ember-User"))
	if err != nil {
		http.Error(w, "missing or invalid viewer identity", http.StatusUnauthorized)
		return
	}
	viewer, err := h.db.FetchUser(r.Context(), viewerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		h.logger.Error("fetching viewer", "viewer", viewerID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		return
	}
	h.serve(conn, viewer)
}

// serve owns the connection until it closes. It is the only goroutine
// that touches the State and the only one that writes to the socket;
// the read loop handles inbound client frames, which never reach the
// State.
func (h *sessionHandler) serve(conn *websocket.Conn, viewer model.User) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := gateway.NewState(gateway.Config{
		Viewer:       viewer,
		DB:           h.db,
		Bus:          h.bus,
		Voice:        h.voice,
		Presence:     h.presence,
		Logger:       h.logger,
		SeenCapacity: h.seen,
		EventBuffer:  h.buffer,
	})
	defer state.Close()

	log := h.logger.With("viewer", viewer.ID)

	ready, err := state.BuildReady(ctx)
	if err != nil {
		log.Error("building ready payload", "error", err)
		return
	}
	if err := h.writeEvent(conn, ready); err != nil {
		log.Warn("writing ready payload", "error", err)
		return
	}

	if first := h.presence.Connect(viewer.ID); first {
		state.BroadcastPresenceChange(true)
	}
	defer func() {
		if last := h.presence.Disconnect(viewer.ID); last {
			state.BroadcastPresenceChange(false)
		}
	}()

	log.Info("session open")
	defer log.Info("session closed")

	go h.readLoop(ctx, cancel, conn, viewer.ID, log)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-state.Events():
			if !ok {
				return
			}
			out, forward := state.Apply(ctx, ev)
			if !forward {
				continue
			}
			if err := h.writeEvent(conn, out); err != nil {
				log.Warn("writing event", "kind", out.Kind(), "error", err)
				return
			}
		}
	}
}

func (h *sessionHandler) writeEvent(conn *websocket.Conn, ev events.Event) error {
	data, err := events.Marshal(ev)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// readLoop consumes inbound client frames. Typing indicators are
// republished to the channel topic; acknowledgements go through the
// debounced writer and fan out to the viewer's other sessions. The
// sender field of every inbound frame is overwritten with the
// authenticated viewer.
func (h *sessionHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, viewer ref.UserID, log *slog.Logger) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := events.Unmarshal(data)
		if err != nil {
			log.Warn("undecodable client frame", "error", err)
			continue
		}
		switch ev := ev.(type) {
		case events.ChannelStartTyping:
			ev.User = viewer
			h.bus.Publish(ev.ID.Topic(), ev)
		case events.ChannelStopTyping:
			ev.User = viewer
			h.bus.Publish(ev.ID.Topic(), ev)
		case events.ChannelAck:
			ev.User = viewer
			if err := h.acker.Ack(ctx, ev.ID, viewer, ev.MessageID); err != nil {
				return
			}
			h.bus.Publish(viewer.Topic(), ev)
		default:
			log.Debug("ignoring client frame", "kind", ev.Kind())
		}
	}
}
