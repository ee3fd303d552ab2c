// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"log/slog"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
	"github.com/ember-chat/ember/presence"
	"github.com/ember-chat/ember/pubsub"
	"github.com/ember-chat/ember/voice"
)

// DefaultSeenCapacity bounds the per-connection duplicate-suppression
// set used for fanned-out user updates.
const DefaultSeenCapacity = 20

// Config assembles the collaborators a State needs. Viewer, DB, and
// Bus are required; Voice, Presence, and Logger fall back to inert
// defaults so tests can omit what they do not exercise.
type Config struct {
	Viewer       model.User
	DB           database.Database
	Bus          *pubsub.Bus
	Voice        voice.Store
	Presence     *presence.Registry
	Logger       *slog.Logger
	SeenCapacity int

	// EventBuffer is the subscriber channel depth; zero picks the
	// pubsub default.
	EventBuffer int
}

// State is one connection's view of the platform. It caches every
// entity the viewer may currently see and mirrors that cache onto the
// pub/sub subscription set. Not safe for concurrent use: the owning
// connection goroutine is the only caller.
type State struct {
	viewer model.User

	db   database.Database
	bus  *pubsub.Bus
	sub  *pubsub.Subscriber
	vox  voice.Store
	pres *presence.Registry
	log  *slog.Logger

	users    map[ref.UserID]model.User
	servers  map[ref.ServerID]model.Server
	channels map[ref.ChannelID]model.Channel
	members  map[ref.ServerID]model.Member

	seen          *seenSet
	subscriptions map[ref.Topic]struct{}
	privateTopic  ref.Topic
}

// NewState creates an empty State and registers it on the bus. The
// session-private topic is subscribed immediately; everything else
// waits for BuildReady.
func NewState(cfg Config) *State {
	if cfg.Presence == nil {
		cfg.Presence = presence.NewRegistry()
	}
	if cfg.Voice == nil {
		cfg.Voice = voice.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SeenCapacity <= 0 {
		cfg.SeenCapacity = DefaultSeenCapacity
	}
	s := &State{
		viewer:        cfg.Viewer,
		db:            cfg.DB,
		bus:           cfg.Bus,
		sub:           cfg.Bus.NewSubscriber(cfg.EventBuffer),
		vox:           cfg.Voice,
		pres:          cfg.Presence,
		log:           cfg.Logger.With("viewer", cfg.Viewer.ID),
		users:         make(map[ref.UserID]model.User),
		servers:       make(map[ref.ServerID]model.Server),
		channels:      make(map[ref.ChannelID]model.Channel),
		members:       make(map[ref.ServerID]model.Member),
		seen:          newSeenSet(cfg.SeenCapacity),
		subscriptions: make(map[ref.Topic]struct{}),
		privateTopic:  ref.NewPrivateTopic(),
	}
	s.subscribe(s.privateTopic)
	return s
}

// Events is the stream of published events routed to this connection.
// Feed each one through Apply.
func (s *State) Events() <-chan events.Event {
	return s.sub.Events()
}

// Viewer returns the connection's user record as currently cached.
func (s *State) Viewer() model.User { return s.viewer }

// PrivateTopic returns the session-private topic, usable as a
// publish target for events meant only for this connection.
func (s *State) PrivateTopic() ref.Topic { return s.privateTopic }

// Subscriptions returns a copy of the current subscription set.
func (s *State) Subscriptions() map[ref.Topic]struct{} {
	out := make(map[ref.Topic]struct{}, len(s.subscriptions))
	for topic := range s.subscriptions {
		out[topic] = struct{}{}
	}
	return out
}

// Close tears the connection's view down: every topic is unsubscribed
// (including any partial set left by an interrupted BuildReady) and
// the event stream is closed.
func (s *State) Close() {
	for topic := range s.subscriptions {
		delete(s.subscriptions, topic)
	}
	s.sub.Close()
}

func (s *State) subscribe(topic ref.Topic) {
	if _, ok := s.subscriptions[topic]; ok {
		return
	}
	s.subscriptions[topic] = struct{}{}
	s.bus.Subscribe(topic, s.sub)
}

func (s *State) unsubscribe(topic ref.Topic) {
	if _, ok := s.subscriptions[topic]; !ok {
		return
	}
	delete(s.subscriptions, topic)
	s.bus.Unsubscribe(topic, s.sub)
}

// resetSubscriptions drops every topic and re-derives the set from
// cache contents: the private topic, the viewer, reachable users,
// cached servers, cached channels.
func (s *State) resetSubscriptions() {
	for topic := range s.subscriptions {
		s.unsubscribe(topic)
	}
	s.subscribe(s.privateTopic)
	s.subscribe(s.viewer.ID.Topic())
	for id := range s.users {
		if s.canSubscribeToUser(id) {
			s.subscribe(id.Topic())
		}
	}
	for id := range s.servers {
		s.subscribe(id.Topic())
	}
	for id, channel := range s.channels {
		s.subscribe(id.Topic())
		if channel.Kind == model.ChannelDirectMessage || channel.Kind == model.ChannelGroup {
			for _, recipient := range channel.Recipients {
				s.subscribe(recipient.Topic())
			}
		}
	}
}
