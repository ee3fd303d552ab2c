// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package pubsub is the in-process topic hub carrying the global event
// stream. Producers publish an event to a topic; every subscriber
// currently registered on that topic receives it on its own buffered
// channel.
//
// Delivery is best-effort per subscriber: when a subscriber's buffer
// is full the oldest undelivered event is dropped to make room. A
// connection that falls that far behind is already beyond saving a
// perfect event sequence for; the client re-syncs on reconnect.
package pubsub

import (
	"sync"

	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
)

// DefaultBuffer is the per-subscriber channel depth used by
// NewSubscriber when the caller passes 0.
const DefaultBuffer = 256

// Bus routes published events to topic subscribers. Safe for
// concurrent use.
type Bus struct {
	mu     sync.RWMutex
	topics map[ref.Topic]map[*Subscriber]struct{}
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[ref.Topic]map[*Subscriber]struct{})}
}

// Subscriber is one receiver attached to the bus. A subscriber belongs
// to exactly one connection; its channel is consumed by that
// connection's goroutine only.
type Subscriber struct {
	bus    *Bus
	events chan events.Event
	topics map[ref.Topic]struct{}
	closed bool
}

// NewSubscriber registers a new subscriber with the given buffer depth
// (0 means DefaultBuffer). The subscriber starts with no topics.
func (b *Bus) NewSubscriber(buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Subscriber{
		bus:    b,
		events: make(chan events.Event, buffer),
		topics: make(map[ref.Topic]struct{}),
	}
}

// Subscribe registers the subscriber on a topic. Subscribing twice is
// a no-op.
func (b *Bus) Subscribe(topic ref.Topic, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed {
		return
	}
	set, ok := b.topics[topic]
	if !ok {
		set = make(map[*Subscriber]struct{})
		b.topics[topic] = set
	}
	set[sub] = struct{}{}
	sub.topics[topic] = struct{}{}
}

// Unsubscribe removes the subscriber from a topic. Unknown topics are
// a no-op.
func (b *Bus) Unsubscribe(topic ref.Topic, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detach(topic, sub)
}

func (b *Bus) detach(topic ref.Topic, sub *Subscriber) {
	if set, ok := b.topics[topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.topics, topic)
		}
	}
	delete(sub.topics, topic)
}

// Publish delivers an event to every subscriber of the topic.
func (b *Bus) Publish(topic ref.Topic, event events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.topics[topic] {
		sub.deliver(event)
	}
}

// deliver pushes the event onto the subscriber's channel, dropping the
// oldest buffered event when the channel is full.
func (s *Subscriber) deliver(event events.Event) {
	select {
	case s.events <- event:
		return
	default:
	}
	select {
	case <-s.events:
	default:
	}
	select {
	case s.events <- event:
	default:
	}
}

// Events is the subscriber's receive channel. It is closed by Close.
func (s *Subscriber) Events() <-chan events.Event {
	return s.events
}

// Close detaches the subscriber from every topic and closes its
// channel. Safe to call once; the bus never delivers after Close
// returns.
func (s *Subscriber) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for topic := range s.topics {
		s.bus.detach(topic, s)
	}
	close(s.events)
}

// Subscriptions returns how many topics the subscriber is currently
// registered on. Test helper.
func (s *Subscriber) Subscriptions() int {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	return len(s.topics)
}
