// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package pubsub

import (
	"testing"
	"time"

	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/lib/testutil"
)

func TestPublishReachesSubscribedTopicsOnly(t *testing.T) {
	bus := NewBus()
	sub := bus.NewSubscriber(0)
	topic := ref.NewChannelID().Topic()
	other := ref.NewChannelID().Topic()

	bus.Subscribe(topic, sub)
	bus.Publish(other, events.ChannelDelete{ID: ref.NewChannelID()})

	select {
	case event := <-sub.Events():
		t.Fatalf("received %v from an unsubscribed topic", event)
	default:
	}

	want := events.ChannelDelete{ID: ref.NewChannelID()}
	bus.Publish(topic, want)
	got := testutil.RequireReceive(t, sub.Events(), 5*time.Second, "published event")
	if got != events.Event(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.NewSubscriber(0)
	topic := ref.NewServerID().Topic()

	bus.Subscribe(topic, sub)
	bus.Unsubscribe(topic, sub)
	bus.Publish(topic, events.ServerDelete{ID: ref.NewServerID()})

	select {
	case event := <-sub.Events():
		t.Fatalf("received %v after unsubscribe", event)
	default:
	}
	if got := sub.Subscriptions(); got != 0 {
		t.Errorf("Subscriptions = %d, want 0", got)
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	bus := NewBus()
	sub := bus.NewSubscriber(2)
	topic := ref.NewChannelID().Topic()
	bus.Subscribe(topic, sub)

	first := events.Message{ID: "1", Channel: ref.NewChannelID()}
	second := events.Message{ID: "2", Channel: ref.NewChannelID()}
	third := events.Message{ID: "3", Channel: ref.NewChannelID()}
	bus.Publish(topic, first)
	bus.Publish(topic, second)
	bus.Publish(topic, third)

	got := testutil.RequireReceive(t, sub.Events(), 5*time.Second, "first surviving event")
	if got.(events.Message).ID != "2" {
		t.Errorf("first surviving event = %v, want message 2", got)
	}
	got = testutil.RequireReceive(t, sub.Events(), 5*time.Second, "second surviving event")
	if got.(events.Message).ID != "3" {
		t.Errorf("second surviving event = %v, want message 3", got)
	}
}

func TestCloseDetachesEverything(t *testing.T) {
	bus := NewBus()
	sub := bus.NewSubscriber(0)
	topics := []ref.Topic{
		ref.NewUserID().Topic(),
		ref.NewServerID().Topic(),
		ref.NewChannelID().Topic(),
	}
	for _, topic := range topics {
		bus.Subscribe(topic, sub)
	}

	sub.Close()
	testutil.RequireClosed(t, sub.Events(), 5*time.Second, "subscriber channel")

	// Publishing after Close must not panic or deliver.
	for _, topic := range topics {
		bus.Publish(topic, events.ServerDelete{ID: ref.NewServerID()})
	}

	// Subscribing after Close is ignored.
	bus.Subscribe(ref.NewUserID().Topic(), sub)
	if got := sub.Subscriptions(); got != 0 {
		t.Errorf("Subscriptions = %d, want 0 after Close", got)
	}
}
