// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/lib/testutil"
	"github.com/ember-chat/ember/model"
	"github.com/ember-chat/ember/permissions"
)

func TestCloseUnsubscribesEverything(t *testing.T) {
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer"}
	server := model.Server{
		ID:                 ref.NewServerID(),
		Owner:              ref.NewUserID(),
		DefaultPermissions: uint64(permissions.ViewChannel),
	}
	channel := textChannel(server.ID, nil)
	server.Channels = []ref.ChannelID{channel.ID}

	f, _ := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertServer(ctx, server)
		f.db.InsertChannel(ctx, channel)
		f.db.InsertMember(ctx, model.Member{ID: model.MemberKey{Server: server.ID, User: viewer.ID}})
	})

	f.state.Close()
	testutil.RequireClosed(t, f.state.Events(), 5*time.Second, "event stream after Close")
	if got := f.state.sub.Subscriptions(); got != 0 {
		t.Errorf("bus still holds %d subscriptions after Close", got)
	}
	if len(f.state.Subscriptions()) != 0 {
		t.Errorf("subscription set not cleared: %v", f.state.Subscriptions())
	}
	// Close is part of connection teardown paths that can run twice.
	f.state.Close()
}
