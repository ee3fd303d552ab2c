// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"maps"
	"testing"

	"github.com/ember-chat/ember/database/memdb"
	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
	"github.com/ember-chat/ember/permissions"
	"github.com/ember-chat/ember/presence"
	"github.com/ember-chat/ember/pubsub"
	"github.com/ember-chat/ember/voice"
)

func ptr[T any](v T) *T { return &v }

// fixture is a connected viewer plus the collaborators behind it.
type fixture struct {
	db     *memdb.DB
	bus    *pubsub.Bus
	vox    *voice.MemoryStore
	pres   *presence.Registry
	viewer model.User
	state  *State
}

// newFixture stores the given entities, connects the viewer, and runs
// the ready build so tests start from a fully populated view.
func newFixture(t *testing.T, viewer model.User, setup func(ctx context.Context, f *fixture)) (*fixture, events.Ready) {
	t.Helper()
	ctx := testContext(t)
	f := &fixture{
		db:     memdb.New(),
		bus:    pubsub.NewBus(),
		vox:    voice.NewMemoryStore(),
		pres:   presence.NewRegistry(),
		viewer: viewer,
	}
	if err := f.db.InsertUser(ctx, viewer); err != nil {
		t.Fatalf("inserting viewer: %v", err)
	}
	if setup != nil {
		setup(ctx, f)
	}
	f.state = NewState(Config{
		Viewer:   viewer,
		DB:       f.db,
		Bus:      f.bus,
		Voice:    f.vox,
		Presence: f.pres,
	})
	t.Cleanup(f.state.Close)
	ready, err := f.state.BuildReady(ctx)
	if err != nil {
		t.Fatalf("BuildReady: %v", err)
	}
	return f, ready
}

// assertSubscriptionInvariant checks that the subscription set equals
// exactly what the cache contents imply: the private topic, the
// viewer, every reachable cached user, every cached conversation
// recipient, every cached server, every cached channel.
func assertSubscriptionInvariant(t *testing.T, s *State) {
	t.Helper()
	expected := map[ref.Topic]struct{}{
		s.privateTopic:      {},
		s.viewer.ID.Topic(): {},
	}
	for id := range s.users {
		if s.canSubscribeToUser(id) {
			expected[id.Topic()] = struct{}{}
		}
	}
	for id := range s.servers {
		expected[id.Topic()] = struct{}{}
	}
	for id, channel := range s.channels {
		expected[id.Topic()] = struct{}{}
		if channel.Kind == model.ChannelDirectMessage || channel.Kind == model.ChannelGroup {
			for _, recipient := range channel.Recipients {
				expected[recipient.Topic()] = struct{}{}
			}
		}
	}
	if !maps.Equal(expected, s.subscriptions) {
		t.Errorf("subscriptions diverged from cache contents:\n got %v\nwant %v", s.subscriptions, expected)
	}
}

// textChannel builds a text channel on the server, optionally with a
// channel-level permission override.
func textChannel(server ref.ServerID, override *model.PermissionOverride) model.Channel {
	return model.Channel{
		ID:                 ref.NewChannelID(),
		Kind:               model.ChannelText,
		Server:             server,
		Name:               "general",
		DefaultPermissions: override,
	}
}

func TestBuildReadyFiltersAndSubscribes(t *testing.T) {
	friend := model.User{ID: ref.NewUserID(), Username: "friend"}
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer",
		Relations: []model.Relation{{ID: friend.ID, Status: model.RelationshipFriend}}}

	server := model.Server{
		ID:                 ref.NewServerID(),
		Owner:              ref.NewUserID(),
		Name:               "hangout",
		DefaultPermissions: uint64(permissions.ViewChannel | permissions.SendMessage),
	}
	visible := textChannel(server.ID, nil)
	hidden := textChannel(server.ID, &model.PermissionOverride{Deny: uint64(permissions.ViewChannel)})
	server.Channels = []ref.ChannelID{visible.ID, hidden.ID}
	dm := model.Channel{
		ID:         ref.NewChannelID(),
		Kind:       model.ChannelDirectMessage,
		Recipients: []ref.UserID{viewer.ID, friend.ID},
		Active:     true,
	}

	f, ready := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		for _, insert := range []func() error{
			func() error { return f.db.InsertUser(ctx, friend) },
			func() error { return f.db.InsertServer(ctx, server) },
			func() error { return f.db.InsertChannel(ctx, visible) },
			func() error { return f.db.InsertChannel(ctx, hidden) },
			func() error { return f.db.InsertChannel(ctx, dm) },
			func() error {
				return f.db.InsertMember(ctx, model.Member{
					ID: model.MemberKey{Server: server.ID, User: viewer.ID},
				})
			},
		} {
			if err := insert(); err != nil {
				t.Fatalf("seeding fixture: %v", err)
			}
		}
		f.pres.Connect(friend.ID)
	})

	got := make(map[ref.ChannelID]struct{})
	for _, channel := range ready.Channels {
		got[channel.ID] = struct{}{}
	}
	if _, ok := got[visible.ID]; !ok {
		t.Error("visible channel missing from ready payload")
	}
	if _, ok := got[dm.ID]; !ok {
		t.Error("direct message missing from ready payload")
	}
	if _, ok := got[hidden.ID]; ok {
		t.Error("hidden channel leaked into ready payload")
	}

	if len(ready.Servers) != 1 || ready.Servers[0].ID != server.ID {
		t.Errorf("Servers = %v, want exactly %v", ready.Servers, server.ID)
	}
	if len(ready.Members) != 1 {
		t.Errorf("Members = %v, want the viewer's single membership", ready.Members)
	}

	users := make(map[ref.UserID]model.User)
	for _, user := range ready.Users {
		users[user.ID] = user
	}
	self, ok := users[viewer.ID]
	if !ok || self.Relationship != model.RelationshipUser {
		t.Errorf("viewer record = %+v, want self relationship", self)
	}
	rendered, ok := users[friend.ID]
	if !ok {
		t.Fatal("friend missing from ready payload")
	}
	if rendered.Relationship != model.RelationshipFriend || !rendered.Online {
		t.Errorf("friend rendered as %+v, want friend and online", rendered)
	}

	want := map[ref.Topic]struct{}{
		f.state.privateTopic: {},
		viewer.ID.Topic():    {},
		friend.ID.Topic():    {},
		server.ID.Topic():    {},
		visible.ID.Topic():   {},
		dm.ID.Topic():        {},
	}
	if !maps.Equal(want, f.state.Subscriptions()) {
		t.Errorf("subscriptions = %v, want %v", f.state.Subscriptions(), want)
	}
	assertSubscriptionInvariant(t, f.state)
}

func TestChannelVisibilityFlip(t *testing.T) {
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
	ctx := testContext(t)

	deny := &model.PermissionOverride{Deny: uint64(permissions.ViewChannel)}
	out, forward := f.state.Apply(ctx, events.ChannelUpdate{
		ID:   channel.ID,
		Data: model.PartialChannel{DefaultPermissions: deny},
	})
	if !forward {
		t.Fatal("losing visibility must still forward an event")
	}
	deleted, ok := out.(events.ChannelDelete)
	if !ok || deleted.ID != channel.ID {
		t.Fatalf("forwarded %T %v, want ChannelDelete for %v", out, out, channel.ID)
	}
	if _, cached := f.state.channels[channel.ID]; cached {
		t.Error("channel still cached after losing visibility")
	}
	assertSubscriptionInvariant(t, f.state)

	// Persist the denial so the reverse transition starts from a
	// hidden channel the cache has no record of.
	if err := f.db.UpdateChannel(ctx, channel.ID, model.PartialChannel{DefaultPermissions: deny}, nil); err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}
	out, forward = f.state.Apply(ctx, events.ChannelUpdate{
		ID:    channel.ID,
		Clear: []model.FieldsChannel{model.FieldsChannelDefaultPermissions},
	})
	if !forward {
		t.Fatal("gaining visibility must forward an event")
	}
	created, ok := out.(events.ChannelCreate)
	if !ok || created.Channel.ID != channel.ID {
		t.Fatalf("forwarded %T %v, want ChannelCreate for %v", out, out, channel.ID)
	}
	if _, cached := f.state.channels[channel.ID]; !cached {
		t.Error("channel not cached after gaining visibility")
	}
	assertSubscriptionInvariant(t, f.state)
}

func TestServerMembershipLossRemovesEverything(t *testing.T) {
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer"}
	server := model.Server{
		ID:                 ref.NewServerID(),
		Owner:              ref.NewUserID(),
		DefaultPermissions: uint64(permissions.ViewChannel),
	}
	channels := []model.Channel{
		textChannel(server.ID, nil),
		textChannel(server.ID, nil),
		textChannel(server.ID, nil),
	}
	for _, channel := range channels {
		server.Channels = append(server.Channels, channel.ID)
	}

	f, ready := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertServer(ctx, server)
		for _, channel := range channels {
			f.db.InsertChannel(ctx, channel)
		}
		f.db.InsertMember(ctx, model.Member{ID: model.MemberKey{Server: server.ID, User: viewer.ID}})
	})
	if len(ready.Channels) != 3 {
		t.Fatalf("ready carried %d channels, want 3", len(ready.Channels))
	}

	_, forward := f.state.Apply(testContext(t), events.ServerMemberLeave{ID: server.ID, User: viewer.ID})
	if !forward {
		t.Fatal("membership loss must be forwarded")
	}
	if len(f.state.servers) != 0 || len(f.state.channels) != 0 || len(f.state.members) != 0 {
		t.Errorf("orphaned cache entries: servers=%d channels=%d members=%d",
			len(f.state.servers), len(f.state.channels), len(f.state.members))
	}
	want := map[ref.Topic]struct{}{
		f.state.privateTopic: {},
		viewer.ID.Topic():    {},
	}
	if !maps.Equal(want, f.state.Subscriptions()) {
		t.Errorf("subscriptions = %v, want only private and viewer", f.state.Subscriptions())
	}
	assertSubscriptionInvariant(t, f.state)
}

func TestRecalculationDiscoversNewlyVisibleChannel(t *testing.T) {
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer"}
	server := model.Server{
		ID:                 ref.NewServerID(),
		Owner:              ref.NewUserID(),
		DefaultPermissions: uint64(permissions.ViewChannel),
	}
	known := textChannel(server.ID, nil)
	unknown := textChannel(server.ID, nil)
	server.Channels = []ref.ChannelID{known.ID, unknown.ID}

	f, ready := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertServer(ctx, server)
		f.db.InsertChannel(ctx, known)
		f.db.InsertMember(ctx, model.Member{ID: model.MemberKey{Server: server.ID, User: viewer.ID}})
	})
	if len(ready.Channels) != 1 {
		t.Fatalf("ready carried %d channels, want only the known one", len(ready.Channels))
	}

	// The channel record appears later; the next permission-relevant
	// event must pick it up.
	ctx := testContext(t)
	if err := f.db.InsertChannel(ctx, unknown); err != nil {
		t.Fatalf("InsertChannel: %v", err)
	}
	update := events.ServerUpdate{
		ID:   server.ID,
		Data: model.PartialServer{DefaultPermissions: ptr(server.DefaultPermissions)},
	}
	out, forward := f.state.Apply(ctx, update)
	if !forward {
		t.Fatal("server update must be forwarded")
	}
	bulk, ok := out.(events.Bulk)
	if !ok || len(bulk.Events) != 2 {
		t.Fatalf("forwarded %T %v, want a two-event bundle", out, out)
	}
	created, ok := bulk.Events[0].(events.ChannelCreate)
	if !ok || created.Channel.ID != unknown.ID {
		t.Fatalf("bundle[0] = %T %v, want ChannelCreate for %v", bulk.Events[0], bulk.Events[0], unknown.ID)
	}
	if _, ok := bulk.Events[1].(events.ServerUpdate); !ok {
		t.Fatalf("bundle[1] = %T, want the original ServerUpdate", bulk.Events[1])
	}
	if _, cached := f.state.channels[unknown.ID]; !cached {
		t.Error("discovered channel not cached")
	}
	assertSubscriptionInvariant(t, f.state)
}

func TestUserUpdateDeduplication(t *testing.T) {
	other := model.User{ID: ref.NewUserID(), Username: "other"}
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer",
		Relations: []model.Relation{{ID: other.ID, Status: model.RelationshipFriend}}}

	f, _ := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertUser(ctx, other)
	})
	ctx := testContext(t)

	update := events.UserUpdate{
		ID:      other.ID,
		Data:    model.PartialUser{DisplayName: ptr("Zed")},
		EventID: "01DEDUP",
	}
	out, forward := f.state.Apply(ctx, update)
	if !forward {
		t.Fatal("first copy must be forwarded")
	}
	forwarded, ok := out.(events.UserUpdate)
	if !ok || forwarded.EventID != "" {
		t.Errorf("forwarded %T %+v, want UserUpdate with the dedup tag stripped", out, out)
	}
	if got := f.state.users[other.ID].DisplayName; got != "Zed" {
		t.Errorf("cached display name = %q, want %q", got, "Zed")
	}

	if _, forward := f.state.Apply(ctx, update); forward {
		t.Error("second copy must be suppressed")
	}
}

func TestRoleChangeTriggersRecalculation(t *testing.T) {
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer"}
	roleID := ref.NewRoleID()
	server := model.Server{
		ID:    ref.NewServerID(),
		Owner: ref.NewUserID(),
		Roles: map[ref.RoleID]model.Role{
			roleID: {Name: "reader", Rank: 1,
				Permissions: model.PermissionOverride{Allow: uint64(permissions.ViewChannel)}},
		},
	}
	channel := textChannel(server.ID, nil)
	server.Channels = []ref.ChannelID{channel.ID}

	f, ready := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertServer(ctx, server)
		f.db.InsertChannel(ctx, channel)
		f.db.InsertMember(ctx, model.Member{
			ID:    model.MemberKey{Server: server.ID, User: viewer.ID},
			Roles: []ref.RoleID{roleID},
		})
	})
	if len(ready.Channels) != 1 {
		t.Fatalf("ready carried %d channels, want 1 via the role grant", len(ready.Channels))
	}

	// Removing the viewer's only permission-granting role hides the
	// channel; the deletion rides along with the role update.
	out, forward := f.state.Apply(testContext(t), events.ServerRoleUpdate{
		ID:     server.ID,
		RoleID: roleID,
		Data:   model.PartialRole{Permissions: &model.PermissionOverride{}},
	})
	if !forward {
		t.Fatal("role update must be forwarded")
	}
	bulk, ok := out.(events.Bulk)
	if !ok || len(bulk.Events) != 2 {
		t.Fatalf("forwarded %T %v, want a two-event bundle", out, out)
	}
	deleted, ok := bulk.Events[0].(events.ChannelDelete)
	if !ok || deleted.ID != channel.ID {
		t.Fatalf("bundle[0] = %T %v, want ChannelDelete for %v", bulk.Events[0], bulk.Events[0], channel.ID)
	}
	assertSubscriptionInvariant(t, f.state)
}

func TestGroupMembershipSubscriptions(t *testing.T) {
	member := model.User{ID: ref.NewUserID(), Username: "member"}
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer"}
	group := model.Channel{
		ID:         ref.NewChannelID(),
		Kind:       model.ChannelGroup,
		Owner:      viewer.ID,
		Recipients: []ref.UserID{viewer.ID},
	}

	f, _ := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertUser(ctx, member)
		f.db.InsertChannel(ctx, group)
	})
	ctx := testContext(t)

	if _, forward := f.state.Apply(ctx, events.ChannelGroupJoin{ID: group.ID, User: member.ID}); !forward {
		t.Fatal("group join must be forwarded")
	}
	if _, ok := f.state.subscriptions[member.ID.Topic()]; !ok {
		t.Error("joining member's topic not subscribed")
	}
	assertSubscriptionInvariant(t, f.state)

	if _, forward := f.state.Apply(ctx, events.ChannelGroupLeave{ID: group.ID, User: member.ID}); !forward {
		t.Fatal("group leave must be forwarded")
	}
	if _, ok := f.state.subscriptions[member.ID.Topic()]; ok {
		t.Error("departed member's topic still subscribed with no shared context left")
	}
	assertSubscriptionInvariant(t, f.state)

	// The viewer leaving drops the conversation itself.
	if _, forward := f.state.Apply(ctx, events.ChannelGroupLeave{ID: group.ID, User: viewer.ID}); !forward {
		t.Fatal("own group leave must be forwarded")
	}
	if _, cached := f.state.channels[group.ID]; cached {
		t.Error("group still cached after the viewer left")
	}
	assertSubscriptionInvariant(t, f.state)
}

func TestRelationshipChangeTogglesSubscription(t *testing.T) {
	stranger := model.User{ID: ref.NewUserID(), Username: "stranger"}
	viewer := model.User{ID: ref.NewUserID(), Username: "viewer"}

	f, _ := newFixture(t, viewer, func(ctx context.Context, f *fixture) {
		f.db.InsertUser(ctx, stranger)
	})
	ctx := testContext(t)

	_, forward := f.state.Apply(ctx, events.UserRelationship{
		ID:     stranger.ID,
		User:   stranger,
		Status: model.RelationshipFriend,
	})
	if !forward {
		t.Fatal("relationship change must be forwarded")
	}
	if _, ok := f.state.subscriptions[stranger.ID.Topic()]; !ok {
		t.Error("new friend's topic not subscribed")
	}
	assertSubscriptionInvariant(t, f.state)

	f.state.Apply(ctx, events.UserRelationship{
		ID:     stranger.ID,
		User:   stranger,
		Status: model.RelationshipNone,
	})
	if _, ok := f.state.subscriptions[stranger.ID.Topic()]; ok {
		t.Error("removed friend's topic still subscribed")
	}
	assertSubscriptionInvariant(t, f.state)
}
