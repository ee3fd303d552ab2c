// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package memdb

import (
	"context"
	"errors"
	"testing"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

func TestFetchUserNotFound(t *testing.T) {
	db := New()
	_, err := db.FetchUser(context.Background(), ref.NewUserID())
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBulkFetchSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	db := New()
	known := model.User{ID: ref.NewUserID(), Username: "known"}
	if err := db.InsertUser(ctx, known); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	users, err := db.FetchUsers(ctx, []ref.UserID{known.ID, ref.NewUserID()})
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != known.ID {
		t.Errorf("FetchUsers = %v, want just %v", users, known.ID)
	}
}

func TestFindDirectMessages(t *testing.T) {
	ctx := context.Background()
	db := New()
	viewer := ref.NewUserID()
	other := ref.NewUserID()

	saved := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelSavedMessages, User: viewer}
	dm := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelDirectMessage, Recipients: []ref.UserID{viewer, other}}
	unrelated := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelDirectMessage, Recipients: []ref.UserID{other, ref.NewUserID()}}
	server := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelText, Server: ref.NewServerID()}
	for _, channel := range []model.Channel{saved, dm, unrelated, server} {
		if err := db.InsertChannel(ctx, channel); err != nil {
			t.Fatalf("InsertChannel: %v", err)
		}
	}

	found, err := db.FindDirectMessages(ctx, viewer)
	if err != nil {
		t.Fatalf("FindDirectMessages: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("len = %d, want 2 (saved + dm)", len(found))
	}
	ids := map[ref.ChannelID]bool{found[0].ID: true, found[1].ID: true}
	if !ids[saved.ID] || !ids[dm.ID] {
		t.Errorf("found %v, want saved %v and dm %v", ids, saved.ID, dm.ID)
	}
}

func TestUpdateChannelClearThenApply(t *testing.T) {
	ctx := context.Background()
	db := New()
	channel := model.Channel{
		ID:          ref.NewChannelID(),
		Kind:        model.ChannelText,
		Server:      ref.NewServerID(),
		Description: "old",
	}
	if err := db.InsertChannel(ctx, channel); err != nil {
		t.Fatalf("InsertChannel: %v", err)
	}

	name := "new-name"
	err := db.UpdateChannel(ctx, channel.ID, model.PartialChannel{Name: &name}, []model.FieldsChannel{model.FieldsChannelDescription})
	if err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	stored, err := db.FetchChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if stored.Description != "" {
		t.Error("description must be cleared")
	}
	if stored.Name != "new-name" {
		t.Errorf("Name = %q, want %q", stored.Name, "new-name")
	}
}

func TestMemberSequenceRestartable(t *testing.T) {
	ctx := context.Background()
	db := New()
	server := ref.NewServerID()
	for i := 0; i < 3; i++ {
		member := model.Member{ID: model.MemberKey{Server: server, User: ref.NewUserID()}}
		if err := db.InsertMember(ctx, member); err != nil {
			t.Fatalf("InsertMember: %v", err)
		}
	}
	// A member of another server must not appear.
	if err := db.InsertMember(ctx, model.Member{ID: model.MemberKey{Server: ref.NewServerID(), User: ref.NewUserID()}}); err != nil {
		t.Fatalf("InsertMember: %v", err)
	}

	sequence, err := db.FetchAllMembersChunked(ctx, server)
	if err != nil {
		t.Fatalf("FetchAllMembersChunked: %v", err)
	}

	drain := func() int {
		count := 0
		for {
			_, ok, err := sequence.Next(ctx)
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				return count
			}
			count++
		}
	}

	if got := drain(); got != 3 {
		t.Errorf("first pass = %d members, want 3", got)
	}
	if got := drain(); got != 0 {
		t.Errorf("exhausted sequence yielded %d members, want 0", got)
	}
	sequence.Reset()
	if got := drain(); got != 3 {
		t.Errorf("after Reset = %d members, want 3", got)
	}
}
