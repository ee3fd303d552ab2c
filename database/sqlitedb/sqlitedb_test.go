// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitedb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ember.db"), 0, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	user := model.User{
		ID:       ref.NewUserID(),
		Username: "river",
		Relations: []model.Relation{
			{ID: ref.NewUserID(), Status: model.RelationshipFriend},
		},
		Status: &model.UserStatus{Presence: model.PresenceBusy, Text: "heads down"},
	}
	if err := db.InsertUser(ctx, user); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	stored, err := db.FetchUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if stored.Username != "river" || len(stored.Relations) != 1 {
		t.Errorf("stored = %+v, want %+v", stored, user)
	}
	if stored.Status == nil || stored.Status.Text != "heads down" {
		t.Errorf("Status = %+v, want busy/heads down", stored.Status)
	}

	if _, err := db.FetchUser(ctx, ref.NewUserID()); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("unknown user: err = %v, want ErrNotFound", err)
	}
}

func TestFindDirectMessages(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	viewer := ref.NewUserID()
	friend := ref.NewUserID()

	saved := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelSavedMessages, User: viewer}
	dm := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelDirectMessage, Recipients: []ref.UserID{viewer, friend}}
	foreign := model.Channel{ID: ref.NewChannelID(), Kind: model.ChannelGroup, Recipients: []ref.UserID{friend}}
	for _, channel := range []model.Channel{saved, dm, foreign} {
		if err := db.InsertChannel(ctx, channel); err != nil {
			t.Fatalf("InsertChannel: %v", err)
		}
	}

	found, err := db.FindDirectMessages(ctx, viewer)
	if err != nil {
		t.Fatalf("FindDirectMessages: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("len = %d, want 2", len(found))
	}
}

func TestRecipientsIndexFollowsUpdates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	viewer := ref.NewUserID()

	group := model.Channel{
		ID:         ref.NewChannelID(),
		Kind:       model.ChannelGroup,
		Recipients: []ref.UserID{viewer},
	}
	if err := db.InsertChannel(ctx, group); err != nil {
		t.Fatalf("InsertChannel: %v", err)
	}

	// Re-insert with the viewer removed; the index must follow.
	group.Recipients = []ref.UserID{ref.NewUserID()}
	if err := db.InsertChannel(ctx, group); err != nil {
		t.Fatalf("InsertChannel: %v", err)
	}

	found, err := db.FindDirectMessages(ctx, viewer)
	if err != nil {
		t.Fatalf("FindDirectMessages: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("len = %d, want 0 after removal", len(found))
	}
}

func TestUpdateChannel(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	channel := model.Channel{
		ID:          ref.NewChannelID(),
		Kind:        model.ChannelText,
		Server:      ref.NewServerID(),
		Name:        "general",
		Description: "before",
	}
	if err := db.InsertChannel(ctx, channel); err != nil {
		t.Fatalf("InsertChannel: %v", err)
	}

	name := "off-topic"
	err := db.UpdateChannel(ctx, channel.ID, model.PartialChannel{Name: &name}, []model.FieldsChannel{model.FieldsChannelDescription})
	if err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	stored, err := db.FetchChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if stored.Name != "off-topic" || stored.Description != "" {
		t.Errorf("stored = %+v, want renamed with cleared description", stored)
	}
}

func TestChunkedMembers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	server := ref.NewServerID()

	const total = 7
	for i := 0; i < total; i++ {
		member := model.Member{ID: model.MemberKey{Server: server, User: ref.NewUserID()}}
		if err := db.InsertMember(ctx, member); err != nil {
			t.Fatalf("InsertMember: %v", err)
		}
	}

	sequence, err := db.FetchAllMembersChunked(ctx, server)
	if err != nil {
		t.Fatalf("FetchAllMembersChunked: %v", err)
	}
	// Force several pages.
	sequence.(*memberSequence).chunkSize = 3

	var seen []string
	for {
		member, ok, err := sequence.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		seen = append(seen, member.ID.User.String())
	}
	if len(seen) != total {
		t.Fatalf("got %d members, want %d", len(seen), total)
	}
	for i := 1; i < len(seen); i++ {
		if !(seen[i-1] < seen[i]) {
			t.Errorf("members out of order: %q before %q", seen[i-1], seen[i])
		}
	}

	sequence.Reset()
	if _, ok, err := sequence.Next(ctx); err != nil || !ok {
		t.Errorf("after Reset: ok=%v err=%v, want another pass", ok, err)
	}
}

func TestAcknowledgeMessage(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	channel := ref.NewChannelID()
	user := ref.NewUserID()
	if err := db.AcknowledgeMessage(ctx, channel, user, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); err != nil {
		t.Fatalf("AcknowledgeMessage: %v", err)
	}
	// Re-acking must replace, not fail.
	if err := db.AcknowledgeMessage(ctx, channel, user, "01BX5ZZKBKACTAV9WEVGEMMVRZ"); err != nil {
		t.Fatalf("AcknowledgeMessage: %v", err)
	}
}
