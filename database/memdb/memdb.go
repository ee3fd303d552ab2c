// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package memdb is the in-memory reference implementation of
// database.Database. It backs tests and single-node development runs;
// everything lives in mutex-guarded maps and is lost on process exit.
package memdb

import (
	"context"
	"sort"
	"sync"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// DB is an in-memory database.Database. The zero value is not usable;
// call New.
type DB struct {
	mu       sync.RWMutex
	users    map[ref.UserID]model.User
	servers  map[ref.ServerID]model.Server
	channels map[ref.ChannelID]model.Channel
	members  map[model.MemberKey]model.Member
	emoji    map[ref.EmojiID]model.Emoji
	acks     map[ackKey]string
}

type ackKey struct {
	channel ref.ChannelID
	user    ref.UserID
}

var _ database.Database = (*DB)(nil)

// New returns an empty in-memory database.
func New() *DB {
	return &DB{
		users:    make(map[ref.UserID]model.User),
		servers:  make(map[ref.ServerID]model.Server),
		channels: make(map[ref.ChannelID]model.Channel),
		members:  make(map[model.MemberKey]model.Member),
		emoji:    make(map[ref.EmojiID]model.Emoji),
		acks:     make(map[ackKey]string),
	}
}

func (db *DB) FetchUser(ctx context.Context, id ref.UserID) (model.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	user, ok := db.users[id]
	if !ok {
		return model.User{}, database.ErrNotFound
	}
	return user, nil
}

func (db *DB) FetchUsers(ctx context.Context, ids []ref.UserID) ([]model.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := db.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (db *DB) FetchServers(ctx context.Context, ids []ref.ServerID) ([]model.Server, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	servers := make([]model.Server, 0, len(ids))
	for _, id := range ids {
		if server, ok := db.servers[id]; ok {
			servers = append(servers, server)
		}
	}
	return servers, nil
}

func (db *DB) FetchChannel(ctx context.Context, id ref.ChannelID) (model.Channel, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	channel, ok := db.channels[id]
	if !ok {
		return model.Channel{}, database.ErrNotFound
	}
	return channel, nil
}

func (db *DB) FetchChannels(ctx context.Context, ids []ref.ChannelID) ([]model.Channel, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	channels := make([]model.Channel, 0, len(ids))
	for _, id := range ids {
		if channel, ok := db.channels[id]; ok {
			channels = append(channels, channel)
		}
	}
	return channels, nil
}

func (db *DB) FetchAllMemberships(ctx context.Context, user ref.UserID) ([]model.Member, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var memberships []model.Member
	for key, member := range db.members {
		if key.User == user {
			memberships = append(memberships, member)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].ID.Server.String() < memberships[j].ID.Server.String()
	})
	return memberships, nil
}

func (db *DB) FindDirectMessages(ctx context.Context, user ref.UserID) ([]model.Channel, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var found []model.Channel
	for _, channel := range db.channels {
		switch channel.Kind {
		case model.ChannelSavedMessages:
			if channel.User == user {
				found = append(found, channel)
			}
		case model.ChannelDirectMessage, model.ChannelGroup:
			if channel.HasRecipient(user) {
				found = append(found, channel)
			}
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ID.String() < found[j].ID.String()
	})
	return found, nil
}

func (db *DB) FetchEmojiByParents(ctx context.Context, parents []ref.ServerID) ([]model.Emoji, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	wanted := make(map[ref.ServerID]bool, len(parents))
	for _, parent := range parents {
		wanted[parent] = true
	}
	var found []model.Emoji
	for _, emoji := range db.emoji {
		if wanted[emoji.Parent] {
			found = append(found, emoji)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ID.String() < found[j].ID.String()
	})
	return found, nil
}

func (db *DB) FetchAllMembersChunked(ctx context.Context, server ref.ServerID) (database.MemberSequence, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var members []model.Member
	for key, member := range db.members {
		if key.Server == server {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].ID.User.String() < members[j].ID.User.String()
	})
	return &memberSequence{members: members}, nil
}

// memberSequence iterates a snapshot taken when the sequence was
// created; concurrent writes do not affect an open sequence.
type memberSequence struct {
	members []model.Member
	offset  int
}

func (s *memberSequence) Next(ctx context.Context) (model.Member, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Member{}, false, err
	}
	if s.offset >= len(s.members) {
		return model.Member{}, false, nil
	}
	member := s.members[s.offset]
	s.offset++
	return member, true, nil
}

func (s *memberSequence) Reset() { s.offset = 0 }

func (db *DB) InsertUser(ctx context.Context, user model.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[user.ID] = user
	return nil
}

func (db *DB) InsertServer(ctx context.Context, server model.Server) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.servers[server.ID] = server
	return nil
}

func (db *DB) InsertChannel(ctx context.Context, channel model.Channel) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.channels[channel.ID] = channel
	return nil
}

func (db *DB) InsertMember(ctx context.Context, member model.Member) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.members[member.ID] = member
	return nil
}

func (db *DB) InsertEmoji(ctx context.Context, emoji model.Emoji) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.emoji[emoji.ID] = emoji
	return nil
}

func (db *DB) UpdateChannel(ctx context.Context, id ref.ChannelID, partial model.PartialChannel, clear []model.FieldsChannel) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	channel, ok := db.channels[id]
	if !ok {
		return database.ErrNotFound
	}
	for _, field := range clear {
		channel.Remove(field)
	}
	channel.Apply(partial)
	db.channels[id] = channel
	return nil
}

func (db *DB) DeleteChannel(ctx context.Context, id ref.ChannelID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.channels, id)
	return nil
}

func (db *DB) AcknowledgeMessage(ctx context.Context, channel ref.ChannelID, user ref.UserID, messageID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.acks[ackKey{channel: channel, user: user}] = messageID
	return nil
}

// LastAck returns the recorded acknowledgement for a (channel, user)
// pair. Test helper.
func (db *DB) LastAck(channel ref.ChannelID, user ref.UserID) (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	id, ok := db.acks[ackKey{channel: channel, user: user}]
	return id, ok
}
