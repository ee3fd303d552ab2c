// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package database defines the persistence interface the gateway
// consumes, plus the shared error vocabulary. Implementations live in
// the memdb (in-memory, tests and single-node development) and
// sqlitedb (SQLite via lib/sqlitepool) subpackages.
//
// Bulk fetches (FetchUsers, FetchServers, FetchChannels,
// FetchEmojiByParents) skip unknown IDs silently and return what
// exists; single fetches return [ErrNotFound]. All methods are safe
// for concurrent use.
package database

import (
	"context"
	"errors"

	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

// ErrNotFound is returned by single-entity fetches for unknown IDs.
var ErrNotFound = errors.New("database: not found")

// Database is the persistence surface the gateway core depends on.
type Database interface {
	// FetchUser returns one user record.
	FetchUser(ctx context.Context, id ref.UserID) (model.User, error)

	// FetchUsers returns the user records for the given IDs.
	FetchUsers(ctx context.Context, ids []ref.UserID) ([]model.User, error)

	// FetchServers returns the server records for the given IDs.
	FetchServers(ctx context.Context, ids []ref.ServerID) ([]model.Server, error)

	// FetchChannel returns one channel record.
	FetchChannel(ctx context.Context, id ref.ChannelID) (model.Channel, error)

	// FetchChannels returns the channel records for the given IDs.
	FetchChannels(ctx context.Context, ids []ref.ChannelID) ([]model.Channel, error)

	// FetchAllMemberships returns every membership record of one user.
	FetchAllMemberships(ctx context.Context, user ref.UserID) ([]model.Member, error)

	// FindDirectMessages returns the direct-message and group channels
	// the user participates in, plus their saved-messages channel.
	FindDirectMessages(ctx context.Context, user ref.UserID) ([]model.Channel, error)

	// FetchEmojiByParents returns the emoji belonging to the given
	// servers.
	FetchEmojiByParents(ctx context.Context, parents []ref.ServerID) ([]model.Emoji, error)

	// FetchAllMembersChunked returns a restartable lazy sequence over
	// every member of one server. Large servers are paged internally;
	// the caller sees one member at a time.
	FetchAllMembersChunked(ctx context.Context, server ref.ServerID) (MemberSequence, error)

	// InsertUser stores (or replaces) a user record.
	InsertUser(ctx context.Context, user model.User) error

	// InsertServer stores (or replaces) a server record.
	InsertServer(ctx context.Context, server model.Server) error

	// InsertChannel stores (or replaces) a channel record.
	InsertChannel(ctx context.Context, channel model.Channel) error

	// InsertMember stores (or replaces) a membership record.
	InsertMember(ctx context.Context, member model.Member) error

	// InsertEmoji stores (or replaces) an emoji record.
	InsertEmoji(ctx context.Context, emoji model.Emoji) error

	// UpdateChannel applies a partial update: clears run first, then
	// non-nil partial fields overlay the stored record.
	UpdateChannel(ctx context.Context, id ref.ChannelID, partial model.PartialChannel, clear []model.FieldsChannel) error

	// DeleteChannel removes a channel record.
	DeleteChannel(ctx context.Context, id ref.ChannelID) error

	// AcknowledgeMessage records that the user has read the channel up
	// to the given message.
	AcknowledgeMessage(ctx context.Context, channel ref.ChannelID, user ref.UserID, messageID string) error
}

// MemberSequence is a finite lazy sequence of member records. Next
// returns false once the sequence is exhausted; Reset rewinds to the
// beginning so the sequence can be replayed.
type MemberSequence interface {
	// Next returns the next member. The boolean is false when the
	// sequence is exhausted (the member is then the zero value).
	Next(ctx context.Context) (model.Member, bool, error)

	// Reset rewinds the sequence to its start.
	Reset()
}
