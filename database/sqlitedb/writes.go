// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitedb

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ember-chat/ember/lib/codec"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
)

func (db *DB) InsertUser(ctx context.Context, user model.User) error {
	blob, err := codec.Marshal(user)
	if err != nil {
		return fmt.Errorf("sqlitedb: encode user: %w", err)
	}
	return db.execute(ctx, "INSERT OR REPLACE INTO users (id, record) VALUES (?, ?)",
		user.ID.String(), blob)
}

func (db *DB) InsertServer(ctx context.Context, server model.Server) error {
	blob, err := codec.Marshal(server)
	if err != nil {
		return fmt.Errorf("sqlitedb: encode server: %w", err)
	}
	return db.execute(ctx, "INSERT OR REPLACE INTO servers (id, record) VALUES (?, ?)",
		server.ID.String(), blob)
}

func (db *DB) InsertChannel(ctx context.Context, channel model.Channel) error {
	blob, err := codec.Marshal(channel)
	if err != nil {
		return fmt.Errorf("sqlitedb: encode channel: %w", err)
	}

	conn, err := db.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer db.pool.Put(conn)

	endTxn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitedb: begin: %w", err)
	}
	defer endTxn(&err)

	ownerUser := ""
	if channel.Kind == model.ChannelSavedMessages {
		ownerUser = channel.User.String()
	}
	err = sqlitex.Execute(conn, "INSERT OR REPLACE INTO channels (id, kind, owner_user, record) VALUES (?, ?, ?, ?)", &sqlitex.ExecOptions{
		Args: []any{channel.ID.String(), string(channel.Kind), ownerUser, blob},
	})
	if err != nil {
		return fmt.Errorf("sqlitedb: insert channel: %w", err)
	}

	// Refresh the recipients index used by FindDirectMessages.
	err = sqlitex.Execute(conn, "DELETE FROM channel_recipients WHERE channel_id = ?", &sqlitex.ExecOptions{
		Args: []any{channel.ID.String()},
	})
	if err != nil {
		return fmt.Errorf("sqlitedb: clear recipients: %w", err)
	}
	for _, recipient := range channel.Recipients {
		err = sqlitex.Execute(conn, "INSERT INTO channel_recipients (channel_id, user_id) VALUES (?, ?)", &sqlitex.ExecOptions{
			Args: []any{channel.ID.String(), recipient.String()},
		})
		if err != nil {
			return fmt.Errorf("sqlitedb: insert recipient: %w", err)
		}
	}
	return nil
}

func (db *DB) InsertMember(ctx context.Context, member model.Member) error {
	blob, err := codec.Marshal(member)
	if err != nil {
		return fmt.Errorf("sqlitedb: encode member: %w", err)
	}
	return db.execute(ctx, "INSERT OR REPLACE INTO members (server_id, user_id, record) VALUES (?, ?, ?)",
		member.ID.Server.String(), member.ID.User.String(), blob)
}

func (db *DB) InsertEmoji(ctx context.Context, emoji model.Emoji) error {
	blob, err := codec.Marshal(emoji)
	if err != nil {
		return fmt.Errorf("sqlitedb: encode emoji: %w", err)
	}
	return db.execute(ctx, "INSERT OR REPLACE INTO emoji (id, parent_id, record) VALUES (?, ?, ?)",
		emoji.ID.String(), emoji.Parent.String(), blob)
}

func (db *DB) UpdateChannel(ctx context.Context, id ref.ChannelID, partial model.PartialChannel, clear []model.FieldsChannel) error {
	channel, err := db.FetchChannel(ctx, id)
	if err != nil {
		return err
	}
	for _, field := range clear {
		channel.Remove(field)
	}
	channel.Apply(partial)
	return db.InsertChannel(ctx, channel)
}

func (db *DB) DeleteChannel(ctx context.Context, id ref.ChannelID) error {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer db.pool.Put(conn)

	endTxn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitedb: begin: %w", err)
	}
	defer endTxn(&err)

	for _, query := range []string{
		"DELETE FROM channels WHERE id = ?",
		"DELETE FROM channel_recipients WHERE channel_id = ?",
		"DELETE FROM acks WHERE channel_id = ?",
	} {
		if err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: []any{id.String()}}); err != nil {
			return fmt.Errorf("sqlitedb: delete channel: %w", err)
		}
	}
	return nil
}

func (db *DB) AcknowledgeMessage(ctx context.Context, channel ref.ChannelID, user ref.UserID, messageID string) error {
	return db.execute(ctx, "INSERT OR REPLACE INTO acks (channel_id, user_id, message_id) VALUES (?, ?, ?)",
		channel.String(), user.String(), messageID)
}

// execute runs one statement on a pooled connection.
func (db *DB) execute(ctx context.Context, query string, args ...any) error {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer db.pool.Put(conn)

	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("sqlitedb: %w", err)
	}
	return nil
}
