// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitedb implements database.Database on SQLite through
// lib/sqlitepool.
//
// Entity records are stored as deterministic CBOR blobs keyed by ULID;
// the relational surface is limited to the columns queries filter on
// (membership keys, channel recipients, emoji parents). This keeps the
// schema stable while the record shapes evolve.
package sqlitedb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ember-chat/ember/database"
	"github.com/ember-chat/ember/lib/codec"
	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/lib/sqlitepool"
	"github.com/ember-chat/ember/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id     TEXT PRIMARY KEY,
	record BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS servers (
	id     TEXT PRIMARY KEY,
	record BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	owner_user TEXT NOT NULL DEFAULT '',
	record     BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS channel_recipients (
	channel_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	PRIMARY KEY (channel_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_recipients_user ON channel_recipients (user_id);
CREATE TABLE IF NOT EXISTS members (
	server_id TEXT NOT NULL,
	user_id   TEXT NOT NULL,
	record    BLOB NOT NULL,
	PRIMARY KEY (server_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_members_user ON members (user_id);
CREATE TABLE IF NOT EXISTS emoji (
	id        TEXT PRIMARY KEY,
	parent_id TEXT NOT NULL,
	record    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_emoji_parent ON emoji (parent_id);
CREATE TABLE IF NOT EXISTS acks (
	channel_id TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	message_id TEXT NOT NULL,
	PRIMARY KEY (channel_id, user_id)
);
`

// memberChunkSize is how many member rows one page of the chunked
// sequence loads.
const memberChunkSize = 1000

// DB is a SQLite-backed database.Database.
type DB struct {
	pool *sqlitepool.Pool
}

var _ database.Database = (*DB)(nil)

// Open opens (creating if necessary) the database at path. poolSize
// is the number of pooled connections; zero picks a default.
func Open(path string, poolSize int, logger *slog.Logger) (*DB, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     path,
		PoolSize: poolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.pool.Close()
}

// fetchRecord loads and decodes one record blob by primary key.
func fetchRecord[T any](ctx context.Context, db *DB, table, id string) (T, error) {
	var record T
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return record, err
	}
	defer db.pool.Put(conn)

	found := false
	err = sqlitex.Execute(conn, "SELECT record FROM "+table+" WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			return codec.Unmarshal(blob, &record)
		},
	})
	if err != nil {
		return record, fmt.Errorf("sqlitedb: fetch from %s: %w", table, err)
	}
	if !found {
		return record, database.ErrNotFound
	}
	return record, nil
}

// fetchRecords loads and decodes record blobs for a set of primary
// keys, skipping unknown IDs.
func fetchRecords[T any](ctx context.Context, db *DB, table string, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer db.pool.Put(conn)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := "SELECT record FROM " + table + " WHERE id IN (" + placeholders(len(ids)) + ") ORDER BY id"

	var records []T
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var record T
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			if err := codec.Unmarshal(blob, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: fetch from %s: %w", table, err)
	}
	return records, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (db *DB) FetchUser(ctx context.Context, id ref.UserID) (model.User, error) {
	return fetchRecord[model.User](ctx, db, "users", id.String())
}

func (db *DB) FetchUsers(ctx context.Context, ids []ref.UserID) ([]model.User, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return fetchRecords[model.User](ctx, db, "users", raw)
}

func (db *DB) FetchServers(ctx context.Context, ids []ref.ServerID) ([]model.Server, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return fetchRecords[model.Server](ctx, db, "servers", raw)
}

func (db *DB) FetchChannel(ctx context.Context, id ref.ChannelID) (model.Channel, error) {
	return fetchRecord[model.Channel](ctx, db, "channels", id.String())
}

func (db *DB) FetchChannels(ctx context.Context, ids []ref.ChannelID) ([]model.Channel, error) {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return fetchRecords[model.Channel](ctx, db, "channels", raw)
}

func (db *DB) FetchAllMemberships(ctx context.Context, user ref.UserID) ([]model.Member, error) {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer db.pool.Put(conn)

	var members []model.Member
	err = sqlitex.Execute(conn, "SELECT record FROM members WHERE user_id = ? ORDER BY server_id", &sqlitex.ExecOptions{
		Args: []any{user.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var member model.Member
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			if err := codec.Unmarshal(blob, &member); err != nil {
				return err
			}
			members = append(members, member)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: fetch memberships: %w", err)
	}
	return members, nil
}

func (db *DB) FindDirectMessages(ctx context.Context, user ref.UserID) ([]model.Channel, error) {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer db.pool.Put(conn)

	const query = `
		SELECT record FROM channels
		WHERE owner_user = ?1
		   OR id IN (SELECT channel_id FROM channel_recipients WHERE user_id = ?1)
		ORDER BY id`

	var channels []model.Channel
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{user.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var channel model.Channel
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			if err := codec.Unmarshal(blob, &channel); err != nil {
				return err
			}
			channels = append(channels, channel)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: find direct messages: %w", err)
	}
	return channels, nil
}

func (db *DB) FetchEmojiByParents(ctx context.Context, parents []ref.ServerID) ([]model.Emoji, error) {
	if len(parents) == 0 {
		return nil, nil
	}
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer db.pool.Put(conn)

	args := make([]any, len(parents))
	for i, parent := range parents {
		args[i] = parent.String()
	}
	query := "SELECT record FROM emoji WHERE parent_id IN (" + placeholders(len(parents)) + ") ORDER BY id"

	var emoji []model.Emoji
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var record model.Emoji
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			if err := codec.Unmarshal(blob, &record); err != nil {
				return err
			}
			emoji = append(emoji, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: fetch emoji: %w", err)
	}
	return emoji, nil
}

func (db *DB) FetchAllMembersChunked(ctx context.Context, server ref.ServerID) (database.MemberSequence, error) {
	return &memberSequence{db: db, server: server, chunkSize: memberChunkSize}, nil
}

// memberSequence pages through a server's members in user-ID order,
// loading chunkSize rows at a time. It holds no connection between
// pages, so a sequence can stay open indefinitely without starving the
// pool.
type memberSequence struct {
	db        *DB
	server    ref.ServerID
	chunkSize int

	buffered []model.Member
	lastUser string
	done     bool
}

func (s *memberSequence) Next(ctx context.Context) (model.Member, bool, error) {
	if len(s.buffered) == 0 && !s.done {
		if err := s.loadChunk(ctx); err != nil {
			return model.Member{}, false, err
		}
	}
	if len(s.buffered) == 0 {
		return model.Member{}, false, nil
	}
	member := s.buffered[0]
	s.buffered = s.buffered[1:]
	s.lastUser = member.ID.User.String()
	return member, true, nil
}

func (s *memberSequence) Reset() {
	s.buffered = nil
	s.lastUser = ""
	s.done = false
}

func (s *memberSequence) loadChunk(ctx context.Context) error {
	conn, err := s.db.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.db.pool.Put(conn)

	const query = `
		SELECT record FROM members
		WHERE server_id = ? AND user_id > ?
		ORDER BY user_id LIMIT ?`

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{s.server.String(), s.lastUser, s.chunkSize},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var member model.Member
			blob := make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, blob)
			if err := codec.Unmarshal(blob, &member); err != nil {
				return err
			}
			s.buffered = append(s.buffered, member)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("sqlitedb: fetch member chunk: %w", err)
	}
	if len(s.buffered) < s.chunkSize {
		s.done = true
	}
	return nil
}
