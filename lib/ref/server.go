// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// ServerID is a validated server identifier (ULID). Immutable value
// type; the zero value is not valid.
type ServerID struct {
	id string
}

// ParseServerID validates and wraps a raw server ID string.
func ParseServerID(raw string) (ServerID, error) {
	id, err := parseULID(raw, "server ID")
	if err != nil {
		return ServerID{}, err
	}
	return ServerID{id: id}, nil
}

// NewServerID mints a fresh server ID.
func NewServerID() ServerID { return ServerID{id: newULID()} }

func (s ServerID) String() string { return s.id }

// IsZero reports whether the ServerID is the zero value.
func (s ServerID) IsZero() bool { return s.id == "" }

// Topic returns the pub/sub topic carrying this server's events.
func (s ServerID) Topic() Topic { return Topic{name: s.id} }

func (s ServerID) MarshalText() ([]byte, error) { return []byte(s.id), nil }

func (s *ServerID) UnmarshalText(text []byte) error {
	parsed, err := ParseServerID(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
