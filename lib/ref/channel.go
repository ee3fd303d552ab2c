// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// ChannelID is a validated channel identifier (ULID). Immutable value
// type; the zero value is not valid.
type ChannelID struct {
	id string
}

// ParseChannelID validates and wraps a raw channel ID string.
func ParseChannelID(raw string) (ChannelID, error) {
	id, err := parseULID(raw, "channel ID")
	if err != nil {
		return ChannelID{}, err
	}
	return ChannelID{id: id}, nil
}

// NewChannelID mints a fresh channel ID.
func NewChannelID() ChannelID { return ChannelID{id: newULID()} }

func (c ChannelID) String() string { return c.id }

// IsZero reports whether the ChannelID is the zero value.
func (c ChannelID) IsZero() bool { return c.id == "" }

// Topic returns the pub/sub topic carrying this channel's events.
func (c ChannelID) Topic() Topic { return Topic{name: c.id} }

func (c ChannelID) MarshalText() ([]byte, error) { return []byte(c.id), nil }

func (c *ChannelID) UnmarshalText(text []byte) error {
	parsed, err := ParseChannelID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
