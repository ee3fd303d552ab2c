// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// Topic identifies a stream on the pub/sub transport. Subscribing a
// connection to a topic makes it receive every event published there.
//
// Entity topics share the entity's ULID (obtained via the Topic method
// on UserID, ServerID, ChannelID). Session-private topics carry a "!"
// prefix so they can never collide with an entity topic.
type Topic struct {
	name string
}

// NewPrivateTopic mints a session-private topic. Each connection gets
// exactly one; it is always subscribed and never shared.
func NewPrivateTopic() Topic {
	return Topic{name: "!" + newULID()}
}

// ParseTopic wraps a raw topic string as received from the transport.
// Topics are opaque at this layer, so any non-empty string is valid.
func ParseTopic(raw string) (Topic, error) {
	if raw == "" {
		return Topic{}, errEmptyTopic
	}
	return Topic{name: raw}, nil
}

func (t Topic) String() string { return t.name }

// IsZero reports whether the Topic is the zero value.
func (t Topic) IsZero() bool { return t.name == "" }

// IsPrivate reports whether this is a session-private topic.
func (t Topic) IsPrivate() bool {
	return len(t.name) > 0 && t.name[0] == '!'
}

func (t Topic) MarshalText() ([]byte, error) { return []byte(t.name), nil }

func (t *Topic) UnmarshalText(text []byte) error {
	parsed, err := ParseTopic(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
