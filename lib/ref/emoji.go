// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EmojiID is a validated custom-emoji identifier (ULID).
type EmojiID struct {
	id string
}

// ParseEmojiID validates and wraps a raw emoji ID string.
func ParseEmojiID(raw string) (EmojiID, error) {
	id, err := parseULID(raw, "emoji ID")
	if err != nil {
		return EmojiID{}, err
	}
	return EmojiID{id: id}, nil
}

// NewEmojiID mints a fresh emoji ID.
func NewEmojiID() EmojiID { return EmojiID{id: newULID()} }

func (e EmojiID) String() string { return e.id }

// IsZero reports whether the EmojiID is the zero value.
func (e EmojiID) IsZero() bool { return e.id == "" }

func (e EmojiID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

func (e *EmojiID) UnmarshalText(text []byte) error {
	parsed, err := ParseEmojiID(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
