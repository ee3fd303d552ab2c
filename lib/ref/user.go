// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// UserID is a validated user identifier (ULID).
//
// UserID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw user ID string.
func ParseUserID(raw string) (UserID, error) {
	id, err := parseULID(raw, "user ID")
	if err != nil {
		return UserID{}, err
	}
	return UserID{id: id}, nil
}

// NewUserID mints a fresh user ID.
func NewUserID() UserID { return UserID{id: newULID()} }

// String returns the canonical ULID string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value (uninitialized).
func (u UserID) IsZero() bool { return u.id == "" }

// Topic returns the pub/sub topic carrying this user's events.
func (u UserID) Topic() Topic { return Topic{name: u.id} }

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler, validating the
// incoming string.
func (u *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
