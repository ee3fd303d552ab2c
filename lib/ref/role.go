// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// RoleID is a validated role identifier (ULID). Roles are scoped to a
// server; the ID alone does not identify the owning server.
type RoleID struct {
	id string
}

// ParseRoleID validates and wraps a raw role ID string.
func ParseRoleID(raw string) (RoleID, error) {
	id, err := parseULID(raw, "role ID")
	if err != nil {
		return RoleID{}, err
	}
	return RoleID{id: id}, nil
}

// NewRoleID mints a fresh role ID.
func NewRoleID() RoleID { return RoleID{id: newULID()} }

func (r RoleID) String() string { return r.id }

// IsZero reports whether the RoleID is the zero value.
func (r RoleID) IsZero() bool { return r.id == "" }

func (r RoleID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

func (r *RoleID) UnmarshalText(text []byte) error {
	parsed, err := ParseRoleID(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
