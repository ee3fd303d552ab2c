// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// parseULID validates that raw is a well-formed ULID and returns its
// canonical (upper-case) string form. The kind is only used in error
// messages ("user ID", "channel ID", ...).
func parseULID(raw, kind string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("invalid %s: empty string", kind)
	}
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s %q: %w", kind, raw, err)
	}
	return id.String(), nil
}

// newULID mints a fresh ULID string. ulid.Make uses a monotonic
// entropy source, so IDs minted in the same millisecond still sort in
// creation order.
func newULID() string {
	return ulid.Make().String()
}
