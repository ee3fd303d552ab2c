// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Ember packages.
//
// [RequireReceive] and [RequireSend] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls; these are the only
// wall-clock timeouts in the suite.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Ember-internal dependencies.
package testutil
