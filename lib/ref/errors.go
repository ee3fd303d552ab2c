// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "errors"

var errEmptyTopic = errors.New("invalid topic: empty string")
