// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"github.com/oklog/ulid/v2"

	"github.com/ember-chat/ember/events"
	"github.com/ember-chat/ember/model"
)

// BroadcastPresenceChange publishes the viewer coming online or going
// offline to their own topic and to every cached server topic. The
// copies carry a shared event ID so connections subscribed to several
// of those topics forward the change once. Viewers whose status is set
// to invisible broadcast nothing.
func (s *State) BroadcastPresenceChange(online bool) {
	if s.viewer.Status != nil && s.viewer.Status.Presence == model.PresenceInvisible {
		return
	}
	update := events.UserUpdate{
		ID:      s.viewer.ID,
		Data:    model.PartialUser{Online: &online},
		EventID: ulid.Make().String(),
	}
	s.bus.Publish(s.viewer.ID.Topic(), update)
	for id := range s.servers {
		s.bus.Publish(id.Topic(), update)
	}
}
