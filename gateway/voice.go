// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"

	"github.com/ember-chat/ember/lib/ref"
	"github.com/ember-chat/ember/model"
	"github.com/ember-chat/ember/voice"
)

// fetchVoiceState assembles the current voice session of one channel.
// A member listed on the roster without a stored state is drift left
// by an unclean disconnect; the dangling roster entry is deleted
// rather than reported. Returns nil when nobody is connected so
// callers can omit the channel from payloads entirely.
func (s *State) fetchVoiceState(ctx context.Context, channel ref.ChannelID) (*model.ChannelVoiceState, error) {
	members, err := s.vox.ListChannelMembers(ctx, channel)
	if err != nil {
		return nil, err
	}
	var participants []model.UserVoiceState
	for _, user := range members {
		state, err := s.vox.GetVoiceState(ctx, channel, user)
		if errors.Is(err, voice.ErrNotFound) {
			if err := s.vox.RemoveChannelMember(ctx, channel, user); err != nil {
				s.log.Warn("removing dangling voice member", "channel", channel, "user", user, "error", err)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		participants = append(participants, state)
	}
	if len(participants) == 0 {
		return nil, nil
	}
	return &model.ChannelVoiceState{ID: channel, Participants: participants}, nil
}
