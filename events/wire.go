// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"

	"github.com/ember-chat/ember/lib/codec"
)

// envelope is the wire frame: a type tag plus the CBOR-encoded event
// body. Bulk bodies hold a list of nested envelopes.
type envelope struct {
	Type Kind             `cbor:"type"`
	Data codec.RawMessage `cbor:"data"`
}

type bulkWire struct {
	Events []codec.RawMessage `cbor:"events"`
}

// Marshal encodes an event into its wire envelope.
func Marshal(event Event) ([]byte, error) {
	body, err := marshalBody(event)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(envelope{Type: event.Kind(), Data: body})
}

func marshalBody(event Event) (codec.RawMessage, error) {
	if bulk, ok := event.(Bulk); ok {
		wire := bulkWire{Events: make([]codec.RawMessage, 0, len(bulk.Events))}
		for _, nested := range bulk.Events {
			frame, err := Marshal(nested)
			if err != nil {
				return nil, fmt.Errorf("events: bulk entry (%s): %w", nested.Kind(), err)
			}
			wire.Events = append(wire.Events, frame)
		}
		return codec.Marshal(wire)
	}

	body, err := codec.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("events: encode %s: %w", event.Kind(), err)
	}
	return body, nil
}

// Unmarshal decodes a wire envelope back into its event.
func Unmarshal(data []byte) (Event, error) {
	var frame envelope
	if err := codec.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("events: decode envelope: %w", err)
	}

	if frame.Type == KindBulk {
		var wire bulkWire
		if err := codec.Unmarshal(frame.Data, &wire); err != nil {
			return nil, fmt.Errorf("events: decode bulk body: %w", err)
		}
		bulk := Bulk{Events: make([]Event, 0, len(wire.Events))}
		for _, nested := range wire.Events {
			event, err := Unmarshal(nested)
			if err != nil {
				return nil, fmt.Errorf("events: bulk entry: %w", err)
			}
			bulk.Events = append(bulk.Events, event)
		}
		return bulk, nil
	}

	decode, ok := registry[frame.Type]
	if !ok {
		return nil, fmt.Errorf("events: unknown event type %q", frame.Type)
	}
	event, err := decode(frame.Data)
	if err != nil {
		return nil, fmt.Errorf("events: decode %s body: %w", frame.Type, err)
	}
	return event, nil
}

// registry maps event kinds to their body decoders. Bulk is handled
// structurally in Unmarshal and deliberately absent here.
var registry = map[Kind]func(codec.RawMessage) (Event, error){
	KindReady:              decodeInto[Ready],
	KindChannelCreate:      decodeInto[ChannelCreate],
	KindChannelUpdate:      decodeInto[ChannelUpdate],
	KindChannelDelete:      decodeInto[ChannelDelete],
	KindChannelGroupJoin:   decodeInto[ChannelGroupJoin],
	KindChannelGroupLeave:  decodeInto[ChannelGroupLeave],
	KindChannelStartTyping: decodeInto[ChannelStartTyping],
	KindChannelStopTyping:  decodeInto[ChannelStopTyping],
	KindChannelAck:         decodeInto[ChannelAck],
	KindMessage:            decodeInto[Message],
	KindServerCreate:       decodeInto[ServerCreate],
	KindServerUpdate:       decodeInto[ServerUpdate],
	KindServerDelete:       decodeInto[ServerDelete],
	KindServerMemberJoin:   decodeInto[ServerMemberJoin],
	KindServerMemberLeave:  decodeInto[ServerMemberLeave],
	KindServerMemberUpdate: decodeInto[ServerMemberUpdate],
	KindServerRoleUpdate:   decodeInto[ServerRoleUpdate],
	KindServerRoleDelete:   decodeInto[ServerRoleDelete],
	KindUserUpdate:         decodeInto[UserUpdate],
	KindUserRelationship:   decodeInto[UserRelationship],
}

func decodeInto[T Event](data codec.RawMessage) (Event, error) {
	var event T
	if err := codec.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}
