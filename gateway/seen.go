// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

// seenSet is a fixed-capacity recency set over event IDs. Insertion
// past capacity evicts the least recently inserted entry, so memory
// stays bounded for the lifetime of the connection while recent
// duplicates are still caught.
type seenSet struct {
	capacity int
	order    []string
	present  map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		present:  make(map[string]struct{}, capacity),
	}
}

func (s *seenSet) Contains(id string) bool {
	_, ok := s.present[id]
	return ok
}

// Insert records the id, refreshing its recency if already present.
func (s *seenSet) Insert(id string) {
	if s.Contains(id) {
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.order = append(s.order, id)
		return
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.present, oldest)
	}
	s.order = append(s.order, id)
	s.present[id] = struct{}{}
}

func (s *seenSet) Len() int { return len(s.order) }
