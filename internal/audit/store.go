// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package audit

import (
	"context"
	"slices"
	"sync"
)

// DefaultMaxEvents bounds MemoryStore when no size is given.
const DefaultMaxEvents = 10000

// MemoryStore keeps the most recent events in memory. Data is lost on
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore creates a store holding at most maxLen events.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = DefaultMaxEvents
	}
	return &MemoryStore{
		events: make([]Event, 0, min(maxLen, 1024)),
		maxLen: maxLen,
	}
}

// Save appends event, dropping the oldest when full.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		s.events = slices.Delete(s.events, 0, len(s.events)-s.maxLen+1)
	}
	s.events = append(s.events, *event)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		e := &s.events[i]
		if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
			continue
		}
		if len(filter.Types) > 0 && !slices.Contains(filter.Types, e.Type) {
			continue
		}
		out = append(out, *e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
