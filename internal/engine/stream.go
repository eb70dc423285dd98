// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"redisrv/pkg/store"
)

// StreamEngine stores per-key append-only streams. Every key has its own
// wake channel so a blocking XREAD on one key is never disturbed by an
// XADD landing on an unrelated key; a global wake channel additionally
// serves multi-key XREADs, which must wake when any of their keys grows.
type StreamEngine struct {
	mu         sync.Mutex
	streams    map[string]*store.Stream
	wakes      map[string]chan struct{}
	globalWake chan struct{}
}

// NewStreamEngine creates an empty stream engine.
func NewStreamEngine() *StreamEngine {
	return &StreamEngine{
		streams:    make(map[string]*store.Stream),
		wakes:      make(map[string]chan struct{}),
		globalWake: make(chan struct{}),
	}
}

func (e *StreamEngine) streamLocked(key string) *store.Stream {
	s, ok := e.streams[key]
	if !ok {
		s = store.NewStream()
		e.streams[key] = s
	}
	return s
}

func (e *StreamEngine) wakeLocked(key string) chan struct{} {
	ch, ok := e.wakes[key]
	if !ok {
		ch = make(chan struct{})
		e.wakes[key] = ch
	}
	return ch
}

// Append adds an entry to key's stream, enforcing strictly increasing IDs,
// and wakes any XREAD blocked on this key.
func (e *StreamEngine) Append(key string, id store.ID, fields map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.streamLocked(key)
	if err := s.Append(id, fields); err != nil {
		return err
	}
	ch := e.wakeLocked(key)
	close(ch)
	e.wakes[key] = make(chan struct{})
	close(e.globalWake)
	e.globalWake = make(chan struct{})
	return nil
}

// LastID returns the most recently appended ID for key.
func (e *StreamEngine) LastID(key string) (store.ID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.streams[key]
	if !ok {
		return store.ID{}, false
	}
	return s.LastID()
}

// Len returns the entry count of key's stream, 0 if missing.
func (e *StreamEngine) Len(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.streams[key]
	if !ok {
		return 0
	}
	return s.Len()
}

// Range returns entries of key's stream between start and end inclusive.
func (e *StreamEngine) Range(key string, start, end store.ID) []store.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.streams[key]
	if !ok {
		return nil
	}
	return s.Range(start, end)
}

// After returns entries of key's stream strictly newer than after.
func (e *StreamEngine) After(key string, after store.ID) []store.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.streams[key]
	if !ok {
		return nil
	}
	return s.After(after)
}

// BlockingAfter waits until key's stream has at least one entry newer than
// after, returning those entries, or ok=false if ctx was cancelled or
// deadline (zero means forever) elapsed first.
func (e *StreamEngine) BlockingAfter(ctx context.Context, key string, after store.ID, deadline time.Time) (entries []store.Entry, ok bool) {
	for {
		e.mu.Lock()
		if s, exists := e.streams[key]; exists {
			if got := s.After(after); len(got) > 0 {
				e.mu.Unlock()
				return got, true
			}
		}
		wakeCh := e.wakeLocked(key)
		e.mu.Unlock()

		if ctx.Err() != nil {
			return nil, false
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, false
		}

		if !deadline.IsZero() {
			timer := time.NewTimer(time.Until(deadline))
			select {
			case <-wakeCh:
			case <-timer.C:
			case <-ctx.Done():
			}
			timer.Stop()
		} else {
			select {
			case <-wakeCh:
			case <-ctx.Done():
			}
		}
	}
}

// BlockingAfterAny waits until at least one of keys has entries strictly
// newer than its paired after ID, returning per-key entry slices (nil for a
// key with nothing new), or ok=false if ctx was cancelled or deadline (zero
// means forever) elapsed first. It waits on the global wake channel, since a
// multi-key reader must wake when any of its keys grows.
func (e *StreamEngine) BlockingAfterAny(ctx context.Context, keys []string, afters []store.ID, deadline time.Time) (results [][]store.Entry, ok bool) {
	for {
		e.mu.Lock()
		results = make([][]store.Entry, len(keys))
		any := false
		for i, key := range keys {
			if s, exists := e.streams[key]; exists {
				if got := s.After(afters[i]); len(got) > 0 {
					results[i] = got
					any = true
				}
			}
		}
		wakeCh := e.globalWake
		e.mu.Unlock()
		if any {
			return results, true
		}

		if ctx.Err() != nil {
			return nil, false
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil, false
		}

		if !deadline.IsZero() {
			timer := time.NewTimer(time.Until(deadline))
			select {
			case <-wakeCh:
			case <-timer.C:
			case <-ctx.Done():
			}
			timer.Stop()
		} else {
			select {
			case <-wakeCh:
			case <-ctx.Done():
			}
		}
	}
}

// Keys returns every stream key currently present, sorted.
func (e *StreamEngine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.streams))
	for k := range e.streams {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key names a stream.
func (e *StreamEngine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.streams[key]
	return ok
}
