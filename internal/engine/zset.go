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
	"sort"
	"sync"

	"redisrv/pkg/store"
)

// ZSetEngine stores per-key sorted sets, each bijected between a member
// lookup map and a score-ordered slice.
type ZSetEngine struct {
	mu    sync.Mutex
	zsets map[string]*store.ZSet
}

// NewZSetEngine creates an empty sorted-set engine.
func NewZSetEngine() *ZSetEngine {
	return &ZSetEngine{zsets: make(map[string]*store.ZSet)}
}

func (e *ZSetEngine) zsetLocked(key string) *store.ZSet {
	z, ok := e.zsets[key]
	if !ok {
		z = store.NewZSet()
		e.zsets[key] = z
	}
	return z
}

// Add sets member's score in key's sorted set, returning the number of
// members newly added (0 or 1, matching a single ZADD member/score pair).
func (e *ZSetEngine) Add(key, member string, score float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.zsetLocked(key).Add(member, score) {
		return 1
	}
	return 0
}

// Score returns member's score in key's sorted set.
func (e *ZSetEngine) Score(key, member string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zsets[key]
	if !ok {
		return 0, false
	}
	return z.Score(member)
}

// Rem removes member from key's sorted set, reporting whether it was present.
func (e *ZSetEngine) Rem(key, member string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zsets[key]
	if !ok {
		return false
	}
	return z.Rem(member)
}

// Card returns the cardinality of key's sorted set, 0 if absent.
func (e *ZSetEngine) Card(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zsets[key]
	if !ok {
		return 0
	}
	return z.Card()
}

// Rank returns member's 0-based rank by ascending score in key's sorted set.
func (e *ZSetEngine) Rank(key, member string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zsets[key]
	if !ok {
		return 0, false
	}
	return z.Rank(member)
}

// Range returns the members of key's sorted set between start and stop
// inclusive, ordered by ascending score then member.
func (e *ZSetEngine) Range(key string, start, stop int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zsets[key]
	if !ok {
		return nil
	}
	return z.Range(start, stop)
}

// ForEach calls f for every member of key's sorted set in ascending-score
// order, used by GEOSEARCH to recover coordinates.
func (e *ZSetEngine) ForEach(key string, f func(member string, score float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zsets[key]
	if !ok {
		return
	}
	z.ForEach(f)
}

// Keys returns every sorted-set key currently present, sorted.
func (e *ZSetEngine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.zsets))
	for k := range e.zsets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key names a sorted set.
func (e *ZSetEngine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.zsets[key]
	return ok
}
