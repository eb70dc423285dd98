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

// Package engine holds the process-global, per-type maps that back the
// server's typed commands. Each engine owns exactly one mutex guarding its
// own map, per the concurrency model: critical sections are short and never
// span network I/O.
package engine

import (
	"sort"
	"sync"
	"time"

	"redisrv/internal/snapshot"
	"redisrv/pkg/store"
)

// KVEngine stores string values with optional TTL, falling back to a
// read-only loaded snapshot for keys the live map doesn't have.
type KVEngine struct {
	mu       sync.Mutex
	cells    map[string]*store.Cell
	snapshot *snapshot.DB // may be nil if no snapshot was loaded
}

// NewKVEngine creates an empty KV engine with an optional snapshot fallback.
func NewKVEngine(snap *snapshot.DB) *KVEngine {
	return &KVEngine{cells: make(map[string]*store.Cell), snapshot: snap}
}

// Set stores value under key, with an optional TTL (ttl <= 0 means no TTL).
func (e *KVEngine) Set(key string, value []byte, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ttl > 0 {
		e.cells[key] = store.NewCellWithTTL(value, ttl)
	} else {
		e.cells[key] = store.NewCell(value)
	}
}

// Get returns the value for key, consulting the snapshot if the live map
// lacks it. An expired live cell is deleted lazily; a snapshot entry whose
// absolute expiry has already passed is reported absent but left in place.
func (e *KVEngine) Get(key string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cell, ok := e.cells[key]; ok {
		if cell.Expired(time.Now()) {
			delete(e.cells, key)
			return nil, false
		}
		return cell.Value, true
	}
	if e.snapshot != nil {
		if value, expired, ok := e.snapshot.Lookup(key); ok {
			if expired {
				return nil, false
			}
			return value, true
		}
	}
	return nil, false
}

// Incr parses the value at key as an integer, adds 1, and stores the result.
// A missing key is treated as "0" before incrementing, so it becomes "1".
func (e *KVEngine) Incr(key string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cell, ok := e.cells[key]
	if !ok {
		cell = store.NewCell([]byte("0"))
		e.cells[key] = cell
	} else if cell.Expired(time.Now()) {
		cell = store.NewCell([]byte("0"))
		e.cells[key] = cell
	}
	return cell.Incr(1)
}

// Del removes each listed key from the live map, returning how many existed
// (lazily-expired keys do not count).
func (e *KVEngine) Del(keys []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()
	n := 0
	for _, key := range keys {
		cell, ok := e.cells[key]
		if !ok {
			continue
		}
		delete(e.cells, key)
		if !cell.Expired(now) {
			n++
		}
	}
	return n
}

// Exists reports how many of the listed keys are currently present, live or
// via the snapshot fallback.
func (e *KVEngine) Exists(keys []string) int {
	n := 0
	for _, key := range keys {
		if _, ok := e.Get(key); ok {
			n++
		}
	}
	return n
}

// Has reports whether key is present in the live KV map (non-expired), used
// by the dispatcher's TYPE probe without pulling in the snapshot fallback.
func (e *KVEngine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cell, ok := e.cells[key]
	if !ok {
		return false
	}
	if cell.Expired(time.Now()) {
		delete(e.cells, key)
		return false
	}
	return true
}

// Keys returns the sorted union of non-expired live keys and snapshot keys.
func (e *KVEngine) Keys() []string {
	e.mu.Lock()
	seen := make(map[string]struct{}, len(e.cells))
	now := time.Now()
	for key, cell := range e.cells {
		if cell.Expired(now) {
			delete(e.cells, key)
			continue
		}
		seen[key] = struct{}{}
	}
	e.mu.Unlock()

	if e.snapshot != nil {
		for _, key := range e.snapshot.Keys() {
			if _, expired, ok := e.snapshot.Lookup(key); ok && !expired {
				seen[key] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
