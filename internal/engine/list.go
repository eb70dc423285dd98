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

// ListEngine stores per-key lists. A push closes and replaces a shared wake
// channel so every blocked BLPOP caller is notified and re-checks its own
// predicate, rather than assuming the wake means its own key was touched.
type ListEngine struct {
	mu    sync.Mutex
	lists map[string]*store.List
	wake  chan struct{}
}

// NewListEngine creates an empty list engine.
func NewListEngine() *ListEngine {
	return &ListEngine{lists: make(map[string]*store.List), wake: make(chan struct{})}
}

func (e *ListEngine) listLocked(key string) *store.List {
	l, ok := e.lists[key]
	if !ok {
		l = store.NewList()
		e.lists[key] = l
	}
	return l
}

func (e *ListEngine) broadcastLocked() {
	close(e.wake)
	e.wake = make(chan struct{})
}

// PushRight appends values to key's list and wakes any blocked poppers.
func (e *ListEngine) PushRight(key string, values ...[]byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.listLocked(key).PushRight(values...)
	e.broadcastLocked()
	return n
}

// PushLeft prepends values to key's list and wakes any blocked poppers.
func (e *ListEngine) PushLeft(key string, values ...[]byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.listLocked(key).PushLeft(values...)
	e.broadcastLocked()
	return n
}

// Len returns the length of key's list, 0 if absent.
func (e *ListEngine) Len(key string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lists[key]
	if !ok {
		return 0
	}
	return l.Len()
}

// Range returns the elements of key's list between start and stop inclusive.
func (e *ListEngine) Range(key string, start, stop int) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lists[key]
	if !ok {
		return nil
	}
	return l.Range(start, stop)
}

// PopLeft removes and returns up to count elements from the head of key's
// list, non-blocking. It returns nil if the list is absent or empty.
func (e *ListEngine) PopLeft(key string, count int) [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lists[key]
	if !ok {
		return nil
	}
	return l.PopLeft(count)
}

// BlockingPopLeft pops one element from the head of the first of keys that
// has one, blocking until deadline (zero means forever) if all are
// currently empty. Returns the key popped from and the value, or ok=false
// if ctx was cancelled or the deadline elapsed first.
func (e *ListEngine) BlockingPopLeft(ctx context.Context, keys []string, deadline time.Time) (key string, value []byte, ok bool) {
	for {
		e.mu.Lock()
		for _, k := range keys {
			if l, exists := e.lists[k]; exists {
				if popped := l.PopLeft(1); len(popped) == 1 {
					e.mu.Unlock()
					return k, popped[0], true
				}
			}
		}
		wakeCh := e.wake
		e.mu.Unlock()

		if ctx.Err() != nil {
			return "", nil, false
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return "", nil, false
		}

		var timerCh <-chan time.Time
		if !deadline.IsZero() {
			timer := time.NewTimer(time.Until(deadline))
			timerCh = timer.C
			select {
			case <-wakeCh:
			case <-timerCh:
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

// Keys returns every list key currently present, sorted.
func (e *ListEngine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.lists))
	for k := range e.lists {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key names a list.
func (e *ListEngine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.lists[key]
	return ok
}
