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

package store

// List is an ordered sequence of byte-strings. It carries no lock of its own;
// callers (the list engine) hold the engine's mutex around every method call.
type List struct {
	items [][]byte
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// PushRight appends values to the tail, in argument order.
func (l *List) PushRight(values ...[]byte) int {
	l.items = append(l.items, values...)
	return len(l.items)
}

// PushLeft prepends each value to the head in turn, so after the call the
// values appear at the head in reverse argument order (the last one first).
func (l *List) PushLeft(values ...[]byte) int {
	reversed := make([][]byte, len(values))
	for i, v := range values {
		reversed[len(values)-1-i] = v
	}
	l.items = append(reversed, l.items...)
	return len(l.items)
}

// Len returns the number of elements currently stored.
func (l *List) Len() int {
	return len(l.items)
}

// PopLeft removes and returns up to count elements from the head. It returns
// fewer than count elements if the list is shorter.
func (l *List) PopLeft(count int) [][]byte {
	if count > len(l.items) {
		count = len(l.items)
	}
	if count <= 0 {
		return nil
	}
	popped := l.items[:count]
	l.items = l.items[count:]
	return popped
}

// Range returns a clamped, negative-index-aware slice [start, stop] inclusive.
func (l *List) Range(start, stop int) [][]byte {
	n := len(l.items)
	start = clampIndex(start, n)
	stop = clampIndex(stop, n)
	if n == 0 || start > stop || start >= n {
		return nil
	}
	if stop >= n {
		stop = n - 1
	}
	out := make([][]byte, stop-start+1)
	copy(out, l.items[start:stop+1])
	return out
}

// clampIndex resolves a possibly negative, out-of-range index against length n,
// following the same from-the-end convention used throughout the list and
// sorted-set range commands.
func clampIndex(idx, n int) int {
	if idx < 0 {
		idx = n + idx
		if idx < 0 {
			idx = 0
		}
	}
	return idx
}
