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

import (
	"errors"
	"fmt"
)

// ID identifies a single stream entry by its millisecond and sequence parts.
// IDs within one stream are compared lexicographically on (Ms, Seq).
type ID struct {
	Ms  uint64
	Seq uint64
}

// Less reports whether id is strictly less than other under (Ms, Seq) lex order.
func (id ID) Less(other ID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

// String renders the ID in the canonical "<ms>-<seq>" form.
func (id ID) String() string {
	return fmt.Sprintf("%d-%d", id.Ms, id.Seq)
}

// MinID and MaxID bound the ID space; used to resolve the "-" and "+" XRANGE
// sentinels and the XREAD "0-0" style seen-everything default.
var (
	MinID = ID{Ms: 0, Seq: 0}
	MaxID = ID{Ms: ^uint64(0), Seq: ^uint64(0)}
)

// Entry is one appended stream record: a resolved ID and its field map.
// Fields is insertion-agnostic; later duplicate field names within a single
// XADD call simply replace earlier ones before the entry is appended.
type Entry struct {
	ID     ID
	Fields map[string]string
}

// Stream is an append-only, strictly-increasing-ID sequence of entries.
type Stream struct {
	entries []Entry
	lastID  ID
	hasLast bool
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// errIDNotIncreasing is returned by Append when the candidate ID is not
// strictly greater than the stream's current tail.
var errIDNotIncreasing = errors.New("The ID specified in XADD is equal or smaller than the target stream top item")

// ErrIDNotIncreasing is the exported alias for errors.Is comparisons.
var ErrIDNotIncreasing = errIDNotIncreasing

// Append validates that id is strictly greater than the current tail
// and, if valid, appends the entry and records it as the new tail.
func (s *Stream) Append(id ID, fields map[string]string) error {
	if s.hasLast && !s.lastID.Less(id) {
		return errIDNotIncreasing
	}
	s.entries = append(s.entries, Entry{ID: id, Fields: fields})
	s.lastID = id
	s.hasLast = true
	return nil
}

// LastID returns the current tail ID and whether the stream has any entries.
func (s *Stream) LastID() (ID, bool) {
	return s.lastID, s.hasLast
}

// Len returns the number of entries currently in the stream.
func (s *Stream) Len() int {
	return len(s.entries)
}

// Range returns entries with start <= ID <= end, inclusive on both ends.
func (s *Stream) Range(start, end ID) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.ID.Less(start) {
			continue
		}
		if end.Less(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// After returns entries whose ID is strictly greater than after.
func (s *Stream) After(after ID) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if after.Less(e.ID) {
			out = append(out, e)
		}
	}
	return out
}
