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

package session

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"redisrv/internal/engine"
	"redisrv/internal/protocol"
	"redisrv/pkg/store"
)

func init() {
	register("XADD", true, cmdXadd)
	register("XRANGE", false, cmdXrange)
	register("XREAD", false, cmdXread)
	register("XLEN", false, cmdXlen)
}

var errZeroZeroID = errors.New("The ID specified in XADD must be greater than 0-0")

// resolveXaddID implements the XADD auto-derivation rules: "*" auto-derives
// both parts; "<ms>" alone auto-derives the sequence; "<ms>-<seq>" is
// explicit (either half may itself be "*").
func resolveXaddID(raw string, streams *engine.StreamEngine, key string) (store.ID, error) {
	last, hasLast := streams.LastID(key)

	var msStr, seqStr string
	autoSeq := false
	if raw == "*" {
		return store.ID{Ms: uint64(time.Now().UnixMilli()), Seq: nextSeq(hasLast, last, uint64(time.Now().UnixMilli()))}, nil
	}
	if idx := strings.IndexByte(raw, '-'); idx >= 0 {
		msStr, seqStr = raw[:idx], raw[idx+1:]
	} else {
		msStr, autoSeq = raw, true
	}
	ms, err := strconv.ParseUint(msStr, 10, 64)
	if err != nil {
		return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
	}
	if autoSeq || seqStr == "*" {
		return store.ID{Ms: ms, Seq: nextSeq(hasLast, last, ms)}, nil
	}
	seq, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
	}
	return store.ID{Ms: ms, Seq: seq}, nil
}

func nextSeq(hasLast bool, last store.ID, ms uint64) uint64 {
	if hasLast && last.Ms == ms {
		return last.Seq + 1
	}
	if ms == 0 {
		return 1
	}
	return 0
}

func cmdXadd(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 4 || len(args)%2 != 0 {
		return nil, &protocol.ArityError{Command: "XADD"}
	}
	key := string(args[0])
	id, err := resolveXaddID(string(args[1]), s.engines().Stream, key)
	if err != nil {
		return nil, err
	}
	if id.Ms == 0 && id.Seq == 0 {
		return nil, errZeroZeroID
	}
	fields := make(map[string]string, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		fields[string(args[i])] = string(args[i+1])
	}
	if err := s.engines().Stream.Append(key, id, fields); err != nil {
		return nil, err
	}
	return protocol.BulkString([]byte(id.String())), nil
}

// parseRangeID resolves an XRANGE endpoint: "-"/"+" map to the ID space
// bounds, and a bare ms defaults its sequence to 0 at the start of a range or
// MAX at the end.
func parseRangeID(raw string, atEnd bool) (store.ID, error) {
	switch raw {
	case "-":
		return store.MinID, nil
	case "+":
		return store.MaxID, nil
	}
	if idx := strings.IndexByte(raw, '-'); idx >= 0 {
		ms, err := strconv.ParseUint(raw[:idx], 10, 64)
		if err != nil {
			return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
		}
		seq, err := strconv.ParseUint(raw[idx+1:], 10, 64)
		if err != nil {
			return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
		}
		return store.ID{Ms: ms, Seq: seq}, nil
	}
	ms, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
	}
	seq := uint64(0)
	if atEnd {
		seq = ^uint64(0)
	}
	return store.ID{Ms: ms, Seq: seq}, nil
}

func cmdXrange(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 3 {
		return nil, &protocol.ArityError{Command: "XRANGE"}
	}
	start, err := parseRangeID(string(args[1]), false)
	if err != nil {
		return nil, err
	}
	end, err := parseRangeID(string(args[2]), true)
	if err != nil {
		return nil, err
	}
	entries := s.engines().Stream.Range(string(args[0]), start, end)
	return encodeStreamEntries(entries), nil
}

func encodeStreamEntries(entries []store.Entry) []byte {
	elements := make([][]byte, len(entries))
	for i, e := range entries {
		elements[i] = protocol.Array(
			protocol.BulkString([]byte(e.ID.String())),
			encodeFields(e.Fields),
		)
	}
	return protocol.Array(elements...)
}

func encodeFields(fields map[string]string) []byte {
	// Field order within an entry is insertion-agnostic; a stable lexical order
	// keeps replies deterministic for callers and tests.
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	elements := make([][]byte, 0, 2*len(names))
	for _, name := range names {
		elements = append(elements, protocol.BulkString([]byte(name)), protocol.BulkString([]byte(fields[name])))
	}
	return protocol.Array(elements...)
}

func cmdXlen(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "XLEN"}
	}
	return protocol.Integer(int64(s.engines().Stream.Len(string(args[0])))), nil
}

// cmdXread implements "XREAD [BLOCK ms] streams key... id...". A bare-ms id
// is resolved as (ms, MaxUint64) so the engine's strict-greater-than
// comparison yields exactly the entries with ms strictly greater than the
// given value.
func cmdXread(s *Session, args [][]byte) ([]byte, error) {
	i := 0
	var blockMs int64 = -1
	if i < len(args) && strings.EqualFold(string(args[i]), "BLOCK") {
		ms, err := strconv.ParseInt(string(args[i+1]), 10, 64)
		if err != nil || ms < 0 {
			return nil, protocol.NewTypeError("timeout is not an integer or out of range")
		}
		blockMs = ms
		i += 2
	}
	if i >= len(args) || !strings.EqualFold(string(args[i]), "streams") {
		return nil, protocol.NewTypeError("syntax error")
	}
	i++
	rest := args[i:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return nil, protocol.NewTypeError("Unbalanced XREAD list of streams: for each stream key an ID or '$' must be specified.")
	}
	n := len(rest) / 2
	keys := make([]string, n)
	ids := make([]store.ID, n)
	for k := 0; k < n; k++ {
		keys[k] = string(rest[k])
		raw := string(rest[n+k])
		id, err := parseReadID(raw, s.engines().Stream, keys[k])
		if err != nil {
			return nil, err
		}
		ids[k] = id
	}

	results := make([][]store.Entry, n)
	any := collectXread(s, keys, ids, results)
	if !any && blockMs >= 0 {
		var deadline time.Time
		if blockMs > 0 {
			deadline = time.Now().Add(time.Duration(blockMs) * time.Millisecond)
		}
		any = blockXread(s, keys, ids, results, deadline)
	}
	if !any {
		return protocol.NullArray(), nil
	}
	return encodeXreadResult(keys, ids, results), nil
}

// parseReadID resolves one XREAD last-seen ID argument: "$" means "only
// entries added after this call" (the stream's current tail), and a bare ms
// means "ms strictly greater than this" via the MaxUint64 sentinel.
func parseReadID(raw string, streams *engine.StreamEngine, key string) (store.ID, error) {
	if raw == "$" {
		last, _ := streams.LastID(key)
		return last, nil
	}
	if idx := strings.IndexByte(raw, '-'); idx >= 0 {
		ms, err := strconv.ParseUint(raw[:idx], 10, 64)
		if err != nil {
			return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
		}
		seq, err := strconv.ParseUint(raw[idx+1:], 10, 64)
		if err != nil {
			return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
		}
		return store.ID{Ms: ms, Seq: seq}, nil
	}
	ms, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return store.ID{}, protocol.NewTypeError("Invalid stream ID specified as stream command argument")
	}
	return store.ID{Ms: ms, Seq: ^uint64(0)}, nil
}

func collectXread(s *Session, keys []string, ids []store.ID, results [][]store.Entry) bool {
	any := false
	for k, key := range keys {
		entries := s.engines().Stream.After(key, ids[k])
		if len(entries) > 0 {
			results[k] = entries
			any = true
		}
	}
	return any
}

func blockXread(s *Session, keys []string, ids []store.ID, results [][]store.Entry, deadline time.Time) bool {
	got, ok := s.engines().Stream.BlockingAfterAny(context.Background(), keys, ids, deadline)
	if !ok {
		return false
	}
	copy(results, got)
	return true
}

func encodeXreadResult(keys []string, ids []store.ID, results [][]store.Entry) []byte {
	var elements [][]byte
	for k, key := range keys {
		if len(results[k]) == 0 {
			continue
		}
		elements = append(elements, protocol.Array(
			protocol.BulkString([]byte(key)),
			encodeStreamEntries(results[k]),
		))
	}
	return protocol.Array(elements...)
}
