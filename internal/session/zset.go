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
	"strconv"

	"redisrv/internal/protocol"
)

func init() {
	register("ZADD", true, cmdZadd)
	register("ZREM", true, cmdZrem)
	register("ZRANK", false, cmdZrank)
	register("ZRANGE", false, cmdZrange)
	register("ZCARD", false, cmdZcard)
	register("ZSCORE", false, cmdZscore)
}

func cmdZadd(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 3 || len(args)%2 != 1 {
		return nil, &protocol.ArityError{Command: "ZADD"}
	}
	key := string(args[0])
	added := 0
	for i := 1; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return nil, protocol.NewTypeError("value is not a valid float")
		}
		added += s.engines().ZSet.Add(key, string(args[i+1]), score)
	}
	return protocol.Integer(int64(added)), nil
}

func cmdZrem(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, &protocol.ArityError{Command: "ZREM"}
	}
	key := string(args[0])
	removed := 0
	for _, member := range args[1:] {
		if s.engines().ZSet.Rem(key, string(member)) {
			removed++
		}
	}
	return protocol.Integer(int64(removed)), nil
}

func cmdZrank(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 2 {
		return nil, &protocol.ArityError{Command: "ZRANK"}
	}
	rank, ok := s.engines().ZSet.Rank(string(args[0]), string(args[1]))
	if !ok {
		return protocol.NullBulk(), nil
	}
	return protocol.Integer(int64(rank)), nil
}

func cmdZrange(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 3 {
		return nil, &protocol.ArityError{Command: "ZRANGE"}
	}
	start, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return nil, protocol.NewTypeError("value is not an integer or out of range")
	}
	stop, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return nil, protocol.NewTypeError("value is not an integer or out of range")
	}
	members := s.engines().ZSet.Range(string(args[0]), start, stop)
	elements := make([][]byte, len(members))
	for i, m := range members {
		elements[i] = protocol.BulkString([]byte(m))
	}
	return protocol.Array(elements...), nil
}

func cmdZcard(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "ZCARD"}
	}
	return protocol.Integer(int64(s.engines().ZSet.Card(string(args[0])))), nil
}

func cmdZscore(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 2 {
		return nil, &protocol.ArityError{Command: "ZSCORE"}
	}
	score, ok := s.engines().ZSet.Score(string(args[0]), string(args[1]))
	if !ok {
		return protocol.NullBulk(), nil
	}
	return protocol.BulkString([]byte(formatScore(score))), nil
}

// formatScore renders a sorted-set score the way a conforming server reports
// it: up to 17 significant digits, trimmed of a trailing ".0" for integers.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', 17, 64)
}
