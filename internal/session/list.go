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
	"strconv"
	"time"

	"redisrv/internal/protocol"
)

func init() {
	register("RPUSH", true, cmdRpush)
	register("LPUSH", true, cmdLpush)
	register("LRANGE", false, cmdLrange)
	register("LLEN", false, cmdLlen)
	register("LPOP", false, cmdLpop)
	register("BLPOP", false, cmdBlpop)
}

func cmdRpush(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, &protocol.ArityError{Command: "RPUSH"}
	}
	n := s.engines().List.PushRight(string(args[0]), args[1:]...)
	return protocol.Integer(int64(n)), nil
}

func cmdLpush(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, &protocol.ArityError{Command: "LPUSH"}
	}
	n := s.engines().List.PushLeft(string(args[0]), args[1:]...)
	return protocol.Integer(int64(n)), nil
}

func cmdLrange(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 3 {
		return nil, &protocol.ArityError{Command: "LRANGE"}
	}
	start, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return nil, protocol.NewTypeError("value is not an integer or out of range")
	}
	stop, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return nil, protocol.NewTypeError("value is not an integer or out of range")
	}
	values := s.engines().List.Range(string(args[0]), start, stop)
	elements := make([][]byte, len(values))
	for i, v := range values {
		elements[i] = protocol.BulkString(v)
	}
	return protocol.Array(elements...), nil
}

func cmdLlen(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "LLEN"}
	}
	return protocol.Integer(int64(s.engines().List.Len(string(args[0])))), nil
}

func cmdLpop(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, &protocol.ArityError{Command: "LPOP"}
	}
	if len(args) == 1 {
		popped := s.engines().List.PopLeft(string(args[0]), 1)
		if len(popped) == 0 {
			return protocol.NullBulk(), nil
		}
		return protocol.BulkString(popped[0]), nil
	}
	count, err := strconv.Atoi(string(args[1]))
	if err != nil || count < 0 {
		return nil, protocol.NewTypeError("value is out of range, must be positive")
	}
	popped := s.engines().List.PopLeft(string(args[0]), count)
	elements := make([][]byte, len(popped))
	for i, v := range popped {
		elements[i] = protocol.BulkString(v)
	}
	return protocol.Array(elements...), nil
}

func cmdBlpop(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, &protocol.ArityError{Command: "BLPOP"}
	}
	keys := make([]string, len(args)-1)
	for i := 0; i < len(args)-1; i++ {
		keys[i] = string(args[i])
	}
	seconds, err := strconv.ParseFloat(string(args[len(args)-1]), 64)
	if err != nil || seconds < 0 {
		return nil, protocol.NewTypeError("timeout is not a float or out of range")
	}
	var deadline time.Time
	if seconds > 0 {
		deadline = time.Now().Add(time.Duration(seconds * float64(time.Second)))
	}
	key, value, ok := s.engines().List.BlockingPopLeft(context.Background(), keys, deadline)
	if !ok {
		return protocol.NullArray(), nil
	}
	return protocol.Array(protocol.BulkString([]byte(key)), protocol.BulkString(value)), nil
}
