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
	"strings"
	"time"

	"redisrv/internal/protocol"
)

func init() {
	register("SET", true, cmdSet)
	register("GET", false, cmdGet)
	register("INCR", true, cmdIncr)
	register("DEL", true, cmdDel)
	register("EXISTS", false, cmdExists)
	register("KEYS", false, cmdKeys)
}

func cmdSet(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, &protocol.ArityError{Command: "SET"}
	}
	var ttl time.Duration
	for i := 2; i < len(args); i++ {
		if strings.EqualFold(string(args[i]), "PX") && i+1 < len(args) {
			ms, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return nil, protocol.NewTypeError("PX value is not an integer or out of range")
			}
			ttl = time.Duration(ms) * time.Millisecond
			i++
			continue
		}
		// Any other recognized option (EX, NX, XX, GET, KEEPTTL, ...) is a
		// no-op here; only PX takes effect.
	}
	s.engines().KV.Set(string(args[0]), args[1], ttl)
	return protocol.SimpleString("OK"), nil
}

func cmdGet(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "GET"}
	}
	value, ok := s.engines().KV.Get(string(args[0]))
	if !ok {
		return protocol.NullBulk(), nil
	}
	return protocol.BulkString(value), nil
}

func cmdIncr(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "INCR"}
	}
	n, err := s.engines().KV.Incr(string(args[0]))
	if err != nil {
		return nil, protocol.NewTypeError(err.Error())
	}
	return protocol.Integer(n), nil
}

func cmdDel(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 1 {
		return nil, &protocol.ArityError{Command: "DEL"}
	}
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}
	return protocol.Integer(int64(s.engines().KV.Del(keys))), nil
}

func cmdExists(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 1 {
		return nil, &protocol.ArityError{Command: "EXISTS"}
	}
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}
	return protocol.Integer(int64(s.engines().KV.Exists(keys))), nil
}

func cmdKeys(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "KEYS"}
	}
	if string(args[0]) != "*" {
		return nil, protocol.NewTypeError("KEYS only supports the '*' pattern")
	}
	return protocol.BulkStrings(s.engines().KV.Keys()...), nil
}
