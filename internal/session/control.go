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
	"fmt"
	"strings"

	"redisrv/internal/engine"
	"redisrv/internal/protocol"
	"redisrv/internal/replication"
)

// dispatchControl handles the fixed set of control commands that never
// participate in transaction buffering.
func (s *Session) dispatchControl(name string, args [][]byte) ([]byte, error) {
	if name == "QUIT" {
		return protocol.SimpleString("OK"), ErrQuit
	}

	var reply []byte
	var err error
	switch name {
	case "PING":
		reply, err = s.cmdPing(args)
	case "ECHO":
		reply, err = s.cmdEcho(args)
	case "MULTI":
		reply, err = s.cmdMulti()
	case "EXEC":
		reply, err = s.cmdExec()
	case "DISCARD":
		reply, err = s.cmdDiscard()
	case "TYPE":
		reply, err = s.cmdType(args)
	case "INFO":
		reply, err = s.cmdInfo(args)
	case "CONFIG":
		reply, err = s.cmdConfig(args)
	case "REPLCONF":
		reply, err = s.cmdReplconf(args)
	case "PSYNC":
		reply, err = s.cmdPsync(args)
	case "RESET":
		reply = s.cmdReset()
	default:
		err = unknownCommandError(name)
	}
	if err != nil {
		return protocol.ErrReply(err), nil
	}
	return reply, nil
}

func (s *Session) cmdPing(args [][]byte) ([]byte, error) {
	if s.subscribed {
		return protocol.Array(protocol.BulkString([]byte("pong")), protocol.BulkString([]byte(""))), nil
	}
	if len(args) == 1 {
		return protocol.SimpleString(string(args[0])), nil
	}
	return protocol.SimpleString("PONG"), nil
}

func (s *Session) cmdEcho(args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "ECHO"}
	}
	return protocol.BulkString(args[0]), nil
}

func (s *Session) cmdMulti() ([]byte, error) {
	if s.inTx {
		return nil, protocol.NewStateError("MULTI calls can not be nested")
	}
	s.inTx = true
	s.queued = nil
	return protocol.SimpleString("OK"), nil
}

func (s *Session) cmdDiscard() ([]byte, error) {
	if !s.inTx {
		return nil, protocol.NewStateError("DISCARD without MULTI")
	}
	s.inTx = false
	s.queued = nil
	return protocol.SimpleString("OK"), nil
}

// cmdExec replays the queued buffer in order, concatenating each command's
// own reply behind a single leading array header, then propagates every
// write in the batch to replicas.
func (s *Session) cmdExec() ([]byte, error) {
	if !s.inTx {
		return nil, protocol.NewStateError("EXEC without MULTI")
	}
	queued := s.queued
	s.inTx = false
	s.queued = nil

	out := protocol.ArrayHeader(len(queued))
	isMaster := s.Shared.Role() == "master"
	for _, cmd := range queued {
		name := strings.ToUpper(cmd.Name)
		reply, isWrite, err := s.execute(name, cmd.Args)
		if err != nil {
			out = append(out, protocol.ErrReply(err)...)
			continue
		}
		out = append(out, reply...)
		if isWrite && isMaster {
			s.propagate(cmd)
		}
	}
	return out, nil
}

func (s *Session) cmdReset() []byte {
	s.inTx = false
	s.queued = nil
	if s.subscribed {
		s.Shared.Engines.PubSub.Unsubscribe(s.subscriberID(), "")
		s.subscribed = false
	}
	return protocol.SimpleString("RESET")
}

// cmdType probes the KV, list, stream, and sorted-set engines in that order.
// Sorted sets are included because a GEO key is a sorted set under the hood
// and must also resolve to a type.
func (s *Session) cmdType(args [][]byte) ([]byte, error) {
	if len(args) != 1 {
		return nil, &protocol.ArityError{Command: "TYPE"}
	}
	return protocol.SimpleString(s.engines().Type(string(args[0]))), nil
}

// cmdInfo answers "INFO replication" with a well-formed bulk string whose
// lines, including the last, are CRLF-terminated.
func (s *Session) cmdInfo(args [][]byte) ([]byte, error) {
	if len(args) >= 1 && !strings.EqualFold(string(args[0]), "replication") {
		return protocol.BulkString(nil), nil
	}
	var body string
	if s.Shared.Role() == "master" {
		body = fmt.Sprintf("role:master\r\nmaster_replid:%s\r\nmaster_repl_offset:0\r\n", s.Shared.ReplID)
	} else {
		body = "role:slave\r\n"
	}
	return protocol.BulkString([]byte(body)), nil
}

// cmdConfig answers "CONFIG GET dir" and "CONFIG GET dbfilename"; any other
// parameter returns an empty array, matching a conforming but minimal CONFIG.
func (s *Session) cmdConfig(args [][]byte) ([]byte, error) {
	if len(args) != 2 || !strings.EqualFold(string(args[0]), "GET") {
		return protocol.Array(), nil
	}
	switch strings.ToLower(string(args[1])) {
	case "dir":
		return protocol.BulkStrings("dir", s.Shared.Dir), nil
	case "dbfilename":
		return protocol.BulkStrings("dbfilename", s.Shared.DBFile), nil
	default:
		return protocol.Array(), nil
	}
}

// cmdReplconf acknowledges every REPLCONF sub-command (listening-port,
// capa, ACK) with +OK; none of them change session state directly.
func (s *Session) cmdReplconf(args [][]byte) ([]byte, error) {
	return protocol.SimpleString("OK"), nil
}

// cmdPsync implements the master side of the handshake: reply FULLRESYNC
// plus the fixed empty-snapshot payload, then register this connection as a
// replica so future writes are propagated to it.
func (s *Session) cmdPsync(args [][]byte) ([]byte, error) {
	reply := replication.FullResyncReply(s.Shared.ReplID)
	reply = append(reply, replication.SnapshotFrame()...)
	s.IsReplicaConn = true
	if s.Conn != nil {
		s.engines().Replica.Register(&engine.Replica{ID: s.ID, Conn: s.Conn})
	}
	return reply, nil
}
