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

	"redisrv/internal/protocol"
)

// handlerFunc executes one engine-bound command and returns its encoded
// reply. isWrite marks the command for replica propagation.
type handlerFunc func(s *Session, args [][]byte) ([]byte, error)

type cmdSpec struct {
	fn      handlerFunc
	isWrite bool
}

// commands holds every engine-bound (non-control) command, populated by each
// per-engine file's init(). Control commands (PING, MULTI, EXEC, TYPE, INFO,
// CONFIG, REPLCONF, PSYNC, QUIT, RESET) are dispatched before this table is
// consulted.
var commands = map[string]cmdSpec{}

func register(name string, isWrite bool, fn handlerFunc) {
	commands[name] = cmdSpec{fn: fn, isWrite: isWrite}
}

// subscribedModeAllowed is the fixed set of commands a subscribed session may
// still issue; everything else fails with a fixed error.
var subscribedModeAllowed = map[string]bool{
	"SUBSCRIBE": true, "UNSUBSCRIBE": true,
	"PSUBSCRIBE": true, "PUNSUBSCRIBE": true,
	"SSUBSCRIBE": true, "SUNSUBSCRIBE": true,
	"PING": true, "QUIT": true, "RESET": true,
}

const subscribedModeErr = "Can't execute '%s': only (P|S)SUBSCRIBE / (P|S)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context"

// controlCommands are handled directly regardless of transaction state; they
// are never queued by MULTI.
var controlCommands = map[string]bool{
	"PING": true, "ECHO": true, "MULTI": true, "EXEC": true, "DISCARD": true,
	"TYPE": true, "INFO": true, "CONFIG": true, "REPLCONF": true, "PSYNC": true,
	"QUIT": true, "RESET": true,
}

// Dispatch routes one decoded command through the session state machine and
// returns the bytes to write back to the connection. A returned ErrQuit means
// the caller should write reply (if non-nil) and then close the connection.
func (s *Session) Dispatch(cmd protocol.Command) ([]byte, error) {
	name := strings.ToUpper(cmd.Name)

	if s.Shared.Metrics != nil {
		s.Shared.Metrics.ObserveCommand(name)
	}

	if s.subscribed && !subscribedModeAllowed[name] {
		return protocol.ErrReply(fmt.Errorf(subscribedModeErr, cmd.Name)), nil
	}

	if controlCommands[name] {
		return s.dispatchControl(name, cmd.Args)
	}

	if s.inTx {
		if _, ok := commands[name]; !ok {
			return protocol.ErrReply(unknownCommandError(cmd.Name)), nil
		}
		s.queued = append(s.queued, cmd)
		return protocol.SimpleString("QUEUED"), nil
	}

	reply, isWrite, err := s.execute(name, cmd.Args)
	if err != nil {
		return protocol.ErrReply(err), nil
	}
	if isWrite && s.Shared.Role() == "master" {
		s.propagate(cmd)
	}
	return reply, nil
}

// execute looks up and runs an engine-bound command, outside of any
// transaction buffering. It is shared between the direct-dispatch path and
// EXEC's replay of the queued buffer.
func (s *Session) execute(name string, args [][]byte) (reply []byte, isWrite bool, err error) {
	spec, ok := commands[name]
	if !ok {
		return nil, false, unknownCommandError(name)
	}
	reply, err = spec.fn(s, args)
	if err != nil {
		return nil, false, err
	}
	return reply, spec.isWrite, nil
}

// propagate re-serializes cmd in its original wire form and fans it out to
// every registered replica.
func (s *Session) propagate(cmd protocol.Command) {
	frame := protocol.EncodeCommand(cmd.Name, cmd.Args...)
	s.engines().Replica.Propagate(frame)
}

func unknownCommandError(name string) error {
	return fmt.Errorf("unknown command '%s'", name)
}
