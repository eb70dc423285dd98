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

// Package protocol implements the length-prefixed, RESP-style request/response
// codec described in the wire protocol design: simple strings, errors,
// integers, bulk strings, and arrays thereof, in both directions.
package protocol

import "fmt"

// ProtocolError signals malformed framing: a missing '*' prefix, an
// unparsable count or length, an empty or negative-count array, an
// unexpected element type, or a bulk payload without its terminating CRLF.
// A buffer that simply ends too early is reported as ErrIncomplete instead.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return e.Message }

func newProtocolError(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(format, args...)}
}

// ArityError signals the wrong number of arguments for a command.
type ArityError struct {
	Command string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("wrong number of arguments for '%s' command", e.Command)
}

// TypeError signals that the value at a key is not the type the command
// requires (e.g. INCR against a non-integer string).
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return e.Message }

// NewTypeError builds a TypeError with the given message.
func NewTypeError(message string) *TypeError { return &TypeError{Message: message} }

// StateError signals a command that is not valid in the session's current
// state (EXEC without MULTI, any non-pub/sub command while subscribed).
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

// NewStateError builds a StateError with the given message.
func NewStateError(message string) *StateError { return &StateError{Message: message} }
