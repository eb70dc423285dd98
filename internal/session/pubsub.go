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
	"redisrv/internal/engine"
	"redisrv/internal/protocol"
)

func init() {
	register("SUBSCRIBE", false, cmdSubscribe)
	register("UNSUBSCRIBE", false, cmdUnsubscribe)
	register("PUBLISH", false, cmdPublish)
}

// subscriberID returns this session's pub/sub subscriber ID, or "" if no
// Subscriber has been created yet.
func (s *Session) subscriberID() string {
	if s.sub == nil {
		return ""
	}
	return s.sub.ID
}

func (s *Session) ensureSubscriber() *engine.Subscriber {
	if s.sub == nil {
		s.sub = &engine.Subscriber{ID: s.ID, Ch: make(chan engine.PubSubMessage, 64)}
	}
	return s.sub
}

// Subscriber exposes the delivery channel so the connection's read/write
// loop (internal/server) can fan published messages onto the socket
// alongside command replies.
func (s *Session) Subscriber() *engine.Subscriber {
	return s.sub
}

// EnsureSubscriber forces the lazy Subscriber to exist before the first
// SUBSCRIBE call, so the connection loop can start draining its delivery
// channel as soon as the session is created.
func (s *Session) EnsureSubscriber() *engine.Subscriber {
	return s.ensureSubscriber()
}

func cmdSubscribe(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 1 {
		return nil, &protocol.ArityError{Command: "SUBSCRIBE"}
	}
	sub := s.ensureSubscriber()
	s.subscribed = true
	out := make([]byte, 0, 64*len(args))
	for _, ch := range args {
		s.Shared.Engines.PubSub.Subscribe(string(ch), sub)
		count := len(s.Shared.Engines.PubSub.Channels(sub.ID))
		out = append(out, protocol.Array(
			protocol.BulkString([]byte("subscribe")),
			protocol.BulkString(ch),
			protocol.Integer(int64(count)),
		)...)
	}
	return out, nil
}

func cmdUnsubscribe(s *Session, args [][]byte) ([]byte, error) {
	channels := make([]string, len(args))
	for i, ch := range args {
		channels[i] = string(ch)
	}
	if len(channels) == 0 {
		channels = s.Shared.Engines.PubSub.Channels(s.subscriberID())
		if len(channels) == 0 {
			// No subscriptions at all: still reply once with a nil channel,
			// matching real servers' single-frame "unsubscribed from nothing" reply.
			s.subscribed = false
			return protocol.Array(
				protocol.BulkString([]byte("unsubscribe")),
				protocol.NullBulk(),
				protocol.Integer(0),
			), nil
		}
	}

	out := make([]byte, 0, 64*len(channels))
	for _, ch := range channels {
		s.Shared.Engines.PubSub.Unsubscribe(s.subscriberID(), ch)
		remaining := len(s.Shared.Engines.PubSub.Channels(s.subscriberID()))
		out = append(out, protocol.Array(
			protocol.BulkString([]byte("unsubscribe")),
			protocol.BulkString([]byte(ch)),
			protocol.Integer(int64(remaining)),
		)...)
		if remaining == 0 {
			s.subscribed = false
		}
	}
	return out, nil
}

func cmdPublish(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 2 {
		return nil, &protocol.ArityError{Command: "PUBLISH"}
	}
	n := s.Shared.Engines.PubSub.Publish(string(args[0]), args[1], s.subscriberID())
	return protocol.Integer(int64(n)), nil
}
