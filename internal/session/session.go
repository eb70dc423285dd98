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

// Package session implements the per-connection state machine: command
// routing, transaction buffering (MULTI/EXEC/DISCARD), pub/sub subscribed-mode
// filtering, and write propagation to replicas. It holds no engine data of
// its own; every mutation goes through the shared *engine.Engines handed to
// every session at construction.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"redisrv/internal/engine"
	"redisrv/internal/protocol"
	"redisrv/internal/telemetry"
)

// ErrQuit is returned by Dispatch for a QUIT command: the caller should write
// the accompanying reply, then close the connection.
var ErrQuit = errors.New("session: quit")

// Shared is the process-wide state every session dispatches against: the
// engine set, the replication role and fixed replid, and the CONFIG GET
// answers. One Shared is constructed at startup and handed to every Session.
type Shared struct {
	Engines *engine.Engines
	Metrics *telemetry.Metrics
	ReplID  string
	Dir     string
	DBFile  string

	roleMu sync.RWMutex
	role   string // "master" or "slave"

	nextID atomic.Uint64
}

// NewShared builds the shared dispatch state. dir/dbFile answer CONFIG GET;
// role is the instance's initial replication role ("master" unless started
// with --replicaof).
func NewShared(engines *engine.Engines, metrics *telemetry.Metrics, dir, dbFile, role string) *Shared {
	return &Shared{
		Engines: engines,
		Metrics: metrics,
		ReplID:  newReplID(),
		Dir:     dir,
		DBFile:  dbFile,
		role:    role,
	}
}

// Role reports the current replication role.
func (sh *Shared) Role() string {
	sh.roleMu.RLock()
	defer sh.roleMu.RUnlock()
	return sh.role
}

// SetRole changes the replication role, e.g. once a replica's handshake with
// its master has completed.
func (sh *Shared) SetRole(role string) {
	sh.roleMu.Lock()
	defer sh.roleMu.Unlock()
	sh.role = role
}

// NextID returns a short ID string, a one-byte counter in hex (wrapping after
// 256 calls) plus a random suffix, used to identify pub/sub subscribers and
// replica registry entries.
func (sh *Shared) NextID() string {
	return hex.EncodeToString([]byte{byte(sh.nextID.Add(1))}) + "-" + randSuffix()
}

func randSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func newReplID() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:]) // 40 hex characters
}

// Session is the per-connection state machine: a transaction flag and
// buffer, a subscribed-mode flag, and whether this connection is a
// registered replica peer.
type Session struct {
	ID     string
	Shared *Shared
	Conn   net.Conn // nil is fine for tests that only exercise Dispatch

	IsReplicaConn bool // true once this connection has completed PSYNC

	subscribed bool
	inTx       bool
	queued     []protocol.Command

	sub *engine.Subscriber // created by EnsureSubscriber or on first SUBSCRIBE
}

// New creates a session bound to conn (nil allowed in unit tests), sharing
// shared's engines and replication state.
func New(shared *Shared, conn net.Conn) *Session {
	return &Session{
		ID:     shared.NextID(),
		Shared: shared,
		Conn:   conn,
	}
}

// Close releases any pub/sub subscriptions and replica registration held by
// this session, called once the connection's read loop exits.
func (s *Session) Close() {
	if s.sub != nil {
		s.Shared.Engines.PubSub.Unsubscribe(s.sub.ID, "")
	}
	if s.IsReplicaConn {
		s.Shared.Engines.Replica.Unregister(s.ID)
	}
}

func (s *Session) engines() *engine.Engines { return s.Shared.Engines }
