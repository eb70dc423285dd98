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
	"strings"
	"testing"
	"time"

	"redisrv/internal/engine"
	"redisrv/internal/protocol"
)

func newTestSession() *Session {
	shared := NewShared(engine.New(nil), nil, ".", "dump.rdb", "master")
	return New(shared, nil)
}

func cmd(name string, args ...string) protocol.Command {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return protocol.Command{Name: name, Args: out}
}

func TestDispatchSetGet(t *testing.T) {
	s := newTestSession()
	if _, err := s.Dispatch(cmd("SET", "k", "v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := s.Dispatch(cmd("GET", "k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply) != string(protocol.BulkString([]byte("v"))) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	s := newTestSession()
	reply, err := s.Dispatch(cmd("NOSUCHCOMMAND"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(reply), "unknown command") {
		t.Fatalf("want unknown command error, got %q", reply)
	}
}

func TestTransactionQueuesThenExecutes(t *testing.T) {
	s := newTestSession()
	if reply, err := s.Dispatch(cmd("MULTI")); err != nil || string(reply) != "+OK\r\n" {
		t.Fatalf("MULTI failed: reply=%q err=%v", reply, err)
	}
	if reply, _ := s.Dispatch(cmd("SET", "a", "1")); string(reply) != "+QUEUED\r\n" {
		t.Fatalf("want QUEUED, got %q", reply)
	}
	if reply, _ := s.Dispatch(cmd("INCR", "a")); string(reply) != "+QUEUED\r\n" {
		t.Fatalf("want QUEUED, got %q", reply)
	}
	reply, err := s.Dispatch(cmd("EXEC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := string(protocol.ArrayHeader(2)) + string(protocol.SimpleString("OK")) + string(protocol.Integer(2))
	if string(reply) != want {
		t.Fatalf("want %q, got %q", want, reply)
	}
}

func TestExecWithoutMultiErrors(t *testing.T) {
	s := newTestSession()
	reply, err := s.Dispatch(cmd("EXEC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(reply), "EXEC without MULTI") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestDiscardDropsQueuedCommands(t *testing.T) {
	s := newTestSession()
	s.Dispatch(cmd("MULTI"))
	s.Dispatch(cmd("SET", "a", "1"))
	if reply, err := s.Dispatch(cmd("DISCARD")); err != nil || string(reply) != "+OK\r\n" {
		t.Fatalf("DISCARD failed: reply=%q err=%v", reply, err)
	}
	if _, ok := s.engines().KV.Get("a"); ok {
		t.Fatalf("key should not have been set after DISCARD")
	}
}

func TestSubscribedModeRejectsOrdinaryCommands(t *testing.T) {
	s := newTestSession()
	s.Dispatch(cmd("SUBSCRIBE", "news"))
	reply, err := s.Dispatch(cmd("GET", "k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(reply), "only (P|S)SUBSCRIBE") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestSubscribedModeAllowsPing(t *testing.T) {
	s := newTestSession()
	s.Dispatch(cmd("SUBSCRIBE", "news"))
	reply, err := s.Dispatch(cmd("PING"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := protocol.Array(protocol.BulkString([]byte("pong")), protocol.BulkString([]byte("")))
	if string(reply) != string(want) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestWriteCommandsPropagateToReplicas(t *testing.T) {
	s := newTestSession()
	replicaConn, serverConn := newPipeConn(t)
	defer replicaConn.Close()
	defer serverConn.Close()
	s.engines().Replica.Register(&engine.Replica{ID: "r1", Conn: serverConn})

	// net.Pipe writes are synchronous, so the read must already be in
	// flight when Dispatch propagates.
	frames := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := replicaConn.Read(buf)
		if err != nil {
			frames <- ""
			return
		}
		frames <- string(buf[:n])
	}()

	if _, err := s.Dispatch(cmd("SET", "a", "1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-frames:
		if !strings.Contains(got, "SET") || !strings.Contains(got, "a") {
			t.Fatalf("unexpected propagated frame %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("propagated frame never arrived")
	}
}

func TestReadCommandsDoNotPropagate(t *testing.T) {
	s := newTestSession()
	replicaConn, serverConn := newPipeConn(t)
	defer replicaConn.Close()
	defer serverConn.Close()
	s.engines().Replica.Register(&engine.Replica{ID: "r1", Conn: serverConn})

	// Drain the SET propagation concurrently (net.Pipe writes block until
	// read) before asserting GET produces nothing further.
	drained := make(chan struct{})
	go func() {
		buf := make([]byte, 64)
		replicaConn.Read(buf)
		close(drained)
	}()
	s.Dispatch(cmd("SET", "a", "1"))
	<-drained

	if _, err := s.Dispatch(cmd("GET", "a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := make([]byte, 64)
	replicaConn.SetReadDeadline(nowPlusShort())
	if _, err := replicaConn.Read(buf); err == nil {
		t.Fatalf("GET should not have propagated anything")
	}
}
