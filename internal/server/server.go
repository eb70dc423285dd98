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

// Package server implements the public-facing TCP front end: one goroutine
// per client connection, decoding length-prefixed commands off the wire and
// dispatching them through internal/session.
package server

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"redisrv/internal/engine"
	"redisrv/internal/protocol"
	"redisrv/internal/session"
)

// Server accepts client connections on a single TCP listener and runs each
// through the shared session dispatch state.
type Server struct {
	shared   *session.Shared
	listener net.Listener
	closing  atomic.Bool
}

// writeLock serializes writes to one connection so a pub/sub delivery can
// never interleave with a command reply mid-frame.
type writeLock struct {
	mu sync.Mutex
}

func (w *writeLock) write(conn net.Conn, b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return conn.Write(b)
}

// New creates a Server bound to shared's engine/replication state. Call
// ListenAndServe to start accepting connections.
func New(shared *session.Shared) *Server {
	return &Server{shared: shared}
}

// Listen binds addr without accepting yet, so a caller can learn the bound
// address (e.g. when addr names port 0) before Serve starts.
func (srv *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv.listener = ln
	return nil
}

// Addr returns the bound listener address, or nil before Listen.
func (srv *Server) Addr() net.Addr {
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// ListenAndServe binds addr and accepts connections until the listener is
// closed by Shutdown.
func (srv *Server) ListenAndServe(addr string) error {
	if err := srv.Listen(addr); err != nil {
		return err
	}
	return srv.Serve()
}

// Serve accepts connections on the listener bound by Listen until Shutdown
// closes it.
func (srv *Server) Serve() error {
	log.Printf("redisrv listening on %s", srv.listener.Addr())

	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			if srv.closing.Load() {
				return nil
			}
			return err
		}
		go srv.handleConn(conn)
	}
}

// Shutdown closes the listener, causing ListenAndServe's Accept loop to
// return. In-flight connections are left to finish on their own.
func (srv *Server) Shutdown() error {
	srv.closing.Store(true)
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Close()
}

// handleConn runs one client connection's full lifetime: a dedicated
// pub/sub delivery goroutine plus the read/decode/dispatch/write loop.
func (srv *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess := session.New(srv.shared, conn)
	defer sess.Close()

	if srv.shared.Metrics != nil {
		srv.shared.Metrics.ConnectionOpened()
		defer srv.shared.Metrics.ConnectionClosed()
	}

	var writeMu writeLock
	sub := sess.EnsureSubscriber()
	done := make(chan struct{})
	defer close(done)
	go deliverPublished(conn, &writeMu, sub, done)

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			return
		}

		for {
			cmd, consumed, decErr := protocol.Decode(buf)
			if decErr == protocol.ErrIncomplete {
				break
			}
			if decErr != nil {
				writeMu.write(conn, protocol.ErrReply(decErr))
				return
			}
			buf = buf[consumed:]

			reply, dispatchErr := sess.Dispatch(cmd)
			if len(reply) > 0 {
				if _, werr := writeMu.write(conn, reply); werr != nil {
					return
				}
			}
			if dispatchErr == session.ErrQuit {
				return
			}
		}
	}
}

// deliverPublished drains sub's channel and writes each published message as
// a ["message", channel, payload] RESP array, serialized against command
// replies via writeMu so the two never interleave mid-frame.
func deliverPublished(conn net.Conn, writeMu *writeLock, sub *engine.Subscriber, done <-chan struct{}) {
	for {
		select {
		case msg, ok := <-sub.Ch:
			if !ok {
				return
			}
			frame := protocol.Array(
				protocol.BulkString([]byte("message")),
				protocol.BulkString([]byte(msg.Channel)),
				protocol.BulkString(msg.Payload),
			)
			writeMu.write(conn, frame)
		case <-done:
			return
		}
	}
}
