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
	"net"
	"testing"
	"time"
)

// newPipeConn returns an in-memory connection pair standing in for a
// replica's TCP socket, so propagation tests can read what Propagate wrote
// without a real listener.
func newPipeConn(t *testing.T) (client net.Conn, server net.Conn) {
	t.Helper()
	client, server = net.Pipe()
	return client, server
}

func nowPlusShort() time.Time {
	return time.Now().Add(20 * time.Millisecond)
}
