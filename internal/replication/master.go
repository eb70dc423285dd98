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

// Package replication implements both sides of the master<->replica wire
// protocol: the master's FULLRESYNC handshake
// reply plus fixed empty-snapshot payload, and the replica's connect,
// handshake, and live-sync read loop against a remote master.
package replication

import "fmt"

// EmptySnapshotBlob is the fixed minimal-but-valid snapshot sent as the
// FULLRESYNC payload: the "REDIS" magic, a version, a SELECTDB 0 opcode, EOF,
// and eight zero CRC bytes.
var EmptySnapshotBlob = []byte{
	'R', 'E', 'D', 'I', 'S', '0', '0', '1', '1',
	0xFE, 0x00,
	0xFF,
	0, 0, 0, 0, 0, 0, 0, 0,
}

// FullResyncReply renders the master's "+FULLRESYNC <replid> 0\r\n" line.
func FullResyncReply(replID string) []byte {
	return []byte(fmt.Sprintf("+FULLRESYNC %s 0\r\n", replID))
}

// SnapshotFrame renders the FULLRESYNC payload: a bulk-string length prefix
// followed by the raw snapshot body, with no trailing CRLF on the body (the
// payload is the body itself, not a standard bulk string).
func SnapshotFrame() []byte {
	header := []byte(fmt.Sprintf("$%d\r\n", len(EmptySnapshotBlob)))
	return append(header, EmptySnapshotBlob...)
}
