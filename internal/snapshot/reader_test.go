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

package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"redisrv/internal/replication"
)

// snapBuilder assembles snapshot byte streams for tests without a real dump
// file on disk.
type snapBuilder struct {
	buf bytes.Buffer
}

func newSnap() *snapBuilder {
	b := &snapBuilder{}
	b.buf.WriteString("REDIS0011")
	return b
}

func (b *snapBuilder) selectDB(id byte) *snapBuilder {
	b.buf.Write([]byte{0xFE, id})
	return b
}

func (b *snapBuilder) aux(key, value string) *snapBuilder {
	b.buf.WriteByte(0xFA)
	b.str(key)
	b.str(value)
	return b
}

func (b *snapBuilder) resizeHint(size, expires byte) *snapBuilder {
	b.buf.Write([]byte{0xFB, size, expires})
	return b
}

func (b *snapBuilder) expiryMs(epochMs uint64) *snapBuilder {
	b.buf.WriteByte(0xFC)
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], epochMs)
	b.buf.Write(ts[:])
	return b
}

func (b *snapBuilder) expirySecs(epochS uint32) *snapBuilder {
	b.buf.WriteByte(0xFD)
	var ts [4]byte
	binary.LittleEndian.PutUint32(ts[:], epochS)
	b.buf.Write(ts[:])
	return b
}

func (b *snapBuilder) stringRecord(key, value string) *snapBuilder {
	b.buf.WriteByte(0x00)
	b.str(key)
	b.str(value)
	return b
}

// str writes a 6-bit-length-prefixed string (all test strings are short).
func (b *snapBuilder) str(s string) *snapBuilder {
	b.buf.WriteByte(byte(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *snapBuilder) raw(data ...byte) *snapBuilder {
	b.buf.Write(data)
	return b
}

func (b *snapBuilder) eof() []byte {
	b.buf.WriteByte(0xFF)
	b.buf.Write(make([]byte, 8)) // CRC, skipped by the reader
	return b.buf.Bytes()
}

func parseBytes(t *testing.T, data []byte) (*DB, error) {
	t.Helper()
	return parse(bufio.NewReader(bytes.NewReader(data)))
}

func TestLoadMissingFileIsEmptyDB(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "nope.rdb"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if keys := db.Keys(); len(keys) != 0 {
		t.Fatalf("missing file yielded keys %v", keys)
	}
}

func TestLoadRoundTripThroughFile(t *testing.T) {
	data := newSnap().selectDB(0).stringRecord("k", "v").eof()
	path := filepath.Join(t.TempDir(), "dump.rdb")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	value, expired, ok := db.Lookup("k")
	if !ok || expired || string(value) != "v" {
		t.Fatalf("Lookup = (%q, %v, %v), want (v, false, true)", value, expired, ok)
	}
}

func TestParseSkipsMetadataAndHints(t *testing.T) {
	data := newSnap().
		aux("redis-ver", "7.2.0").
		selectDB(0).
		resizeHint(2, 0).
		stringRecord("a", "1").
		stringRecord("b", "2").
		eof()
	db, err := parseBytes(t, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	keys := db.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys = %v, want sorted [a b]", keys)
	}
}

func TestParseExpiryApplication(t *testing.T) {
	future := uint64(time.Now().Add(time.Hour).UnixMilli())
	past := uint64(time.Now().Add(-time.Hour).UnixMilli())
	futureSecs := uint32(time.Now().Add(time.Hour).Unix())

	data := newSnap().
		selectDB(0).
		expiryMs(future).stringRecord("alive-ms", "v").
		expiryMs(past).stringRecord("dead", "v").
		expirySecs(futureSecs).stringRecord("alive-s", "v").
		stringRecord("no-expiry", "v").
		eof()
	db, err := parseBytes(t, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// An entry whose expiry has already passed is dropped at load time.
	if _, _, ok := db.Lookup("dead"); ok {
		t.Fatal("expired-at-load entry should not be present")
	}
	for _, key := range []string{"alive-ms", "alive-s", "no-expiry"} {
		if _, expired, ok := db.Lookup(key); !ok || expired {
			t.Fatalf("Lookup(%q) should be live", key)
		}
	}
	// The pending expiry is cleared after the record it applied to:
	// "no-expiry" follows "alive-s" and must carry no expiry of its own.
	e := db.dbs[0]["no-expiry"]
	if e.hasExpiry {
		t.Fatal("expiry leaked onto the following record")
	}
}

func TestParseSpecialIntEncodings(t *testing.T) {
	data := newSnap().
		selectDB(0).
		raw(0x00).str("i8").raw(0xC0, 0x7B). // int8: 123
		raw(0x00).str("i16").raw(0xC1, 0x39, 0x30). // int16 LE: 12345
		raw(0x00).str("i32").raw(0xC2, 0x40, 0xE2, 0x01, 0x00). // int32 LE: 123456
		eof()
	db, err := parseBytes(t, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for key, want := range map[string]string{"i8": "123", "i16": "12345", "i32": "123456"} {
		value, _, ok := db.Lookup(key)
		if !ok || string(value) != want {
			t.Fatalf("Lookup(%q) = (%q, %v), want %q", key, value, ok, want)
		}
	}
}

func TestParseFourteenBitLength(t *testing.T) {
	payload := bytes.Repeat([]byte{'x'}, 300)
	b := newSnap().selectDB(0)
	b.raw(0x00).str("big")
	b.raw(0x40|byte(300>>8), byte(300&0xFF))
	b.buf.Write(payload)
	db, err := parseBytes(t, b.eof())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	value, _, ok := db.Lookup("big")
	if !ok || !bytes.Equal(value, payload) {
		t.Fatalf("14-bit length value mismatch (ok=%v, len=%d)", ok, len(value))
	}
}

func TestParseSkipsCollectionRecords(t *testing.T) {
	b := newSnap().selectDB(0)
	// 0x01 (list-like): length 2, two plain members.
	b.raw(0x01).str("mylist").raw(0x02)
	b.str("m1")
	b.str("m2")
	// 0x04 (hash-like): length 1, one field/value pair.
	b.raw(0x04).str("myhash").raw(0x01)
	b.str("f")
	b.str("v")
	b.stringRecord("kept", "v")
	db, err := parseBytes(t, b.eof())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	keys := db.Keys()
	if len(keys) != 1 || keys[0] != "kept" {
		t.Fatalf("Keys = %v, want only the string record", keys)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	if _, err := parseBytes(t, []byte("NOTRDB001")); err == nil {
		t.Fatal("bad magic should fail the parse")
	}
}

func TestParseRejectsLZF(t *testing.T) {
	b := newSnap().selectDB(0)
	// String record whose value is LZF-compressed (0xC3): clen 1, ulen 1,
	// one compressed byte. Unsupported; the whole load aborts.
	b.raw(0x00).str("k").raw(0xC3, 0x01, 0x01, 0xAA)
	if _, err := parseBytes(t, b.eof()); err == nil {
		t.Fatal("LZF value should abort the load")
	}
}

func TestParseRejectsUnknownOpcode(t *testing.T) {
	b := newSnap().selectDB(0)
	b.raw(0x42) // not an opcode nor a supported object type
	if _, err := parseBytes(t, b.eof()); err == nil {
		t.Fatal("unknown opcode should fail the parse")
	}
}

// The blob a master sends during FULLRESYNC must be parseable by this same
// reader: an empty DB 0, no keys, no error.
func TestParseEmptyFullResyncBlob(t *testing.T) {
	db, err := parseBytes(t, replication.EmptySnapshotBlob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if keys := db.Keys(); len(keys) != 0 {
		t.Fatalf("empty blob yielded keys %v", keys)
	}
}

func TestParseSecondDBIsNotVisibleFromLookup(t *testing.T) {
	data := newSnap().
		selectDB(0).stringRecord("visible", "v").
		selectDB(1).stringRecord("hidden", "v").
		eof()
	db, err := parseBytes(t, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, ok := db.Lookup("visible"); !ok {
		t.Fatal("DB 0 key missing")
	}
	if _, _, ok := db.Lookup("hidden"); ok {
		t.Fatal("DB 1 key should not resolve through Lookup")
	}
}
