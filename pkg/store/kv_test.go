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

package store

import (
	"testing"
	"time"
)

func TestCellExpiry(t *testing.T) {
	c := NewCellWithTTL([]byte("1"), 50*time.Millisecond)
	if c.Expired(time.Now()) {
		t.Fatalf("cell should not be expired immediately")
	}
	if !c.Expired(time.Now().Add(100 * time.Millisecond)) {
		t.Fatalf("cell should be expired after its TTL elapses")
	}
}

func TestCellNoTTLNeverExpires(t *testing.T) {
	c := NewCell([]byte("1"))
	if c.Expired(time.Now().Add(24 * time.Hour)) {
		t.Fatalf("cell with no TTL must never expire")
	}
}

func TestCellIncr(t *testing.T) {
	c := NewCell([]byte("10"))
	n, err := c.Incr(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 11 {
		t.Fatalf("want 11, got %d", n)
	}
	if string(c.Value) != "11" {
		t.Fatalf("want stored value 11, got %q", c.Value)
	}
}

func TestCellIncrNonInteger(t *testing.T) {
	c := NewCell([]byte("not-a-number"))
	if _, err := c.Incr(1); err != errNotAnInteger {
		t.Fatalf("want errNotAnInteger, got %v", err)
	}
}

func TestCellIncrFromZero(t *testing.T) {
	// The KV engine seeds a freshly-created cell with "0" before incrementing,
	// which is how a missing key ends up becoming "1" (see engine/kv.go).
	c := NewCell([]byte("0"))
	n, err := c.Incr(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1, got %d", n)
	}
}
