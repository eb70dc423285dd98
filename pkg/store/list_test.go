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
	"bytes"
	"testing"
)

func bs(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestListPushRightOrder(t *testing.T) {
	l := NewList()
	n := l.PushRight(bs("a", "b", "c")...)
	if n != 3 {
		t.Fatalf("want len 3, got %d", n)
	}
	got := l.Range(0, -1)
	want := bs("a", "b", "c")
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("index %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestListPushLeftReversesArgs(t *testing.T) {
	l := NewList()
	l.PushRight(bs("a", "b", "c")...)
	l.PushLeft(bs("x", "y")...)
	got := l.Range(0, -1)
	want := bs("x", "y", "a", "b", "c")
	if len(got) != len(want) {
		t.Fatalf("want len %d, got %d", len(want), len(got))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("index %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestListRangeNegativeIndices(t *testing.T) {
	l := NewList()
	l.PushRight(bs("a", "b", "c", "d", "e")...)
	got := l.Range(-3, -1)
	want := bs("c", "d", "e")
	if len(got) != len(want) {
		t.Fatalf("want %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("index %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestListRangeStartAfterStopIsEmpty(t *testing.T) {
	l := NewList()
	l.PushRight(bs("a", "b")...)
	if got := l.Range(1, 0); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
}

func TestListRangeStartBeyondLengthIsEmpty(t *testing.T) {
	l := NewList()
	l.PushRight(bs("a")...)
	if got := l.Range(5, 10); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
}

func TestListPopLeftClampsCount(t *testing.T) {
	l := NewList()
	l.PushRight(bs("a", "b")...)
	got := l.PopLeft(10)
	if len(got) != 2 {
		t.Fatalf("want 2 popped, got %d", len(got))
	}
	if l.Len() != 0 {
		t.Fatalf("want empty list after pop, got len %d", l.Len())
	}
}

func TestListLenOnEmptyIsZero(t *testing.T) {
	l := NewList()
	if l.Len() != 0 {
		t.Fatalf("want 0, got %d", l.Len())
	}
}
