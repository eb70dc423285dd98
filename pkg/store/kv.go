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
	"strconv"
	"time"
)

// Cell is a single string value with an optional monotonic-clock expiry.
// A cell created without a TTL never expires.
type Cell struct {
	Value  []byte
	expiry time.Time
	hasTTL bool
}

// NewCell creates a cell holding value with no expiry.
func NewCell(value []byte) *Cell {
	return &Cell{Value: value}
}

// NewCellWithTTL creates a cell that expires after ttl elapses from now.
func NewCellWithTTL(value []byte, ttl time.Duration) *Cell {
	return &Cell{Value: value, expiry: time.Now().Add(ttl), hasTTL: true}
}

// Expired reports whether the cell's TTL, if any, has elapsed as of now.
func (c *Cell) Expired(now time.Time) bool {
	return c.hasTTL && !now.Before(c.expiry)
}

// Incr parses the cell's value as a base-10 signed integer, adds delta, and
// stores the result back into the cell as its new decimal text. It returns the
// new value, or an error if the current value is not a valid integer.
func (c *Cell) Incr(delta int64) (int64, error) {
	n, err := strconv.ParseInt(string(c.Value), 10, 64)
	if err != nil {
		return 0, errNotAnInteger
	}
	n += delta
	c.Value = []byte(strconv.FormatInt(n, 10))
	return n, nil
}
