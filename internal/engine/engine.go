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

package engine

import "redisrv/internal/snapshot"

// Engines bundles every per-type engine plus the cross-cutting pub/sub and
// replication registries, handed once to the session layer at startup.
type Engines struct {
	KV      *KVEngine
	List    *ListEngine
	Stream  *StreamEngine
	ZSet    *ZSetEngine
	Geo     *GeoEngine
	PubSub  *PubSubEngine
	Replica *ReplicaRegistry
}

// New constructs a fresh Engines set, seeding the KV engine with snap (may
// be nil if no snapshot was loaded at boot).
func New(snap *snapshot.DB) *Engines {
	zset := NewZSetEngine()
	return &Engines{
		KV:      NewKVEngine(snap),
		List:    NewListEngine(),
		Stream:  NewStreamEngine(),
		ZSet:    zset,
		Geo:     NewGeoEngine(zset),
		PubSub:  NewPubSubEngine(),
		Replica: NewReplicaRegistry(),
	}
}

// Type reports the engine that owns key, in TYPE's documented precedence
// order (KV, then List, then Stream, then ZSet), or "none" if key is absent
// from every engine.
func (e *Engines) Type(key string) string {
	if e.KV.Has(key) {
		return "string"
	}
	if e.List.Has(key) {
		return "list"
	}
	if e.Stream.Has(key) {
		return "stream"
	}
	if e.ZSet.Has(key) {
		return "zset"
	}
	return "none"
}
