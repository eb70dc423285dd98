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

// Package store provides the in-memory value primitives that back each of the
// server's typed engines: a string cell with optional expiry, a list, a stream,
// and a sorted set. None of the types carries a lock; the engines in
// internal/engine hold their own mutex around every call. No type has any
// knowledge of the key it is stored under or of any other engine.
package store
