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

import (
	"sort"

	"redisrv/pkg/store"
)

// GeoEngine stores geospatial members as an interleaved-geohash score in a
// sorted set, so every GEO command is a thin translation over ZSetEngine.
type GeoEngine struct {
	zsets *ZSetEngine
}

// NewGeoEngine wraps the given sorted-set engine to back GEO commands.
func NewGeoEngine(zsets *ZSetEngine) *GeoEngine {
	return &GeoEngine{zsets: zsets}
}

// Add stores member at (lon, lat) under key, encoded as a geohash score.
func (e *GeoEngine) Add(key, member string, lon, lat float64) int {
	return e.zsets.Add(key, member, store.EncodeGeohash(lon, lat))
}

// Pos returns the decoded (lon, lat) of member in key, if present.
func (e *GeoEngine) Pos(key, member string) (lon, lat float64, ok bool) {
	score, ok := e.zsets.Score(key, member)
	if !ok {
		return 0, 0, false
	}
	lon, lat = store.DecodeGeohash(score)
	return lon, lat, true
}

// Dist returns the distance between member1 and member2 in key, converted
// to unit ("m", "km", "mi", "ft"). ok is false if either member is absent
// or unit is unrecognized.
func (e *GeoEngine) Dist(key, member1, member2, unit string) (float64, bool) {
	lon1, lat1, ok := e.Pos(key, member1)
	if !ok {
		return 0, false
	}
	lon2, lat2, ok := e.Pos(key, member2)
	if !ok {
		return 0, false
	}
	metres := store.HaversineMetres(lon1, lat1, lon2, lat2)
	return store.MetresToUnit(metres, unit)
}

// GeoMember pairs a member name with its distance from a search origin,
// returned by SearchByRadius in ascending-distance order.
type GeoMember struct {
	Member string
	DistM  float64
	Lon    float64
	Lat    float64
}

// SearchByRadius returns every member of key within radius (in unit) of
// (lon, lat), sorted by ascending distance.
func (e *GeoEngine) SearchByRadius(key string, lon, lat, radius float64, unit string) ([]GeoMember, bool) {
	radiusM, ok := store.UnitToMetres(radius, unit)
	if !ok {
		return nil, false
	}
	var out []GeoMember
	e.zsets.ForEach(key, func(member string, score float64) {
		mlon, mlat := store.DecodeGeohash(score)
		d := store.HaversineMetres(lon, lat, mlon, mlat)
		if d <= radiusM {
			out = append(out, GeoMember{Member: member, DistM: d, Lon: mlon, Lat: mlat})
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistM < out[j].DistM })
	return out, true
}
