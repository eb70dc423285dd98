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
	"strconv"
	"strings"

	"redisrv/internal/protocol"
)

func init() {
	register("GEOADD", true, cmdGeoadd)
	register("GEOPOS", false, cmdGeopos)
	register("GEODIST", false, cmdGeodist)
	register("GEOSEARCH", false, cmdGeosearch)
}

const (
	geoLatMin = -85.05112878
	geoLatMax = 85.05112878
)

func cmdGeoadd(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 4 || len(args)%3 != 1 {
		return nil, &protocol.ArityError{Command: "GEOADD"}
	}
	key := string(args[0])
	added := 0
	for i := 1; i < len(args); i += 3 {
		lon, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return nil, protocol.NewTypeError("value is not a valid float")
		}
		lat, err := strconv.ParseFloat(string(args[i+1]), 64)
		if err != nil {
			return nil, protocol.NewTypeError("value is not a valid float")
		}
		if lon < -180 || lon > 180 || lat < geoLatMin || lat > geoLatMax {
			return nil, protocol.NewTypeError("invalid longitude,latitude pair")
		}
		added += s.engines().Geo.Add(key, string(args[i+2]), lon, lat)
	}
	return protocol.Integer(int64(added)), nil
}

func cmdGeopos(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 1 {
		return nil, &protocol.ArityError{Command: "GEOPOS"}
	}
	key := string(args[0])
	elements := make([][]byte, len(args)-1)
	for i, member := range args[1:] {
		lon, lat, ok := s.engines().Geo.Pos(key, string(member))
		if !ok {
			elements[i] = protocol.NullArray()
			continue
		}
		elements[i] = protocol.Array(
			protocol.BulkString([]byte(strconv.FormatFloat(lon, 'g', 17, 64))),
			protocol.BulkString([]byte(strconv.FormatFloat(lat, 'g', 17, 64))),
		)
	}
	return protocol.Array(elements...), nil
}

func cmdGeodist(s *Session, args [][]byte) ([]byte, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, &protocol.ArityError{Command: "GEODIST"}
	}
	unit := "m"
	if len(args) == 4 {
		unit = strings.ToLower(string(args[3]))
	}
	dist, ok := s.engines().Geo.Dist(string(args[0]), string(args[1]), string(args[2]), unit)
	if !ok {
		return protocol.NullBulk(), nil
	}
	return protocol.BulkString([]byte(strconv.FormatFloat(dist, 'f', 4, 64))), nil
}

// cmdGeosearch implements the single supported form: "GEOSEARCH key
// FROMLONLAT lon lat BYRADIUS radius unit". Any other combination of
// from/by clauses returns a fixed "unsupported" error rather than silently
// misinterpreting the query.
func cmdGeosearch(s *Session, args [][]byte) ([]byte, error) {
	if len(args) != 7 ||
		!strings.EqualFold(string(args[1]), "FROMLONLAT") ||
		!strings.EqualFold(string(args[4]), "BYRADIUS") {
		return nil, protocol.NewTypeError("GEOSEARCH only supports FROMLONLAT ... BYRADIUS ... <unit>")
	}
	key := string(args[0])
	lon, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		return nil, protocol.NewTypeError("value is not a valid float")
	}
	lat, err := strconv.ParseFloat(string(args[3]), 64)
	if err != nil {
		return nil, protocol.NewTypeError("value is not a valid float")
	}
	radius, err := strconv.ParseFloat(string(args[5]), 64)
	if err != nil {
		return nil, protocol.NewTypeError("value is not a valid float")
	}
	unit := strings.ToLower(string(args[6]))
	members, ok := s.engines().Geo.SearchByRadius(key, lon, lat, radius, unit)
	if !ok {
		return nil, protocol.NewTypeError("unsupported unit")
	}
	elements := make([][]byte, len(members))
	for i, m := range members {
		elements[i] = protocol.BulkString([]byte(m.Member))
	}
	return protocol.Array(elements...), nil
}
