//----------------------------------------------------------------------
// This file is part of leatea-routing.
// Copyright (C) 2022 Bernd Fix >Y<
//
// leatea-routing is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// leatea-routing is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package core

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds the tunables of a node's core processes.
type Config struct {
	FwTableInitCap int `json:"fwTableInitCap"` // initial forwarding-table capacity
	SeenIDsCap     int `json:"seenIdsCap"`     // seen-ID set capacity

	NeighborTTL       int `json:"neighborTtl"`       // seconds before an unrefreshed neighbor is invalidated
	NeighborProbeIntv int `json:"neighborProbeIntv"` // seconds between REQUEST broadcasts

	DVEntryTTL      int `json:"dvEntryTtl"`      // seconds before an unrefreshed DV entry is aged
	DVAdvertiseIntv int `json:"dvAdvertiseIntv"` // seconds between blank broadcast / full advertisements
	MaxAdvInPacket  int `json:"maxAdvInPacket"`  // records per full DV advertisement

	TickIntv int `json:"tickIntv"` // seconds between ageing ticks (neighbor + DV)
}

// package-local configuration data (with default values)
var cfg = &Config{
	FwTableInitCap:    256,
	SeenIDsCap:        256,
	NeighborTTL:       120,
	NeighborProbeIntv: 30,
	DVEntryTTL:        180,
	DVAdvertiseIntv:   30,
	MaxAdvInPacket:    64,
	TickIntv:          1,
}

// SetConfiguration overrides package defaults with the positive fields
// of c; zero/negative fields keep their default.
func SetConfiguration(c *Config) {
	if c.FwTableInitCap > 0 {
		cfg.FwTableInitCap = c.FwTableInitCap
	}
	if c.SeenIDsCap > 0 {
		cfg.SeenIDsCap = c.SeenIDsCap
	}
	if c.NeighborTTL > 0 {
		cfg.NeighborTTL = c.NeighborTTL
	}
	if c.NeighborProbeIntv > 0 {
		cfg.NeighborProbeIntv = c.NeighborProbeIntv
	}
	if c.DVEntryTTL > 0 {
		cfg.DVEntryTTL = c.DVEntryTTL
	}
	if c.DVAdvertiseIntv > 0 {
		cfg.DVAdvertiseIntv = c.DVAdvertiseIntv
	}
	if c.MaxAdvInPacket > 0 {
		cfg.MaxAdvInPacket = c.MaxAdvInPacket
	}
	if c.TickIntv > 0 {
		cfg.TickIntv = c.TickIntv
	}
}

// LoadConfig reads a JSON configuration file and applies it on top of
// the package defaults.
func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c := new(Config)
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	SetConfiguration(c)
	return nil
}

// neighborProbeIntv returns the neighbor probe interval as a duration.
func neighborProbeIntv() time.Duration {
	return time.Duration(cfg.NeighborProbeIntv) * time.Second
}

// dvAdvertiseIntv returns the DV advertisement interval as a duration.
func dvAdvertiseIntv() time.Duration {
	return time.Duration(cfg.DVAdvertiseIntv) * time.Second
}

// tickIntv returns the ageing-tick interval as a duration.
func tickIntv() time.Duration {
	return time.Duration(cfg.TickIntv) * time.Second
}
