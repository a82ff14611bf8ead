// Copyright 2025 Google LLC
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

package attrcache

import (
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/alexferroni02/remotefs/internal/clock"
)

// ttlEntry pairs an attribute snapshot with the instant at which it expires.
type ttlEntry struct {
	attr   fuseops.InodeAttributes
	expiry time.Time
}

// ttlCache evicts an entry on the first read that observes it past expiry,
// biasing correctness toward freshness over hit rate.
type ttlCache struct {
	clock   clock.Clock
	ttl     time.Duration
	entries map[fuseops.InodeID]ttlEntry
}

// NewTTLCache returns a Cache whose entries expire ttl after insertion,
// unless a different ttl is supplied to an individual Put call.
func NewTTLCache(ttl time.Duration, clk clock.Clock) Cache {
	return &ttlCache{
		clock:   clk,
		ttl:     ttl,
		entries: make(map[fuseops.InodeID]ttlEntry),
	}
}

func (c *ttlCache) Get(ino fuseops.InodeID) (fuseops.InodeAttributes, bool) {
	entry, ok := c.entries[ino]
	if !ok {
		return fuseops.InodeAttributes{}, false
	}

	if !c.clock.Now().Before(entry.expiry) {
		delete(c.entries, ino)
		return fuseops.InodeAttributes{}, false
	}

	return entry.attr, true
}

func (c *ttlCache) Put(ino fuseops.InodeID, attr fuseops.InodeAttributes, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.entries[ino] = ttlEntry{
		attr:   attr,
		expiry: c.clock.Now().Add(ttl),
	}
}

func (c *ttlCache) Remove(ino fuseops.InodeID) {
	delete(c.entries, ino)
}
