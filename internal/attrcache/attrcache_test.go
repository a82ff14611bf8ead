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
	"testing"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexferroni02/remotefs/internal/clock"
)

func TestTTLCache_HitBeforeExpiry(t *testing.T) {
	clk := clock.NewSimulatedClock(time.Unix(0, 0))
	c := NewTTLCache(10*time.Second, clk)

	attr := fuseops.InodeAttributes{Size: 42}
	c.Put(1, attr, 0)

	clk.AdvanceTime(9 * time.Second)
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, attr, got)
}

func TestTTLCache_MissAtExpiry(t *testing.T) {
	clk := clock.NewSimulatedClock(time.Unix(0, 0))
	c := NewTTLCache(10*time.Second, clk)

	c.Put(1, fuseops.InodeAttributes{Size: 42}, 0)

	clk.AdvanceTime(10 * time.Second)
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestTTLCache_PerEntryTTLOverridesDefault(t *testing.T) {
	clk := clock.NewSimulatedClock(time.Unix(0, 0))
	c := NewTTLCache(10*time.Second, clk)

	c.Put(1, fuseops.InodeAttributes{Size: 1}, time.Second)

	clk.AdvanceTime(time.Second)
	_, ok := c.Get(1)
	assert.False(t, ok, "per-call ttl of 1s should expire before the cache default of 10s")
}

func TestTTLCache_RemoveEvictsEntry(t *testing.T) {
	clk := clock.NewSimulatedClock(time.Unix(0, 0))
	c := NewTTLCache(time.Minute, clk)

	c.Put(1, fuseops.InodeAttributes{Size: 1}, 0)
	c.Remove(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestTTLCache_MissOnUnknownInode(t *testing.T) {
	clk := clock.NewSimulatedClock(time.Unix(0, 0))
	c := NewTTLCache(time.Minute, clk)

	_, ok := c.Get(99)
	assert.False(t, ok)
}

func TestLRUCache_HitAfterPut(t *testing.T) {
	c := NewLRUCache(2)

	attr := fuseops.InodeAttributes{Size: 7}
	c.Put(1, attr, 0)

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, attr, got)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2)

	c.Put(1, fuseops.InodeAttributes{Size: 1}, 0)
	c.Put(2, fuseops.InodeAttributes{Size: 2}, 0)

	// Touch inode 1 so inode 2 becomes the least recently used.
	_, ok := c.Get(1)
	require.True(t, ok)

	c.Put(3, fuseops.InodeAttributes{Size: 3}, 0)

	_, ok = c.Get(2)
	assert.False(t, ok, "inode 2 should have been evicted as the least recently used entry")

	_, ok = c.Get(1)
	assert.True(t, ok)

	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestLRUCache_CapacityBelowOneIsRoundedUp(t *testing.T) {
	c := NewLRUCache(0)

	c.Put(1, fuseops.InodeAttributes{Size: 1}, 0)
	_, ok := c.Get(1)
	assert.True(t, ok)
}

func TestLRUCache_Remove(t *testing.T) {
	c := NewLRUCache(4)

	c.Put(1, fuseops.InodeAttributes{Size: 1}, 0)
	c.Remove(1)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestDisabledCache_AlwaysMisses(t *testing.T) {
	c := NewDisabledCache()

	c.Put(1, fuseops.InodeAttributes{Size: 123}, time.Hour)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestDisabledCache_RemoveIsNoop(t *testing.T) {
	c := NewDisabledCache()

	assert.NotPanics(t, func() {
		c.Remove(1)
	})
}
