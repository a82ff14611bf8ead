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

	lru "github.com/hashicorp/golang-lru"
	"github.com/jacobsa/fuse/fuseops"
)

// lruCache bounds the working set at a fixed entry count instead of a time
// window. Capacity below 1 is rounded up, since golang-lru rejects a
// non-positive size.
type lruCache struct {
	cache *lru.Cache
}

// NewLRUCache returns a Cache that evicts the least-recently-accessed entry
// once more than capacity distinct inodes have been inserted.
func NewLRUCache(capacity int) Cache {
	if capacity < 1 {
		capacity = 1
	}

	c, err := lru.New(capacity)
	if err != nil {
		// Only possible if capacity <= 0, which we've already excluded.
		panic(err)
	}

	return &lruCache{cache: c}
}

func (c *lruCache) Get(ino fuseops.InodeID) (fuseops.InodeAttributes, bool) {
	v, ok := c.cache.Get(ino)
	if !ok {
		return fuseops.InodeAttributes{}, false
	}

	return v.(fuseops.InodeAttributes), true
}

func (c *lruCache) Put(ino fuseops.InodeID, attr fuseops.InodeAttributes, _ time.Duration) {
	c.cache.Add(ino, attr)
}

func (c *lruCache) Remove(ino fuseops.InodeID) {
	c.cache.Remove(ino)
}
