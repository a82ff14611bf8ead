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

// Package attrcache holds the daemon-side FileAttr cache described by the
// design's attribute cache component: a pluggable policy (TTL, LRU, or
// disabled) keyed by inode, sitting in front of the origin's attribute
// pipeline.
package attrcache

import (
	"time"

	"github.com/jacobsa/fuse/fuseops"
)

// Cache is the get/put/remove contract shared by every eviction policy.
// Implementations are safe for concurrent use only to the extent that the
// caller already serializes access; RemoteFS always calls through its
// dispatcher mutex, so implementations here use plain (non-atomic) maps.
type Cache interface {
	// Get returns the cached attributes for ino, or ok == false on a miss
	// (including an expired TTL entry, which is evicted as a side effect).
	Get(ino fuseops.InodeID) (attr fuseops.InodeAttributes, ok bool)

	// Put inserts or replaces the cached attributes for ino. ttl is the
	// entry's time to live; it is ignored by policies that don't use a
	// per-entry expiry (LRU, disabled).
	Put(ino fuseops.InodeID, attr fuseops.InodeAttributes, ttl time.Duration)

	// Remove evicts ino's entry, if any. A no-op if ino is not cached.
	Remove(ino fuseops.InodeID)
}
