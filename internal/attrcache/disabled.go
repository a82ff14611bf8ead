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
)

// disabledCache is a permanent miss, useful for correctness testing where
// every access must hit the origin.
type disabledCache struct{}

// NewDisabledCache returns a Cache that never stores anything.
func NewDisabledCache() Cache {
	return disabledCache{}
}

func (disabledCache) Get(fuseops.InodeID) (fuseops.InodeAttributes, bool) {
	return fuseops.InodeAttributes{}, false
}

func (disabledCache) Put(fuseops.InodeID, fuseops.InodeAttributes, time.Duration) {}

func (disabledCache) Remove(fuseops.InodeID) {}
