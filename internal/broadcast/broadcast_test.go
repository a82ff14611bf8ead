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

package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	h := New()
	id1, sig1 := h.Subscribe()
	id2, sig2 := h.Subscribe()

	h.Publish("CHANGE:a/b")

	<-sig1
	<-sig2

	frame, ok := h.Next(id1)
	require.True(t, ok)
	assert.Equal(t, "CHANGE:a/b", frame)

	frame, ok = h.Next(id2)
	require.True(t, ok)
	assert.Equal(t, "CHANGE:a/b", frame)
}

func TestNext_MissWhenBacklogEmpty(t *testing.T) {
	h := New()
	id, _ := h.Subscribe()

	_, ok := h.Next(id)
	assert.False(t, ok)
}

func TestNext_PreservesPublishOrder(t *testing.T) {
	h := New()
	id, _ := h.Subscribe()

	h.Publish("one")
	h.Publish("two")
	h.Publish("three")

	first, _ := h.Next(id)
	second, _ := h.Next(id)
	third, _ := h.Next(id)

	assert.Equal(t, "one", first)
	assert.Equal(t, "two", second)
	assert.Equal(t, "three", third)
}

func TestUnsubscribe_StopsFurtherDelivery(t *testing.T) {
	h := New()
	id, _ := h.Subscribe()
	h.Unsubscribe(id)

	h.Publish("CHANGE:x")

	_, ok := h.Next(id)
	assert.False(t, ok)
}

func TestPublish_DropsFramesPastBacklogCapacity(t *testing.T) {
	h := New()
	id, _ := h.Subscribe()

	for i := 0; i < backlogCapacity+10; i++ {
		h.Publish("frame")
	}

	sub := h.subs[id]
	assert.Equal(t, backlogCapacity, sub.backlog.Len())
}

func TestPublish_DoesNotBlockWhenSubscriberSignalFull(t *testing.T) {
	h := New()
	id, _ := h.Subscribe()

	h.Publish("first")
	h.Publish("second")

	_, ok := h.Next(id)
	require.True(t, ok)
	_, ok = h.Next(id)
	require.True(t, ok)
}
