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

// Package broadcast implements the origin server's change-notification
// fan-out: one publisher (the handler that observes a mutation) feeding
// many subscribers (one per connected websocket client).
package broadcast

import (
	"sync"
)

// backlogCapacity bounds how many unconsumed frames a single slow
// subscriber is allowed to accumulate before frames start being dropped
// for it specifically; other subscribers are unaffected.
const backlogCapacity = 256

// Hub fans a stream of string frames out to any number of subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	backlog frameQueue
	signal  chan struct{}
}

// New constructs an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers a new subscriber and returns its ID (for
// Unsubscribe) and a channel that is signalled whenever a new frame is
// available. The caller drains frames with Next.
func (h *Hub) Subscribe() (int, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = &subscriber{
		signal: make(chan struct{}, 1),
	}
	return id, h.subs[id].signal
}

// Unsubscribe removes a subscriber; its signal channel is never closed,
// matching the read loop's own exit on websocket teardown.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Next pops the oldest undelivered frame for id, if any.
func (h *Hub) Next(id int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok || sub.backlog.IsEmpty() {
		return "", false
	}
	return sub.backlog.Pop(), true
}

// Publish appends frame to every current subscriber's backlog and wakes
// each one's reader. A subscriber whose backlog is already at capacity
// silently drops the frame rather than applying backpressure to the
// publisher, which is always the HTTP handler goroutine that triggered
// the mutation.
func (h *Hub) Publish(frame string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.backlog.Len() >= backlogCapacity {
			continue
		}
		sub.backlog.Push(frame)
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}
