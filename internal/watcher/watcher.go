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

// Package watcher holds the long-lived websocket subscription that drives
// cache invalidation: it reconnects forever to the origin's /ws endpoint
// and reports parsed change notifications to a caller-supplied sink.
package watcher

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alexferroni02/remotefs/internal/clock"
)

// reconnectBackoff is the fixed sleep between a dropped connection (or a
// failed dial) and the next retry attempt.
const reconnectBackoff = 5 * time.Second

// Change is a parsed CHANGE:<path>[|BY:<client-id>] frame.
type Change struct {
	Path string
	By   string // empty if the frame carried no |BY: suffix
}

// ParseChange parses a single text frame. ok is false if frame does not
// have the CHANGE: prefix.
func ParseChange(frame string) (c Change, ok bool) {
	const prefix = "CHANGE:"
	if !strings.HasPrefix(frame, prefix) {
		return Change{}, false
	}

	rest := frame[len(prefix):]
	if idx := strings.Index(rest, "|BY:"); idx >= 0 {
		return Change{Path: rest[:idx], By: rest[idx+len("|BY:"):]}, true
	}

	return Change{Path: rest}, true
}

// Watcher holds a persistent subscription to the origin's change stream.
type Watcher struct {
	wsURL    string
	clientID string
	clock    clock.Clock
	logger   *slog.Logger

	// onChange is invoked for every Change not originated by clientID. The
	// caller is responsible for acquiring its own state mutex.
	onChange func(Change)

	stop chan struct{}
}

// New returns a Watcher that will connect to wsURL (e.g.
// "ws://localhost:8080/ws") once Run is called.
func New(wsURL, clientID string, clk clock.Clock, logger *slog.Logger, onChange func(Change)) *Watcher {
	return &Watcher{
		wsURL:    wsURL,
		clientID: clientID,
		clock:    clk,
		logger:   logger,
		onChange: onChange,
		stop:     make(chan struct{}),
	}
}

// Stop ends Run's reconnect loop after the current attempt finishes.
func (w *Watcher) Stop() {
	close(w.stop)
}

// Run connects to the origin, reads frames until the connection drops,
// reconnects after a fixed backoff, and repeats forever (or until Stop is
// called). It is intended to run on its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		if err := w.runOnce(); err != nil {
			w.logger.Warn("watcher: connection lost, retrying", "error", err, "url", w.wsURL)
		}

		select {
		case <-w.stop:
			return
		case <-w.clock.After(reconnectBackoff):
		}
	}
}

func (w *Watcher) runOnce() error {
	conn, _, err := websocket.DefaultDialer.Dial(w.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		c, ok := ParseChange(string(data))
		if !ok {
			continue
		}
		if c.By != "" && c.By == w.clientID {
			continue // echo of our own mutation
		}

		w.onChange(c)
	}
}

// URLFromBase derives the ws(s):// endpoint for base (an http(s):// origin
// base URL) with the /ws path.
func URLFromBase(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	return u.String(), nil
}
