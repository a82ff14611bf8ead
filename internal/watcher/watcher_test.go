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

package watcher

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexferroni02/remotefs/internal/clock"
)

func TestParseChange_WithoutBySuffix(t *testing.T) {
	c, ok := ParseChange("CHANGE:a/b.txt")
	require.True(t, ok)
	assert.Equal(t, "a/b.txt", c.Path)
	assert.Equal(t, "", c.By)
}

func TestParseChange_WithBySuffix(t *testing.T) {
	c, ok := ParseChange("CHANGE:a/b.txt|BY:client-123")
	require.True(t, ok)
	assert.Equal(t, "a/b.txt", c.Path)
	assert.Equal(t, "client-123", c.By)
}

func TestParseChange_RejectsUnrecognizedFrame(t *testing.T) {
	_, ok := ParseChange("PING")
	assert.False(t, ok)
}

func TestURLFromBase_HTTPBecomesWS(t *testing.T) {
	got, err := URLFromBase("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", got)
}

func TestURLFromBase_HTTPSBecomesWSS(t *testing.T) {
	got, err := URLFromBase("https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/ws", got)
}

func TestWatcher_InvokesOnChangeForRemoteFrame(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte("CHANGE:a/b.txt|BY:other-client"))

		// Keep the connection open briefly so the client has time to read.
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	var mu sync.Mutex
	var got []Change
	onChange := func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
	}

	w := New(wsURL, "self-client", clock.RealClock{}, slog.New(slog.NewTextHandler(io.Discard, nil)), onChange)
	go func() {
		_ = w.runOnce()
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "a/b.txt", got[0].Path)
}

func TestWatcher_SuppressesSelfEcho(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte("CHANGE:a/b.txt|BY:self-client"))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	var mu sync.Mutex
	var got []Change
	onChange := func(c Change) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
	}

	w := New(wsURL, "self-client", clock.RealClock{}, slog.New(slog.NewTextHandler(io.Discard, nil)), onChange)
	done := make(chan struct{})
	go func() {
		_ = w.runOnce()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, got, "a change frame annotated with our own client id must be dropped")
}
