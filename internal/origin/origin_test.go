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

package origin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextBg() context.Context {
	return context.Background()
}

func TestList_DecodesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/a/b", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode([]Entry{
			{Name: "c.txt", Kind: "file", Size: 3, Mtime: 1, Perm: "644"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	entries, err := c.List(contextBg(), "a/b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c.txt", entries[0].Name)
}

func TestList_RootUsesBareListPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Entry{})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.List(contextBg(), "")
	require.NoError(t, err)
}

func TestList_NotFoundSurfacesNotFoundError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.List(contextBg(), "missing")
	require.Error(t, err)
	assert.IsType(t, &NotFoundError{}, err)
}

func TestGetFull_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	data, err := c.GetFull(contextBg(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestGetRange_SetsRangeHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=2-4", r.Header.Get("Range"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("llo"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	data, err := c.GetRange(contextBg(), "a.txt", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(data))
}

func TestGetRange_PastEOFSurfacesRangeNotSatisfiableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.GetRange(contextBg(), "a.txt", 100, 5)
	require.Error(t, err)
	assert.IsType(t, &RangeNotSatisfiableError{}, err)
}

func TestPut_SendsClientIDHeader(t *testing.T) {
	var gotID string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Client-ID")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Put(contextBg(), "a.txt", []byte("content"))
	require.NoError(t, err)
	assert.NotEmpty(t, gotID)
	assert.Equal(t, "content", string(gotBody))
}

func TestPut_NonSuccessSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Put(contextBg(), "a.txt", []byte("x"))
	require.Error(t, err)
	assert.IsType(t, &StatusError{}, err)
}

func TestMkdir_PostsToMkdirPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mkdir/d", r.URL.Path)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	require.NoError(t, c.Mkdir(contextBg(), "d"))
}

func TestDelete_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Delete(contextBg(), "a.txt")
	assert.IsType(t, &NotFoundError{}, err)
}

func TestChmod_SendsOctalPermBody(t *testing.T) {
	var body chmodBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&body)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	require.NoError(t, c.Chmod(contextBg(), "a.txt", 0644))
	assert.Equal(t, "644", body.Perm)
}

func TestClientID_StableAcrossCalls(t *testing.T) {
	c := New("http://example.invalid", time.Second)
	assert.Equal(t, c.ClientID(), c.ClientID())
}

func TestEncodePath_EscapesSpecialCharacters(t *testing.T) {
	assert.Equal(t, "a/b%25c", encodePath("a/b%c"))
	assert.Equal(t, "", encodePath(""))
}
