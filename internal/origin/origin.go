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

// Package origin is the HTTP client for the remote origin server: the seven
// operations (list, get_full, get_range, put, mkdir, delete, chmod) the
// daemon issues against the configured server_url.
package origin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// clientIDHeader carries the process-wide random identifier on every
// mutating request, so the server can annotate the resulting change
// notification for self-echo suppression by the watcher.
const clientIDHeader = "X-Client-ID"

// StatusError wraps a non-2xx (and non-404, where 404 is translated by the
// caller into a not-found condition) HTTP response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("origin: %s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// NotFoundError indicates the origin replied 404 for Path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("origin: %s: not found", e.Path)
}

// RangeNotSatisfiableError indicates the origin replied 416 for Path: the
// requested byte range starts at or past the end of the file. Distinct from
// NotFoundError so a ranged read past EOF can be told apart from the path
// simply not existing.
type RangeNotSatisfiableError struct {
	Path string
}

func (e *RangeNotSatisfiableError) Error() string {
	return fmt.Sprintf("origin: %s: range not satisfiable", e.Path)
}

// Entry is one row of a directory listing, as reported by the wire
// protocol's /list endpoint.
type Entry struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
	Perm  string `json:"perm"`
}

// Client is the origin HTTP client. The zero value is not usable;
// construct with New.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clientID   string
}

// New returns a Client against baseURL (e.g. "http://localhost:8080"),
// using timeout as the per-call deadline. A process-wide client-id is
// generated once and attached to every mutating request.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		clientID:   uuid.NewString(),
	}
}

// ClientID returns the process-wide identifier this client attaches to
// mutating requests, for comparison against incoming CHANGE frames.
func (c *Client) ClientID() string {
	return c.clientID
}

// encodePath percent-encodes each slash-separated segment of p
// independently, so that names containing '?', '#', or '%' survive the
// round trip through the URL path.
func encodePath(p string) string {
	if p == "" {
		return ""
	}

	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return strings.Join(segments, "/")
}

func (c *Client) filesURL(path string) string {
	return c.baseURL + "/files/" + encodePath(path)
}

// List returns the directory entries at path ("" for the root).
func (c *Client) List(ctx context.Context, path string) ([]Entry, error) {
	u := c.baseURL + "/list"
	if path != "" {
		u = c.baseURL + "/list/" + encodePath(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Path: path}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: "GET", Path: u, Code: resp.StatusCode}
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// GetFull fetches the entire content of path.
func (c *Client) GetFull(ctx context.Context, path string) ([]byte, error) {
	return c.get(ctx, path, "")
}

// GetRange fetches exactly [start, start+length) of path's content.
func (c *Client) GetRange(ctx context.Context, path string, start, length int64) ([]byte, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-%d", start, start+length-1)
	return c.get(ctx, path, rangeHeader)
}

func (c *Client) get(ctx context.Context, path, rangeHeader string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.filesURL(path), nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, &NotFoundError{Path: path}
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, &RangeNotSatisfiableError{Path: path}
	default:
		return nil, &StatusError{Method: "GET", Path: path, Code: resp.StatusCode}
	}
}

// Put replaces the content of path with data, creating it if absent.
func (c *Client) Put(ctx context.Context, path string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.filesURL(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set(clientIDHeader, c.clientID)
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: "PUT", Path: path, Code: resp.StatusCode}
	}

	return nil
}

// Mkdir creates the directory at path.
func (c *Client) Mkdir(ctx context.Context, path string) error {
	u := c.baseURL + "/mkdir/" + encodePath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(clientIDHeader, c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: "POST", Path: path, Code: resp.StatusCode}
	}

	return nil
}

// Delete removes path.
func (c *Client) Delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.filesURL(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set(clientIDHeader, c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{Method: "DELETE", Path: path, Code: resp.StatusCode}
	}

	return nil
}

// chmodBody is the request payload for Chmod.
type chmodBody struct {
	Perm string `json:"perm"`
}

// Chmod sets the permission bits of path. mode is masked to the low 9 bits
// and rendered as a bare octal string (no leading zero required by the
// wire protocol, but one is harmless).
func (c *Client) Chmod(ctx context.Context, path string, mode uint32) error {
	body, err := json.Marshal(chmodBody{Perm: fmt.Sprintf("%o", mode&0777)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.filesURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set(clientIDHeader, c.clientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Path: path}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &StatusError{Method: "PATCH", Path: path, Code: resp.StatusCode}
	}

	return nil
}
