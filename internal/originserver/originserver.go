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

// Package originserver implements the companion HTTP server that serves a
// directory tree rooted at an ordinary OS path as the wire protocol
// internal/origin's Client expects: list/get/put/mkdir/delete/chmod plus a
// websocket change-notification stream. It exists to exercise and test the
// client end-to-end; spec.md specifies the client against this wire
// contract without mandating a particular server implementation.
package originserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/alexferroni02/remotefs/internal/broadcast"
)

// Entry mirrors internal/origin.Entry; kept as a separate type so the two
// packages don't need to import one another.
type Entry struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
	Perm  string `json:"perm"`
}

type chmodBody struct {
	Perm string `json:"perm"`
}

// Server roots the wire protocol at an ordinary directory on disk.
type Server struct {
	root     string
	hub      *broadcast.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New constructs a Server rooted at root. root must already exist.
func New(root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		root:   filepath.Clean(root),
		hub:    broadcast.New(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the routed http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/list", s.handleList)
	mux.HandleFunc("/list/", s.handleList)
	mux.HandleFunc("/mkdir/", s.handleMkdir)
	mux.HandleFunc("/files/", s.handleFiles)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// resolve maps a wire path (already unescaped by net/http's mux) to an
// absolute filesystem path, rejecting any attempt to climb above root.
func (s *Server) resolve(wirePath string) (string, bool) {
	clean := filepath.Clean("/" + wirePath)
	full := filepath.Join(s.root, clean)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func wirePathFromURL(prefix, urlPath string) string {
	return strings.TrimPrefix(strings.TrimPrefix(urlPath, prefix), "/")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	wirePath := ""
	if strings.HasPrefix(r.URL.Path, "/list/") {
		wirePath = wirePathFromURL("/list", r.URL.Path)
	}

	dirPath, ok := s.resolve(wirePath)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	infos, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	entries := make([]Entry, 0, len(infos))
	for _, de := range infos {
		info, err := de.Info()
		if err != nil {
			continue
		}
		kind := "file"
		if de.IsDir() {
			kind = "directory"
		}
		entries = append(entries, Entry{
			Name:  de.Name(),
			Kind:  kind,
			Size:  info.Size(),
			Mtime: info.ModTime().Unix(),
			Perm:  strconv.FormatUint(uint64(info.Mode().Perm()), 8),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	wirePath := wirePathFromURL("/mkdir", r.URL.Path)
	dirPath, ok := s.resolve(wirePath)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := os.Mkdir(dirPath, 0755); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.notify(wirePath, r)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	wirePath := wirePathFromURL("/files", r.URL.Path)
	fsPath, ok := s.resolve(wirePath)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, fsPath)
	case http.MethodPut:
		s.handlePut(w, r, fsPath, wirePath)
	case http.MethodDelete:
		s.handleDelete(w, r, fsPath, wirePath)
	case http.MethodPatch:
		s.handlePatch(w, r, fsPath, wirePath)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, fsPath string) {
	f, err := os.Open(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, filepath.Base(fsPath), info.ModTime(), f)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, fsPath, wirePath string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := os.WriteFile(fsPath, body, 0644); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.notify(wirePath, r)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, fsPath, wirePath string) {
	if err := os.Remove(fsPath); err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.notify(wirePath, r)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request, fsPath, wirePath string) {
	var body chmodBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	mode, err := strconv.ParseUint(body.Perm, 8, 32)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := os.Chmod(fsPath, os.FileMode(mode&0777)); err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.notify(wirePath, r)
	w.WriteHeader(http.StatusOK)
}

// notify publishes a CHANGE frame for path, tagging it with the
// requester's X-Client-ID so that requester's own watcher can suppress the
// echo, per the wire protocol's `|BY:<client-id>` suffix.
func (s *Server) notify(wirePath string, r *http.Request) {
	frame := "CHANGE:" + wirePath
	if clientID := r.Header.Get("X-Client-ID"); clientID != "" {
		frame += "|BY:" + clientID
	}
	s.hub.Publish(frame)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("originserver: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id, signal := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-signal:
			for {
				frame, ok := s.hub.Next(id)
				if !ok {
					break
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					return
				}
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
