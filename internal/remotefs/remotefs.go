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

// Package remotefs implements the FUSE<->HTTP translation layer: a
// fuseutil.FileSystem that projects a remote origin server's directory tree
// as a local POSIX filesystem, backed by an inode table, an attribute
// cache, and a write-back buffer.
package remotefs

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/syncutil"

	"github.com/alexferroni02/remotefs/internal/attrcache"
	"github.com/alexferroni02/remotefs/internal/clock"
	"github.com/alexferroni02/remotefs/internal/inodetable"
	"github.com/alexferroni02/remotefs/internal/openfiles"
	"github.com/alexferroni02/remotefs/internal/origin"
)

// dirSize/dirNlink/fileNlink are the synthetic constants used for
// directories and files created locally (mkdir, create) before the origin
// has a chance to report anything different.
const (
	dirSize   = 4096
	dirNlink  = 2
	fileNlink = 1
)

// Config bundles the construction-time parameters for a RemoteFS.
type Config struct {
	Origin *origin.Client
	Cache  attrcache.Cache
	Clock  clock.Clock
	Logger *slog.Logger

	// Uid/Gid are synthesised into every FileAttr; the origin protocol has
	// no notion of ownership.
	Uid uint32
	Gid uint32

	// CacheTTL is passed to Cache.Put for entries populated by the
	// attribute pipeline; ignored by non-TTL cache variants.
	CacheTTL time.Duration

	// KernelAttrTimeout/KernelEntryTimeout are echoed back to the kernel
	// on GetInodeAttributes/LookUpInode replies as the cache-until time.
	KernelAttrTimeout  time.Duration
	KernelEntryTimeout time.Duration

	// RangeReadsEnabled selects ranged GETs for partial reads; when false,
	// read() always fetches the whole file and slices locally.
	RangeReadsEnabled bool
}

// RemoteFS is the daemon's FUSE entry point. All exported methods satisfy
// fuseutil.FileSystem (one file per operation family in this package) and
// acquire mu before touching any
// in-memory state, per the single dispatcher-mutex design.
type RemoteFS struct {
	fuseutil.NotImplementedFileSystem

	origin *origin.Client
	clock  clock.Clock
	logger *slog.Logger

	uid uint32
	gid uint32

	cacheTTL           time.Duration
	kernelAttrTimeout  time.Duration
	kernelEntryTimeout time.Duration
	rangeReadsEnabled  bool

	// mu guards everything below. Suspension only happens at the boundary
	// where the origin client issues a network request; see the design's
	// concurrency notes. When syncutil's invariant checking is enabled it
	// runs checkInvariants on every lock and unlock; nothing in this
	// repository enables it, so by default no check runs.
	mu syncutil.InvariantMutex

	inodes  *inodetable.Table
	cache   attrcache.Cache
	handles *openfiles.Table

	// dirHandles tracks open directory handles, a FUSE-level concept
	// distinct from the design's write-back open-file table: it has no
	// buffer, just the inode being iterated.
	dirHandles    map[fuseops.HandleID]fuseops.InodeID
	nextDirHandle fuseops.HandleID
}

// New constructs a RemoteFS ready to be wrapped by
// fuseutil.NewFileSystemServer.
func New(cfg Config) *RemoteFS {
	fs := &RemoteFS{
		origin:             cfg.Origin,
		clock:              cfg.Clock,
		logger:             cfg.Logger,
		uid:                cfg.Uid,
		gid:                cfg.Gid,
		cacheTTL:           cfg.CacheTTL,
		kernelAttrTimeout:  cfg.KernelAttrTimeout,
		kernelEntryTimeout: cfg.KernelEntryTimeout,
		rangeReadsEnabled:  cfg.RangeReadsEnabled,
		inodes:             inodetable.New(),
		cache:              cfg.Cache,
		handles:            openfiles.New(),
		dirHandles:         make(map[fuseops.HandleID]fuseops.InodeID),
		nextDirHandle:      1,
	}
	fs.mu = syncutil.NewInvariantMutex(fs.checkInvariants)
	return fs
}

// checkInvariants panics if the root inode is missing from the inode table.
// The other data-model invariants (path/inode bijection, handle paths,
// cache contents) are not checked here. It is invoked by mu's invariant
// checking, which is off unless syncutil's invariant checking is enabled.
func (fs *RemoteFS) checkInvariants() {
	if _, ok := fs.inodes.PathForInode(inodetable.RootInodeID); !ok {
		panic("remotefs: root inode missing from inode table")
	}
}

// Init is a no-op; the design has no per-mount negotiation beyond what the
// fuse package itself handles.
func (fs *RemoteFS) Init(ctx context.Context, op *fuseops.InitOp) (err error) {
	return nil
}

// OnInvalidate is called by the invalidation watcher (on its own
// goroutine) when a remote CHANGE notification survives echo suppression.
// It acquires the dispatcher mutex itself, matching the design's statement
// that watcher-driven invalidation is applied under the same lock as every
// handler.
func (fs *RemoteFS) OnInvalidate(changedPath string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if ino, ok := fs.inodes.InodeForPath(changedPath); ok {
		fs.cache.Remove(ino)
	}
	if parentIno, ok := fs.inodes.InodeForPath(parentPath(changedPath)); ok {
		fs.cache.Remove(parentIno)
	}
}

// parentPath and baseName split a server-relative path the way the origin
// client and inode table expect: no leading slash, "" denotes the root.
func parentPath(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func baseName(p string) string {
	return path.Base(p)
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// childPath resolves the path of a named child of the directory bound to
// parentIno. Returns an error if parentIno is unknown.
func (fs *RemoteFS) childPath(parentIno fuseops.InodeID, name string) (string, error) {
	parentPath, ok := fs.inodes.PathForInode(parentIno)
	if !ok {
		return "", fmt.Errorf("remotefs: unknown parent inode %d", parentIno)
	}
	return joinPath(parentPath, name), nil
}
