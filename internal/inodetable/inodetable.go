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

// Package inodetable holds the bidirectional path/inode bijection and the
// per-inode kind map that back the daemon's view of the remote tree. Every
// access is expected to happen under the caller's dispatcher mutex; this
// package does no locking of its own.
package inodetable

import (
	"github.com/jacobsa/fuse/fuseops"
)

// RootInodeID is the fixed inode number of the mount root. Its path is the
// empty string.
const RootInodeID = fuseops.InodeID(1)

// Kind distinguishes a regular file from a directory.
type Kind int

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDir is a directory.
	KindDir
)

// Table is the path<->inode bijection plus the kind of each inode. The
// zero value is not usable; construct with New.
type Table struct {
	pathToInode map[string]fuseops.InodeID
	inodeToPath map[fuseops.InodeID]string
	inodeToKind map[fuseops.InodeID]Kind
	nextInode   fuseops.InodeID
}

// New returns a Table with the root entry (inode 1, path "") seeded.
func New() *Table {
	t := &Table{
		pathToInode: make(map[string]fuseops.InodeID),
		inodeToPath: make(map[fuseops.InodeID]string),
		inodeToKind: make(map[fuseops.InodeID]Kind),
		nextInode:   RootInodeID + 1,
	}

	t.pathToInode[""] = RootInodeID
	t.inodeToPath[RootInodeID] = ""
	t.inodeToKind[RootInodeID] = KindDir

	return t
}

// LookupOrAlloc returns the inode already bound to path, allocating a new
// one (and recording kind) if path hasn't been observed before.
func (t *Table) LookupOrAlloc(path string, kind Kind) fuseops.InodeID {
	if ino, ok := t.pathToInode[path]; ok {
		return ino
	}

	ino := t.nextInode
	t.nextInode++

	t.pathToInode[path] = ino
	t.inodeToPath[ino] = path
	t.inodeToKind[ino] = kind

	return ino
}

// InodeForPath returns the inode bound to path, if any.
func (t *Table) InodeForPath(path string) (fuseops.InodeID, bool) {
	ino, ok := t.pathToInode[path]
	return ino, ok
}

// PathForInode returns the path bound to ino, if any.
func (t *Table) PathForInode(ino fuseops.InodeID) (string, bool) {
	p, ok := t.inodeToPath[ino]
	return p, ok
}

// KindForInode returns the kind recorded for ino, if any.
func (t *Table) KindForInode(ino fuseops.InodeID) (Kind, bool) {
	k, ok := t.inodeToKind[ino]
	return k, ok
}

// SetKind overwrites the recorded kind for ino. Used when a lookup
// discovers an inode's kind after allocation (e.g. via readdir listing).
func (t *Table) SetKind(ino fuseops.InodeID, kind Kind) {
	t.inodeToKind[ino] = kind
}

// Delete removes ino from all three maps. A no-op if ino is unknown.
func (t *Table) Delete(ino fuseops.InodeID) {
	path, ok := t.inodeToPath[ino]
	if !ok {
		return
	}

	delete(t.inodeToPath, ino)
	delete(t.inodeToKind, ino)
	delete(t.pathToInode, path)
}

// Rename reassigns ino from its current path to newPath. The caller is
// responsible for the attribute-cache invalidation side effects this
// implies (see the operation handlers).
func (t *Table) Rename(ino fuseops.InodeID, newPath string) {
	oldPath, ok := t.inodeToPath[ino]
	if ok {
		delete(t.pathToInode, oldPath)
	}

	t.inodeToPath[ino] = newPath
	t.pathToInode[newPath] = ino
}
