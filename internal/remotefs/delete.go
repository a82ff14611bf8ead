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

package remotefs

import (
	"context"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"

	"github.com/alexferroni02/remotefs/internal/inodetable"
)

// Unlink removes a path. A directory is deleted recursively (list, descend,
// delete children, then the directory itself); anything else is deleted
// directly. The inode table and attribute cache entries for the removed
// path are dropped on success and kept on failure. During a recursive
// delete, each child is dropped locally as soon as its own origin delete
// succeeds, so a failure partway through leaves only the already-deleted
// children forgotten.
func (fs *RemoteFS) Unlink(ctx context.Context, op *fuseops.UnlinkOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, err := fs.childPath(op.Parent, op.Name)
	if err != nil {
		return fuse.ENOENT
	}

	if fs.pathIsDir(ctx, p) {
		if err := fs.deleteDirRecursive(ctx, p); err != nil {
			return mapOriginErr(err)
		}
	} else if err := fs.origin.Delete(ctx, p); err != nil {
		return mapOriginErr(err)
	}

	fs.forgetPath(p)
	if parentIno, ok := fs.inodes.InodeForPath(parentPath(p)); ok {
		fs.cache.Remove(parentIno)
	}
	return nil
}

// pathIsDir reports whether p names a directory, consulting the inode
// table first and falling back to listing its parent, the same fallback
// Rename uses to classify a path it has no inode for yet.
func (fs *RemoteFS) pathIsDir(ctx context.Context, p string) bool {
	if ino, ok := fs.inodes.InodeForPath(p); ok {
		if k, ok := fs.inodes.KindForInode(ino); ok {
			return k == inodetable.KindDir
		}
	}

	entries, err := fs.origin.List(ctx, parentPath(p))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name == baseName(p) {
			return isDirKind(e.Kind)
		}
	}
	return false
}

// deleteDirRecursive lists p, recursively deletes every child, then
// removes p itself once it is empty.
func (fs *RemoteFS) deleteDirRecursive(ctx context.Context, p string) error {
	entries, err := fs.origin.List(ctx, p)
	if err != nil {
		return err
	}

	for _, e := range entries {
		child := joinPath(p, e.Name)
		if isDirKind(e.Kind) {
			if err := fs.deleteDirRecursive(ctx, child); err != nil {
				return err
			}
		} else if err := fs.origin.Delete(ctx, child); err != nil {
			return err
		}
		fs.forgetPath(child)
	}

	return fs.origin.Delete(ctx, p)
}

// RmDir removes a directory after checking it is empty. The emptiness check
// and the delete are not atomic with respect to the origin: a concurrent
// writer could populate the directory between the two calls, in which case
// the origin's own delete semantics (success or failure) win.
func (fs *RemoteFS) RmDir(ctx context.Context, op *fuseops.RmDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, err := fs.childPath(op.Parent, op.Name)
	if err != nil {
		return fuse.ENOENT
	}

	entries, err := fs.origin.List(ctx, p)
	if err != nil {
		return mapOriginErr(err)
	}
	if len(entries) > 0 {
		return fuse.ENOTEMPTY
	}

	if err := fs.origin.Delete(ctx, p); err != nil {
		return mapOriginErr(err)
	}

	fs.forgetPath(p)
	if parentIno, ok := fs.inodes.InodeForPath(parentPath(p)); ok {
		fs.cache.Remove(parentIno)
	}
	return nil
}

// forgetPath drops the inode table and cache entries for p, if any are
// recorded. Must be called with fs.mu held.
func (fs *RemoteFS) forgetPath(p string) {
	ino, ok := fs.inodes.InodeForPath(p)
	if !ok {
		return
	}
	fs.cache.Remove(ino)
	fs.inodes.Delete(ino)
}
