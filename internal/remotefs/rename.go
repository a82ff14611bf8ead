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
	"errors"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"

	"github.com/alexferroni02/remotefs/internal/inodetable"
	"github.com/alexferroni02/remotefs/internal/origin"
)

// Rename moves a file or directory. Files are moved with a GET/PUT/DELETE
// sequence; directories are moved by recreating the tree at the
// destination and deleting it at the source, recursively. Neither case is
// atomic on the origin: a crash partway through can leave both the source
// and destination partially populated.
func (fs *RemoteFS) Rename(ctx context.Context, op *fuseops.RenameOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	oldPath, err := fs.childPath(op.OldParent, op.OldName)
	if err != nil {
		return fuse.ENOENT
	}
	newPath, err := fs.childPath(op.NewParent, op.NewName)
	if err != nil {
		return fuse.ENOENT
	}

	kind := inodetable.KindFile
	if ino, ok := fs.inodes.InodeForPath(oldPath); ok {
		if k, ok := fs.inodes.KindForInode(ino); ok {
			kind = k
		}
	} else {
		entries, listErr := fs.origin.List(ctx, parentPath(oldPath))
		if listErr == nil {
			for _, e := range entries {
				if e.Name == baseName(oldPath) && isDirKind(e.Kind) {
					kind = inodetable.KindDir
				}
			}
		}
	}

	if kind == inodetable.KindDir {
		if err := fs.renameDir(ctx, oldPath, newPath); err != nil {
			return mapOriginErr(err)
		}
	} else {
		if err := fs.renameFile(ctx, oldPath, newPath); err != nil {
			return mapOriginErr(err)
		}
	}

	if ino, ok := fs.inodes.InodeForPath(oldPath); ok {
		fs.inodes.Rename(ino, newPath)
		fs.cache.Remove(ino)
	}
	if oldParentIno, ok := fs.inodes.InodeForPath(parentPath(oldPath)); ok {
		fs.cache.Remove(oldParentIno)
	}
	if newParentIno, ok := fs.inodes.InodeForPath(parentPath(newPath)); ok {
		fs.cache.Remove(newParentIno)
	}

	return nil
}

// renameFile implements the file move: fetch the content at the source,
// write it at the destination, then remove the source.
func (fs *RemoteFS) renameFile(ctx context.Context, oldPath, newPath string) error {
	data, err := fs.origin.GetFull(ctx, oldPath)
	if err != nil {
		var notFound *origin.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		data = nil
	}

	if err := fs.origin.Put(ctx, newPath, data); err != nil {
		return err
	}

	return fs.origin.Delete(ctx, oldPath)
}

// renameDir implements the directory move: create the destination
// directory, recursively move every child into it, then remove the
// now-empty source directory.
func (fs *RemoteFS) renameDir(ctx context.Context, oldPath, newPath string) error {
	if err := fs.origin.Mkdir(ctx, newPath); err != nil {
		return err
	}

	entries, err := fs.origin.List(ctx, oldPath)
	if err != nil {
		return err
	}

	for _, e := range entries {
		childOld := joinPath(oldPath, e.Name)
		childNew := joinPath(newPath, e.Name)
		if isDirKind(e.Kind) {
			if err := fs.renameDir(ctx, childOld, childNew); err != nil {
				return err
			}
		} else {
			if err := fs.renameFile(ctx, childOld, childNew); err != nil {
				return err
			}
		}
	}

	return fs.origin.Delete(ctx, oldPath)
}
