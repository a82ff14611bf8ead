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

// LookUpInode resolves parent/name by listing the parent directory and
// matching by exact name. A listing failure surfaces as ENOENT.
func (fs *RemoteFS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	parentPath, ok := fs.inodes.PathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}

	entries, listErr := fs.origin.List(ctx, parentPath)
	if listErr != nil {
		return fuse.ENOENT
	}

	for _, e := range entries {
		if e.Name != op.Name {
			continue
		}

		kind := inodetable.KindFile
		if isDirKind(e.Kind) {
			kind = inodetable.KindDir
		}

		childPath := joinPath(parentPath, op.Name)
		child := fs.inodes.LookupOrAlloc(childPath, kind)
		fs.inodes.SetKind(child, kind)

		attr, err := fs.attributesForInode(ctx, child)
		if err != nil {
			return err
		}

		op.Entry.Child = child
		op.Entry.Attributes = attr
		op.Entry.AttributesExpiration = fs.clock.Now().Add(fs.kernelAttrTimeout)
		op.Entry.EntryExpiration = fs.clock.Now().Add(fs.kernelEntryTimeout)
		return nil
	}

	return fuse.ENOENT
}

// ForgetInode is a documented no-op: this design's inode table is keyed by
// path for the lifetime of the mount session (inodes are never reused), so
// there is nothing to garbage collect on the kernel's forget notification.
func (fs *RemoteFS) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) (err error) {
	return nil
}
