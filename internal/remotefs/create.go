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
	"os"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"

	"github.com/alexferroni02/remotefs/internal/inodetable"
)

// CreateFile creates an empty file on the origin and opens it for writing
// in the same step, matching the O_CREAT open(2) path.
func (fs *RemoteFS) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, err := fs.childPath(op.Parent, op.Name)
	if err != nil {
		return fuse.ENOENT
	}

	if err := fs.origin.Put(ctx, p, nil); err != nil {
		return mapOriginErr(err)
	}

	child := fs.inodes.LookupOrAlloc(p, inodetable.KindFile)

	now := fs.clock.Now()
	attr := fuseops.InodeAttributes{
		Size:   0,
		Nlink:  fileNlink,
		Mode:   op.Mode & 0777,
		Atime:  now,
		Mtime:  now,
		Ctime:  now,
		Crtime: now,
		Uid:    fs.uid,
		Gid:    fs.gid,
	}
	fs.cache.Put(child, attr, fs.cacheTTL)

	if parentIno, ok := fs.inodes.InodeForPath(parentPath(p)); ok {
		fs.cache.Remove(parentIno)
	}

	op.Entry.Child = child
	op.Entry.Attributes = attr
	op.Entry.AttributesExpiration = now.Add(fs.kernelAttrTimeout)
	op.Entry.EntryExpiration = now.Add(fs.kernelEntryTimeout)
	op.Handle = fs.handles.Open(p)

	return nil
}

// MkDir creates a directory on the origin.
func (fs *RemoteFS) MkDir(ctx context.Context, op *fuseops.MkDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, err := fs.childPath(op.Parent, op.Name)
	if err != nil {
		return fuse.ENOENT
	}

	if err := fs.origin.Mkdir(ctx, p); err != nil {
		return mapOriginErr(err)
	}

	child := fs.inodes.LookupOrAlloc(p, inodetable.KindDir)

	now := fs.clock.Now()
	attr := fuseops.InodeAttributes{
		Size:   dirSize,
		Nlink:  dirNlink,
		Mode:   os.ModeDir | (op.Mode & 0777),
		Atime:  now,
		Mtime:  now,
		Ctime:  now,
		Crtime: now,
		Uid:    fs.uid,
		Gid:    fs.gid,
	}
	fs.cache.Put(child, attr, fs.cacheTTL)

	if parentIno, ok := fs.inodes.InodeForPath(parentPath(p)); ok {
		fs.cache.Remove(parentIno)
	}

	op.Entry.Child = child
	op.Entry.Attributes = attr
	op.Entry.AttributesExpiration = now.Add(fs.kernelAttrTimeout)
	op.Entry.EntryExpiration = now.Add(fs.kernelEntryTimeout)

	return nil
}
