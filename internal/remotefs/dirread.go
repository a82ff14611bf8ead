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
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/alexferroni02/remotefs/internal/inodetable"
)

// OpenDir allocates a directory handle bound to the inode. No content is
// read at this point; listings are fetched lazily by ReadDir.
func (fs *RemoteFS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.inodes.PathForInode(op.Inode); !ok {
		return fuse.ENOENT
	}

	h := fs.nextDirHandle
	fs.nextDirHandle++
	fs.dirHandles[h] = op.Inode
	op.Handle = h

	return nil
}

// ReadDir emits "." and ".." at offset 0, then one entry per child of the
// directory's current server-side listing. The kernel may stop collection
// mid-buffer, at which point the next call resumes at the offset it left
// off.
func (fs *RemoteFS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ino, ok := fs.dirHandles[op.Handle]
	if !ok {
		return fuse.EBADF
	}

	dirents, err := fs.directoryEntries(ctx, ino)
	if err != nil {
		return err
	}

	if int(op.Offset) >= len(dirents) {
		return nil
	}

	for _, d := range dirents[op.Offset:] {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], d)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}

	return nil
}

// ReleaseDirHandle removes the handle from the table.
func (fs *RemoteFS) ReleaseDirHandle(ctx context.Context, op *fuseops.ReleaseDirHandleOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.dirHandles, op.Handle)
	return nil
}

// directoryEntries builds the full ".", "..", then-children sequence for
// ino, allocating or reusing an inode for each child via LookupOrAlloc.
func (fs *RemoteFS) directoryEntries(ctx context.Context, ino fuseops.InodeID) ([]fuseutil.Dirent, error) {
	selfPath, ok := fs.inodes.PathForInode(ino)
	if !ok {
		return nil, fuse.ENOENT
	}

	parentIno := inodetable.RootInodeID
	if ino != inodetable.RootInodeID {
		if p, ok := fs.inodes.InodeForPath(parentPath(selfPath)); ok {
			parentIno = p
		}
	}

	dirents := []fuseutil.Dirent{
		{Offset: 1, Inode: ino, Name: ".", Type: fuseutil.DT_Directory},
		{Offset: 2, Inode: parentIno, Name: "..", Type: fuseutil.DT_Directory},
	}

	entries, err := fs.origin.List(ctx, selfPath)
	if err != nil {
		return nil, mapOriginErr(err)
	}

	for i, e := range entries {
		kind := inodetable.KindFile
		typ := fuseutil.DT_File
		if isDirKind(e.Kind) {
			kind = inodetable.KindDir
			typ = fuseutil.DT_Directory
		}

		childPath := joinPath(selfPath, e.Name)
		child := fs.inodes.LookupOrAlloc(childPath, kind)
		fs.inodes.SetKind(child, kind)

		dirents = append(dirents, fuseutil.Dirent{
			Offset: fuseops.DirOffset(3 + i),
			Inode:  child,
			Name:   e.Name,
			Type:   typ,
		})
	}

	return dirents, nil
}
