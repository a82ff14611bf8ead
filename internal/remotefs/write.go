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
	"syscall"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/alexferroni02/remotefs/internal/origin"
)

// WriteFile buffers the write in the handle's in-memory block list; nothing
// reaches the origin until ReleaseFileHandle.
func (fs *RemoteFS) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.handles.Get(op.Handle)
	if !ok {
		return syscall.EBADF
	}

	f.WriteAt(op.Offset, op.Data)
	return nil
}

// FlushFile is a no-op: writes are only made durable at release, not at
// flush, so there is nothing further to do here (see ReleaseFileHandle).
func (fs *RemoteFS) FlushFile(ctx context.Context, op *fuseops.FlushFileOp) (err error) {
	return nil
}

// SyncFile is a no-op for the same reason as FlushFile.
func (fs *RemoteFS) SyncFile(ctx context.Context, op *fuseops.SyncFileOp) (err error) {
	return nil
}

// ReleaseFileHandle uploads the buffered write-back content, if any, by
// fetching the current origin content, overlaying the buffered blocks, and
// PUTting the result whole. A handle that was opened read-only or never
// written to is simply dropped.
func (fs *RemoteFS) ReleaseFileHandle(ctx context.Context, op *fuseops.ReleaseFileHandleOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.handles.Get(op.Handle)
	if !ok {
		return nil
	}
	defer fs.handles.Release(op.Handle)

	if f.Empty() {
		return nil
	}

	base, err := fs.origin.GetFull(ctx, f.Path)
	if err != nil {
		var notFound *origin.NotFoundError
		if !errors.As(err, &notFound) {
			return mapOriginErr(err)
		}
		base = nil
	}

	merged := f.Assemble(base)
	if err := fs.origin.Put(ctx, f.Path, merged); err != nil {
		return mapOriginErr(err)
	}

	if ino, ok := fs.inodes.InodeForPath(f.Path); ok {
		fs.cache.Remove(ino)
	}
	return nil
}
