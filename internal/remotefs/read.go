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

	"github.com/alexferroni02/remotefs/internal/origin"
)

// OpenFile mints a handle. Read-only opens get handle 0 (reads never
// consult the open-file table); opens that may write get a fresh
// write-back buffer from the handle table, per the design's distinction
// between read path and write-back path.
func (fs *RemoteFS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, ok := fs.inodes.PathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}

	if op.OpenFlags.IsReadOnly() {
		op.Handle = 0
		return nil
	}

	op.Handle = fs.handles.Open(p)
	return nil
}

// ReadFile fetches the file's content — ranged or whole, depending on
// configuration — and copies [Offset, Offset+len(Dst)) into the
// kernel-provided buffer. Reading past EOF yields a short (possibly zero)
// read rather than an error, matching read(2) semantics, in both modes.
// mu is held for the whole call, including the network fetch, so a read in
// flight is still serialised against a concurrent Rename/Unlink/Write on
// the same inode, the same guarantee every other handler provides.
func (fs *RemoteFS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, ok := fs.inodes.PathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}

	if op.Offset < 0 {
		return fuse.EIO
	}

	if fs.rangeReadsEnabled {
		data, err := fs.origin.GetRange(ctx, p, op.Offset, int64(len(op.Dst)))
		var rangeErr *origin.RangeNotSatisfiableError
		if errors.As(err, &rangeErr) {
			op.BytesRead = 0
			return nil
		}
		if err != nil {
			return mapOriginErr(err)
		}
		op.BytesRead = copy(op.Dst, data)
		return nil
	}

	data, err := fs.origin.GetFull(ctx, p)
	if err != nil {
		return mapOriginErr(err)
	}

	if op.Offset >= int64(len(data)) {
		op.BytesRead = 0
		return nil
	}

	op.BytesRead = copy(op.Dst, data[op.Offset:])
	return nil
}
