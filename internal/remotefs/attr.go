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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"

	"github.com/alexferroni02/remotefs/internal/inodetable"
	"github.com/alexferroni02/remotefs/internal/origin"
)

// isDirKind reports whether an origin-reported kind string denotes a
// directory, accepting "directory" or "dir" case-insensitively.
func isDirKind(kind string) bool {
	k := strings.ToLower(kind)
	return k == "directory" || k == "dir"
}

// parsePerm parses an octal permission string, falling back to 0755 for
// directories or 0644 for files on any parse error or empty input.
func parsePerm(s string, isDir bool) os.FileMode {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		if isDir {
			return 0755
		}
		return 0644
	}
	return os.FileMode(v & 0777)
}

// attrFromEntry derives a FileAttr-equivalent InodeAttributes from a
// RemoteEntry as reported by the origin's directory listing. Block count
// (ceil(size/512), per the design's derivation) has no corresponding field
// on fuseops.InodeAttributes: the kernel derives st_blocks from Size itself,
// so there is nothing further to populate here.
func attrFromEntry(e origin.Entry) fuseops.InodeAttributes {
	isDir := isDirKind(e.Kind)
	perm := parsePerm(e.Perm, isDir)
	mtime := time.Unix(e.Mtime, 0)

	mode := perm
	nlink := uint64(fileNlink)
	if isDir {
		mode |= os.ModeDir
		nlink = dirNlink
	}

	return fuseops.InodeAttributes{
		Size:   uint64(e.Size),
		Nlink:  nlink,
		Mode:   mode,
		Atime:  mtime,
		Mtime:  mtime,
		Ctime:  mtime,
		Crtime: time.Unix(0, 0),
		Uid:    0, // overwritten by the caller with the configured uid/gid
		Gid:    0,
	}
}

// rootAttributes returns the static attributes for inode 1.
func (fs *RemoteFS) rootAttributes() fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:   dirSize,
		Nlink:  dirNlink,
		Mode:   os.ModeDir | 0755,
		Atime:  time.Unix(0, 0),
		Mtime:  time.Unix(0, 0),
		Ctime:  time.Unix(0, 0),
		Crtime: time.Unix(0, 0),
		Uid:    fs.uid,
		Gid:    fs.gid,
	}
}

// attributesForInode implements the attribute pipeline (§4.4a): root is
// static, a cache hit short-circuits, and a miss resolves via a listing of
// the inode's parent directory. Must be called with fs.mu held.
func (fs *RemoteFS) attributesForInode(ctx context.Context, ino fuseops.InodeID) (fuseops.InodeAttributes, error) {
	if ino == inodetable.RootInodeID {
		return fs.rootAttributes(), nil
	}

	if attr, ok := fs.cache.Get(ino); ok {
		return attr, nil
	}

	p, ok := fs.inodes.PathForInode(ino)
	if !ok {
		return fuseops.InodeAttributes{}, fuse.ENOENT
	}

	parent := parentPath(p)
	base := baseName(p)

	entries, err := fs.origin.List(ctx, parent)
	if err != nil {
		return fuseops.InodeAttributes{}, mapOriginErr(err)
	}

	for _, e := range entries {
		if e.Name != base {
			continue
		}

		attr := attrFromEntry(e)
		attr.Uid = fs.uid
		attr.Gid = fs.gid

		kind := inodetable.KindFile
		if isDirKind(e.Kind) {
			kind = inodetable.KindDir
		}
		fs.inodes.SetKind(ino, kind)

		fs.cache.Put(ino, attr, fs.cacheTTL)
		return attr, nil
	}

	return fuseops.InodeAttributes{}, fuse.ENOENT
}

// GetInodeAttributes implements the getattr half of the attribute
// pipeline.
func (fs *RemoteFS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	attr, err := fs.attributesForInode(ctx, op.Inode)
	if err != nil {
		return err
	}

	op.Attributes = attr
	op.AttributesExpiration = fs.clock.Now().Add(fs.kernelAttrTimeout)
	return nil
}

// SetInodeAttributes implements setattr: mode and size are supported;
// other fields are silently accepted without effect.
func (fs *RemoteFS) SetInodeAttributes(ctx context.Context, op *fuseops.SetInodeAttributesOp) (err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, ok := fs.inodes.PathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}

	if op.Mode != nil {
		if err := fs.origin.Chmod(ctx, p, uint32(*op.Mode&0777)); err != nil {
			return mapOriginErr(err)
		}
	}

	if op.Size != nil {
		if err := fs.resizeInPlace(ctx, p, int64(*op.Size)); err != nil {
			return mapOriginErr(err)
		}
	}

	if ino, ok := fs.inodes.InodeForPath(p); ok {
		fs.cache.Remove(ino)
	}

	attr, err := fs.attributesForInode(ctx, op.Inode)
	if err != nil {
		return err
	}

	op.Attributes = attr
	op.AttributesExpiration = fs.clock.Now().Add(fs.kernelAttrTimeout)
	return nil
}

// resizeInPlace implements the GET/resize/PUT sequence setattr{size} uses
// to truncate or zero-extend a file's content.
func (fs *RemoteFS) resizeInPlace(ctx context.Context, p string, size int64) error {
	data, err := fs.origin.GetFull(ctx, p)
	if err != nil {
		var notFound *origin.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		data = nil
	}

	resized := make([]byte, size)
	copy(resized, data)

	return fs.origin.Put(ctx, p, resized)
}
