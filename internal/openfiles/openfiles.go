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

// Package openfiles holds the write-back buffer table keyed by file handle.
// Each entry accumulates the offset/byte blocks a client has written since
// open, to be assembled into a single origin PUT at release. Like
// inodetable, this package expects the caller to serialize access under its
// own mutex.
package openfiles

import (
	"github.com/jacobsa/fuse/fuseops"
)

// firstHandleID is the first file handle ever allocated; 0 is reserved to
// mean "no handle" (the reply for a read-only open).
const firstHandleID = fuseops.HandleID(1)

// block is a byte range written at a given offset, captured as of the
// moment of the write call.
type block struct {
	offset int64
	data   []byte
}

// OpenWriteFile is the per-handle write-back buffer: the path the handle
// was opened against, plus every block written to it so far, in the order
// they arrived.
type OpenWriteFile struct {
	Path   string
	blocks []block
}

// WriteAt records a copy of p at offset off. Overlapping writes are
// permitted; later writes win at assembly time (see Assemble).
func (f *OpenWriteFile) WriteAt(off int64, p []byte) {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.blocks = append(f.blocks, block{offset: off, data: cp})
}

// Empty reports whether any bytes have been written to this handle.
func (f *OpenWriteFile) Empty() bool {
	return len(f.blocks) == 0
}

// Assemble overlays every recorded block onto base, growing it with zero
// bytes as needed, and returns the resulting content. base is not mutated.
func (f *OpenWriteFile) Assemble(base []byte) []byte {
	out := make([]byte, len(base))
	copy(out, base)

	// Blocks are applied in arrival order; a later write's bytes win over an
	// earlier write's bytes wherever both touch the same range.
	for _, b := range f.blocks {
		end := b.offset + int64(len(b.data))
		if end > int64(len(out)) {
			grown := make([]byte, end)
			copy(grown, out)
			out = grown
		}
		copy(out[b.offset:end], b.data)
	}

	return out
}

// Table maps file handles to OpenWriteFile buffers, with a monotonic
// allocator.
type Table struct {
	files  map[fuseops.HandleID]*OpenWriteFile
	nextFH fuseops.HandleID
}

// New returns an empty handle table.
func New() *Table {
	return &Table{
		files:  make(map[fuseops.HandleID]*OpenWriteFile),
		nextFH: firstHandleID,
	}
}

// Open allocates a new handle bound to an empty write-back buffer for path
// and returns it.
func (t *Table) Open(path string) fuseops.HandleID {
	fh := t.nextFH
	t.nextFH++

	t.files[fh] = &OpenWriteFile{Path: path}

	return fh
}

// Get returns the buffer for fh, if any.
func (t *Table) Get(fh fuseops.HandleID) (*OpenWriteFile, bool) {
	f, ok := t.files[fh]
	return f, ok
}

// Release removes fh from the table and returns its buffer, if it existed.
func (t *Table) Release(fh fuseops.HandleID) (*OpenWriteFile, bool) {
	f, ok := t.files[fh]
	delete(t.files, fh)
	return f, ok
}
