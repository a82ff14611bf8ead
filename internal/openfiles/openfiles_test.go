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

package openfiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AllocatesMonotonicHandles(t *testing.T) {
	tbl := New()

	a := tbl.Open("a")
	b := tbl.Open("b")

	assert.Equal(t, firstHandleID, a)
	assert.Greater(t, b, a)
}

func TestGet_MissOnUnknownHandle(t *testing.T) {
	tbl := New()

	_, ok := tbl.Get(99)
	assert.False(t, ok)
}

func TestRelease_RemovesHandleFromTable(t *testing.T) {
	tbl := New()

	fh := tbl.Open("a")
	f, ok := tbl.Release(fh)
	require.True(t, ok)
	assert.Equal(t, "a", f.Path)

	_, ok = tbl.Get(fh)
	assert.False(t, ok)
}

func TestOpenWriteFile_EmptyUntilWritten(t *testing.T) {
	f := &OpenWriteFile{Path: "a"}
	assert.True(t, f.Empty())

	f.WriteAt(0, []byte("hi"))
	assert.False(t, f.Empty())
}

func TestAssemble_SimpleOverwriteFromEmpty(t *testing.T) {
	f := &OpenWriteFile{Path: "a"}
	f.WriteAt(0, []byte("hello"))

	got := f.Assemble(nil)
	assert.Equal(t, "hello", string(got))
}

func TestAssemble_ZeroPadsPastCurrentLength(t *testing.T) {
	f := &OpenWriteFile{Path: "a"}
	f.WriteAt(5, []byte("xy"))

	got := f.Assemble(nil)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 'x', 'y'}, got)
}

func TestAssemble_LaterWriteWinsOnOverlap(t *testing.T) {
	f := &OpenWriteFile{Path: "a"}
	f.WriteAt(0, []byte("AAAAA"))
	f.WriteAt(2, []byte("BB"))

	got := f.Assemble(nil)
	assert.Equal(t, "AABBA", string(got))
}

func TestAssemble_DoesNotMutateBase(t *testing.T) {
	f := &OpenWriteFile{Path: "a"}
	f.WriteAt(0, []byte("X"))

	base := []byte("hello")
	got := f.Assemble(base)

	assert.Equal(t, "Xello", string(got))
	assert.Equal(t, "hello", string(base))
}

func TestWriteAt_CopiesInputBytes(t *testing.T) {
	f := &OpenWriteFile{Path: "a"}

	p := []byte("hello")
	f.WriteAt(0, p)
	p[0] = 'X'

	got := f.Assemble(nil)
	assert.Equal(t, "hello", string(got), "later mutation of the caller's slice must not affect the buffered write")
}
