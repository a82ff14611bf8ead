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
	"syscall"

	"github.com/jacobsa/fuse/fuseops"
)

// The origin protocol has no notion of extended attributes, so the
// entire xattr family is stubbed: enough to stop macOS Finder (which
// probes liberally for resource forks and Finder info) from treating
// every file as an error.

// GetXattr always reports no such attribute.
func (fs *RemoteFS) GetXattr(ctx context.Context, op *fuseops.GetXattrOp) (err error) {
	return syscall.ENODATA
}

// ListXattr reports an empty attribute set.
func (fs *RemoteFS) ListXattr(ctx context.Context, op *fuseops.ListXattrOp) (err error) {
	op.BytesRead = 0
	return nil
}

// SetXattr accepts the write without storing it.
func (fs *RemoteFS) SetXattr(ctx context.Context, op *fuseops.SetXattrOp) (err error) {
	return nil
}

// RemoveXattr succeeds unconditionally; there is nothing to remove.
func (fs *RemoteFS) RemoveXattr(ctx context.Context, op *fuseops.RemoveXattrOp) (err error) {
	return nil
}
