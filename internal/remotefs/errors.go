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
	"errors"

	"github.com/jacobsa/fuse"

	"github.com/alexferroni02/remotefs/internal/origin"
)

// mapOriginErr translates an origin client error into the POSIX errno the
// design assigns it: ENOENT for any flavor of not-found, EIO for anything
// else (no retries, no partial-failure rollback).
func mapOriginErr(err error) error {
	if err == nil {
		return nil
	}

	var notFound *origin.NotFoundError
	if errors.As(err, &notFound) {
		return fuse.ENOENT
	}

	return fuse.EIO
}
