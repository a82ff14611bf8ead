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

package cmd

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jacobsa/daemonize"
)

// daemonizeAndWait re-execs the current binary with foregroundEnvVar set in
// its environment, waits for the child to either mount successfully or
// report a failure through the daemonize protocol, and returns accordingly.
// The parent process exits as soon as the child has either mounted or
// failed; it does not wait for the mount to be torn down.
func daemonizeAndWait(mountPoint string) error {
	path, err := os.Executable()
	if err != nil {
		return fmt.Errorf("os.Executable: %w", err)
	}

	args := append([]string{}, os.Args[1:]...)

	env := []string{
		fmt.Sprintf("PATH=%s", os.Getenv("PATH")),
		fmt.Sprintf("%s=1", foregroundEnvVar),
	}
	if home, err := os.UserHomeDir(); err == nil {
		env = append(env, fmt.Sprintf("HOME=%s", home))
	}
	if wd, err := os.Getwd(); err == nil {
		env = append(env, fmt.Sprintf("%s=%s", parentProcessDirEnvVar, wd))
	}

	var logWriter io.Writer = os.Stdout
	if MountConfig.LogFile != "" {
		logWriter = &CrashWriter{fileName: MountConfig.LogFile}
	}

	if err := daemonize.Run(path, args, env, logWriter); err != nil {
		return fmt.Errorf("daemonize.Run: %w", err)
	}

	if err := writePIDFile(mountPoint); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write pid file: %v\n", err)
	}

	fmt.Fprintln(os.Stdout, successfulMountMessage)
	return nil
}

// parentProcessDirEnvVar carries the parent's working directory to the
// re-exec'd child, so relative paths in its arguments still resolve after
// daemonize.Run detaches it from the parent's process group.
const parentProcessDirEnvVar = "REMOTEFS_PARENT_PROCESS_DIR"

const successfulMountMessage = "File system has been successfully mounted."

// writePIDFile records a PID under a name derived from the mount point, so
// an operator can find the right process without guessing. daemonize.Run
// does not hand back the daemonized child's PID, so this records the
// parent's PID, which is accurate until the parent exits after
// daemonize.Run returns; operators on this path are expected to use the
// mount point, not the PID, as the durable identifier.
func writePIDFile(mountPoint string) error {
	sum := sha256.Sum256([]byte(mountPoint))
	name := fmt.Sprintf("remotefs-%x.pid", sum[:8])
	path := filepath.Join(os.TempDir(), name)
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}
