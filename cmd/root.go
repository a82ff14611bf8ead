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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alexferroni02/remotefs/internal/cfg"
)

var (
	cfgFile     string
	bindErr     error
	MountConfig cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "remotefs-mount [flags] mount-point",
	Short: "Mount a remote HTTP-served directory tree as a local filesystem",
	Long: `remotefs-mount projects the directory tree served by a remote HTTP
origin server as a locally mounted POSIX filesystem, via a kernel FUSE
driver forwarding VFS calls to this daemon.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}

		mountPoint, err := resolvedPath(args[0])
		if err != nil {
			return fmt.Errorf("canonicalizing mount point: %w", err)
		}

		MountConfig = cfg.Load(cfgFile, nil)
		if MountConfig.ServerURL == "" {
			return fmt.Errorf("server-url is required (flag --server-url or config file)")
		}

		if MountConfig.Daemon && os.Getenv(foregroundEnvVar) == "" {
			return daemonizeAndWait(mountPoint)
		}

		return runMount(mountPoint, MountConfig)
	},
}

// foregroundEnvVar marks a re-exec'd process as already running in the
// foreground, so the daemonized child doesn't try to daemonize itself
// again.
const foregroundEnvVar = "REMOTEFS_FOREGROUND"

// resolvedPath makes p absolute. Canonicalizing matters when daemonizing:
// the daemon changes its working directory before re-running this code.
func resolvedPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	if wd := os.Getenv(parentProcessDirEnvVar); wd != "" {
		return filepath.Join(wd, p), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

// Execute runs the root command, exiting the process with a non-zero
// status on any mount or configuration failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file; flags override its values.")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}
