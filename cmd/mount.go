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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacobsa/daemonize"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alexferroni02/remotefs/internal/attrcache"
	"github.com/alexferroni02/remotefs/internal/cfg"
	"github.com/alexferroni02/remotefs/internal/clock"
	"github.com/alexferroni02/remotefs/internal/origin"
	"github.com/alexferroni02/remotefs/internal/remotefs"
	"github.com/alexferroni02/remotefs/internal/watcher"
)

// newLogger builds the process-wide structured logger: JSON to a rotating
// file when LogFile is set, human-readable text to stderr otherwise,
// whether or not the process is daemonized.
func newLogger(c cfg.Config) *slog.Logger {
	if c.LogFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	w := &lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

// newCache builds the attribute cache selected by c.CacheStrategy, falling
// back to the TTL cache on an unrecognized value.
func newCache(c cfg.Config, clk clock.Clock, logger *slog.Logger) attrcache.Cache {
	switch c.CacheStrategy {
	case cfg.CacheLRU:
		return attrcache.NewLRUCache(c.CacheLRUCapacity)
	case cfg.CacheDisabled:
		return attrcache.NewDisabledCache()
	case cfg.CacheTTL:
		return attrcache.NewTTLCache(time.Duration(c.CacheTTLSeconds)*time.Second, clk)
	default:
		logger.Warn("cmd: unrecognized cache-strategy, defaulting to ttl", "value", c.CacheStrategy)
		return attrcache.NewTTLCache(time.Duration(c.CacheTTLSeconds)*time.Second, clk)
	}
}

// runMount builds the full dependency graph — origin client, attribute
// cache, RemoteFS, invalidation watcher — and mounts it at mountPoint,
// blocking until the kernel unmounts it or the process receives SIGINT.
func runMount(mountPoint string, c cfg.Config) error {
	logger := newLogger(c)
	clk := clock.RealClock{}

	timeout := time.Duration(c.RequestTimeoutSeconds * float64(time.Second))
	originClient := origin.New(c.ServerURL, timeout)

	uid, gid := resolveOwner(c)

	fsys := remotefs.New(remotefs.Config{
		Origin:             originClient,
		Cache:              newCache(c, clk, logger),
		Clock:              clk,
		Logger:             logger,
		Uid:                uid,
		Gid:                gid,
		CacheTTL:           time.Duration(c.CacheTTLSeconds) * time.Second,
		KernelAttrTimeout:  time.Duration(c.KernelAttrTimeoutSeconds * float64(time.Second)),
		KernelEntryTimeout: time.Duration(c.KernelEntryTimeoutSeconds * float64(time.Second)),
		RangeReadsEnabled:  c.RangeReadsEnabled,
	})

	if wsURL, err := watcher.URLFromBase(c.ServerURL); err == nil {
		w := watcher.New(wsURL, originClient.ClientID(), clk, logger, func(change watcher.Change) {
			fsys.OnInvalidate(change.Path)
		})
		go w.Run()
		defer w.Stop()
	} else {
		logger.Warn("cmd: could not derive websocket URL, invalidation disabled", "error", err)
	}

	server := fuseutil.NewFileSystemServer(fsys)

	mountCfg := &fuse.MountConfig{
		FSName:     "remotefs",
		Subtype:    "remotefs",
		VolumeName: "remotefs",
	}

	// A daemonized child reports its mount outcome back to the waiting
	// parent (see daemonizeAndWait).
	daemonized := os.Getenv(foregroundEnvVar) != ""

	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		err = fmt.Errorf("mount: %w", err)
		if daemonized {
			_ = daemonize.SignalOutcome(err)
		}
		return err
	}
	if daemonized {
		_ = daemonize.SignalOutcome(nil)
	}

	registerSIGINTHandler(mountPoint)

	if err := mfs.Join(context.Background()); err != nil {
		return fmt.Errorf("MountedFileSystem.Join: %w", err)
	}

	return nil
}

// resolveOwner maps cfg's -1-means-caller convention for Uid/Gid onto the
// process's real UID/GID.
func resolveOwner(c cfg.Config) (uid, gid uint32) {
	uid = uint32(os.Getuid())
	gid = uint32(os.Getgid())
	if c.Uid >= 0 {
		uid = uint32(c.Uid)
	}
	if c.Gid >= 0 {
		gid = uint32(c.Gid)
	}
	return
}

// registerSIGINTHandler lets the user unmount with Ctrl-C.
func registerSIGINTHandler(mountPoint string) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT)

	go func() {
		for range signalChan {
			if err := fuse.Unmount(mountPoint); err != nil {
				fmt.Fprintf(os.Stderr, "Unmount failed: %v\n", err)
			}
		}
	}()
}
