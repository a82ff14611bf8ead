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
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexferroni02/remotefs/internal/attrcache"
	"github.com/alexferroni02/remotefs/internal/cfg"
	"github.com/alexferroni02/remotefs/internal/clock"
)

func TestNewCache_DispatchesOnStrategy(t *testing.T) {
	clk := clock.RealClock{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	for _, strategy := range []cfg.CacheStrategy{cfg.CacheLRU, cfg.CacheDisabled, cfg.CacheTTL} {
		c := cfg.Default()
		c.CacheStrategy = strategy
		require.NotNil(t, newCache(c, clk, logger))
	}
}

func TestNewCache_UnrecognizedStrategyFallsBackToTTL(t *testing.T) {
	clk := clock.RealClock{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	c := cfg.Default()
	c.CacheStrategy = cfg.CacheStrategy("bogus")
	assert.IsType(t, attrcache.NewTTLCache(time.Second, clk), newCache(c, clk, logger))
}

func TestResolveOwner_DefaultsToCallersIDs(t *testing.T) {
	c := cfg.Default()
	uid, gid := resolveOwner(c)
	assert.Equal(t, uint32(os.Getuid()), uid)
	assert.Equal(t, uint32(os.Getgid()), gid)
}

func TestResolveOwner_HonorsExplicitOverride(t *testing.T) {
	c := cfg.Default()
	c.Uid = 1000
	c.Gid = 1000
	uid, gid := resolveOwner(c)
	assert.Equal(t, uint32(1000), uid)
	assert.Equal(t, uint32(1000), gid)
}
