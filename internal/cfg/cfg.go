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

// Package cfg defines remotefs-mount's configuration surface: a plain
// struct loaded from an optional YAML file and overlaid with CLI flags via
// viper, where flags always win over the file.
package cfg

import (
	"log/slog"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CacheStrategy selects the attribute cache's eviction policy.
type CacheStrategy string

const (
	CacheTTL      CacheStrategy = "ttl"
	CacheLRU      CacheStrategy = "lru"
	CacheDisabled CacheStrategy = "disabled"
)

// Config is the complete set of knobs for a mount. Each field's
// mapstructure tag names the YAML key and flag it is loaded from.
type Config struct {
	ServerURL string `mapstructure:"server-url" yaml:"server-url"`

	CacheStrategy    CacheStrategy `mapstructure:"cache-strategy" yaml:"cache-strategy"`
	CacheTTLSeconds  int           `mapstructure:"cache-ttl-seconds" yaml:"cache-ttl-seconds"`
	CacheLRUCapacity int           `mapstructure:"cache-lru-capacity" yaml:"cache-lru-capacity"`

	KernelAttrTimeoutSeconds  float64 `mapstructure:"kernel-attr-timeout-seconds" yaml:"kernel-attr-timeout-seconds"`
	KernelEntryTimeoutSeconds float64 `mapstructure:"kernel-entry-timeout-seconds" yaml:"kernel-entry-timeout-seconds"`
	RequestTimeoutSeconds     float64 `mapstructure:"request-timeout-seconds" yaml:"request-timeout-seconds"`

	RangeReadsEnabled bool `mapstructure:"range-reads-enabled" yaml:"range-reads-enabled"`

	Daemon bool `mapstructure:"daemon" yaml:"daemon"`

	Uid int `mapstructure:"uid" yaml:"uid"`
	Gid int `mapstructure:"gid" yaml:"gid"`

	LogFile string `mapstructure:"log-file" yaml:"log-file"`
}

// Default returns the configuration used when no file and no flags
// override a given field.
func Default() Config {
	return Config{
		CacheStrategy:             CacheTTL,
		CacheTTLSeconds:           1,
		CacheLRUCapacity:          4096,
		KernelAttrTimeoutSeconds:  1,
		KernelEntryTimeoutSeconds: 1,
		RequestTimeoutSeconds:     30,
		RangeReadsEnabled:         false,
		Uid:                       -1,
		Gid:                       -1,
	}
}

// BindFlags registers remotefs-mount's flags on flagSet and binds each to
// its viper key, so that a later viper.Unmarshal sees flag values override
// any value loaded from a config file — flags are bound before the file is
// read, and viper's precedence order already favors an explicitly set flag.
func BindFlags(flagSet *pflag.FlagSet) error {
	d := Default()

	flagSet.String("server-url", "", "Base URL of the origin HTTP server.")
	if err := viper.BindPFlag("server-url", flagSet.Lookup("server-url")); err != nil {
		return err
	}

	flagSet.String("cache-strategy", string(d.CacheStrategy), "Attribute cache strategy: ttl, lru, or disabled.")
	if err := viper.BindPFlag("cache-strategy", flagSet.Lookup("cache-strategy")); err != nil {
		return err
	}

	flagSet.Int("cache-ttl-seconds", d.CacheTTLSeconds, "Attribute cache TTL in seconds, for the ttl strategy.")
	if err := viper.BindPFlag("cache-ttl-seconds", flagSet.Lookup("cache-ttl-seconds")); err != nil {
		return err
	}

	flagSet.Int("cache-lru-capacity", d.CacheLRUCapacity, "Attribute cache entry capacity, for the lru strategy.")
	if err := viper.BindPFlag("cache-lru-capacity", flagSet.Lookup("cache-lru-capacity")); err != nil {
		return err
	}

	flagSet.Float64("kernel-attr-timeout-seconds", d.KernelAttrTimeoutSeconds, "How long the kernel may cache attributes.")
	if err := viper.BindPFlag("kernel-attr-timeout-seconds", flagSet.Lookup("kernel-attr-timeout-seconds")); err != nil {
		return err
	}

	flagSet.Float64("kernel-entry-timeout-seconds", d.KernelEntryTimeoutSeconds, "How long the kernel may cache directory entries.")
	if err := viper.BindPFlag("kernel-entry-timeout-seconds", flagSet.Lookup("kernel-entry-timeout-seconds")); err != nil {
		return err
	}

	flagSet.Float64("request-timeout-seconds", d.RequestTimeoutSeconds, "Per-request timeout for origin HTTP calls.")
	if err := viper.BindPFlag("request-timeout-seconds", flagSet.Lookup("request-timeout-seconds")); err != nil {
		return err
	}

	flagSet.Bool("range-reads-enabled", d.RangeReadsEnabled, "Use ranged GETs for partial reads instead of fetching whole files.")
	if err := viper.BindPFlag("range-reads-enabled", flagSet.Lookup("range-reads-enabled")); err != nil {
		return err
	}

	flagSet.Bool("daemon", false, "Detach and run as a background daemon.")
	if err := viper.BindPFlag("daemon", flagSet.Lookup("daemon")); err != nil {
		return err
	}

	flagSet.Int("uid", d.Uid, "UID to report as owner of every inode; -1 uses the caller's UID.")
	if err := viper.BindPFlag("uid", flagSet.Lookup("uid")); err != nil {
		return err
	}

	flagSet.Int("gid", d.Gid, "GID to report as owner of every inode; -1 uses the caller's GID.")
	if err := viper.BindPFlag("gid", flagSet.Lookup("gid")); err != nil {
		return err
	}

	flagSet.String("log-file", "", "Path to write daemon logs to; defaults to stderr in the foreground.")
	return viper.BindPFlag("log-file", flagSet.Lookup("log-file"))
}

// Load reads an optional YAML config file at configPath (if non-empty) and
// overlays viper's bound flags on top, returning the merged configuration.
// Per spec policy, a malformed config file never aborts the mount: Load
// logs a warning and falls back to defaults for anything it could not
// parse.
func Load(configPath string, logger *slog.Logger) Config {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := Default()

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			logger.Warn("cfg: failed to read config file, using defaults and flags only", "path", configPath, "error", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Warn("cfg: failed to unmarshal configuration, falling back to defaults", "error", err)
		return Default()
	}

	return cfg
}

// ParsePerm parses a base-8 permission string, for callers outside viper's
// decode path (e.g. tests).
func ParsePerm(s string) (int64, error) {
	return strconv.ParseInt(s, 8, 32)
}
