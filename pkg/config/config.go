// Copyright 2025 walteh LLC
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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/cronsync/pkg/schedule"
	"gitlab.com/tozd/go/errors"
)

// MaxVerbose is the highest accepted verbosity level (trace).
const MaxVerbose = 4

// 📚 Config represents the complete configuration of a sync run
type Config struct {
	From            []string `json:"from" yaml:"from" hcl:"from,optional"`                              // Source roots
	To              string   `json:"to" yaml:"to" hcl:"to,optional"`                                    // Destination root
	Verbose         int      `json:"verbose,omitempty" yaml:"verbose,omitempty" hcl:"verbose,optional"` // 0 error .. 4 trace
	ParallelThreads int      `json:"parallel_threads,omitempty" yaml:"parallel_threads,omitempty" hcl:"parallel_threads,optional"`
	CronExpr        string   `json:"cron_expr,omitempty" yaml:"cron_expr,omitempty" hcl:"cron_expr,optional"`
	Include         []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"` // Globs a file must match
	Ignore          []string `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`    // Globs a file must not match
	SkipMissed      bool     `json:"skip_missed,omitempty" yaml:"skip_missed,omitempty" hcl:"skip_missed,optional"`
	MaxRuns         int      `json:"max_runs,omitempty" yaml:"max_runs,omitempty" hcl:"max_runs,optional"`
	DryRun          bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	Progress        bool     `json:"progress,omitempty" yaml:"progress,omitempty" hcl:"progress,optional"`
	StateFile       string   `json:"state_file,omitempty" yaml:"state_file,omitempty" hcl:"state_file,optional"` // Run history, optional

	location string
}

// Location returns the file the config was loaded from, if any.
func (cfg *Config) Location() string {
	return cfg.location
}

// Threads returns the size of the copy worker pool.
func (cfg *Config) Threads() int {
	if cfg.ParallelThreads > 0 {
		return cfg.ParallelThreads
	}
	return runtime.NumCPU()
}

// Scheduled reports whether the copy runs on a cron schedule.
func (cfg *Config) Scheduled() bool {
	return strings.TrimSpace(cfg.CronExpr) != ""
}

// 🎛️ Override copies the fields of other named by keys into cfg, zero values
// included. Keys are the config file names, e.g. "parallel_threads".
func (cfg *Config) Override(other *Config, keys ...string) {
	if other == nil {
		return
	}
	for _, key := range keys {
		switch key {
		case "from":
			cfg.From = other.From
		case "to":
			cfg.To = other.To
		case "verbose":
			cfg.Verbose = other.Verbose
		case "parallel_threads":
			cfg.ParallelThreads = other.ParallelThreads
		case "cron_expr":
			cfg.CronExpr = other.CronExpr
		case "include":
			cfg.Include = other.Include
		case "ignore":
			cfg.Ignore = other.Ignore
		case "skip_missed":
			cfg.SkipMissed = other.SkipMissed
		case "max_runs":
			cfg.MaxRuns = other.MaxRuns
		case "dry_run":
			cfg.DryRun = other.DryRun
		case "progress":
			cfg.Progress = other.Progress
		case "state_file":
			cfg.StateFile = other.StateFile
		}
	}
}

// 🔍 Validate checks the configuration without touching the filesystem.
// Paths are cleaned in place.
func Validate(ctx context.Context, cfg *Config) error {
	if err := ValidateVerbose(cfg); err != nil {
		return err
	}
	if len(cfg.From) == 0 {
		return errors.New("at least one from path is required")
	}
	if strings.TrimSpace(cfg.To) == "" {
		return errors.New("to path is required")
	}
	if cfg.ParallelThreads < 0 {
		return errors.Errorf("parallel threads must be positive, got %d", cfg.ParallelThreads)
	}
	if cfg.MaxRuns < 0 {
		return errors.Errorf("max runs must not be negative, got %d", cfg.MaxRuns)
	}

	seen := make(map[string]struct{}, len(cfg.From))
	for i, p := range cfg.From {
		if strings.TrimSpace(p) == "" {
			return errors.New("from path must not be empty")
		}
		cleaned := filepath.Clean(p)
		if _, ok := seen[cleaned]; ok {
			return errors.Errorf("duplicated paths: %v", cfg.From)
		}
		seen[cleaned] = struct{}{}
		cfg.From[i] = cleaned
	}
	cfg.To = filepath.Clean(cfg.To)

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid glob pattern %q", pattern)
		}
	}

	if cfg.Scheduled() {
		if _, err := schedule.Parse(cfg.CronExpr); err != nil {
			return errors.Errorf("parsing cron expression: %w", err)
		}
	}

	zerolog.Ctx(ctx).Trace().Str("config", cfg.String()).Msg("config validated")
	return nil
}

// ValidateVerbose checks the verbose level alone, for commands that do not
// copy anything.
func ValidateVerbose(cfg *Config) error {
	if cfg.Verbose < 0 || cfg.Verbose > MaxVerbose {
		return errors.Errorf("invalid verbose level: %d < %d", MaxVerbose, cfg.Verbose)
	}
	return nil
}

// HasPaths reports whether any from or to path is configured
func (cfg *Config) HasPaths() bool {
	return len(cfg.From) > 0 || strings.TrimSpace(cfg.To) != ""
}

// 🔎 Check verifies, without changing anything, that every from path exists
// and that the destination is either missing or a directory.
func Check(ctx context.Context, cfg *Config) error {
	for _, p := range cfg.From {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return errors.Errorf("path %s does not exist", p)
			}
			return errors.Errorf("checking path %s: %w", p, err)
		}
	}

	info, err := os.Stat(cfg.To)
	switch {
	case os.IsNotExist(err):
		zerolog.Ctx(ctx).Debug().Str("path", cfg.To).Msg("to path does not exist yet")
	case err != nil:
		return errors.Errorf("checking to path %s: %w", cfg.To, err)
	case !info.IsDir():
		return errors.Errorf("%s is not a directory, please create a directory", cfg.To)
	}
	return nil
}

// 📁 Prepare runs Check and then creates the destination directory when it
// is missing.
func Prepare(ctx context.Context, cfg *Config) error {
	if err := Check(ctx, cfg); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.To); os.IsNotExist(err) {
		zerolog.Ctx(ctx).Info().Str("path", cfg.To).Msg("creating to target path")
		if err := os.MkdirAll(cfg.To, 0755); err != nil {
			return errors.Errorf("creating to path: %w", err)
		}
	}
	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	s := fmt.Sprintf("%s -> %s", strings.Join(cfg.From, ","), cfg.To)
	if cfg.Scheduled() {
		s += " @ " + cfg.CronExpr
	}
	return s
}
