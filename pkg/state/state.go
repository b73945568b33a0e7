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

package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// State is the run history kept between invocations
type State struct {
	LastUpdated time.Time `json:"last_updated"`

	// ConfigHash identifies the sources, destination and filters the runs
	// were made with
	ConfigHash string `json:"config_hash"`

	// Runs counts every recorded run, failed ones included
	Runs int `json:"runs"`

	// LastRun is the most recent run, LastSuccess the most recent one that
	// did not fail
	LastRun     *RunState `json:"last_run,omitempty"`
	LastSuccess *RunState `json:"last_success,omitempty"`
}

// RunState summarises one run
type RunState struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Copied    int       `json:"copied"`
	Exists    int       `json:"exists"`
	Conflicts int       `json:"conflicts"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Bytes     int64     `json:"bytes"`
	Error     string    `json:"error,omitempty"`
}

// Duration returns how long the run took
func (r *RunState) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// ConfigHash hashes the parts of cfg that decide which files are copied
func ConfigHash(cfg *config.Config) string {
	h := sha256.New()
	for _, part := range [][]string{cfg.From, {cfg.To}, cfg.Include, cfg.Ignore} {
		h.Write([]byte(strings.Join(part, "\x00")))
		h.Write([]byte{0xff})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// LoadState loads state from path. A missing file is an empty state.
func LoadState(ctx context.Context, path string) (*State, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading state")

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading state file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Errorf("parsing state file %s: %w", path, err)
	}
	return &s, nil
}

// WriteState replaces the state file at path
func WriteState(ctx context.Context, path string, s *State) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("writing state")

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Errorf("creating state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Errorf("creating temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Record adds the outcome of a run. runErr is the error the run ended with,
// if any.
func (s *State) Record(cfg *config.Config, report *status.Report, runErr error) *RunState {
	run := &RunState{
		Start:     report.Start(),
		End:       report.End(),
		Copied:    report.Count(status.StatusCopied),
		Exists:    report.Count(status.StatusExists),
		Conflicts: report.Count(status.StatusConflict),
		Skipped:   report.Count(status.StatusSkipped),
		Failed:    report.Count(status.StatusFailed),
		Bytes:     report.BytesCopied(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	s.Runs++
	s.LastRun = run
	if runErr == nil {
		s.LastSuccess = run
	}
	s.ConfigHash = ConfigHash(cfg)
	s.LastUpdated = run.End
	return run
}

// Matches reports whether the recorded runs were made with cfg
func (s *State) Matches(cfg *config.Config) bool {
	return s.ConfigHash == "" || s.ConfigHash == ConfigHash(cfg)
}

// Update loads the state at path, records a run and writes it back
func Update(ctx context.Context, path string, cfg *config.Config, report *status.Report, runErr error) error {
	s, err := LoadState(ctx, path)
	if err != nil {
		return err
	}
	s.Record(cfg, report, runErr)
	return WriteState(ctx, path, s)
}
