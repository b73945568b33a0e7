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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/cronsync/pkg/testutils"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRootCopiesOnce(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "created")
	files := testutils.GenerateTree(t, src, testutils.DefaultShape)

	_, _, err := execute(t, context.Background(), "-f", src, "-t", dst, "-p", "3")
	require.NoError(t, err)

	assert.Equal(t, files, testutils.ListFiles(t, dst))
}

func TestRootConfigFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	other := t.TempDir()
	testutils.WriteFile(t, src, "keep.txt", "k")
	testutils.WriteFile(t, src, "skip.log", "s")

	configPath := testutils.WriteFile(t, t.TempDir(), "cronsync.yaml", `
from:
  - `+src+`
to: `+dst+`
ignore:
  - "*.log"
`)

	_, _, err := execute(t, context.Background(), "--config", configPath, "-t", other)
	require.NoError(t, err)

	assert.Empty(t, testutils.ListFiles(t, dst), "the to flag overrides the file")
	assert.Equal(t, []string{"keep.txt"}, testutils.ListFiles(t, other))
}

func TestRootExplicitFlagsOverrideConfigFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.WriteFile(t, src, "a.txt", "a")

	configPath := testutils.WriteFile(t, t.TempDir(), "cronsync.yaml", `
from:
  - `+src+`
to: `+dst+`
cron_expr: "0 0 1 1 *"
dry_run: true
parallel_threads: 4
`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stdout, _, err := execute(t, ctx, "--config", configPath, "--cron-expr", "", "--dry-run=false", "-p", "0")
	require.NoError(t, err, "an empty cron expression copies once and returns")

	assert.Equal(t, []string{"a.txt"}, testutils.ListFiles(t, dst), "an explicit false turns dry run off")
	assert.NotContains(t, stdout, "waiting")
}

func TestRootValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"no_from", []string{"-t", dir}, "at least one from path is required"},
		{"no_to", []string{"-f", dir}, "to path is required"},
		{"too_verbose", []string{"-f", dir, "-t", dir, "-vvvvv"}, "invalid verbose level: 4 < 5"},
		{"bad_cron", []string{"-f", dir, "-t", dir, "-c", "not a cron"}, "cron"},
		{"duplicated", []string{"-f", dir, "-f", dir, "-t", t.TempDir()}, "duplicated paths"},
		{"missing_from", []string{"-f", filepath.Join(dir, "missing"), "-t", dir}, "does not exist"},
		{"missing_config", []string{"--config", filepath.Join(dir, "missing.yaml")}, "loading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, context.Background(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestRootDryRun(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "never")
	testutils.WriteFile(t, src, "a.txt", "a")

	_, _, err := execute(t, context.Background(), "-f", src, "-t", dst, "--dry-run")
	require.NoError(t, err)

	assert.NoDirExists(t, dst, "dry run must not create the destination")
}

func TestRootDestinationIsAFile(t *testing.T) {
	src := t.TempDir()
	testutils.WriteFile(t, src, "a.txt", "a")
	dir := t.TempDir()
	dst := testutils.WriteFile(t, dir, "dest", "keep")

	tests := []struct {
		name string
		args []string
	}{
		{"copy", []string{"-f", src, "-t", dst}},
		{"dry_run", []string{"-f", src, "-t", dst, "--dry-run"}},
		{"plan", []string{"plan", "-f", src, "-t", dst}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, context.Background(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "is not a directory")
			assert.Equal(t, "keep", testutils.ReadFile(t, dir, "dest"))
		})
	}
}

func TestRootScheduled(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.WriteFile(t, src, "a.txt", "a")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stdout, _, err := execute(t, ctx, "-f", src, "-t", dst, "-c", "* * * * * *", "--max-runs", "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, testutils.ListFiles(t, dst))
	assert.Contains(t, stdout, "waiting")
}

func TestRootInterrupted(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	stdout, _, err := execute(t, ctx, "-f", src, "-t", dst, "-c", "0 0 1 1 *")
	require.NoError(t, err, "an interrupt is a clean stop")
	assert.Contains(t, stdout, "interrupted")
}

func TestPlanCommand(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.WriteFile(t, src, "new.txt", "n")
	testutils.WriteFile(t, src, "old.txt", "o")
	testutils.WriteFile(t, dst, "old.txt", "o")

	stdout, _, err := execute(t, context.Background(), "plan", "-f", src, "-t", dst)
	require.NoError(t, err)

	assert.Contains(t, stdout, "new.txt")
	assert.NotContains(t, stdout, "old.txt")
	assert.Contains(t, stdout, "1 files to copy")
	assert.Equal(t, []string{"old.txt"}, testutils.ListFiles(t, dst), "plan must not copy")

	stdout, _, err = execute(t, context.Background(), "plan", "--all", "-f", src, "-t", dst)
	require.NoError(t, err)
	assert.Contains(t, stdout, "old.txt")
}

func TestStatusCommand(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	stateFile := filepath.Join(t.TempDir(), "state.json")
	testutils.WriteFile(t, src, "a.txt", "a")

	stdout, _, err := execute(t, context.Background(), "status", "-f", src, "-t", dst, "--state-file", stateFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "no runs recorded yet")

	_, _, err = execute(t, context.Background(), "-f", src, "-t", dst, "--state-file", stateFile)
	require.NoError(t, err)
	assert.FileExists(t, stateFile)

	stdout, _, err = execute(t, context.Background(), "status", "-f", src, "-t", dst, "--state-file", stateFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 runs recorded")
	assert.NotContains(t, stdout, "different configuration")

	stdout, _, err = execute(t, context.Background(), "status", "-f", src, "-t", t.TempDir(), "--state-file", stateFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "different configuration")

	stdout, _, err = execute(t, context.Background(), "status", "--state-file", stateFile)
	require.NoError(t, err, "status does not need the copy paths")
	assert.Contains(t, stdout, "1 runs recorded")
	assert.NotContains(t, stdout, "different configuration")

	_, _, err = execute(t, context.Background(), "status", "-f", src, "-t", dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no state file configured")

	_, _, err = execute(t, context.Background(), "status", "--state-file", stateFile, "-vvvvv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid verbose level")

	_, _, err = execute(t, context.Background(), "status", "-f", src, "--state-file", stateFile)
	require.Error(t, err, "partial paths are still validated")
	assert.Contains(t, err.Error(), "to path is required")
}

func TestNextCommand(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "next", "-n", "3", "@hourly")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		ts, err := time.Parse(time.RFC3339, line)
		require.NoError(t, err, "parsing %q", line)
		assert.Zero(t, ts.Minute())
	}

	_, _, err = execute(t, context.Background(), "next", "bogus")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cronsync version info")

	stdout, _, err = execute(t, context.Background(), "version", "--json")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.NotEmpty(t, info["go_version"])
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	require.NotNil(t, cmd, "command should not be nil")
	assert.Equal(t, "cronsync", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	for _, name := range []string{"from", "to", "verbose", "parallel-threads", "cron-expr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
}
