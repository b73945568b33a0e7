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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/status"
	"github.com/walteh/cronsync/pkg/testutils"
	"gitlab.com/tozd/go/errors"
)

func finishedReport(copied int, size int64) *status.Report {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := status.NewReport(start)
	for i := 0; i < copied; i++ {
		r.Track(status.Entry{Path: "f", Status: status.StatusCopied, Size: size})
	}
	r.Track(status.Entry{Path: "e", Status: status.StatusExists})
	r.Finish(start.Add(time.Second))
	return r
}

func TestLoadMissingState(t *testing.T) {
	ctx := testutils.Context(t)

	s, err := LoadState(ctx, filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err, "a missing state file is an empty state")
	assert.Zero(t, s.Runs)
	assert.Nil(t, s.LastRun)
}

func TestLoadAndSave(t *testing.T) {
	ctx := testutils.Context(t)
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	cfg := &config.Config{From: []string{"a"}, To: "b"}

	require.NoError(t, Update(ctx, path, cfg, finishedReport(2, 10), nil))
	require.NoError(t, Update(ctx, path, cfg, finishedReport(1, 5), errors.New("disk full")))

	s, err := LoadState(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Runs)
	require.NotNil(t, s.LastRun)
	assert.Equal(t, 1, s.LastRun.Copied)
	assert.Equal(t, "disk full", s.LastRun.Error)
	require.NotNil(t, s.LastSuccess)
	assert.Equal(t, 2, s.LastSuccess.Copied)
	assert.Equal(t, int64(20), s.LastSuccess.Bytes)
	assert.Equal(t, 1, s.LastSuccess.Exists)
	assert.Equal(t, time.Second, s.LastSuccess.Duration())
	assert.True(t, s.Matches(cfg))
	assert.Equal(t, s.LastRun.End, s.LastUpdated)

	assert.Equal(t, []string{"state.json"}, testutils.ListFiles(t, filepath.Dir(path)), "no temporary files left")
}

func TestLoadCorruptState(t *testing.T) {
	ctx := testutils.Context(t)
	path := testutils.WriteFile(t, t.TempDir(), "state.json", "{not json")

	_, err := LoadState(ctx, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing state file")
}

func TestConfigHash(t *testing.T) {
	base := &config.Config{From: []string{"a", "b"}, To: "c"}

	assert.Equal(t, ConfigHash(base), ConfigHash(&config.Config{From: []string{"a", "b"}, To: "c", Verbose: 3}),
		"verbosity does not change which files are copied")
	assert.NotEqual(t, ConfigHash(base), ConfigHash(&config.Config{From: []string{"ab"}, To: "c"}))
	assert.NotEqual(t, ConfigHash(base), ConfigHash(&config.Config{From: []string{"a", "b"}, To: "c", Ignore: []string{"*.log"}}))

	s := &State{}
	assert.True(t, s.Matches(base), "an empty state matches anything")
	s.ConfigHash = ConfigHash(base)
	assert.False(t, s.Matches(&config.Config{From: []string{"x"}, To: "c"}))
}
