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

package status

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStatusString(t *testing.T) {
	tests := map[FileStatus]string{
		StatusUnknown:  "unknown",
		StatusPending:  "pending",
		StatusCopied:   "copied",
		StatusExists:   "exists",
		StatusConflict: "conflict",
		StatusSkipped:  "skipped",
		StatusIgnored:  "ignored",
		StatusFailed:   "failed",
		FileStatus(99): "unknown",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}

func TestReport(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewReport(start)

	r.Track(Entry{Path: "b.txt", Status: StatusCopied, Size: 10})
	r.Track(Entry{Path: "a.txt", Status: StatusCopied, Size: 5})
	r.Track(Entry{Path: "c.txt", Status: StatusExists, Size: 100})
	r.Track(Entry{Path: "d.txt", Status: StatusFailed, Err: fmt.Errorf("disk full")})

	assert.Equal(t, time.Duration(0), r.Duration(), "unfinished report has no duration")
	r.Finish(start.Add(2 * time.Second))

	assert.Equal(t, 2, r.Count(StatusCopied))
	assert.Equal(t, 1, r.Count(StatusExists))
	assert.Equal(t, 0, r.Count(StatusConflict))
	assert.Equal(t, 4, r.Total())
	assert.Equal(t, int64(15), r.BytesCopied(), "only copied entries count towards bytes")
	assert.Equal(t, 2*time.Second, r.Duration())
	assert.Equal(t, start, r.Start())
	assert.Equal(t, start.Add(2*time.Second), r.End())

	entries := r.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d.txt"},
		[]string{entries[0].Path, entries[1].Path, entries[2].Path, entries[3].Path})

	failed := r.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "d.txt", failed[0].Path)
}

func TestReportConcurrentTrack(t *testing.T) {
	r := NewReport(time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Track(Entry{Path: fmt.Sprintf("f%02d", i), Status: StatusCopied, Size: 2})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Count(StatusCopied))
	assert.Equal(t, int64(100), r.BytesCopied())
}
