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
	"sort"
	"sync"
	"time"
)

// 📊 FileStatus represents what happened to a source file during a run
type FileStatus int

const (
	StatusUnknown  FileStatus = iota
	StatusPending             // Target missing, will be copied
	StatusCopied              // Target created by this run
	StatusExists              // Target already existed, left alone
	StatusConflict            // Another source root already provides this target
	StatusSkipped             // Target appeared between planning and copying
	StatusIgnored             // Excluded by include/ignore patterns
	StatusFailed              // Copy failed
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCopied:
		return "copied"
	case StatusExists:
		return "exists"
	case StatusConflict:
		return "conflict"
	case StatusSkipped:
		return "skipped"
	case StatusIgnored:
		return "ignored"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📄 Entry records the outcome for one file
type Entry struct {
	Path   string     // Target path relative to the destination
	Source string     // Absolute source path
	Status FileStatus // Outcome
	Size   int64      // File size in bytes
	Err    error      // Set when Status is StatusFailed
}

// 📈 Report tallies the outcome of a run. It is safe for concurrent use.
type Report struct {
	mu      sync.Mutex
	start   time.Time
	end     time.Time
	entries []Entry
	counts  map[FileStatus]int
	bytes   int64
}

// 🏭 NewReport creates a report started at start
func NewReport(start time.Time) *Report {
	return &Report{
		start:  start,
		counts: make(map[FileStatus]int),
	}
}

// Track records an entry. Copied entries add their size to the copied bytes.
func (r *Report) Track(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	r.counts[e.Status]++
	if e.Status == StatusCopied {
		r.bytes += e.Size
	}
}

// Finish marks the end of the run
func (r *Report) Finish(end time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end = end
}

// Start returns when the run started
func (r *Report) Start() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start
}

// End returns when the run finished, or the zero time if unfinished
func (r *Report) End() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.end
}

// Count returns the number of entries with status s
func (r *Report) Count(s FileStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[s]
}

// Total returns the number of tracked entries
func (r *Report) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// BytesCopied returns the number of bytes written to the destination
func (r *Report) BytesCopied() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytes
}

// Duration returns the time between start and Finish, or zero if unfinished
func (r *Report) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.end.IsZero() {
		return 0
	}
	return r.end.Sub(r.start)
}

// Entries returns a copy of the entries sorted by path
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Failed returns the failed entries
func (r *Report) Failed() []Entry {
	var failed []Entry
	for _, e := range r.Entries() {
		if e.Status == StatusFailed {
			failed = append(failed, e)
		}
	}
	return failed
}
