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
	"time"

	"github.com/dustin/go-humanize"
)

// Formatter defines how file outcomes and run reports are rendered
type Formatter interface {
	// FormatFileOperation formats a single file outcome
	FormatFileOperation(e Entry) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatSummary formats the totals of a finished report
	FormatSummary(r *Report) string
}

// DefaultFormatter provides a default implementation of Formatter
type DefaultFormatter struct{}

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatFileOperation formats a file outcome with emojis
func (f *DefaultFormatter) FormatFileOperation(e Entry) string {
	switch e.Status {
	case StatusCopied:
		return fmt.Sprintf("✨ Copied %s (%s)", e.Path, humanize.Bytes(uint64(e.Size)))
	case StatusPending:
		return fmt.Sprintf("⏳ Pending %s (%s)", e.Path, humanize.Bytes(uint64(e.Size)))
	case StatusExists:
		return fmt.Sprintf("👍 Exists %s", e.Path)
	case StatusConflict:
		return fmt.Sprintf("⚔️  Conflict %s from %s", e.Path, e.Source)
	case StatusSkipped:
		return fmt.Sprintf("⏭️  Skipped %s", e.Path)
	case StatusIgnored:
		return fmt.Sprintf("🙈 Ignored %s", e.Path)
	case StatusFailed:
		if e.Err != nil {
			return fmt.Sprintf("❌ Failed %s: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("❌ Failed %s", e.Path)
	default:
		return fmt.Sprintf("❓ Unknown %s", e.Path)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatSummary formats the totals of a report
func (f *DefaultFormatter) FormatSummary(r *Report) string {
	return fmt.Sprintf("copied %d files (%s), %d existing, %d conflicts, %d skipped, %d failed in %s",
		r.Count(StatusCopied),
		humanize.Bytes(uint64(r.BytesCopied())),
		r.Count(StatusExists),
		r.Count(StatusConflict),
		r.Count(StatusSkipped),
		r.Count(StatusFailed),
		r.Duration().Round(time.Millisecond),
	)
}
