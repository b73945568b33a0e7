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

package operation

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/walteh/cronsync/pkg/log"
	"github.com/walteh/cronsync/pkg/status"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var timeNow = time.Now

// 📦 Copier copies the pending items of a plan on a bounded worker pool
type Copier struct {
	threads  int
	progress io.Writer

	// Formatter renders the per file progress log lines
	Formatter status.Formatter
}

// 🏭 NewCopier creates a copier running at most threads copies at once.
// When progress is non-nil a byte progress bar is drawn on it.
func NewCopier(threads int, progress io.Writer) *Copier {
	if threads < 1 {
		threads = 1
	}
	return &Copier{threads: threads, progress: progress, Formatter: status.NewDefaultFormatter()}
}

// 🚀 Copy executes plan. Items that are not pending are recorded in the
// report as they are. The first failing copy cancels the remaining ones and
// its error is returned together with the partial report.
func (c *Copier) Copy(ctx context.Context, plan *Plan) (*status.Report, error) {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	report := status.NewReport(timeNow())
	defer func() { report.Finish(timeNow()) }()

	for _, item := range plan.Items {
		if item.Status != status.StatusPending {
			report.Track(item.entry(item.Status, nil))
		}
	}

	pending := plan.Pending()
	bar := c.newBar(plan.Size(status.StatusPending))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.threads)
	for _, item := range pending {
		item := item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			st, err := copyItem(gctx, item)
			report.Track(item.entry(st, err))
			console.LogFileOperation(gctx, log.FileOperation{
				Source:    item.Source,
				Target:    item.Rel,
				Status:    st.String(),
				Size:      item.Size,
				IsNew:     st == status.StatusCopied,
				IsSkipped: st == status.StatusSkipped,
				IsFailed:  st == status.StatusFailed,
			})
			if bar != nil {
				_ = bar.Add64(item.Size)
			}
			logger.Debug().Msg(c.Formatter.FormatProgress(int(done.Add(1)), len(pending)))
			if err != nil {
				return errors.Errorf("copying %s: %w", item.Source, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		logger.Error().Err(err).Msg("copy failed")
		return report, err
	}
	return report, nil
}

func (c *Copier) newBar(total int64) *progressbar.ProgressBar {
	if c.progress == nil || total <= 0 {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription("copying"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// copyItem copies a single pending item, leaving any target that appeared
// since planning untouched
func copyItem(ctx context.Context, item Item) (status.FileStatus, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Lstat(item.Target); err == nil {
		logger.Warn().Str("file", item.Target).Msg("skipped existing file")
		return status.StatusSkipped, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return status.StatusFailed, errors.Errorf("checking target: %w", err)
	}

	parent := filepath.Dir(item.Target)
	if _, err := os.Stat(parent); errors.Is(err, fs.ErrNotExist) {
		logger.Debug().Str("dir", parent).Msg("creating target directories")
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return status.StatusFailed, errors.Errorf("creating target directories: %w", err)
		}
	}

	logger.Trace().Msgf("copying from %s to %s", item.Source, item.Target)
	if _, err := copyFile(ctx, item.Source, item.Target, item.Mode); err != nil {
		if errors.Is(err, fs.ErrExist) {
			logger.Warn().Str("file", item.Target).Msg("skipped existing file")
			return status.StatusSkipped, nil
		}
		return status.StatusFailed, err
	}
	return status.StatusCopied, nil
}
