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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/status"
	"github.com/walteh/cronsync/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// 📄 Item maps one source file to its target
type Item struct {
	Rel    string            // Slash separated path relative to both roots
	Source string            // Absolute source path
	Target string            // Absolute target path
	Size   int64             // Source size in bytes
	Mode   fs.FileMode       // Source permission bits
	Status status.FileStatus // Pending, Exists, Conflict or Ignored
}

// 🗺️ Plan lists what a copy would do
type Plan struct {
	From  []string // Resolved source roots
	To    string   // Resolved destination
	Items []Item   // In source root order, then path order
}

// Pending returns the items that will be copied
func (p *Plan) Pending() []Item {
	var out []Item
	for _, item := range p.Items {
		if item.Status == status.StatusPending {
			out = append(out, item)
		}
	}
	return out
}

// Count returns the number of items with status s
func (p *Plan) Count(s status.FileStatus) int {
	n := 0
	for _, item := range p.Items {
		if item.Status == s {
			n++
		}
	}
	return n
}

// Size returns the total size of the items with status s
func (p *Plan) Size(s status.FileStatus) int64 {
	var total int64
	for _, item := range p.Items {
		if item.Status == s {
			total += item.Size
		}
	}
	return total
}

// Report returns a report holding every planned item with its planned status
func (p *Plan) Report() *status.Report {
	report := status.NewReport(timeNow())
	for _, item := range p.Items {
		report.Track(item.entry(item.Status, nil))
	}
	report.Finish(timeNow())
	return report
}

func (item Item) entry(s status.FileStatus, err error) status.Entry {
	return status.Entry{
		Path:   item.Rel,
		Source: item.Source,
		Status: s,
		Size:   item.Size,
		Err:    err,
	}
}

// 🧭 BuildPlan walks the source roots and the destination and decides, for
// every source file, whether it needs copying.
//
// A target that already exists is never copied over. When several roots
// hold the same relative path, the first root listed wins and the others are
// marked as conflicts.
func BuildPlan(ctx context.Context, cfg *config.Config) (*Plan, error) {
	logger := zerolog.Ctx(ctx)

	plan := &Plan{}
	seen := map[string]struct{}{}
	for _, p := range cfg.From {
		resolved, err := resolve(p)
		if err != nil {
			return nil, errors.Errorf("resolving from path %s: %w", p, err)
		}
		if _, ok := seen[resolved]; ok {
			logger.Debug().Str("path", p).Str("resolved", resolved).Msg("skipping from path resolving to an earlier one")
			continue
		}
		seen[resolved] = struct{}{}
		plan.From = append(plan.From, resolved)
	}

	to, err := resolve(cfg.To)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Errorf("resolving to path %s: %w", cfg.To, err)
	}
	plan.To = to

	logger.Trace().Strs("from", plan.From).Str("to", plan.To).Msg("try copy")

	filter := walk.Filter{Include: cfg.Include, Ignore: cfg.Ignore}
	trees, err := walk.WalkAll(ctx, plan.From, filter, cfg.Threads())
	if err != nil {
		return nil, err
	}

	var found, ignored int
	var foundSize int64
	for _, tree := range trees {
		found += len(tree.Entries)
		ignored += len(tree.Ignored)
		foundSize += tree.Size()
	}
	logger.Info().
		Int("items", found).
		Int("ignored", ignored).
		Strs("from", plan.From).
		Str("size", humanize.Bytes(uint64(foundSize))).
		Msg("found items in from")

	if info, err := os.Stat(plan.To); err == nil && !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", plan.To)
	}

	existing := map[string]struct{}{}
	dest, err := walk.Walk(ctx, plan.To, walk.Filter{})
	switch {
	case err == nil:
		existing = dest.Rels()
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug().Str("to", plan.To).Msg("to path does not exist yet")
	default:
		return nil, errors.Errorf("walking to path: %w", err)
	}
	logger.Debug().Int("items", len(existing)).Str("to", plan.To).Msg("found items in to")

	claimed := map[string]struct{}{}
	for _, tree := range trees {
		for _, e := range tree.Entries {
			source := tree.Path(e)
			if within(source, plan.To) {
				logger.Trace().Str("source", source).Msg("skipping source inside to path")
				continue
			}

			item := Item{
				Rel:    e.Rel,
				Source: source,
				Target: filepath.Join(plan.To, filepath.FromSlash(e.Rel)),
				Size:   e.Size,
				Mode:   e.Mode,
			}

			_, exists := existing[e.Rel]
			_, taken := claimed[e.Rel]
			switch {
			case exists:
				item.Status = status.StatusExists
			case taken:
				item.Status = status.StatusConflict
				logger.Warn().Str("file", e.Rel).Str("source", source).Msg("file provided by an earlier from path, skipping")
			default:
				item.Status = status.StatusPending
				claimed[e.Rel] = struct{}{}
			}
			plan.Items = append(plan.Items, item)
		}
		for _, rel := range tree.Ignored {
			source := filepath.Join(tree.Dir, filepath.FromSlash(rel))
			if within(source, plan.To) {
				continue
			}
			plan.Items = append(plan.Items, Item{
				Rel:    rel,
				Source: source,
				Target: filepath.Join(plan.To, filepath.FromSlash(rel)),
				Status: status.StatusIgnored,
			})
		}
	}

	logger.Info().
		Int("items", plan.Count(status.StatusPending)).
		Str("size", humanize.Bytes(uint64(plan.Size(status.StatusPending)))).
		Strs("from", plan.From).
		Str("to", plan.To).
		Msg("trying parallel copy")

	return plan, nil
}

// resolve returns the absolute, symlink free form of p. A missing path is
// returned in absolute form together with an fs.ErrNotExist error.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Errorf("making path absolute: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if _, statErr := os.Lstat(abs); os.IsNotExist(statErr) {
			return abs, errors.Errorf("%s: %w", abs, fs.ErrNotExist)
		}
		return "", errors.Errorf("evaluating symlinks: %w", err)
	}
	return real, nil
}

// within reports whether p is dir or lies below it
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
