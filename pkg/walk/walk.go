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

package walk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📄 Entry is a regular file found under a root
type Entry struct {
	Rel  string      // Slash separated path relative to Tree.Dir
	Size int64       // Size in bytes
	Mode fs.FileMode // Permission bits
}

// 🌳 Tree holds the regular files found under a root
type Tree struct {
	Root    string   // Root as given
	Dir     string   // Directory the entries are relative to
	Entries []Entry  // Sorted by Rel
	Ignored []string // Files rejected by the filter, sorted
}

// Path returns the filesystem path of e
func (t *Tree) Path(e Entry) string {
	return filepath.Join(t.Dir, filepath.FromSlash(e.Rel))
}

// Size returns the total size of all entries
func (t *Tree) Size() int64 {
	var total int64
	for _, e := range t.Entries {
		total += e.Size
	}
	return total
}

// Rels returns the set of relative paths in the tree
func (t *Tree) Rels() map[string]struct{} {
	set := make(map[string]struct{}, len(t.Entries))
	for _, e := range t.Entries {
		set[e.Rel] = struct{}{}
	}
	return set
}

// 🚶 Walk collects every regular file below root that passes filter.
// Symlinks are neither followed nor returned. Any I/O error fails the walk.
// When root is itself a regular file the tree holds just that file,
// relative to its parent directory.
func Walk(ctx context.Context, root string, filter Filter) (*Tree, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", root, err)
	}

	if info.Mode().IsRegular() {
		tree := &Tree{Root: root, Dir: filepath.Dir(root)}
		name := filepath.Base(root)
		if filter.Match(name) {
			tree.Entries = append(tree.Entries, Entry{Rel: name, Size: info.Size(), Mode: info.Mode().Perm()})
		} else {
			tree.Ignored = append(tree.Ignored, name)
		}
		return tree, nil
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is neither a regular file nor a directory", root)
	}

	tree := &Tree{Root: root, Dir: root}
	err = doublestar.GlobWalk(os.DirFS(root), "**", func(rel string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !filter.Match(rel) {
			logger.Trace().Str("root", root).Str("file", rel).Msg("file filtered out")
			tree.Ignored = append(tree.Ignored, rel)
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return errors.Errorf("reading %s: %w", rel, err)
		}
		tree.Entries = append(tree.Entries, Entry{Rel: rel, Size: fi.Size(), Mode: fi.Mode().Perm()})
		return nil
	}, doublestar.WithFailOnIOErrors(), doublestar.WithNoFollow())
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	sort.Slice(tree.Entries, func(i, j int) bool {
		return tree.Entries[i].Rel < tree.Entries[j].Rel
	})
	sort.Strings(tree.Ignored)

	logger.Trace().Str("root", root).Int("files", len(tree.Entries)).Msg("walked tree")
	return tree, nil
}

// 🌲 WalkAll walks roots concurrently, at most limit at a time (limit <= 0
// means no limit). A root that fails to walk is logged and left out; the
// returned trees keep the order of roots. Only cancellation of ctx is
// returned as an error.
func WalkAll(ctx context.Context, roots []string, filter Filter, limit int) ([]*Tree, error) {
	logger := zerolog.Ctx(ctx)

	trees := make([]*Tree, len(roots))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			tree, err := Walk(ctx, root, filter)
			if err != nil {
				logger.Warn().Err(err).Str("path", root).Msg("failed to walk path")
				return nil
			}
			trees[i] = tree
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("walking sources: %w", err)
	}

	out := make([]*Tree, 0, len(trees))
	for _, tree := range trees {
		if tree != nil {
			out = append(out, tree)
		}
	}
	return out, nil
}
