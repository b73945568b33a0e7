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

// Package testutils builds filesystem fixtures for tests.
package testutils

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// TreeShape controls the size of a generated tree
type TreeShape struct {
	Depth       int   // Number of directory levels
	FilesPerDir int   // Files written in every visited directory
	DirsPerDir  int   // Sub directories created in every visited directory
	Seed        int64 // Picks which sub directories get populated
}

// DefaultShape is small enough for unit tests and still has empty directories
var DefaultShape = TreeShape{Depth: 4, FilesPerDir: 5, DirsPerDir: 4, Seed: 42}

// GenerateTree writes a random tree below root and returns the slash
// separated relative paths of the files it created, sorted. Roughly half of
// the created directories are left empty.
func GenerateTree(t testing.TB, root string, shape TreeShape) []string {
	t.Helper()

	rng := rand.New(rand.NewSource(shape.Seed))

	var files []string
	dirs := []string{""}
	for level := 0; level < shape.Depth; level++ {
		var next []string
		for _, dir := range dirs {
			for j := 0; j < shape.FilesPerDir; j++ {
				rel := path.Join(dir, fmt.Sprintf("test_%d_%d.txt", level, j))
				WriteFile(t, root, rel, fmt.Sprintf("test file for %d_%d", level, j))
				files = append(files, rel)
			}
			for j := 0; j < shape.DirsPerDir; j++ {
				rel := path.Join(dir, fmt.Sprintf("test_dir_%d_%d", level, j))
				require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0755), "creating dir")
				if rng.Intn(2) == 0 {
					next = append(next, rel)
				}
			}
		}
		if len(next) == 0 {
			next = append(next, dirs[rng.Intn(len(dirs))])
		}
		dirs = next
	}

	sort.Strings(files)
	return files
}

// WriteFile writes content to the slash separated rel path below root,
// creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755), "creating parent dir")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644), "writing file")
	return p
}

// ReadFile reads the slash separated rel path below root
func ReadFile(t testing.TB, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err, "reading file")
	return string(data)
}

// ListFiles returns the sorted relative paths of regular files below root
func ListFiles(t testing.TB, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err, "listing files")
	sort.Strings(files)
	return files
}

// Context returns a context carrying a zerolog logger that writes to t
func Context(t testing.TB) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.TraceLevel).WithContext(context.Background())
}
