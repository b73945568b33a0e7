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

	"gitlab.com/tozd/go/errors"
)

// copyFile writes the content of src to a temporary file next to dst and
// then links it into place, so dst is either missing or complete. An existing
// dst is never replaced; an error matching fs.ErrExist is returned instead.
func copyFile(ctx context.Context, src, dst string, mode fs.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, errors.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, &contextReader{ctx: ctx, r: in})
	if err != nil {
		tmp.Close()
		return 0, errors.Errorf("copying content: %w", err)
	}
	if mode == 0 {
		mode = 0o644
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return 0, errors.Errorf("setting file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.Errorf("closing temporary file: %w", err)
	}

	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, errors.Errorf("linking into place: %w", err)
		}
		// no hard links on this filesystem
		if _, statErr := os.Lstat(dst); statErr == nil {
			return 0, errors.Errorf("%s: %w", dst, fs.ErrExist)
		}
		if err := os.Rename(tmpName, dst); err != nil {
			return 0, errors.Errorf("renaming into place: %w", err)
		}
	}
	return n, nil
}

// contextReader stops reading once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
