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
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// 🔍 Filter selects files by their slash separated path relative to a root.
//
// A pattern without a slash also matches any single path component, so
// "*.tmp" ignores tmp files everywhere and "node_modules" ignores everything
// below any node_modules directory, like a .gitignore entry would.
type Filter struct {
	Include []string // when non-empty, a file must match one of these
	Ignore  []string // a file must match none of these
}

// Match reports whether rel passes the filter
func (f Filter) Match(rel string) bool {
	if len(f.Include) > 0 && !matchAny(f.Include, rel) {
		return false
	}
	return !matchAny(f.Ignore, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
		if strings.Contains(pattern, "/") {
			continue
		}
		for _, part := range strings.Split(rel, "/") {
			if doublestar.MatchUnvalidated(pattern, part) {
				return true
			}
		}
	}
	return false
}
