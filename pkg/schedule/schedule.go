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

package schedule

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gitlab.com/tozd/go/errors"
)

// parser accepts the classic five field form and an optional leading seconds
// field, plus descriptors such as @daily or @every 5m.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// 🕰️ Schedule is a parsed cron expression
type Schedule struct {
	expr  string
	sched cron.Schedule
}

// Parse parses a cron expression. Fire times are computed in the location of
// the time passed to Next unless the expression starts with CRON_TZ=<zone>.
func Parse(expr string) (*Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty cron expression")
	}
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.Errorf("parsing cron expression %q: %w", expr, err)
	}
	return &Schedule{expr: expr, sched: sched}, nil
}

// Next returns the first fire time strictly after t, or the zero time when
// the expression can never fire.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.sched.Next(t)
}

// Upcoming returns the next n fire times after from.
func (s *Schedule) Upcoming(from time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	next := from
	for i := 0; i < n; i++ {
		next = s.sched.Next(next)
		if next.IsZero() {
			break
		}
		times = append(times, next)
	}
	return times
}

func (s *Schedule) String() string {
	return s.expr
}
