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
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/cronsync/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// Job is the work done at every fire time.
type Job func(ctx context.Context) error

// 🔧 Options tunes a Scheduler
type Options struct {
	// SkipMissed drops fire times that passed while a job was running instead
	// of running them back to back.
	SkipMissed bool
	// MaxRuns stops the scheduler after this many runs. Zero means no limit.
	MaxRuns int

	// Now and Sleep replace the wall clock, mostly for tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// ⏰ Scheduler runs a job at every fire time of a schedule
type Scheduler struct {
	schedule *Schedule
	opts     Options
}

// 🏭 New creates a scheduler for s
func New(s *Schedule, opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Scheduler{schedule: s, opts: opts}
}

// 🏃 Run blocks, running job at each fire time, until the job fails, MaxRuns
// is reached or ctx is cancelled.
//
// Fire times are generated from the previous fire time, so a job that
// overruns the interval is followed immediately by the runs it missed unless
// SkipMissed is set.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	logger.Debug().Str("cron", s.schedule.String()).Msg("starting scheduler")

	fire := s.opts.Now()
	runs := 0
	for {
		if s.opts.SkipMissed {
			if now := s.opts.Now(); now.After(fire) {
				fire = now
			}
		}

		fire = s.schedule.Next(fire)
		if fire.IsZero() {
			return errors.Errorf("cron expression %q has no upcoming fire time", s.schedule)
		}

		if now := s.opts.Now(); fire.After(now) {
			wait := fire.Sub(now)
			logger.Debug().Dur("wait", wait).Time("at", fire).Msg("sleeping until fire time")
			console.Waiting(wait, fire)
			if err := s.opts.Sleep(ctx, wait); err != nil {
				return errors.Errorf("waiting for %s: %w", fire.Format(time.RFC3339), err)
			}
		} else {
			logger.Debug().Time("at", fire).Msg("fire time already passed, running now")
		}

		if err := ctx.Err(); err != nil {
			return errors.Errorf("scheduler stopped: %w", err)
		}

		start := s.opts.Now()
		if err := job(ctx); err != nil {
			return errors.Errorf("running job scheduled at %s: %w", fire.Format(time.RFC3339), err)
		}
		runs++

		elapsed := s.opts.Now().Sub(start)
		logger.Info().Int("run", runs).Dur("elapsed", elapsed).Msg("scheduled run finished")

		if s.opts.MaxRuns > 0 && runs >= s.opts.MaxRuns {
			logger.Debug().Int("runs", runs).Msg("max runs reached")
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
