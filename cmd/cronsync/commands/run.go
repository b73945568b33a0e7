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

package commands

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/cronsync/cmd/cronsync/opts"
	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/operation"
	"github.com/walteh/cronsync/pkg/schedule"
	"gitlab.com/tozd/go/errors"
)

// Run copies once, or on every fire time of the configured cron expression.
// An interrupt stops the run without an error.
func Run(ctx context.Context, ro *opts.RootOpts) error {
	cfg := ro.Config
	logger := zerolog.Ctx(ctx)

	ro.Console.Header(cfg.String())

	prepare := config.Prepare
	if cfg.DryRun {
		prepare = config.Check
	}
	if err := prepare(ctx, cfg); err != nil {
		return errors.Errorf("preparing paths: %w", err)
	}

	runner := operation.NewRunner(logger, false)
	op := operation.NewSyncOperation(operation.Options{
		Config:   cfg,
		Progress: ro.Progress,
	})

	var err error
	if cfg.Scheduled() {
		var sched *schedule.Schedule
		sched, err = schedule.Parse(cfg.CronExpr)
		if err != nil {
			return err
		}
		err = schedule.New(sched, schedule.Options{
			SkipMissed: cfg.SkipMissed,
			MaxRuns:    cfg.MaxRuns,
		}).Run(ctx, func(ctx context.Context) error {
			return runner.Run(ctx, op)
		})
	} else {
		err = runner.Run(ctx, op)
	}

	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Debug().Err(err).Msg("run interrupted")
		ro.Console.Warning("interrupted, stopping")
		return nil
	}
	return err
}
