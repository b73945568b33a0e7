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
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🏃 OperationRunner executes operations, one after another or detached
// from the caller so that cancellation returns immediately
type OperationRunner struct {
	logger *zerolog.Logger
	async  bool
}

// 🏗️ NewRunner creates a new runner
func NewRunner(logger *zerolog.Logger, async bool) *OperationRunner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OperationRunner{
		logger: logger,
		async:  async,
	}
}

// 🏃 Run executes ops in order and stops at the first failure
func (r *OperationRunner) Run(ctx context.Context, ops ...Operation) error {
	for _, op := range ops {
		start := time.Now()
		r.logger.Debug().Str("operation", op.Name()).Msg("starting operation")

		var err error
		if r.async {
			err = r.runAsync(ctx, op)
		} else {
			err = r.runSync(ctx, op)
		}
		if err != nil {
			return err
		}

		r.logger.Debug().
			Str("operation", op.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("operation finished")
	}
	return nil
}

// 🔄 runSync runs an operation on the calling goroutine
func (r *OperationRunner) runSync(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return errors.Errorf("operation %s cancelled: %w", op.Name(), err)
	}
	if err := op.Execute(ctx); err != nil {
		return errors.Errorf("executing %s: %w", op.Name(), err)
	}
	return nil
}

// ⚡ runAsync runs an operation on its own goroutine and returns as soon as
// it finishes or ctx is done, whichever comes first
func (r *OperationRunner) runAsync(ctx context.Context, op Operation) error {
	result := make(chan error, 1)
	go func() {
		result <- op.Execute(ctx)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn().Str("operation", op.Name()).Msg("operation cancelled, not waiting for it")
		return errors.Errorf("operation %s cancelled: %w", op.Name(), ctx.Err())
	case err := <-result:
		if err != nil {
			return errors.Errorf("executing %s: %w", op.Name(), err)
		}
		return nil
	}
}
