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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/walteh/cronsync/pkg/log"
	"github.com/walteh/cronsync/pkg/state"
	"github.com/walteh/cronsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔄 SyncOperation plans and copies one run. In dry run mode it only plans.
type SyncOperation struct {
	BaseOperation

	mu   sync.Mutex
	last *status.Report
}

// 🏭 NewSyncOperation creates a sync operation
func NewSyncOperation(opts Options) *SyncOperation {
	return &SyncOperation{BaseOperation: NewBaseOperation(opts)}
}

func (op *SyncOperation) Name() string { return "sync" }

// 🚀 Execute runs the copy once
func (op *SyncOperation) Execute(ctx context.Context) error {
	console := log.FromContext(ctx)
	cfg := op.Config

	start := timeNow()
	console.StateChange(fmt.Sprintf("copying from %s to %s", strings.Join(cfg.From, ","), cfg.To))

	plan, err := BuildPlan(ctx, cfg)
	if err != nil {
		return errors.Errorf("planning copy: %w", err)
	}

	if cfg.DryRun {
		op.setLast(plan.Report())
		for _, item := range plan.Pending() {
			console.Info(op.Formatter.FormatFileOperation(item.entry(item.Status, nil)))
		}
		console.Infof("dry run: %d files would be copied (%s)",
			plan.Count(status.StatusPending),
			humanize.Bytes(uint64(plan.Size(status.StatusPending))))
		return nil
	}

	copier := NewCopier(cfg.Threads(), op.Progress)
	copier.Formatter = op.Formatter
	report, err := copier.Copy(ctx, plan)
	op.setLast(report)
	if cfg.StateFile != "" {
		if serr := state.Update(ctx, cfg.StateFile, cfg, report, err); serr != nil {
			zerolog.Ctx(ctx).Warn().Err(serr).Str("path", cfg.StateFile).Msg("failed to record run")
		}
	}
	if err != nil {
		for _, e := range report.Failed() {
			console.Warning(op.Formatter.FormatFileOperation(e))
		}
		console.Warning(op.Formatter.FormatSummary(report))
		return err
	}

	console.Successf("copy finished in %s", timeNow().Sub(start).Round(time.Millisecond))
	console.Info(op.Formatter.FormatSummary(report))
	return nil
}

// LastReport returns the report of the most recent run, nil before the first
func (op *SyncOperation) LastReport() *status.Report {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.last
}

func (op *SyncOperation) setLast(r *status.Report) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.last = r
}

// 🗺️ PlanOperation builds a plan without touching the destination
type PlanOperation struct {
	BaseOperation

	plan *Plan
}

// 🏭 NewPlanOperation creates a plan operation
func NewPlanOperation(opts Options) *PlanOperation {
	return &PlanOperation{BaseOperation: NewBaseOperation(opts)}
}

func (op *PlanOperation) Name() string { return "plan" }

// Execute builds the plan
func (op *PlanOperation) Execute(ctx context.Context) error {
	plan, err := BuildPlan(ctx, op.Config)
	if err != nil {
		return errors.Errorf("planning copy: %w", err)
	}
	op.plan = plan
	return nil
}

// Plan returns the plan built by Execute
func (op *PlanOperation) Plan() *Plan {
	return op.plan
}
