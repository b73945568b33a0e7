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
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/cronsync/cmd/cronsync/opts"
	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/operation"
	"github.com/walteh/cronsync/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewPlanCmd creates the plan command
func NewPlanCmd(ro *opts.RootOpts) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what the next copy would do",
		Long: `Plan walks the source and destination trees and lists the files the next
copy would create. Nothing is written. Use --all to also list files that are
already present, filtered out or provided by an earlier --from directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := config.Check(ctx, ro.Config); err != nil {
				return errors.Errorf("checking paths: %w", err)
			}

			op := operation.NewPlanOperation(operation.Options{Config: ro.Config})
			if err := operation.NewRunner(zerolog.Ctx(ctx), false).Run(ctx, op); err != nil {
				return err
			}
			plan := op.Plan()

			rows := [][]string{{"status", "file", "size", "source"}}
			for _, item := range plan.Items {
				if !all && item.Status != status.StatusPending {
					continue
				}
				rows = append(rows, []string{
					item.Status.String(),
					item.Rel,
					humanize.Bytes(uint64(item.Size)),
					item.Source,
				})
			}
			if len(rows) > 1 {
				if err := ro.Console.Table(rows); err != nil {
					return errors.Errorf("rendering plan: %w", err)
				}
			}

			ro.Console.Infof("%d files to copy (%s), %d already present, %d conflicts, %d ignored",
				plan.Count(status.StatusPending),
				humanize.Bytes(uint64(plan.Size(status.StatusPending))),
				plan.Count(status.StatusExists),
				plan.Count(status.StatusConflict),
				plan.Count(status.StatusIgnored))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every source file, not only the pending ones")

	return cmd
}
