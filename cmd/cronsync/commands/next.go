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
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/walteh/cronsync/pkg/schedule"
	"gitlab.com/tozd/go/errors"
)

// NewNextCmd creates the next command, which prints upcoming fire times of a
// cron expression without needing source or destination paths
func NewNextCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "next <cron-expr>",
		Short: "Print the upcoming fire times of a cron expression",
		Example: `  cronsync next "0 */15 * * * *"
  cronsync next -n 3 @daily`,
		Args: cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.Errorf("count must be positive, got %d", count)
			}
			sched, err := schedule.Parse(args[0])
			if err != nil {
				return err
			}

			times := sched.Upcoming(time.Now(), count)
			if len(times) == 0 {
				return errors.Errorf("cron expression %q has no upcoming fire time", args[0])
			}
			for _, t := range times {
				fmt.Fprintln(cmd.OutOrStdout(), t.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of fire times to print")

	return cmd
}
