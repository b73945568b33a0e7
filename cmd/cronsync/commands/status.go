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
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/walteh/cronsync/cmd/cronsync/opts"
	"github.com/walteh/cronsync/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// AnnotationPathsOptional marks commands that can run without --from and --to
const AnnotationPathsOptional = "cronsync/paths-optional"

// NewStatusCmd creates the status command
func NewStatusCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the runs recorded in the state file",
		Long: `Status reads the file given by --state-file and prints the last run and
the last successful run. It also reports when the recorded runs were made
with different sources, destination or filters. That comparison is only
made when --from and --to are given.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{AnnotationPathsOptional: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ro.Config

			if cfg.StateFile == "" {
				return errors.New("no state file configured, use --state-file")
			}

			s, err := state.LoadState(ctx, cfg.StateFile)
			if err != nil {
				return errors.Errorf("loading state: %w", err)
			}
			if s.Runs == 0 {
				ro.Console.Info("no runs recorded yet")
				return nil
			}

			if cfg.HasPaths() && !s.Matches(cfg) {
				ro.Console.Warning("recorded runs used a different configuration")
			}

			rows := [][]string{{"run", "started", "took", "copied", "size", "existing", "conflicts", "failed", "error"}}
			for _, r := range []struct {
				name string
				run  *state.RunState
			}{
				{"last", s.LastRun},
				{"last success", s.LastSuccess},
			} {
				if r.run == nil {
					continue
				}
				rows = append(rows, []string{
					r.name,
					fmt.Sprintf("%s (%s)", r.run.Start.Format(time.RFC3339), humanize.Time(r.run.Start)),
					r.run.Duration().Round(time.Millisecond).String(),
					strconv.Itoa(r.run.Copied),
					humanize.Bytes(uint64(r.run.Bytes)),
					strconv.Itoa(r.run.Exists),
					strconv.Itoa(r.run.Conflicts),
					strconv.Itoa(r.run.Failed),
					r.run.Error,
				})
			}
			if err := ro.Console.Table(rows); err != nil {
				return errors.Errorf("rendering status: %w", err)
			}

			ro.Console.Infof("%d runs recorded", s.Runs)
			return nil
		},
	}

	return cmd
}
