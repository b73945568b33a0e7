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

package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/walteh/cronsync/cmd/cronsync/commands"
	"github.com/walteh/cronsync/cmd/cronsync/opts"
	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds the raw command line values before they are merged into
// the config file
type rootFlags struct {
	configFile string
	values     config.Config
}

// NewRootCmd creates the cronsync command tree
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	ro := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "cronsync",
		Short: "Copy new files between directory trees, once or on a cron schedule",
		Long: `cronsync copies every file found under the --from directories into the
--to directory, keeping relative paths. Files already present in the
destination are never overwritten.

Without --cron-expr the copy runs once. With it, cronsync waits for each
fire time of the expression and copies again.`,
		Example: `  cronsync -f ./photos -t /mnt/backup/photos
  cronsync -f ./a -f ./b -t ./out -c "0 */15 * * * *" -vv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, flags, ro)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Run(cmd.Context(), ro)
		},
	}

	addRootFlags(cmd.PersistentFlags(), flags)

	cmd.AddCommand(
		commands.NewPlanCmd(ro),
		commands.NewStatusCmd(ro),
		commands.NewNextCmd(),
		commands.NewVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(fs *pflag.FlagSet, f *rootFlags) {
	fs.StringVar(&f.configFile, "config", "", "config file path (.yaml, .yml, .json, .hcl or .cronsync)")
	fs.StringArrayVarP(&f.values.From, "from", "f", nil, "source directory, repeatable")
	fs.StringVarP(&f.values.To, "to", "t", "", "destination directory")
	fs.CountVarP(&f.values.Verbose, "verbose", "v", "verbosity, repeat up to 4 times")
	fs.IntVarP(&f.values.ParallelThreads, "parallel-threads", "p", 0, "number of parallel copies (default number of CPUs)")
	fs.StringVarP(&f.values.CronExpr, "cron-expr", "c", "", "cron expression, seconds field optional")
	fs.StringArrayVar(&f.values.Include, "include", nil, "only copy files matching this glob, repeatable")
	fs.StringArrayVar(&f.values.Ignore, "ignore", nil, "never copy files matching this glob, repeatable")
	fs.BoolVar(&f.values.SkipMissed, "skip-missed", false, "skip fire times that passed while a copy was running")
	fs.IntVar(&f.values.MaxRuns, "max-runs", 0, "stop after this many scheduled runs")
	fs.BoolVar(&f.values.DryRun, "dry-run", false, "plan the copy without writing anything")
	fs.BoolVar(&f.values.Progress, "progress", false, "show a progress bar while copying")
	fs.StringVar(&f.values.StateFile, "state-file", "", "record every run in this JSON file")
}

// changed returns the config keys of the flags that were set explicitly
func changed(fs *pflag.FlagSet) []string {
	var keys []string
	fs.Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			keys = append(keys, strings.ReplaceAll(f.Name, "-", "_"))
		}
	})
	return keys
}

// setup loads the config file, applies flags on top, validates the result
// and installs the loggers on the command context
func setup(cmd *cobra.Command, f *rootFlags, ro *opts.RootOpts) error {
	ctx := cmd.Context()

	cfg := &config.Config{}
	if f.configFile != "" {
		loaded, err := config.ReadConfig(ctx, f.configFile)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	cfg.Override(&f.values, changed(cmd.Flags())...)

	validate := config.Validate
	if _, ok := cmd.Annotations[commands.AnnotationPathsOptional]; ok && !cfg.HasPaths() {
		validate = func(_ context.Context, cfg *config.Config) error { return config.ValidateVerbose(cfg) }
	}
	if err := validate(ctx, cfg); err != nil {
		return errors.Errorf("validating config: %w", err)
	}

	zlog := log.Setup(cmd.ErrOrStderr(), cfg.Verbose)
	console := log.New(cmd.OutOrStdout(), zlog)
	ctx = zlog.WithContext(ctx)
	ctx = log.NewContext(ctx, console)
	cmd.SetContext(ctx)

	ro.Config = cfg
	ro.Console = console
	ro.Progress = nil
	if cfg.Progress {
		ro.Progress = cmd.ErrOrStderr()
	}

	zlog.Debug().Str("config", cfg.String()).Str("file", cfg.Location()).Msg("configuration ready")
	return nil
}
