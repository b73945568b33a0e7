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
	"io"

	"github.com/walteh/cronsync/pkg/config"
	"github.com/walteh/cronsync/pkg/status"
)

// 🎯 Operation is a unit of work the Runner can execute
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	// Execute runs the operation
	Execute(ctx context.Context) error
}

// 🔧 Options contains configuration shared by operations
type Options struct {
	// Config is the validated sync configuration
	Config *config.Config
	// Progress receives a progress bar while copying; nil disables it
	Progress io.Writer
	// Formatter renders summaries; defaults to status.DefaultFormatter
	Formatter status.Formatter
}

// 🧱 BaseOperation holds the options every operation needs
type BaseOperation struct {
	Options
}

// 🏭 NewBaseOperation fills in defaults for opts
func NewBaseOperation(opts Options) BaseOperation {
	if opts.Formatter == nil {
		opts.Formatter = status.NewDefaultFormatter()
	}
	return BaseOperation{Options: opts}
}
