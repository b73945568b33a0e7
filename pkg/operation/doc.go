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

// Package operation turns a configuration into a copy plan and executes it.
//
// A run happens in two steps. BuildPlan walks the source roots and the
// destination and classifies every source file as pending, already present
// or shadowed by an earlier root. Copier then copies the pending files on a
// bounded worker pool. Targets are written to a temporary file first and
// linked into place, so an interrupted run never leaves a truncated file
// that a later run would mistake for a finished one.
//
// SyncOperation and PlanOperation wrap both steps for the OperationRunner.
package operation
