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

package log

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// LevelForVerbosity maps a -v count to a log level:
// 0 error, 1 warn, 2 info, 3 debug, 4 and above trace.
func LevelForVerbosity(verbose int) zerolog.Level {
	switch {
	case verbose <= 0:
		return zerolog.ErrorLevel
	case verbose == 1:
		return zerolog.WarnLevel
	case verbose == 2:
		return zerolog.InfoLevel
	case verbose == 3:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup builds the structured logger written to w for the given verbosity.
func Setup(w io.Writer, verbose int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(LevelForVerbosity(verbose)).
		With().
		Timestamp().
		Logger()
}
