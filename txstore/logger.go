// Copyright 2025 Blink Labs Software
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

package txstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// badgerLogger routes badger's printf-style logging into slog
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{logger: logger}
}

func (b *badgerLogger) log(level slog.Level, format string, args ...any) {
	// badger terminates most of its messages with a newline
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	b.logger.Log(
		context.Background(),
		level,
		msg,
		"component", "txstore",
	)
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.log(slog.LevelError, format, args...)
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.log(slog.LevelWarn, format, args...)
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.log(slog.LevelInfo, format, args...)
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.log(slog.LevelDebug, format, args...)
}
