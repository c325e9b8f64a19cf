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

// Package history records verification runs in a SQLite database.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Run is one verification of a fixture
type Run struct {
	CreatedAt time.Time
	Fixture   string `gorm:"index"`
	Action    string
	Params    string
	Error     string
	ID        uint `gorm:"primarykey"`
	Witnesses int
	Code      uint16
}

func (Run) TableName() string {
	return "verify_run"
}

// Failed reports whether the run ended with an error
func (r Run) Failed() bool {
	return r.Error != ""
}

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New opens the history database under dataDir. An empty dataDir uses a
// private in-memory database
func New(dataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	var dsn string
	if dataDir == "" {
		dsn = "file::memory:"
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)",
			filepath.Join(dataDir, "history.sqlite"),
		)
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:     db,
		logger: logger,
	}
	if dataDir == "" {
		// Every pooled connection would see its own empty in-memory database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	// Configure tracing for GORM
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		s.Close()
		return nil, err
	}
	s.logger.Debug(
		fmt.Sprintf("creating table: %#v", &Run{}),
		"component", "history",
	)
	if err := db.AutoMigrate(&Run{}); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// Record stores run. CreatedAt defaults to the current time
func (s *Store) Record(ctx context.Context, run *Run) error {
	if result := s.db.WithContext(ctx).Create(run); result.Error != nil {
		return fmt.Errorf("record run for %q: %w", run.Fixture, result.Error)
	}
	return nil
}

// List returns the most recent runs first. An empty fixture matches every
// fixture and a limit of zero returns all runs
func (s *Store) List(
	ctx context.Context,
	fixture string,
	limit int,
) ([]Run, error) {
	var ret []Run
	query := s.db.WithContext(ctx).Order("id DESC")
	if fixture != "" {
		query = query.Where("fixture = ?", fixture)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// FailureCounts returns the number of failed runs per error code
func (s *Store) FailureCounts(ctx context.Context) (map[uint16]int, error) {
	var rows []struct {
		Code  uint16
		Count int
	}
	result := s.db.WithContext(ctx).
		Model(&Run{}).
		Select("code, count(*) as count").
		Where("error <> ''").
		Group("code").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make(map[uint16]int, len(rows))
	for _, row := range rows {
		ret[row.Code] = row.Count
	}
	return ret, nil
}
