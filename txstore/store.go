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

// Package txstore keeps named transaction fixtures in a badger database.
package txstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const keyPrefix = "tx/"

var (
	ErrNotFound    = errors.New("fixture not found")
	ErrInvalidName = errors.New("invalid fixture name")
)

// Store is a badger-backed fixture store
type Store struct {
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	db           *badger.DB
	gcTicker     *time.Ticker
	gcStopCh     chan struct{}
	opsTotal     *prometheus.CounterVec
	dataDir      string
	gcWg         sync.WaitGroup
	gcEnabled    bool
}

// New opens a store. Without a data directory the store lives in memory
func New(opts ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		gcEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithLogger(newBadgerLogger(s.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(s.dataDir, "fixtures")).
			WithLogger(newBadgerLogger(s.logger)).
			WithLoggingLevel(badger.WARNING).
			WithCompression(options.Snappy)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture store: %w", err)
	}
	s.db = db
	s.init()
	return s, nil
}

func (s *Store) init() {
	if s.promRegistry != nil {
		s.opsTotal = promauto.With(s.promRegistry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "das_txstore_operations_total",
				Help: "total number of fixture store operations",
			},
			[]string{"op"},
		)
	}
	// Value log GC is pointless for in-memory stores
	if s.gcEnabled && s.dataDir != "" {
		s.gcTicker = time.NewTicker(5 * time.Minute)
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.valueLogGc(s.gcTicker, s.gcStopCh)
	}
}

func (s *Store) valueLogGc(t *time.Ticker, stop <-chan struct{}) {
	defer s.gcWg.Done()
	for {
		select {
		case <-t.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					// Run it again if it just ran successfully
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.Warn(
						fmt.Sprintf("fixture store: GC failure: %s", err),
						"component", "txstore",
					)
				}
				break
			}
		case <-stop:
			return
		}
	}
}

func (s *Store) countOp(op string) {
	if s.opsTotal != nil {
		s.opsTotal.WithLabelValues(op).Inc()
	}
}

// Close stops background GC and closes the database
func (s *Store) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
		close(s.gcStopCh)
		s.gcWg.Wait()
		s.gcTicker = nil
	}
	return s.db.Close()
}

func fixtureKey(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	return []byte(keyPrefix + name), nil
}

// Put stores a transaction under name, replacing any previous value
func (s *Store) Put(name string, tx *host.Transaction) error {
	key, err := fixtureKey(name)
	if err != nil {
		return err
	}
	val, err := encodeTransaction(tx)
	if err != nil {
		return fmt.Errorf("encode fixture %q: %w", name, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return err
	}
	s.countOp("put")
	s.logger.Debug(
		"stored fixture",
		"component", "txstore",
		"name", name,
		"size", len(val),
	)
	return nil
}

// Get loads the transaction stored under name
func (s *Store) Get(name string) (*host.Transaction, error) {
	key, err := fixtureKey(name)
	if err != nil {
		return nil, err
	}
	var val []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get fixture %q: %w", name, err)
	}
	s.countOp("get")
	tx, err := decodeTransaction(val)
	if err != nil {
		return nil, fmt.Errorf("decode fixture %q: %w", name, err)
	}
	return tx, nil
}

// Delete removes the fixture stored under name
func (s *Store) Delete(name string) error {
	key, err := fixtureKey(name)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("delete fixture %q: %w", name, err)
	}
	s.countOp("delete")
	return nil
}

// List returns the names of all stored fixtures in key order
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			names = append(names, string(key[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.countOp("list")
	return names, nil
}
