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

package das

import (
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/witness"
)

type Config struct {
	promRegistry     prometheus.Registerer
	metrics          *witness.Metrics
	logger           *slog.Logger
	tracerProvider   trace.TracerProvider
	probeSize        int
	maxWitnesses     int
	configCellTypeID [32]byte
	tracing          bool
}

func (c Config) validate() error {
	if c.probeSize < 0 {
		return errors.New("probe size must not be negative")
	}
	if c.maxWitnesses < 0 {
		return errors.New("witness limit must not be negative")
	}
	if c.configCellTypeID == [32]byte{} {
		return errors.New("no config cell type ID configured")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the invocation config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new invocation config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		probeSize: host.DefaultProbeSize,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	// Metrics are registered once and shared by every invocation using
	// this config
	if c.promRegistry != nil {
		c.metrics = witness.NewMetrics(c.promRegistry)
	}
	return c
}

// WithLogger specifies the logger to use. The default discards everything
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPromRegistry specifies the Prometheus registry to register metrics with. Metrics are not collected by default
func WithPromRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithProbeSize specifies the size of the first read of every witness and cell. The default is 1024 bytes
func WithProbeSize(size int) ConfigOptionFunc {
	return func(c *Config) {
		c.probeSize = size
	}
}

// WithMaxWitnesses limits the number of witnesses a transaction may carry. The default is no limit
func WithMaxWitnesses(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.maxWitnesses = limit
	}
}

// WithConfigCellTypeID specifies the code hash of the type script of config cells
func WithConfigCellTypeID(typeID [32]byte) ConfigOptionFunc {
	return func(c *Config) {
		c.configCellTypeID = typeID
	}
}

// WithTracing enables spans around invocation setup and config lookups. Spans go to the global tracer provider unless
// WithTracerProvider is also given
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracerProvider specifies the tracer provider to use when tracing is enabled
func WithTracerProvider(provider trace.TracerProvider) ConfigOptionFunc {
	return func(c *Config) {
		c.tracerProvider = provider
	}
}
