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

package witness

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dotbitHQ/did-contracts-sub003/errcode"
)

// Metrics collects counters about one or more invocations. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	witnessesScanned prometheus.Counter
	witnessesIndexed prometheus.Gauge
	entityDecodes    *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	errors           *prometheus.CounterVec
}

// NewMetrics registers the engine metrics with promRegistry. A nil
// registry yields working but unregistered collectors.
func NewMetrics(promRegistry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.init(promRegistry)
	return m
}

func (m *Metrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.witnessesScanned = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "das_witness_scanned_total",
		Help: "total number of witnesses read from the host",
	})
	m.witnessesIndexed = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "das_witness_indexed",
		Help: "number of witnesses in the most recent index",
	})
	m.entityDecodes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "das_entity_decodes_total",
			Help: "total number of entities decoded from witnesses",
		},
		[]string{"data_type"},
	)
	m.cacheHits = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "das_cache_hits_total",
			Help: "total number of lookups served from a per-invocation cache",
		},
		[]string{"cache"},
	)
	m.errors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "das_errors_total",
			Help: "total number of failures by error code",
		},
		[]string{"code"},
	)
}

func (m *Metrics) scanned() {
	if m == nil {
		return
	}
	m.witnessesScanned.Inc()
}

func (m *Metrics) indexed(count int) {
	if m == nil {
		return
	}
	m.witnessesIndexed.Set(float64(count))
}

func (m *Metrics) decoded(dt DataType) {
	if m == nil {
		return
	}
	m.entityDecodes.WithLabelValues(dt.String()).Inc()
}

// CacheHit counts a lookup answered from the named cache
func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

// Failure counts err under its error code, or "unknown" when it carries
// none
func (m *Metrics) Failure(err error) {
	if m == nil || err == nil {
		return
	}
	label := "unknown"
	if code, ok := errcode.CodeOf(err); ok {
		label = code.String()
	}
	m.errors.WithLabelValues(label).Inc()
}
