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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	das "github.com/dotbitHQ/did-contracts-sub003"
	"github.com/dotbitHQ/did-contracts-sub003/errcode"
	"github.com/dotbitHQ/did-contracts-sub003/history"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"github.com/dotbitHQ/did-contracts-sub003/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type verifyFlags struct {
	fromStore    bool
	printMetrics bool
	record       bool
}

type verifyResult struct {
	Error   string       `yaml:"error,omitempty"`
	Summary *das.Summary `yaml:"summary,omitempty"`
	Fixture string       `yaml:"fixture"`
	Code    uint16       `yaml:"code,omitempty"`
}

// verifyTransaction runs a full invocation over tx and summarizes it. Errors
// carrying a code are reported in the result rather than returned
func verifyTransaction(
	ctx context.Context,
	name string,
	tx *host.Transaction,
	dasCfg das.Config,
) verifyResult {
	ret := verifyResult{Fixture: name}
	fail := func(err error) verifyResult {
		ret.Error = err.Error()
		if code, ok := errcode.CodeOf(err); ok {
			ret.Code = uint16(code)
		}
		return ret
	}
	inv, err := das.New(ctx, tx, dasCfg)
	if err != nil {
		return fail(err)
	}
	summary, err := inv.Summarize()
	if err != nil {
		return fail(err)
	}
	ret.Summary = summary
	return ret
}

func (r verifyResult) historyRun() *history.Run {
	run := &history.Run{
		Fixture: r.Fixture,
		Error:   r.Error,
		Code:    r.Code,
	}
	if r.Summary != nil {
		run.Action = r.Summary.Action
		run.Params = r.Summary.Params
		run.Witnesses = len(r.Summary.DataTypes)
	}
	return run
}

// recordResults appends results to the verification history
func recordResults(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	results []verifyResult,
) error {
	store, err := history.New(cfg.StorePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()
	for _, res := range results {
		if err := store.Record(ctx, res.historyRun()); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// serveMetrics exposes reg until the process is interrupted
func serveMetrics(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	reg *prometheus.Registry,
) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf("%s:%d", cfg.MetricsBindAddr, cfg.MetricsPort)
	metricsServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	logger.Info(
		"serving prometheus metrics on "+addr,
		"component", programName,
	)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		errCh <- metricsServer.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()
	return metricsServer.Shutdown(shutdownCtx)
}

func verifyRun(cmd *cobra.Command, args []string, flags verifyFlags) error {
	ctx := cmd.Context()
	cfg := configFromCommand(cmd)
	logger := commonRun()
	reg := prometheus.NewRegistry()
	opts, err := dasOptions(cfg, logger, reg)
	if err != nil {
		return err
	}
	if cfg.Tracing {
		provider, err := das.SetupTracing(ctx, cfg.TracingStdout, os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Warn(
					"failed to flush traces: "+err.Error(),
					"component", programName,
				)
			}
		}()
		opts = append(
			opts,
			das.WithTracing(true),
			das.WithTracerProvider(provider),
		)
	}
	// All fixtures share one config so metrics accumulate across them
	shared := das.NewConfig(opts...)
	failed := 0
	results := make([]verifyResult, 0, len(args))
	for _, arg := range args {
		tx, err := loadInput(cfg, logger, arg, flags.fromStore)
		if err != nil {
			return err
		}
		res := verifyTransaction(ctx, arg, tx, shared)
		if res.Error != "" {
			failed++
		}
		results = append(results, res)
	}
	out, err := yaml.Marshal(results)
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}
	if flags.record {
		if err := recordResults(ctx, cfg, logger, results); err != nil {
			return err
		}
	}
	if flags.printMetrics {
		if err := writeMetrics(cmd.OutOrStdout(), reg); err != nil {
			return err
		}
	}
	if cfg.MetricsPort > 0 {
		if err := serveMetrics(ctx, cfg, logger, reg); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed", failed, len(args))
	}
	return nil
}

func verifyCommand() *cobra.Command {
	var flags verifyFlags
	cmd := &cobra.Command{
		Use:   "verify <fixture>...",
		Short: "Run an invocation over each transaction and summarize it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyRun(cmd, args, flags)
		},
	}
	cmd.Flags().
		BoolVar(&flags.fromStore, "store", false, "read named fixtures from the fixture store")
	cmd.Flags().
		BoolVar(&flags.record, "record", false, "append results to the verification history")
	cmd.Flags().
		BoolVar(&flags.printMetrics, "metrics", false, "print collected metrics after the summaries")
	return cmd
}
