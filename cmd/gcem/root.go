// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/katalvlaran/gcem/logging"
	"github.com/katalvlaran/gcem/metrics"
)

const shutdownTimeout = 5 * time.Second

// app carries the process-wide observability stack shared by subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	logLevel    string
	logJSON     bool
	verbose     bool
	trace       bool
	metricsAddr string

	logger  *slog.Logger
	metrics *metrics.Collectors
	tp      *sdktrace.TracerProvider
	srv     *http.Server
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "gcem",
		Short:         "Gaussian-process emulation and observational constraint of simulators",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "info", "minimum log level: debug, info, warn, error")
	pf.BoolVar(&a.logJSON, "log-json", false, "log as JSON (default: JSON unless stderr is a terminal)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log active dimensions and every optimizer iteration at info")
	pf.BoolVar(&a.trace, "trace", false, "print OpenTelemetry spans to stderr")
	pf.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address while running")

	root.AddCommand(newSampleCmd(a), newConstrainCmd(a), newRunsCmd(a))

	return root
}

// setup builds the logger, the metrics registry, the optional tracer and
// the optional metrics server.
func (a *app) setup(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	asJSON := a.logJSON
	if !cmd.Flags().Changed("log-json") {
		asJSON = !logging.IsTerminal(a.stderr)
	}
	a.logger = logging.New(logging.Config{Level: level, JSON: asJSON, Service: "gcem", Writer: a.stderr})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.metrics, err = metrics.New(reg); err != nil {
		return err
	}

	if a.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(a.stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("trace exporter: %w", err)
		}
		a.tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(a.tp)
	}

	if a.metricsAddr != "" {
		ln, err := net.Listen("tcp", a.metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		a.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", slog.String("error", err.Error()))
			}
		}()
		a.logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	}

	return nil
}

// runE wraps a subcommand so the observability stack is torn down on
// every exit path, including errors.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() { err = errors.Join(err, a.shutdown()) }()
		return fn(cmd, args)
	}
}

// shutdown flushes spans and stops the metrics server.
func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.tp != nil {
		errs = append(errs, a.tp.Shutdown(ctx))
	}
	if a.srv != nil {
		errs = append(errs, a.srv.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
