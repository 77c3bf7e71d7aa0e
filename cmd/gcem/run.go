// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/config"
	"github.com/katalvlaran/gcem/device"
	"github.com/katalvlaran/gcem/emulator"
	"github.com/katalvlaran/gcem/logging"
	"github.com/katalvlaran/gcem/results"
	"github.com/katalvlaran/gcem/stream"
)

// runInput is everything a sample or constrain run reads from disk.
type runInput struct {
	cfg        config.Config
	ts         emulator.TrainingSet
	candidates *mat.Dense
}

func loadRun(path string) (*runInput, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	x, err := readMatrix(cfg.Data.Inputs, cfg.Data.Header)
	if err != nil {
		return nil, err
	}
	y, err := readMatrix(cfg.Data.Outputs, cfg.Data.Header)
	if err != nil {
		return nil, err
	}
	cand, err := readMatrix(cfg.Data.Candidates, cfg.Data.Header)
	if err != nil {
		return nil, err
	}

	return &runInput{cfg: cfg, ts: emulator.TrainingSet{Inputs: x, Outputs: y}, candidates: cand}, nil
}

// options assembles the emulator options for op from the run config and
// the app's observability stack.
func (a *app) options(in *runInput, op string) ([]emulator.Option, error) {
	pool, err := device.NewPool(in.cfg.Devices, device.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	opts := append(in.cfg.Options(),
		emulator.WithDevicePool(pool),
		emulator.WithLogger(a.logger),
		emulator.WithRecorder(a.metrics),
		emulator.WithObserver(batch.Observers{
			logging.NewProgressObserver(a.logger, op+" progress", logging.DefaultProgressInterval),
			a.metrics.ProgressObserver(op),
		}),
	)
	if a.tp != nil {
		opts = append(opts, emulator.WithTracerProvider(a.tp))
	}
	if a.verbose {
		opts = append(opts, emulator.WithVerbose())
	}

	return opts, nil
}

// sampleOutput is the JSON document printed by sample.
type sampleOutput struct {
	Train   emulator.TrainReport `json:"train"`
	Moments *stream.Moments      `json:"moments"`
}

func newSampleCmd(a *app) *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Train an emulator and report the moments of its predictions over the candidates",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, _ []string) error {
		in, err := loadRun(cfgPath)
		if err != nil {
			return err
		}
		opts, err := a.options(in, "Sample")
		if err != nil {
			return err
		}
		m := emulator.New(opts...)
		if err = m.Train(cmd.Context(), in.ts); err != nil {
			return err
		}
		moments, err := m.Sample(cmd.Context(), batch.NewMatrixSource(in.candidates))
		if err != nil {
			return err
		}
		rep, _ := m.Report()

		return a.printJSON(sampleOutput{Train: rep, Moments: moments})
	})
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "run description (YAML)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// constrainOutput is the JSON document printed by constrain.
type constrainOutput struct {
	RunID         string               `json:"run_id,omitempty"`
	Train         emulator.TrainReport `json:"train"`
	Candidates    int                  `json:"candidates"`
	ValidCount    int                  `json:"valid_count"`
	Unconstrained *stream.Moments      `json:"unconstrained"`
	Constrained   *stream.Moments      `json:"constrained"`
	Error         string               `json:"error,omitempty"`
}

func newConstrainCmd(a *app) *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "constrain",
		Short: "Train an emulator and keep the candidates whose predictions match the observations",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		in, err := loadRun(cfgPath)
		if err != nil {
			return err
		}
		if in.cfg.Data.Observations == "" {
			return fmt.Errorf("%w: data.observations is required for constrain", config.ErrInvalid)
		}
		obs, err := readVector(in.cfg.Data.Observations, in.cfg.Data.Header)
		if err != nil {
			return err
		}
		opts, err := a.options(in, "Constrain")
		if err != nil {
			return err
		}
		c, err := emulator.NewObsConstraint(obs, opts...)
		if err != nil {
			return err
		}
		if err = c.Train(ctx, in.ts); err != nil {
			return err
		}
		res, runErr := c.Constrain(ctx, batch.NewMatrixSource(in.candidates))
		if res == nil {
			return runErr
		}
		rep, _ := c.Report()
		out := constrainOutput{
			Train:         rep,
			Candidates:    len(res.Valid),
			ValidCount:    res.ValidCount,
			Unconstrained: res.Unconstrained,
			Constrained:   res.Constrained,
		}
		if runErr != nil {
			out.Error = runErr.Error()
		}

		if in.cfg.StoreDir != "" {
			if out.RunID, err = a.store(cmd, in.cfg, res, &rep, runErr); err != nil {
				return errors.Join(runErr, err)
			}
		}
		if err = a.printJSON(out); err != nil {
			return err
		}

		return runErr
	})
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "run description (YAML)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// store archives a constraint run and returns its ID.
func (a *app) store(cmd *cobra.Command, cfg config.Config, res *emulator.ConstraintResult, rep *emulator.TrainReport, runErr error) (string, error) {
	s, err := results.Open(results.Config{Path: cfg.StoreDir, Logger: a.logger})
	if err != nil {
		return "", err
	}
	defer s.Close()

	params := map[string]any{
		"batch_size": cfg.BatchSize,
		"tolerance":  cfg.Tolerance,
		"quorum":     cfg.Quorum,
		"log_obs":    cfg.LogObs,
		"inputs":     cfg.Data.Inputs,
		"candidates": cfg.Data.Candidates,
	}
	run, err := results.NewRun(res, params, runErr)
	if err != nil {
		return "", err
	}
	run.Train = rep
	if err = s.Put(cmd.Context(), run); err != nil {
		return "", err
	}
	a.logger.Info("run stored", slog.String("run_id", run.ID), slog.String("store", cfg.StoreDir))

	return run.ID, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
