// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/matrix"
)

// writeRun lays out a small linear simulator (y = x0 + 2·x1) with its
// config and returns the config path.
func writeRun(t *testing.T, extra string) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	var x, y, cand strings.Builder
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			a, b := float64(i)/3, float64(j)/2
			fmt.Fprintf(&x, "%g,%g\n", a, b)
			fmt.Fprintf(&y, "%g\n", a+2*b)
		}
	}
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&cand, "%g,%g\n", float64(i%5)/4, float64(i/5)/4)
	}
	files := map[string]string{
		"x.csv":   x.String(),
		"y.csv":   y.String(),
		"c.csv":   cand.String(),
		"obs.csv": "1.5\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	cfg := fmt.Sprintf(`data:
  inputs: %[1]s/x.csv
  outputs: %[1]s/y.csv
  candidates: %[1]s/c.csv
  observations: %[1]s/obs.csv
batch_size: 7
max_iterations: 10
%[2]s`, dir, extra)
	cfgPath = filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	return cfgPath, dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--log-level", "warn"}, args...))
	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

func TestSampleCommand(t *testing.T) {
	cfg, _ := writeRun(t, "")
	out, err := execute(t, "sample", "--config", cfg)
	require.NoError(t, err)

	var got sampleOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Moments)
	assert.Equal(t, 25, got.Moments.Count)
	require.Len(t, got.Moments.Mean, 1)
	// Candidates span [0,1]², so the mean of x0 + 2·x1 is 1.5.
	assert.InDelta(t, 1.5, got.Moments.Mean[0], 0.3)
	assert.Equal(t, []int{0, 1}, got.Train.ActiveDims)
}

func TestConstrainCommandStoresRun(t *testing.T) {
	// A wide tolerance accepts every candidate.
	cfg, _ := writeRun(t, "tolerance: 100\nstore_dir: "+filepath.Join(t.TempDir(), "store")+"\n")
	out, err := execute(t, "constrain", "--config", cfg)
	require.NoError(t, err)

	var got constrainOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 25, got.Candidates)
	assert.Equal(t, 25, got.ValidCount)
	require.NotNil(t, got.Constrained)
	assert.Empty(t, got.Error)
	require.NotEmpty(t, got.RunID)
}

func TestConstrainCommandNoValidSamples(t *testing.T) {
	store := filepath.Join(t.TempDir(), "store")
	cfg, dir := writeRun(t, "store_dir: "+store+"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "obs.csv"), []byte("1000\n"), 0o600))

	out, err := execute(t, "constrain", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fewer than two valid samples")

	var got constrainOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 0, got.ValidCount)
	assert.Nil(t, got.Constrained)
	assert.NotEmpty(t, got.Error)

	// The failed run is still archived.
	listed, err := execute(t, "runs", "list", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, listed, got.RunID)

	shown, err := execute(t, "runs", "show", got.RunID, "--store", store)
	require.NoError(t, err)
	assert.Contains(t, shown, `"valid_count": 0`)

	_, err = execute(t, "runs", "show", "nope", "--store", store)
	assert.Error(t, err)
}

func TestConfigErrors(t *testing.T) {
	_, err := execute(t, "sample")
	assert.Error(t, err, "--config is required")

	_, err = execute(t, "sample", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	cfg, _ := writeRun(t, "quorum: 2\n")
	_, err = execute(t, "constrain", "--config", cfg)
	assert.Error(t, err)

	_, err = execute(t, "--log-level", "loud", "sample", "--config", cfg)
	assert.Error(t, err)
}

func TestParseMatrix(t *testing.T) {
	t.Parallel()

	m, err := parseMatrix(strings.NewReader("a,b\n# comment\n1, 2\n3,4\n"), "mem", true)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	_, err = parseMatrix(strings.NewReader("1,2\n3\n"), "mem", false)
	assert.Error(t, err, "ragged rows")
	_, err = parseMatrix(strings.NewReader("1,x\n"), "mem", false)
	assert.Error(t, err)
	_, err = parseMatrix(strings.NewReader(""), "mem", false)
	assert.Error(t, err)
	_, err = parseMatrix(strings.NewReader("1,NaN\n"), "mem", false)
	assert.ErrorIs(t, err, matrix.ErrNaNInf)
}
