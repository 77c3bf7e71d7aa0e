// SPDX-License-Identifier: MIT

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/matrix"
)

// readMatrix loads a numeric CSV file, one row per run or candidate.
// Lines starting with '#' are comments; with header the first record is skipped.
// NaN and Inf fields are rejected.
func readMatrix(path string, header bool) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseMatrix(f, path, header)
}

func parseMatrix(r io.Reader, name string, header bool) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		data []float64
		rows int
		cols int
	)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if header && line == 1 {
			continue
		}
		cols = len(rec)
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%s: record %d field %d: %w", name, line, j+1, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%s: no data rows", name)
	}

	d, err := matrix.Flatten([]int{rows, cols}, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return matrix.ToGonum(d)
}

// readVector loads a CSV holding a single row or a single column.
func readVector(path string, header bool) ([]float64, error) {
	m, err := readMatrix(path, header)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if r != 1 && c != 1 {
		return nil, fmt.Errorf("%s: want one row or one column, got %d×%d", path, r, c)
	}

	return append([]float64(nil), m.RawMatrix().Data...), nil
}
