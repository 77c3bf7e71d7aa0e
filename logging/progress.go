// SPDX-License-Identifier: MIT

package logging

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum spacing of progress records.
const DefaultProgressInterval = 2 * time.Second

// ProgressObserver logs streaming progress at Info. The first batch and
// the final batch are always logged; batches in between at most once per
// interval.
type ProgressObserver struct {
	logger *slog.Logger
	msg    string
	every  *rate.Sometimes
	start  time.Time
}

// NewProgressObserver returns an observer logging msg with done/total
// attributes. interval <= 0 means DefaultProgressInterval.
func NewProgressObserver(logger *slog.Logger, msg string, interval time.Duration) *ProgressObserver {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if logger == nil {
		logger = Discard()
	}

	return &ProgressObserver{
		logger: logger,
		msg:    msg,
		every:  &rate.Sometimes{First: 1, Interval: interval},
		start:  time.Now(),
	}
}

// Observe implements batch.Observer.
func (p *ProgressObserver) Observe(done, total int) {
	if done >= total {
		p.emit(done, total)
		return
	}
	p.every.Do(func() { p.emit(done, total) })
}

func (p *ProgressObserver) emit(done, total int) {
	pct := 100.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	p.logger.LogAttrs(context.Background(), slog.LevelInfo, p.msg,
		slog.Int("done", done),
		slog.Int("total", total),
		slog.Float64("percent", pct),
		slog.Duration("elapsed", time.Since(p.start)))
}
