// SPDX-License-Identifier: MIT

package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrUnknownDevice indicates a device index outside [0, Len()).
	ErrUnknownDevice = errors.New("device: unknown device index")

	// ErrBadPool indicates a pool with no devices or a capacity < 1.
	ErrBadPool = errors.New("device: pool needs at least one device of capacity >= 1")
)

// DefaultCapacity is the number of concurrent leases a device admits.
const DefaultCapacity = 1

// Pool arbitrates access to a fixed set of devices.
type Pool struct {
	sems     []*semaphore.Weighted
	capacity int64
}

// NewPool returns a pool of n devices, each admitting capacity concurrent leases.
func NewPool(n, capacity int) (*Pool, error) {
	if n < 1 || capacity < 1 {
		return nil, fmt.Errorf("device: NewPool(%d, %d): %w", n, capacity, ErrBadPool)
	}
	p := &Pool{sems: make([]*semaphore.Weighted, n), capacity: int64(capacity)}
	for i := range p.sems {
		p.sems[i] = semaphore.NewWeighted(p.capacity)
	}

	return p, nil
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide single-device pool.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool, _ = NewPool(1, DefaultCapacity)
	})

	return defaultPool
}

// Len returns the number of devices.
func (p *Pool) Len() int { return len(p.sems) }

// Capacity returns the number of concurrent leases per device.
func (p *Pool) Capacity() int { return int(p.capacity) }

// Acquire blocks until device idx has a free slot or ctx is done.
// Errors: ErrUnknownDevice, ctx.Err().
func (p *Pool) Acquire(ctx context.Context, idx int) (*Lease, error) {
	if idx < 0 || idx >= len(p.sems) {
		return nil, fmt.Errorf("device: Acquire(%d) of %d: %w", idx, len(p.sems), ErrUnknownDevice)
	}
	if err := p.sems[idx].Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("device: Acquire(%d): %w", idx, err)
	}

	return &Lease{sem: p.sems[idx], idx: idx}, nil
}

// TryAcquire returns a lease if device idx has a free slot right now.
func (p *Pool) TryAcquire(idx int) (*Lease, bool) {
	if idx < 0 || idx >= len(p.sems) || !p.sems[idx].TryAcquire(1) {
		return nil, false
	}

	return &Lease{sem: p.sems[idx], idx: idx}, true
}

// Do runs fn while holding a lease on device idx.
func (p *Pool) Do(ctx context.Context, idx int, fn func(ctx context.Context) error) error {
	l, err := p.Acquire(ctx, idx)
	if err != nil {
		return err
	}
	defer l.Release()

	return fn(ctx)
}

// Lease is a held slot on one device. Release is idempotent.
type Lease struct {
	sem  *semaphore.Weighted
	idx  int
	once sync.Once
}

// Device returns the leased device index.
func (l *Lease) Device() int { return l.idx }

// Release returns the slot to the pool.
func (l *Lease) Release() {
	l.once.Do(func() { l.sem.Release(1) })
}
