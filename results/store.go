// SPDX-License-Identifier: MIT

// Package results persists constraint runs in a badger key-value store.
//
// Each Run is a JSON value under the key "run/<id>". IDs are UUIDv7, so
// key order is creation order and List returns runs oldest first.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/katalvlaran/gcem/emulator"
	"github.com/katalvlaran/gcem/stream"
)

var (
	// ErrRunNotFound indicates no run is stored under the requested ID.
	ErrRunNotFound = errors.New("results: run not found")

	// ErrNoPath indicates a persistent store was requested without a directory.
	ErrNoPath = errors.New("results: path is required for a persistent store")
)

const keyPrefix = "run/"

// Run is one stored constraint run.
type Run struct {
	ID            string                `json:"id"`
	CreatedAt     time.Time             `json:"created_at"`
	Params        map[string]any        `json:"params,omitempty"`
	Candidates    int                   `json:"candidates"`
	ValidCount    int                   `json:"valid_count"`
	Unconstrained *stream.Moments       `json:"unconstrained,omitempty"`
	Constrained   *stream.Moments       `json:"constrained,omitempty"`
	Valid         []bool                `json:"valid,omitempty"`
	Train         *emulator.TrainReport `json:"train,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// NewRun captures res under a fresh ID. runErr is the (possibly partial)
// error Constrain returned alongside res.
func NewRun(res *emulator.ConstraintResult, params map[string]any, runErr error) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("results: NewRun: %w", err)
	}
	r := &Run{ID: id.String(), CreatedAt: time.Now().UTC(), Params: params}
	if res != nil {
		r.Candidates = len(res.Valid)
		r.ValidCount = res.ValidCount
		r.Unconstrained = res.Unconstrained
		r.Constrained = res.Constrained
		r.Valid = res.Valid
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	return r, nil
}

// Config configures Open.
type Config struct {
	Path     string
	InMemory bool
	Logger   *slog.Logger // nil silences badger
}

// Store is a badger-backed run archive. It is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the store described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, ErrNoPath
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("results: create %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("results: open badger: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Put writes r, replacing any run with the same ID.
func (s *Store) Put(ctx context.Context, r *Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil || r.ID == "" {
		return errors.New("results: Put: run has no ID")
	}
	val, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("results: Put %s: %w", r.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+r.ID), val)
	})
}

// Get returns the run stored under id.
// Errors: ErrRunNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var r Run
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("results: Get %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("results: Get %s: %w", id, err)
	}

	return &r, nil
}

// List returns every stored run in key order, without validity masks.
func (s *Store) List(ctx context.Context) ([]*Run, error) {
	var runs []*Run
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r Run
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			r.Valid = nil
			runs = append(runs, &r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("results: List: %w", err)
	}

	return runs, nil
}

// Delete removes the run stored under id.
// Errors: ErrRunNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("results: Delete %s: %w", id, ErrRunNotFound)
	}

	return err
}

// badgerLogger routes badger's printf logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
