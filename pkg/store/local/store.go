// Package local implements packmule's local persistence backend: a
// hierarchical tree of per-entity JSON files under a base directory, plus a
// content-addressable asset cache filled by a bounded-parallelism download
// pipeline.
//
// One Store serves one session. Prepare acquires a cross-process lock over
// the base directory and starts the pipeline; Complete drains the pipeline
// and releases the lock; Cancel tears everything down without waiting. A
// single writer process per store directory is assumed and enforced by the
// lock.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mossrise/packmule/internal/logger"
	"github.com/mossrise/packmule/pkg/asset"
	"github.com/mossrise/packmule/pkg/metrics"
	"github.com/mossrise/packmule/pkg/store"
)

// defaultLockTimeout bounds how long Prepare waits for another process to
// release the store before failing with ErrStoreInUse.
const defaultLockTimeout = 5 * time.Second

// Options configures a Store.
type Options struct {
	// AssetsPath is the assets cache root. Defaults to <basePath>/Assets.
	AssetsPath string

	// Pipeline configures the asset download pipeline.
	Pipeline asset.PipelineConfig

	// LockTimeout bounds the wait for the store lock during Prepare.
	// Zero means the default (5s).
	LockTimeout time.Duration

	// Classifier is the content-classification capability used for
	// extension inference and MIME queries. Defaults to the built-in
	// magic-byte classifier.
	Classifier asset.Classifier

	// Metrics receives pipeline observations. Nil disables collection.
	Metrics metrics.PipelineMetrics
}

// Store is the local data store façade. It composes the entity tree, the
// asset locator/pipeline, the per-session dedup registry and the store lock
// behind the store.DataStore contract.
//
// No entity contents are cached in memory between calls; the filesystem
// beneath the base path owns all state. The only in-memory session state is
// the dedup registry and the per-owner fetched counts kept for reporting.
type Store struct {
	basePath string
	locator  *asset.Locator
	opts     Options

	lock *storeLock

	mu       sync.Mutex
	prepared bool
	registry *asset.Registry
	pipeline *asset.Pipeline
	cancel   context.CancelFunc

	countsMu     sync.Mutex
	recordCounts map[string]int
	groupCounts  map[string]int
}

var _ store.DataStore = (*Store)(nil)

// New creates a Store over basePath. No filesystem activity happens until
// Prepare.
func New(basePath string, opts Options) *Store {
	if opts.AssetsPath == "" {
		opts.AssetsPath = defaultAssetsPath(basePath)
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if opts.Classifier == nil {
		opts.Classifier = asset.NewClassifier()
	}

	return &Store{
		basePath:     basePath,
		locator:      asset.NewLocator(opts.AssetsPath, opts.Classifier),
		opts:         opts,
		lock:         newStoreLock(basePath),
		recordCounts: make(map[string]int),
		groupCounts:  make(map[string]int),
	}
}

// BasePath returns the store's base directory.
func (s *Store) BasePath() string {
	return s.basePath
}

// Prepare opens a session: it creates the assets directory, acquires the
// cross-process store lock with a bounded wait, and starts the pipeline
// workers. ctx is the session cancellation signal; the pipeline honors it
// for the rest of the session.
//
// This is the only operation that can fail due to contention with another
// process, with an error matching store.ErrStoreInUse.
func (s *Store) Prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prepared {
		return fmt.Errorf("store already prepared")
	}

	if err := ensureDir(s.opts.AssetsPath); err != nil {
		return fmt.Errorf("failed to create assets directory: %w", err)
	}

	if err := s.lock.Acquire(ctx, s.opts.LockTimeout); err != nil {
		return err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.registry = asset.NewRegistry()
	s.pipeline = asset.NewPipeline(s.locator, s.opts.Pipeline, s.opts.Metrics)
	s.pipeline.Start(sessionCtx)
	s.prepared = true

	logger.Info("store session opened at %s", s.basePath)
	return nil
}

// Complete closes the session normally: it signals that no more jobs will be
// posted, waits for the pipeline to fully drain - regardless of individual
// asset failures - and releases the store lock. Must be called before the
// process exits for a normal session.
func (s *Store) Complete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prepared {
		s.pipeline.Drain()
		s.cancel()
		s.prepared = false
		logger.Info("store session completed at %s (%d assets claimed)",
			s.basePath, s.registry.Len())
	}

	return s.lock.Release()
}

// Cancel tears the session down without waiting for the pipeline: the
// session context is cancelled so in-flight fetches stop at their next
// blocking point, queued jobs are abandoned, and the lock is released
// immediately so another process can proceed while workers wind down.
func (s *Store) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.prepared {
		s.cancel()
		s.pipeline.Abandon()
		s.prepared = false
		logger.Warn("store session cancelled at %s", s.basePath)
	}

	return s.lock.Release()
}

// Close releases the lock unconditionally if still held. Idempotent; safe
// to defer right after New as a disposal guard.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.prepared {
		s.cancel()
		s.pipeline.Abandon()
		s.prepared = false
	}
	s.mu.Unlock()

	return s.lock.Release()
}

// session returns the pipeline and registry of the active session.
func (s *Store) session() (*asset.Pipeline, *asset.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.prepared {
		return nil, nil, fmt.Errorf("store is not prepared")
	}
	return s.pipeline, s.registry, nil
}

// RecordCount returns how many records the last GetRecords call fetched for
// owner, for end-of-run reporting. Zero if GetRecords was never called.
func (s *Store) RecordCount(ownerID string) int {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	return s.recordCounts[ownerID]
}

// GroupCount returns how many groups the last GetGroups call fetched for
// owner.
func (s *Store) GroupCount(ownerID string) int {
	s.countsMu.Lock()
	defer s.countsMu.Unlock()
	return s.groupCounts[ownerID]
}
