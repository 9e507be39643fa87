package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/mossrise/packmule/internal/logger"
	"github.com/mossrise/packmule/pkg/metrics"
)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Parallelism bounds the number of jobs executing concurrently. It
	// bounds filesystem and network activity, not queue depth. Values < 1
	// are treated as 1.
	Parallelism int

	// CarefulDisk serializes hash verification of existing files behind a
	// single permit shared by all workers, trading throughput for reduced
	// random-access contention on spinning media. Fetches are unaffected.
	CarefulDisk bool
}

// Pipeline executes one "ensure asset present and valid" job per distinct
// hash with bounded parallelism.
//
// Jobs are queued without bound: producers post and continue, never blocking
// on pipeline saturation. Drain is observed only at session completion.
// For each job a worker resolves the target path, verifies an existing file
// against the job's hash (the resume path: a matching file means zero
// network access), fetches from the job's Source when no valid copy exists,
// and finally infers a file extension from content. A failed job is reported
// through the job's progress channel and never re-enqueued; failures do not
// abort sibling jobs or the session.
//
// The session cancellation context passed to Start is honored at every
// blocking point: no new job starts once it is signaled, and in-flight
// verification and fetches observe it.
type Pipeline struct {
	locator     *Locator
	metrics     metrics.PipelineMetrics
	parallelism int

	// verifyPermit is the careful-disk-mode permit. Nil disables the mode.
	verifyPermit *semaphore.Weighted

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Job
	closed bool

	pending sync.WaitGroup
	workers sync.WaitGroup
}

// NewPipeline creates a Pipeline over the given locator. A nil
// pipelineMetrics disables metric collection.
func NewPipeline(locator *Locator, cfg PipelineConfig, pipelineMetrics metrics.PipelineMetrics) *Pipeline {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if pipelineMetrics == nil {
		pipelineMetrics = metrics.NopPipelineMetrics{}
	}

	p := &Pipeline{
		locator:     locator,
		metrics:     pipelineMetrics,
		parallelism: cfg.Parallelism,
	}
	p.cond = sync.NewCond(&p.mu)

	if cfg.CarefulDisk {
		p.verifyPermit = semaphore.NewWeighted(1)
	}

	return p
}

// Start launches the worker pool. ctx is the session cancellation signal;
// it must outlive the pipeline. Start must be called exactly once.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.parallelism; i++ {
		p.workers.Add(1)
		go p.worker(ctx)
	}
	logger.Debug("asset pipeline started with %d workers (careful disk: %v)",
		p.parallelism, p.verifyPermit != nil)
}

// Post schedules a job. It never blocks and returns immediately; the
// caller must have claimed the job's hash on the session Registry first.
// Posting after Drain or Abandon has begun drops the job.
func (p *Pipeline) Post(job *Job) {
	if job.Progress == nil {
		job.Progress = NopProgress{}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		logger.Warn("asset %s posted after pipeline shutdown, dropping", job.Hash)
		return
	}
	p.pending.Add(1)
	p.queue = append(p.queue, job)
	p.mu.Unlock()

	job.Progress.AssetQueued(job.Size)
	p.metrics.AssetQueued()
	p.cond.Signal()
}

// Drain signals that no more jobs will be posted, waits for every queued
// and in-flight job to finish, and stops the workers. Individual job
// failures do not make Drain fail; it always waits for the full queue.
func (p *Pipeline) Drain() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()

	p.pending.Wait()
	p.workers.Wait()
}

// Abandon stops the pipeline without waiting: queued jobs are discarded and
// reported as failed, workers exit once their current job returns. In-flight
// jobs are expected to observe the session context's cancellation at their
// own blocking points.
func (p *Pipeline) Abandon() {
	p.mu.Lock()
	p.closed = true
	dropped := p.queue
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()

	for _, job := range dropped {
		p.fail(job, fmt.Errorf("session cancelled before download started"))
		p.pending.Done()
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.workers.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(ctx, job)
		p.pending.Done()
	}
}

// run executes a single job. Every job finishes in exactly one of three
// ways: success with verification skip, success with fetch, or failure.
func (p *Pipeline) run(ctx context.Context, job *Job) {
	if err := ctx.Err(); err != nil {
		p.fail(job, err)
		return
	}

	path, err := p.resolveTarget(job)
	if err != nil {
		p.fail(job, err)
		return
	}

	if _, statErr := os.Stat(path); statErr == nil {
		match, verifyErr := p.verify(ctx, job, path)
		if verifyErr == nil && match {
			p.finish(ctx, job, path, true)
			return
		}
		// Mismatch or unreadable file: treat it as absent and let the
		// fetch below overwrite it.
		if verifyErr != nil {
			if ctx.Err() != nil {
				p.fail(job, verifyErr)
				return
			}
			logger.Warn("asset %s could not be verified (%v), refetching", job.Hash, verifyErr)
		} else {
			logger.Warn("asset %s failed integrity check, refetching", job.Hash)
		}
	}

	if err := job.Source.FetchAsset(ctx, job.Hash, path); err != nil {
		p.fail(job, fmt.Errorf("fetch failed: %w", err))
		return
	}

	p.metrics.BytesFetched(job.Size)
	p.finish(ctx, job, path, false)
}

// resolveTarget determines the job's working path. A caller-supplied
// extension is applied up front and always wins over classification.
func (p *Pipeline) resolveTarget(job *Job) (string, error) {
	if job.Extension != "" {
		return p.locator.RenameWithExtension(
			filepath.Join(p.locator.Root(), string(job.Hash)), job.Extension)
	}
	return p.locator.Resolve(job.Hash), nil
}

// verify digests the existing file at path and compares it to the job's
// hash. In careful disk mode the digest read is serialized across all
// workers behind the shared permit.
func (p *Pipeline) verify(ctx context.Context, job *Job, path string) (bool, error) {
	if p.verifyPermit != nil {
		if err := p.verifyPermit.Acquire(ctx, 1); err != nil {
			return false, err
		}
		defer p.verifyPermit.Release(1)
	}

	got, err := HashFile(ctx, path)
	if err != nil {
		return false, err
	}
	return got.Equal(job.Hash), nil
}

func (p *Pipeline) finish(ctx context.Context, job *Job, path string, verified bool) {
	if _, err := p.locator.ClassifyAndRename(ctx, path, false); err != nil {
		logger.Warn("asset %s: %v", job.Hash, err)
	}

	job.Progress.BytesTransferred(job.Size)
	job.Progress.AssetCompleted()
	p.metrics.AssetCompleted(verified)

	if verified {
		logger.Debug("asset %s already present and valid, skipped fetch", job.Hash)
	} else {
		logger.Debug("asset %s fetched (%d bytes)", job.Hash, job.Size)
	}
}

func (p *Pipeline) fail(job *Job, err error) {
	job.Progress.Message("asset %s failed: %v", job.Hash, err)
	p.metrics.AssetFailed()
	logger.Warn("asset %s failed: %v", job.Hash, err)
}
