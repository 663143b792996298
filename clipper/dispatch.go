// Copyright (C) 2023 The Clipcast Authors.
//
// This file is part of Clipcast.
//
// Clipcast is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Clipcast is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Clipcast.  If not, see <https://www.gnu.org/licenses/>.

package clipper

import (
	"context"
	"sync"
	"time"

	"github.com/defsub/clipcast/log"
	"golang.org/x/sync/semaphore"
)

// how often a running job checks its row for an external cancel
const cancelPollInterval = 5 * time.Second

// Dispatcher claims pending jobs and runs each in its own goroutine,
// capped by a weighted semaphore. A job's context is cancelled when its
// row is flipped to cancelled, in-process or by another process.
type Dispatcher struct {
	clipper *Clipper
	workers *semaphore.Weighted

	mu     sync.Mutex
	active map[uint]context.CancelFunc
}

func NewDispatcher(clipper *Clipper) *Dispatcher {
	workers := clipper.config.Clipper.Workers
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		clipper: clipper,
		workers: semaphore.NewWeighted(int64(workers)),
		active:  make(map[uint]context.CancelFunc),
	}
}

// Dispatch claims as many pending jobs as there are free worker slots.
// Pending jobs left over from a prior process are claimable like any
// other; jobs stuck mid-step are not touched and need operator action.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	if d.clipper.Enabled() == false {
		return nil
	}
	for _, job := range d.clipper.pendingJobs(d.clipper.config.Clipper.Workers) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.workers.TryAcquire(1) == false {
			log.Printf("workers busy, job %d waits for next cycle\n", job.ID)
			break
		}
		job := job
		if d.clipper.claimJob(&job) == false {
			// another dispatcher won the claim
			d.workers.Release(1)
			continue
		}
		go d.run(ctx, job)
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context, job ClippingJob) {
	defer d.workers.Release(1)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.register(job.ID, cancel)
	defer d.unregister(job.ID)

	// watch the row so an out-of-process cancel interrupts the worker
	done := make(chan struct{})
	defer close(done)
	go d.watchCancel(jobCtx, cancel, job.ID, done)

	d.clipper.processJob(jobCtx, job)
}

func (d *Dispatcher) watchCancel(ctx context.Context, cancel context.CancelFunc,
	jobID uint, done chan struct{}) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := d.clipper.lookupJob(jobID)
			if err == nil && job.Status == StatusCancelled {
				log.Printf("job %d cancelled externally\n", jobID)
				cancel()
				return
			}
		}
	}
}

func (d *Dispatcher) register(jobID uint, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active[jobID] = cancel
}

func (d *Dispatcher) unregister(jobID uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.active, jobID)
}

// Cancel flips the job row to cancelled and interrupts the worker if
// this process is running it. A download in flight may leave a partial
// file; completed uploads stay published.
func (d *Dispatcher) Cancel(jobID uint) error {
	err := d.clipper.CancelJob(jobID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	cancel, ok := d.active[jobID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

// BootSweep resets state abandoned by a crashed process: in-flight
// poll rows are cleared so the next cycle can proceed. Jobs stuck in a
// non-terminal step are reported, not resumed.
func (c *Clipper) BootSweep() {
	swept := c.SweepInFlight()
	if swept > 0 {
		log.Printf("cleared %d stale poll flags\n", swept)
	}
	for _, status := range []JobStatus{
		StatusDownloading, StatusDownloaded, StatusAnalyzing,
		StatusVectorized, StatusExtractingClips, StatusClipsExtracted,
		StatusPosting,
	} {
		for _, job := range c.Jobs(status) {
			log.Printf("job %d stuck in %s since %s; cancel or requeue\n",
				job.ID, job.Status, job.StartedAt.Format(time.RFC3339))
		}
	}
}
