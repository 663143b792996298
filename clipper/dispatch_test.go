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
	"testing"
	"time"
)

// waitTerminal polls the job row until it reaches a terminal state.
func waitTerminal(t *testing.T, c *Clipper, jobID uint) ClippingJob {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := c.lookupJob(jobID)
		if err != nil {
			t.Fatalf("lookup %s\n", err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return ClippingJob{}
}

func TestDispatch(t *testing.T) {
	c, s := testClipper(t)
	channel := testChannel(t, c, "UC1", "")
	account := testAccount(t, c, "dest", time.Now().Add(time.Hour))
	linkage := testLinkage(t, c, channel.ID, account.ID)
	job := testJob(t, c, linkage.ID, "V1")
	s.generator.selectResponse = testCandidates
	s.generator.reviewResponse = "PASS"

	d := NewDispatcher(c)
	if err := d.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch %s\n", err)
	}

	done := waitTerminal(t, c, job.ID)
	if done.Status != StatusCompleted {
		t.Errorf("expected completed got %s (%s)\n", done.Status, done.ErrorMessage)
	}
}

func TestDispatchDisabled(t *testing.T) {
	c, _ := testClipper(t)
	channel := testChannel(t, c, "UC1", "")
	account := testAccount(t, c, "dest", time.Now().Add(time.Hour))
	linkage := testLinkage(t, c, channel.ID, account.ID)
	job := testJob(t, c, linkage.ID, "V1")
	c.UpdateSetting(SettingEnabled, "false")

	d := NewDispatcher(c)
	if err := d.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch %s\n", err)
	}
	stored, _ := c.lookupJob(job.ID)
	if stored.Status != StatusPending {
		t.Errorf("disabled dispatcher should not claim, got %s\n", stored.Status)
	}
}

// The worker cap bounds concurrent claims per cycle.
func TestDispatchWorkerCap(t *testing.T) {
	c, s := testClipper(t)
	c.config.Clipper.Workers = 1
	channel := testChannel(t, c, "UC1", "")
	account := testAccount(t, c, "dest", time.Now().Add(time.Hour))
	linkage := testLinkage(t, c, channel.ID, account.ID)
	one := testJob(t, c, linkage.ID, "V1")
	two := testJob(t, c, linkage.ID, "V2")
	s.generator.selectResponse = testCandidates
	s.generator.reviewResponse = "PASS"

	d := NewDispatcher(c)
	if err := d.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch %s\n", err)
	}
	waitTerminal(t, c, one.ID)

	stored, _ := c.lookupJob(two.ID)
	if stored.Status != StatusPending {
		t.Errorf("second job should wait for the next cycle, got %s\n", stored.Status)
	}

	// the row commits before the worker goroutine releases its slot;
	// drain the semaphore so the next cycle sees the free worker
	if err := d.workers.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire %s\n", err)
	}
	d.workers.Release(1)

	// freed slot picks it up
	if err := d.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch %s\n", err)
	}
	done := waitTerminal(t, c, two.ID)
	if done.Status != StatusCompleted {
		t.Errorf("expected completed got %s\n", done.Status)
	}
}

func TestDispatcherCancelUnknown(t *testing.T) {
	c, _ := testClipper(t)
	d := NewDispatcher(c)
	if err := d.Cancel(12345); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestDispatcherCancelPending(t *testing.T) {
	c, _ := testClipper(t)
	channel := testChannel(t, c, "UC1", "")
	account := testAccount(t, c, "dest", time.Now().Add(time.Hour))
	linkage := testLinkage(t, c, channel.ID, account.ID)
	job := testJob(t, c, linkage.ID, "V1")

	d := NewDispatcher(c)
	if err := d.Cancel(job.ID); err != nil {
		t.Fatalf("cancel %s\n", err)
	}
	stored, _ := c.lookupJob(job.ID)
	if stored.Status != StatusCancelled {
		t.Errorf("expected cancelled got %s\n", stored.Status)
	}
	// cancelled jobs are never claimed
	if err := d.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch %s\n", err)
	}
	stored, _ = c.lookupJob(job.ID)
	if stored.Status != StatusCancelled {
		t.Errorf("cancelled job claimed: %s\n", stored.Status)
	}
}

func TestBootSweep(t *testing.T) {
	c, _ := testClipper(t)
	one := testChannel(t, c, "UC1", "")
	c.markInFlight(one.ID)

	c.BootSweep()
	if c.pollSchedule(one.ID).InFlight {
		t.Error("boot sweep should clear stale poll flags")
	}
}
