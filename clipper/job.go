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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/defsub/clipcast/log"
)

// processJob drives a claimed job through the remaining pipeline
// states. The claim already moved it to downloading. Each step either
// writes the next state or fails the job once and stops; partial
// artifacts are left on disk for inspection.
func (c *Clipper) processJob(ctx context.Context, job ClippingJob) {
	logger := log.WithPrefix(fmt.Sprintf("job %d", job.ID))
	logger.Printf("processing %s (%s)", job.SourceVideoID, job.SourceVideoTitle)

	linkage, err := c.lookupLinkage(job.LinkageID)
	if err != nil {
		c.failJob(&job, fmt.Errorf("linkage missing: %w", err))
		return
	}
	account, err := c.lookupAccount(linkage.DestinationID)
	if err != nil {
		c.failJob(&job, fmt.Errorf("destination missing: %w", err))
		return
	}

	// downloading -> downloaded
	if err := c.downloadStep(ctx, &job); err != nil {
		c.stepFailed(ctx, &job, err)
		return
	}

	// analyzing -> vectorized
	if err := c.indexStep(ctx, &job); err != nil {
		c.stepFailed(ctx, &job, err)
		return
	}

	// extracting_clips -> clips_extracted
	clips, err := c.selectStep(ctx, &job, linkage)
	if err != nil {
		c.stepFailed(ctx, &job, err)
		return
	}

	// posting
	uploaded, err := c.postStep(ctx, &job, account, clips)
	if err != nil {
		c.stepFailed(ctx, &job, err)
		return
	}

	// completed
	err = c.transition(&job, StatusCompleted, map[string]interface{}{
		"completed_at": time.Now().UTC(),
	})
	if err != nil {
		logger.Printf("lost completion race: %s", err)
		return
	}
	c.bumpLinkageCounters(linkage.ID, len(clips), uploaded)
	c.cleanupDownload(job)
	c.indexClipLibrary(job, clips)
	logger.Printf("completed with %d clips, %d published", len(clips), uploaded)
}

// stepFailed records a step error unless the job was cancelled out from
// under the worker, in which case the cancel outcome stands.
func (c *Clipper) stepFailed(ctx context.Context, job *ClippingJob, cause error) {
	if errors.Is(cause, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		// cancel already wrote the terminal row
		log.Printf("job %d cancelled during %s\n", job.ID, job.Status)
		return
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		cause = fmt.Errorf("%s timeout: %w", job.Status, cause)
	}
	log.Printf("job %d failed: %s\n", job.ID, cause)
	c.failJob(job, cause)
}

func (c *Clipper) downloadPath(job ClippingJob) string {
	return filepath.Join(c.config.Clipper.DownloadDir,
		fmt.Sprintf("clipping_%d_%s.mp4", job.ID, job.SourceVideoID))
}

func (c *Clipper) downloadStep(ctx context.Context, job *ClippingJob) error {
	if err := c.downloader.Check(); err != nil {
		return fmt.Errorf("%w: %s", ErrDownloaderMissing, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.Clipper.DownloadTimeout)
	defer cancel()

	outputPath := c.downloadPath(*job)
	result, err := c.downloader.Download(ctx, videoURL(job.SourceVideoID), outputPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}
	fields := map[string]interface{}{
		"local_video_path": result.Path,
	}
	if result.Duration > 0 {
		fields["source_video_duration"] = result.Duration
	}
	err = c.transition(job, StatusDownloaded, fields)
	if err != nil {
		return err
	}
	job.LocalVideoPath = result.Path
	return nil
}

func (c *Clipper) indexStep(ctx context.Context, job *ClippingJob) error {
	if err := c.transition(job, StatusAnalyzing, nil); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.Clipper.IndexTimeout)
	defer cancel()
	namespace := fmt.Sprintf("video_%d_%s", job.ID, job.SourceVideoID)
	err := c.IndexVideo(ctx, job.LocalVideoPath, job.SourceVideoID, namespace)
	if err != nil {
		return err
	}
	return c.transition(job, StatusVectorized, nil)
}

// selectStep runs the AI selection and persists the surviving clips in
// candidate order.
func (c *Clipper) selectStep(ctx context.Context, job *ClippingJob,
	linkage Linkage) ([]ExtractedClip, error) {
	if err := c.transition(job, StatusExtractingClips, nil); err != nil {
		return nil, err
	}
	clips, err := c.extractClips(ctx, *job, linkage.ClippingConfig())
	if err != nil {
		return nil, err
	}
	for i := range clips {
		if err := c.createClip(&clips[i]); err != nil {
			return nil, err
		}
	}
	err = c.transition(job, StatusClipsExtracted, nil)
	if err != nil {
		return nil, err
	}
	return clips, nil
}

// postStep uploads each clip in insertion order. A failed upload marks
// that clip and moves on; the step itself only fails when the job row
// is lost. Returns the published count.
func (c *Clipper) postStep(ctx context.Context, job *ClippingJob,
	account DestinationAccount, clips []ExtractedClip) (int, error) {
	if err := c.transition(job, StatusPosting, nil); err != nil {
		return 0, err
	}
	var uploaded int
	for _, clip := range clips {
		if ctx.Err() != nil {
			return uploaded, ctx.Err()
		}
		err := c.publishClip(ctx, &account, clip)
		if err != nil {
			log.Printf("job %d clip %d upload: %s\n", job.ID, clip.ClipNumber, err)
			continue
		}
		uploaded++
		c.updateJobProgress(*job, postingProgress(uploaded, len(clips)))
		c.archiveClip(clip)
	}
	return uploaded, nil
}

// cleanupDownload removes the source scratch file; the rendered clips
// stay until the retention sweep.
func (c *Clipper) cleanupDownload(job ClippingJob) {
	if job.LocalVideoPath == "" {
		return
	}
	if err := os.Remove(job.LocalVideoPath); err != nil && os.IsNotExist(err) == false {
		log.Printf("cleanup %s: %s\n", job.LocalVideoPath, err)
	}
}

// Sweep removes scratch files for jobs that reached a terminal state
// longer ago than the retention window, and drops their vector records.
func (c *Clipper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-c.config.Clipper.ScratchRetention)
	var jobs []ClippingJob
	c.db.Where("status in ? and completed_at < ?",
		[]JobStatus{StatusCompleted, StatusFailed, StatusCancelled}, cutoff).
		Find(&jobs)
	for _, job := range jobs {
		c.cleanupDownload(job)
		for _, clip := range c.jobClips(job.ID) {
			if clip.LocalClipPath == "" {
				continue
			}
			if err := os.Remove(clip.LocalClipPath); err == nil {
				c.purgeAnalysis(ctx, clip.LocalClipPath)
			}
		}
		if job.LocalVideoPath != "" {
			c.purgeAnalysis(ctx, job.LocalVideoPath)
		}
	}
	return nil
}
