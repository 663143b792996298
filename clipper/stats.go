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
	"time"

	"github.com/defsub/clipcast/log"
)

// SyncStats snapshots view/like/comment counts for published clips not
// checked within the stats interval. Read-only against the platform;
// the clips themselves are never modified.
func (c *Clipper) SyncStats(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-c.config.Clipper.StatsInterval)
	clips := c.publishedClips(cutoff)
	if len(clips) == 0 {
		return nil
	}

	ids := make([]string, 0, len(clips))
	byVideo := make(map[string]ExtractedClip, len(clips))
	for _, clip := range clips {
		if clip.VideoID == "" {
			continue
		}
		ids = append(ids, clip.VideoID)
		byVideo[clip.VideoID] = clip
	}

	stats, err := c.platform.VideoStats(ctx, ids)
	if err != nil {
		return err
	}
	var updated int
	for videoID, s := range stats {
		clip, ok := byVideo[videoID]
		if ok == false {
			continue
		}
		c.updateClipStats(clip.ID, s.Views, s.Likes, s.Comments)
		updated++
	}
	log.Printf("stats refreshed for %d of %d clips\n", updated, len(ids))
	return nil
}

// PipelineStats is an operator summary of the whole pipeline.
type PipelineStats struct {
	Channels       int64
	Accounts       int64
	Linkages       int64
	PendingJobs    int64
	ActiveJobs     int64
	CompletedJobs  int64
	FailedJobs     int64
	ClipsGenerated int64
	ClipsPosted    int64
}

func (c *Clipper) Stats() PipelineStats {
	var stats PipelineStats
	c.db.Model(&SourceChannel{}).Count(&stats.Channels)
	c.db.Model(&DestinationAccount{}).Count(&stats.Accounts)
	c.db.Model(&Linkage{}).Count(&stats.Linkages)
	c.db.Model(&ClippingJob{}).Where("status = ?", StatusPending).
		Count(&stats.PendingJobs)
	c.db.Model(&ClippingJob{}).Where("status not in ?",
		[]JobStatus{StatusPending, StatusCompleted, StatusFailed, StatusCancelled}).
		Count(&stats.ActiveJobs)
	c.db.Model(&ClippingJob{}).Where("status = ?", StatusCompleted).
		Count(&stats.CompletedJobs)
	c.db.Model(&ClippingJob{}).Where("status = ?", StatusFailed).
		Count(&stats.FailedJobs)
	c.db.Model(&ExtractedClip{}).Count(&stats.ClipsGenerated)
	c.db.Model(&ExtractedClip{}).Where("upload_status = ?", UploadPublished).
		Count(&stats.ClipsPosted)
	return stats
}
