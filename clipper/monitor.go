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
	"os"
	"path/filepath"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/defsub/clipcast/log"
)

// maxBackoffShift caps the exponential poll backoff at 32x cadence.
const maxBackoffShift = 5

// Poll runs one monitor cycle: for every due source channel, list the
// newest uploads, diff against the watermark, and enqueue one pending
// job per new video and active linkage. A failure on one source never
// stops the others.
func (c *Clipper) Poll(ctx context.Context) error {
	if c.Enabled() == false {
		return nil
	}
	now := time.Now().UTC()
	for _, channel := range c.dueChannels(now) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.pollChannel(ctx, channel)
	}
	return nil
}

// pollChannel is the per-source critical section. The in-flight flag
// brackets the platform query so overlapping cycles cannot
// double-enqueue; it is cleared on every exit path.
func (c *Clipper) pollChannel(ctx context.Context, channel SourceChannel) {
	if c.markInFlight(channel.ID) == false {
		return
	}
	start := time.Now()
	err := c.pollVideos(ctx, channel)
	c.clearInFlight(channel.ID, time.Since(start), err)
	if err != nil {
		log.Printf("poll %s failed: %s\n", channel.ChannelID, err)
	}
}

func (c *Clipper) pollVideos(ctx context.Context, channel SourceChannel) error {
	videos, err := c.platform.RecentVideos(ctx, channel.ChannelID,
		int64(c.config.Clipper.RecentLimit))
	if err != nil {
		return err
	}

	// walk newest to oldest; stop at the watermark since everything
	// beyond it was already seen
	linkages := c.activeLinkages(channel.ID)
	var enqueued int
	newest := ""
	for _, video := range videos {
		if video.ID == channel.LastVideoChecked {
			break
		}
		fresh := len(linkages) == 0
		if video.Duration > 0 && video.Duration < c.config.Clipper.MinSourceDuration {
			// skip shorts and teasers, but advance past them
			fresh = true
		} else {
			for _, linkage := range linkages {
				if c.hasJob(linkage.ID, video.ID) {
					continue
				}
				fresh = true
				job := ClippingJob{
					LinkageID:           linkage.ID,
					SourceVideoID:       video.ID,
					SourceVideoTitle:    video.Title,
					SourceVideoDuration: video.Duration.Seconds(),
				}
				created, err := c.createJob(&job)
				if err != nil {
					// enqueue failures are rare, retried next cycle
					log.Printf("enqueue %s failed: %s\n", video.ID, err)
					continue
				}
				if created {
					enqueued++
				}
			}
		}
		if fresh && newest == "" {
			newest = video.ID
		}
	}
	if enqueued > 0 {
		log.Printf("poll %s enqueued %d jobs\n", channel.ChannelID, enqueued)
	}

	// the watermark only advances to the newest unseen video; a
	// response with nothing new preserves the previous value so it
	// can never move backwards
	watermark := channel.LastVideoChecked
	if newest != "" {
		watermark = newest
	}
	return c.db.Model(&SourceChannel{}).Where("id = ?", channel.ID).
		Updates(map[string]interface{}{
			"last_polled_at":     time.Now().UTC(),
			"last_video_checked": watermark,
		}).Error
}

// backoff computes the next allowed poll after consecutive failures,
// skipping cycles exponentially up to the cap.
func (c *Clipper) backoff(sourceID uint, failures int) time.Time {
	channel, err := c.lookupChannel(sourceID)
	if err != nil {
		return time.Time{}
	}
	shift := failures
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return time.Now().UTC().Add(c.cadence(channel) * (1 << shift))
}

// AddChannel resolves the channel on the platform, mirrors its
// thumbnail into the image cache, and starts watching it.
func (c *Clipper) AddChannel(ctx context.Context, ref string, pollInterval int) (*SourceChannel, error) {
	info, err := c.platform.ChannelInfo(ctx, ref)
	if err != nil {
		return nil, err
	}
	if existing := c.FindChannel(info.ID); existing != nil {
		return existing, nil
	}
	channel := SourceChannel{
		ChannelID:       info.ID,
		Name:            info.Title,
		ThumbnailURL:    info.ThumbnailURL,
		SubscriberCount: info.SubscriberCount,
		Active:          true,
		PollInterval:    pollInterval,
	}
	if info.ThumbnailURL != "" {
		channel.Thumbnail = c.mirrorThumbnail(info.ID, info.ThumbnailURL)
	}
	err = c.createChannel(&channel)
	if err != nil {
		return nil, err
	}
	c.pollSchedule(channel.ID)
	return &channel, nil
}

// UpdateChannelActive pauses or resumes polling for a source.
func (c *Clipper) UpdateChannelActive(channelID string, active bool) error {
	channel := c.FindChannel(channelID)
	if channel == nil {
		return os.ErrNotExist
	}
	return c.db.Model(channel).Update("active", active).Error
}

func (c *Clipper) mirrorThumbnail(channelID, url string) string {
	dir := c.config.Clipper.ImageCacheDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	resp, err := grab.Get(filepath.Join(dir, channelID), url)
	if err != nil {
		log.Printf("thumbnail fetch failed: %s\n", err)
		return ""
	}
	return resp.Filename
}
