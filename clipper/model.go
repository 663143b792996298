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
	"time"

	"github.com/defsub/clipcast/lib/gorm"
	"github.com/defsub/clipcast/lib/str"
)

// SourceChannel is a channel whose new uploads are clipped.
type SourceChannel struct {
	gorm.Model
	ChannelID        string `gorm:"uniqueIndex:idx_source_channel"`
	Name             string
	ThumbnailURL     string
	Thumbnail        string // local mirror of ThumbnailURL
	SubscriberCount  int64
	Active           bool
	PollInterval     int // minutes, zero uses the configured default
	LastPolledAt     time.Time
	LastVideoChecked string // newest video id seen by the poller
}

// DestinationAccount is an account that receives published clips.
type DestinationAccount struct {
	gorm.Model
	Name           string
	ChannelID      string
	UserID         string
	AccessToken    string `json:"-"`
	RefreshToken   string `json:"-"`
	TokenExpiry    time.Time
	Active         bool
	RequiresReauth bool
	LastSyncAt     time.Time
}

// Linkage routes clips from a source channel to a destination account
// with a per-route clip policy.
type Linkage struct {
	gorm.Model
	SourceID            uint `gorm:"uniqueIndex:idx_linkage"`
	DestinationID       uint `gorm:"uniqueIndex:idx_linkage"`
	ClipsPerVideo       int
	MinClipDuration     int // seconds
	MaxClipDuration     int // seconds
	Active              bool
	TotalClipsGenerated int64
	TotalClipsPosted    int64
	LastClipGeneratedAt time.Time
}

// CheckPolicy validates the clip policy bounds. Shorts cap uploads at
// three minutes so MaxClipDuration cannot exceed 180 seconds.
func (l Linkage) CheckPolicy() error {
	if l.ClipsPerVideo < 1 || l.ClipsPerVideo > 10 {
		return ErrInvalidPolicy
	}
	if l.MinClipDuration < 5 {
		return ErrInvalidPolicy
	}
	if l.MaxClipDuration > 180 {
		return ErrInvalidPolicy
	}
	if l.MaxClipDuration < l.MinClipDuration {
		return ErrInvalidPolicy
	}
	return nil
}

// ClippingJob tracks one source video through the pipeline for one
// linkage. The (linkage, video) pair is unique so re-discovery of the
// same upload never creates duplicate work.
type ClippingJob struct {
	gorm.Model
	LinkageID           uint   `gorm:"uniqueIndex:idx_job_video"`
	SourceVideoID       string `gorm:"uniqueIndex:idx_job_video"`
	SourceVideoTitle    string
	SourceVideoDuration float64 // seconds
	LocalVideoPath      string
	Status              JobStatus `gorm:"index:idx_job_status"`
	CurrentStep         string
	ProgressPercent     int
	ErrorMessage        string
	StartedAt           time.Time
	CompletedAt         time.Time
}

// ExtractedClip is one rendered clip candidate and its publish state.
type ExtractedClip struct {
	gorm.Model
	JobID          uint `gorm:"index:idx_clip_job"`
	ClipNumber     int
	LocalClipPath  string
	StartTime      float64 // seconds into the source video
	EndTime        float64
	Duration       float64
	Title          string
	Description    string
	Tags           string // comma-separated
	Confidence     float64
	ViralFactors   string
	Criteria       string
	UploadStatus   UploadStatus `gorm:"index:idx_clip_upload"`
	VideoID        string
	URL            string
	PublishedAt    time.Time
	UploadError    string
	ArchiveKey     string
	Views24h       int64
	Likes24h       int64
	Comments24h    int64
	StatsCheckedAt time.Time
}

func (c ExtractedClip) TagList() []string {
	return str.Split(c.Tags)
}

// PollSchedule carries the poller bookkeeping for one source channel.
// InFlight marks a cycle in progress so overlapping runs skip the
// source; a crash leaves it set until the boot sweep clears it.
type PollSchedule struct {
	gorm.Model
	SourceID            uint `gorm:"uniqueIndex:idx_poll_source"`
	NextPollAt          time.Time
	InFlight            bool
	ConsecutiveFailures int
	LastPollDuration    int64 // milliseconds
}

// Setting is a runtime key/value flag, checked live by the poller and
// dispatcher so toggles apply without a restart.
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex:idx_setting_key"`
	Value string
}
