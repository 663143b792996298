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
	"errors"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (c *Clipper) openDB() (err error) {
	cfg := c.config.Clipper.DB.GormConfig()

	switch c.config.Clipper.DB.Driver {
	case "sqlite3":
		c.db, err = gorm.Open(sqlite.Open(c.config.Clipper.DB.Source), cfg)
	case "mysql":
		c.db, err = gorm.Open(mysql.Open(c.config.Clipper.DB.Source), cfg)
	case "postgres":
		c.db, err = gorm.Open(postgres.Open(c.config.Clipper.DB.Source), cfg)
	default:
		err = errors.New("driver not supported")
	}

	if err != nil {
		return
	}

	c.db.AutoMigrate(&SourceChannel{}, &DestinationAccount{}, &Linkage{},
		&ClippingJob{}, &ExtractedClip{}, &PollSchedule{}, &Setting{})
	return
}

func (c *Clipper) closeDB() {
	if c.db == nil {
		return
	}
	conn, err := c.db.DB()
	if err != nil {
		return
	}
	conn.Close()
}

// settings

func (c *Clipper) Setting(key string) string {
	var setting Setting
	err := c.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return ""
	}
	return setting.Value
}

func (c *Clipper) UpdateSetting(key, value string) error {
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

// source channels

func (c *Clipper) Channels() []SourceChannel {
	var channels []SourceChannel
	c.db.Order("name").Find(&channels)
	return channels
}

func (c *Clipper) FindChannel(channelID string) *SourceChannel {
	var list []SourceChannel
	c.db.Where("channel_id = ?", channelID).Find(&list)
	if len(list) > 0 {
		return &list[0]
	}
	return nil
}

func (c *Clipper) lookupChannel(id uint) (SourceChannel, error) {
	var channel SourceChannel
	err := c.db.First(&channel, id).Error
	return channel, err
}

func (c *Clipper) createChannel(channel *SourceChannel) error {
	return c.db.Create(channel).Error
}

// DeleteChannel removes a source channel and its poll schedule. Refused
// while any linkage still references the channel.
func (c *Clipper) DeleteChannel(channelID string) error {
	channel := c.FindChannel(channelID)
	if channel == nil {
		return gorm.ErrRecordNotFound
	}
	var count int64
	c.db.Model(&Linkage{}).Where("source_id = ?", channel.ID).Count(&count)
	if count > 0 {
		return ErrChannelInUse
	}
	c.db.Unscoped().Where("source_id = ?", channel.ID).Delete(&PollSchedule{})
	return c.db.Unscoped().Delete(channel).Error
}

func (c *Clipper) cadence(channel SourceChannel) time.Duration {
	if channel.PollInterval > 0 {
		return time.Duration(channel.PollInterval) * time.Minute
	}
	return c.config.Clipper.PollingInterval
}

// dueChannels selects up to PollLimit active channels whose cadence has
// elapsed and whose backoff gate is open, oldest poll first with never
// polled channels ahead of everything.
func (c *Clipper) dueChannels(now time.Time) []SourceChannel {
	var channels []SourceChannel
	c.db.Where("active = ?", true).
		Order("last_polled_at").
		Find(&channels)

	var due []SourceChannel
	for _, channel := range channels {
		if channel.LastPolledAt.IsZero() == false &&
			now.Before(channel.LastPolledAt.Add(c.cadence(channel))) {
			continue
		}
		schedule := c.pollSchedule(channel.ID)
		if schedule.InFlight {
			continue
		}
		if schedule.NextPollAt.IsZero() == false && now.Before(schedule.NextPollAt) {
			continue
		}
		due = append(due, channel)
		if len(due) == c.config.Clipper.PollLimit {
			break
		}
	}
	return due
}

// poll schedule

func (c *Clipper) pollSchedule(sourceID uint) PollSchedule {
	var schedule PollSchedule
	c.db.Where(PollSchedule{SourceID: sourceID}).FirstOrCreate(&schedule)
	return schedule
}

// markInFlight brackets the platform query for one source. Zero rows
// changed means another cycle holds the source.
func (c *Clipper) markInFlight(sourceID uint) bool {
	result := c.db.Model(&PollSchedule{}).
		Where("source_id = ? and in_flight = ?", sourceID, false).
		Update("in_flight", true)
	return result.RowsAffected == 1
}

func (c *Clipper) clearInFlight(sourceID uint, elapsed time.Duration, pollErr error) {
	schedule := c.pollSchedule(sourceID)
	fields := map[string]interface{}{
		"in_flight":          false,
		"last_poll_duration": elapsed.Milliseconds(),
	}
	if pollErr != nil {
		failures := schedule.ConsecutiveFailures + 1
		fields["consecutive_failures"] = failures
		fields["next_poll_at"] = c.backoff(sourceID, failures)
	} else {
		fields["consecutive_failures"] = 0
		fields["next_poll_at"] = time.Time{}
	}
	c.db.Model(&PollSchedule{}).Where("source_id = ?", sourceID).Updates(fields)
}

// SweepInFlight resets poll rows abandoned by a crashed process. Only
// called on boot, before the scheduler starts.
func (c *Clipper) SweepInFlight() int64 {
	result := c.db.Model(&PollSchedule{}).
		Where("in_flight = ?", true).
		Update("in_flight", false)
	return result.RowsAffected
}

// linkages

func (c *Clipper) Linkages() []Linkage {
	var linkages []Linkage
	c.db.Find(&linkages)
	return linkages
}

func (c *Clipper) activeLinkages(sourceID uint) []Linkage {
	var linkages []Linkage
	c.db.Where("source_id = ? and active = ?", sourceID, true).
		Order("id").Find(&linkages)
	return linkages
}

func (c *Clipper) lookupLinkage(id uint) (Linkage, error) {
	var linkage Linkage
	err := c.db.First(&linkage, id).Error
	return linkage, err
}

func (c *Clipper) CreateLinkage(linkage *Linkage) error {
	if err := linkage.CheckPolicy(); err != nil {
		return err
	}
	if _, err := c.lookupChannel(linkage.SourceID); err != nil {
		return err
	}
	if _, err := c.lookupAccount(linkage.DestinationID); err != nil {
		return err
	}
	return c.db.Create(linkage).Error
}

func (c *Clipper) UpdateLinkageActive(id uint, active bool) error {
	return c.db.Model(&Linkage{}).Where("id = ?", id).
		Update("active", active).Error
}

// bumpLinkageCounters records a completed job. Counters only grow.
func (c *Clipper) bumpLinkageCounters(id uint, generated, posted int) error {
	return c.db.Model(&Linkage{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_clips_generated":  gorm.Expr("total_clips_generated + ?", generated),
			"total_clips_posted":     gorm.Expr("total_clips_posted + ?", posted),
			"last_clip_generated_at": time.Now().UTC(),
		}).Error
}

// destination accounts

func (c *Clipper) Accounts() []DestinationAccount {
	var accounts []DestinationAccount
	c.db.Order("name").Find(&accounts)
	return accounts
}

func (c *Clipper) lookupAccount(id uint) (DestinationAccount, error) {
	var account DestinationAccount
	err := c.db.First(&account, id).Error
	return account, err
}

func (c *Clipper) CreateAccount(account *DestinationAccount) error {
	if account.RefreshToken == "" {
		return errors.New("refresh token required")
	}
	return c.db.Create(account).Error
}

// updateAccountToken persists a refreshed token and its expiry as a
// pair in one statement.
func (c *Clipper) updateAccountToken(id uint, accessToken string, expiry time.Time) error {
	return c.db.Model(&DestinationAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":    accessToken,
			"token_expiry":    expiry,
			"requires_reauth": false,
			"last_sync_at":    time.Now().UTC(),
		}).Error
}

func (c *Clipper) flagReauth(id uint) {
	c.db.Model(&DestinationAccount{}).Where("id = ?", id).
		Update("requires_reauth", true)
}

// clipping jobs

// createJob inserts a pending job; a duplicate (linkage, video) pair is
// a silent no-op. Returns true when a row was created.
func (c *Clipper) createJob(job *ClippingJob) (bool, error) {
	job.Status = StatusPending
	job.CurrentStep = string(StatusPending)
	result := c.db.Clauses(clause.OnConflict{DoNothing: true}).Create(job)
	return result.RowsAffected == 1, result.Error
}

func (c *Clipper) hasJob(linkageID uint, videoID string) bool {
	var count int64
	c.db.Model(&ClippingJob{}).
		Where("linkage_id = ? and source_video_id = ?", linkageID, videoID).
		Count(&count)
	return count > 0
}

func (c *Clipper) lookupJob(id uint) (ClippingJob, error) {
	var job ClippingJob
	err := c.db.First(&job, id).Error
	return job, err
}

func (c *Clipper) Jobs(status JobStatus) []ClippingJob {
	var jobs []ClippingJob
	query := c.db.Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Find(&jobs)
	return jobs
}

func (c *Clipper) pendingJobs(limit int) []ClippingJob {
	var jobs []ClippingJob
	c.db.Where("status = ?", StatusPending).
		Order("id").Limit(limit).Find(&jobs)
	return jobs
}

// transition conditionally moves a job from its current status to next,
// writing progress and step in the same statement. Losing the race
// means another worker or a cancel got there first.
func (c *Clipper) transition(job *ClippingJob, next JobStatus, fields map[string]interface{}) error {
	if job.Status.CanBecome(next) == false {
		return ErrJobConflict
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["status"] = next
	fields["current_step"] = string(next)
	fields["progress_percent"] = next.Progress()
	result := c.db.Model(&ClippingJob{}).
		Where("id = ? and status = ?", job.ID, job.Status).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrJobConflict
	}
	job.Status = next
	job.CurrentStep = string(next)
	job.ProgressPercent = next.Progress()
	c.events.JobProgress(*job)
	return nil
}

// failJob is terminal; the error message is kept terse for dashboards.
func (c *Clipper) failJob(job *ClippingJob, cause error) {
	message := cause.Error()
	err := c.transition(job, StatusFailed, map[string]interface{}{
		"error_message": message,
		"completed_at":  time.Now().UTC(),
	})
	if err != nil {
		return
	}
	job.ErrorMessage = message
}

// CancelJob flips any non-terminal job to cancelled. A running worker
// notices the row change and unwinds.
func (c *Clipper) CancelJob(id uint) error {
	job, err := c.lookupJob(id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobConflict
	}
	return c.transition(&job, StatusCancelled, map[string]interface{}{
		"error_message": ErrCancelled.Error(),
		"completed_at":  time.Now().UTC(),
	})
}

// claimJob takes ownership of a pending job. Exactly one dispatcher
// wins the conditional update.
func (c *Clipper) claimJob(job *ClippingJob) bool {
	err := c.transition(job, StatusDownloading, map[string]interface{}{
		"started_at": time.Now().UTC(),
	})
	return err == nil
}

func (c *Clipper) updateJobProgress(job ClippingJob, progress int) {
	c.db.Model(&ClippingJob{}).
		Where("id = ? and status = ?", job.ID, job.Status).
		Update("progress_percent", progress)
	job.ProgressPercent = progress
	c.events.JobProgress(job)
}

// extracted clips

func (c *Clipper) createClip(clip *ExtractedClip) error {
	clip.UploadStatus = UploadPending
	return c.db.Create(clip).Error
}

func (c *Clipper) jobClips(jobID uint) []ExtractedClip {
	var clips []ExtractedClip
	c.db.Where("job_id = ?", jobID).Order("clip_number").Find(&clips)
	return clips
}

func (c *Clipper) lookupClip(id uint) (ExtractedClip, error) {
	var clip ExtractedClip
	err := c.db.First(&clip, id).Error
	return clip, err
}

// markClipPublished records the upload result in one statement.
func (c *Clipper) markClipPublished(id uint, videoID, url string) error {
	return c.db.Model(&ExtractedClip{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"upload_status": UploadPublished,
			"video_id":      videoID,
			"url":           url,
			"upload_error":  "",
			"published_at":  time.Now().UTC(),
		}).Error
}

func (c *Clipper) markClipFailed(id uint, cause error) error {
	return c.db.Model(&ExtractedClip{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"upload_status": UploadFailed,
			"upload_error":  cause.Error(),
		}).Error
}

// RequeueClips resets a job's failed clips so an operator can retry
// the uploads.
func (c *Clipper) RequeueClips(jobID uint) int64 {
	result := c.db.Model(&ExtractedClip{}).
		Where("job_id = ? and upload_status = ?", jobID, UploadFailed).
		Updates(map[string]interface{}{
			"upload_status": UploadPending,
			"upload_error":  "",
		})
	return result.RowsAffected
}

func (c *Clipper) setClipArchiveKey(id uint, key string) {
	c.db.Model(&ExtractedClip{}).Where("id = ?", id).
		Update("archive_key", key)
}

// publishedClips returns clips due for a statistics refresh.
func (c *Clipper) publishedClips(before time.Time) []ExtractedClip {
	var clips []ExtractedClip
	c.db.Where("upload_status = ? and (stats_checked_at is null or stats_checked_at < ?)",
		UploadPublished, before).
		Order("published_at").Find(&clips)
	return clips
}

func (c *Clipper) updateClipStats(id uint, views, likes, comments int64) {
	c.db.Model(&ExtractedClip{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"views24h":         views,
			"likes24h":         likes,
			"comments24h":      comments,
			"stats_checked_at": time.Now().UTC(),
		})
}
