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
	"encoding/json"
	"time"

	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/log"
	"github.com/go-redis/redis/v8"
)

// Events publishes job progress to a Redis channel for the web tier's
// dashboards. Publishing is fire-and-forget; without a configured Redis
// address every call is a no-op.
type Events struct {
	channel string
	client  *redis.Client
}

func NewEvents(config *config.Config) *Events {
	e := &Events{channel: config.Redis.Channel}
	if config.Redis.Addr != "" {
		e.client = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
	}
	return e
}

func (e *Events) Close() {
	if e != nil && e.client != nil {
		e.client.Close()
	}
}

// ProgressEvent is the wire shape consumed by the dashboard.
type ProgressEvent struct {
	JobID    uint   `json:"job_id"`
	Status   string `json:"status"`
	Step     string `json:"current_step"`
	Progress int    `json:"progress_percent"`
	Error    string `json:"error_message,omitempty"`
}

// JobProgress publishes the job's current state. Failures are logged
// and dropped; progress events never affect the pipeline.
func (e *Events) JobProgress(job ClippingJob) {
	if e == nil || e.client == nil {
		return
	}
	event := ProgressEvent{
		JobID:    job.ID,
		Status:   string(job.Status),
		Step:     job.CurrentStep,
		Progress: job.ProgressPercent,
		Error:    job.ErrorMessage,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = e.client.Publish(ctx, e.channel, data).Err()
	if err != nil {
		log.Printf("event publish failed: %s\n", err)
	}
}
