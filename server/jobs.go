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

package server

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/defsub/clipcast/clipper"
	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/log"
)

type jobFunc func(ctx context.Context, c *clipper.Clipper) error

// schedule starts the recurring pipeline tasks: the monitor and the
// dispatcher as the two long-running loops, plus the daily stats
// snapshot and the scratch retention sweep. WaitForSchedule delays the
// first run by one interval; per-source serialization comes from the
// poll in-flight flag, not the scheduler.
func schedule(ctx context.Context, c *clipper.Clipper, d *clipper.Dispatcher,
	cfg *config.Config) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	task := func(interval time.Duration, name string, doit jobFunc) {
		scheduler.Every(interval).WaitForSchedule().Do(func() {
			err := doit(ctx, c)
			if err != nil && errors.Is(err, context.Canceled) == false {
				log.Printf("%s: %s\n", name, err)
			}
		})
	}

	task(cfg.Clipper.MonitorInterval, "poll", func(ctx context.Context, c *clipper.Clipper) error {
		return c.Poll(ctx)
	})
	task(cfg.Clipper.DispatchInterval, "dispatch", func(ctx context.Context, c *clipper.Clipper) error {
		return d.Dispatch(ctx)
	})
	task(cfg.Clipper.StatsInterval, "stats", func(ctx context.Context, c *clipper.Clipper) error {
		return c.SyncStats(ctx)
	})
	task(cfg.Clipper.SweepInterval, "sweep", func(ctx context.Context, c *clipper.Clipper) error {
		return c.Sweep(ctx)
	})

	scheduler.StartAsync()
	return scheduler
}

// Job runs a single named pipeline task and exits; used by the CLI for
// one-shot and cron-driven operation.
func Job(cfg *config.Config, name string) error {
	c := clipper.NewClipper(cfg)
	err := c.Open()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()
	switch name {
	case "poll":
		return c.Poll(ctx)
	case "dispatch":
		return clipper.NewDispatcher(c).Dispatch(ctx)
	case "stats":
		return c.SyncStats(ctx)
	case "sweep":
		return c.Sweep(ctx)
	}
	return errors.New("unknown job " + name)
}
