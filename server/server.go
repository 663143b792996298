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

// Package server hosts the long-running clip pipeline: it owns the
// schedules for the monitor and dispatcher and the process lifecycle
// around them.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/defsub/clipcast/clipper"
	"github.com/defsub/clipcast/config"
	"github.com/defsub/clipcast/log"
)

// Serve runs the pipeline until SIGINT or SIGTERM. Boot clears state a
// crashed process left behind before any schedule fires; a missing
// external tool is reported but does not stop the process since jobs
// fail individually.
func Serve(cfg *config.Config) error {
	c := clipper.NewClipper(cfg)
	err := c.Open()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Check(); err != nil {
		log.Printf("tool check: %s\n", err)
	}
	c.BootSweep()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := clipper.NewDispatcher(c)
	scheduler := schedule(ctx, c, d, cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("shutdown on %s\n", sig)

	scheduler.Stop()
	cancel()
	return nil
}
