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

package main

import (
	"fmt"

	"github.com/defsub/clipcast/clipper"
	"github.com/defsub/clipcast/server"
	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "run or manage pipeline jobs",
	Long: `Without flags, list clipping jobs. --run executes a named pipeline
task once (poll, dispatch, stats, sweep). --cancel and --requeue act on
a job id; requeue resets the job's failed clip uploads. --delete-clip
removes a single clip and its library entry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return job()
	},
}

var jobRun string
var jobStatus string
var jobCancel, jobRequeue, jobDeleteClip uint

func job() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}

	if jobRun != "" {
		return server.Job(cfg, jobRun)
	}

	c := clipper.NewClipper(cfg)
	err = c.Open()
	if err != nil {
		return err
	}
	defer c.Close()

	if jobCancel > 0 {
		return c.CancelJob(jobCancel)
	}
	if jobRequeue > 0 {
		count := c.RequeueClips(jobRequeue)
		fmt.Printf("requeued %d clips\n", count)
		return nil
	}
	if jobDeleteClip > 0 {
		return c.DeleteClip(jobDeleteClip)
	}

	for _, j := range c.Jobs(clipper.JobStatus(jobStatus)) {
		fmt.Printf("%d %s %s %d%% %s %s\n",
			j.ID, j.SourceVideoID, j.Status, j.ProgressPercent,
			j.CurrentStep, j.ErrorMessage)
	}
	return nil
}

func init() {
	jobCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	jobCmd.Flags().StringVarP(&jobRun, "run", "r", "", "run named task once")
	jobCmd.Flags().StringVarP(&jobStatus, "status", "s", "", "filter by status")
	jobCmd.Flags().UintVarP(&jobCancel, "cancel", "x", 0, "cancel job id")
	jobCmd.Flags().UintVarP(&jobRequeue, "requeue", "q", 0, "requeue failed clips for job id")
	jobCmd.Flags().UintVarP(&jobDeleteClip, "delete-clip", "d", 0, "delete clip id")
	rootCmd.AddCommand(jobCmd)
}
