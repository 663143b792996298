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
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "pipeline summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stats()
	},
}

func stats() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	c := clipper.NewClipper(cfg)
	err = c.Open()
	if err != nil {
		return err
	}
	defer c.Close()

	s := c.Stats()
	fmt.Printf("channels:   %d\n", s.Channels)
	fmt.Printf("accounts:   %d\n", s.Accounts)
	fmt.Printf("linkages:   %d\n", s.Linkages)
	fmt.Printf("pending:    %d\n", s.PendingJobs)
	fmt.Printf("active:     %d\n", s.ActiveJobs)
	fmt.Printf("completed:  %d\n", s.CompletedJobs)
	fmt.Printf("failed:     %d\n", s.FailedJobs)
	fmt.Printf("clips:      %d generated, %d posted\n",
		s.ClipsGenerated, s.ClipsPosted)
	return nil
}

func init() {
	statsCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(statsCmd)
}
