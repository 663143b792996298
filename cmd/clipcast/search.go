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
	"strings"

	"github.com/defsub/clipcast/clipper"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "search the clip library",
	Long:  `Full-text search over extracted clips, e.g. 'tags:gaming +status:published'.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return clipSearch(strings.Join(args, " "))
	},
}

func clipSearch(q string) error {
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

	clips, err := c.SearchClips(q)
	if err != nil {
		return err
	}
	for _, clip := range clips {
		fmt.Printf("%d job=%d %q %.1fs %s %s\n",
			clip.ID, clip.JobID, clip.Title, clip.Duration,
			clip.UploadStatus, clip.URL)
	}
	return nil
}

func init() {
	searchCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(searchCmd)
}
