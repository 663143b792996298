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

var linkageCmd = &cobra.Command{
	Use:   "linkage",
	Short: "manage source to destination linkages",
	Long:  `Create, list, or toggle the linkages that authorize clipping.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return linkage()
	},
}

var linkSource, linkDest uint
var linkClips, linkMin, linkMax int
var linkEnable, linkDisable uint

func linkage() error {
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

	if linkEnable > 0 {
		return c.UpdateLinkageActive(linkEnable, true)
	}
	if linkDisable > 0 {
		return c.UpdateLinkageActive(linkDisable, false)
	}

	if linkSource > 0 && linkDest > 0 {
		l := clipper.Linkage{
			SourceID:        linkSource,
			DestinationID:   linkDest,
			ClipsPerVideo:   linkClips,
			MinClipDuration: linkMin,
			MaxClipDuration: linkMax,
			Active:          true,
		}
		err = c.CreateLinkage(&l)
		if err != nil {
			return err
		}
		fmt.Printf("linkage %d created\n", l.ID)
		return nil
	}

	for _, l := range c.Linkages() {
		state := "disabled"
		if l.Active {
			state = "active"
		}
		fmt.Printf("%d source=%d dest=%d clips=%d window=%d..%ds %s generated=%d posted=%d\n",
			l.ID, l.SourceID, l.DestinationID, l.ClipsPerVideo,
			l.MinClipDuration, l.MaxClipDuration, state,
			l.TotalClipsGenerated, l.TotalClipsPosted)
	}
	return nil
}

func init() {
	linkageCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	linkageCmd.Flags().UintVarP(&linkSource, "source", "s", 0, "source channel id")
	linkageCmd.Flags().UintVarP(&linkDest, "dest", "d", 0, "destination account id")
	linkageCmd.Flags().IntVarP(&linkClips, "clips", "n", 2, "clips per video")
	linkageCmd.Flags().IntVarP(&linkMin, "min", "m", 30, "min clip seconds")
	linkageCmd.Flags().IntVarP(&linkMax, "max", "x", 60, "max clip seconds")
	linkageCmd.Flags().UintVarP(&linkEnable, "enable", "e", 0, "enable linkage id")
	linkageCmd.Flags().UintVarP(&linkDisable, "disable", "z", 0, "disable linkage id")
	rootCmd.AddCommand(linkageCmd)
}
