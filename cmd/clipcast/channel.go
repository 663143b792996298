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
	"context"
	"fmt"

	"github.com/defsub/clipcast/clipper"
	"github.com/spf13/cobra"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "manage watched source channels",
	Long:  `Add, list, pause, or remove the channels the poller watches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return channel()
	},
}

var channelRef string
var channelPollInterval int
var channelRemove, channelPause, channelResume bool

func channel() error {
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

	if channelRef != "" {
		switch {
		case channelRemove:
			return c.DeleteChannel(channelRef)
		case channelPause:
			return c.UpdateChannelActive(channelRef, false)
		case channelResume:
			return c.UpdateChannelActive(channelRef, true)
		default:
			added, err := c.AddChannel(context.Background(), channelRef, channelPollInterval)
			if err != nil {
				return err
			}
			fmt.Printf("watching %s (%s)\n", added.Name, added.ChannelID)
			return nil
		}
	}

	for _, ch := range c.Channels() {
		state := "paused"
		if ch.Active {
			state = "active"
		}
		fmt.Printf("%s %s %s watermark=%s\n",
			ch.ChannelID, ch.Name, state, ch.LastVideoChecked)
	}
	return nil
}

func init() {
	channelCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	channelCmd.Flags().StringVarP(&channelRef, "channel", "n", "", "channel id or @handle")
	channelCmd.Flags().IntVarP(&channelPollInterval, "interval", "i", 0, "poll interval minutes")
	channelCmd.Flags().BoolVarP(&channelRemove, "remove", "r", false, "remove channel")
	channelCmd.Flags().BoolVarP(&channelPause, "pause", "p", false, "pause polling")
	channelCmd.Flags().BoolVarP(&channelResume, "resume", "s", false, "resume polling")
	rootCmd.AddCommand(channelCmd)
}
