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

var settingCmd = &cobra.Command{
	Use:   "setting [key] [value]",
	Short: "read or write runtime settings",
	Long: `Runtime switches live in the database and apply without a restart,
e.g. 'setting clipping_enabled true' or 'setting ai_provider gemini'.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setting(args)
	},
}

func setting(args []string) error {
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

	if len(args) == 2 {
		return c.UpdateSetting(args[0], args[1])
	}
	fmt.Printf("%s=%s\n", args[0], c.Setting(args[0]))
	return nil
}

func init() {
	settingCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.AddCommand(settingCmd)
}
