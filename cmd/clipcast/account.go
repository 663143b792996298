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
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "manage destination accounts",
	Long:  `Link a destination upload account via OAuth consent, or list accounts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return account()
	},
}

var accountName string

func account() error {
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

	if accountName != "" {
		fmt.Printf("authorize at:\n%s\n", c.AuthURL())
		prompt := promptui.Prompt{
			Label: "Code",
			Mask:  '*',
		}
		code, err := prompt.Run()
		if err != nil {
			return err
		}
		linked, err := c.LinkAccount(context.Background(), accountName, code)
		if err != nil {
			return err
		}
		fmt.Printf("linked %s, token expires %s\n", linked.Name, linked.TokenExpiry)
		return nil
	}

	for _, a := range c.Accounts() {
		state := "ok"
		if a.RequiresReauth {
			state = "requires reauth"
		}
		fmt.Printf("%d %s expires=%s %s\n", a.ID, a.Name, a.TokenExpiry, state)
	}
	return nil
}

func init() {
	accountCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	accountCmd.Flags().StringVarP(&accountName, "add", "a", "", "link account with name")
	rootCmd.AddCommand(accountCmd)
}
