// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/golang-auth/go-cryptokit/userdb"
)

func (a *app) userdbCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "userdb",
		Short: "Manage the PLAIN and SCRAM user database",
	}
	cmd.PersistentFlags().StringVar(&path, "db", "", "database file (default $CRYPTOKIT_USERDB_PATH)")

	open := func() (*userdb.DB, error) {
		if path == "" {
			path = a.cfg.UserDBPath
		}
		return userdb.Open(path, userdb.WithLogger(a.loggable()))
	}

	var realm, password string
	add := &cobra.Command{
		Use:   "add USER",
		Short: "Add or replace a user; the password is read from standard input unless given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if line == "" && err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("empty password")
			}

			db, err := open()
			if err != nil {
				return err
			}
			if err := db.Add(args[0], realm, password); err != nil {
				return err
			}
			return db.Save()
		},
	}
	add.Flags().StringVar(&realm, "realm", "", "realm")
	add.Flags().StringVar(&password, "password", "", "password")

	remove := &cobra.Command{
		Use:   "remove USER",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			if !db.Remove(args[0]) {
				return fmt.Errorf("no such user %q", args[0])
			}
			return db.Save()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			for _, u := range db.Users() {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}
