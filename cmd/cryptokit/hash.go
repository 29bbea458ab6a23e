// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/golang-auth/go-cryptokit"
)

func (a *app) hashCmd() *cobra.Command {
	var alg string

	cmd := &cobra.Command{
		Use:   "hash [file...]",
		Short: "Print the digest of files or standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookup("hash", hashNames, alg)
			if err != nil {
				return err
			}
			h, err := cryptokit.NewHash(c)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if _, err := io.Copy(h, cmd.InOrStdin()); err != nil {
					return err
				}
				fmt.Fprintln(out, cryptokit.ArrayToHex(h.Final()))
				return nil
			}

			for _, name := range args {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				_, err = io.Copy(h, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				fmt.Fprintf(out, "%s  %s\n", cryptokit.ArrayToHex(h.Final()), name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&alg, "alg", "a", "sha256", "hash algorithm: sha1, sha256 or md5")
	return cmd
}
