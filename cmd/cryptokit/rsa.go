// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/golang-auth/go-cryptokit"
)

func (a *app) rsaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsa",
		Short: "Generate and convert RSA keys",
	}

	var bits int
	genkey := &cobra.Command{
		Use:   "genkey",
		Short: "Print a new PEM encoded private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := cryptokit.GenerateRSAKey(bits)
			if err != nil {
				return err
			}
			pem, err := key.ToPEM(false)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), pem)
			return err
		},
	}
	genkey.Flags().IntVarP(&bits, "bits", "b", 2048, "key size")

	pubkey := &cobra.Command{
		Use:   "pubkey",
		Short: "Print the public half of a PEM key read from standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			key, err := cryptokit.RSAKeyFromPEM(string(in))
			if err != nil {
				return err
			}
			pem, err := key.ToPEM(true)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), pem)
			return err
		},
	}

	cmd.AddCommand(genkey, pubkey)
	return cmd
}
