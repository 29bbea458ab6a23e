// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/golang-auth/go-cryptokit"
	"github.com/golang-auth/go-cryptokit/internal/certgen"
)

func (a *app) certCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Inspect and create X.509 certificates",
	}

	show := &cobra.Command{
		Use:   "show [file]",
		Short: "Describe a PEM certificate from a file or standard input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in []byte
			var err error
			if len(args) == 1 {
				in, err = os.ReadFile(args[0])
			} else {
				in, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			c, err := cryptokit.CertFromPEM(string(in))
			if err != nil {
				return err
			}
			printCert(cmd.OutOrStdout(), c)
			return nil
		},
	}

	var hosts []string
	selfsigned := &cobra.Command{
		Use:   "selfsigned",
		Short: "Print a throwaway self-signed certificate and its key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := certgen.SelfSigned(hosts...)
			if err != nil {
				return err
			}
			c, err := cryptokit.CertFromDER(pair.Cert)
			if err != nil {
				return err
			}
			key, err := cryptokit.RSAKeyFromDER(pair.Key)
			if err != nil {
				return err
			}
			keyPEM, err := key.ToPEM(false)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), c.ToPEM(), keyPEM)
			return err
		},
	}
	selfsigned.Flags().StringSliceVar(&hosts, "host", []string{"localhost"}, "DNS names or IP addresses")

	cmd.AddCommand(show, selfsigned)
	return cmd
}

func printCert(w io.Writer, c cryptokit.Cert) {
	fmt.Fprintf(w, "Common name:   %s\n", c.CommonName())
	fmt.Fprintf(w, "Serial number: %s\n", c.SerialNumber())
	fmt.Fprintf(w, "Subject:       %s\n", c.SubjectString())
	fmt.Fprintf(w, "Issuer:        %s\n", c.IssuerString())
	fmt.Fprintf(w, "Not before:    %s\n", c.NotBefore().Format(time.RFC3339))
	fmt.Fprintf(w, "Not after:     %s\n", c.NotAfter().Format(time.RFC3339))

	subject := c.Subject()
	keys := make([]string, 0, len(subject))
	for k := range subject {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s=%s\n", k, subject[k])
	}
}
