// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/golang-auth/go-cryptokit"
	"github.com/golang-auth/go-cryptokit/common"
)

type cipherFlags struct {
	alg   string
	mode  string
	key   string
	iv    string
	noPad bool
	hex   bool
}

func (f *cipherFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.alg, "alg", "a", "aes256", "cipher: blowfish, 3des, aes128 or aes256")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "cbc", "mode: cbc or cfb")
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "key in hex")
	cmd.Flags().StringVar(&f.iv, "iv", "", "IV in hex")
	cmd.Flags().BoolVar(&f.noPad, "no-pad", false, "disable PKCS#7 padding")
	cmd.Flags().BoolVar(&f.hex, "hex", false, "hex encoded ciphertext")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("iv")
}

func (f *cipherFlags) run(cmd *cobra.Command, dir common.Direction) error {
	alg, err := lookup("cipher", cipherNames, f.alg)
	if err != nil {
		return err
	}
	mode, err := lookup("mode", modeNames, f.mode)
	if err != nil {
		return err
	}
	key, err := cryptokit.HexToArray(f.key)
	if err != nil {
		return err
	}
	iv, err := cryptokit.HexToArray(f.iv)
	if err != nil {
		return err
	}

	in, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if dir == common.Decrypt && f.hex {
		if in, err = cryptokit.HexToArray(strings.TrimSpace(string(in))); err != nil {
			return err
		}
	}

	c, err := cryptokit.NewCipher(alg, dir, mode, key, iv, !f.noPad)
	if err != nil {
		return err
	}
	if err := c.Update(in); err != nil {
		return err
	}
	out, err := c.Final()
	if err != nil {
		return err
	}

	if dir == common.Encrypt && f.hex {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cryptokit.ArrayToHex(out))
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func (a *app) cipherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cipher",
		Short: "Encrypt and decrypt standard input",
	}

	var enc, dec cipherFlags
	encrypt := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return enc.run(cmd, common.Encrypt)
		},
	}
	enc.register(encrypt)

	decrypt := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt standard input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return dec.run(cmd, common.Decrypt)
		},
	}
	dec.register(decrypt)

	var alg string
	genkey := &cobra.Command{
		Use:   "genkey",
		Short: "Print a random key and IV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := lookup("cipher", cipherNames, alg)
			if err != nil {
				return err
			}
			key, err := cryptokit.GenerateKey(c, 0)
			if err != nil {
				return err
			}
			iv, err := cryptokit.GenerateIV(c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key: %s\niv:  %s\n", cryptokit.ArrayToHex(key), cryptokit.ArrayToHex(iv))
			return nil
		},
	}
	genkey.Flags().StringVarP(&alg, "alg", "a", "aes256", "cipher: blowfish, 3des, aes128 or aes256")

	cmd.AddCommand(encrypt, decrypt, genkey)
	return cmd
}
