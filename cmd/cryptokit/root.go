// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/internal/config"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/sasl"
)

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cryptokit",
		Short: "Cryptographic toolkit with TLS and SASL self tests",
		Example: `  $ echo -n abc | cryptokit hash --alg sha1
  $ cryptokit selftest sasl --mech SCRAM-SHA-256`,

		// errors from a self test are not usage errors
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg = config.Load()
			l, err := a.cfg.Logger()
			if err != nil {
				return err
			}
			a.log = l
			sasl.SetAppName(a.cfg.AppName)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	root.AddCommand(
		a.hashCmd(),
		a.cipherCmd(),
		a.rsaCmd(),
		a.certCmd(),
		a.userdbCmd(),
		a.selftestCmd(),
	)
	return root
}

func (a *app) loggable() loggable.Loggable {
	var l loggable.Loggable
	_ = loggable.WithLogger(a.log)(&l)
	return l
}

var hashNames = map[string]common.Capability{
	"sha1":   common.CapSHA1,
	"sha256": common.CapSHA256,
	"md5":    common.CapMD5,
}

var cipherNames = map[string]common.Capability{
	"blowfish": common.CapBlowFish,
	"3des":     common.CapTripleDES,
	"aes128":   common.CapAES128,
	"aes256":   common.CapAES256,
}

var modeNames = map[string]common.Mode{
	"cbc": common.CBC,
	"cfb": common.CFB,
}

func lookup[T any](kind string, names map[string]T, name string) (T, error) {
	v, ok := names[strings.ToLower(name)]
	if !ok {
		return v, fmt.Errorf("unknown %s %q", kind, name)
	}
	return v, nil
}
