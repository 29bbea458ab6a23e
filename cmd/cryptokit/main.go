// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Command cryptokit exposes the toolkit on the command line: digests,
// ciphers, RSA keys, certificates, the SASL user database and loopback
// TLS and SASL self tests.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
