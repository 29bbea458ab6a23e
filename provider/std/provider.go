// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package std is the default provider.  It covers every capability using
// the Go crypto packages, golang.org/x/crypto and minio/sha256-simd, and
// serves SASL from the mechanism registry.
package std

import (
	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

const Name = "std"

const allCaps = common.CapSHA1 | common.CapSHA256 | common.CapMD5 |
	common.CapBlowFish | common.CapTripleDES | common.CapAES128 | common.CapAES256 |
	common.CapRSA | common.CapX509 | common.CapTLS | common.CapSASL

func init() {
	Register()
}

// Register inserts the provider unless it is already present.
func Register() {
	if !provider.IsInserted(Name) {
		provider.Insert(New())
	}
}

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Capabilities() common.Capability {
	return allCaps
}

var (
	_ provider.HashProvider   = (*Provider)(nil)
	_ provider.CipherProvider = (*Provider)(nil)
	_ provider.RSAProvider    = (*Provider)(nil)
	_ provider.CertProvider   = (*Provider)(nil)
	_ provider.TLSProvider    = (*Provider)(nil)
	_ provider.SASLProvider   = (*Provider)(nil)
)
