// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/registry"

	// register the built-in mechanisms
	_ "github.com/golang-auth/go-cryptokit/mechs/anonymous"
	_ "github.com/golang-auth/go-cryptokit/mechs/external"
	_ "github.com/golang-auth/go-cryptokit/mechs/gssapi"
	_ "github.com/golang-auth/go-cryptokit/mechs/plain"
	_ "github.com/golang-auth/go-cryptokit/mechs/scram"
)

func (p *Provider) Mechs() []string {
	return registry.Mechs()
}

func (p *Provider) MechProperties(name string) (common.MechProps, bool) {
	return registry.Properties(name)
}

func (p *Provider) NewMech(name string, cfg common.MechConfig) (common.Mech, error) {
	return registry.NewMech(name, cfg)
}
