// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package cryptokit is a facade over pluggable cryptographic providers.
//
// Algorithms are requested by capability and served by the first
// inserted provider that advertises it.  The default provider in
// provider/std is inserted when the package loads; further providers can
// be added with InsertProvider.  TLS and SASL sessions live in the tls
// and sasl packages and use the same provider list.
//
// A provider is chosen when a context is created, so inserting one only
// affects contexts created afterwards.
package cryptokit

import (
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
	"github.com/golang-auth/go-cryptokit/provider/std"
)

// Init makes sure the default provider is present.  It is only needed
// after UnloadAllProviders.
func Init() {
	std.Register()
}

// IsSupported reports whether the inserted providers together offer
// every capability in caps.
func IsSupported(caps common.Capability) bool {
	return provider.IsSupported(caps)
}

// InsertProvider appends p to the provider list.  Providers inserted
// earlier take precedence.
func InsertProvider(p provider.Provider) {
	provider.Insert(p)
}

func UnloadAllProviders() {
	provider.UnloadAll()
}

// find returns the first provider offering cap that implements T.
func find[T any](cap common.Capability) (T, error) {
	var zero T

	p := provider.Find(cap)
	if p == nil {
		return zero, fmt.Errorf("cryptokit: no provider for %s: %w", cap, common.ErrUnsupported)
	}

	t, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("cryptokit: provider %s claims %s without implementing it: %w", p.Name(), cap, common.ErrUnsupported)
	}
	return t, nil
}
