// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package provider

import (
	"regexp"
	"sync"

	"github.com/golang-auth/go-cryptokit/common"
)

var providerNameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,31}$`)

var (
	mu        sync.RWMutex
	providers []Provider
)

// Insert adds p behind every previously inserted provider.  It panics on
// a malformed or duplicate name, like mechanism registration does.
func Insert(p Provider) {
	if !providerNameRegexp.MatchString(p.Name()) {
		panic("Bad provider name: " + p.Name())
	}

	mu.Lock()
	defer mu.Unlock()

	for _, x := range providers {
		if x.Name() == p.Name() {
			panic("Cannot have two providers named " + p.Name())
		}
	}

	providers = append(providers, p)
}

// IsInserted reports whether a provider with the given name is present.
func IsInserted(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	for _, x := range providers {
		if x.Name() == name {
			return true
		}
	}

	return false
}

// IsSupported reports whether the inserted providers together cover
// every capability in caps.
func IsSupported(caps common.Capability) bool {
	return Capabilities().Has(caps)
}

// Capabilities is the union of all inserted providers' capabilities.
func Capabilities() common.Capability {
	mu.RLock()
	defer mu.RUnlock()

	var all common.Capability
	for _, p := range providers {
		all |= p.Capabilities()
	}

	return all
}

// Find returns the first provider, in insertion order, advertising cap.
func Find(cap common.Capability) Provider {
	mu.RLock()
	defer mu.RUnlock()

	for _, p := range providers {
		if p.Capabilities().Has(cap) {
			return p
		}
	}

	return nil
}

// Providers returns the inserted providers in insertion order.
func Providers() []Provider {
	mu.RLock()
	defer mu.RUnlock()

	return append([]Provider(nil), providers...)
}

// UnloadAll forgets every inserted provider.
func UnloadAll() {
	mu.Lock()
	defer mu.Unlock()

	providers = nil
}
