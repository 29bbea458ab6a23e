// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package cryptokit

import (
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

type Hash struct {
	alg common.Capability
	ctx provider.HashContext
}

func NewHash(alg common.Capability) (*Hash, error) {
	if !alg.IsHash() {
		return nil, fmt.Errorf("cryptokit: %s is not a hash algorithm", alg)
	}

	hp, err := find[provider.HashProvider](alg)
	if err != nil {
		return nil, err
	}
	ctx, err := hp.NewHash(alg)
	if err != nil {
		return nil, err
	}

	return &Hash{alg: alg, ctx: ctx}, nil
}

func NewSHA1() (*Hash, error)   { return NewHash(common.CapSHA1) }
func NewSHA256() (*Hash, error) { return NewHash(common.CapSHA256) }
func NewMD5() (*Hash, error)    { return NewHash(common.CapMD5) }

func (h *Hash) Algorithm() common.Capability {
	return h.alg
}

// Clear discards everything hashed so far.
func (h *Hash) Clear() {
	h.ctx.Clear()
}

func (h *Hash) Update(p []byte) {
	h.ctx.Update(p)
}

// Write lets a Hash be used as an io.Writer.
func (h *Hash) Write(p []byte) (int, error) {
	h.ctx.Update(p)
	return len(p), nil
}

// Final returns the digest and clears the hash for reuse.
func (h *Hash) Final() []byte {
	return h.ctx.Final()
}

// HashBytes is a one-shot digest of data.
func HashBytes(alg common.Capability, data []byte) ([]byte, error) {
	h, err := NewHash(alg)
	if err != nil {
		return nil, err
	}
	h.Update(data)
	return h.Final(), nil
}

// HashToString is HashBytes rendered as hex.
func HashToString(alg common.Capability, data []byte) (string, error) {
	sum, err := HashBytes(alg, data)
	if err != nil {
		return "", err
	}
	return ArrayToHex(sum), nil
}
