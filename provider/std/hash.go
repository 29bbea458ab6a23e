// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"hash"

	sha256 "github.com/minio/sha256-simd"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

type hashContext struct {
	h hash.Hash
}

func (p *Provider) NewHash(alg common.Capability) (provider.HashContext, error) {
	switch alg {
	case common.CapSHA1:
		return &hashContext{h: sha1.New()}, nil
	case common.CapSHA256:
		return &hashContext{h: sha256.New()}, nil
	case common.CapMD5:
		return &hashContext{h: md5.New()}, nil
	}

	return nil, fmt.Errorf("std: %s is not a hash: %w", alg, common.ErrUnsupported)
}

func (c *hashContext) Clear() {
	c.h.Reset()
}

func (c *hashContext) Update(p []byte) {
	c.h.Write(p)
}

// Final returns the digest and leaves the context cleared for reuse.
func (c *hashContext) Final() []byte {
	sum := c.h.Sum(nil)
	c.h.Reset()
	return sum
}
