// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package cryptokit

import (
	"crypto/rand"
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

// Cipher is a block cipher context.  Input given to Update is processed
// when Final is called; Reset reuses the object with new parameters.
type Cipher struct {
	alg  common.Capability
	dir  common.Direction
	mode common.Mode
	prov provider.CipherProvider
	ctx  provider.CipherContext
}

func NewCipher(alg common.Capability, dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (*Cipher, error) {
	if !alg.IsCipher() {
		return nil, fmt.Errorf("cryptokit: %s is not a cipher", alg)
	}

	cp, err := find[provider.CipherProvider](alg)
	if err != nil {
		return nil, err
	}

	c := &Cipher{alg: alg, prov: cp}
	if err := c.Reset(dir, mode, key, iv, pad); err != nil {
		return nil, err
	}
	return c, nil
}

func NewBlowFish(dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (*Cipher, error) {
	return NewCipher(common.CapBlowFish, dir, mode, key, iv, pad)
}

func NewTripleDES(dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (*Cipher, error) {
	return NewCipher(common.CapTripleDES, dir, mode, key, iv, pad)
}

func NewAES128(dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (*Cipher, error) {
	return NewCipher(common.CapAES128, dir, mode, key, iv, pad)
}

func NewAES256(dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (*Cipher, error) {
	return NewCipher(common.CapAES256, dir, mode, key, iv, pad)
}

// Reset discards pending input and rekeys the cipher.  On error the
// cipher keeps its previous state.
func (c *Cipher) Reset(dir common.Direction, mode common.Mode, key, iv []byte, pad bool) error {
	ctx, err := c.prov.NewCipher(c.alg, dir, mode, key, iv, pad)
	if err != nil {
		return fmt.Errorf("cryptokit: %s: %w", c.alg, err)
	}

	c.dir, c.mode, c.ctx = dir, mode, ctx
	return nil
}

func (c *Cipher) Algorithm() common.Capability { return c.alg }
func (c *Cipher) Direction() common.Direction  { return c.dir }
func (c *Cipher) Mode() common.Mode            { return c.mode }
func (c *Cipher) KeyLength() int               { return c.prov.CipherKeyLength(c.alg) }
func (c *Cipher) BlockSize() int               { return c.prov.CipherBlockSize(c.alg) }

func (c *Cipher) Update(p []byte) error {
	return c.ctx.Update(p)
}

// Final processes all input given since the last Final or Reset.
func (c *Cipher) Final() ([]byte, error) {
	return c.ctx.Final()
}

// GenerateKey returns a random key for alg.  A size of zero selects the
// provider's preferred key length.
func GenerateKey(alg common.Capability, size int) ([]byte, error) {
	cp, err := find[provider.CipherProvider](alg)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = cp.CipherKeyLength(alg)
	}
	return random(size)
}

// GenerateIV returns a random IV of one block for alg.
func GenerateIV(alg common.Capability) ([]byte, error) {
	cp, err := find[provider.CipherProvider](alg)
	if err != nil {
		return nil, err
	}
	return random(cp.CipherBlockSize(alg))
}

func random(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cryptokit: bad length %d: %w", n, common.ErrUnsupported)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
