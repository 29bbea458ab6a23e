// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"errors"
	"fmt"

	"golang.org/x/crypto/blowfish"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

var errBadPadding = errors.New("std: bad padding")

type cipherContext struct {
	dir   common.Direction
	mode  common.Mode
	pad   bool
	block cipher.Block
	iv    []byte
	buf   []byte
}

func (p *Provider) CipherKeyLength(alg common.Capability) int {
	switch alg {
	case common.CapBlowFish:
		return 16
	case common.CapTripleDES:
		return 24
	case common.CapAES128:
		return 16
	case common.CapAES256:
		return 32
	}
	return 0
}

func (p *Provider) CipherBlockSize(alg common.Capability) int {
	switch alg {
	case common.CapBlowFish, common.CapTripleDES:
		return 8
	case common.CapAES128, common.CapAES256:
		return aes.BlockSize
	}
	return 0
}

func newBlock(alg common.Capability, key []byte) (cipher.Block, error) {
	switch alg {
	case common.CapBlowFish:
		return blowfish.NewCipher(key)
	case common.CapTripleDES:
		return des.NewTripleDESCipher(key)
	case common.CapAES128:
		if len(key) != 16 {
			return nil, fmt.Errorf("std: AES128 needs a 16 byte key, got %d", len(key))
		}
		return aes.NewCipher(key)
	case common.CapAES256:
		if len(key) != 32 {
			return nil, fmt.Errorf("std: AES256 needs a 32 byte key, got %d", len(key))
		}
		return aes.NewCipher(key)
	}

	return nil, fmt.Errorf("std: %s is not a cipher: %w", alg, common.ErrUnsupported)
}

func (p *Provider) NewCipher(alg common.Capability, dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (provider.CipherContext, error) {
	block, err := newBlock(alg, key)
	if err != nil {
		return nil, err
	}

	if dir != common.Encrypt && dir != common.Decrypt {
		return nil, fmt.Errorf("std: bad cipher direction %d", dir)
	}
	if mode != common.CBC && mode != common.CFB {
		return nil, fmt.Errorf("std: bad cipher mode %d", mode)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("std: IV must be %d bytes, got %d", block.BlockSize(), len(iv))
	}

	return &cipherContext{
		dir:   dir,
		mode:  mode,
		pad:   pad,
		block: block,
		iv:    append([]byte(nil), iv...),
	}, nil
}

func (c *cipherContext) Update(p []byte) error {
	c.buf = append(c.buf, p...)
	return nil
}

func (c *cipherContext) Final() ([]byte, error) {
	data := c.buf
	c.buf = nil

	if c.mode == common.CFB {
		out := make([]byte, len(data))
		if c.dir == common.Encrypt {
			cipher.NewCFBEncrypter(c.block, c.iv).XORKeyStream(out, data)
		} else {
			cipher.NewCFBDecrypter(c.block, c.iv).XORKeyStream(out, data)
		}
		return out, nil
	}

	bs := c.block.BlockSize()
	if c.dir == common.Encrypt {
		if c.pad {
			data = pkcs7Pad(data, bs)
		} else if len(data)%bs != 0 {
			return nil, fmt.Errorf("std: input is not a multiple of the block size %d", bs)
		}
		out := make([]byte, len(data))
		cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, data)
		return out, nil
	}

	if len(data)%bs != 0 {
		return nil, common.CryptoError(fmt.Errorf("std: ciphertext is not a multiple of the block size %d", bs))
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, data)
	if !c.pad {
		return out, nil
	}

	out, err := pkcs7Unpad(out, bs)
	if err != nil {
		return nil, common.CryptoError(err)
	}
	return out, nil
}

func pkcs7Pad(p []byte, bs int) []byte {
	n := bs - len(p)%bs
	return append(append([]byte(nil), p...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(p []byte, bs int) ([]byte, error) {
	if len(p) == 0 || len(p)%bs != 0 {
		return nil, errBadPadding
	}
	n := int(p[len(p)-1])
	if n == 0 || n > bs {
		return nil, errBadPadding
	}
	for _, b := range p[len(p)-n:] {
		if int(b) != n {
			return nil, errBadPadding
		}
	}
	return p[:len(p)-n], nil
}
