// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package cryptokit

import (
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

const (
	pemRSAPrivate = "RSA PRIVATE KEY"
	pemPrivate    = "PRIVATE KEY"
	pemPublic     = "PUBLIC KEY"
	pemRSAPublic  = "RSA PUBLIC KEY"
)

var errNullKey = errors.New("cryptokit: null RSA key")

// RSAKey holds a provider key context.  The zero value is a null key.
// Copies share the context; use Copy for an independent key.
type RSAKey struct {
	ctx provider.RSAKeyContext
}

// RSAKeyFromContext wraps a key context created by a provider.
func RSAKeyFromContext(ctx provider.RSAKeyContext) RSAKey {
	return RSAKey{ctx: ctx}
}

// RSAKeyFromDER accepts PKCS#1 or PKCS#8 private keys and PKIX or
// PKCS#1 public keys.
func RSAKeyFromDER(der []byte) (RSAKey, error) {
	rp, err := find[provider.RSAProvider](common.CapRSA)
	if err != nil {
		return RSAKey{}, err
	}

	ctx, err := rp.ParseRSAKey(der)
	if err != nil {
		return RSAKey{}, fmt.Errorf("cryptokit: %w", err)
	}
	return RSAKey{ctx: ctx}, nil
}

func RSAKeyFromPEM(s string) (RSAKey, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return RSAKey{}, errors.New("cryptokit: no PEM data found")
	}

	switch block.Type {
	case pemRSAPrivate, pemPrivate, pemPublic, pemRSAPublic:
	default:
		return RSAKey{}, fmt.Errorf("cryptokit: unexpected PEM type %q", block.Type)
	}
	return RSAKeyFromDER(block.Bytes)
}

// GenerateRSAKey creates a new key pair of the given size.
func GenerateRSAKey(bits int) (RSAKey, error) {
	rp, err := find[provider.RSAProvider](common.CapRSA)
	if err != nil {
		return RSAKey{}, err
	}

	ctx, err := rp.GenerateRSAKey(bits)
	if err != nil {
		return RSAKey{}, fmt.Errorf("cryptokit: %w", err)
	}
	return RSAKey{ctx: ctx}, nil
}

func (k RSAKey) IsNull() bool {
	return k.ctx == nil
}

func (k RSAKey) HavePublic() bool  { return k.ctx != nil && k.ctx.HavePublic() }
func (k RSAKey) HavePrivate() bool { return k.ctx != nil && k.ctx.HavePrivate() }

// Context exposes the provider context, for example to hand the key to
// a TLS session.
func (k RSAKey) Context() provider.RSAKeyContext {
	return k.ctx
}

// ToDER encodes the private key as PKCS#1, or the public half as PKIX
// when publicOnly is set or no private key is present.
func (k RSAKey) ToDER(publicOnly bool) ([]byte, error) {
	if k.ctx == nil {
		return nil, errNullKey
	}
	return k.ctx.ToDER(publicOnly || !k.ctx.HavePrivate())
}

func (k RSAKey) ToPEM(publicOnly bool) (string, error) {
	der, err := k.ToDER(publicOnly)
	if err != nil {
		return "", err
	}

	typ := pemRSAPrivate
	if publicOnly || !k.ctx.HavePrivate() {
		typ = pemPublic
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})), nil
}

// Copy returns an independent copy of the key.
func (k RSAKey) Copy() RSAKey {
	if k.ctx == nil {
		return RSAKey{}
	}
	return RSAKey{ctx: k.ctx.Clone()}
}

// RSA performs raw public key operations with a key.
type RSA struct {
	key RSAKey
}

func NewRSA(key RSAKey) *RSA {
	return &RSA{key: key}
}

func (r *RSA) Key() RSAKey {
	return r.key
}

func (r *RSA) SetKey(key RSAKey) {
	r.key = key
}

// Encrypt uses the public key with PKCS#1 v1.5 padding, or OAEP with
// SHA-1 when oaep is set.
func (r *RSA) Encrypt(p []byte, oaep bool) ([]byte, error) {
	if !r.key.HavePublic() {
		return nil, errNullKey
	}
	return r.key.ctx.Encrypt(p, oaep)
}

func (r *RSA) Decrypt(p []byte, oaep bool) ([]byte, error) {
	if !r.key.HavePrivate() {
		return nil, errors.New("cryptokit: decrypt needs a private key")
	}
	return r.key.ctx.Decrypt(p, oaep)
}
