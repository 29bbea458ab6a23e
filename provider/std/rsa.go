// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

var (
	errNoPublicKey  = errors.New("std: RSA key has no public part")
	errNoPrivateKey = errors.New("std: RSA key has no private part")
)

type rsaKey struct {
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
}

// ParseRSAKey accepts PKCS#1 or PKCS#8 private keys and PKIX or PKCS#1
// public keys, in that order.
func (p *Provider) ParseRSAKey(der []byte) (provider.RSAKeyContext, error) {
	if priv, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return &rsaKey{pub: &priv.PublicKey, priv: priv}, nil
	}
	if k, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		priv, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("std: PKCS#8 key is %T, not RSA", k)
		}
		return &rsaKey{pub: &priv.PublicKey, priv: priv}, nil
	}
	if k, err := x509.ParsePKIXPublicKey(der); err == nil {
		pub, ok := k.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("std: public key is %T, not RSA", k)
		}
		return &rsaKey{pub: pub}, nil
	}
	if pub, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return &rsaKey{pub: pub}, nil
	}

	return nil, errors.New("std: not an RSA key")
}

func (p *Provider) GenerateRSAKey(bits int) (provider.RSAKeyContext, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	return &rsaKey{pub: &priv.PublicKey, priv: priv}, nil
}

func (k *rsaKey) HavePublic() bool {
	return k.pub != nil
}

func (k *rsaKey) HavePrivate() bool {
	return k.priv != nil
}

// ToDER encodes the private key as PKCS#1, or the public key as PKIX when
// publicOnly is set or no private part exists.
func (k *rsaKey) ToDER(publicOnly bool) ([]byte, error) {
	if publicOnly || k.priv == nil {
		if k.pub == nil {
			return nil, errNoPublicKey
		}
		return x509.MarshalPKIXPublicKey(k.pub)
	}
	return x509.MarshalPKCS1PrivateKey(k.priv), nil
}

func (k *rsaKey) Encrypt(p []byte, oaep bool) ([]byte, error) {
	if k.pub == nil {
		return nil, errNoPublicKey
	}

	var (
		out []byte
		err error
	)
	if oaep {
		out, err = rsa.EncryptOAEP(sha1.New(), rand.Reader, k.pub, p, nil)
	} else {
		out, err = rsa.EncryptPKCS1v15(rand.Reader, k.pub, p)
	}
	if err != nil {
		return nil, common.CryptoError(err)
	}
	return out, nil
}

func (k *rsaKey) Decrypt(p []byte, oaep bool) ([]byte, error) {
	if k.priv == nil {
		return nil, errNoPrivateKey
	}

	var (
		out []byte
		err error
	)
	if oaep {
		out, err = rsa.DecryptOAEP(sha1.New(), rand.Reader, k.priv, p, nil)
	} else {
		out, err = rsa.DecryptPKCS1v15(rand.Reader, k.priv, p)
	}
	if err != nil {
		return nil, common.CryptoError(err)
	}
	return out, nil
}

func (k *rsaKey) Clone() provider.RSAKeyContext {
	c := &rsaKey{}
	if k.priv != nil {
		// round trip through DER for a deep copy
		priv, err := x509.ParsePKCS1PrivateKey(x509.MarshalPKCS1PrivateKey(k.priv))
		if err == nil {
			c.priv = priv
			c.pub = &priv.PublicKey
			return c
		}
	}
	if k.pub != nil {
		c.pub = &rsa.PublicKey{N: new(big.Int).Set(k.pub.N), E: k.pub.E}
	}
	return c
}
