// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package cryptokit

import (
	"encoding/pem"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

const pemCertificate = "CERTIFICATE"

// CertProperties maps short attribute names (CN, O, OU, ...) to values.
// Repeated attributes are joined with ", ".
type CertProperties map[string]string

// Cert is an immutable X.509 certificate.  The zero value is a null
// certificate.
type Cert struct {
	ctx  provider.CertContext
	info provider.CertInfo
}

// CertFromContext wraps a certificate context, such as a TLS peer
// certificate.
func CertFromContext(ctx provider.CertContext) Cert {
	if ctx == nil {
		return Cert{}
	}
	return Cert{ctx: ctx, info: ctx.Info()}
}

func CertFromDER(der []byte) (Cert, error) {
	cp, err := find[provider.CertProvider](common.CapX509)
	if err != nil {
		return Cert{}, err
	}

	ctx, err := cp.ParseCert(der)
	if err != nil {
		return Cert{}, fmt.Errorf("cryptokit: %w", err)
	}
	return CertFromContext(ctx), nil
}

// CertFromPEM decodes the first certificate in s.
func CertFromPEM(s string) (Cert, error) {
	rest := []byte(s)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return Cert{}, errors.New("cryptokit: no PEM certificate found")
		}
		if block.Type == pemCertificate {
			return CertFromDER(block.Bytes)
		}
	}
}

func (c Cert) IsNull() bool {
	return c.ctx == nil
}

func (c Cert) Context() provider.CertContext {
	return c.ctx
}

func (c Cert) CommonName() string      { return c.info.CommonName }
func (c Cert) SerialNumber() string    { return c.info.SerialNumber }
func (c Cert) SubjectString() string   { return c.info.SubjectString }
func (c Cert) IssuerString() string    { return c.info.IssuerString }
func (c Cert) NotBefore() time.Time    { return c.info.NotBefore }
func (c Cert) NotAfter() time.Time     { return c.info.NotAfter }
func (c Cert) Subject() CertProperties { return maps.Clone(c.info.Subject) }
func (c Cert) Issuer() CertProperties  { return maps.Clone(c.info.Issuer) }

// ToDER returns nil for a null certificate.
func (c Cert) ToDER() []byte {
	if c.ctx == nil {
		return nil
	}
	return c.ctx.DER()
}

func (c Cert) ToPEM() string {
	if c.ctx == nil {
		return ""
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: pemCertificate, Bytes: c.ctx.DER()}))
}
