// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"bytes"
	"crypto/x509"
	"errors"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

// peerValidity checks the peer chain against the trust store only; the
// system roots are never consulted.  The host is checked after the chain
// so that a trusted certificate for the wrong name reports HostMismatch.
func peerValidity(chain []*x509.Certificate, store []provider.CertContext, host string, server bool) common.Validity {
	if len(chain) == 0 {
		return common.NoCert
	}
	leaf := chain[0]

	roots := x509.NewCertPool()
	for _, c := range store {
		if cc, ok := c.(*certContext); ok {
			roots.AddCert(cc.c)
		}
	}
	inter := x509.NewCertPool()
	for _, c := range chain[1:] {
		inter.AddCert(c)
	}

	usage := x509.ExtKeyUsageServerAuth
	if server {
		usage = x509.ExtKeyUsageClientAuth
	}

	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: inter,
		KeyUsages:     []x509.ExtKeyUsage{usage},
	})
	if err != nil {
		return validityFromError(leaf, err)
	}

	if host != "" && leaf.VerifyHostname(host) != nil {
		return common.HostMismatch
	}
	return common.Valid
}

func validityFromError(leaf *x509.Certificate, err error) common.Validity {
	var (
		unknownAuth x509.UnknownAuthorityError
		invalid     x509.CertificateInvalidError
		hostErr     x509.HostnameError
		insecure    x509.InsecureAlgorithmError
		constraint  x509.ConstraintViolationError
	)

	switch {
	case errors.As(err, &unknownAuth):
		if selfSigned(leaf) {
			return common.SelfSigned
		}
		return common.Untrusted
	case errors.As(err, &invalid):
		switch invalid.Reason {
		case x509.Expired:
			return common.Expired
		case x509.NotAuthorizedToSign, x509.CANotAuthorizedForThisName, x509.CANotAuthorizedForExtKeyUsage:
			return common.InvalidCA
		case x509.TooManyIntermediates:
			return common.PathLengthExceeded
		case x509.IncompatibleUsage:
			return common.InvalidPurpose
		case x509.NameMismatch, x509.NameConstraintsWithoutSANs, x509.UnconstrainedName, x509.TooManyConstraints:
			return common.Rejected
		}
		return common.Unknown
	case errors.As(err, &insecure), errors.As(err, &constraint), errors.Is(err, x509.ErrUnsupportedAlgorithm):
		return common.SignatureFailed
	case errors.As(err, &hostErr):
		return common.HostMismatch
	}

	return common.Unknown
}

func selfSigned(c *x509.Certificate) bool {
	if !bytes.Equal(c.RawIssuer, c.RawSubject) {
		return false
	}
	return c.CheckSignature(c.SignatureAlgorithm, c.RawTBSCertificate, c.Signature) == nil
}
