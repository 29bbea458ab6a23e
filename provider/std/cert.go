// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"strings"

	"github.com/golang-auth/go-cryptokit/provider"
)

type certContext struct {
	c *x509.Certificate
}

func (p *Provider) ParseCert(der []byte) (provider.CertContext, error) {
	c, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &certContext{c: c}, nil
}

func (c *certContext) DER() []byte {
	return c.c.Raw
}

func (c *certContext) Info() provider.CertInfo {
	return provider.CertInfo{
		CommonName:    c.c.Subject.CommonName,
		SerialNumber:  c.c.SerialNumber.String(),
		SubjectString: c.c.Subject.String(),
		IssuerString:  c.c.Issuer.String(),
		Subject:       nameProps(c.c.Subject),
		Issuer:        nameProps(c.c.Issuer),
		NotBefore:     c.c.NotBefore,
		NotAfter:      c.c.NotAfter,
	}
}

var attrNames = map[string]string{
	"2.5.4.3":              "CN",
	"2.5.4.5":              "SERIALNUMBER",
	"2.5.4.6":              "C",
	"2.5.4.7":              "L",
	"2.5.4.8":              "ST",
	"2.5.4.9":              "STREET",
	"2.5.4.10":             "O",
	"2.5.4.11":             "OU",
	"2.5.4.17":             "POSTALCODE",
	"1.2.840.113549.1.9.1": "emailAddress",
}

// nameProps flattens a distinguished name into short-name keys.  Repeated
// attributes are joined with ", ".
func nameProps(n pkix.Name) map[string]string {
	m := make(map[string]string, len(n.Names))
	for _, atv := range n.Names {
		oid := atv.Type.String()
		key, ok := attrNames[oid]
		if !ok {
			key = oid
		}
		val := fmt.Sprint(atv.Value)
		if prev, ok := m[key]; ok {
			val = strings.Join([]string{prev, val}, ", ")
		}
		m[key] = val
	}
	return m
}
