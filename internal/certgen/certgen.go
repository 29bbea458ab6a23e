// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package certgen issues throwaway RSA certificates for self tests.
package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"time"
)

const keyBits = 2048

// Pair is a DER certificate plus its PKCS#1 private key.
type Pair struct {
	Cert []byte
	Key  []byte

	cert *x509.Certificate
	priv *rsa.PrivateKey
}

type Options struct {
	CommonName   string
	Organization string
	Hosts        []string
	IsCA         bool
	Client       bool
	NotBefore    time.Time
	NotAfter     time.Time
}

func (o *Options) defaults() {
	if o.NotBefore.IsZero() {
		o.NotBefore = time.Now().Add(-time.Hour)
	}
	if o.NotAfter.IsZero() {
		o.NotAfter = o.NotBefore.Add(3 * 30 * 24 * time.Hour)
	}
	if o.Organization == "" {
		o.Organization = "go-cryptokit"
	}
}

func (o Options) template() (*x509.Certificate, error) {
	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, err
	}

	keyUsage := x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
	if o.IsCA {
		keyUsage |= x509.KeyUsageCertSign
	}
	extUsage := x509.ExtKeyUsageServerAuth
	if o.Client {
		extUsage = x509.ExtKeyUsageClientAuth
	}

	t := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   o.CommonName,
			Organization: []string{o.Organization},
		},
		NotBefore: o.NotBefore,
		NotAfter:  o.NotAfter,

		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{extUsage},
		BasicConstraintsValid: true,
		IsCA:                  o.IsCA,
	}

	for _, h := range o.Hosts {
		if ip := net.ParseIP(h); ip != nil {
			t.IPAddresses = append(t.IPAddresses, ip)
		} else {
			t.DNSNames = append(t.DNSNames, h)
		}
	}
	return t, nil
}

func issue(o Options, parent *Pair) (*Pair, error) {
	o.defaults()

	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, err
	}
	template, err := o.template()
	if err != nil {
		return nil, err
	}

	signer, signerKey := template, priv
	if parent != nil {
		signer, signerKey = parent.cert, parent.priv
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, template, signer, &priv.PublicKey, signerKey)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		return nil, err
	}

	return &Pair{
		Cert: derBytes,
		Key:  x509.MarshalPKCS1PrivateKey(priv),
		cert: cert,
		priv: priv,
	}, nil
}

// SelfSigned issues a self-signed server certificate for hosts.
func SelfSigned(hosts ...string) (*Pair, error) {
	cn := ""
	if len(hosts) > 0 {
		cn = hosts[0]
	}
	return New(Options{CommonName: cn, Hosts: hosts})
}

func New(o Options) (*Pair, error) {
	return issue(o, nil)
}

// NewCA issues a self-signed certificate authority.
func NewCA(name string) (*Pair, error) {
	return issue(Options{CommonName: name, IsCA: true}, nil)
}

// Issue signs a new certificate with p, which must be a CA.
func (p *Pair) Issue(o Options) (*Pair, error) {
	return issue(o, p)
}
