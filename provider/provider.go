// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package provider defines the boundary between the facade and the
// backends that implement the actual algorithms.
//
// A Provider advertises a capability bitmask and implements the optional
// interfaces matching the capabilities it claims: HashProvider,
// CipherProvider, RSAProvider, CertProvider, TLSProvider and
// SASLProvider.  The contexts those interfaces hand out are opaque to the
// facade; it only drives them through the small verb sets below.
package provider

import (
	"time"

	"github.com/golang-auth/go-cryptokit/common"
)

type Provider interface {
	Name() string
	Capabilities() common.Capability
}

type HashContext interface {
	Clear()
	Update(p []byte)
	Final() []byte
}

type HashProvider interface {
	NewHash(alg common.Capability) (HashContext, error)
}

type CipherContext interface {
	Update(p []byte) error
	// Final flushes buffered input; with padding enabled it applies or
	// strips PKCS#7 padding and reports bad padding as an error.
	Final() ([]byte, error)
}

type CipherProvider interface {
	NewCipher(alg common.Capability, dir common.Direction, mode common.Mode, key, iv []byte, pad bool) (CipherContext, error)
	CipherKeyLength(alg common.Capability) int
	CipherBlockSize(alg common.Capability) int
}

type RSAKeyContext interface {
	HavePublic() bool
	HavePrivate() bool
	ToDER(publicOnly bool) ([]byte, error)
	Encrypt(p []byte, oaep bool) ([]byte, error)
	Decrypt(p []byte, oaep bool) ([]byte, error)
	Clone() RSAKeyContext
}

type RSAProvider interface {
	ParseRSAKey(der []byte) (RSAKeyContext, error)
	GenerateRSAKey(bits int) (RSAKeyContext, error)
}

// CertInfo is the decoded view of a certificate.
type CertInfo struct {
	CommonName    string
	SerialNumber  string
	SubjectString string
	IssuerString  string
	Subject       map[string]string
	Issuer        map[string]string
	NotBefore     time.Time
	NotAfter      time.Time
}

type CertContext interface {
	DER() []byte
	Info() CertInfo
}

type CertProvider interface {
	ParseCert(der []byte) (CertContext, error)
}

// TLSConfig is handed to TLSContext.Start.  Store aliases the
// application's trust store and must not be modified by the context.
type TLSConfig struct {
	Server      bool
	Host        string
	Certificate CertContext
	Key         RSAKeyContext
	Store       []CertContext
}

// TLSContext is one side of a TLS connection driven through byte
// buffers.  Every call returns once the context has consumed its input
// and produced all output it can without more input.
type TLSContext interface {
	Start(cfg TLSConfig) error

	// Handshake consumes wire bytes from the peer and returns wire bytes
	// to send.  done turns true once the handshake has completed.
	Handshake(in []byte) (out []byte, done bool, err error)

	// Encode protects application data for the wire.
	Encode(plain []byte) (wire []byte, err error)

	// Decode consumes wire bytes and returns recovered application data
	// plus any wire bytes the protocol needs to send in response.  It
	// returns io.EOF once the peer has closed the connection.
	Decode(wire []byte) (plain, out []byte, err error)

	PeerCertificate() CertContext
	Validity() common.Validity

	// ChannelBinding returns tls-exporter channel binding data.
	ChannelBinding() ([]byte, error)

	// Close sends a closure alert and releases the context.
	Close() (out []byte, err error)

	// Abort releases the context without notifying the peer.
	Abort()
}

type TLSProvider interface {
	NewTLS() (TLSContext, error)
}

type SASLProvider interface {
	Mechs() []string
	MechProperties(name string) (common.MechProps, bool)
	NewMech(name string, cfg common.MechConfig) (common.Mech, error)
}
