// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import "strings"

// Capability is a bitmask of algorithms and protocols a provider implements.
type Capability uint32

const (
	CapSHA1      Capability = 0x0001
	CapSHA256    Capability = 0x0002
	CapMD5       Capability = 0x0004
	CapBlowFish  Capability = 0x0008
	CapTripleDES Capability = 0x0010
	CapAES128    Capability = 0x0020
	CapAES256    Capability = 0x0040
	CapRSA       Capability = 0x0080
	CapX509      Capability = 0x0100
	CapTLS       Capability = 0x0200
	CapSASL      Capability = 0x0400
)

var capNames = []struct {
	c    Capability
	name string
}{
	{CapSHA1, "SHA1"},
	{CapSHA256, "SHA256"},
	{CapMD5, "MD5"},
	{CapBlowFish, "BlowFish"},
	{CapTripleDES, "TripleDES"},
	{CapAES128, "AES128"},
	{CapAES256, "AES256"},
	{CapRSA, "RSA"},
	{CapX509, "X509"},
	{CapTLS, "TLS"},
	{CapSASL, "SASL"},
}

// Has reports whether every bit of want is present in c.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

func (c Capability) String() string {
	var names []string
	for _, n := range capNames {
		if c&n.c != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "|")
}

// IsHash reports whether c names exactly one hash algorithm.
func (c Capability) IsHash() bool {
	return c == CapSHA1 || c == CapSHA256 || c == CapMD5
}

// IsCipher reports whether c names exactly one block cipher.
func (c Capability) IsCipher() bool {
	return c == CapBlowFish || c == CapTripleDES || c == CapAES128 || c == CapAES256
}

// Mode is a block cipher chaining mode.
type Mode int

const (
	CBC Mode = 0x0001
	CFB Mode = 0x0002
)

func (m Mode) String() string {
	switch m {
	case CBC:
		return "CBC"
	case CFB:
		return "CFB"
	}
	return "unknown"
}

// Direction selects encryption or decryption for a cipher context.
type Direction int

const (
	Encrypt Direction = 0x0001
	Decrypt Direction = 0x0002
)
