// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

// Validity is the verdict on a TLS peer certificate.  It is data for the
// application to judge, not a handshake failure.
type Validity int

const (
	NoCert Validity = iota
	Valid
	HostMismatch
	Rejected
	Untrusted
	SignatureFailed
	InvalidCA
	InvalidPurpose
	SelfSigned
	Revoked
	PathLengthExceeded
	Expired
	Unknown
)

func (v Validity) String() string {
	switch v {
	case NoCert:
		return "no certificate"
	case Valid:
		return "valid"
	case HostMismatch:
		return "host mismatch"
	case Rejected:
		return "rejected"
	case Untrusted:
		return "untrusted"
	case SignatureFailed:
		return "signature failed"
	case InvalidCA:
		return "invalid CA"
	case InvalidPurpose:
		return "invalid purpose"
	case SelfSigned:
		return "self-signed"
	case Revoked:
		return "revoked"
	case PathLengthExceeded:
		return "path length exceeded"
	case Expired:
		return "expired"
	}
	return "unknown"
}
