// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"errors"
	"fmt"
)

var (
	ErrNoMech             = errors.New("no worthy mechs found")
	ErrNotStarted         = errors.New("must use Start() before Step()")
	ErrAlreadyEstablished = errors.New("context is already established")
	ErrNotEstablished     = errors.New("context is not established")

	// ErrUnsupported is returned when no inserted provider advertises a
	// capability needed by the requested operation.
	ErrUnsupported = errors.New("capability not supported by any provider")

	ErrInvalidState     = errors.New("operation not valid in the current state")
	ErrNotHandshaken    = errors.New("tls: handshake not complete")
	ErrNotAuthenticated = errors.New("sasl: not authenticated")

	// ErrSuspended is returned by step operations while the session waits
	// for the host to supply parameters or an authorization decision.
	ErrSuspended = errors.New("sasl: waiting for the application")

	ErrAuthFailed = errors.New("authentication failed")

	// ErrCrypto marks failures of a cryptographic primitive (bad padding,
	// verification failure, corrupt record) as opposed to protocol errors.
	ErrCrypto = errors.New("cryptographic operation failed")
)

type ErrTooWeak struct {
	MechSSF     uint
	ExtSSF      uint
	RequiredSSF uint
}

func (e ErrTooWeak) Error() string {
	if e.ExtSSF > 0 {
		return fmt.Sprintf("negotiated SSF (%d) + external SSF (%d) is less than required SSF (%d)", e.MechSSF, e.ExtSSF, e.RequiredSSF)
	} else {
		return fmt.Sprintf("negotiated SSF (%d) is less than required SSF (%d)", e.MechSSF, e.RequiredSSF)
	}
}

// ErrTooStrong is reported when a mechanism negotiated a security layer
// stronger than the configured maximum.
type ErrTooStrong struct {
	MechSSF    uint
	AllowedSSF uint
}

func (e ErrTooStrong) Error() string {
	return fmt.Sprintf("negotiated SSF (%d) exceeds maximum SSF (%d)", e.MechSSF, e.AllowedSSF)
}

// CryptoError wraps err so that errors.Is(err, ErrCrypto) holds.
func CryptoError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCrypto, err)
}
