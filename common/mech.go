// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"errors"
	"net/netip"

	"github.com/golang-auth/go-cryptokit/pkg/loggable"
)

type MechProps struct {
	MaxSSF             uint
	SecurityProperties SecurityFlag
	Features           Feature
}

// ContextParams describes an established mechanism context.  User and
// Authzid are the authenticated and authorization identities; server-role
// mechanisms fill them in once the client has been verified.
type ContextParams struct {
	SSF                uint
	MaxPeerMessageSize uint32
	User               string
	Authzid            string
}

// Role is the side of the exchange a mechanism instance plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

type MechConfig struct {
	Logger         loggable.Loggable
	Role           Role
	AppName        string
	Service        string
	ServerFQDN     string
	Realm          string
	MinSSF         uint
	MaxSSF         uint
	MaxBufSize     uint
	ExternalSSF    uint
	ExternalAuthID string
	SecProps       SecurityFlag
	HTTPMode       bool
	ExtraProps     map[string]string
	ChannelBinding *ChannelBinding
	LocalAddr      netip.AddrPort
	RemoteAddr     netip.AddrPort

	// Params holds the credentials the application has supplied so far.
	// It is shared with the owning session and may gain values between
	// steps.
	Params *Params

	// Users verifies clients in the server role.
	Users UserStore
}

// Mech is one side of a SASL authentication exchange.
//
// Step is called with a nil token for the very first client step and, in
// the server role, when the client sent no initial response.  A mechanism
// that cannot proceed without application-supplied data returns a
// NeedParamsError and must leave its state untouched so the same token
// can be replayed.
//
// Encode and Decode implement the security layer once established.
// Decode may be handed arbitrary fragments of the peer's stream and
// buffers incomplete frames internally.
type Mech interface {
	Name() string
	MechProperties() MechProps
	IsEstablished() bool
	ContextParams() ContextParams
	Step(inToken []byte) (outToken []byte, err error)
	Encode(input []byte) (outToken []byte, err error)
	Decode(inputToken []byte) (output []byte, err error)
}

var ErrUnknownUser = errors.New("unknown user")

// UserStore is consulted by server-role mechanisms.
type UserStore interface {
	// VerifyPassword checks a clear-text password.
	VerifyPassword(user, realm, password string) (bool, error)

	// Secret returns the stored verifier for user under the named
	// mechanism, for example a SCRAM secret string.
	Secret(mech, user, realm string) (string, error)
}
