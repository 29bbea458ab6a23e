// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package sasl

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNegotiating
	PhaseStepping
	PhaseAwaitingParams
	PhaseAwaitingAuthCheck
	PhaseAuthenticated
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNegotiating:
		return "negotiating"
	case PhaseStepping:
		return "stepping"
	case PhaseAwaitingParams:
		return "awaiting-params"
	case PhaseAwaitingAuthCheck:
		return "awaiting-auth-check"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

type ErrorKind int

const (
	ErrAuth ErrorKind = iota + 1
	ErrCrypt
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAuth:
		return "auth"
	case ErrCrypt:
		return "crypt"
	}
	return "unknown"
}

type Event interface {
	saslEvent()
}

// ClientFirstStep reports the mechanism the client chose.  Init is the
// initial response to send along with the mechanism name when HasInit
// is set.
type ClientFirstStep struct {
	Mech    string
	Init    []byte
	HasInit bool
}

// NextStep carries a token for the peer.
type NextStep struct {
	Data []byte
}

// NeedParams asks the application for credentials; supply them with the
// setters and call ContinueAfterParams.
type NeedParams struct {
	User     bool
	Authzid  bool
	Password bool
	Realm    bool
}

// AuthCheck asks a server application whether User may act as Authzid.
// Call ContinueAfterAuthCheck to accept or Reset to refuse.
type AuthCheck struct {
	User    string
	Authzid string
}

type Authenticated struct {
	Mech string
	SSF  int
}

type ReadyRead struct{}

type ReadyReadOutgoing struct {
	PlainBytes int
}

type Error struct {
	Kind ErrorKind
	Err  error
}

func (ClientFirstStep) saslEvent()   {}
func (NextStep) saslEvent()          {}
func (NeedParams) saslEvent()        {}
func (AuthCheck) saslEvent()         {}
func (Authenticated) saslEvent()     {}
func (ReadyRead) saslEvent()         {}
func (ReadyReadOutgoing) saslEvent() {}
func (Error) saslEvent()             {}
