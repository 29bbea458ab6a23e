// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package tls

// Phase is the position of a session in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHandshaking
	PhaseHandshaken
	PhaseClosed
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseHandshaking:
		return "handshaking"
	case PhaseHandshaken:
		return "handshaken"
	case PhaseClosed:
		return "closed"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// ErrorKind separates handshake failures from failures of the record
// layer once the session is up.
type ErrorKind int

const (
	ErrHandshake ErrorKind = iota + 1
	ErrCrypt
)

func (k ErrorKind) String() string {
	switch k {
	case ErrHandshake:
		return "handshake"
	case ErrCrypt:
		return "crypt"
	}
	return "unknown"
}

// Event is something the host needs to react to.  Events are produced in
// the order the underlying transitions happen.
type Event interface {
	tlsEvent()
}

// Handshaken fires once the handshake completes; peer certificate and
// validity are available from then on.
type Handshaken struct{}

// ReadyRead fires when decoded application data became available.
type ReadyRead struct{}

// ReadyReadOutgoing fires when wire bytes became available to send.
// PlainBytes counts the application bytes those wire bytes carry.
type ReadyReadOutgoing struct {
	PlainBytes int
}

// Closed fires after a close_notify was sent or received.
type Closed struct{}

type Error struct {
	Kind ErrorKind
	Err  error
}

func (Handshaken) tlsEvent()        {}
func (ReadyRead) tlsEvent()         {}
func (ReadyReadOutgoing) tlsEvent() {}
func (Closed) tlsEvent()            {}
func (Error) tlsEvent()             {}
