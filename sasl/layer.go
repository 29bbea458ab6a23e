// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package sasl

import (
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
)

func (s *Session) layerReady() error {
	switch s.phase {
	case PhaseAuthenticated:
		return nil
	case PhaseFailed:
		return fmt.Errorf("sasl: security layer in phase %s: %w", s.phase, common.ErrInvalidState)
	}
	return common.ErrNotAuthenticated
}

// Write queues application data for the security layer.
func (s *Session) Write(p []byte) error {
	defer s.flush()

	if err := s.layerReady(); err != nil {
		return err
	}
	s.ch.PlainOut.Push(p)
	s.advance()
	return nil
}

// Read drains the application data recovered so far.  Before
// authentication there is never any, so it returns nil.
func (s *Session) Read() []byte {
	return s.ch.PlainIn.Pop()
}

// WriteIncoming hands the security layer bytes received from the peer.
func (s *Session) WriteIncoming(p []byte) error {
	defer s.flush()

	if err := s.layerReady(); err != nil {
		return err
	}
	s.ch.EncodedIn.Push(p)
	s.advance()
	return nil
}

// ReadOutgoing drains the bytes to send to the peer, together with the
// number of application bytes they carry.
func (s *Session) ReadOutgoing() (wire []byte, plainBytes int) {
	plainBytes, s.plain = s.plain, 0
	return s.ch.EncodedOut.Pop(), plainBytes
}

// advance moves data through the mechanism, or straight through when no
// layer was negotiated.
func (s *Session) advance() {
	if in := s.ch.EncodedIn.Pop(); len(in) > 0 {
		plain := in
		if s.ssf > 0 {
			var err error
			if plain, err = s.mech.Decode(in); err != nil {
				s.fail(ErrCrypt, err)
				return
			}
		}
		if s.ch.PlainIn.Push(plain) {
			s.emit(ReadyRead{})
		}
	}

	p := s.ch.PlainOut.Pop()
	if len(p) == 0 {
		return
	}

	wire := p
	if s.ssf > 0 {
		var err error
		if wire, err = s.encode(p); err != nil {
			s.fail(ErrCrypt, err)
			return
		}
	}

	s.plain += len(p)
	if s.ch.EncodedOut.Push(wire) {
		s.emit(ReadyReadOutgoing{PlainBytes: s.plain})
	}
}

// encode splits p so that no buffer exceeds what the peer accepts.
func (s *Session) encode(p []byte) ([]byte, error) {
	limit := int(s.mech.ContextParams().MaxPeerMessageSize)

	var wire []byte
	for len(p) > 0 {
		n := len(p)
		if limit > 0 && n > limit {
			n = limit
		}
		tok, err := s.mech.Encode(p[:n])
		if err != nil {
			return nil, err
		}
		wire = append(wire, tok...)
		p = p[n:]
	}
	return wire, nil
}
