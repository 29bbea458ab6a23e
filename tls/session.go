// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package tls sequences a TLS handshake over a provider TLS context and
// separates the protected stream into application and wire views.
//
// A Session performs no I/O.  The host feeds it wire bytes received from
// the peer with WriteIncoming and sends whatever ReadOutgoing returns;
// application data goes in through Write and comes out of Read.  Every
// call runs the session forward as far as the buffered input allows and
// queues events describing what changed.
package tls

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/duplex"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/provider"
)

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		_ = loggable.WithLogger(l)(&s.Loggable)
	}
}

// WithEventHandler delivers events to h at the end of each call instead
// of queueing them for Events.
func WithEventHandler(h func(Event)) Option {
	return func(s *Session) {
		s.handler = h
	}
}

// WithProvider pins the session to p rather than the first inserted
// provider with TLS support.
func WithProvider(p provider.Provider) Option {
	return func(s *Session) {
		s.prov = p
	}
}

// Session is one end of a TLS connection.  It is not safe for concurrent
// use.
type Session struct {
	loggable.Loggable

	id      uuid.UUID
	prov    provider.Provider
	handler func(Event)

	cert  provider.CertContext
	key   provider.RSAKeyContext
	store *Store

	phase    Phase
	server   bool
	host     string
	ctx      provider.TLSContext
	ch       duplex.Channel
	pending  int
	peer     provider.CertContext
	validity common.Validity
	events   []Event
}

func NewSession(opts ...Option) *Session {
	s := &Session{id: uuid.New()}
	for _, o := range opts {
		o(s)
	}
	s.Loggable = s.Loggable.With("tls_session", s.id.String())
	return s
}

// SetEventHandler replaces the handler installed with WithEventHandler.
// A nil handler switches back to queueing.
func (s *Session) SetEventHandler(h func(Event)) {
	s.handler = h
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// SetCertificate sets the local certificate and private key presented
// to the peer.  A server needs both.
func (s *Session) SetCertificate(cert provider.CertContext, key provider.RSAKeyContext) error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("tls: set certificate in phase %s: %w", s.phase, common.ErrInvalidState)
	}
	s.cert, s.key = cert, key
	return nil
}

// SetCertificateStore sets the trust anchors the peer certificate is
// checked against.  The store is referenced, not copied.
func (s *Session) SetCertificateStore(store *Store) error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("tls: set store in phase %s: %w", s.phase, common.ErrInvalidState)
	}
	s.store = store
	return nil
}

// Reset returns the session to idle from any phase, discarding buffered
// bytes, queued events and handshake state.  The configured certificate,
// key and store are kept.
func (s *Session) Reset() {
	if s.ctx != nil {
		s.ctx.Abort()
		s.ctx = nil
	}
	s.ch.Reset()
	s.phase = PhaseIdle
	s.server = false
	s.host = ""
	s.pending = 0
	s.peer = nil
	s.validity = common.NoCert
	s.events = nil
}

// StartClient begins a handshake as client.  host, when not empty, is
// matched against the server certificate.
func (s *Session) StartClient(host string) error {
	return s.start(false, host)
}

func (s *Session) StartServer() error {
	return s.start(true, "")
}

func (s *Session) tlsProvider() (provider.TLSProvider, error) {
	p := s.prov
	if p == nil {
		p = provider.Find(common.CapTLS)
	}
	if p == nil || !p.Capabilities().Has(common.CapTLS) {
		return nil, fmt.Errorf("tls: %w", common.ErrUnsupported)
	}
	tp, ok := p.(provider.TLSProvider)
	if !ok {
		return nil, fmt.Errorf("tls: provider %s: %w", p.Name(), common.ErrUnsupported)
	}
	return tp, nil
}

// start leaves the session idle on any error.
func (s *Session) start(server bool, host string) error {
	defer s.flush()

	if s.phase != PhaseIdle {
		phase := s.phase
		s.Reset()
		return fmt.Errorf("tls: start in phase %s: %w", phase, common.ErrInvalidState)
	}

	tp, err := s.tlsProvider()
	if err != nil {
		return err
	}
	ctx, err := tp.NewTLS()
	if err != nil {
		return fmt.Errorf("tls: failed to create context: %w", err)
	}

	cfg := provider.TLSConfig{
		Server:      server,
		Host:        host,
		Certificate: s.cert,
		Key:         s.key,
		Store:       s.store.Certificates(),
	}
	if err := ctx.Start(cfg); err != nil {
		ctx.Abort()
		return fmt.Errorf("tls: failed to start: %w", err)
	}

	s.ctx = ctx
	s.server = server
	s.host = host
	s.phase = PhaseHandshaking
	s.Debugf("tls: started as %s, host %q, %d trusted certificates", role(server), host, s.store.Len())

	s.advance()
	return nil
}

func role(server bool) string {
	if server {
		return "server"
	}
	return "client"
}

func (s *Session) IsHandshaken() bool {
	return s.phase == PhaseHandshaken
}

func (s *Session) Phase() Phase {
	return s.phase
}

// Write queues application data for protection.
func (s *Session) Write(p []byte) error {
	defer s.flush()

	switch s.phase {
	case PhaseHandshaken:
	case PhaseIdle, PhaseHandshaking:
		return common.ErrNotHandshaken
	default:
		return fmt.Errorf("tls: write in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	s.ch.PlainOut.Push(p)
	s.advance()
	return nil
}

// Read drains the decoded application data received so far.
func (s *Session) Read() []byte {
	return s.ch.PlainIn.Pop()
}

// WriteIncoming hands the session wire bytes received from the peer.
func (s *Session) WriteIncoming(p []byte) error {
	defer s.flush()

	if s.phase != PhaseHandshaking && s.phase != PhaseHandshaken {
		return fmt.Errorf("tls: incoming data in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	s.ch.EncodedIn.Push(p)
	s.advance()
	return nil
}

// ReadOutgoing drains the wire bytes to send to the peer, together with
// the number of application bytes they carry.
func (s *Session) ReadOutgoing() (wire []byte, plainBytes int) {
	plainBytes, s.pending = s.pending, 0
	return s.ch.EncodedOut.Pop(), plainBytes
}

func (s *Session) PeerCertificate() provider.CertContext {
	return s.peer
}

// CertificateValidityResult is the verdict on the peer certificate.  It
// is NoCert until the handshake has completed.
func (s *Session) CertificateValidityResult() common.Validity {
	return s.validity
}

// ChannelBinding returns tls-exporter channel binding data for SASL.
func (s *Session) ChannelBinding() (*common.ChannelBinding, error) {
	if s.phase != PhaseHandshaken {
		return nil, common.ErrNotHandshaken
	}
	data, err := s.ctx.ChannelBinding()
	if err != nil {
		return nil, err
	}
	return &common.ChannelBinding{Type: "tls-exporter", Data: data}, nil
}

// Close flushes queued application data, then sends a closure alert.
func (s *Session) Close() error {
	defer s.flush()

	switch s.phase {
	case PhaseHandshaken:
		s.advance()
		if s.phase != PhaseHandshaken {
			return nil
		}
	case PhaseHandshaking:
	default:
		return fmt.Errorf("tls: close in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	out, err := s.ctx.Close()
	s.pushOutgoing(out, 0)
	if err != nil {
		s.fail(ErrCrypt, err)
		return nil
	}

	s.Debugf("tls: closed")
	s.phase = PhaseClosed
	s.emit(Closed{})
	return nil
}

// Events drains the queued events.  It always returns nil when an event
// handler was configured.
func (s *Session) Events() []Event {
	ev := s.events
	s.events = nil
	return ev
}

func (s *Session) advance() {
	if s.phase == PhaseHandshaking {
		out, done, err := s.ctx.Handshake(s.ch.EncodedIn.Pop())
		s.pushOutgoing(out, 0)
		if err != nil {
			s.fail(ErrHandshake, err)
			return
		}
		if !done {
			return
		}

		s.peer = s.ctx.PeerCertificate()
		s.validity = s.ctx.Validity()
		s.phase = PhaseHandshaken
		s.Debugf("tls: handshake complete, peer certificate %s", s.validity)
		s.emit(Handshaken{})
	}

	if s.phase != PhaseHandshaken {
		return
	}

	plain, out, err := s.ctx.Decode(s.ch.EncodedIn.Pop())
	if s.ch.PlainIn.Push(plain) {
		s.emit(ReadyRead{})
	}
	s.pushOutgoing(out, 0)

	switch {
	case errors.Is(err, io.EOF):
		s.Debugf("tls: peer closed the connection")
		s.ctx.Abort()
		s.phase = PhaseClosed
		s.emit(Closed{})
		return
	case err != nil:
		s.fail(ErrCrypt, err)
		return
	}

	if p := s.ch.PlainOut.Pop(); len(p) > 0 {
		wire, err := s.ctx.Encode(p)
		if err != nil {
			s.fail(ErrCrypt, err)
			return
		}
		s.pushOutgoing(wire, len(p))
	}
}

func (s *Session) pushOutgoing(wire []byte, plain int) {
	s.pending += plain
	if s.ch.EncodedOut.Push(wire) {
		s.emit(ReadyReadOutgoing{PlainBytes: s.pending})
	}
}

// fail moves to the error phase; nothing advances again until Reset.
func (s *Session) fail(kind ErrorKind, err error) {
	s.Warnf("tls: %s failure: %v", kind, err)
	s.phase = PhaseError
	s.ctx.Abort()
	s.emit(Error{Kind: kind, Err: err})
}

func (s *Session) emit(e Event) {
	s.events = append(s.events, e)
}

func (s *Session) flush() {
	if s.handler == nil {
		return
	}
	for len(s.events) > 0 {
		ev := s.events
		s.events = nil
		for _, e := range ev {
			s.handler(e)
		}
	}
}
