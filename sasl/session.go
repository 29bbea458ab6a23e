// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package sasl sequences a SASL authentication exchange in either role
// over a provider mechanism, then offers the negotiated security layer
// through the same buffered interface as the tls package.
//
// The session never blocks.  When the mechanism needs credentials it
// moves to PhaseAwaitingParams and emits NeedParams; a server session
// that has verified a client moves to PhaseAwaitingAuthCheck and emits
// AuthCheck.  Either way control returns to the host, which resumes with
// ContinueAfterParams or ContinueAfterAuthCheck.
package sasl

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/duplex"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/provider"
)

var validHostnameRegex = regexp.MustCompile(`^(([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]*[a-zA-Z0-9])\.)*([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9\-]*[A-Za-z0-9])$`)

// Session is one side of a SASL exchange.  It is not safe for concurrent
// use.
type Session struct {
	loggable.Loggable

	id         uuid.UUID
	prov       provider.Provider
	handler    func(Event)
	maxBufSize uint
	extraProps map[string]string
	cb         *common.ChannelBinding
	users      common.UserStore

	next policy
	cur  policy

	phase   Phase
	role    common.Role
	service string
	host    string
	realm   string
	sp      provider.SASLProvider
	offered []string

	mech     common.Mech
	mechName string
	params   common.Params

	// client-first mechanisms get nil on their first step
	stepped bool
	// the next output is the client's initial response
	firstStep bool
	// token to replay once parameters arrive
	pending []byte
	// server output held back until the auth check is answered
	final []byte

	ssf    uint
	ch     duplex.Channel
	plain  int
	events []Event
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		id:         uuid.New(),
		maxBufSize: 65536,
		extraProps: make(map[string]string),
		next:       defaultPolicy(),
	}
	for _, o := range opts {
		o(s)
	}
	s.Loggable = s.Loggable.With("sasl_session", s.id.String())
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

// Reset returns the session to idle from any phase, discarding the
// mechanism, supplied credentials, buffers and queued events.  Policy
// settings are kept.
func (s *Session) Reset() {
	s.phase = PhaseIdle
	s.sp = nil
	s.offered = nil
	s.mech = nil
	s.mechName = ""
	s.params.Clear()
	s.stepped = false
	s.firstStep = false
	s.pending = nil
	s.final = nil
	s.ssf = 0
	s.ch.Reset()
	s.plain = 0
	s.events = nil
}

func (s *Session) Phase() Phase {
	return s.phase
}

// Mech is the name of the mechanism in use, if any.
func (s *Session) Mech() string {
	return s.mechName
}

// SSF is the negotiated security strength factor; 0 until authenticated.
func (s *Session) SSF() int {
	if s.phase != PhaseAuthenticated {
		return 0
	}
	return int(s.ssf)
}

// Events drains the queued events.  It always returns nil when an event
// handler was configured.
func (s *Session) Events() []Event {
	ev := s.events
	s.events = nil
	return ev
}

func (s *Session) saslProvider() (provider.SASLProvider, error) {
	p := s.prov
	if p == nil {
		p = provider.Find(common.CapSASL)
	}
	if p == nil || !p.Capabilities().Has(common.CapSASL) {
		return nil, fmt.Errorf("sasl: %w", common.ErrUnsupported)
	}
	sp, ok := p.(provider.SASLProvider)
	if !ok {
		return nil, fmt.Errorf("sasl: provider %s: %w", p.Name(), common.ErrUnsupported)
	}
	return sp, nil
}

// begin checks the configuration shared by both roles and snapshots the
// policy.  On error the session is idle.
func (s *Session) begin(role common.Role, service, host string) error {
	if s.phase != PhaseIdle {
		phase := s.phase
		s.Reset()
		return fmt.Errorf("sasl: start in phase %s: %w", phase, common.ErrInvalidState)
	}
	if host != "" && !validHostnameRegex.MatchString(host) {
		return fmt.Errorf("sasl: bad hostname %q", host)
	}

	sp, err := s.saslProvider()
	if err != nil {
		return err
	}

	s.sp = sp
	s.cur = s.next
	s.role = role
	s.service = service
	s.host = host
	s.phase = PhaseNegotiating
	return nil
}

// acceptable applies the policy to one mechanism.
func (s *Session) acceptable(mech string) bool {
	props, ok := s.sp.MechProperties(mech)
	if !ok {
		s.Debugf("mech %s is not available", mech)
		return false
	}

	// how much 'extra ssf' do we need if we take the external layer into account?
	var minSSF uint
	if s.cur.minSSF > s.cur.extSSF {
		minSSF = s.cur.minSSF - s.cur.extSSF
	}

	// discard if the mech does not meet the min SSF requirement
	if minSSF > props.MaxSSF {
		s.Debugf("mech %s max SSF (%d) too low (want %d)", mech, props.MaxSSF, minSSF)
		return false
	}

	wantSecProps := s.cur.secProps
	if (s.cur.extSSF > s.cur.minSSF) && (s.cur.extSSF > 1) {
		s.Debugf("mech %s (max SSF %d) upgraded to non-plaintext (external SSF: %d)", mech, props.MaxSSF, s.cur.extSSF)
		wantSecProps &^= common.SecNoPlainText
	}

	if !props.SecurityProperties.Satisfies(wantSecProps) {
		s.Debugf("mech %s does not meet security requirements (missing %s)", mech, props.SecurityProperties.Missing(wantSecProps))
		return false
	}

	// does our configuration meet the mech's feature requirements?
	if s.cb != nil && s.cb.Critical && !props.Features.Has(common.FeatChannelBindings) {
		s.Debugf("mech %s does not support channel bindings", mech)
		return false
	}
	if props.Features.Has(common.FeatNeedServerFQDN) && s.host == "" {
		s.Debugf("mech %s requires server FQDN", mech)
		return false
	}
	if s.role == common.RoleServer && !props.Features.Has(common.FeatServerRole) {
		s.Debugf("mech %s has no server implementation", mech)
		return false
	}
	if mech == "EXTERNAL" && s.cur.extAuthID == "" {
		s.Debugf("mech %s needs an external authentication identity", mech)
		return false
	}

	return true
}

func (s *Session) mechConfig() common.MechConfig {
	return common.MechConfig{
		Logger:         s.Loggable,
		Role:           s.role,
		AppName:        AppName(),
		Service:        s.service,
		ServerFQDN:     s.host,
		Realm:          s.realm,
		MinSSF:         s.cur.minSSF,
		MaxSSF:         s.cur.maxSSF,
		MaxBufSize:     s.maxBufSize,
		ExternalSSF:    s.cur.extSSF,
		ExternalAuthID: s.cur.extAuthID,
		SecProps:       s.cur.secProps,
		ExtraProps:     s.extraProps,
		ChannelBinding: s.cb,
		LocalAddr:      s.cur.local,
		RemoteAddr:     s.cur.remote,
		Params:         &s.params,
		Users:          s.users,
	}
}

// StartClient chooses the first acceptable mechanism in mechList, or
// among all available mechanisms when the list is empty.  Configuration
// problems are returned; finding no acceptable mechanism is an
// authentication failure reported through an Error event.
func (s *Session) StartClient(service, host string, mechList []string, allowClientSendFirst bool) error {
	defer s.flush()

	if err := s.begin(common.RoleClient, service, host); err != nil {
		return err
	}

	if len(mechList) == 0 {
		mechList = s.sp.Mechs()
	}
	s.Debugf("client considering mechs: [%s]", strings.Join(mechList, ", "))

	var chosen string
	for _, m := range mechList {
		if s.acceptable(m) {
			chosen = m
			break
		}
	}
	if chosen == "" {
		s.fail(ErrAuth, common.ErrNoMech)
		return nil
	}
	s.Debugf("chose mech %s", chosen)

	if !s.create(chosen) {
		return nil
	}

	props, _ := s.sp.MechProperties(chosen)
	if !allowClientSendFirst || props.Features.Has(common.FeatServerFirst) {
		s.emit(ClientFirstStep{Mech: chosen})
		return nil
	}

	s.firstStep = true
	s.step(nil)
	return nil
}

// StartServer returns the mechanisms the server is willing to offer.
func (s *Session) StartServer(service, host, realm string) ([]string, error) {
	defer s.flush()

	if err := s.begin(common.RoleServer, service, host); err != nil {
		return nil, err
	}
	s.realm = realm

	for _, m := range s.sp.Mechs() {
		if s.acceptable(m) {
			s.offered = append(s.offered, m)
		}
	}
	s.Debugf("server offering mechs: [%s]", strings.Join(s.offered, ", "))

	if len(s.offered) == 0 {
		s.fail(ErrAuth, common.ErrNoMech)
		return nil, nil
	}
	return slices.Clone(s.offered), nil
}

// PutServerFirstStep starts the exchange with the client's chosen
// mechanism.  A nil clientInit means the client sent no initial
// response; an empty one is an empty initial response.
func (s *Session) PutServerFirstStep(mech string, clientInit []byte) error {
	defer s.flush()

	if s.phase != PhaseNegotiating || s.role != common.RoleServer {
		return fmt.Errorf("sasl: server first step in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	if !slices.Contains(s.offered, mech) {
		s.fail(ErrAuth, fmt.Errorf("sasl: client chose %q: %w", mech, common.ErrNoMech))
		return nil
	}
	if !s.create(mech) {
		return nil
	}

	s.step(clientInit)
	return nil
}

// PutStep hands the session the peer's latest token.  While the session
// waits for the application it returns ErrSuspended and changes nothing.
func (s *Session) PutStep(data []byte) error {
	defer s.flush()

	switch s.phase {
	case PhaseStepping:
	case PhaseAwaitingParams, PhaseAwaitingAuthCheck:
		return fmt.Errorf("sasl: step in phase %s: %w", s.phase, common.ErrSuspended)
	default:
		return fmt.Errorf("sasl: step in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	if data == nil {
		data = []byte{}
	}
	s.step(data)
	return nil
}

// ContinueAfterParams retries the step that asked for parameters.
func (s *Session) ContinueAfterParams() error {
	defer s.flush()

	if s.phase != PhaseAwaitingParams {
		return fmt.Errorf("sasl: continue after params in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	in := s.pending
	s.pending = nil
	s.phase = PhaseStepping
	s.step(in)
	return nil
}

// ContinueAfterAuthCheck accepts the identity reported by AuthCheck.
func (s *Session) ContinueAfterAuthCheck() error {
	defer s.flush()

	if s.phase != PhaseAwaitingAuthCheck {
		return fmt.Errorf("sasl: continue after auth check in phase %s: %w", s.phase, common.ErrInvalidState)
	}

	out := s.final
	s.final = nil
	s.phase = PhaseStepping
	if len(out) > 0 {
		s.emit(NextStep{Data: out})
	}
	s.finish()
	return nil
}

func (s *Session) create(name string) bool {
	mech, err := s.sp.NewMech(name, s.mechConfig())
	if err != nil {
		s.fail(ErrAuth, fmt.Errorf("sasl: failed to create %s: %w", name, err))
		return false
	}

	s.mech = mech
	s.mechName = name
	s.phase = PhaseStepping
	return true
}

func (s *Session) step(in []byte) {
	arg := in
	if s.role == common.RoleClient && !s.stepped &&
		!s.mech.MechProperties().Features.Has(common.FeatServerFirst) {
		arg = nil
	}

	out, err := s.mech.Step(arg)

	var need common.NeedParamsError
	if errors.As(err, &need) {
		s.Debugf("mech %s needs %s", s.mechName, need.Missing)
		s.pending = in
		s.phase = PhaseAwaitingParams
		s.emit(NeedParams{
			User:     need.Missing&common.ParamUser != 0,
			Authzid:  need.Missing&common.ParamAuthzid != 0,
			Password: need.Missing&common.ParamPassword != 0,
			Realm:    need.Missing&common.ParamRealm != 0,
		})
		return
	}
	if err != nil {
		s.failMech(err)
		return
	}
	s.stepped = true

	if !s.mech.IsEstablished() {
		s.emitStep(out)
		return
	}
	if !s.checkSSF() {
		return
	}

	if s.role == common.RoleServer {
		cp := s.mech.ContextParams()
		s.final = out
		s.phase = PhaseAwaitingAuthCheck
		s.Debugf("client authenticated as %q, authzid %q", cp.User, cp.Authzid)
		s.emit(AuthCheck{User: cp.User, Authzid: cp.Authzid})
		return
	}

	if len(out) > 0 || s.firstStep {
		s.emitStep(out)
	}
	s.finish()
}

func (s *Session) emitStep(out []byte) {
	if s.firstStep {
		s.firstStep = false
		s.emit(ClientFirstStep{Mech: s.mechName, Init: out, HasInit: true})
		return
	}
	s.emit(NextStep{Data: out})
}

// checkSSF enforces the SSF window as soon as the mechanism reports
// completion, before any final token or AuthCheck leaves the engine.
// The lower bound counts the external SSF; the upper bound applies to
// the mechanism's own layer only.
func (s *Session) checkSSF() bool {
	cp := s.mech.ContextParams()

	if s.cur.minSSF > cp.SSF+s.cur.extSSF {
		s.fail(ErrAuth, common.ErrTooWeak{MechSSF: cp.SSF, ExtSSF: s.cur.extSSF, RequiredSSF: s.cur.minSSF})
		return false
	}
	if cp.SSF > s.cur.maxSSF {
		s.fail(ErrAuth, common.ErrTooStrong{MechSSF: cp.SSF, AllowedSSF: s.cur.maxSSF})
		return false
	}
	return true
}

func (s *Session) finish() {
	cp := s.mech.ContextParams()
	s.ssf = cp.SSF
	s.phase = PhaseAuthenticated
	s.Infof("authenticated with %s, SSF %d", s.mechName, s.ssf)
	s.emit(Authenticated{Mech: s.mechName, SSF: int(s.ssf)})
}

// failMech classifies a mechanism error: primitive failures are crypto
// errors, everything else is an authentication failure.
func (s *Session) failMech(err error) {
	if errors.Is(err, common.ErrCrypto) {
		s.fail(ErrCrypt, err)
		return
	}
	s.fail(ErrAuth, err)
}

// fail moves to the failed phase; nothing advances again until Reset.
func (s *Session) fail(kind ErrorKind, err error) {
	s.Warnf("%s failure: %v", kind, err)
	s.phase = PhaseFailed
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
