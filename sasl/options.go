// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package sasl

import (
	"math"
	"net/netip"
	"sync"

	"go.uber.org/zap"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/provider"
)

var (
	appNameMu sync.RWMutex
	appName   = "cryptokit"
)

// SetAppName sets the application name handed to every mechanism.
func SetAppName(name string) {
	appNameMu.Lock()
	defer appNameMu.Unlock()
	appName = name
}

func AppName() string {
	appNameMu.RLock()
	defer appNameMu.RUnlock()
	return appName
}

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

func WithProvider(p provider.Provider) Option {
	return func(s *Session) {
		s.prov = p
	}
}

// WithMaxBufSize bounds the security layer buffers we accept.
func WithMaxBufSize(size uint) Option {
	return func(s *Session) {
		s.maxBufSize = size
	}
}

func WithExtraProps(key, value string) Option {
	return func(s *Session) {
		s.extraProps[key] = value
	}
}

func WithChannelBinding(cb common.ChannelBinding) Option {
	return func(s *Session) {
		s.cb = &cb
	}
}

// WithUserStore sets the credential store consulted in the server role.
func WithUserStore(u common.UserStore) Option {
	return func(s *Session) {
		s.users = u
	}
}

// policy is the negotiation policy.  Setters change the pending copy; a
// start takes a snapshot.
type policy struct {
	secProps  common.SecurityFlag
	minSSF    uint
	maxSSF    uint
	extSSF    uint
	extAuthID string
	local     netip.AddrPort
	remote    netip.AddrPort
}

func defaultPolicy() policy {
	return policy{
		secProps: common.SecNoAnonymous | common.SecNoPlainText,
		maxSSF:   math.MaxInt32,
	}
}

func (p *policy) flag(f common.SecurityFlag, on bool) {
	if on {
		p.secProps |= f
	} else {
		p.secProps &^= f
	}
}

func ssf(n int) uint {
	if n < 0 {
		return 0
	}
	return uint(n)
}

func (s *Session) SetAllowPlain(b bool)                { s.next.flag(common.SecNoPlainText, !b) }
func (s *Session) SetAllowAnonymous(b bool)            { s.next.flag(common.SecNoAnonymous, !b) }
func (s *Session) SetAllowActiveVulnerable(b bool)     { s.next.flag(common.SecNoActive, !b) }
func (s *Session) SetAllowDictionaryVulnerable(b bool) { s.next.flag(common.SecNoDictionary, !b) }
func (s *Session) SetRequireForwardSecrecy(b bool)     { s.next.flag(common.SecForwardSecrecy, b) }
func (s *Session) SetRequirePassCredentials(b bool)    { s.next.flag(common.SecPassCredentials, b) }
func (s *Session) SetRequireMutualAuth(b bool)         { s.next.flag(common.SecMutualAuth, b) }
func (s *Session) SetMinimumSSF(n int)                 { s.next.minSSF = ssf(n) }
func (s *Session) SetMaximumSSF(n int)                 { s.next.maxSSF = ssf(n) }
func (s *Session) SetExternalAuthID(id string)         { s.next.extAuthID = id }
func (s *Session) SetExternalSSF(n int)                { s.next.extSSF = ssf(n) }
func (s *Session) SetLocalAddr(addr netip.AddrPort)    { s.next.local = addr }
func (s *Session) SetRemoteAddr(addr netip.AddrPort)   { s.next.remote = addr }

// Credentials supplied while a mechanism waits in AwaitingParams, or up
// front.
func (s *Session) SetUsername(v string) { s.params.SetUsername(v) }
func (s *Session) SetAuthzid(v string)  { s.params.SetAuthzid(v) }
func (s *Session) SetPassword(v string) { s.params.SetPassword(v) }
func (s *Session) SetRealm(v string)    { s.params.SetRealm(v) }
