// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package gssapi implements the client side of the SASL GSSAPI
// mechanism (RFC 4752) over Kerberos v5.
package gssapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/registry"

	"github.com/golang-auth/go-gssapi/v2"
	gsscommon "github.com/golang-auth/go-gssapi/v2/common"
	_ "github.com/golang-auth/go-gssapi/v2/krb5"
)

const mechName = "GSSAPI"

// largest buffer size the 3-byte field in the SSF token can carry
const maxBufSize = 0xFFFFFF

var errNoLayer = errors.New("gssapi: no suitable security layer available")

func init() {
	// see: https://www.iana.org/assignments/sasl-mechanisms/sasl-mechanisms.xhtml

	registry.Register(mechName, NewMech, common.MechProps{
		MaxSSF:             256,
		SecurityProperties: common.SecNoPlainText | common.SecNoActive | common.SecNoAnonymous | common.SecMutualAuth | common.SecPassCredentials,
		Features:           common.FeatNeedServerFQDN | common.FeatWantClientFirst | common.FeatChannelBindings,
	})
}

type qop uint8

const (
	layerNone qop = 1 << iota
	layerIntegrity
	layerConfidentiality
)

func (q qop) String() string {
	var names []string
	if q&layerNone > 0 {
		names = append(names, "none")
	}
	if q&layerIntegrity > 0 {
		names = append(names, "integrity")
	}
	if q&layerConfidentiality > 0 {
		names = append(names, "confidentiality")
	}

	return strings.Join(names, ", ")
}

type state uint8

const (
	stateAuthenticating state = iota
	stateSSFCap
	stateAuthenticated
)

type Mech struct {
	loggable.Loggable
	config            common.MechConfig
	client            gssapi.Mech
	qop               qop
	ssf               uint
	state             state
	maxOutputBufferSz uint32
	deframer          common.Deframer
}

// NewMech creates a client-role GSSAPI context.  The server role needs an
// acceptor credential that this package does not manage.
func NewMech(cfg common.MechConfig) (common.Mech, error) {
	if cfg.Role != common.RoleClient {
		return nil, fmt.Errorf("gssapi: %s role: %w", cfg.Role, common.ErrUnsupported)
	}

	cfg.Logger.Debugf("new GSSAPI mech")
	return &Mech{
		Loggable: cfg.Logger,
		config:   cfg,
		client:   gssapi.NewMech("kerberos_v5"),
		state:    stateAuthenticating,
		deframer: common.Deframer{MaxSize: uint32(bufSize(cfg.MaxBufSize))},
	}, nil
}

func (m *Mech) Name() string {
	return mechName
}

func (m *Mech) MechProperties() common.MechProps {
	props, _ := registry.Properties(mechName)
	return props
}

func (m *Mech) Step(inToken []byte) (outToken []byte, err error) {
	switch m.state {
	case stateAuthenticating:
		return m.stepAuthenticating(inToken)
	case stateSSFCap:
		return m.stepSSFCap(inToken)
	case stateAuthenticated:
		return nil, common.ErrAlreadyEstablished
	}

	return nil, fmt.Errorf("gssapi: step - bad state (%d)", m.state)
}

func (m *Mech) stepAuthenticating(inToken []byte) (outToken []byte, err error) {
	m.Debugf("gssapi: step (authenticating)")

	// only the first time..
	if inToken == nil {
		if len(m.config.ServerFQDN) == 0 {
			return nil, errors.New("gssapi: server FQDN not provided")
		}
		princName := m.config.Service + "/" + m.config.ServerFQDN

		var flags gssapi.ContextFlag = gssapi.ContextFlagMutual | gssapi.ContextFlagSequence
		if m.config.MaxSSF > m.config.ExternalSSF {
			flags |= gssapi.ContextFlagInteg

			if (m.config.MaxSSF - m.config.ExternalSSF) > 1 {
				flags |= gssapi.ContextFlagConf
			}
		}

		m.Debugf("gssapi: requesting flags [%s]", flags.String())

		var gsscb *gsscommon.ChannelBinding
		if m.config.ChannelBinding != nil {
			gsscb = &gsscommon.ChannelBinding{
				Data: m.config.ChannelBinding.Data,
			}
		}

		if err = m.client.Initiate(princName, flags, gsscb); err != nil {
			return
		}

		switch {
		case m.client.ContextFlags()&gssapi.ContextFlagInteg == 0:
			m.qop = layerNone
		case m.client.ContextFlags()&gssapi.ContextFlagConf == 0:
			m.qop = layerNone | layerIntegrity
		default:
			m.qop = layerNone | layerIntegrity | layerConfidentiality
		}

		inToken = []byte{}
		m.Debugf("gssapi: context initiated")
	}

	outToken, err = m.client.Continue(inToken)

	if m.client.IsEstablished() {
		if m.config.HTTPMode {
			m.Debugf("gssapi: context established (HTTP mode)")
			m.state = stateAuthenticated
		} else {
			m.Debugf("gssapi: context established, negotiating SSF")
			m.state = stateSSFCap
			if outToken == nil {
				outToken = []byte{}
			}
		}
	}

	return outToken, err
}

// ssfCap is the 4-byte security layer token of RFC 4752 § 3.1.
type ssfCap struct {
	layers  qop
	maxSize uint32
}

func parseSSFCap(data []byte) (ssfCap, error) {
	if len(data) != 4 {
		return ssfCap{}, fmt.Errorf("gssapi: bad SSF negotiate token (%d bytes, wanted 4)", len(data))
	}
	return ssfCap{
		layers:  qop(data[0]),
		maxSize: uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]),
	}, nil
}

func (c ssfCap) bytes() []byte {
	return []byte{byte(c.layers), byte(c.maxSize >> 16), byte(c.maxSize >> 8), byte(c.maxSize)}
}

// chooseLayer picks the strongest layer both sides offer that fits the
// SSF window left after any external layer.
func chooseLayer(ours, offer qop, allowedSSF, needSSF, channelSSF uint) (qop, uint, error) {
	switch {
	case ours&layerConfidentiality > 0 && offer&layerConfidentiality > 0 && allowedSSF >= channelSSF && needSSF <= channelSSF:
		return layerConfidentiality, channelSSF, nil
	case ours&layerIntegrity > 0 && offer&layerIntegrity > 0 && allowedSSF >= 1 && needSSF <= 1:
		return layerIntegrity, 1, nil
	case ours&layerNone > 0 && offer&layerNone > 0 && needSSF == 0:
		return layerNone, 0, nil
	}
	return 0, 0, errNoLayer
}

func (m *Mech) stepSSFCap(inToken []byte) (outToken []byte, err error) {
	// inToken is a wrapped token sent by the server following the
	// establishment of the GSSAPI context
	m.Debugf("gssapi: step (negotiating SSF)")

	data, _, err := m.client.Unwrap(inToken)
	if err != nil {
		return nil, common.CryptoError(err)
	}

	offer, err := parseSSFCap(data)
	if err != nil {
		return nil, err
	}
	m.Debugf("gssapi: server QOP offer: %s, our QOP: %s", offer.layers, m.qop)

	channelSSF := m.client.SSF()
	m.Debugf("gssapi: channel SSF: %d", channelSSF)
	if m.config.MinSSF > (channelSSF + m.config.ExternalSSF) {
		return nil, common.ErrTooWeak{MechSSF: channelSSF, ExtSSF: m.config.ExternalSSF, RequiredSSF: m.config.MinSSF}
	}

	var allowedSSF, needSSF uint
	if m.config.MaxSSF >= m.config.ExternalSSF {
		allowedSSF = m.config.MaxSSF - m.config.ExternalSSF
	}
	if m.config.MinSSF >= m.config.ExternalSSF {
		needSSF = m.config.MinSSF - m.config.ExternalSSF
	}
	m.Debugf("gssapi: residual SSF permitted: %d, required: %d", allowedSSF, needSSF)

	choice, ssf, err := chooseLayer(m.qop, offer.layers, allowedSSF, needSSF, channelSSF)
	if err != nil {
		return nil, err
	}
	m.ssf = ssf

	// AD explicitly requires integrity when requesting confidentiality
	if choice == layerConfidentiality {
		if val, ok := m.config.ExtraProps["ad_compat"]; ok && isTrue(val) {
			choice |= layerIntegrity
		}
	}
	m.Debugf("gssapi: selected QOP: %s, ssf: %d", choice, m.ssf)

	m.maxOutputBufferSz = offer.maxSize
	if m.ssf > 0 {
		// max size of a pre-wrapped message we can send to the server
		m.maxOutputBufferSz = m.client.WrapSizeLimit(m.maxOutputBufferSz, m.ssf > 1)
		m.Debugf("gssapi: max unwrapped output buffer size: %d", m.maxOutputBufferSz)
	}

	reply := ssfCap{layers: choice}
	if choice > layerNone {
		reply.maxSize = uint32(bufSize(m.config.MaxBufSize))
	}

	outToken, err = m.client.Wrap(reply.bytes(), false)
	if err != nil {
		return nil, common.CryptoError(err)
	}

	m.state = stateAuthenticated
	return outToken, nil
}

func (m *Mech) IsEstablished() bool {
	return m.state == stateAuthenticated
}

func (m *Mech) ContextParams() common.ContextParams {
	return common.ContextParams{
		SSF:                m.ssf,
		MaxPeerMessageSize: m.maxOutputBufferSz,
	}
}

// Encode wraps input and prefixes the token with its length.
func (m *Mech) Encode(input []byte) ([]byte, error) {
	if m.ssf == 0 {
		return nil, errors.New("gssapi: can't encode data: no security layer negotiated")
	}

	tok, err := m.client.Wrap(input, m.ssf > 1)
	if err != nil {
		return nil, common.CryptoError(err)
	}
	return common.Frame(tok), nil
}

func (m *Mech) Decode(input []byte) ([]byte, error) {
	if m.ssf == 0 {
		return nil, errors.New("gssapi: can't decode data: no security layer negotiated")
	}

	frames, err := m.deframer.Feed(input)
	if err != nil {
		return nil, common.CryptoError(err)
	}

	var out []byte
	for _, f := range frames {
		data, _, err := m.client.Unwrap(f)
		if err != nil {
			return out, common.CryptoError(err)
		}
		out = append(out, data...)
	}
	return out, nil
}

func isTrue(val string) bool {
	return val == "1" || val == "y" || val == "on" || val == "t"
}

// bufSize caps the configured buffer size to what the SSF token can carry.
func bufSize(n uint) uint {
	if n == 0 || n > maxBufSize {
		return maxBufSize
	}
	return n
}
