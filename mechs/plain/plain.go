// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package plain implements the PLAIN mechanism (RFC 4616).
package plain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/registry"
)

const mechName = "PLAIN"

var errNoLayer = errors.New("plain: no security layer")

func init() {
	registry.Register(mechName, NewMech, common.MechProps{
		MaxSSF:             0,
		SecurityProperties: common.SecNoAnonymous | common.SecPassCredentials,
		Features:           common.FeatWantClientFirst | common.FeatAllowsProxy | common.FeatServerRole,
	})
}

type Mech struct {
	loggable.Loggable
	config      common.MechConfig
	established bool
	user        string
	authzid     string
}

func NewMech(cfg common.MechConfig) (common.Mech, error) {
	return &Mech{
		Loggable: cfg.Logger,
		config:   cfg,
	}, nil
}

func (m *Mech) Name() string {
	return mechName
}

func (m *Mech) MechProperties() common.MechProps {
	props, _ := registry.Properties(mechName)
	return props
}

func (m *Mech) Step(in []byte) ([]byte, error) {
	if m.established {
		return nil, common.ErrAlreadyEstablished
	}
	if m.config.Role == common.RoleServer {
		return m.serverStep(in)
	}
	return m.clientStep()
}

func (m *Mech) clientStep() ([]byte, error) {
	p := m.config.Params
	if missing := p.Missing(common.ParamUser | common.ParamPassword); missing != 0 {
		return nil, common.NeedParamsError{Missing: missing}
	}

	user, _ := p.Username()
	pass, _ := p.Password()
	authzid, _ := p.Authzid()

	m.user, m.authzid = user, authzid
	m.established = true
	m.Debugf("plain: sending credentials for %q", user)

	return []byte(authzid + "\x00" + user + "\x00" + pass), nil
}

func (m *Mech) serverStep(in []byte) ([]byte, error) {
	// no initial response; ask for one with an empty challenge
	if in == nil {
		return []byte{}, nil
	}

	parts := bytes.Split(in, []byte{0})
	if len(parts) != 3 || len(parts[1]) == 0 {
		return nil, fmt.Errorf("plain: malformed response: %w", common.ErrAuthFailed)
	}
	authzid, user, pass := string(parts[0]), string(parts[1]), string(parts[2])

	if m.config.Users == nil {
		return nil, errors.New("plain: no user store configured")
	}
	ok, err := m.config.Users.VerifyPassword(user, m.config.Realm, pass)
	if errors.Is(err, common.ErrUnknownUser) {
		ok, err = false, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		m.Debugf("plain: bad credentials for %q", user)
		return nil, fmt.Errorf("plain: %q: %w", user, common.ErrAuthFailed)
	}

	if authzid == "" {
		authzid = user
	}
	m.user, m.authzid = user, authzid
	m.established = true
	return nil, nil
}

func (m *Mech) IsEstablished() bool {
	return m.established
}

func (m *Mech) ContextParams() common.ContextParams {
	return common.ContextParams{User: m.user, Authzid: m.authzid}
}

func (m *Mech) Encode([]byte) ([]byte, error) {
	return nil, errNoLayer
}

func (m *Mech) Decode([]byte) ([]byte, error) {
	return nil, errNoLayer
}
