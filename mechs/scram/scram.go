// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package scram implements the SCRAM-SHA-1 and SCRAM-SHA-256 mechanisms
// (RFC 5802, RFC 7677) in both roles.  Server secrets come from the
// configured UserStore in the format produced by NewSecret.
package scram

import (
	"errors"
	"fmt"

	"github.com/xdg-go/scram"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/registry"
)

var errNoLayer = errors.New("scram: no security layer")

func init() {
	props := common.MechProps{
		MaxSSF:             0,
		SecurityProperties: common.SecNoPlainText | common.SecNoActive | common.SecNoAnonymous | common.SecMutualAuth,
		Features:           common.FeatWantClientFirst | common.FeatAllowsProxy | common.FeatServerRole,
	}

	registry.Register(SHA1, factory(SHA1), props)
	registry.Register(SHA256, factory(SHA256), props)
}

func factory(method string) registry.MechFactory {
	return func(cfg common.MechConfig) (common.Mech, error) {
		return NewMech(method, cfg)
	}
}

type Mech struct {
	loggable.Loggable
	name   string
	gen    scram.HashGeneratorFcn
	config common.MechConfig

	client *scram.ClientConversation
	server *scram.ServerConversation

	established bool
	user        string
	authzid     string
}

func NewMech(method string, cfg common.MechConfig) (*Mech, error) {
	gen, err := generator(method)
	if err != nil {
		return nil, err
	}

	return &Mech{
		Loggable: cfg.Logger,
		name:     method,
		gen:      gen,
		config:   cfg,
	}, nil
}

func (m *Mech) Name() string {
	return m.name
}

func (m *Mech) MechProperties() common.MechProps {
	props, _ := registry.Properties(m.name)
	return props
}

func (m *Mech) Step(in []byte) ([]byte, error) {
	if m.established {
		return nil, common.ErrAlreadyEstablished
	}
	if m.config.Role == common.RoleServer {
		return m.serverStep(in)
	}
	return m.clientStep(in)
}

func (m *Mech) clientStep(in []byte) ([]byte, error) {
	if m.client == nil {
		p := m.config.Params
		if missing := p.Missing(common.ParamUser | common.ParamPassword); missing != 0 {
			return nil, common.NeedParamsError{Missing: missing}
		}
		user, _ := p.Username()
		pass, _ := p.Password()
		authzid, _ := p.Authzid()

		client, err := m.gen.NewClient(user, pass, authzid)
		if err != nil {
			return nil, err
		}
		m.client = client.NewConversation()
		m.user, m.authzid = user, authzid
	}

	msg, err := m.client.Step(string(in))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", m.name, common.ErrAuthFailed, err)
	}

	if m.client.Done() {
		if !m.client.Valid() {
			return nil, fmt.Errorf("%s: server signature mismatch: %w", m.name, common.ErrAuthFailed)
		}
		m.established = true
		m.Debugf("%s: server verified", m.name)
	}
	return []byte(msg), nil
}

func (m *Mech) lookup(user string) (scram.StoredCredentials, error) {
	if m.config.Users == nil {
		return scram.StoredCredentials{}, errors.New("no user store configured")
	}
	secret, err := m.config.Users.Secret(m.name, user, m.config.Realm)
	if err != nil {
		return scram.StoredCredentials{}, err
	}
	method, creds, err := ParseSecret(secret)
	if err != nil {
		return creds, err
	}
	if method != m.name {
		return creds, fmt.Errorf("stored secret is for %s", method)
	}
	return creds, nil
}

func (m *Mech) serverStep(in []byte) ([]byte, error) {
	if m.server == nil {
		if in == nil {
			return []byte{}, nil
		}
		server, err := m.gen.NewServer(m.lookup)
		if err != nil {
			return nil, err
		}
		m.server = server.NewConversation()
	}

	msg, err := m.server.Step(string(in))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", m.name, common.ErrAuthFailed, err)
	}

	if m.server.Done() {
		// check if conversation params are valid
		if !m.server.Valid() {
			return nil, fmt.Errorf("%s: %w", m.name, common.ErrAuthFailed)
		}

		m.user = m.server.Username()
		m.authzid = m.server.AuthzID()
		if m.authzid == "" {
			m.authzid = m.user
		}
		m.established = true
		m.Debugf("%s: client %q verified", m.name, m.user)
	}
	return []byte(msg), nil
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
