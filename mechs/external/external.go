// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package external implements the EXTERNAL mechanism (RFC 4422
// Appendix A), which relies on an identity established outside SASL,
// typically a TLS client certificate.
package external

import (
	"errors"
	"fmt"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/registry"
)

const mechName = "EXTERNAL"

var (
	errNoLayer = errors.New("external: no security layer")

	// ErrNoExternalID is returned when no external identity was set.
	ErrNoExternalID = errors.New("external: no external authentication identity")
)

func init() {
	registry.Register(mechName, NewMech, common.MechProps{
		MaxSSF:             0,
		SecurityProperties: common.SecNoPlainText | common.SecNoAnonymous | common.SecNoDictionary,
		Features:           common.FeatWantClientFirst | common.FeatAllowsProxy | common.FeatServerRole,
	})
}

type Mech struct {
	loggable.Loggable
	config      common.MechConfig
	established bool
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
	if m.config.ExternalAuthID == "" {
		if m.config.Role == common.RoleServer {
			return nil, fmt.Errorf("%w: %w", ErrNoExternalID, common.ErrAuthFailed)
		}
		return nil, ErrNoExternalID
	}

	if m.config.Role == common.RoleClient {
		authzid, _ := m.config.Params.Authzid()
		m.authzid = authzid
		m.established = true
		return []byte(authzid), nil
	}

	if in == nil {
		return []byte{}, nil
	}

	m.authzid = string(in)
	if m.authzid == "" {
		m.authzid = m.config.ExternalAuthID
	}
	m.established = true
	m.Debugf("external: %q authorized as %q", m.config.ExternalAuthID, m.authzid)
	return nil, nil
}

func (m *Mech) IsEstablished() bool {
	return m.established
}

func (m *Mech) ContextParams() common.ContextParams {
	return common.ContextParams{
		User:    m.config.ExternalAuthID,
		Authzid: m.authzid,
	}
}

func (m *Mech) Encode([]byte) ([]byte, error) {
	return nil, errNoLayer
}

func (m *Mech) Decode([]byte) ([]byte, error) {
	return nil, errNoLayer
}
