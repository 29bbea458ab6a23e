// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package anonymous implements the ANONYMOUS mechanism (RFC 4505).
package anonymous

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
	"github.com/golang-auth/go-cryptokit/registry"
)

const (
	mechName = "ANONYMOUS"

	// User is the identity reported for every anonymous login.
	User = "anonymous"

	maxTraceLen = 255
)

var errNoLayer = errors.New("anonymous: no security layer")

func init() {
	registry.Register(mechName, NewMech, common.MechProps{
		MaxSSF:             0,
		SecurityProperties: common.SecNoPlainText,
		Features:           common.FeatWantClientFirst | common.FeatServerRole,
	})
}

type Mech struct {
	loggable.Loggable
	config      common.MechConfig
	established bool
	trace       string
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

// Step sends the username, if one was supplied, as trace information.
func (m *Mech) Step(in []byte) ([]byte, error) {
	if m.established {
		return nil, common.ErrAlreadyEstablished
	}

	if m.config.Role == common.RoleClient {
		trace, _ := m.config.Params.Username()
		m.trace = trace
		m.established = true
		return []byte(trace), nil
	}

	if in == nil {
		return []byte{}, nil
	}
	if len(in) > maxTraceLen*4 || !utf8.Valid(in) || utf8.RuneCount(in) > maxTraceLen {
		return nil, fmt.Errorf("anonymous: bad trace information: %w", common.ErrAuthFailed)
	}

	m.trace = string(in)
	m.established = true
	m.Debugf("anonymous: login, trace %q", m.trace)
	return nil, nil
}

func (m *Mech) IsEstablished() bool {
	return m.established
}

func (m *Mech) ContextParams() common.ContextParams {
	return common.ContextParams{User: User, Authzid: User}
}

func (m *Mech) Encode([]byte) ([]byte, error) {
	return nil, errNoLayer
}

func (m *Mech) Decode([]byte) ([]byte, error) {
	return nil, errNoLayer
}
