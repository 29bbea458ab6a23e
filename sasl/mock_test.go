package sasl

import (
	"bytes"
	"slices"

	"github.com/golang-auth/go-cryptokit/common"
)

// mockProvider serves a private mechanism table so tests do not touch
// the global registry.
type mockProvider struct {
	order []string
	mechs map[string]mockEntry
}

type mockEntry struct {
	props common.MechProps
	new   func(common.MechConfig) common.Mech
}

func newMockProvider() *mockProvider {
	return &mockProvider{mechs: make(map[string]mockEntry)}
}

func (p *mockProvider) add(name string, props common.MechProps, f func(common.MechConfig) common.Mech) {
	p.order = append(p.order, name)
	p.mechs[name] = mockEntry{props: props, new: f}
}

func (p *mockProvider) Name() string                    { return "mock" }
func (p *mockProvider) Capabilities() common.Capability { return common.CapSASL }
func (p *mockProvider) Mechs() []string                 { return slices.Clone(p.order) }

func (p *mockProvider) MechProperties(name string) (common.MechProps, bool) {
	e, ok := p.mechs[name]
	return e.props, ok
}

func (p *mockProvider) NewMech(name string, cfg common.MechConfig) (common.Mech, error) {
	e, ok := p.mechs[name]
	if !ok {
		return nil, common.ErrNoMech
	}
	return e.new(cfg), nil
}

// mockMech completes after one token each way.  With ssf set it offers a
// security layer that frames and scrambles each buffer.
type mockMech struct {
	name  string
	props common.MechProps
	role  common.Role

	ssf     uint
	maxPeer uint32

	established bool
	deframer    common.Deframer
}

func mockFactory(name string, props common.MechProps, ssf uint, maxPeer uint32) func(common.MechConfig) common.Mech {
	return func(cfg common.MechConfig) common.Mech {
		return &mockMech{name: name, props: props, role: cfg.Role, ssf: ssf, maxPeer: maxPeer}
	}
}

func (m *mockMech) Name() string                     { return m.name }
func (m *mockMech) MechProperties() common.MechProps { return m.props }
func (m *mockMech) IsEstablished() bool              { return m.established }

func (m *mockMech) ContextParams() common.ContextParams {
	return common.ContextParams{SSF: m.ssf, MaxPeerMessageSize: m.maxPeer, User: "mock", Authzid: "mock"}
}

func (m *mockMech) Step(in []byte) ([]byte, error) {
	if m.role == common.RoleServer {
		if in == nil {
			return []byte{}, nil
		}
		if !bytes.Equal(in, []byte("hello")) {
			return nil, common.ErrAuthFailed
		}
		m.established = true
		return []byte("welcome"), nil
	}

	if in == nil {
		return []byte("hello"), nil
	}
	m.established = true
	return nil, nil
}

func scramble(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		out[i] = b ^ 0x5a
	}
	return out
}

func (m *mockMech) Encode(p []byte) ([]byte, error) {
	return common.Frame(scramble(p)), nil
}

func (m *mockMech) Decode(p []byte) ([]byte, error) {
	frames, err := m.deframer.Feed(p)
	if err != nil {
		return nil, common.CryptoError(err)
	}
	var out []byte
	for _, f := range frames {
		out = append(out, scramble(f)...)
	}
	return out, nil
}
