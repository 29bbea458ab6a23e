package plain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-cryptokit/common"
)

type users map[string]string

func (u users) VerifyPassword(user, realm, password string) (bool, error) {
	pw, ok := u[user]
	if !ok {
		return false, common.ErrUnknownUser
	}
	return pw == password, nil
}

func (u users) Secret(mech, user, realm string) (string, error) {
	return "", common.ErrUnknownUser
}

func TestPlainExchange(t *testing.T) {
	params := &common.Params{}
	client, err := NewMech(common.MechConfig{Params: params})
	require.NoError(t, err)

	_, err = client.Step(nil)
	var need common.NeedParamsError
	require.ErrorAs(t, err, &need)
	assert.Equal(t, common.ParamUser|common.ParamPassword, need.Missing)
	assert.False(t, client.IsEstablished())

	params.SetUsername("alice")
	params.SetPassword("secret")
	tok, err := client.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, "\x00alice\x00secret", string(tok))
	assert.True(t, client.IsEstablished())

	server, err := NewMech(common.MechConfig{Role: common.RoleServer, Users: users{"alice": "secret"}})
	require.NoError(t, err)

	out, err := server.Step(tok)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, server.IsEstablished())
	assert.Equal(t, common.ContextParams{User: "alice", Authzid: "alice"}, server.ContextParams())

	_, err = server.Step(tok)
	assert.ErrorIs(t, err, common.ErrAlreadyEstablished)
}

func TestPlainServer(t *testing.T) {
	store := users{"alice": "secret"}

	var tests = []struct {
		name  string
		token string
		err   bool
	}{
		{"good", "\x00alice\x00secret", false},
		{"authzid", "bob\x00alice\x00secret", false},
		{"wrong password", "\x00alice\x00nope", true},
		{"unknown user", "\x00mallory\x00secret", true},
		{"malformed", "alice secret", true},
		{"empty user", "\x00\x00secret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewMech(common.MechConfig{Role: common.RoleServer, Users: store})
			require.NoError(t, err)

			_, err = server.Step([]byte(tt.token))
			if tt.err {
				assert.ErrorIs(t, err, common.ErrAuthFailed)
				assert.False(t, server.IsEstablished())
				return
			}
			require.NoError(t, err)
			assert.True(t, server.IsEstablished())
		})
	}
}

func TestPlainServerNoInitialResponse(t *testing.T) {
	server, err := NewMech(common.MechConfig{Role: common.RoleServer, Users: users{}})
	require.NoError(t, err)

	out, err := server.Step(nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.False(t, server.IsEstablished())
}
