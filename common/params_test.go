package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	var p Params
	assert.Equal(t, ParamUser|ParamPassword, p.Missing(ParamUser|ParamPassword))

	// an empty value still counts as supplied
	p.SetUsername("")
	p.SetPassword("secret")
	assert.Zero(t, p.Missing(ParamUser|ParamPassword))
	assert.Equal(t, ParamRealm, p.Missing(ParamUser|ParamRealm))

	pass, ok := p.Password()
	assert.True(t, ok)
	assert.Equal(t, "secret", pass)
	_, ok = p.Authzid()
	assert.False(t, ok)

	p.Clear()
	_, ok = p.Username()
	assert.False(t, ok)

	var nilParams *Params
	assert.Equal(t, ParamAuthzid, nilParams.Missing(ParamAuthzid))
}

func TestNeedParamsError(t *testing.T) {
	var err error = NeedParamsError{Missing: ParamUser | ParamRealm}
	assert.Equal(t, "mechanism needs parameters: user, realm", err.Error())

	var need NeedParamsError
	assert.True(t, errors.As(errors.Join(errors.New("step"), err), &need))
	assert.Equal(t, ParamUser|ParamRealm, need.Missing)
}
