// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import "strings"

// ParamFlag identifies a credential the application may be asked for.
type ParamFlag uint8

const (
	ParamUser ParamFlag = 1 << iota
	ParamAuthzid
	ParamPassword
	ParamRealm
)

func (p ParamFlag) String() string {
	var names []string
	if p&ParamUser != 0 {
		names = append(names, "user")
	}
	if p&ParamAuthzid != 0 {
		names = append(names, "authzid")
	}
	if p&ParamPassword != 0 {
		names = append(names, "password")
	}
	if p&ParamRealm != 0 {
		names = append(names, "realm")
	}

	return strings.Join(names, ", ")
}

// Params collects credentials supplied by the application.  A value
// counts as supplied once its setter was called, even with "".
type Params struct {
	user     string
	authzid  string
	password string
	realm    string
	have     ParamFlag
}

func (p *Params) SetUsername(v string) { p.user = v; p.have |= ParamUser }
func (p *Params) SetAuthzid(v string)  { p.authzid = v; p.have |= ParamAuthzid }
func (p *Params) SetPassword(v string) { p.password = v; p.have |= ParamPassword }
func (p *Params) SetRealm(v string)    { p.realm = v; p.have |= ParamRealm }

func (p *Params) Username() (string, bool) { return p.user, p.have&ParamUser != 0 }
func (p *Params) Authzid() (string, bool)  { return p.authzid, p.have&ParamAuthzid != 0 }
func (p *Params) Password() (string, bool) { return p.password, p.have&ParamPassword != 0 }
func (p *Params) Realm() (string, bool)    { return p.realm, p.have&ParamRealm != 0 }

// Missing returns the subset of want that has not been supplied.
func (p *Params) Missing(want ParamFlag) ParamFlag {
	if p == nil {
		return want
	}
	return want &^ p.have
}

// Clear forgets every supplied value.
func (p *Params) Clear() {
	*p = Params{}
}

// NeedParamsError is returned by Mech.Step when the exchange cannot go on
// until the application supplies the flagged values.
type NeedParamsError struct {
	Missing ParamFlag
}

func (e NeedParamsError) Error() string {
	return "mechanism needs parameters: " + e.Missing.String()
}
