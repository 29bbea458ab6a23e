// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package scram

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/xdg-go/scram"
)

const (
	SHA1   = "SCRAM-SHA-1"
	SHA256 = "SCRAM-SHA-256"

	// DefaultIters is the PBKDF2 iteration count for new secrets.
	DefaultIters = 4096

	saltLen = 16
)

var (
	ErrInvalidSecretFormat = errors.New("scram: invalid secret format")
	ErrUnsupportedMethod   = errors.New("scram: unsupported method")
)

func generator(method string) (scram.HashGeneratorFcn, error) {
	switch method {
	case SHA1:
		return scram.SHA1, nil
	case SHA256:
		return scram.SHA256, nil
	}
	return nil, ErrUnsupportedMethod
}

// NewSecret derives the stored credentials for password with a random
// salt and formats them as METHOD$iters:salt$storedkey:serverkey.
func NewSecret(method, username, password string, iters int) (string, error) {
	gen, err := generator(method)
	if err != nil {
		return "", err
	}
	client, err := gen.NewClient(username, password, "")
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	if iters <= 0 {
		iters = DefaultIters
	}

	stored := client.GetStoredCredentials(scram.KeyFactors{Salt: string(salt), Iters: iters})
	return FormatSecret(method, stored), nil
}

func FormatSecret(method string, c scram.StoredCredentials) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('$')
	b.WriteString(strconv.Itoa(c.Iters))
	b.WriteByte(':')
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(c.Salt)))
	b.WriteByte('$')
	b.WriteString(base64.StdEncoding.EncodeToString(c.StoredKey))
	b.WriteByte(':')
	b.WriteString(base64.StdEncoding.EncodeToString(c.ServerKey))
	return b.String()
}

// ParseSecret reverses FormatSecret, returning the method name too.
func ParseSecret(value string) (string, scram.StoredCredentials, error) {
	var res scram.StoredCredentials

	method, iterKeys, ok := strings.Cut(value, "$")
	if !ok {
		return "", res, ErrInvalidSecretFormat
	}
	if _, err := generator(method); err != nil {
		return "", res, err
	}
	iterSalt, keys, ok := strings.Cut(iterKeys, "$")
	if !ok {
		return "", res, ErrInvalidSecretFormat
	}
	iter, salt, ok := strings.Cut(iterSalt, ":")
	if !ok {
		return "", res, ErrInvalidSecretFormat
	}
	storedKey, serverKey, ok := strings.Cut(keys, ":")
	if !ok {
		return "", res, ErrInvalidSecretFormat
	}

	var err error
	res.Iters, err = strconv.Atoi(iter)
	if err != nil {
		return "", res, err
	}

	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", res, err
	}
	res.Salt = string(saltBytes)

	res.StoredKey, err = base64.StdEncoding.DecodeString(storedKey)
	if err != nil {
		return "", res, err
	}
	res.ServerKey, err = base64.StdEncoding.DecodeString(serverKey)
	if err != nil {
		return "", res, err
	}

	return method, res, nil
}
