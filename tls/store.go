// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package tls

import "github.com/golang-auth/go-cryptokit/provider"

// Store is a set of trusted certificates owned by the application.  A
// session only keeps a reference to it: the store must outlive the
// session and must not be modified while a handshake using it runs.
type Store struct {
	certs []provider.CertContext
}

func NewStore(certs ...provider.CertContext) *Store {
	return &Store{certs: certs}
}

func (s *Store) Add(c provider.CertContext) {
	s.certs = append(s.certs, c)
}

func (s *Store) Certificates() []provider.CertContext {
	if s == nil {
		return nil
	}
	return s.certs
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.certs)
}
