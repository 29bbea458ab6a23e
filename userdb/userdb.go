// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package userdb is a file-backed credential store for server-role SASL
// mechanisms.  Passwords are kept as Argon2id hashes for PLAIN and as
// SCRAM stored keys for the SCRAM mechanisms; clear text never reaches
// the file.
package userdb

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/allisson/go-pwdhash"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/mechs/scram"
	"github.com/golang-auth/go-cryptokit/pkg/loggable"
)

var ErrNoSecret = errors.New("userdb: no secret stored for mechanism")

// User is one entry of the [users] table.  An empty Realm matches any
// realm.
type User struct {
	Realm    string            `toml:"realm,omitempty"`
	Password string            `toml:"password"`
	Secrets  map[string]string `toml:"secrets,omitempty"`
}

type file struct {
	Users map[string]User `toml:"users"`
}

type DB struct {
	loggable.Loggable

	mu     sync.RWMutex
	path   string
	users  map[string]User
	hasher *pwdhash.PasswordHasher
	iters  int
}

type Option func(*DB)

func WithLogger(l loggable.Loggable) Option {
	return func(db *DB) {
		db.Loggable = l
	}
}

// WithSCRAMIterations sets the PBKDF2 iteration count for new secrets.
func WithSCRAMIterations(n int) Option {
	return func(db *DB) {
		db.iters = n
	}
}

// New returns an empty database that is not backed by a file.
func New(opts ...Option) (*DB, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, err
	}

	db := &DB{
		users:  make(map[string]User),
		hasher: hasher,
		iters:  scram.DefaultIters,
	}
	for _, o := range opts {
		o(db)
	}
	return db, nil
}

// Open loads the database at path.  A missing file yields an empty
// database that Save will create.
func Open(path string, opts ...Option) (*DB, error) {
	db, err := New(opts...)
	if err != nil {
		return nil, err
	}
	db.path = path

	var f file
	_, err = toml.DecodeFile(path, &f)
	switch {
	case errors.Is(err, os.ErrNotExist):
		db.Debugf("userdb: %s does not exist, starting empty", path)
	case err != nil:
		return nil, fmt.Errorf("userdb: failed to decode %s: %w", path, err)
	default:
		if f.Users != nil {
			db.users = f.Users
		}
		db.Debugf("userdb: loaded %d users from %s", len(db.users), path)
	}
	return db, nil
}

// Add creates or replaces a user, deriving the PLAIN hash and a secret
// for every SCRAM variant.
func (db *DB) Add(user, realm, password string) error {
	if user == "" {
		return errors.New("userdb: empty username")
	}

	hash, err := db.hasher.Hash([]byte(password))
	if err != nil {
		return fmt.Errorf("userdb: failed to hash password: %w", err)
	}

	u := User{Realm: realm, Password: hash, Secrets: make(map[string]string)}
	for _, method := range []string{scram.SHA1, scram.SHA256} {
		secret, err := scram.NewSecret(method, user, password, db.iters)
		if err != nil {
			return fmt.Errorf("userdb: %s secret: %w", method, err)
		}
		u.Secrets[method] = secret
	}

	db.mu.Lock()
	db.users[user] = u
	db.mu.Unlock()
	return nil
}

func (db *DB) Remove(user string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, ok := db.users[user]
	delete(db.users, user)
	return ok
}

// Users returns the usernames in sorted order.
func (db *DB) Users() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.users))
	for n := range db.users {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (db *DB) lookup(user, realm string) (User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[user]
	if !ok || (u.Realm != "" && realm != "" && u.Realm != realm) {
		return User{}, common.ErrUnknownUser
	}
	return u, nil
}

func (db *DB) VerifyPassword(user, realm, password string) (bool, error) {
	u, err := db.lookup(user, realm)
	if err != nil {
		return false, err
	}
	return db.hasher.Verify([]byte(password), u.Password)
}

func (db *DB) Secret(mech, user, realm string) (string, error) {
	u, err := db.lookup(user, realm)
	if err != nil {
		return "", err
	}
	s, ok := u.Secrets[mech]
	if !ok {
		return "", fmt.Errorf("%w %s", ErrNoSecret, mech)
	}
	return s, nil
}

// Save writes the database back to the file it was opened from.
func (db *DB) Save() error {
	if db.path == "" {
		return errors.New("userdb: no file to save to")
	}
	return db.SaveTo(db.path)
}

// SaveTo writes the database to path with owner-only permissions.
func (db *DB) SaveTo(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("userdb: failed to create %s: %w", path, err)
	}
	defer f.Close()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := toml.NewEncoder(f).Encode(file{Users: db.users}); err != nil {
		return fmt.Errorf("userdb: failed to encode: %w", err)
	}
	return f.Close()
}

var _ common.UserStore = (*DB)(nil)
