// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"

	"github.com/golang-auth/go-cryptokit/common"
	"github.com/golang-auth/go-cryptokit/provider"
)

const exporterLabel = "EXPORTER-Channel-Binding"

var errNotStarted = errors.New("std: TLS context not started")

// tlsContext runs a crypto/tls connection over a pipeConn.  One worker
// goroutine drives the handshake and then reads records; each public
// method feeds input and waits for the worker to settle, so from the
// caller's side every call is synchronous.
type tlsContext struct {
	pipe    *pipeConn
	conn    *tls.Conn
	cfg     provider.TLSConfig
	started bool
	checked bool

	validity common.Validity
	peer     provider.CertContext
}

func (p *Provider) NewTLS() (provider.TLSContext, error) {
	return &tlsContext{pipe: newPipeConn()}, nil
}

func (c *tlsContext) Start(cfg provider.TLSConfig) error {
	if c.started {
		return fmt.Errorf("std: TLS context already started: %w", common.ErrInvalidState)
	}

	tc := &tls.Config{
		MinVersion: tls.VersionTLS12,
		// chain checks happen in peerValidity against the caller's store
		InsecureSkipVerify: true,
	}

	if cfg.Certificate != nil || cfg.Key != nil {
		cert, err := tlsCertificate(cfg.Certificate, cfg.Key)
		if err != nil {
			return err
		}
		tc.Certificates = []tls.Certificate{cert}
	}

	if cfg.Server {
		if len(tc.Certificates) == 0 {
			return errors.New("std: TLS server needs a certificate and private key")
		}
		tc.ClientAuth = tls.RequestClientCert
		tc.SessionTicketsDisabled = true
		c.conn = tls.Server(c.pipe, tc)
	} else {
		tc.ServerName = cfg.Host
		c.conn = tls.Client(c.pipe, tc)
	}

	c.cfg = cfg
	c.started = true
	go c.run()
	c.pipe.settle()
	return nil
}

func tlsCertificate(cert provider.CertContext, key provider.RSAKeyContext) (tls.Certificate, error) {
	cc, ok := cert.(*certContext)
	if !ok || cc == nil {
		return tls.Certificate{}, fmt.Errorf("std: certificate %T does not belong to this provider", cert)
	}
	kc, ok := key.(*rsaKey)
	if !ok || kc == nil || kc.priv == nil {
		return tls.Certificate{}, fmt.Errorf("std: key %T is not a private key from this provider", key)
	}

	return tls.Certificate{
		Certificate: [][]byte{cc.c.Raw},
		PrivateKey:  kc.priv,
		Leaf:        cc.c,
	}, nil
}

func (c *tlsContext) run() {
	p := c.pipe
	err := c.conn.Handshake()

	p.mu.Lock()
	p.hsDone = err == nil
	p.hsErr = err
	p.mu.Unlock()

	if err == nil {
		buf := make([]byte, 16*1024)
		for {
			n, err := c.conn.Read(buf)

			p.mu.Lock()
			p.plain = append(p.plain, buf[:n]...)
			if err != nil {
				p.readErr = err
			}
			p.mu.Unlock()

			if err != nil {
				break
			}
		}
	}

	p.mu.Lock()
	p.exited = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (c *tlsContext) Handshake(in []byte) ([]byte, bool, error) {
	if !c.started {
		return nil, false, errNotStarted
	}

	c.pipe.feed(in)
	c.pipe.settle()

	p := c.pipe
	p.mu.Lock()
	out := p.out
	p.out = nil
	done, err := p.hsDone, p.hsErr
	p.mu.Unlock()

	if err != nil {
		return out, false, err
	}
	if done && !c.checked {
		c.checkPeer()
	}
	return out, done, nil
}

func (c *tlsContext) checkPeer() {
	c.checked = true
	chain := c.conn.ConnectionState().PeerCertificates
	if len(chain) > 0 {
		c.peer = &certContext{c: chain[0]}
	}
	c.validity = peerValidity(chain, c.cfg.Store, c.cfg.Host, c.cfg.Server)
}

// handshaken reports whether the worker has finished the handshake.
// Until then it holds the tls.Conn handshake lock, so ConnectionState and
// Write must not be called.
func (c *tlsContext) handshaken() bool {
	c.pipe.mu.Lock()
	defer c.pipe.mu.Unlock()
	return c.pipe.hsDone
}

func (c *tlsContext) Encode(plain []byte) ([]byte, error) {
	if !c.started {
		return nil, errNotStarted
	}
	if !c.handshaken() {
		return nil, common.ErrNotHandshaken
	}
	if _, err := c.conn.Write(plain); err != nil {
		return nil, common.CryptoError(err)
	}
	return c.pipe.takeOut(), nil
}

func (c *tlsContext) Decode(wire []byte) ([]byte, []byte, error) {
	if !c.started {
		return nil, nil, errNotStarted
	}

	c.pipe.feed(wire)
	c.pipe.settle()

	p := c.pipe
	p.mu.Lock()
	defer p.mu.Unlock()

	plain, out, err := p.plain, p.out, p.readErr
	p.plain, p.out = nil, nil

	switch {
	case err == nil:
		return plain, out, nil
	case errors.Is(err, io.EOF):
		return plain, out, io.EOF
	}
	return plain, out, common.CryptoError(err)
}

func (c *tlsContext) PeerCertificate() provider.CertContext {
	return c.peer
}

func (c *tlsContext) Validity() common.Validity {
	return c.validity
}

func (c *tlsContext) ChannelBinding() ([]byte, error) {
	if !c.started {
		return nil, errNotStarted
	}
	if !c.handshaken() {
		return nil, common.ErrNotHandshaken
	}
	cs := c.conn.ConnectionState()
	return cs.ExportKeyingMaterial(exporterLabel, nil, 32)
}

// Close sends close_notify when the handshake has completed, then waits
// for the worker to exit.
func (c *tlsContext) Close() ([]byte, error) {
	if !c.started {
		return nil, nil
	}
	err := c.conn.Close()
	c.pipe.wait()

	p := c.pipe
	p.mu.Lock()
	out := p.out
	p.out = nil
	p.mu.Unlock()

	if err != nil && !errors.Is(err, io.EOF) {
		return out, err
	}
	return out, nil
}

func (c *tlsContext) Abort() {
	if !c.started {
		return
	}
	c.pipe.Close()
	c.pipe.wait()
}
