// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package std

import (
	"io"
	"net"
	"sync"
	"time"
)

// pipeConn is the transport under a crypto/tls connection.  Wire bytes
// from the peer are fed in by the caller and bytes written by crypto/tls
// are collected for the caller to take.  The worker goroutine driving the
// tls.Conn is the only reader.
type pipeConn struct {
	mu   sync.Mutex
	cond *sync.Cond

	in  []byte
	out []byte

	// parked is set while the worker is blocked in Read with nothing to
	// consume.
	parked bool
	closed bool
	exited bool

	plain   []byte
	hsDone  bool
	hsErr   error
	readErr error
}

func newPipeConn() *pipeConn {
	p := &pipeConn{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipeConn) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.in) == 0 {
		if p.closed {
			return 0, io.EOF
		}
		p.parked = true
		p.cond.Broadcast()
		p.cond.Wait()
		p.parked = false
	}

	n := copy(b, p.in)
	p.in = p.in[n:]
	return n, nil
}

func (p *pipeConn) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, net.ErrClosed
	}
	p.out = append(p.out, b...)
	return len(b), nil
}

func (p *pipeConn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.cond.Broadcast()
	return nil
}

func (p *pipeConn) feed(b []byte) {
	if len(b) == 0 {
		return
	}
	p.mu.Lock()
	p.in = append(p.in, b...)
	p.cond.Broadcast()
	p.mu.Unlock()
}

// settle blocks until the worker has either exited or consumed all input
// and is waiting for more.
func (p *pipeConn) settle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.exited && !(p.parked && len(p.in) == 0) {
		p.cond.Wait()
	}
}

// wait blocks until the worker has returned.  The pipe must be closed.
func (p *pipeConn) wait() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for !p.exited {
		p.cond.Wait()
	}
}

func (p *pipeConn) takeOut() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.out
	p.out = nil
	return out
}

func (p *pipeConn) LocalAddr() net.Addr                { return pipeAddr{} }
func (p *pipeConn) RemoteAddr() net.Addr               { return pipeAddr{} }
func (p *pipeConn) SetDeadline(t time.Time) error      { return nil }
func (p *pipeConn) SetReadDeadline(t time.Time) error  { return nil }
func (p *pipeConn) SetWriteDeadline(t time.Time) error { return nil }

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }
