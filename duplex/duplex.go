// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package duplex holds the byte queues that separate a session's
// application-facing stream from its wire-facing stream.
package duplex

// Queue is an ordered byte queue.  Bytes come out of Pop in exactly the
// order they were pushed and are handed out once.
type Queue struct {
	buf []byte
}

// Push appends p.  It reports true when the queue went from empty to
// non-empty, which is the only time a consumer needs to be told that
// data is ready; it stays false until the queue has been drained again.
func (q *Queue) Push(p []byte) (ready bool) {
	if len(p) == 0 {
		return false
	}

	ready = len(q.buf) == 0
	q.buf = append(q.buf, p...)

	return ready
}

// Pop removes and returns everything queued, or nil when empty.
func (q *Queue) Pop() []byte {
	if len(q.buf) == 0 {
		return nil
	}

	b := q.buf
	q.buf = nil

	return b
}

func (q *Queue) Len() int {
	return len(q.buf)
}

// Reset discards the queued bytes.
func (q *Queue) Reset() {
	q.buf = nil
}

// Channel is the four-queue buffer of a TLS or SASL session: plaintext
// the application wants protected, plaintext recovered from the peer,
// wire bytes to transmit and wire bytes received.
type Channel struct {
	PlainOut   Queue
	PlainIn    Queue
	EncodedOut Queue
	EncodedIn  Queue
}

func (c *Channel) Reset() {
	c.PlainOut.Reset()
	c.PlainIn.Reset()
	c.EncodedOut.Reset()
	c.EncodedIn.Reset()
}

// Empty reports whether all four queues are empty.
func (c *Channel) Empty() bool {
	return c.PlainOut.Len() == 0 && c.PlainIn.Len() == 0 &&
		c.EncodedOut.Len() == 0 && c.EncodedIn.Len() == 0
}
