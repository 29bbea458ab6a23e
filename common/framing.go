// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"encoding/binary"
	"fmt"
)

// FrameHeaderSize is the length prefix of a SASL security layer buffer
// (RFC 4422 § 3.7).
const FrameHeaderSize = 4

// Frame prefixes p with its 4-byte big-endian length.
func Frame(p []byte) []byte {
	out := make([]byte, FrameHeaderSize+len(p))
	binary.BigEndian.PutUint32(out, uint32(len(p)))
	copy(out[FrameHeaderSize:], p)
	return out
}

// Deframer splits a stream of length-prefixed buffers arriving in
// arbitrary fragments.
type Deframer struct {
	// MaxSize bounds a single frame; zero means 0xFFFFFF.
	MaxSize uint32

	buf []byte
}

// Feed appends p and returns every frame it completed, in order.
func (d *Deframer) Feed(p []byte) ([][]byte, error) {
	d.buf = append(d.buf, p...)

	max := d.MaxSize
	if max == 0 {
		max = 0xFFFFFF
	}

	var frames [][]byte
	for len(d.buf) >= FrameHeaderSize {
		n := binary.BigEndian.Uint32(d.buf)
		if n > max {
			return frames, fmt.Errorf("security layer frame of %d bytes exceeds limit %d", n, max)
		}
		if uint32(len(d.buf)-FrameHeaderSize) < n {
			break
		}
		frame := make([]byte, n)
		copy(frame, d.buf[FrameHeaderSize:FrameHeaderSize+int(n)])
		frames = append(frames, frame)
		d.buf = d.buf[FrameHeaderSize+int(n):]
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}

	return frames, nil
}

// Pending is the number of buffered bytes not yet forming a full frame.
func (d *Deframer) Pending() int {
	return len(d.buf)
}
