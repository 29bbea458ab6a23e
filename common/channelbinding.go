// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

// ChannelBinding carries data binding an authentication exchange to the
// outer secure channel (RFC 5056).
type ChannelBinding struct {
	// Type is the binding type name, eg. "tls-exporter".
	Type string
	Data []byte

	// Critical makes a binding-capable mechanism mandatory.
	Critical bool
}
