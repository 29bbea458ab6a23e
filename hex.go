// Copyright 2021 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

package cryptokit

import (
	"encoding/hex"
	"fmt"
)

// ArrayToHex renders b as lower-case hex.
func ArrayToHex(b []byte) string {
	return hex.EncodeToString(b)
}

func HexToArray(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("cryptokit: bad hex string: %w", err)
	}
	return b, nil
}
