package std

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-cryptokit/common"
)

func TestHash(t *testing.T) {
	tests := []struct {
		alg  common.Capability
		want string
	}{
		{common.CapSHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{common.CapSHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{common.CapMD5, "900150983cd24fb0d6963f7d28e17f72"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			h, err := p.NewHash(tt.alg)
			require.NoError(t, err)

			h.Update([]byte("a"))
			h.Update([]byte("bc"))
			assert.Equal(t, tt.want, hex.EncodeToString(h.Final()))

			// Final leaves the context reusable
			h.Update([]byte("abc"))
			assert.Equal(t, tt.want, hex.EncodeToString(h.Final()))

			h.Update([]byte("junk"))
			h.Clear()
			h.Update([]byte("abc"))
			assert.Equal(t, tt.want, hex.EncodeToString(h.Final()))
		})
	}
}

func TestHashUnsupported(t *testing.T) {
	_, err := New().NewHash(common.CapAES128)
	assert.ErrorIs(t, err, common.ErrUnsupported)
}
