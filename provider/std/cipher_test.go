package std

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-cryptokit/common"
)

func unhex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestAESVectors(t *testing.T) {
	key := unhex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	iv := unhex(t, "000102030405060708090a0b0c0d0e0f")
	plain := unhex(t, "6bc1bee22e409f96e93d7e117393172a")

	tests := []struct {
		mode common.Mode
		want string
	}{
		{common.CBC, "7649abac8119b246cee98e9b12e9197d"},
		{common.CFB, "3b3fd92eb72dad20333449f8e83cfb4a"},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c, err := p.NewCipher(common.CapAES128, common.Encrypt, tt.mode, key, iv, false)
			require.NoError(t, err)
			require.NoError(t, c.Update(plain[:5]))
			require.NoError(t, c.Update(plain[5:]))
			out, err := c.Final()
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(out))

			d, err := p.NewCipher(common.CapAES128, common.Decrypt, tt.mode, key, iv, false)
			require.NoError(t, err)
			require.NoError(t, d.Update(out))
			back, err := d.Final()
			require.NoError(t, err)
			assert.Equal(t, plain, back)
		})
	}
}

func TestCipherPaddedRoundTrip(t *testing.T) {
	p := New()
	msg := []byte("the quick brown fox jumps over the lazy dog")

	for _, alg := range []common.Capability{common.CapBlowFish, common.CapTripleDES, common.CapAES128, common.CapAES256} {
		t.Run(alg.String(), func(t *testing.T) {
			key := make([]byte, p.CipherKeyLength(alg))
			for i := range key {
				key[i] = byte(i * 7)
			}
			iv := make([]byte, p.CipherBlockSize(alg))

			enc, err := p.NewCipher(alg, common.Encrypt, common.CBC, key, iv, true)
			require.NoError(t, err)
			require.NoError(t, enc.Update(msg))
			ct, err := enc.Final()
			require.NoError(t, err)
			assert.Zero(t, len(ct)%len(iv))
			assert.Greater(t, len(ct), len(msg))

			dec, err := p.NewCipher(alg, common.Decrypt, common.CBC, key, iv, true)
			require.NoError(t, err)
			require.NoError(t, dec.Update(ct))
			pt, err := dec.Final()
			require.NoError(t, err)
			assert.Equal(t, msg, pt)
		})
	}
}

func TestCipherBadPadding(t *testing.T) {
	p := New()
	key := make([]byte, 16)
	iv := make([]byte, 16)

	dec, err := p.NewCipher(common.CapAES128, common.Decrypt, common.CBC, key, iv, true)
	require.NoError(t, err)
	require.NoError(t, dec.Update(make([]byte, 16)))
	_, err = dec.Final()
	assert.ErrorIs(t, err, common.ErrCrypto)
}

func TestCipherBadParameters(t *testing.T) {
	p := New()

	_, err := p.NewCipher(common.CapAES128, common.Encrypt, common.CBC, make([]byte, 15), make([]byte, 16), true)
	assert.Error(t, err)

	_, err = p.NewCipher(common.CapAES256, common.Encrypt, common.CBC, make([]byte, 16), make([]byte, 16), true)
	assert.Error(t, err)

	_, err = p.NewCipher(common.CapAES128, common.Encrypt, common.CBC, make([]byte, 16), make([]byte, 8), true)
	assert.Error(t, err)

	_, err = p.NewCipher(common.CapSHA1, common.Encrypt, common.CBC, make([]byte, 16), make([]byte, 16), true)
	assert.ErrorIs(t, err, common.ErrUnsupported)

	enc, err := p.NewCipher(common.CapAES128, common.Encrypt, common.CBC, make([]byte, 16), make([]byte, 16), false)
	require.NoError(t, err)
	require.NoError(t, enc.Update([]byte("short")))
	_, err = enc.Final()
	assert.Error(t, err)
}
