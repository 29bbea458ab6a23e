package cryptokit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-cryptokit/common"
)

func TestCipherRoundTrip(t *testing.T) {
	msg := []byte("The quick brown fox jumps over the lazy dog")

	for _, alg := range []common.Capability{common.CapBlowFish, common.CapTripleDES, common.CapAES128, common.CapAES256} {
		for _, mode := range []common.Mode{common.CBC, common.CFB} {
			t.Run(alg.String()+"/"+mode.String(), func(t *testing.T) {
				key, err := GenerateKey(alg, 0)
				require.NoError(t, err)
				iv, err := GenerateIV(alg)
				require.NoError(t, err)

				enc, err := NewCipher(alg, common.Encrypt, mode, key, iv, true)
				require.NoError(t, err)
				assert.Len(t, key, enc.KeyLength())
				assert.Len(t, iv, enc.BlockSize())

				// input split across updates
				require.NoError(t, enc.Update(msg[:10]))
				require.NoError(t, enc.Update(msg[10:]))
				ct, err := enc.Final()
				require.NoError(t, err)
				assert.NotEqual(t, msg, ct)

				dec, err := NewCipher(alg, common.Decrypt, mode, key, iv, true)
				require.NoError(t, err)
				require.NoError(t, dec.Update(ct))
				pt, err := dec.Final()
				require.NoError(t, err)
				assert.Equal(t, msg, pt)
			})
		}
	}
}

func TestCipherReset(t *testing.T) {
	key, err := GenerateKey(common.CapAES128, 0)
	require.NoError(t, err)
	iv, err := GenerateIV(common.CapAES128)
	require.NoError(t, err)

	c, err := NewAES128(common.Encrypt, common.CBC, key, iv, true)
	require.NoError(t, err)
	require.NoError(t, c.Update([]byte("attack at dawn")))
	ct, err := c.Final()
	require.NoError(t, err)
	assert.Len(t, ct, 16)

	require.NoError(t, c.Reset(common.Decrypt, common.CBC, key, iv, true))
	assert.Equal(t, common.Decrypt, c.Direction())
	require.NoError(t, c.Update(ct))
	pt, err := c.Final()
	require.NoError(t, err)
	assert.Equal(t, []byte("attack at dawn"), pt)

	// a failed reset keeps the working context
	assert.Error(t, c.Reset(common.Encrypt, common.CBC, key[:5], iv, true))
	assert.Equal(t, common.Decrypt, c.Direction())
}

func TestCipherBadPadding(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)

	c, err := NewAES128(common.Decrypt, common.CBC, key, iv, true)
	require.NoError(t, err)
	require.NoError(t, c.Update(make([]byte, 16)))
	_, err = c.Final()
	assert.ErrorIs(t, err, common.ErrCrypto)
}

func TestCipherBadParameters(t *testing.T) {
	_, err := NewCipher(common.CapSHA1, common.Encrypt, common.CBC, nil, nil, true)
	assert.Error(t, err)

	_, err = NewAES256(common.Encrypt, common.CBC, make([]byte, 16), make([]byte, 16), true)
	assert.Error(t, err)

	_, err = NewTripleDES(common.Encrypt, common.CBC, make([]byte, 24), make([]byte, 16), true)
	assert.Error(t, err, "IV must be one block")

	_, err = NewBlowFish(common.Encrypt, common.CBC, make([]byte, 16), make([]byte, 8), true)
	assert.NoError(t, err)
}

func TestGenerateKeySize(t *testing.T) {
	key, err := GenerateKey(common.CapBlowFish, 40)
	require.NoError(t, err)
	assert.Len(t, key, 40)

	key, err = GenerateKey(common.CapAES256, 0)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = GenerateIV(common.CapSHA1)
	assert.Error(t, err)
}
