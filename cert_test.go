package cryptokit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golang-auth/go-cryptokit/internal/certgen"
)

func TestCert(t *testing.T) {
	pair, err := certgen.SelfSigned("example.test")
	require.NoError(t, err)

	c, err := CertFromDER(pair.Cert)
	require.NoError(t, err)
	assert.False(t, c.IsNull())
	assert.Equal(t, "example.test", c.CommonName())
	assert.Equal(t, "example.test", c.Subject()["CN"])
	assert.Equal(t, "go-cryptokit", c.Issuer()["O"])
	assert.NotEmpty(t, c.SerialNumber())
	assert.True(t, c.NotBefore().Before(c.NotAfter()))

	// properties are copies
	c.Subject()["CN"] = "changed"
	assert.Equal(t, "example.test", c.Subject()["CN"])

	c2, err := CertFromPEM(c.ToPEM())
	require.NoError(t, err)
	assert.Equal(t, pair.Cert, c2.ToDER())
	assert.Equal(t, c.SubjectString(), c2.SubjectString())
	assert.Equal(t, c.IssuerString(), c2.IssuerString())

	assert.Equal(t, c.ToDER(), CertFromContext(c.Context()).ToDER())
}

func TestNullCert(t *testing.T) {
	var c Cert
	assert.True(t, c.IsNull())
	assert.Nil(t, c.ToDER())
	assert.Empty(t, c.ToPEM())
	assert.True(t, CertFromContext(nil).IsNull())

	_, err := CertFromDER([]byte("junk"))
	assert.Error(t, err)
	_, err = CertFromPEM("junk")
	assert.Error(t, err)
}
