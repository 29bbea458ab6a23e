package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapability(t *testing.T) {
	c := CapSHA1 | CapAES128 | CapTLS
	assert.True(t, c.Has(CapSHA1|CapTLS))
	assert.False(t, c.Has(CapSHA1|CapSASL))
	assert.Equal(t, "SHA1|AES128|TLS", c.String())
	assert.Equal(t, "none", Capability(0).String())

	assert.True(t, CapMD5.IsHash())
	assert.False(t, (CapMD5 | CapSHA1).IsHash())
	assert.True(t, CapTripleDES.IsCipher())
	assert.False(t, CapRSA.IsCipher())
}

func TestSecurityFlags(t *testing.T) {
	have := SecNoPlainText | SecNoAnonymous | SecMutualAuth
	assert.True(t, have.Satisfies(SecNoPlainText|SecNoAnonymous))
	assert.False(t, have.Satisfies(SecNoActive|SecNoAnonymous))
	assert.Equal(t, SecNoActive, have.Missing(SecNoActive|SecNoAnonymous))
	assert.True(t, SecAll.Satisfies(have))
	assert.Len(t, FlagList(have), 3)

	assert.True(t, (FeatServerRole | FeatAllowsProxy).Has(FeatServerRole))
	assert.False(t, FeatServerRole.Has(FeatServerRole|FeatChannelBindings))
	assert.Len(t, FeatureList(FeatServerRole|FeatGSSFraming), 2)
}

func TestSSFErrors(t *testing.T) {
	assert.Equal(t, "negotiated SSF (56) + external SSF (10) is less than required SSF (128)",
		ErrTooWeak{MechSSF: 56, ExtSSF: 10, RequiredSSF: 128}.Error())
	assert.Equal(t, "negotiated SSF (0) is less than required SSF (1)",
		ErrTooWeak{RequiredSSF: 1}.Error())
	assert.Equal(t, "negotiated SSF (256) exceeds maximum SSF (56)",
		ErrTooStrong{MechSSF: 256, AllowedSSF: 56}.Error())

	err := CryptoError(errors.New("bad mac"))
	assert.ErrorIs(t, err, ErrCrypto)
	assert.Nil(t, CryptoError(nil))
}
