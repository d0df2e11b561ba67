package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryBypassDev(t *testing.T) {
	user := TryBypass("dev", "localdev")
	require.NotNil(t, user)
	assert.Equal(t, "localdev", user.Username)
}

func TestTryBypassNeverInProd(t *testing.T) {
	assert.Nil(t, TryBypass("prod", "localdev"))
	assert.Nil(t, TryBypass("staging", "localdev"))
	assert.Nil(t, TryBypass("", "localdev"))
}

func TestTryBypassRequiresUsername(t *testing.T) {
	assert.Nil(t, TryBypass("dev", ""))
}

func TestPayloadDigest(t *testing.T) {
	a := PayloadDigest("auth_date=1&hash=aa")
	b := PayloadDigest("auth_date=2&hash=bb")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, PayloadDigest("auth_date=1&hash=aa"))
}
