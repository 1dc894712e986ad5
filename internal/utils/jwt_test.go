package utils

import (
	"testing"
	"time"

	"railpay/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", &models.UserClaims{UserID: "user-1", Role: models.RoleCustomer}, time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.HasPermission(models.PermissionTransferWrite))
	assert.False(t, claims.HasPermission(models.PermissionAccountManage))

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken("secret", &models.UserClaims{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.UserClaims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken("secret", unsigned)
	assert.Error(t, err)

	_, err = GenerateToken("", &models.UserClaims{UserID: "user-1"}, time.Minute)
	assert.Error(t, err)
}
