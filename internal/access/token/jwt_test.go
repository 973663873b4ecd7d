package token

import (
	"context"
	"testing"
	"time"

	id "laurel/pkg/domain"
	dErrors "laurel/pkg/domain-errors"
	"laurel/pkg/requestcontext"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userID = id.UserID(uuid.New())
var expiresIn = time.Second * 1

var tokenService = NewService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
	expiresIn,
)

func Test_GenerateAccessToken(t *testing.T) {
	ctx := context.Background()
	token, err := tokenService.GenerateAccessToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokenService.ValidateToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "token should carry a JTI")
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateAccessToken_UsesRequestClock(t *testing.T) {
	pinned := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), pinned)

	token, err := tokenService.GenerateAccessToken(ctx, userID)
	require.NoError(t, err)

	claims, err := tokenService.ParseTokenSkipClaimsValidation(token)
	require.NoError(t, err)
	assert.True(t, claims.IssuedAt.Time.Equal(pinned))
	assert.True(t, claims.ExpiresAt.Time.Equal(pinned.Add(expiresIn)))
}

func Test_GenerateAccessToken_RequiresUserID(t *testing.T) {
	_, err := tokenService.GenerateAccessToken(context.Background(), id.UserID{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_GenerateAccessTokenWithJTI(t *testing.T) {
	ctx := context.Background()
	token, jti, err := tokenService.GenerateAccessTokenWithJTI(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := tokenService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := tokenService.ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	// Pin issuance in the past so the token is already expired
	ctx := requestcontext.WithTime(context.Background(), time.Now().Add(-time.Hour))
	token, err := tokenService.GenerateAccessToken(ctx, userID)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(token)
	require.ErrorContains(t, err, "token expired")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewService("test-signing-key", "other-issuer", "test-audience", time.Minute)
	token, err := other.GenerateAccessToken(context.Background(), userID)
	require.NoError(t, err)

	_, err = tokenService.ValidateToken(token)
	require.ErrorContains(t, err, "invalid token issuer")
}

func Test_ValidateToken_RejectsAlgorithmConfusion(t *testing.T) {
	claims := AccessTokenClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
			ID:        uuid.NewString(),
		},
	}

	cases := []struct {
		name       string
		signMethod jwt.SigningMethod
		signKey    any
	}{
		{
			name:       "hs512 header rejected",
			signMethod: jwt.SigningMethodHS512,
			signKey:    []byte("test-signing-key"),
		},
		{
			name:       "alg none rejected",
			signMethod: jwt.SigningMethodNone,
			signKey:    jwt.UnsafeAllowNoneSignatureType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forged := jwt.NewWithClaims(tc.signMethod, claims)
			signed, err := forged.SignedString(tc.signKey)
			require.NoError(t, err)

			_, err = tokenService.ValidateToken(signed)
			require.Error(t, err)
		})
	}
}

func Test_ParseTokenSkipClaimsValidation_AcceptsExpired(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Now().Add(-time.Hour))
	token, err := tokenService.GenerateAccessToken(ctx, userID)
	require.NoError(t, err)

	claims, err := tokenService.ParseTokenSkipClaimsValidation(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func Test_ParseTokenSkipClaimsValidation_RejectsWrongKey(t *testing.T) {
	other := NewService("different-key", "test-issuer", "test-audience", time.Minute)
	token, err := other.GenerateAccessToken(context.Background(), userID)
	require.NoError(t, err)

	_, err = tokenService.ParseTokenSkipClaimsValidation(token)
	require.Error(t, err)
}

func Test_ParseTokenSkipClaimsValidation_EmptyToken(t *testing.T) {
	_, err := tokenService.ParseTokenSkipClaimsValidation("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func Test_Adapter_MapsClaims(t *testing.T) {
	adapter := NewAdapter(tokenService)

	token, jti, err := tokenService.GenerateAccessTokenWithJTI(context.Background(), userID)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, jti, claims.JTI)
}
