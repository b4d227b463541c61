package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skillstage/skillstage-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	v := NewTokenValidator(testSecret)
	userID := uuid.New()

	tokenStr := signToken(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID,
		Role:   model.RoleCandidate,
	})

	claims, err := v.ValidateToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, model.RoleCandidate, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	v := NewTokenValidator(testSecret)

	tokenStr := signToken(t, "other-secret", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.New(),
	})

	_, err := v.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	v := NewTokenValidator(testSecret)

	tokenStr := signToken(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: uuid.New(),
	})

	_, err := v.ValidateToken(tokenStr)
	assert.Error(t, err)
}

func TestValidateTokenMissingUserID(t *testing.T) {
	v := NewTokenValidator(testSecret)

	tokenStr := signToken(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := v.ValidateToken(tokenStr)
	assert.Error(t, err)
}
