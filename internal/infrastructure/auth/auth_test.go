package auth

import (
	"testing"
	"time"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newIssuer(secret string) *JWTIssuer {
	return NewJWTIssuer(&cfg.AuthCfg{JWTSecret: secret, TokenTTL: time.Hour})
}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer := newIssuer("secret")
	user := &domain.User{ID: 42, Role: domain.RoleVendor}

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := issuer.Parse(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleVendor, claims.Role)
	assert.Equal(t, token.ExpiresAt, claims.ExpiresAt)
}

func TestJWTIssuer_ParseRejects(t *testing.T) {
	user := &domain.User{ID: 1, Role: domain.RoleCustomer}

	expiredIssuer := newIssuer("secret")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(user)
	require.NoError(t, err)

	foreign, err := newIssuer("other").Issue(user)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &claims{
		Role:           "admin",
		StandardClaims: jwt.StandardClaims{Subject: "1", ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Role:           "root",
		StandardClaims: jwt.StandardClaims{Subject: "1", ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":        expired.AccessToken,
		"foreign secret": foreign.AccessToken,
		"alg none":       unsigned,
		"unknown role":   badRole,
		"garbage":        "not.a.token",
		"empty":          "",
	}

	issuer := newIssuer("secret")
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			assert.ErrorIs(t, err, e.ErrUnauthorized)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong horse"), e.ErrInvalidCredentials)
	assert.ErrorIs(t, hasher.Compare("not-a-hash", "correct horse"), e.ErrInvalidCredentials)
}

func TestNewBcryptHasher_DefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
}
