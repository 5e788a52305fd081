// Package auth содержит выпуск JWT и хеширование паролей.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/dgrijalva/jwt-go"
)

type claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// JWTIssuer выпускает и проверяет HS256-токены с полями sub, role, exp.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(cfg *cfg.AuthCfg) *JWTIssuer {
	return &JWTIssuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

func (j *JWTIssuer) Issue(user *domain.User) (*usecase.Token, error) {
	now := j.now()
	expiresAt := now.Add(j.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Role: string(user.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return nil, e.Wrap("JWTIssuer.Issue", err)
	}

	return &usecase.Token{
		AccessToken: signed,
		ExpiresAt:   time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

// Parse проверяет подпись и срок действия. Любая ошибка сводится к ErrUnauthorized.
func (j *JWTIssuer) Parse(token string) (*usecase.TokenClaims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return j.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", e.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", e.ErrUnauthorized)
	}

	role := domain.Role(c.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role", e.ErrUnauthorized)
	}

	return &usecase.TokenClaims{
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Unix(c.ExpiresAt, 0).UTC(),
	}, nil
}
