// Package token issues and parses login tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identify the holder of a token.
type Claims struct {
	ID        string
	Login     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager signs tokens with HS256.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// New returns a Manager. ttl bounds each token's lifetime.
func New(secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

type jwtClaims struct {
	Login string `json:"login"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issue returns a signed token for login with role.
func (m *Manager) Issue(login, role string) (string, Claims, error) {
	now := time.Now().UTC()
	jti := uuid.NewString()

	cl := jwtClaims{
		Login: login,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, toClaims(cl), nil
}

// Parse validates the signature, issuer and lifetime of raw.
func (m *Manager) Parse(raw string) (Claims, error) {
	var out jwtClaims
	tkn, err := jwt.ParseWithClaims(raw, &out, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, err
	}
	if !tkn.Valid || out.Login == "" {
		return Claims{}, errors.Join(jwt.ErrTokenInvalidClaims, errors.New("missing login"))
	}
	return toClaims(out), nil
}

func toClaims(cl jwtClaims) Claims {
	return Claims{
		ID:        cl.ID,
		Login:     cl.Login,
		Role:      cl.Role,
		IssuedAt:  cl.IssuedAt.Time,
		ExpiresAt: cl.ExpiresAt.Time,
	}
}
