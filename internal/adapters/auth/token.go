package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eventnotifier/internal/domain"
)

// RoleAdmin is required to run the trigger over HTTP.
const RoleAdmin = "admin"

type jwtClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// JWTAuthority signs and checks HS256 JWTs with a shared secret.
type JWTAuthority struct {
	secret []byte
}

var (
	_ domain.TokenIssuer   = (*JWTAuthority)(nil)
	_ domain.TokenVerifier = (*JWTAuthority)(nil)
)

// NewJWTAuthority returns a JWTAuthority for the given secret.
func NewJWTAuthority(secret string) *JWTAuthority {
	return &JWTAuthority{secret: []byte(secret)}
}

func (a *JWTAuthority) Issue(subject string, roles []string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry and requires the admin role.
func (a *JWTAuthority) Verify(tokenString string) (string, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !slices.Contains(claims.Roles, RoleAdmin) {
		return "", errors.New("token lacks admin role")
	}
	return claims.Subject, nil
}
