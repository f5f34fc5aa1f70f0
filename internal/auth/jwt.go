package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenDecoder resolves a bearer token to the authenticated member id.
// The chat core depends on this capability, not on any concrete auth
// service.
type TokenDecoder interface {
	DecodeToken(ctx context.Context, token string) (string, error)
}

type memberClaims struct {
	jwt.RegisteredClaims
	MemberID string `json:"memberId"`
}

// JWTDecoder verifies HMAC-signed tokens with a shared secret and reads
// the memberId claim.
type JWTDecoder struct {
	key []byte
}

// NewJWTDecoder builds a decoder from the shared secret.
func NewJWTDecoder(secret string) (*JWTDecoder, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTDecoder{key: []byte(secret)}, nil
}

// DecodeToken verifies the token and returns the member id it carries.
func (d *JWTDecoder) DecodeToken(_ context.Context, token string) (string, error) {
	claims := &memberClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.MemberID == "" {
		return "", ErrInvalidToken
	}
	return claims.MemberID, nil
}
