// file: service/token_codec.go

package service

import (
	"errors"
	"fmt"
	"hotel-user-api/logger"
	"hotel-user-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec mints and verifies signed access tokens. It is stateless:
// decoding never consults a store, so access tokens cannot be revoked
// before their natural expiry. The signing key is fixed for the
// lifetime of the process.
type TokenCodec struct {
	key []byte
	now func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		key: []byte(secret),
		now: time.Now,
	}
}

// Mint signs an access token for the user with expiry now+ttl.
func (c *TokenCodec) Mint(user *model.User, ttl time.Duration) (string, error) {
	now := c.now()
	claims := &model.AppClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.key)
	if err != nil {
		logger.Log.WithError(err).WithField("subject", user.Username).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// Decode verifies the signature and expiry of an access token and
// returns its claims.
func (c *TokenCodec) Decode(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}
	return claims, nil
}

// Validate reports whether the token verifies, is unexpired and was
// issued to the expected subject. Any decode error yields false.
func (c *TokenCodec) Validate(tokenString, expectedSubject string) bool {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}
