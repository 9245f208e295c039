package auth

import (
	"context"
	"fmt"
	"superchat/domain/chat"
	"superchat/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "superchat"

// Claims is the payload of a session token. The profile travels with the
// token so the backend never has to look the user up.
type Claims struct {
	UID     string   `json:"uid"`
	Name    string   `json:"name,omitempty"`
	Picture string   `json:"picture,omitempty"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens with a shared key.
type TokenIssuer struct {
	key      []byte
	duration time.Duration
}

func NewTokenIssuer(key []byte, duration time.Duration) TokenIssuer {
	return TokenIssuer{key: key, duration: duration}
}

// Generate creates a signed token for the identity.
func (i TokenIssuer) Generate(identity chat.Identity, roles []string) (string, error) {
	if len(i.key) == 0 {
		return "", fmt.Errorf("%w: empty signing key", errors.ErrTokenGeneration)
	}
	now := time.Now()
	claims := &Claims{
		UID:     identity.UID,
		Name:    identity.DisplayName,
		Picture: identity.PhotoURL,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Parse validates signature, issuer and expiration.
func (i TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

func (i TokenIssuer) Verify(_ context.Context, tokenString string) (chat.Identity, error) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return chat.Identity{}, err
	}
	return chat.Identity{UID: claims.UID, DisplayName: claims.Name, PhotoURL: claims.Picture}, nil
}
