package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"superchat/errors"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://issuer.example.com"
	testClientID = "superchat-client"
)

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func newTestOIDCVerifier(t *testing.T) (*OIDCVerifier, *rsa.PrivateKey) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	return NewOIDCVerifierFrom(oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testClientID})), key
}

func TestOIDCVerifier_Maps_Profile_Claims(t *testing.T) {
	req := require.New(t)
	verifier, key := newTestOIDCVerifier(t)
	raw := signIDToken(t, key, jwt.MapClaims{
		"iss":     testIssuer,
		"aud":     testClientID,
		"sub":     "google-123",
		"name":    "Ann",
		"picture": "https://lh3.example.com/ann.png",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	identity, err := verifier.Verify(context.Background(), raw)

	req.NoError(err)
	req.Equal("google-123", identity.UID)
	req.Equal("Ann", identity.DisplayName)
	req.Equal("https://lh3.example.com/ann.png", identity.PhotoURL)
}

func TestOIDCVerifier_Rejects_Wrong_Audience(t *testing.T) {
	req := require.New(t)
	verifier, key := newTestOIDCVerifier(t)
	raw := signIDToken(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"aud": "another-client",
		"sub": "google-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(context.Background(), raw)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestVerifierChain_Falls_Through(t *testing.T) {
	req := require.New(t)
	verifier, key := newTestOIDCVerifier(t)
	issuer := NewTokenIssuer([]byte("a-test-signing-key-of-decent-length"), time.Hour)
	chain := VerifierChain{issuer, nil, verifier}

	raw := signIDToken(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"aud": testClientID,
		"sub": "google-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	// When the first verifier rejects, the next one accepts
	identity, err := chain.Verify(context.Background(), raw)
	req.NoError(err)
	req.Equal("google-123", identity.UID)

	_, err = chain.Verify(context.Background(), "garbage")
	req.ErrorIs(err, errors.ErrInvalidToken)

	_, err = VerifierChain{}.Verify(context.Background(), raw)
	req.ErrorIs(err, errors.ErrInvalidToken)
}
