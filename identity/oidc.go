package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"superchat/auth"
	"superchat/contract"
	"superchat/domain/chat"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var _ contract.IdentityProvider = (*OIDC)(nil)

// GoogleRevokeURL revokes access and refresh tokens.
const GoogleRevokeURL = "https://oauth2.googleapis.com/revoke"

// Opener shows the authorization URL to the user, usually by launching a browser.
type Opener func(authURL string) error

// OIDC signs a user in with the authorization code flow and PKCE, receiving
// the redirect on a loopback listener bound to 127.0.0.1.
type OIDC struct {
	log        *slog.Logger
	oauth      oauth2.Config
	verifier   *auth.OIDCVerifier
	opener     Opener
	revokeURL  string
	httpClient *http.Client

	mu     sync.Mutex
	tokens map[string]*oauth2.Token // uid -> provider token
}

func NewOIDC(log *slog.Logger, oauth oauth2.Config, verifier *auth.OIDCVerifier,
	revokeURL string, opener Opener) *OIDC {
	if len(oauth.Scopes) == 0 {
		oauth.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	return &OIDC{
		log:        log,
		oauth:      oauth,
		verifier:   verifier,
		opener:     opener,
		revokeURL:  revokeURL,
		httpClient: http.DefaultClient,
		tokens:     make(map[string]*oauth2.Token),
	}
}

// NewGoogleOIDC discovers Google's endpoints and keys.
func NewGoogleOIDC(ctx context.Context, log *slog.Logger, clientID, clientSecret string, opener Opener) (*OIDC, error) {
	provider, err := oidc.NewProvider(ctx, auth.GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google discovery: %w", err)
	}
	verifier := auth.NewOIDCVerifierFrom(provider.Verifier(&oidc.Config{ClientID: clientID}))
	config := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
	}
	return NewOIDC(log, config, verifier, GoogleRevokeURL, opener), nil
}

type callback struct {
	code string
	err  error
}

// SignIn returns once the provider redirected back, or ctx is done.
// The session token is the verified ID token.
func (o *OIDC) SignIn(ctx context.Context) (chat.Session, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return chat.Session{}, fmt.Errorf("loopback listener: %w", err)
	}
	config := o.oauth
	config.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr())

	state, err := randomString()
	if err != nil {
		return chat.Session{}, err
	}
	nonce, err := randomString()
	if err != nil {
		return chat.Session{}, err
	}
	pkce := oauth2.GenerateVerifier()

	callbacks := make(chan callback, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		result := readCallback(r.URL.Query(), state)
		if result.err != nil {
			http.Error(w, "Sign-in failed, you can close this window.", http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprintln(w, "Signed in to Superchat, you can close this window.")
		}
		select {
		case callbacks <- result:
		default:
		}
	})
	server := &http.Server{Handler: mux}
	go func() { _ = server.Serve(listener) }()
	defer func() { _ = server.Close() }()

	authURL := config.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce), oidc.Nonce(nonce))
	if err = o.opener(authURL); err != nil {
		return chat.Session{}, fmt.Errorf("open authorization page: %w", err)
	}
	o.log.Debug("Waiting for the provider redirect", "redirect", config.RedirectURL)

	var result callback
	select {
	case <-ctx.Done():
		return chat.Session{}, ctx.Err()
	case result = <-callbacks:
	}
	if result.err != nil {
		return chat.Session{}, result.err
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	token, err := config.Exchange(exchangeCtx, result.code, oauth2.VerifierOption(pkce))
	if err != nil {
		return chat.Session{}, fmt.Errorf("code exchange: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return chat.Session{}, fmt.Errorf("token response has no id_token")
	}
	claims, err := o.verifier.VerifyClaims(ctx, rawIDToken)
	if err != nil {
		return chat.Session{}, err
	}
	if claims.Nonce != nonce {
		return chat.Session{}, fmt.Errorf("id token nonce mismatch")
	}

	o.mu.Lock()
	o.tokens[claims.Subject] = token
	o.mu.Unlock()
	return chat.Session{
		Identity: chat.Identity{UID: claims.Subject, DisplayName: claims.Name, PhotoURL: claims.Picture},
		Token:    rawIDToken,
	}, nil
}

// SignOut revokes the provider token obtained at sign-in.
func (o *OIDC) SignOut(ctx context.Context, session chat.Session) error {
	o.mu.Lock()
	token, ok := o.tokens[session.Identity.UID]
	o.mu.Unlock()
	if !ok || o.revokeURL == "" {
		return nil
	}

	revoked := token.RefreshToken
	if revoked == "" {
		revoked = token.AccessToken
	}
	form := url.Values{"token": {revoked}}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, o.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	response, err := o.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: unexpected status %d", response.StatusCode)
	}

	o.mu.Lock()
	delete(o.tokens, session.Identity.UID)
	o.mu.Unlock()
	return nil
}

func readCallback(query url.Values, state string) callback {
	if reason := query.Get("error"); reason != "" {
		return callback{err: fmt.Errorf("provider refused sign-in: %s", reason)}
	}
	if query.Get("state") != state {
		return callback{err: fmt.Errorf("state mismatch in redirect")}
	}
	code := query.Get("code")
	if code == "" {
		return callback{err: fmt.Errorf("redirect has no code")}
	}
	return callback{code: code}
}

func randomString() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
