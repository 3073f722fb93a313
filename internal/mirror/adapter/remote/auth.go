package remote

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pocketmirror/internal/shared/errors"
	"pocketmirror/internal/shared/logger"
)

// Credentials holds the configured way into protected collections: either an
// already-issued impersonation token, or an identity/password pair exchanged
// for a fresh token once per sync session. Both empty means public access
// only.
type Credentials struct {
	Email              string
	Password           string
	ImpersonationToken string
}

// Elevated reports whether any credential is configured at all. Without one
// the schema endpoint is unreachable and a local schema file must be used.
func (c Credentials) Elevated() bool {
	return c.ImpersonationToken != "" || (c.Email != "" && c.Password != "")
}

// TokenSource resolves the token to attach to remote requests and caches it
// for the rest of the session. Not safe for concurrent use; a sync session
// is single-threaded.
type TokenSource struct {
	creds  Credentials
	client *Client
	log    logger.Logger

	token        string
	impersonated bool
	resolved     bool
}

// NewTokenSource creates a token source. log may be nil.
func NewTokenSource(creds Credentials, client *Client, log logger.Logger) *TokenSource {
	if log == nil {
		log = logger.NewNoop()
	}
	return &TokenSource{creds: creds, client: client, log: log.WithComponent("auth")}
}

// Token returns the session token and whether it is an impersonation token.
// An empty token with a nil error means unauthenticated (public) access.
func (t *TokenSource) Token(ctx context.Context) (string, bool, error) {
	if t.resolved {
		return t.token, t.impersonated, nil
	}

	switch {
	case t.creds.ImpersonationToken != "":
		if err := checkTokenExpiry(t.creds.ImpersonationToken); err != nil {
			return "", true, err
		}
		t.token = t.creds.ImpersonationToken
		t.impersonated = true
	case t.creds.Email != "" && t.creds.Password != "":
		token, err := t.client.Authenticate(ctx, t.creds.Email, t.creds.Password)
		if err != nil {
			return "", false, err
		}
		t.token = token
	default:
		t.log.Debug("no credentials configured, using public access")
	}

	t.resolved = true
	return t.token, t.impersonated, nil
}

// checkTokenExpiry inspects an impersonation token's exp claim without
// verifying the signature (the mirror never holds the signing key) so an
// expired token fails fast instead of wasting a request per collection.
func checkTokenExpiry(token string) error {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return errors.NewAuthenticationError("impersonation token is not a valid JWT", true).WithCause(err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		// No exp claim: let the server decide.
		return nil
	}
	if exp.Before(time.Now()) {
		return errors.NewAuthenticationError("impersonation token is expired", true).
			WithCause(errors.ErrTokenRejected)
	}
	return nil
}
