package auth

import (
	"errors"
	"strings"
)

// Identity headers stamped by the ForwardAuth endpoint and trusted by
// gateway deployments.
const (
	HeaderUserID = "X-User-Id"
	HeaderEmail  = "X-User-Email"
	HeaderName   = "X-User-Name"
)

// ErrNotConfigured means no verifier and no legacy secret are set, so
// no token can ever validate.
var ErrNotConfigured = errors.New("token verification is not configured")

// Identity is the resolved caller, whichever token scheme vouched for
// it. Name stays empty on the legacy path.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// BearerToken pulls the token out of an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || token == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

// ResolveToken validates a token with the OIDC verifier when one is
// configured, then falls back to the legacy HMAC secret. The fallback
// keeps tokens minted before the OIDC migration working until they
// expire.
func ResolveToken(token string, verifier TokenVerifier, secret string) (*Identity, error) {
	if verifier != nil {
		claims, err := verifier.Validate(token)
		if err == nil {
			return &Identity{UserID: claims.UserID, Email: claims.Email, Name: claims.Name}, nil
		}
		if secret == "" {
			return nil, err
		}
	}

	if secret == "" {
		return nil, ErrNotConfigured
	}

	claims, err := ValidateLegacyToken(token, secret)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
