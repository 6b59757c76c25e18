// Package middleware provides HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kshitijgupta505/text-classify/pkg/utils"
)

// ErrUnauthorized is returned by verifiers for missing or invalid tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier validates a bearer token and resolves the owning user.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated user id set by Auth.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey).(string)
	return userID, ok
}

// WithUser stores a user id on the context. Exposed for handler tests.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// Auth rejects requests without a valid bearer token and stores the
// resolved user id in the request context.
func Auth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively; missing or malformed headers
// yield an empty token.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// StaticVerifier resolves tokens from a fixed token → user table.
type StaticVerifier struct {
	tokens map[string]string
}

// NewStaticVerifier builds a verifier over the supplied token table.
func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	copied := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		copied[token] = userID
	}
	return &StaticVerifier{tokens: copied}
}

// Verify looks the token up in the table.
func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, ok := v.tokens[token]
	if !ok {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// SessionVerifier validates self-contained session tokens of the form
// "<userID>.<expiryUnix>.<hexmac>" where the mac is HMAC-SHA256 over
// "<userID>.<expiryUnix>" with the session secret.
type SessionVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewSessionVerifier builds a verifier for the given secret.
func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: []byte(secret), now: time.Now}
}

// MintToken issues a token for a user, valid until expiry. Used by
// operator tooling and tests; production sessions come from the identity
// provider in the same format.
func (v *SessionVerifier) MintToken(userID string, expiry time.Time) string {
	payload := fmt.Sprintf("%s.%d", userID, expiry.Unix())
	return payload + "." + v.sign(payload)
}

// Verify checks the mac and the expiry.
func (v *SessionVerifier) Verify(_ context.Context, token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" {
		return "", ErrUnauthorized
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(v.sign(payload)), []byte(parts[2])) {
		return "", ErrUnauthorized
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || v.now().After(time.Unix(expiry, 0)) {
		return "", ErrUnauthorized
	}

	return parts[0], nil
}

func (v *SessionVerifier) sign(payload string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
