package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims the service understands
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the result of a token check. A zero Identity is anonymous.
type Identity struct {
	UserID        string
	Email         string
	Authenticated bool
}

// TokenAuthenticator validates HMAC-signed bearer tokens. It never rejects a
// caller: a missing, malformed or expired token yields an anonymous identity.
type TokenAuthenticator struct {
	secret []byte
}

// NewTokenAuthenticator creates an authenticator. An empty secret disables
// verification and every caller is anonymous.
func NewTokenAuthenticator(secret string) *TokenAuthenticator {
	return &TokenAuthenticator{secret: []byte(secret)}
}

// Authenticate inspects token and returns the caller's identity
func (a *TokenAuthenticator) Authenticate(token string) Identity {
	if a == nil || len(a.secret) == 0 || token == "" {
		return Identity{}
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Identity{}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	return Identity{UserID: userID, Email: claims.Email, Authenticated: true}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
