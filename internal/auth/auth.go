package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the name the session token is persisted under.
const TokenKey = "token"

// ErrNoToken - the store holds no session token
var ErrNoToken = errors.New("auth: no session token")

// Claims - what the UI can read out of a JWT-shaped token for display.
// Nothing here is verified; the token stays opaque for every decision.
type Claims struct {
	UserID    int64
	ExpiresAt time.Time
}

// Session - an authenticated identity as held by the browser
type Session struct {
	Token  string
	Claims *Claims
}

// NewSession wraps token, peeking at its claims when it looks like a JWT.
func NewSession(token string) Session {
	return Session{Token: token, Claims: PeekClaims(token)}
}

// PeekClaims parses the token without checking its signature. It returns nil
// for tokens that are not JWTs.
func PeekClaims(token string) *Claims {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil
	}

	c := &Claims{}
	if id, ok := mc["user_id"].(float64); ok {
		c.UserID = int64(id)
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c
}

// GetTokenFromRequest - token persisted in the browser cookie, or from the
// Authorization header for non-browser callers
func GetTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenKey); err == nil {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}

	return ""
}
