// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller identity of each request and stores it in the
// Gin context under UserIDKey. Every marketplace operation acts on behalf of
// exactly one identity.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// UserIDKey is the Gin context key holding the caller identity.
	UserIDKey = "userID"
	// HeaderUserID carries the caller identity when no JWT secret is configured.
	HeaderUserID = "X-User-ID"
	// AnonymousUser is the identity of callers that present none.
	AnonymousUser = "anonymous"
)

// IdentityOptions configures Identity.
//
// With a non-empty JWTSecret every request must carry
// "Authorization: Bearer <token>" signed with HS256; the token subject is the
// identity. Without it the X-User-ID header is trusted as is.
type IdentityOptions struct {
	JWTSecret []byte
}

// Identity returns a middleware that resolves the caller identity.
func Identity(opts IdentityOptions) gin.HandlerFunc {
	if len(opts.JWTSecret) == 0 {
		return func(c *gin.Context) {
			uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
			if uid == "" {
				uid = AnonymousUser
			}
			c.Set(UserIDKey, uid)
			c.Next()
		}
	}

	secret := opts.JWTSecret
	keyFn := func(*jwt.Token) (interface{}, error) { return secret, nil }
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthenticated(c, "missing bearer token")
			return
		}
		claims := &jwt.RegisteredClaims{}
		if _, err := jwt.ParseWithClaims(raw, claims, keyFn,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		); err != nil {
			unauthenticated(c, "invalid token")
			return
		}
		sub := strings.TrimSpace(claims.Subject)
		if sub == "" {
			unauthenticated(c, "token has no subject")
			return
		}
		c.Set(UserIDKey, sub)
		c.Next()
	}
}

func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func unauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":    false,
		"error":      msg,
		"code":       "unauthenticated",
		"request_id": c.Writer.Header().Get(requestIDHeader),
	})
}

// userIDFromCtx returns the identity set by Identity, or AnonymousUser.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return AnonymousUser
}
