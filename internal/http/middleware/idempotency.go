// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotent replay for unsafe HTTP methods. A client
// that sends an Idempotency-Key header with a POST, PUT, PATCH or DELETE gets
// exactly one execution of the operation per (user, scope, key): the first
// successful response is recorded and later retries receive the recorded
// status and body without reaching the handler. The scope is the HTTP method
// and route, so a key reused on a different prompt is a different request.
//
// Marketplace operations like purchase and like are not naturally idempotent
// (a retried purchase reports "Already purchased"), so clients that retry on
// network failures should send a key.
package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay is set to "true" on replayed responses.
const HeaderIdempotentReplay = "Idempotent-Replay"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored response was served
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by Idempotency. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the response for this request was served from
// the idempotency store.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for Idempotency.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, ^[A-Za-z0-9._~\-:]+$ is used.
	Pattern *regexp.Regexp
	// Now overrides the clock used for store lookups. Defaults to time.Now.
	Now func() time.Time
}

// IdempotencyStore persists recorded responses. TTL handling belongs to the
// implementation: Lookup must not return expired records.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string, now time.Time) (status int, body []byte, found bool, err error)
	Save(ctx context.Context, userID, scope, key string, status int, body []byte, now time.Time) error
}

// Scope returns the replay scope of a request: method plus matched route
// with its parameters filled in, e.g. "POST /api/v1/prompts/7/purchase".
func Scope(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}

// Idempotency validates the Idempotency-Key header on unsafe methods and, when
// a store is supplied, replays recorded responses.
//
// Behavior:
//   - Safe methods and requests without the header pass through untouched.
//   - An invalid key is rejected with 400.
//   - A recorded response is written back with the stored status and body, the
//     Idempotent-Replay header is set and the chain is aborted.
//   - Otherwise the handler runs and a 2xx response is recorded. Store errors
//     never fail the request; they are logged.
func Idempotency(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		if !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":    false,
				"error":      "invalid Idempotency-Key",
				"code":       "bad_idempotency_key",
				"request_id": c.Writer.Header().Get(requestIDHeader),
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if store == nil {
			c.Next()
			return
		}

		uid := userIDFromCtx(c)
		scope := Scope(c)
		ctx := c.Request.Context()

		status, body, found, err := store.Lookup(ctx, uid, scope, key, now().UTC())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
		}
		if found {
			c.Set(ctxKeyIdemReplay, true)
			c.Set(ctxKeyRateBypass, true)
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(status, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		st := cw.Status()
		if st < 200 || st >= 300 {
			return
		}
		if err := store.Save(context.WithoutCancel(ctx), uid, scope, key, st, cw.buf.Bytes(), now().UTC()); err != nil {
			LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency save failed")
		}
	}
}

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// captureWriter tees the response body so it can be recorded.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
