// Package httpapi wires the HTTP transport (Gin) to the marketplace service,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, caller identity, idempotent replays and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/prompt-vault/docs"
	"github.com/tbourn/prompt-vault/internal/config"
	"github.com/tbourn/prompt-vault/internal/http/handlers"
	"github.com/tbourn/prompt-vault/internal/http/middleware"
	"github.com/tbourn/prompt-vault/internal/repo"
	"github.com/tbourn/prompt-vault/internal/services"
)

// idempotencyStore adapts the repo idempotency functions to
// middleware.IdempotencyStore.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Lookup proxies repo.GetIdempotency; a missing or expired record is a miss.
func (s idempotencyStore) Lookup(ctx context.Context, userID, scope, key string, now time.Time) (int, []byte, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	return rec.Status, rec.Body, true, nil
}

// Save proxies repo.CreateIdempotency. Losing a race to a concurrent retry
// with the same key is not an error.
func (s idempotencyStore) Save(ctx context.Context, userID, scope, key string, status int, body []byte, now time.Time) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, status, body, now, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the marketplace API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. gzip (outside idempotency so recorded bodies are uncompressed)
//  7. Metrics
//  8. CORS and Security headers
//
// and on the API group only:
//  9. Identity: resolve the caller (JWT or X-User-ID)
//  10. Idempotency: replay recorded responses (before rate limiter)
//  11. Rate limiter (per user/IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, svc *services.MarketplaceService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB); prompt content is capped far below
	r.Use(limitBody(1 << 20))

	// 6) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) CORS posture (allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", middleware.HeaderIdempotentReplay},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", middleware.HeaderIdempotentReplay},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.Envelope{Success: true, Data: gin.H{"status": "ok"}})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Identity(middleware.IdentityOptions{JWTSecret: []byte(cfg.AuthJWTSecret)}),
		middleware.Idempotency(middleware.IdempotencyOptions{MaxLen: 200, Now: svc.Now},
			idempotencyStore{db: svc.DB, ttl: cfg.IdempotencyTTL}),
		rl.Handler(),
	)
	{
		// Users
		api.POST("/users", h.CreateUser)
		api.GET("/users/:id", h.GetUser)
		api.GET("/users/:id/prompts", h.GetUserPrompts)
		api.GET("/users/:id/purchases", h.GetUserPurchases)
		api.GET("/users/:id/likes", h.GetUserLikes)

		// Prompts
		api.POST("/prompts", h.CreatePrompt)
		api.GET("/prompts", h.ListPublicPrompts)
		api.GET("/prompts/search", h.SearchPrompts)
		api.GET("/prompts/:id", h.GetPrompt)
		api.PATCH("/prompts/:id", h.UpdatePrompt)
		api.DELETE("/prompts/:id", h.DeletePrompt)
		api.GET("/prompts/:id/content", h.GetPromptContent)

		// Trades
		api.POST("/prompts/:id/purchase", h.PurchasePrompt)
		api.POST("/prompts/:id/like", h.LikePrompt)
		api.DELETE("/prompts/:id/like", h.UnlikePrompt)
		api.POST("/prompts/:id/rating", h.RatePrompt)
		api.GET("/prompts/:id/rating", h.GetUserRating)
	}
}

// limitBody caps the request body size using http.MaxBytesReader. Requests
// exceeding the cap cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
