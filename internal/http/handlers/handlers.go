// Package handlers exposes the marketplace over HTTP.
//
// Handlers are transport-thin: they parse the request, call MarketplaceService
// with the caller identity resolved by middleware.Identity, and translate the
// result into the response envelope.
package handlers

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/http/middleware"
	"github.com/tbourn/prompt-vault/internal/services"
)

// MarketplaceService is the set of marketplace operations consumed by the
// HTTP layer. *services.MarketplaceService implements it.
type MarketplaceService interface {
	CreateUser(ctx context.Context, caller string, username, email *string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)

	CreatePrompt(ctx context.Context, caller string, in services.NewPrompt) (*domain.Prompt, error)
	UpdatePrompt(ctx context.Context, caller string, id uint64, patch services.PromptPatch) (*domain.Prompt, error)
	DeletePrompt(ctx context.Context, caller string, id uint64) error

	PurchasePrompt(ctx context.Context, caller string, id uint64) error
	LikePrompt(ctx context.Context, caller string, id uint64) error
	UnlikePrompt(ctx context.Context, caller string, id uint64) error
	RatePrompt(ctx context.Context, caller string, id uint64, value int) error

	GetPrompt(ctx context.Context, id uint64) (*domain.Prompt, error)
	GetPromptContent(ctx context.Context, caller string, id uint64) (string, error)
	GetPublicPromptsTagged(ctx context.Context) ([]domain.Prompt, string, error)
	GetUserPrompts(ctx context.Context, userID string) ([]domain.Prompt, error)
	GetUserPurchases(ctx context.Context, userID string) ([]uint64, error)
	GetUserLikes(ctx context.Context, userID string) ([]uint64, error)
	GetUserRating(ctx context.Context, caller string, id uint64) (uint8, error)
	SearchPrompts(ctx context.Context, query string, category *domain.Category) ([]domain.Prompt, error)
}

// Handlers groups the marketplace endpoints.
type Handlers struct {
	svc MarketplaceService
}

// New constructs Handlers bound to svc.
func New(svc MarketplaceService) *Handlers {
	return &Handlers{svc: svc}
}

// userID returns the caller identity set by middleware.Identity, or the
// anonymous identity when the middleware is not installed.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return middleware.AnonymousUser
}

// promptID parses the :id path parameter.
func promptID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

//
// DTOs
//

// CreateUserRequest is the JSON payload for registering the caller.
type CreateUserRequest struct {
	Username *string `json:"username" example:"ada"`
	Email    *string `json:"email" example:"ada@example.com"`
}

// CreatePromptRequest is the JSON payload for publishing a prompt.
type CreatePromptRequest struct {
	Title       string   `json:"title" example:"Cold email opener"`
	Description string   `json:"description" example:"Three lines that get replies"`
	Content     string   `json:"content" example:"Write a cold email to {name} about {topic}."`
	Category    string   `json:"category" example:"Marketing"`
	Tags        []string `json:"tags" example:"sales,email"`
	Price       uint64   `json:"price" example:"150000000"`
	IsPremium   bool     `json:"is_premium"`
	IsPublic    bool     `json:"is_public" example:"true"`
}

// UpdatePromptRequest is the JSON payload of a partial update. Omitted (or
// null) fields are left unchanged.
type UpdatePromptRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Content     *string   `json:"content"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	Price       *uint64   `json:"price"`
	IsPremium   *bool     `json:"is_premium"`
	IsPublic    *bool     `json:"is_public"`
}

// RateRequest is the JSON payload for rating a prompt.
type RateRequest struct {
	Rating *int `json:"rating" example:"5"`
}

// PromptView is the public representation of a prompt. Content is only
// served by GET /prompts/{id}/content, where access control applies.
type PromptView struct {
	ID           uint64          `json:"id" example:"1"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Author       string          `json:"author"`
	Category     domain.Category `json:"category" example:"Marketing"`
	Tags         []string        `json:"tags"`
	Price        uint64          `json:"price" example:"150000000"`
	PriceICP     string          `json:"price_icp" example:"1.50000000"`
	IsPremium    bool            `json:"is_premium"`
	IsPublic     bool            `json:"is_public"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Likes        uint64          `json:"likes"`
	Purchases    uint64          `json:"purchases"`
	Rating       float64         `json:"rating"`
	TotalRatings uint64          `json:"total_ratings"`
}

// e8sExp is the decimal exponent of the smallest currency unit.
const e8sExp = -8

// formatPrice renders an e8s amount with eight fractional digits.
func formatPrice(e8s uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(e8s), e8sExp).StringFixed(-e8sExp)
}

func toView(p *domain.Prompt) PromptView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PromptView{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Author:       p.Author,
		Category:     p.Category,
		Tags:         tags,
		Price:        p.Price,
		PriceICP:     formatPrice(p.Price),
		IsPremium:    p.IsPremium,
		IsPublic:     p.IsPublic,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Likes:        p.Likes,
		Purchases:    p.Purchases,
		Rating:       p.Rating,
		TotalRatings: p.TotalRatings,
	}
}

func toViews(ps []domain.Prompt) []PromptView {
	out := make([]PromptView, 0, len(ps))
	for i := range ps {
		out = append(out, toView(&ps[i]))
	}
	return out
}

// parseCategory resolves a client category name case-insensitively. Unknown
// names pass through unchanged so validation reports them.
func parseCategory(s string) domain.Category {
	if cat, ok := domain.ParseCategory(s); ok {
		return cat
	}
	return domain.Category(s)
}

func (r UpdatePromptRequest) patch() services.PromptPatch {
	var p services.PromptPatch
	if r.Title != nil {
		p.Title = services.Some(*r.Title)
	}
	if r.Description != nil {
		p.Description = services.Some(*r.Description)
	}
	if r.Content != nil {
		p.Content = services.Some(*r.Content)
	}
	if r.Category != nil {
		p.Category = services.Some(parseCategory(*r.Category))
	}
	if r.Tags != nil {
		p.Tags = services.Some(*r.Tags)
	}
	if r.Price != nil {
		p.Price = services.Some(*r.Price)
	}
	if r.IsPremium != nil {
		p.IsPremium = services.Some(*r.IsPremium)
	}
	if r.IsPublic != nil {
		p.IsPublic = services.Some(*r.IsPublic)
	}
	return p
}
