package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/access"
	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/repo"
	"github.com/tbourn/prompt-vault/internal/search"
)

// GetPrompt returns prompt id, including its content, or ErrNotFound.
// Transport layers decide what to expose.
func (s *MarketplaceService) GetPrompt(ctx context.Context, id uint64) (*domain.Prompt, error) {
	var out *domain.Prompt
	err := s.run(ctx, "GetPrompt", []attribute.KeyValue{attribute.Int64("prompt.id", int64(id))},
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadPrompt(ctx, tx, id)
			out = p
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetPromptContent returns the content of prompt id if caller may view it.
//
// Errors: ErrNotFound, then ErrAccessDenied for a private prompt the caller
// neither wrote nor bought.
func (s *MarketplaceService) GetPromptContent(ctx context.Context, caller string, id uint64) (string, error) {
	var content string
	err := s.run(ctx, "GetPromptContent", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadPrompt(ctx, tx, id)
			if err != nil {
				return err
			}
			bought := false
			if !p.IsPublic && !access.IsAuthor(caller, p) {
				if bought, err = repo.HasPurchased(ctx, tx, caller, id); err != nil {
					return err
				}
			}
			if !access.CanViewContent(caller, p, bought) {
				return ErrAccessDenied
			}
			content = p.Content
			return nil
		})
	return content, err
}

// GetPublicPrompts lists every public prompt in creation order.
func (s *MarketplaceService) GetPublicPrompts(ctx context.Context) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := s.run(ctx, "GetPublicPrompts", nil, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		out, err = repo.ListPublicPrompts(ctx, tx)
		return err
	})
	return nonNil(out), err
}

// GetUserPrompts lists every prompt authored by userID, public or private,
// in creation order.
func (s *MarketplaceService) GetUserPrompts(ctx context.Context, userID string) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := s.run(ctx, "GetUserPrompts", []attribute.KeyValue{attribute.String("user.id", userID)},
		func(ctx context.Context, tx *gorm.DB) error {
			var err error
			out, err = repo.ListPromptsByAuthor(ctx, tx, userID)
			return err
		})
	return nonNil(out), err
}

// GetUserPurchases returns the ids userID purchased, in purchase order. Ids
// of prompts deleted since are kept.
func (s *MarketplaceService) GetUserPurchases(ctx context.Context, userID string) ([]uint64, error) {
	var out []uint64
	err := s.run(ctx, "GetUserPurchases", []attribute.KeyValue{attribute.String("user.id", userID)},
		func(ctx context.Context, tx *gorm.DB) error {
			var err error
			out, err = repo.ListPurchasedPromptIDs(ctx, tx, userID)
			return err
		})
	if out == nil {
		out = []uint64{}
	}
	return out, err
}

// GetUserLikes returns the ids userID currently likes, oldest first.
func (s *MarketplaceService) GetUserLikes(ctx context.Context, userID string) ([]uint64, error) {
	var out []uint64
	err := s.run(ctx, "GetUserLikes", []attribute.KeyValue{attribute.String("user.id", userID)},
		func(ctx context.Context, tx *gorm.DB) error {
			var err error
			out, err = repo.ListLikedPromptIDs(ctx, tx, userID)
			return err
		})
	if out == nil {
		out = []uint64{}
	}
	return out, err
}

// GetUserRating returns the rating caller last gave prompt id.
//
// Errors: ErrNotFound if the prompt does not exist, ErrRatingNotFound if the
// caller never rated it.
func (s *MarketplaceService) GetUserRating(ctx context.Context, caller string, id uint64) (uint8, error) {
	var v uint8
	err := s.run(ctx, "GetUserRating", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			if _, err := loadPrompt(ctx, tx, id); err != nil {
				return err
			}
			r, err := repo.GetUserRating(ctx, tx, caller, id)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRatingNotFound
			}
			if err != nil {
				return err
			}
			v = r.Value
			return nil
		})
	return v, err
}

// SearchPrompts returns public prompts whose title, description or any tag
// contains query (case-insensitive), optionally restricted to one category,
// ordered by popularity. An empty query matches every public prompt.
func (s *MarketplaceService) SearchPrompts(ctx context.Context, query string, category *domain.Category) ([]domain.Prompt, error) {
	attrs := []attribute.KeyValue{attribute.Int("query.len", len(query))}
	if category != nil {
		attrs = append(attrs, attribute.String("query.category", string(*category)))
	}

	var out []domain.Prompt
	err := s.run(ctx, "SearchPrompts", attrs, func(ctx context.Context, tx *gorm.DB) error {
		var (
			candidates []domain.Prompt
			err        error
		)
		if category != nil {
			candidates, err = repo.ListPublicPromptsByCategory(ctx, tx, *category)
		} else {
			candidates, err = repo.ListPublicPrompts(ctx, tx)
		}
		if err != nil {
			return err
		}
		out = search.Filter(candidates, query)
		search.Rank(out)
		return nil
	})
	return nonNil(out), err
}

func nonNil(ps []domain.Prompt) []domain.Prompt {
	if ps == nil {
		return []domain.Prompt{}
	}
	return ps
}
