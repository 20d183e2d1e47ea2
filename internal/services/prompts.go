package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/access"
	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/repo"
	"github.com/tbourn/prompt-vault/internal/validation"
)

// NewPrompt carries the author-supplied fields of a prompt.
type NewPrompt struct {
	Title       string
	Description string
	Content     string
	Category    domain.Category
	Tags        []string
	Price       uint64
	IsPremium   bool
	IsPublic    bool
}

// Optional distinguishes an absent field from one set to its zero value.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Set: true} }

func (o Optional[T]) ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// PromptPatch is a partial update; only set fields are replaced.
type PromptPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Content     Optional[string]
	Category    Optional[domain.Category]
	Tags        Optional[[]string]
	Price       Optional[uint64]
	IsPremium   Optional[bool]
	IsPublic    Optional[bool]
}

func promptAttrs(caller string, id uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("user.id", caller),
		attribute.Int64("prompt.id", int64(id)),
	}
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// loadPrompt fetches id and maps a missing row to ErrNotFound.
func loadPrompt(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Prompt, error) {
	p, err := repo.GetPrompt(ctx, tx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// CreatePrompt validates in and publishes it under caller.
//
// Errors:
//   - ErrInvalidInput for the first violated field rule.
//   - ErrUserNotFound if caller has not registered.
//
// The title is stored trimmed. Derived counters start at zero and the
// author's prompts_created grows by one.
func (s *MarketplaceService) CreatePrompt(ctx context.Context, caller string, in NewPrompt) (*domain.Prompt, error) {
	var out *domain.Prompt
	err := s.run(ctx, "CreatePrompt", []attribute.KeyValue{attribute.String("user.id", caller)},
		func(ctx context.Context, tx *gorm.DB) error {
			if err := validation.Prompt(validation.PromptInput{
				Title:       in.Title,
				Description: in.Description,
				Content:     in.Content,
				Tags:        in.Tags,
				Category:    in.Category,
				Price:       in.Price,
			}); err != nil {
				return err
			}

			exists, err := repo.UserExists(ctx, tx, caller)
			if err != nil {
				return err
			}
			if !exists {
				return errUserRequired
			}

			id, err := repo.NextID(ctx, tx, repo.PromptSequence)
			if err != nil {
				return err
			}
			now := s.now()
			p := &domain.Prompt{
				ID:          id,
				Title:       strings.TrimSpace(in.Title),
				Description: in.Description,
				Content:     in.Content,
				Author:      caller,
				Category:    in.Category,
				Tags:        cloneTags(in.Tags),
				Price:       in.Price,
				IsPremium:   in.IsPremium,
				IsPublic:    in.IsPublic,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repo.CreatePrompt(ctx, tx, p); err != nil {
				return err
			}
			if err := repo.IncrPromptsCreated(ctx, tx, caller); err != nil {
				return err
			}
			out = p
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePrompt applies patch to prompt id on behalf of its author.
//
// Errors, in order: ErrUnauthorized (also for a missing prompt),
// ErrInvalidInput. Every set
// field is validated before anything is written. updated_at is refreshed even
// when the patch is empty.
func (s *MarketplaceService) UpdatePrompt(ctx context.Context, caller string, id uint64, patch PromptPatch) (*domain.Prompt, error) {
	var out *domain.Prompt
	err := s.run(ctx, "UpdatePrompt", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadModifiable(ctx, tx, caller, id)
			if err != nil {
				return err
			}
			if err := validation.Patch(validation.PromptPatch{
				Title:       patch.Title.ptr(),
				Description: patch.Description.ptr(),
				Content:     patch.Content.ptr(),
				Tags:        patch.Tags.ptr(),
				Category:    patch.Category.ptr(),
				Price:       patch.Price.ptr(),
			}); err != nil {
				return err
			}

			if patch.Title.Set {
				p.Title = strings.TrimSpace(patch.Title.Value)
			}
			if patch.Description.Set {
				p.Description = patch.Description.Value
			}
			if patch.Content.Set {
				p.Content = patch.Content.Value
			}
			if patch.Category.Set {
				p.Category = patch.Category.Value
			}
			if patch.Tags.Set {
				p.Tags = cloneTags(patch.Tags.Value)
			}
			if patch.Price.Set {
				p.Price = patch.Price.Value
			}
			if patch.IsPremium.Set {
				p.IsPremium = patch.IsPremium.Value
			}
			if patch.IsPublic.Set {
				p.IsPublic = patch.IsPublic.Value
			}
			p.UpdatedAt = s.now()

			if err := repo.SavePrompt(ctx, tx, p); err != nil {
				return err
			}
			out = p
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePrompt removes prompt id on behalf of its author. Purchases, likes
// and ratings referencing it are kept.
//
// Errors: ErrUnauthorized, also when id does not exist.
func (s *MarketplaceService) DeletePrompt(ctx context.Context, caller string, id uint64) error {
	return s.run(ctx, "DeletePrompt", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadModifiable(ctx, tx, caller, id)
			if err != nil {
				return err
			}
			if err := repo.DeletePrompt(ctx, tx, id); err != nil {
				return err
			}
			return repo.DecrPromptsCreated(ctx, tx, p.Author)
		})
}

// loadModifiable loads prompt id for a write by caller. Nobody may modify a
// prompt that does not exist, so a missing id reports ErrUnauthorized.
func loadModifiable(ctx context.Context, tx *gorm.DB, caller string, id uint64) (*domain.Prompt, error) {
	p, err := loadPrompt(ctx, tx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !access.CanModify(caller, p) {
		return nil, ErrUnauthorized
	}
	return p, nil
}
