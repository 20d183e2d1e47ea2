package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/access"
	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/events"
	"github.com/tbourn/prompt-vault/internal/repo"
	"github.com/tbourn/prompt-vault/internal/validation"
)

// PurchasePrompt records that caller bought prompt id at its current price.
//
// Errors, in order: ErrNotFound, ErrSelfPurchase, ErrAlreadyPurchased.
//
// No funds move. The purchase log gains one fact, the prompt's purchase
// counter grows by one, the seller's earnings grow by the price, and if the
// buyer has a user record its spend and purchase count grow too. A
// purchase.recorded event is published after commit.
func (s *MarketplaceService) PurchasePrompt(ctx context.Context, caller string, id uint64) error {
	var fact *domain.Purchase
	err := s.run(ctx, "PurchasePrompt", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadPrompt(ctx, tx, id)
			if err != nil {
				return err
			}
			if access.IsAuthor(caller, p) {
				return ErrSelfPurchase
			}
			bought, err := repo.HasPurchased(ctx, tx, caller, id)
			if err != nil {
				return err
			}
			if bought {
				return ErrAlreadyPurchased
			}

			fact = &domain.Purchase{
				PromptID:  id,
				Buyer:     caller,
				Seller:    p.Author,
				Price:     p.Price,
				Timestamp: s.now(),
			}
			if err := repo.CreatePurchase(ctx, tx, fact); err != nil {
				return err
			}
			p.Purchases++
			if err := repo.SavePrompt(ctx, tx, p); err != nil {
				return err
			}
			if err := repo.RecordSpend(ctx, tx, caller, p.Price); err != nil {
				return err
			}
			return repo.RecordEarning(ctx, tx, p.Author, p.Price)
		})
	if err != nil {
		return err
	}

	s.emit(ctx, events.Event{
		Type:       events.TypePurchaseRecorded,
		OccurredAt: fact.Timestamp,
		Payload: events.PurchaseRecorded{
			PromptID:  fact.PromptID,
			Buyer:     fact.Buyer,
			Seller:    fact.Seller,
			Price:     fact.Price,
			Timestamp: fact.Timestamp,
		},
	})
	return nil
}

// LikePrompt adds caller's like to prompt id.
//
// Errors: ErrNotFound, ErrAlreadyLiked.
func (s *MarketplaceService) LikePrompt(ctx context.Context, caller string, id uint64) error {
	return s.run(ctx, "LikePrompt", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadPrompt(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := repo.CreateLike(ctx, tx, caller, id); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return ErrAlreadyLiked
				}
				return err
			}
			p.Likes++
			return repo.SavePrompt(ctx, tx, p)
		})
}

// UnlikePrompt withdraws caller's like from prompt id. The counter never
// drops below zero.
//
// Errors: ErrNotFound, ErrNotLiked.
func (s *MarketplaceService) UnlikePrompt(ctx context.Context, caller string, id uint64) error {
	return s.run(ctx, "UnlikePrompt", promptAttrs(caller, id),
		func(ctx context.Context, tx *gorm.DB) error {
			p, err := loadPrompt(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := repo.DeleteLike(ctx, tx, caller, id); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrNotLiked
				}
				return err
			}
			if p.Likes > 0 {
				p.Likes--
			}
			return repo.SavePrompt(ctx, tx, p)
		})
}

// RatePrompt records caller's rating of prompt id and updates the running
// average. Rating again replaces the earlier value without growing the
// sample.
//
// Errors, in order: ErrInvalidInput (value outside 1..5), ErrNotFound,
// ErrSelfRating, ErrPurchaseRequired (private prompt not bought).
func (s *MarketplaceService) RatePrompt(ctx context.Context, caller string, id uint64, value int) error {
	attrs := append(promptAttrs(caller, id), attribute.Int("rating.value", value))
	return s.run(ctx, "RatePrompt", attrs,
		func(ctx context.Context, tx *gorm.DB) error {
			if err := validation.Rating(value); err != nil {
				return err
			}
			p, err := loadPrompt(ctx, tx, id)
			if err != nil {
				return err
			}
			if access.IsAuthor(caller, p) {
				return ErrSelfRating
			}
			bought, err := repo.HasPurchased(ctx, tx, caller, id)
			if err != nil {
				return err
			}
			if !access.CanRate(caller, p, bought) {
				return ErrPurchaseRequired
			}

			var previous *uint8
			prior, err := repo.GetUserRating(ctx, tx, caller, id)
			switch {
			case err == nil:
				previous = &prior.Value
			case !errors.Is(err, repo.ErrNotFound):
				return err
			}

			v := uint8(value)
			if err := repo.UpsertUserRating(ctx, tx, &domain.UserRating{
				UserID:   caller,
				PromptID: id,
				Value:    v,
				RatedAt:  s.now(),
			}); err != nil {
				return err
			}
			p.Rating, p.TotalRatings = nextAverage(p.Rating, p.TotalRatings, v, previous)
			return repo.SavePrompt(ctx, tx, p)
		})
}
