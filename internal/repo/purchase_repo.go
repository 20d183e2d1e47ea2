package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// CreatePurchase appends a fact to the purchase log. Rows are never updated
// or deleted afterwards.
func CreatePurchase(ctx context.Context, db *gorm.DB, p *domain.Purchase) error {
	return db.WithContext(ctx).Create(p).Error
}

// HasPurchased reports whether buyer has a purchase of promptID on record.
func HasPurchased(ctx context.Context, db *gorm.DB, buyer string, promptID uint64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("buyer = ? AND prompt_id = ?", buyer, promptID).
		Count(&n).Error
	return n > 0, err
}

// ListPurchasedPromptIDs returns the prompt ids buyer purchased, in purchase
// order. Ids of deleted prompts are included.
func ListPurchasedPromptIDs(ctx context.Context, db *gorm.DB, buyer string) ([]uint64, error) {
	ids := []uint64{}
	err := db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("buyer = ?", buyer).
		Order("seq ASC").
		Pluck("prompt_id", &ids).Error
	return ids, err
}
