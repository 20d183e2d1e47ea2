package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// GetUserRating returns the rating userID last gave promptID, or ErrNotFound.
func GetUserRating(ctx context.Context, db *gorm.DB, userID string, promptID uint64) (*domain.UserRating, error) {
	var r domain.UserRating
	err := db.WithContext(ctx).
		Where("user_id = ? AND prompt_id = ?", userID, promptID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertUserRating stores r, replacing any earlier rating of the same pair.
func UpsertUserRating(ctx context.Context, db *gorm.DB, r *domain.UserRating) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "prompt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "rated_at"}),
		}).
		Create(r).Error
}
