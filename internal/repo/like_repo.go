package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// CreateLike records that userID likes promptID. It returns ErrDuplicate if
// the pair already exists.
func CreateLike(ctx context.Context, db *gorm.DB, userID string, promptID uint64) error {
	err := db.WithContext(ctx).Create(&domain.Like{UserID: userID, PromptID: promptID}).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteLike removes the pair. It returns ErrNotFound if it was not present.
func DeleteLike(ctx context.Context, db *gorm.DB, userID string, promptID uint64) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND prompt_id = ?", userID, promptID).
		Delete(&domain.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLikedPromptIDs returns the prompt ids userID liked, oldest first.
func ListLikedPromptIDs(ctx context.Context, db *gorm.DB, userID string) ([]uint64, error) {
	ids := []uint64{}
	err := db.WithContext(ctx).Model(&domain.Like{}).
		Where("user_id = ?", userID).
		Order("seq ASC").
		Pluck("prompt_id", &ids).Error
	return ids, err
}
