package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// CreateUser inserts u and returns ErrDuplicate if the id is taken.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by identity. It returns ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether a user record exists for id.
func UserExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// IncrPromptsCreated adds one to the author's prompts_created counter.
func IncrPromptsCreated(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("prompts_created", gorm.Expr("prompts_created + 1")).Error
}

// DecrPromptsCreated subtracts one from prompts_created, never going below 0.
func DecrPromptsCreated(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("prompts_created",
			gorm.Expr("CASE WHEN prompts_created > 0 THEN prompts_created - 1 ELSE 0 END")).Error
}

// RecordSpend bumps the buyer's purchase count and total spent. A missing
// user row is not an error; nothing is updated.
func RecordSpend(ctx context.Context, db *gorm.DB, id string, price uint64) error {
	return db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"prompts_purchased": gorm.Expr("prompts_purchased + 1"),
			"total_spent":       gorm.Expr("total_spent + ?", price),
		}).Error
}

// RecordEarning adds price to the seller's total earnings. A missing user
// row is not an error.
func RecordEarning(ctx context.Context, db *gorm.DB, id string, price uint64) error {
	return db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("total_earnings", gorm.Expr("total_earnings + ?", price)).Error
}
