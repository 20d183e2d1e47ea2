// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Prompt model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules (validation, access control,
// counter semantics) to the services package.
//
// Listings are returned in id order, which is also creation order because ids
// are allocated sequentially.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// CreatePrompt inserts p. The caller allocates p.ID through NextID.
func CreatePrompt(ctx context.Context, db *gorm.DB, p *domain.Prompt) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetPrompt fetches a prompt by id. It returns ErrNotFound if missing.
func GetPrompt(ctx context.Context, db *gorm.DB, id uint64) (*domain.Prompt, error) {
	var p domain.Prompt
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePrompt writes every column of p, including zero values.
func SavePrompt(ctx context.Context, db *gorm.DB, p *domain.Prompt) error {
	return db.WithContext(ctx).Save(p).Error
}

// DeletePrompt removes the prompt row. Purchases, likes and ratings that
// reference it are kept.
func DeletePrompt(ctx context.Context, db *gorm.DB, id uint64) error {
	return db.WithContext(ctx).Delete(&domain.Prompt{}, "id = ?", id).Error
}

// ListPublicPrompts returns every public prompt in id order.
func ListPublicPrompts(ctx context.Context, db *gorm.DB) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// ListPublicPromptsByCategory narrows ListPublicPrompts to one category.
func ListPublicPromptsByCategory(ctx context.Context, db *gorm.DB, cat domain.Category) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := db.WithContext(ctx).
		Where("is_public = ? AND category = ?", true, cat).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// ListPromptsByAuthor returns every prompt authored by author, public or
// not, in id order.
func ListPromptsByAuthor(ctx context.Context, db *gorm.DB, author string) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := db.WithContext(ctx).
		Where("author = ?", author).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
