package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// PromptSequence names the counter backing prompt ids.
const PromptSequence = "prompt"

// NextID allocates the next value of the named sequence, starting at 1.
// Values are never handed out twice, even after the records they were used
// for are deleted. Call it inside the transaction that consumes the value so
// a rollback also returns the allocation.
func NextID(ctx context.Context, db *gorm.DB, name string) (uint64, error) {
	seq := domain.Sequence{Name: name}
	err := db.WithContext(ctx).
		Where(domain.Sequence{Name: name}).
		Attrs(domain.Sequence{Next: 1}).
		FirstOrCreate(&seq).Error
	if err != nil {
		return 0, err
	}
	id := seq.Next
	err = db.WithContext(ctx).Model(&domain.Sequence{}).
		Where("name = ?", name).
		Update("next", id+1).Error
	if err != nil {
		return 0, err
	}
	return id, nil
}
