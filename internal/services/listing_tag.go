package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/repo"
)

// GetPublicPromptsTagged is GetPublicPrompts plus a weak entity tag for the
// result. The tag and the listing come from the same transaction, so a client
// holding the tag has exactly the rows it describes.
func (s *MarketplaceService) GetPublicPromptsTagged(ctx context.Context) ([]domain.Prompt, string, error) {
	var (
		out []domain.Prompt
		tag string
	)
	err := s.run(ctx, "GetPublicPrompts", nil, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		if out, err = repo.ListPublicPrompts(ctx, tx); err != nil {
			return err
		}
		tag = ListingTag(out)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return nonNil(out), tag, nil
}

// ListingTag digests every row of ps, in order, over the fields a listing
// shows that can change: the edit time, price and the derived counters. Any
// change to any row, including counters moving between prompts, yields a
// different tag.
func ListingTag(ps []domain.Prompt) string {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	for i := range ps {
		p := &ps[i]
		put(p.ID)
		put(uint64(p.UpdatedAt.UnixNano()))
		put(p.Price)
		put(p.Likes)
		put(p.Purchases)
		put(p.TotalRatings)
		put(math.Float64bits(p.Rating))
	}
	return fmt.Sprintf(`W/"prompts-%d-%016x"`, len(ps), d.Sum64())
}
