package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/events"
	"github.com/tbourn/prompt-vault/internal/repo"
)

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
	err error
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *MarketplaceService
	db    *gorm.DB
	pub   *recordingPublisher
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:marketsvc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repo.OpenSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	f := &fixture{db: db, pub: &recordingPublisher{}, clock: t0}
	f.svc = &MarketplaceService{
		DB:     db,
		Now:    func() time.Time { return f.clock },
		Events: f.pub,
	}
	return f
}

func (f *fixture) tick(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *fixture) user(t *testing.T, id string) {
	t.Helper()
	_, err := f.svc.CreateUser(context.Background(), id, nil, nil)
	require.NoError(t, err)
}

func (f *fixture) prompt(t *testing.T, author string, mut ...func(*NewPrompt)) *domain.Prompt {
	t.Helper()
	in := NewPrompt{
		Title:       "Blog outline",
		Description: "Structure long posts",
		Content:     "Outline a blog post about {topic}.",
		Category:    domain.CategoryWriting,
		Tags:        []string{"blog", "seo"},
		Price:       100_000_000,
		IsPublic:    true,
	}
	for _, m := range mut {
		m(&in)
	}
	p, err := f.svc.CreatePrompt(context.Background(), author, in)
	require.NoError(t, err)
	return p
}

func private(in *NewPrompt) { in.IsPublic = false }

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "ada"

	u, err := f.svc.CreateUser(ctx, "alice", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.ID)
	assert.Equal(t, &name, u.Username)
	assert.True(t, u.JoinedAt.Equal(t0))
	assert.Zero(t, u.TotalEarnings+u.TotalSpent+u.PromptsCreated+u.PromptsPurchased)

	_, err = f.svc.CreateUser(ctx, "alice", nil, nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	blank := "   "
	_, err = f.svc.CreateUser(ctx, "bob", &blank, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Username must be between 1 and 50 characters")

	// existence is checked before the username
	_, err = f.svc.CreateUser(ctx, "alice", &blank, nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.svc.GetUser(ctx, "bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePrompt_FreshStateAndCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	p := f.prompt(t, "alice", func(in *NewPrompt) { in.Title = "  Padded  " })
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, "Padded", p.Title)
	assert.Equal(t, "alice", p.Author)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.TotalRatings)
	assert.Zero(t, p.Likes)
	assert.Zero(t, p.Purchases)
	assert.True(t, p.CreatedAt.Equal(p.UpdatedAt))

	p2 := f.prompt(t, "alice")
	assert.Equal(t, uint64(2), p2.ID)

	u, err := f.svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), u.PromptsCreated)
}

func TestCreatePrompt_ValidationBeforeUserCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePrompt(ctx, "ghost", NewPrompt{Title: "", Content: "c", Category: domain.CategoryOther})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CreatePrompt(ctx, "ghost", NewPrompt{Title: "t", Content: "c", Category: domain.CategoryOther})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, "User not found. Please create a user first.", err.Error())
}

func TestCreatePrompt_TitleLengthBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	_, err := f.svc.CreatePrompt(ctx, "alice", NewPrompt{Title: strings.Repeat("x", 101), Content: "c", Category: domain.CategoryOther})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := f.svc.CreatePrompt(ctx, "alice", NewPrompt{Title: strings.Repeat("x", 100), Content: "c", Category: domain.CategoryOther})
	require.NoError(t, err)
	// the rejected attempt did not consume an id
	assert.Equal(t, uint64(1), p.ID)
}

func TestPromptIDs_NotReusedAfterDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	p1 := f.prompt(t, "alice")
	require.NoError(t, f.svc.DeletePrompt(ctx, "alice", p1.ID))
	p2 := f.prompt(t, "alice")
	assert.Equal(t, uint64(2), p2.ID)
}

func TestUpdatePrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	p := f.prompt(t, "alice")

	// nobody may modify a prompt that does not exist
	_, err := f.svc.UpdatePrompt(ctx, "alice", 99, PromptPatch{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.UpdatePrompt(ctx, "bob", p.ID, PromptPatch{Title: Some("hijack")})
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.tick(time.Minute)
	got, err := f.svc.UpdatePrompt(ctx, "alice", p.ID, PromptPatch{
		Title:    Some("  New title "),
		Price:    Some(uint64(0)),
		IsPublic: Some(false),
		Tags:     Some([]string{}),
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, uint64(0), got.Price)
	assert.False(t, got.IsPublic)
	assert.Empty(t, got.Tags)
	assert.Equal(t, p.Description, got.Description, "absent fields untouched")
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Minute)))
	assert.True(t, got.CreatedAt.Equal(t0))

	f.tick(time.Minute)
	got, err = f.svc.UpdatePrompt(ctx, "alice", p.ID, PromptPatch{})
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(2*time.Minute)), "empty patch still refreshes updated_at")
}

func TestUpdatePrompt_InvalidFieldWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	p := f.prompt(t, "alice")

	_, err := f.svc.UpdatePrompt(ctx, "alice", p.ID, PromptPatch{
		Title:   Some("valid new title"),
		Content: Some("   "),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.svc.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.True(t, got.UpdatedAt.Equal(p.UpdatedAt))
}

func TestDeletePrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	f.user(t, "bob")
	p := f.prompt(t, "alice")

	assert.ErrorIs(t, f.svc.DeletePrompt(ctx, "alice", 42), ErrUnauthorized)
	assert.ErrorIs(t, f.svc.DeletePrompt(ctx, "bob", p.ID), ErrUnauthorized)

	still, err := f.svc.GetPrompt(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, still.Title)

	require.NoError(t, f.svc.PurchasePrompt(ctx, "bob", p.ID))
	require.NoError(t, f.svc.DeletePrompt(ctx, "alice", p.ID))

	_, err = f.svc.GetPrompt(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	u, _ := f.svc.GetUser(ctx, "alice")
	assert.Zero(t, u.PromptsCreated)

	// the buyer's index keeps the stale id
	ids, err := f.svc.GetUserPurchases(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []uint64{p.ID}, ids)
}

func TestPurchasePrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	f.user(t, "bob")
	p := f.prompt(t, "alice", func(in *NewPrompt) { in.Price = 250 })

	assert.ErrorIs(t, f.svc.PurchasePrompt(ctx, "bob", 77), ErrNotFound)
	assert.ErrorIs(t, f.svc.PurchasePrompt(ctx, "alice", p.ID), ErrSelfPurchase)

	require.NoError(t, f.svc.PurchasePrompt(ctx, "bob", p.ID))
	assert.ErrorIs(t, f.svc.PurchasePrompt(ctx, "bob", p.ID), ErrAlreadyPurchased)

	got, _ := f.svc.GetPrompt(ctx, p.ID)
	assert.Equal(t, uint64(1), got.Purchases)

	buyer, _ := f.svc.GetUser(ctx, "bob")
	assert.Equal(t, uint64(1), buyer.PromptsPurchased)
	assert.Equal(t, uint64(250), buyer.TotalSpent)
	seller, _ := f.svc.GetUser(ctx, "alice")
	assert.Equal(t, uint64(250), seller.TotalEarnings)

	ids, _ := f.svc.GetUserPurchases(ctx, "bob")
	assert.Equal(t, []uint64{p.ID}, ids)

	var log []domain.Purchase
	require.NoError(t, f.db.Order("seq ASC").Find(&log).Error)
	require.Len(t, log, 1)
	assert.Equal(t, domain.Purchase{Seq: log[0].Seq, PromptID: p.ID, Buyer: "bob", Seller: "alice", Price: 250, Timestamp: log[0].Timestamp}, log[0])

	require.Len(t, f.pub.got, 1)
	assert.Equal(t, events.TypePurchaseRecorded, f.pub.got[0].Type)
	payload, ok := f.pub.got[0].Payload.(events.PurchaseRecorded)
	require.True(t, ok)
	assert.Equal(t, uint64(250), payload.Price)
}

func TestPurchasePrompt_UnregisteredBuyer_PublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	p := f.prompt(t, "alice")
	f.pub.err = errors.New("broker down")

	require.NoError(t, f.svc.PurchasePrompt(ctx, "walk-in", p.ID))

	_, err := f.svc.GetUser(ctx, "walk-in")
	assert.ErrorIs(t, err, ErrUserNotFound, "no user record is created for the buyer")
	ids, _ := f.svc.GetUserPurchases(ctx, "walk-in")
	assert.Equal(t, []uint64{p.ID}, ids)
}

func TestLikeUnlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	p := f.prompt(t, "alice")

	assert.ErrorIs(t, f.svc.LikePrompt(ctx, "bob", 9), ErrNotFound)
	assert.ErrorIs(t, f.svc.UnlikePrompt(ctx, "bob", p.ID), ErrNotLiked)

	require.NoError(t, f.svc.LikePrompt(ctx, "bob", p.ID))
	assert.ErrorIs(t, f.svc.LikePrompt(ctx, "bob", p.ID), ErrAlreadyLiked)
	got, _ := f.svc.GetPrompt(ctx, p.ID)
	assert.Equal(t, uint64(1), got.Likes)

	likes, _ := f.svc.GetUserLikes(ctx, "bob")
	assert.Equal(t, []uint64{p.ID}, likes)

	require.NoError(t, f.svc.UnlikePrompt(ctx, "bob", p.ID))
	got, _ = f.svc.GetPrompt(ctx, p.ID)
	assert.Zero(t, got.Likes)
	likes, _ = f.svc.GetUserLikes(ctx, "bob")
	assert.Empty(t, likes)
	assert.NotNil(t, likes)
}

func TestRatePrompt_AverageAndReRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	p := f.prompt(t, "alice")

	require.NoError(t, f.svc.RatePrompt(ctx, "u1", p.ID, 4))
	require.NoError(t, f.svc.RatePrompt(ctx, "u2", p.ID, 2))
	got, _ := f.svc.GetPrompt(ctx, p.ID)
	assert.Equal(t, uint64(2), got.TotalRatings)
	assert.InDelta(t, 3.0, got.Rating, 1e-9)

	require.NoError(t, f.svc.RatePrompt(ctx, "u1", p.ID, 2))
	got, _ = f.svc.GetPrompt(ctx, p.ID)
	assert.Equal(t, uint64(2), got.TotalRatings, "re-rating keeps the sample size")
	assert.InDelta(t, 2.0, got.Rating, 1e-9)

	v, err := f.svc.GetUserRating(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), v)

	_, err = f.svc.GetUserRating(ctx, "u3", p.ID)
	assert.ErrorIs(t, err, ErrRatingNotFound)
	_, err = f.svc.GetUserRating(ctx, "u1", 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRatePrompt_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	pub := f.prompt(t, "alice")
	priv := f.prompt(t, "alice", private)

	assert.ErrorIs(t, f.svc.RatePrompt(ctx, "bob", 99, 0), ErrInvalidInput, "range is checked before existence")
	assert.ErrorIs(t, f.svc.RatePrompt(ctx, "bob", 99, 6), ErrInvalidInput)
	assert.ErrorIs(t, f.svc.RatePrompt(ctx, "bob", 99, 3), ErrNotFound)
	assert.ErrorIs(t, f.svc.RatePrompt(ctx, "alice", pub.ID, 5), ErrSelfRating)
	assert.ErrorIs(t, f.svc.RatePrompt(ctx, "bob", priv.ID, 5), ErrPurchaseRequired)

	require.NoError(t, f.svc.PurchasePrompt(ctx, "bob", priv.ID))
	require.NoError(t, f.svc.RatePrompt(ctx, "bob", priv.ID, 5))

	got, _ := f.svc.GetPrompt(ctx, pub.ID)
	assert.Zero(t, got.TotalRatings)
	assert.Zero(t, got.Rating)
}

func TestGetPromptContent_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	pub := f.prompt(t, "alice", func(in *NewPrompt) { in.Content = "public body" })
	priv := f.prompt(t, "alice", private, func(in *NewPrompt) { in.Content = "secret body" })

	c, err := f.svc.GetPromptContent(ctx, "anyone", pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "public body", c)

	_, err = f.svc.GetPromptContent(ctx, "bob", priv.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	c, err = f.svc.GetPromptContent(ctx, "alice", priv.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret body", c)

	require.NoError(t, f.svc.PurchasePrompt(ctx, "bob", priv.ID))
	c, err = f.svc.GetPromptContent(ctx, "bob", priv.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret body", c)

	_, err = f.svc.GetPromptContent(ctx, "bob", 1234)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")
	f.user(t, "bob")
	a1 := f.prompt(t, "alice")
	a2 := f.prompt(t, "alice", private)
	b1 := f.prompt(t, "bob")

	pub, err := f.svc.GetPublicPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a1.ID, b1.ID}, promptIDs(pub))

	mine, err := f.svc.GetUserPrompts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []uint64{a1.ID, a2.ID}, promptIDs(mine))

	none, err := f.svc.GetUserPrompts(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	ids, err := f.svc.GetUserPurchases(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, []uint64{}, ids)
}

func TestSearchPrompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alice")

	p1 := f.prompt(t, "alice", func(in *NewPrompt) { in.Title = "SEO checklist"; in.Category = domain.CategoryMarketing; in.Tags = nil })
	p2 := f.prompt(t, "alice", func(in *NewPrompt) { in.Title = "Go code review"; in.Category = domain.CategoryDevelopment; in.Tags = []string{"Golang"} })
	p3 := f.prompt(t, "alice", func(in *NewPrompt) { in.Title = "Launch email"; in.Category = domain.CategoryMarketing; in.Tags = nil })
	f.prompt(t, "alice", private, func(in *NewPrompt) { in.Title = "Hidden SEO" })

	require.NoError(t, f.svc.LikePrompt(ctx, "u1", p3.ID))
	require.NoError(t, f.svc.LikePrompt(ctx, "u2", p3.ID))
	require.NoError(t, f.svc.PurchasePrompt(ctx, "u1", p2.ID))

	all, err := f.svc.SearchPrompts(ctx, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{p3.ID, p2.ID, p1.ID}, promptIDs(all), "ranked by popularity, private excluded")

	seo, err := f.svc.SearchPrompts(ctx, "seo", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{p1.ID}, promptIDs(seo))

	golang, err := f.svc.SearchPrompts(ctx, "GOLANG", nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{p2.ID}, promptIDs(golang))

	mk := domain.CategoryMarketing
	market, err := f.svc.SearchPrompts(ctx, "", &mk)
	require.NoError(t, err)
	assert.Equal(t, []uint64{p3.ID, p1.ID}, promptIDs(market))

	none, err := f.svc.SearchPrompts(ctx, "zzz", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestOperationsMetric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	baseOK := testutil.ToFloat64(opsTotal.WithLabelValues("CreateUser", "ok"))
	baseConflict := testutil.ToFloat64(opsTotal.WithLabelValues("CreateUser", "conflict"))

	f.user(t, "alice")
	_, _ = f.svc.CreateUser(ctx, "alice", nil, nil)

	assert.Equal(t, baseOK+1, testutil.ToFloat64(opsTotal.WithLabelValues("CreateUser", "ok")))
	assert.Equal(t, baseConflict+1, testutil.ToFloat64(opsTotal.WithLabelValues("CreateUser", "conflict")))
}

func TestCancelledContext_NoPartialWrites(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.CreatePrompt(ctx, "alice", NewPrompt{Title: "t", Content: "c", Category: domain.CategoryOther})
	require.Error(t, err)

	pub, err := f.svc.GetUserPrompts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, pub)
	u, _ := f.svc.GetUser(context.Background(), "alice")
	assert.Zero(t, u.PromptsCreated)
}

func TestConcurrentLikes_Serialised(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	p := f.prompt(t, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = f.svc.LikePrompt(context.Background(), fmt.Sprintf("fan-%d", i), p.ID)
		}(i)
	}
	wg.Wait()

	got, err := f.svc.GetPrompt(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), got.Likes)
}

func promptIDs(ps []domain.Prompt) []uint64 {
	out := make([]uint64, len(ps))
	for i := range ps {
		out[i] = ps[i].ID
	}
	return out
}
