// Package domain defines the persistence models of the prompt marketplace:
// prompts, users, the append-only purchase log and the per-user like and
// rating indexes. These types are mapped with GORM and form the record store
// schema shared by the repository and service layers.
//
// References between records are plain identifiers. There are no foreign keys
// and no cascades: deleting a prompt leaves purchases, likes and ratings that
// point at it untouched.
package domain

import (
	"strings"
	"time"
)

// Category classifies a prompt. The set is closed.
type Category string

const (
	CategoryMarketing   Category = "Marketing"
	CategoryDevelopment Category = "Development"
	CategoryWriting     Category = "Writing"
	CategoryBusiness    Category = "Business"
	CategoryEducation   Category = "Education"
	CategoryCreative    Category = "Creative"
	CategoryOther       Category = "Other"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryMarketing,
	CategoryDevelopment,
	CategoryWriting,
	CategoryBusiness,
	CategoryEducation,
	CategoryCreative,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the known categories, ignoring case.
func ParseCategory(s string) (Category, bool) {
	for _, k := range Categories {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, true
		}
	}
	return "", false
}

// Prompt is a priced or free text artifact published by a user.
//
// Fields:
//   - ID: sequential identifier allocated from the "prompt" Sequence; never reused.
//   - Author: identity of the publishing user.
//   - Tags: ordered list, stored as a JSON column.
//   - Price: smallest currency unit (e8s).
//   - Likes / Purchases / Rating / TotalRatings: derived counters maintained
//     by the service layer. Rating is 0 while TotalRatings is 0.
type Prompt struct {
	ID           uint64    `json:"id"            gorm:"primaryKey;autoIncrement:false"`
	Title        string    `json:"title"         gorm:"type:text;not null"`
	Description  string    `json:"description"   gorm:"type:text;not null"`
	Content      string    `json:"content"       gorm:"type:text;not null"`
	Author       string    `json:"author"        gorm:"type:varchar(128);not null;index:idx_prompt_author"`
	Category     Category  `json:"category"      gorm:"type:varchar(32);not null"`
	Tags         []string  `json:"tags"          gorm:"type:text;not null;serializer:json"`
	Price        uint64    `json:"price"         gorm:"not null"`
	IsPremium    bool      `json:"is_premium"    gorm:"not null"`
	IsPublic     bool      `json:"is_public"     gorm:"not null;index:idx_prompt_public"`
	CreatedAt    time.Time `json:"created_at"    gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `json:"updated_at"    gorm:"autoUpdateTime:false"`
	Likes        uint64    `json:"likes"         gorm:"not null"`
	Purchases    uint64    `json:"purchases"     gorm:"not null"`
	Rating       float64   `json:"rating"        gorm:"not null"`
	TotalRatings uint64    `json:"total_ratings" gorm:"not null"`
}

// TableName returns the database table name for Prompt.
func (Prompt) TableName() string { return "prompts" }

// User is a marketplace participant keyed by caller identity.
// Earnings and spending are simulated ledgers and never decrease.
type User struct {
	ID               string    `json:"id"                gorm:"type:varchar(128);primaryKey"`
	Username         *string   `json:"username"          gorm:"type:varchar(64)"`
	Email            *string   `json:"email"             gorm:"type:varchar(255)"`
	JoinedAt         time.Time `json:"joined_at"         gorm:"not null"`
	TotalEarnings    uint64    `json:"total_earnings"    gorm:"not null"`
	TotalSpent       uint64    `json:"total_spent"       gorm:"not null"`
	PromptsCreated   uint64    `json:"prompts_created"   gorm:"not null"`
	PromptsPurchased uint64    `json:"prompts_purchased" gorm:"not null"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Purchase is an immutable fact of a buyer acquiring a prompt from a seller.
// Rows are only ever inserted. Seq orders a buyer's purchase index.
type Purchase struct {
	Seq       uint64    `json:"-"         gorm:"primaryKey;autoIncrement"`
	PromptID  uint64    `json:"prompt_id" gorm:"not null;index"`
	Buyer     string    `json:"buyer"     gorm:"type:varchar(128);not null;index:idx_purchase_buyer"`
	Seller    string    `json:"seller"    gorm:"type:varchar(128);not null"`
	Price     uint64    `json:"price"     gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

// TableName returns the database table name for Purchase.
func (Purchase) TableName() string { return "purchases" }

// Like records that a user liked a prompt. A user can like a prompt once.
type Like struct {
	Seq      uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   string `gorm:"type:varchar(128);not null;uniqueIndex:ux_like_user_prompt,priority:1"`
	PromptID uint64 `gorm:"not null;uniqueIndex:ux_like_user_prompt,priority:2"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }

// UserRating holds the last rating (1-5) a user submitted for a prompt.
type UserRating struct {
	UserID   string    `gorm:"type:varchar(128);primaryKey"`
	PromptID uint64    `gorm:"primaryKey;autoIncrement:false"`
	Value    uint8     `gorm:"not null;check:value BETWEEN 1 AND 5"`
	RatedAt  time.Time `gorm:"not null"`
}

// TableName returns the database table name for UserRating.
func (UserRating) TableName() string { return "user_ratings" }

// Sequence is a named monotonic counter. Next is the value the next
// allocation returns.
type Sequence struct {
	Name string `gorm:"type:varchar(32);primaryKey"`
	Next uint64 `gorm:"not null"`
}

// TableName returns the database table name for Sequence.
func (Sequence) TableName() string { return "sequences" }
