// Package validation holds the pure input checks applied before any
// marketplace mutation. Checks run in a fixed order and report only the first
// violated rule; callers must not rely on every violation being reported.
//
// Bounds are declared as go-playground/validator struct tags. Field order in
// each input struct is the rule order, and validator stops at the first
// failing tag of a field, so the first FieldError is always the first rule
// broken. Lengths are counted in characters (Unicode code points).
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// Limits.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
	MaxContentLen     = 10000
	MaxTags           = 10
	MaxTagLen         = 30
	MaxUsernameLen    = 50
	MinRating         = 1
	MaxRating         = 5
	// MaxPrice is the largest price in e8s the record store can hold.
	MaxPrice uint64 = math.MaxInt64
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid input")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	return v
}

// PromptInput carries the user-supplied fields of a new prompt.
type PromptInput struct {
	Title       string          `validate:"notblank,max=100"`
	Description string          `validate:"max=500"`
	Content     string          `validate:"notblank,max=10000"`
	Tags        []string        `validate:"max=10,dive,max=30"`
	Category    domain.Category `validate:"category"`
	Price       uint64          `validate:"lte=9223372036854775807"`
}

// Prompt validates the fields of a new prompt.
func Prompt(in PromptInput) error {
	return translate(validate.Struct(in))
}

// PromptPatch validates the supplied fields of a partial update. Nil fields
// are absent from the update and are not checked.
type PromptPatch struct {
	Title       *string          `validate:"omitnil,notblank,max=100"`
	Description *string          `validate:"omitnil,max=500"`
	Content     *string          `validate:"omitnil,notblank,max=10000"`
	Tags        *[]string        `validate:"omitnil,max=10,dive,max=30"`
	Category    *domain.Category `validate:"omitnil,category"`
	Price       *uint64          `validate:"omitnil,lte=9223372036854775807"`
}

// Patch validates a partial prompt update.
func Patch(in PromptPatch) error {
	return translate(validate.Struct(in))
}

// Rating checks that v is within [1,5].
func Rating(v int) error {
	if v < MinRating || v > MaxRating {
		return fmt.Errorf("%w: Rating must be between %d and %d", ErrInvalid, MinRating, MaxRating)
	}
	return nil
}

// Username checks an optional display name. Nil is valid.
func Username(name *string) error {
	if name == nil {
		return nil
	}
	if err := validate.Var(*name, "notblank,max=50"); err != nil {
		return fmt.Errorf("%w: Username must be between 1 and %d characters", ErrInvalid, MaxUsernameLen)
	}
	return nil
}

// translate maps the first validator failure to a descriptive error.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fmt.Errorf("%w: %s", ErrInvalid, message(verrs[0]))
}

func message(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Title":
		if fe.Tag() == "notblank" {
			return "Title cannot be empty"
		}
		return fmt.Sprintf("Title cannot exceed %d characters", MaxTitleLen)
	case "Description":
		return fmt.Sprintf("Description cannot exceed %d characters", MaxDescriptionLen)
	case "Content":
		if fe.Tag() == "notblank" {
			return "Content cannot be empty"
		}
		return fmt.Sprintf("Content cannot exceed %d characters", MaxContentLen)
	case "Tags":
		return fmt.Sprintf("Cannot have more than %d tags", MaxTags)
	case "Category":
		return fmt.Sprintf("Unknown category %q", fe.Value())
	case "Price":
		return fmt.Sprintf("Price cannot exceed %d", MaxPrice)
	}
	// dive errors report the element, e.g. "Tags[3]"
	if strings.HasPrefix(fe.StructField(), "Tags[") {
		return fmt.Sprintf("Tag cannot exceed %d characters", MaxTagLen)
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
