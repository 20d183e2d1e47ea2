package validation

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tbourn/prompt-vault/internal/domain"
)

func validInput() PromptInput {
	return PromptInput{
		Title:       "Cold email opener",
		Description: "Three lines that get replies",
		Content:     "Write a cold email to {name} about {topic}.",
		Tags:        []string{"sales", "email"},
		Category:    domain.CategoryMarketing,
	}
}

func wantInvalid(t *testing.T, err error, msg string) {
	t.Helper()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Fatalf("expected message %q, got %q", msg, err.Error())
	}
}

func TestPrompt_Valid(t *testing.T) {
	if err := Prompt(validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrompt_TitleBounds(t *testing.T) {
	in := validInput()
	in.Title = "   "
	wantInvalid(t, Prompt(in), "Title cannot be empty")

	in.Title = strings.Repeat("a", MaxTitleLen+1)
	wantInvalid(t, Prompt(in), "Title cannot exceed 100 characters")

	in.Title = strings.Repeat("a", MaxTitleLen)
	if err := Prompt(in); err != nil {
		t.Fatalf("100-char title should pass: %v", err)
	}
}

func TestPrompt_LengthsCountCharacters(t *testing.T) {
	in := validInput()
	// 100 two-byte runes: over 100 bytes, exactly 100 characters
	in.Title = strings.Repeat("é", MaxTitleLen)
	if err := Prompt(in); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestPrompt_DescriptionAndContent(t *testing.T) {
	in := validInput()
	in.Description = ""
	if err := Prompt(in); err != nil {
		t.Fatalf("empty description allowed: %v", err)
	}
	in.Description = strings.Repeat("d", MaxDescriptionLen+1)
	wantInvalid(t, Prompt(in), "Description cannot exceed 500 characters")

	in = validInput()
	in.Content = "\n\t "
	wantInvalid(t, Prompt(in), "Content cannot be empty")
	in.Content = strings.Repeat("c", MaxContentLen+1)
	wantInvalid(t, Prompt(in), "Content cannot exceed 10000 characters")
}

func TestPrompt_Tags(t *testing.T) {
	in := validInput()
	in.Tags = make([]string, MaxTags+1)
	for i := range in.Tags {
		in.Tags[i] = "t"
	}
	wantInvalid(t, Prompt(in), "Cannot have more than 10 tags")

	in.Tags = []string{"ok", strings.Repeat("x", MaxTagLen+1)}
	wantInvalid(t, Prompt(in), "Tag cannot exceed 30 characters")

	in.Tags = nil
	if err := Prompt(in); err != nil {
		t.Fatalf("no tags allowed: %v", err)
	}
}

func TestPrompt_FirstFailureWins(t *testing.T) {
	in := validInput()
	in.Title = ""
	in.Content = ""
	wantInvalid(t, Prompt(in), "Title cannot be empty")
}

func TestPrompt_UnknownCategory(t *testing.T) {
	in := validInput()
	in.Category = "Astrology"
	wantInvalid(t, Prompt(in), "Unknown category")
}

func TestPrompt_PriceBound(t *testing.T) {
	in := validInput()
	in.Price = MaxPrice
	if err := Prompt(in); err != nil {
		t.Fatalf("max price should pass: %v", err)
	}
	in.Price = MaxPrice + 1
	wantInvalid(t, Prompt(in), "Price cannot exceed 9223372036854775807")
	in.Price = math.MaxUint64
	wantInvalid(t, Prompt(in), "Price cannot exceed")

	over := MaxPrice + 1
	wantInvalid(t, Patch(PromptPatch{Price: &over}), "Price cannot exceed")
	okPrice := uint64(0)
	if err := Patch(PromptPatch{Price: &okPrice}); err != nil {
		t.Fatalf("zero price patch should pass: %v", err)
	}
}

func TestPatch_OnlySuppliedFields(t *testing.T) {
	if err := Patch(PromptPatch{}); err != nil {
		t.Fatalf("empty patch should pass: %v", err)
	}

	empty := ""
	wantInvalid(t, Patch(PromptPatch{Title: &empty}), "Title cannot be empty")
	wantInvalid(t, Patch(PromptPatch{Content: &empty}), "Content cannot be empty")

	long := strings.Repeat("z", MaxTagLen+1)
	tags := []string{long}
	wantInvalid(t, Patch(PromptPatch{Tags: &tags}), "Tag cannot exceed 30 characters")

	desc := ""
	if err := Patch(PromptPatch{Description: &desc}); err != nil {
		t.Fatalf("empty description allowed in patch: %v", err)
	}
}

func TestRating(t *testing.T) {
	for v := MinRating; v <= MaxRating; v++ {
		if err := Rating(v); err != nil {
			t.Fatalf("rating %d should pass: %v", v, err)
		}
	}
	for _, v := range []int{0, 6, -1, 255} {
		wantInvalid(t, Rating(v), "Rating must be between 1 and 5")
	}
}

func TestUsername(t *testing.T) {
	if err := Username(nil); err != nil {
		t.Fatalf("nil username allowed: %v", err)
	}
	ok := "ada"
	if err := Username(&ok); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	blank := "  "
	wantInvalid(t, Username(&blank), "Username must be between 1 and 50 characters")
	long := strings.Repeat("u", MaxUsernameLen+1)
	wantInvalid(t, Username(&long), "Username must be between 1 and 50 characters")
}
