// Package access decides who may see, rate and modify a prompt.
// Predicates are pure and evaluated fresh on every call; whether the caller
// purchased the prompt is supplied by the record store.
package access

import "github.com/tbourn/prompt-vault/internal/domain"

// IsAuthor reports whether caller published p.
func IsAuthor(caller string, p *domain.Prompt) bool {
	return p != nil && p.Author == caller
}

// CanViewContent reports whether caller may read the full content of p.
func CanViewContent(caller string, p *domain.Prompt, purchased bool) bool {
	if p == nil {
		return false
	}
	return p.IsPublic || IsAuthor(caller, p) || purchased
}

// CanRate reports whether caller may rate p. Authors never rate their own
// prompts; private prompts require a purchase.
func CanRate(caller string, p *domain.Prompt, purchased bool) bool {
	if p == nil || IsAuthor(caller, p) {
		return false
	}
	return p.IsPublic || purchased
}

// CanModify reports whether caller may update or delete p.
func CanModify(caller string, p *domain.Prompt) bool {
	return IsAuthor(caller, p)
}
