// Package search provides the text matching and popularity ranking used to
// search the public prompt catalogue. It is deterministic and holds no state
// between calls:
//
//   - Matching lowercases query and text with golang.org/x/text/cases and
//     tests for a substring in the title, the description and each tag. The
//     query is used as given: surrounding spaces are part of it.
//   - The empty query is a substring of everything, so it matches every prompt.
//   - Ranking orders by popularity score, highest first; ties keep their input
//     order.
//
// Popularity score = likes + purchases + floor(rating*10).
package search

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// Matcher tests prompts against a single lowercased query. A Matcher is not safe
// for concurrent use.
type Matcher struct {
	caser cases.Caser
	query string
}

// NewMatcher prepares q for repeated matching.
func NewMatcher(q string) *Matcher {
	m := &Matcher{caser: cases.Lower(language.Und)}
	m.query = m.lower(q)
	return m
}

func (m *Matcher) lower(s string) string {
	m.caser.Reset()
	return m.caser.String(s)
}

// Match reports whether p's title, description or any tag contains the query.
func (m *Matcher) Match(p *domain.Prompt) bool {
	if strings.Contains(m.lower(p.Title), m.query) ||
		strings.Contains(m.lower(p.Description), m.query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(m.lower(tag), m.query) {
			return true
		}
	}
	return false
}

// Filter returns the prompts matching q, preserving order.
func Filter(prompts []domain.Prompt, q string) []domain.Prompt {
	m := NewMatcher(q)
	out := make([]domain.Prompt, 0, len(prompts))
	for i := range prompts {
		if m.Match(&prompts[i]) {
			out = append(out, prompts[i])
		}
	}
	return out
}

// Score is the popularity of p used for ranking.
func Score(p *domain.Prompt) uint64 {
	r := p.Rating * 10
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		r = 0
	}
	return p.Likes + p.Purchases + uint64(r)
}

// Rank sorts prompts in place by Score descending. The sort is stable.
func Rank(prompts []domain.Prompt) {
	sort.SliceStable(prompts, func(i, j int) bool {
		return Score(&prompts[i]) > Score(&prompts[j])
	})
}
