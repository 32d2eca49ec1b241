// Package categorize learns which category a user files a description under
// and suggests it for new transactions.
package categorize

import (
	"context"
	"strings"

	"fintrack/pkg/ledger"
)

// Confidence levels returned with a suggestion.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceNone   = ""
)

// Suggestion is the result of Suggest. Category is empty when nothing matched.
type Suggestion struct {
	Category   string `json:"suggested_category"`
	Confidence string `json:"confidence"`
}

// Learner suggests categories from the user's mapping history.
type Learner struct {
	store ledger.MappingStore
}

// NewLearner builds a Learner over store.
func NewLearner(store ledger.MappingStore) *Learner {
	return &Learner{store: store}
}

// Normalize lowercases and trims a description into a mapping keyword.
func Normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Suggest returns the category of an exact keyword match, otherwise the first
// mapping (oldest first) whose keyword contains or is contained in the description.
func (l *Learner) Suggest(ctx context.Context, userID uint, description string) (Suggestion, error) {
	keyword := Normalize(description)
	if keyword == "" {
		return Suggestion{}, nil
	}
	exact, err := l.store.FindMapping(ctx, userID, keyword)
	if err != nil {
		return Suggestion{}, err
	}
	if exact != nil {
		return Suggestion{Category: exact.Category, Confidence: ConfidenceHigh}, nil
	}
	mappings, err := l.store.ListMappings(ctx, userID)
	if err != nil {
		return Suggestion{}, err
	}
	for _, m := range mappings {
		if m.Keyword == "" {
			continue
		}
		if strings.Contains(keyword, m.Keyword) || strings.Contains(m.Keyword, keyword) {
			return Suggestion{Category: m.Category, Confidence: ConfidenceMedium}, nil
		}
	}
	return Suggestion{}, nil
}

// Learn records that description was filed under category. Empty descriptions
// and categories are ignored.
func (l *Learner) Learn(ctx context.Context, userID uint, description, category string) error {
	keyword := Normalize(description)
	category = strings.TrimSpace(category)
	if keyword == "" || category == "" {
		return nil
	}
	_, err := l.store.UpsertMapping(ctx, userID, keyword, category)
	return err
}

// AutoCategorize is Suggest with a fallback to the default category. Import
// and sync paths use it; they never call Learn.
func (l *Learner) AutoCategorize(ctx context.Context, userID uint, description string) (string, error) {
	s, err := l.Suggest(ctx, userID, description)
	if err != nil {
		return ledger.DefaultCategory, err
	}
	if s.Category == "" {
		return ledger.DefaultCategory, nil
	}
	return s.Category, nil
}
