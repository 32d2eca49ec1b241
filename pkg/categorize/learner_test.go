package categorize

import (
	"context"
	"errors"
	"testing"

	"fintrack/pkg/ledger"
)

func TestLearnThenSuggestExact(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	l := NewLearner(store)

	if err := l.Learn(ctx, 1, "Starbucks Coffee", "Food"); err != nil {
		t.Fatalf("learn: %v", err)
	}
	got, err := l.Suggest(ctx, 1, "  starbucks COFFEE ")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got.Category != "Food" || got.Confidence != ConfidenceHigh {
		t.Fatalf("expected Food/high got %+v", got)
	}
}

func TestLearnCountsAndRecategorizes(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	l := NewLearner(store)

	_ = l.Learn(ctx, 1, "Starbucks Coffee", "Food")
	_ = l.Learn(ctx, 1, "Starbucks Coffee", "Food")
	m, _ := store.FindMapping(ctx, 1, "starbucks coffee")
	if m == nil || m.Count != 2 || m.Category != "Food" {
		t.Fatalf("expected Food/2 got %+v", m)
	}

	_ = l.Learn(ctx, 1, "Starbucks Coffee", "Treats")
	m, _ = store.FindMapping(ctx, 1, "starbucks coffee")
	if m.Count != 1 || m.Category != "Treats" {
		t.Fatalf("expected Treats/1 after correction got %+v", m)
	}
}

func TestLearnIgnoresEmptyDescription(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	l := NewLearner(store)
	_ = l.Learn(ctx, 1, "   ", "Food")
	all, _ := store.ListMappings(ctx, 1)
	if len(all) != 0 {
		t.Fatalf("blank description must not create a mapping: %+v", all)
	}
}

func TestSuggestFuzzyFirstInsertedWins(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	l := NewLearner(store)
	_ = l.Learn(ctx, 1, "uber", "Transport")
	_ = l.Learn(ctx, 1, "uber eats", "Food")

	got, _ := l.Suggest(ctx, 1, "Uber Eats order 1234")
	if got.Category != "Transport" || got.Confidence != ConfidenceMedium {
		t.Fatalf("expected first inserted mapping Transport/medium got %+v", got)
	}

	// description contained in a keyword also matches
	got, _ = l.Suggest(ctx, 1, "eats")
	if got.Category != "Food" || got.Confidence != ConfidenceMedium {
		t.Fatalf("expected Food/medium got %+v", got)
	}
}

func TestSuggestNoMatch(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(ledger.NewMemoryStore())
	for _, desc := range []string{"", "   ", "anything"} {
		got, err := l.Suggest(ctx, 1, desc)
		if err != nil {
			t.Fatalf("suggest(%q) errored: %v", desc, err)
		}
		if got.Category != "" || got.Confidence != ConfidenceNone {
			t.Fatalf("expected no suggestion for %q got %+v", desc, got)
		}
	}
}

func TestSuggestIsPerUser(t *testing.T) {
	ctx := context.Background()
	l := NewLearner(ledger.NewMemoryStore())
	_ = l.Learn(ctx, 1, "netflix", "Entertainment")
	got, _ := l.Suggest(ctx, 2, "netflix")
	if got.Category != "" {
		t.Fatalf("mapping leaked to another user: %+v", got)
	}
}

func TestAutoCategorizeDefaultsToOther(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	l := NewLearner(store)
	cat, err := l.AutoCategorize(ctx, 1, "mystery shop")
	if err != nil || cat != ledger.DefaultCategory {
		t.Fatalf("expected Other got %q err=%v", cat, err)
	}
	_ = l.Learn(ctx, 1, "mystery shop", "Shopping")
	cat, _ = l.AutoCategorize(ctx, 1, "MYSTERY SHOP")
	if cat != "Shopping" {
		t.Fatalf("expected Shopping got %q", cat)
	}
	m, _ := store.FindMapping(ctx, 1, "mystery shop")
	if m.Count != 1 {
		t.Fatalf("auto categorization must not train the learner, count=%d", m.Count)
	}
}

type failingMappings struct{ ledger.MappingStore }

func (failingMappings) FindMapping(context.Context, uint, string) (*ledger.Mapping, error) {
	return nil, ledger.ErrDataAccess
}

func TestSuggestPropagatesStoreErrors(t *testing.T) {
	l := NewLearner(failingMappings{})
	if _, err := l.Suggest(context.Background(), 1, "x"); !errors.Is(err, ledger.ErrDataAccess) {
		t.Fatalf("expected ErrDataAccess got %v", err)
	}
}
