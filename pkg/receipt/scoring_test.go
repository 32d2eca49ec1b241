package receipt

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

const groceryText = `FRESH MART
123 Main St
Tel 555-0100
Bananas 1.29
Milk 3.49
Steak 24.99
SUBTOTAL 29.77
TAX 2.38
TOTAL $32.15
CASH 40.00
CHANGE 7.85
`

func TestAnalyzePrefersTotalLine(t *testing.T) {
	scan, err := Analyze(groceryText)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !scan.Total.Equal(decimal.RequireFromString("32.15")) {
		t.Fatalf("expected 32.15 got %s (line %q)", scan.Total, scan.Line)
	}
	if scan.Merchant != "FRESH MART" {
		t.Fatalf("expected merchant FRESH MART got %q", scan.Merchant)
	}
	if scan.Confidence < 0.9 {
		t.Fatalf("keyword hit should be high confidence, got %v", scan.Confidence)
	}
}

func TestBestAmountTieGoesToLarger(t *testing.T) {
	cands := FindCandidates("Widget 4.00\nGadget 9.50\n")
	best, ok := BestAmount(cands)
	if !ok || !best.Amount.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected 9.50 got %+v", best)
	}
}

func TestSubtotalLosesToTotal(t *testing.T) {
	cands := FindCandidates("Sub Total 50.00\nGrand Total 54.10\n")
	best, _ := BestAmount(cands)
	if best.Raw != "54.10" {
		t.Fatalf("expected grand total got %+v", best)
	}
}

func TestAnalyzeAcrossPasses(t *testing.T) {
	scan, err := Analyze("CAFE ROMA\nLatte", "TOTAL 4.75")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if scan.Merchant != "CAFE ROMA" || scan.Raw != "4.75" {
		t.Fatalf("unexpected scan %+v", scan)
	}
}

func TestAnalyzeNoAmount(t *testing.T) {
	if _, err := Analyze("LOGO\nthank you"); !errors.Is(err, ErrNoAmount) {
		t.Fatalf("expected ErrNoAmount got %v", err)
	}
}

func TestGuessMerchantSkipsNoise(t *testing.T) {
	got := GuessMerchant("*** RECEIPT ***\n0012 3344\nBlue Bottle Coffee\n")
	if got != "Blue Bottle Coffee" {
		t.Fatalf("unexpected merchant %q", got)
	}
}
