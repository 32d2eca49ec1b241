package receipt

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is one amount found in the OCR text together with the line it sits on.
type Candidate struct {
	Raw    string
	Line   string
	Amount decimal.Decimal
	score  int
}

var amountRE = regexp.MustCompile(`[$€£]?\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})|[$€£]\s?\d+`)

var (
	totalWords    = []string{"grand total", "total due", "amount due", "balance due", "total"}
	weakWords     = []string{"subtotal", "sub total", "sub-total"}
	negativeWords = []string{"tax", "change", "cash", "tendered", "tip", "discount", "savings", "you saved"}
)

// FindCandidates scans every line of text for plausible amounts.
func FindCandidates(text string) []Candidate {
	var out []Candidate
	seen := map[string]struct{}{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, m := range amountRE.FindAllString(line, -1) {
			raw := strings.TrimSpace(m)
			if !isPlausibleAmount(raw) {
				continue
			}
			amt, err := ParseAmount(raw)
			if err != nil || !amt.IsPositive() {
				continue
			}
			key := strings.ToLower(line) + "|" + raw
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Candidate{Raw: raw, Line: line, Amount: amt})
		}
	}
	return out
}

func scoreCandidate(c Candidate) int {
	s := 0
	low := strings.ToLower(c.Line)
	switch {
	case containsAny(low, weakWords):
		s += 3
	case containsAny(low, totalWords):
		s += 10
	}
	if containsAny(low, negativeWords) {
		s -= 6
	}
	if strings.ContainsAny(c.Raw, "$€£") {
		s += 4
	}
	if centsRE.MatchString(c.Raw) {
		s += 3
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// BestAmount picks the highest scoring candidate. Ties go to the larger
// amount, then to the longer raw match.
func BestAmount(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	best.score = scoreCandidate(best)
	for _, c := range cands[1:] {
		c.score = scoreCandidate(c)
		replace := false
		switch {
		case c.score > best.score:
			replace = true
		case c.score == best.score:
			if cmp := c.Amount.Cmp(best.Amount); cmp > 0 || (cmp == 0 && len(c.Raw) > len(best.Raw)) {
				replace = true
			}
		}
		if replace {
			best = c
		}
	}
	return best, true
}
