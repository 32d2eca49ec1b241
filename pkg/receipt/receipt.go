// Package receipt extracts the total and merchant from a photographed receipt
// using imaging preprocessing and Tesseract.
package receipt

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Scan is what a receipt image yielded.
type Scan struct {
	Total      decimal.Decimal `json:"total"`
	Raw        string          `json:"raw"`
	Line       string          `json:"line"`
	Merchant   string          `json:"merchant"`
	Confidence float64         `json:"confidence"`
}

// ExtractTotal runs the OCR passes over the image at path and analyzes the text.
func ExtractTotal(path string) (Scan, error) {
	texts, err := runPasses(path)
	if err != nil {
		return Scan{}, fmt.Errorf("ocr passes: %w", err)
	}
	scan, err := Analyze(texts...)
	if err != nil {
		log.Debug().Str("file", path).Str("text", snippet(texts[0], 160)).Msg("no total found")
		return Scan{}, err
	}
	log.Debug().Str("file", path).Str("raw", scan.Raw).Str("total", scan.Total.StringFixed(2)).Msg("receipt total")
	return scan, nil
}

// Analyze picks the total across the texts of several OCR passes. The merchant
// is guessed from the first text.
func Analyze(texts ...string) (Scan, error) {
	var cands []Candidate
	for _, t := range texts {
		cands = append(cands, FindCandidates(t)...)
	}
	best, ok := BestAmount(cands)
	if !ok {
		return Scan{}, ErrNoAmount
	}
	conf := 0.5
	if best.score >= 10 {
		conf = 0.9
	} else if best.score > 0 {
		conf = 0.7
	}
	scan := Scan{
		Total:      best.Amount.Round(2),
		Raw:        best.Raw,
		Line:       best.Line,
		Confidence: conf,
	}
	if len(texts) > 0 {
		scan.Merchant = GuessMerchant(texts[0])
	}
	return scan, nil
}

// snippet shortens text for logging.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
