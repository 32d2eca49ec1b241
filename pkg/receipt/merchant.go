package receipt

import (
	"strings"
	"unicode"
)

var notMerchant = []string{"receipt", "welcome", "thank", "invoice", "order", "date", "time", "tel", "phone", "www", "http"}

// GuessMerchant returns the first line near the top that reads like a store name.
func GuessMerchant(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 8 {
		lines = lines[:8]
	}
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		letters, digits := 0, 0
		for _, r := range line {
			switch {
			case unicode.IsLetter(r):
				letters++
			case unicode.IsDigit(r):
				digits++
			}
		}
		if letters < 3 || digits > letters {
			continue
		}
		if containsAny(strings.ToLower(line), notMerchant) {
			continue
		}
		if len(line) > 40 {
			line = line[:40]
		}
		return line
	}
	return ""
}
