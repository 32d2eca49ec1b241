package receipt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var centsRE = regexp.MustCompile(`[.,]\d{2}$`)

// ParseAmount normalizes a matched substring into a decimal amount. A final
// separator followed by exactly two digits is the decimal point; every other
// separator is digit grouping, so both 1,234.56 and 1.234,56 read as 1234.56.
func ParseAmount(found string) (decimal.Decimal, error) {
	s := strings.TrimSpace(found)
	s = strings.TrimLeft(s, "$€£ ")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	var intPart, frac string
	if centsRE.MatchString(s) {
		intPart, frac = s[:len(s)-3], s[len(s)-2:]
	} else {
		intPart = s
	}
	digits := onlyDigits(intPart)
	if digits == "" {
		digits = "0"
	}
	if frac != "" {
		digits += "." + frac
	}
	amt, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", found, err)
	}
	return amt, nil
}

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
