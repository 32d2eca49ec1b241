package receipt

import "strings"

// isPlausibleAmount rejects numbers that are more likely phone numbers,
// card fragments or transaction ids than prices.
func isPlausibleAmount(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	hasCurrency := strings.ContainsAny(s, "$€£")
	d := onlyDigits(s)
	if d == "" || len(d) > 8 {
		return false
	}
	if centsRE.MatchString(s) {
		return true
	}
	if !hasCurrency {
		return false
	}
	return d[0] != '0' || len(d) == 1
}
