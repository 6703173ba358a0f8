package normalize

import (
	"strconv"
	"strings"
)

// currencyTokens are stripped from numeric input before parsing. Listings
// arrive with values like "12 000 ₽", "1 200,50 руб./м2" or "$25".
var currencyTokens = []string{
	"₽", "руб.", "руб", "р.", "$", "€", "rub", "usd", "eur", "/м2", "/м²", "м2", "м²",
}

// Number parses a raw numeric field: whitespace (including non-breaking
// spaces) and currency artifacts are stripped, a decimal comma becomes a
// decimal point. Total function: malformed input yields (nil, false), never
// an error.
func Number(raw string) (*float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "null" {
		return nil, false
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

// PositiveNumber is Number restricted to values strictly greater than zero.
func PositiveNumber(raw string) (*float64, bool) {
	f, ok := Number(raw)
	if !ok || *f <= 0 {
		return nil, false
	}
	return f, true
}
