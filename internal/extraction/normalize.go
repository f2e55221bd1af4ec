package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Trailing noise commonly appended to card-statement merchant names:
	// promo/trip codes after '*' or '#', store numbers (4-digit codes), and
	// " - City" location suffixes.
	reStarSuffix     = regexp.MustCompile(`\s*\*.*$`)
	reHashSuffix     = regexp.MustCompile(`\s*#.*$`)
	reStoreCode      = regexp.MustCompile(`\s+\d{4}\b.*$`)
	reLocationSuffix = regexp.MustCompile(`\s+-\s+.*$`)
	reWhitespace     = regexp.MustCompile(`\s+`)

	reNumeric = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// currencySymbols maps the recognized display symbols to ISO 4217 codes.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
}

// NormalizeMerchant cleans a raw merchant name for persistence: trailing
// promo/store/location suffixes stripped, whitespace collapsed, words
// title-cased. An empty result becomes "Unknown Merchant". Idempotent and
// side-effect-free.
func NormalizeMerchant(name string) string {
	cleaned := reStarSuffix.ReplaceAllString(name, "")
	cleaned = reHashSuffix.ReplaceAllString(cleaned, "")
	cleaned = reStoreCode.ReplaceAllString(cleaned, "")
	cleaned = reLocationSuffix.ReplaceAllString(cleaned, "")
	cleaned = reWhitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return fallbackMerchant
	}

	words := strings.Split(cleaned, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}

// NormalizeCurrency extracts the canonical amount from the raw amount text
// and detects a currency symbol. Absent a recognized symbol it returns the
// caller-supplied default code with a literal "$" display symbol — callers
// must not infer the currency from the symbol alone.
func NormalizeCurrency(rawAmount, defaultCurrency string) (float64, string, string) {
	amount := 0.0
	numeric := reNumeric.FindString(strings.ReplaceAll(rawAmount, ",", ""))
	if numeric != "" {
		if v, err := strconv.ParseFloat(numeric, 64); err == nil {
			amount = v
		}
	}

	for _, cs := range currencySymbols {
		if strings.Contains(rawAmount, cs.symbol) {
			return amount, cs.code, cs.symbol
		}
	}

	code := strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if code == "" {
		code = "USD"
	}
	return amount, code, "$"
}

var reTwoDigitYear = regexp.MustCompile(`^(\d{1,2})([/-])(\d{1,2})[/-](\d{2})$`)

// ReparseDate is a second, independent date recognizer used when preparing
// records for persistence. It returns false on total failure so the caller
// can keep the previously reconciled date instead of overwriting it.
//
// Two-digit years below 50 resolve to the 2000s, the rest to the 1900s.
func ReparseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{"2006-01-02", "01/02/2006", "01-02-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if m := reTwoDigitYear.FindStringSubmatch(s); m != nil {
		year := atoi(m[4])
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
		if t, ok := calendarDate(year, atoi(m[1]), atoi(m[3])); ok {
			return t, true
		}
	}

	return time.Time{}, false
}
