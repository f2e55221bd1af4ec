package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChayanSD/reimburse-ai/internal/extraction"
)

var reAmountNumeric = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// wireRecord is the shape we ask the model for. Every field is optional in
// practice: the reply is untrusted text and each value is coerced
// individually.
type wireRecord struct {
	MerchantName    string          `json:"merchant_name"`
	Amount          json.RawMessage `json:"amount"`
	Category        string          `json:"category"`
	ReceiptDate     string          `json:"receipt_date"`
	Confidence      string          `json:"confidence"`
	ExtractionNotes string          `json:"extraction_notes"`
	Currency        string          `json:"currency"`
}

// parseReply extracts a candidate record from a free-form model reply. It
// locates the first balanced JSON object substring, falling back to the
// entire trimmed reply, and defensively coerces every field. The receipt
// date is returned raw; the pipeline's validation layer reconciles it.
func parseReply(text string) (*extraction.ExtractedRecord, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var wire wireRecord
	candidate, found := firstJSONObject(text)
	err := fmt.Errorf("no JSON object found in reply")
	if found {
		err = json.Unmarshal([]byte(candidate), &wire)
	}
	if err != nil {
		// Fall back to the whole reply; some models emit bare JSON with
		// stray braces inside string values the scanner tripped on.
		if wholeErr := json.Unmarshal([]byte(text), &wire); wholeErr != nil {
			return nil, fmt.Errorf("unmarshaling reply: %w", err)
		}
	}

	amount, amountText := coerceAmount(wire.Amount)

	return &extraction.ExtractedRecord{
		MerchantName:    strings.TrimSpace(wire.MerchantName),
		Amount:          amount,
		AmountText:      amountText,
		Category:        extraction.CoerceCategory(wire.Category),
		ReceiptDate:     strings.TrimSpace(wire.ReceiptDate),
		Confidence:      extraction.CoerceConfidence(wire.Confidence),
		DateSource:      extraction.DateSourceVision,
		ExtractionNotes: strings.TrimSpace(wire.ExtractionNotes),
		Currency:        strings.ToUpper(strings.TrimSpace(wire.Currency)),
	}, nil
}

// firstJSONObject scans for the first balanced top-level JSON object,
// tracking string and escape state so braces inside values don't terminate
// the scan early.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// coerceAmount accepts the amount as a JSON number or string and returns a
// finite, non-negative value plus the raw text as the model wrote it
// (preserving any currency symbol for the currency normalizer).
// Unparseable input coerces to 0, never NaN or a negative.
func coerceAmount(raw json.RawMessage) (float64, string) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ""
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		if num < 0 {
			num = 0
		}
		return num, strings.TrimSpace(string(raw))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ""
	}
	s = strings.TrimSpace(s)

	numeric := reAmountNumeric.FindString(strings.ReplaceAll(s, ",", ""))
	if numeric == "" {
		return 0, s
	}
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil || v < 0 {
		return 0, s
	}
	return v, s
}
