package extraction

import (
	"math"
	"strings"
	"time"
)

// ValidateRecord is the closed-set coercion layer applied to every
// candidate record coming back from an extractor. Model output is treated
// as hostile input: unknown enum values collapse to their defaults, the
// amount is forced finite and non-negative, and the receipt date is routed
// through the plausibility-window reconciler rather than accepted verbatim.
// A mostly-correct response is more valuable than a hard failure, so
// nothing here rejects.
func ValidateRecord(rec *ExtractedRecord, filename string, now time.Time) *ExtractedRecord {
	rec.MerchantName = strings.TrimSpace(rec.MerchantName)
	rec.Category = CoerceCategory(string(rec.Category))
	rec.Confidence = CoerceConfidence(string(rec.Confidence))

	if math.IsNaN(rec.Amount) || math.IsInf(rec.Amount, 0) || rec.Amount < 0 {
		rec.Amount = 0
	}

	date, dateConfidence := ReconcileDate(rec.ReceiptDate, filename, now)
	rec.ReceiptDate = date
	if dateConfidence == ConfidenceHigh {
		rec.DateSource = DateSourceVision
	} else {
		rec.DateSource = DateSourceEstimated
	}

	return rec
}
