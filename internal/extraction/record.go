package extraction

import (
	"strings"
	"time"
)

// Category is the closed expense taxonomy. Anything the model invents
// outside this set collapses to Other.
type Category string

const (
	CategoryMeals    Category = "Meals"
	CategoryTravel   Category = "Travel"
	CategorySupplies Category = "Supplies"
	CategoryOther    Category = "Other"
)

var allCategories = []Category{CategoryMeals, CategoryTravel, CategorySupplies, CategoryOther}

// CoerceCategory maps arbitrary model output onto the closed category set.
// Unknown values become Other rather than failing the extraction.
func CoerceCategory(input string) Category {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat
		}
	}
	return CategoryOther
}

// Confidence is the categorical trust label attached to an extraction.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CoerceConfidence maps arbitrary model output onto the closed confidence
// set, defaulting to medium.
func CoerceConfidence(input string) Confidence {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case string(ConfidenceHigh):
		return ConfidenceHigh
	case string(ConfidenceLow):
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

// DateSource records where the receipt date came from.
type DateSource string

const (
	DateSourceVision    DateSource = "ai_vision"
	DateSourceEstimated DateSource = "estimated"
)

// Product-tuned routing constants. The values are inherited from the
// original product configuration; do not re-derive them.
const (
	ScoreHigh       = 0.9
	ScoreMedium     = 0.7
	ScoreLow        = 0.5
	ReviewThreshold = 0.72
)

// Score maps the categorical confidence to its numeric review-routing score.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return ScoreHigh
	case ConfidenceLow:
		return ScoreLow
	default:
		return ScoreMedium
	}
}

// ExtractedRecord is the transient candidate produced by one extraction
// attempt, before normalization. AmountText preserves the amount exactly as
// the extractor saw it (including any currency symbol) for the currency
// normalizer; Amount is the defensively coerced numeric value.
type ExtractedRecord struct {
	MerchantName    string     `json:"merchant_name"`
	Amount          float64    `json:"amount"`
	AmountText      string     `json:"-"`
	Category        Category   `json:"category"`
	ReceiptDate     string     `json:"receipt_date"` // YYYY-MM-DD
	Confidence      Confidence `json:"confidence"`
	DateSource      DateSource `json:"date_source"`
	ExtractionNotes string     `json:"extraction_notes,omitempty"`
	Currency        string     `json:"currency,omitempty"`
}

// NormalizedRecord is the persistence-ready expense record handed to the
// caller. The store assigns ID and CreatedAt when it is written.
type NormalizedRecord struct {
	ID              string     `json:"id,omitempty"`
	UserID          string     `json:"user_id"`
	FileURL         string     `json:"file_url"`
	MerchantName    string     `json:"merchant_name"`
	Amount          float64    `json:"amount"`
	CurrencyCode    string     `json:"currency_code"`
	CurrencySymbol  string     `json:"currency_symbol"`
	Category        Category   `json:"category"`
	ReceiptDate     string     `json:"receipt_date"`
	Confidence      Confidence `json:"confidence"`
	ConfidenceScore float64    `json:"confidence_score"`
	NeedsReview     bool       `json:"needs_review"`
	IsDuplicate     bool       `json:"is_duplicate"`
	DateSource      DateSource `json:"date_source"`
	ExtractionNotes string     `json:"extraction_notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
}
